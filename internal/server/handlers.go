package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/exam-regions/internal/detection"
	"github.com/ironsheep/exam-regions/internal/geometry"
	"github.com/ironsheep/exam-regions/internal/imaging"
	"github.com/ironsheep/exam-regions/internal/ocr"
	"github.com/ironsheep/exam-regions/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "segment_page", "region_crop").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Page Information
	case "page_info":
		return s.handlePageInfo(args)

	// Segmentation
	case "segment_page":
		return s.handleSegmentPage(ctx, args)
	case "segment_document":
		return s.handleSegmentDocument(ctx, args)

	// Detection Stages
	case "detect_candidate_boxes":
		return s.handleDetectCandidateBoxes(args)
	case "deduplicate_boxes":
		return s.handleDeduplicateBoxes(args)
	case "cluster_text_boxes":
		return s.handleClusterTextBoxes(args)

	// Region Output
	case "region_crop":
		return s.handleRegionCrop(args)
	case "region_overlay":
		return s.handleRegionOverlay(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// diagnostic is the JSON form of a pipeline event.
type diagnostic struct {
	Page   int                `json:"page"`
	Kind   pipeline.EventKind `json:"kind"`
	Detail string             `json:"detail,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// diagnostics returns the recorded events worth reporting to a client.
func diagnostics(rec *pipeline.Recorder) []diagnostic {
	var out []diagnostic
	for _, e := range rec.Events() {
		if e.Kind == pipeline.EventPageStarted || e.Kind == pipeline.EventPageDone {
			continue
		}
		d := diagnostic{Page: e.Page, Kind: e.Kind, Detail: e.Detail}
		if e.Err != nil {
			d.Error = e.Err.Error()
		}
		out = append(out, d)
	}
	return out
}

// observe returns an observer that records events and logs them.
func (s *Server) observe() (*pipeline.Recorder, pipeline.Observer) {
	rec := &pipeline.Recorder{}
	return rec, pipeline.Multi(rec, pipeline.NewSlogObserver(s.logger))
}

// segmenter builds a Segmenter from the server configuration.
func (s *Server) segmenter(geometricOnly bool, obs pipeline.Observer) *pipeline.Segmenter {
	var detector ocr.TextFragmentDetector = s.detector
	if geometricOnly {
		detector = ocr.NoDetector{}
	}
	return pipeline.NewSegmenter(s.cfg.Detection, detector, obs)
}

func parseBox(b []int) (geometry.Rect, error) {
	if len(b) != 4 {
		return geometry.Rect{}, fmt.Errorf("box must be [x, y, width, height], got %d values", len(b))
	}
	r := geometry.NewRect(b[0], b[1], b[2], b[3])
	if r.Empty() {
		return geometry.Rect{}, fmt.Errorf("box %v has no area", b)
	}
	return r, nil
}

func parseBoxes(boxes [][]int) ([]geometry.Rect, error) {
	out := make([]geometry.Rect, 0, len(boxes))
	for i, b := range boxes {
		r, err := parseBox(b)
		if err != nil {
			return nil, fmt.Errorf("boxes[%d]: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func boxesOf(rects []geometry.Rect) [][]int {
	out := make([][]int, len(rects))
	for i, r := range rects {
		out[i] = r.Slice()
	}
	return out
}

// === Page Information Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handlePageInfo(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	return imaging.LoadPageInfo(s.cache, a.Path)
}

// === Segmentation Handlers ===

type segmentPageArgs struct {
	Path          string `json:"path"`
	PageNumber    int    `json:"page_number"`
	OutputDir     string `json:"output_dir"`
	GeometricOnly bool   `json:"geometric_only"`
}

type segmentPageResult struct {
	PageNumber    int                         `json:"page_number"`
	Width         int                         `json:"width"`
	Height        int                         `json:"height"`
	DetectionPath pipeline.Path               `json:"detection_path"`
	Questions     []pipeline.QuestionManifest `json:"questions"`
	Diagnostics   []diagnostic                `json:"diagnostics,omitempty"`
}

func (s *Server) handleSegmentPage(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a segmentPageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	if a.PageNumber < 1 {
		a.PageNumber = 1
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrUnreadableImage, err)
	}

	rec, obs := s.observe()
	seg, err := s.segmenter(a.GeometricOnly, obs).Segment(ctx, a.PageNumber, img)
	if err != nil {
		return nil, err
	}

	page := pipeline.PageResult{PageNumber: a.PageNumber, Regions: seg.Regions}
	if a.OutputDir != "" {
		extractor, err := pipeline.NewRegionExtractor(a.OutputDir, s.cfg.Format)
		if err != nil {
			return nil, err
		}
		extractor.JPEGQuality = s.cfg.JPEGQuality
		page.Artifacts, err = extractor.Extract(a.PageNumber, img, seg.Regions)
		if err != nil {
			return nil, err
		}
	}

	return &segmentPageResult{
		PageNumber:    a.PageNumber,
		Width:         seg.Width,
		Height:        seg.Height,
		DetectionPath: seg.Path,
		Questions:     page.Questions(),
		Diagnostics:   diagnostics(rec),
	}, nil
}

type segmentDocumentArgs struct {
	Paths         []string `json:"paths"`
	OutputDir     string   `json:"output_dir"`
	ManifestPath  string   `json:"manifest_path"`
	Workers       int      `json:"workers"`
	GeometricOnly bool     `json:"geometric_only"`
}

type segmentDocumentResult struct {
	pipeline.Manifest
	Diagnostics []diagnostic `json:"diagnostics,omitempty"`
}

func (s *Server) handleSegmentDocument(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a segmentDocumentArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, errors.New("paths is required")
	}
	if a.Workers < 1 {
		a.Workers = s.cfg.Workers
	}

	rec, obs := s.observe()
	runner := &pipeline.Runner{
		Segmenter: s.segmenter(a.GeometricOnly, obs),
		Workers:   a.Workers,
		Observer:  obs,
	}
	if a.OutputDir != "" {
		extractor, err := pipeline.NewRegionExtractor(a.OutputDir, s.cfg.Format)
		if err != nil {
			return nil, err
		}
		extractor.JPEGQuality = s.cfg.JPEGQuality
		extractor.Overlay = s.cfg.Overlay
		runner.Extractor = extractor
	}

	doc, err := runner.ProcessSource(ctx, pipeline.ImageFiles(a.Paths))
	if err != nil {
		return nil, err
	}
	if a.ManifestPath != "" {
		if err := pipeline.WriteManifest(a.ManifestPath, doc); err != nil {
			return nil, err
		}
	}

	return &segmentDocumentResult{
		Manifest:    doc.Manifest(),
		Diagnostics: diagnostics(rec),
	}, nil
}

// === Detection Stage Handlers ===

type detectCandidateBoxesArgs struct {
	Path    string `json:"path"`
	MinArea int    `json:"min_area"`
}

type configFailure struct {
	Config string `json:"config"`
	Error  string `json:"error"`
}

type detectCandidateBoxesResult struct {
	Count    int             `json:"count"`
	Boxes    [][]int         `json:"boxes"`
	Failures []configFailure `json:"failures,omitempty"`
}

func (s *Server) handleDetectCandidateBoxes(args json.RawMessage) (interface{}, error) {
	var a detectCandidateBoxesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	params := s.cfg.Detection
	if a.MinArea > 0 {
		params.MinContourArea = a.MinArea
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	boxes, failures := detection.CandidateBoxes(detection.Grayscale(img), params)
	geometry.SortReadingOrder(boxes)

	result := &detectCandidateBoxesResult{Count: len(boxes), Boxes: boxesOf(boxes)}
	for _, f := range failures {
		result.Failures = append(result.Failures, configFailure{Config: f.Config.String(), Error: f.Err.Error()})
	}
	return result, nil
}

type deduplicateBoxesArgs struct {
	Boxes            [][]int `json:"boxes"`
	OverlapThreshold float64 `json:"overlap_threshold"`
}

type boxesResult struct {
	Count int     `json:"count"`
	Boxes [][]int `json:"boxes"`
}

func (s *Server) handleDeduplicateBoxes(args json.RawMessage) (interface{}, error) {
	var a deduplicateBoxesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OverlapThreshold == 0 {
		a.OverlapThreshold = s.cfg.Detection.OverlapThreshold
	}
	if a.OverlapThreshold < 0 || a.OverlapThreshold > 1 {
		return nil, fmt.Errorf("overlap_threshold must be in (0,1], got %g", a.OverlapThreshold)
	}

	boxes, err := parseBoxes(a.Boxes)
	if err != nil {
		return nil, err
	}
	kept := detection.Deduplicate(boxes, a.OverlapThreshold)
	return &boxesResult{Count: len(kept), Boxes: boxesOf(kept)}, nil
}

type clusterTextBoxesArgs struct {
	Boxes      [][]int `json:"boxes"`
	PageWidth  int     `json:"page_width"`
	PageHeight int     `json:"page_height"`
	GapFactor  float64 `json:"gap_factor"`
}

type clusterTextBoxesResult struct {
	Clusters int     `json:"clusters"`
	Count    int     `json:"count"`
	Boxes    [][]int `json:"boxes"`
}

func (s *Server) handleClusterTextBoxes(args json.RawMessage) (interface{}, error) {
	var a clusterTextBoxesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.PageWidth <= 0 || a.PageHeight <= 0 {
		return nil, fmt.Errorf("page_width and page_height must be positive, got %dx%d", a.PageWidth, a.PageHeight)
	}
	params := s.cfg.Detection
	if a.GapFactor > 0 {
		params.GapFactor = a.GapFactor
	}

	boxes, err := parseBoxes(a.Boxes)
	if err != nil {
		return nil, err
	}
	clusters := detection.ClusterRects(boxes, params)
	regions := detection.ClusterBoxes(boxes, a.PageWidth, a.PageHeight, params)
	return &clusterTextBoxesResult{
		Clusters: len(clusters),
		Count:    len(regions),
		Boxes:    boxesOf(regions),
	}, nil
}

// === Region Output Handlers ===

type regionCropArgs struct {
	Path  string  `json:"path"`
	Box   []int   `json:"box"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleRegionCrop(args json.RawMessage) (interface{}, error) {
	var a regionCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	r, err := parseBox(a.Box)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(img, r, a.Scale)
}

type regionOverlayArgs struct {
	Path  string  `json:"path"`
	Boxes [][]int `json:"boxes"`
}

type regionOverlayResult struct {
	*imaging.OverlayResult
	Boxes       [][]int      `json:"boxes"`
	Diagnostics []diagnostic `json:"diagnostics,omitempty"`
}

func (s *Server) handleRegionOverlay(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a regionOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	var (
		regions []geometry.Rect
		diags   []diagnostic
	)
	if len(a.Boxes) > 0 {
		if regions, err = parseBoxes(a.Boxes); err != nil {
			return nil, err
		}
	} else {
		rec, obs := s.observe()
		seg, err := s.segmenter(false, obs).Segment(ctx, 1, img)
		if err != nil {
			return nil, err
		}
		regions = seg.Regions
		diags = diagnostics(rec)
	}

	overlay, err := imaging.Overlay(img, regions)
	if err != nil {
		return nil, err
	}
	return &regionOverlayResult{OverlayResult: overlay, Boxes: boxesOf(regions), Diagnostics: diags}, nil
}
