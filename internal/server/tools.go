package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// boxSchema describes an [x, y, width, height] rectangle argument.
var boxSchema = map[string]interface{}{
	"type":        "array",
	"items":       map[string]interface{}{"type": "integer"},
	"minItems":    4,
	"maxItems":    4,
	"description": "Rectangle as [x, y, width, height] in pixels, origin top-left",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Page Information
		{
			Name:        "page_info",
			Description: "Get the dimensions, format and file size of a page image. Lossy formats (JPEG, WebP) may reduce contour detection quality.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the page image",
					},
				},
				"required": []string{"path"},
			},
		},

		// Segmentation
		{
			Name:        "segment_page",
			Description: "Find the question regions on one exam page. Uses text-line clustering when OCR is available and finds text, otherwise contour detection. Returns regions in reading order plus diagnostics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the page image",
					},
					"page_number": map[string]interface{}{
						"type":        "integer",
						"description": "Page number used to name extracted regions. Default 1",
						"default":     1,
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Optional directory to save each region as page_<n>_question_<q>.png",
					},
					"geometric_only": map[string]interface{}{
						"type":        "boolean",
						"description": "Skip OCR and use contour detection only. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "segment_document",
			Description: "Segment every page of a document. Accepts page image files and directories of page images (ordered by page number in the file name). Returns the manifest of pages and questions.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Page image files or directories, in document order",
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Optional directory to save region images",
					},
					"manifest_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to also write the manifest as JSON",
					},
					"workers": map[string]interface{}{
						"type":        "integer",
						"description": "Pages processed in parallel. Default from configuration",
					},
					"geometric_only": map[string]interface{}{
						"type":        "boolean",
						"description": "Skip OCR and use contour detection only. Default false",
						"default":     false,
					},
				},
				"required": []string{"paths"},
			},
		},

		// Detection Stages
		{
			Name:        "detect_candidate_boxes",
			Description: "Run contour detection only: threshold the page at each configured level and polarity and return every box passing the size and aspect filters, before deduplication.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the page image",
					},
					"min_area": map[string]interface{}{
						"type":        "integer",
						"description": "Minimum filled contour area in pixels. Default 3000",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "deduplicate_boxes",
			Description: "Remove overlapping boxes. Larger boxes win; a box is dropped when its overlap with a kept box exceeds the threshold (intersection over the smaller area). Result is in reading order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"boxes": map[string]interface{}{
						"type":        "array",
						"items":       boxSchema,
						"description": "Boxes to deduplicate",
					},
					"overlap_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Maximum allowed overlap ratio. Default 0.5",
						"default":     0.5,
					},
				},
				"required": []string{"boxes"},
			},
		},
		{
			Name:        "cluster_text_boxes",
			Description: "Group text-line boxes into question regions by vertical gaps. A gap larger than gap_factor times the running line height starts a new question.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"boxes": map[string]interface{}{
						"type":        "array",
						"items":       boxSchema,
						"description": "Text-line boxes",
					},
					"page_width": map[string]interface{}{
						"type":        "integer",
						"description": "Page width used to clamp regions",
					},
					"page_height": map[string]interface{}{
						"type":        "integer",
						"description": "Page height used to clamp regions",
					},
					"gap_factor": map[string]interface{}{
						"type":        "number",
						"description": "Line-height multiple that separates questions. Default 1.5",
						"default":     1.5,
					},
				},
				"required": []string{"boxes", "page_width", "page_height"},
			},
		},

		// Region Output
		{
			Name:        "region_crop",
			Description: "Crop one region from a page image and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the page image",
					},
					"box": boxSchema,
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "box"},
			},
		},
		{
			Name:        "region_overlay",
			Description: "Draw regions on a page image, each outlined in its own color and labelled Q1, Q2, ... Segments the page first when no boxes are given. Returns base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the page image",
					},
					"boxes": map[string]interface{}{
						"type":        "array",
						"items":       boxSchema,
						"description": "Optional regions to draw",
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
