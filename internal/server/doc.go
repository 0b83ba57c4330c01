// Package server implements the MCP (Model Context Protocol) server for exam
// page segmentation.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Logs go to the slog logger given to New, never to stdout.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Page Information:
//   - page_info: Dimensions, format and size of a page image
//
// Segmentation:
//   - segment_page: Question regions of one page, optionally saved to disk
//   - segment_document: Manifest for a sequence of pages
//
// Detection Stages:
//   - detect_candidate_boxes: Filtered contour boxes before deduplication
//   - deduplicate_boxes: Overlap suppression on caller-supplied boxes
//   - cluster_text_boxes: Gap clustering of caller-supplied text-line boxes
//
// Region Output:
//   - region_crop: One region as base64 PNG
//   - region_overlay: Page with regions outlined and labelled
//
// Rectangles are exchanged as [x, y, width, height] arrays in pixels with the
// origin at the top-left corner.
//
// # Image Caching
//
// The server maintains an in-memory cache of loaded images. Images are cached
// by path and reused across tool calls, so inspecting, segmenting and
// overlaying the same page decodes it once. segment_document reads pages
// directly and does not fill the cache.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Degradations that do not fail a tool, such as falling back from OCR to
// contour detection, are listed in the result's diagnostics.
package server
