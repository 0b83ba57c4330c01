package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer returns a server with default configuration and no OCR that
// discards its logs.
func newTestServer() *Server {
	return New(nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNew(t *testing.T) {
	s := newTestServer()
	require.NotNil(t, s)
	assert.NotNil(t, s.cache)
	assert.NotNil(t, s.cfg)
	assert.NotNil(t, s.detector)
	assert.NotNil(t, s.logger)
}

func TestMCPRequest_Unmarshal(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantID     interface{}
		wantMethod string
	}{
		{"string id", `{"jsonrpc":"2.0","id":"test-1","method":"tools/list"}`, "test-1", "tools/list"},
		{"number id", `{"jsonrpc":"2.0","id":42,"method":"ping"}`, float64(42), "ping"},
		{"null id", `{"jsonrpc":"2.0","id":null,"method":"initialize"}`, nil, "initialize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MCPRequest
			require.NoError(t, json.Unmarshal([]byte(tt.json), &req))
			assert.Equal(t, tt.wantID, req.ID)
			assert.Equal(t, tt.wantMethod, req.Method)
			assert.Equal(t, "2.0", req.JSONRPC)
		})
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := newTestServer()
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})

	require.NotNil(t, resp)
	require.Nil(t, resp.Error)
	assert.Equal(t, 1, resp.ID)

	result := resp.Result.(map[string]interface{})
	assert.Equal(t, "2024-11-05", result["protocolVersion"])
	info := result["serverInfo"].(map[string]interface{})
	assert.Equal(t, "exam-regions", info["name"])
	assert.Equal(t, Version, info["version"])
}

func TestHandleRequest_Ping(t *testing.T) {
	s := newTestServer()
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: "ping-1", Method: "ping"})

	require.NotNil(t, resp)
	assert.Nil(t, resp.Error)
	assert.Equal(t, "ping-1", resp.ID)
}

func TestHandleRequest_InitializedNotification(t *testing.T) {
	s := newTestServer()
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", Method: "notifications/initialized"})
	assert.Nil(t, resp)
}

func TestHandleRequest_UnknownMethod(t *testing.T) {
	s := newTestServer()
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 7, Method: "resources/list"})

	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32601, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "resources/list")
}

func TestHandleRequest_ToolsList(t *testing.T) {
	s := newTestServer()
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 2, Method: "tools/list"})

	require.NotNil(t, resp)
	result := resp.Result.(map[string]interface{})
	tools := result["tools"].([]Tool)
	assert.Len(t, tools, len(GetToolDefinitions()))
}

func TestServe(t *testing.T) {
	s := newTestServer()
	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
	}, "\n")

	var out bytes.Buffer
	require.NoError(t, s.Serve(context.Background(), strings.NewReader(input), &out))

	dec := json.NewDecoder(&out)
	var ids []interface{}
	for dec.More() {
		var resp MCPResponse
		require.NoError(t, dec.Decode(&resp))
		assert.Nil(t, resp.Error)
		ids = append(ids, resp.ID)
	}
	assert.Equal(t, []interface{}{float64(1), float64(2), float64(3)}, ids)
}

func TestServe_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := newTestServer().Serve(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}
