// Package contextproto implements a small request/response protocol for
// listing and calling content tools and for per-session context storage.
// Requests are tagged by "method", responses by "kind".
package contextproto

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	MethodListTools  = "list_tools"
	MethodCallTool   = "call_tool"
	MethodGetContext = "get_context"
	MethodSetContext = "set_context"

	KindError = "error"
)

// Error codes carried by ErrorResponse.
const (
	CodeInvalidRequest = "invalid_request"
	CodeUnknownMethod  = "unknown_method"
	CodeUnknownTool    = "unknown_tool"
	CodeToolFailed     = "tool_failed"
)

var ErrUnknownMethod = errors.New("unknown method")

// Request is one of ListToolsRequest, CallToolRequest, GetContextRequest or
// SetContextRequest.
type Request interface {
	Method() string
}

type ListToolsRequest struct{}

type CallToolRequest struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type GetContextRequest struct {
	SessionId string `json:"sessionId"`
}

type SetContextRequest struct {
	SessionId string                 `json:"sessionId"`
	Context   map[string]interface{} `json:"context"`
}

func (ListToolsRequest) Method() string  { return MethodListTools }
func (CallToolRequest) Method() string   { return MethodCallTool }
func (GetContextRequest) Method() string { return MethodGetContext }
func (SetContextRequest) Method() string { return MethodSetContext }

// Response is one of ListToolsResponse, CallToolResponse, GetContextResponse,
// SetContextResponse or ErrorResponse.
type Response interface {
	Kind() string
}

type ToolDescriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

type ListToolsResponse struct {
	Tools []ToolDescriptor `json:"tools"`
}

type CallToolResponse struct {
	Name   string      `json:"name"`
	Result interface{} `json:"result"`
}

type GetContextResponse struct {
	SessionId string                 `json:"sessionId"`
	Context   map[string]interface{} `json:"context"`
}

type SetContextResponse struct {
	SessionId string `json:"sessionId"`
	Keys      int    `json:"keys"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (ListToolsResponse) Kind() string  { return MethodListTools }
func (CallToolResponse) Kind() string   { return MethodCallTool }
func (GetContextResponse) Kind() string { return MethodGetContext }
func (SetContextResponse) Kind() string { return MethodSetContext }
func (ErrorResponse) Kind() string      { return KindError }

type requestEnvelope struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type responseEnvelope struct {
	Kind   string   `json:"kind"`
	Result Response `json:"result"`
}

// DecodeRequest parses a tagged request. Unknown methods return
// ErrUnknownMethod.
func DecodeRequest(data []byte) (Request, error) {
	var env requestEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}

	var req Request
	switch env.Method {
	case MethodListTools:
		return ListToolsRequest{}, nil
	case MethodCallTool:
		req = &CallToolRequest{}
	case MethodGetContext:
		req = &GetContextRequest{}
	case MethodSetContext:
		req = &SetContextRequest{}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownMethod, env.Method)
	}

	if len(env.Params) > 0 {
		if err := json.Unmarshal(env.Params, req); err != nil {
			return nil, fmt.Errorf("decode %s params: %w", env.Method, err)
		}
	}

	switch r := req.(type) {
	case *CallToolRequest:
		return *r, nil
	case *GetContextRequest:
		return *r, nil
	case *SetContextRequest:
		return *r, nil
	}
	return req, nil
}

// EncodeResponse wraps a response with its kind tag.
func EncodeResponse(resp Response) ([]byte, error) {
	return json.Marshal(responseEnvelope{Kind: resp.Kind(), Result: resp})
}

// EncodeRequest is the client-side counterpart of DecodeRequest.
func EncodeRequest(req Request) ([]byte, error) {
	var params json.RawMessage
	if _, empty := req.(ListToolsRequest); !empty {
		b, err := json.Marshal(req)
		if err != nil {
			return nil, err
		}
		params = b
	}
	return json.Marshal(requestEnvelope{Method: req.Method(), Params: params})
}
