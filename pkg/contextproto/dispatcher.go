package contextproto

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"ai-devguide-be/internal/pkg/logger"

	"github.com/patrickmn/go-cache"
)

const (
	contextTTL   = 24 * time.Hour
	contextSweep = time.Hour
)

// Tool is a named operation callable through call_tool.
type Tool interface {
	Descriptor() ToolDescriptor
	Call(ctx context.Context, arguments json.RawMessage) (interface{}, error)
}

// ErrInvalidArguments marks tool failures caused by the caller.
var ErrInvalidArguments = errors.New("invalid arguments")

// Dispatcher routes requests to tools and to the session context store.
type Dispatcher struct {
	tools    map[string]Tool
	contexts *cache.Cache
	logger   logger.ILogger
}

func NewDispatcher(log logger.ILogger, tools ...Tool) *Dispatcher {
	if log == nil {
		log = logger.NewNopLogger()
	}
	d := &Dispatcher{
		tools:    make(map[string]Tool, len(tools)),
		contexts: cache.New(contextTTL, contextSweep),
		logger:   log,
	}
	for _, t := range tools {
		d.tools[t.Descriptor().Name] = t
	}
	return d
}

// Tools lists the registered tools by name.
func (d *Dispatcher) Tools() []ToolDescriptor {
	out := make([]ToolDescriptor, 0, len(d.tools))
	for _, t := range d.tools {
		out = append(out, t.Descriptor())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Handle never fails; problems come back as ErrorResponse.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Response {
	switch r := req.(type) {
	case ListToolsRequest:
		return ListToolsResponse{Tools: d.Tools()}

	case CallToolRequest:
		return d.callTool(ctx, r)

	case GetContextRequest:
		if strings.TrimSpace(r.SessionId) == "" {
			return ErrorResponse{Code: CodeInvalidRequest, Message: "sessionId is required"}
		}
		return GetContextResponse{SessionId: r.SessionId, Context: d.getContext(r.SessionId)}

	case SetContextRequest:
		if strings.TrimSpace(r.SessionId) == "" {
			return ErrorResponse{Code: CodeInvalidRequest, Message: "sessionId is required"}
		}
		merged := d.getContext(r.SessionId)
		for k, v := range r.Context {
			if v == nil {
				delete(merged, k)
				continue
			}
			merged[k] = v
		}
		d.contexts.Set(r.SessionId, merged, cache.DefaultExpiration)
		return SetContextResponse{SessionId: r.SessionId, Keys: len(merged)}

	default:
		return ErrorResponse{Code: CodeUnknownMethod, Message: fmt.Sprintf("unsupported request %T", req)}
	}
}

// HandleJSON decodes, dispatches and encodes in one step.
func (d *Dispatcher) HandleJSON(ctx context.Context, data []byte) ([]byte, error) {
	req, err := DecodeRequest(data)
	if err != nil {
		code := CodeInvalidRequest
		if errors.Is(err, ErrUnknownMethod) {
			code = CodeUnknownMethod
		}
		return EncodeResponse(ErrorResponse{Code: code, Message: err.Error()})
	}
	return EncodeResponse(d.Handle(ctx, req))
}

func (d *Dispatcher) callTool(ctx context.Context, r CallToolRequest) Response {
	tool, ok := d.tools[r.Name]
	if !ok {
		return ErrorResponse{Code: CodeUnknownTool, Message: fmt.Sprintf("unknown tool %q", r.Name)}
	}

	result, err := tool.Call(ctx, r.Arguments)
	if err != nil {
		code := CodeToolFailed
		if errors.Is(err, ErrInvalidArguments) {
			code = CodeInvalidRequest
		} else {
			d.logger.Warn("ContextProtocol", "Tool call failed", map[string]interface{}{
				"tool":  r.Name,
				"error": err.Error(),
			})
		}
		return ErrorResponse{Code: code, Message: err.Error()}
	}
	return CallToolResponse{Name: r.Name, Result: result}
}

// getContext returns a copy of the stored context, never nil.
func (d *Dispatcher) getContext(sessionId string) map[string]interface{} {
	out := map[string]interface{}{}
	if x, found := d.contexts.Get(sessionId); found {
		for k, v := range x.(map[string]interface{}) {
			out[k] = v
		}
	}
	return out
}
