package reportbuilder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ai-devguide-be/internal/entity"
)

// RequestTimeout bounds every call to the report endpoints, independent of
// the poll interval.
const RequestTimeout = 20 * time.Second

// Status mirrors the check-report payload.
type Status struct {
	Status            string              `json:"status"`
	HasPartialResults bool                `json:"hasPartialResults"`
	ReportState       *entity.ReportState `json:"reportState,omitempty"`
	IsComplete        bool                `json:"isComplete"`
	Error             string              `json:"error,omitempty"`
}

type GenerateRequest struct {
	ReportId       string                    `json:"reportId,omitempty"`
	ProjectContext string                    `json:"projectContext,omitempty"`
	Documents      []entity.UploadedDocument `json:"documents"`
}

// Client talks to the report generation backend.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Check(ctx context.Context, reportId string) (*Status, error)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("report backend returned %d", e.Code)
	}
	return fmt.Sprintf("report backend returned %d: %s", e.Code, e.Message)
}

// envelope is the API response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// HTTPClient implements Client against the report-builder HTTP API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: RequestTimeout},
	}
}

func (c *HTTPClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/report-builder/generate-report", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var out struct {
		ReportId string `json:"reportId"`
	}
	if err := c.do(httpReq, &out); err != nil {
		return "", err
	}
	return out.ReportId, nil
}

func (c *HTTPClient) Check(ctx context.Context, reportId string) (*Status, error) {
	u := c.baseURL + "/api/report-builder/check-report?reportId=" + url.QueryEscape(reportId)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var out Status
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadDocument sends a file as the multipart "file" field.
func (c *HTTPClient) UploadDocument(ctx context.Context, name string, data []byte) (*entity.UploadedDocument, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/report-builder/documents", &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	var out entity.UploadedDocument
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if decodeErr != nil {
			msg = strings.TrimSpace(string(raw))
		}
		return &StatusError{Code: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
