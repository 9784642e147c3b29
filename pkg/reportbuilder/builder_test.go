package reportbuilder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ai-devguide-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type step struct {
	status *Status
	err    error
}

type scriptedClient struct {
	mu          sync.Mutex
	steps       []step
	checks      int
	generated   []GenerateRequest
	generateErr error
}

func (c *scriptedClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generated = append(c.generated, req)
	if c.generateErr != nil {
		return "", c.generateErr
	}
	return req.ReportId, nil
}

func (c *scriptedClient) Check(ctx context.Context, reportId string) (*Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.checks
	c.checks++
	if i >= len(c.steps) {
		return &Status{Status: "processing"}, nil
	}
	return c.steps[i].status, c.steps[i].err
}

type sleepRecorder struct {
	mu        sync.Mutex
	intervals []time.Duration
	block     bool
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.intervals = append(s.intervals, d)
	block := s.block
	s.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return ctx.Err()
}

func (s *sleepRecorder) Intervals() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.intervals...)
}

func partial(sections entity.ReportSections) step {
	return step{status: &Status{Status: "processing", HasPartialResults: true, ReportState: &entity.ReportState{Sections: sections}}}
}

func complete(title string, sections entity.ReportSections) step {
	return step{status: &Status{Status: "completed", IsComplete: true, ReportState: &entity.ReportState{Title: title, Sections: sections}}}
}

func newTestBuilder(client Client, sleeper *sleepRecorder) *Builder {
	b := NewBuilder(client, Options{Sleep: sleeper.Sleep}, nil)
	b.AddDocument(entity.UploadedDocument{Id: "d1", Name: "notes.txt"})
	return b
}

func messagesOfType(msgs []entity.ChatMessage, typ string) int {
	n := 0
	for _, m := range msgs {
		if m.Metadata != nil && m.Metadata.Type == typ {
			n++
		}
	}
	return n
}

func TestRequestReportCompletes(t *testing.T) {
	client := &scriptedClient{steps: []step{
		partial(entity.ReportSections{Accomplishments: "a"}),
		partial(entity.ReportSections{Accomplishments: "a", Insights: "i"}),
		complete("Status Report", entity.ReportSections{Accomplishments: "a", Insights: "i", Decisions: "d", NextSteps: "n"}),
	}}
	sleeper := &sleepRecorder{}
	b := newTestBuilder(client, sleeper)

	require.NoError(t, b.RequestReport(context.Background(), "generate a 4-box report"))
	assert.Equal(t, StateCompleted, b.Wait(context.Background()))

	report := b.Report()
	assert.Equal(t, "Status Report", report.Title)
	assert.Equal(t, "n", report.Sections.NextSteps)

	msgs := b.Messages()
	assert.Equal(t, 1, messagesOfType(msgs, entity.MessageTypeReport))
	for _, m := range msgs {
		assert.False(t, m.IsStreaming)
	}
	assert.Equal(t, []time.Duration{DefaultBaseInterval, DefaultBaseInterval, DefaultBaseInterval}, sleeper.Intervals())
}

func TestRequestReportStartsPolling(t *testing.T) {
	client := &scriptedClient{}
	sleeper := &sleepRecorder{block: true}
	b := newTestBuilder(client, sleeper)

	require.NoError(t, b.RequestReport(context.Background(), "generate a 4-box report"))

	msgs := b.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, entity.RoleUser, msgs[0].Role)
	assert.Equal(t, "generate a 4-box report", msgs[0].Content)
	assert.Equal(t, entity.RoleAssistant, msgs[1].Role)
	assert.True(t, msgs[1].IsStreaming)

	require.Len(t, client.generated, 1)
	assert.Len(t, client.generated[0].Documents, 1)
	assert.NotEmpty(t, client.generated[0].ReportId)

	require.Eventually(t, func() bool { return len(sleeper.Intervals()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3000*time.Millisecond, sleeper.Intervals()[0])
	assert.Equal(t, StatePolling, b.State())

	assert.ErrorIs(t, b.RequestReport(context.Background(), "again"), ErrInProgress)

	b.Stop()
	assert.Equal(t, StateCancelled, b.Wait(context.Background()))
	for _, m := range b.Messages() {
		assert.False(t, m.IsStreaming)
	}
}

func TestBackoff(t *testing.T) {
	gateway := &StatusError{Code: http.StatusGatewayTimeout}
	client := &scriptedClient{steps: []step{
		{err: gateway},
		{err: gateway},
		{err: gateway},
		partial(entity.ReportSections{Accomplishments: "a"}),
		{err: &StatusError{Code: http.StatusInternalServerError}},
		{err: errors.New("connection refused")},
		complete("R", entity.ReportSections{Accomplishments: "a"}),
	}}
	sleeper := &sleepRecorder{}
	b := newTestBuilder(client, sleeper)

	require.NoError(t, b.RequestReport(context.Background(), "report"))
	assert.Equal(t, StateCompleted, b.Wait(context.Background()))

	ms := time.Millisecond
	assert.Equal(t, []time.Duration{3000 * ms, 6000 * ms, 12000 * ms, 15000 * ms, 3000 * ms, 4500 * ms, 6750 * ms}, sleeper.Intervals())
}

func TestBackoffCap(t *testing.T) {
	b := NewBuilder(&scriptedClient{}, Options{}, nil)

	tests := []struct {
		name     string
		interval time.Duration
		err      error
		want     time.Duration
	}{
		{"gateway doubles", 3 * time.Second, &StatusError{Code: http.StatusGatewayTimeout}, 6 * time.Second},
		{"gateway capped", 12 * time.Second, &StatusError{Code: http.StatusGatewayTimeout}, 15 * time.Second},
		{"other grows by half", 4 * time.Second, &StatusError{Code: http.StatusBadGateway}, 6 * time.Second},
		{"network capped", 14 * time.Second, errors.New("eof"), 15 * time.Second},
	}
	for _, tt := range tests {
		if got := b.backoff(tt.interval, tt.err); got != tt.want {
			t.Errorf("%s: backoff(%v) = %v, want %v", tt.name, tt.interval, got, tt.want)
		}
	}
}

func TestRequestReportTimesOut(t *testing.T) {
	client := &scriptedClient{steps: []step{partial(entity.ReportSections{Insights: "kept"})}}
	sleeper := &sleepRecorder{}
	b := newTestBuilder(client, sleeper)

	require.NoError(t, b.RequestReport(context.Background(), "report"))
	assert.Equal(t, StateTimedOut, b.Wait(context.Background()))

	assert.Equal(t, DefaultMaxAttempts, client.checks)
	assert.Equal(t, 1, messagesOfType(b.Messages(), entity.MessageTypeWarning))
	assert.Equal(t, "kept", b.Report().Sections.Insights)

	// asking again resumes the same report
	firstId := b.ReportId()
	client.steps = []step{complete("R", entity.ReportSections{Insights: "kept"})}
	client.checks = 0
	require.NoError(t, b.RequestReport(context.Background(), "report"))
	assert.Equal(t, StateCompleted, b.Wait(context.Background()))
	assert.Equal(t, firstId, b.ReportId())
}

func TestRequestReportError(t *testing.T) {
	client := &scriptedClient{steps: []step{
		partial(entity.ReportSections{Accomplishments: "done things"}),
		{status: &Status{Status: "error", Error: "LLM unavailable"}},
	}}
	b := newTestBuilder(client, &sleepRecorder{})

	require.NoError(t, b.RequestReport(context.Background(), "report"))
	assert.Equal(t, StateError, b.Wait(context.Background()))
	assert.Equal(t, "LLM unavailable", b.Err())
	assert.Equal(t, "done things", b.Report().Sections.Accomplishments)
	assert.Equal(t, 1, messagesOfType(b.Messages(), entity.MessageTypeError))
}

func TestRequestReportGenerateFails(t *testing.T) {
	client := &scriptedClient{generateErr: &StatusError{Code: http.StatusBadRequest, Message: "no documents"}}
	b := newTestBuilder(client, &sleepRecorder{})

	assert.Error(t, b.RequestReport(context.Background(), "report"))
	assert.Equal(t, StateError, b.State())
	assert.Equal(t, 0, client.checks)
}

func TestRequestReportWithoutDocuments(t *testing.T) {
	client := &scriptedClient{}
	b := NewBuilder(client, Options{Sleep: (&sleepRecorder{}).Sleep}, nil)

	err := b.RequestReport(context.Background(), "generate a 4-box report")
	assert.ErrorIs(t, err, ErrNoDocuments)
	assert.Equal(t, StateIdle, b.State())
	assert.Empty(t, client.generated)

	msgs := b.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "generate a 4-box report", msgs[0].Content)
	assert.True(t, msgs[1].IsError())
}

func TestMergeReport(t *testing.T) {
	dst := entity.ReportState{
		Title:    "Old",
		Sections: entity.ReportSections{Accomplishments: "a1", Insights: "i1"},
		Metadata: entity.ReportMetadata{RelatedDocuments: []string{"x.txt"}},
	}
	MergeReport(&dst, &entity.ReportState{
		Title:    "New",
		Sections: entity.ReportSections{Insights: "i2", Decisions: "d2"},
	})

	assert.Equal(t, "New", dst.Title)
	assert.Equal(t, "a1", dst.Sections.Accomplishments)
	assert.Equal(t, "i2", dst.Sections.Insights)
	assert.Equal(t, "d2", dst.Sections.Decisions)
	assert.Equal(t, []string{"x.txt"}, dst.Metadata.RelatedDocuments)

	MergeReport(&dst, nil)
	assert.Equal(t, "New", dst.Title)
}

func TestHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/report-builder/generate-report":
			var req GenerateRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true, "code": 202, "message": "ok",
				"data": map[string]string{"reportId": req.ReportId},
			})
		case "/api/report-builder/check-report":
			if r.URL.Query().Get("reportId") == "slow" {
				w.WriteHeader(http.StatusGatewayTimeout)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true, "code": 200, "message": "ok",
				"data": Status{Status: "processing", HasPartialResults: true, ReportState: &entity.ReportState{Title: "T"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "code": 404, "message": "not found"})
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL + "/")
	ctx := context.Background()

	id, err := c.Generate(ctx, GenerateRequest{ReportId: "r1", Documents: []entity.UploadedDocument{{Name: "a.txt"}}})
	require.NoError(t, err)
	assert.Equal(t, "r1", id)

	status, err := c.Check(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, status.HasPartialResults)
	assert.Equal(t, "T", status.ReportState.Title)

	_, err = c.Check(ctx, "slow")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusGatewayTimeout, se.Code)

	_, err = c.UploadDocument(ctx, "a.txt", []byte("x"))
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, "not found", se.Message)
}
