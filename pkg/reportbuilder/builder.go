// Package reportbuilder drives a report generation from the client side:
// request, poll with backoff, merge partial results, and keep a chat-style
// transcript of what happened.
package reportbuilder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"ai-devguide-be/internal/entity"
	"ai-devguide-be/internal/pkg/logger"

	"github.com/google/uuid"
)

type State string

const (
	StateIdle      State = "idle"
	StateRequested State = "requested"
	StatePolling   State = "polling"
	StateCompleted State = "completed"
	StateError     State = "error"
	StateTimedOut  State = "timed_out"
	StateCancelled State = "cancelled"
)

func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateError, StateTimedOut, StateCancelled:
		return true
	}
	return false
}

const (
	DefaultBaseInterval = 3000 * time.Millisecond
	DefaultMaxInterval  = 15000 * time.Millisecond
	DefaultMaxAttempts  = 40
)

var (
	ErrNoDocuments = errors.New("upload at least one document before requesting a report")
	ErrInProgress  = errors.New("a report is already being generated")
)

type Options struct {
	BaseInterval   time.Duration
	MaxInterval    time.Duration
	MaxAttempts    int
	RequestTimeout time.Duration
	ProjectContext string

	// Sleep waits between polls. It returns ctx.Err() when cancelled.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
	// OnChange, when set, is called after every state or transcript change.
	OnChange func(b *Builder)
}

// Builder owns one report and its transcript. It runs at most one poll
// loop at a time.
type Builder struct {
	client Client
	opts   Options
	logger logger.ILogger

	mu        sync.Mutex
	state     State
	documents []entity.UploadedDocument
	report    entity.ReportState
	messages  []entity.ChatMessage
	reportId  string
	lastErr   string
	lastTs    int64
	run       uint64 // incremented per request; stale loops compare against it
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewBuilder(client Client, opts Options, log logger.ILogger) *Builder {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if opts.BaseInterval <= 0 {
		opts.BaseInterval = DefaultBaseInterval
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = DefaultMaxInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = RequestTimeout
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Builder{client: client, opts: opts, logger: log, state: StateIdle}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (b *Builder) AddDocument(doc entity.UploadedDocument) {
	b.mu.Lock()
	b.documents = append(b.documents, doc)
	b.mu.Unlock()
	b.changed()
}

func (b *Builder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Builder) ReportId() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reportId
}

// Err returns the last backend error message, if any.
func (b *Builder) Err() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// Report returns a copy of the current report state.
func (b *Builder) Report() entity.ReportState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return *b.report.Clone()
}

// Messages returns a copy of the transcript.
func (b *Builder) Messages() []entity.ChatMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]entity.ChatMessage(nil), b.messages...)
}

// RequestReport posts prompt to the transcript, starts generation and polls
// in the background. Validation problems become transcript messages and are
// also returned.
func (b *Builder) RequestReport(ctx context.Context, prompt string) error {
	b.mu.Lock()
	if b.state == StateRequested || b.state == StatePolling {
		b.mu.Unlock()
		return ErrInProgress
	}

	b.appendLocked(entity.RoleUser, prompt, "", false)
	if len(b.documents) == 0 {
		b.appendLocked(entity.RoleAssistant, ErrNoDocuments.Error(), entity.MessageTypeError, false)
		b.mu.Unlock()
		b.changed()
		return ErrNoDocuments
	}

	// a timed-out report may still be running server side, keep polling it
	if b.state != StateTimedOut || b.reportId == "" {
		b.reportId = uuid.NewString()
	}
	b.state = StateRequested
	b.lastErr = ""
	b.run++
	run := b.run
	reportId := b.reportId
	docs := append([]entity.UploadedDocument(nil), b.documents...)
	b.appendLocked(entity.RoleAssistant, "Generating your report...", "", true)

	loopCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	done := make(chan struct{})
	b.done = done
	b.mu.Unlock()
	b.changed()

	reqCtx, reqCancel := context.WithTimeout(loopCtx, b.opts.RequestTimeout)
	id, err := b.client.Generate(reqCtx, GenerateRequest{
		ReportId:       reportId,
		ProjectContext: b.opts.ProjectContext,
		Documents:      docs,
	})
	reqCancel()
	if err != nil {
		b.finish(run, StateError, err.Error(), fmt.Sprintf("Failed to start report generation: %v", err), entity.MessageTypeError)
		cancel()
		close(done)
		return err
	}

	b.mu.Lock()
	if b.run == run {
		if id != "" {
			b.reportId = id
			reportId = id
		}
		b.state = StatePolling
	}
	b.mu.Unlock()
	b.changed()

	b.logger.Info("ReportBuilder", "Polling report", map[string]interface{}{"report_id": reportId})
	go b.poll(loopCtx, run, reportId, done)
	return nil
}

// Wait blocks until the current poll loop ends or ctx is done.
func (b *Builder) Wait(ctx context.Context) State {
	b.mu.Lock()
	done := b.done
	b.mu.Unlock()
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
		}
	}
	return b.State()
}

// Stop tears down the poll loop. The backend is not told; late results are
// discarded.
func (b *Builder) Stop() {
	b.mu.Lock()
	if b.cancel != nil {
		b.cancel()
	}
	run := b.run
	b.mu.Unlock()
	b.abandon(run)
}

// abandon marks an unfinished run as cancelled.
func (b *Builder) abandon(run uint64) {
	b.mu.Lock()
	if b.run != run || b.state.IsTerminal() || b.state == StateIdle {
		b.mu.Unlock()
		return
	}
	b.state = StateCancelled
	b.run++
	b.dropPlaceholderLocked()
	b.mu.Unlock()
	b.changed()
}

func (b *Builder) poll(ctx context.Context, run uint64, reportId string, done chan struct{}) {
	defer close(done)

	interval := b.opts.BaseInterval
	for attempts := 1; ; attempts++ {
		if err := b.opts.Sleep(ctx, interval); err != nil {
			b.abandon(run)
			return
		}

		reqCtx, cancel := context.WithTimeout(ctx, b.opts.RequestTimeout)
		status, err := b.client.Check(reqCtx, reportId)
		cancel()
		if ctx.Err() != nil {
			b.abandon(run)
			return
		}

		switch {
		case err != nil:
			interval = b.backoff(interval, err)
			b.logger.Warn("ReportBuilder", "Status check failed", map[string]interface{}{
				"report_id":    reportId,
				"error":        err.Error(),
				"next_poll_ms": interval.Milliseconds(),
			})

		case status.Error != "":
			b.finish(run, StateError, status.Error, "Report generation failed: "+status.Error, entity.MessageTypeError)
			return

		case status.IsComplete && status.ReportState != nil:
			b.complete(run, status.ReportState)
			return

		case status.HasPartialResults && status.ReportState != nil:
			if !b.applyPartial(run, status.ReportState) {
				return
			}
			interval = b.opts.BaseInterval
		}

		if attempts >= b.opts.MaxAttempts {
			b.finish(run, StateTimedOut, "",
				"Report generation is taking longer than expected. The partial report is kept; ask again to resume.",
				entity.MessageTypeWarning)
			return
		}
	}
}

// backoff doubles on gateway timeouts and grows by half otherwise.
func (b *Builder) backoff(interval time.Duration, err error) time.Duration {
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusGatewayTimeout {
		interval *= 2
	} else {
		interval = interval * 3 / 2
	}
	if interval > b.opts.MaxInterval {
		interval = b.opts.MaxInterval
	}
	return interval
}

func (b *Builder) applyPartial(run uint64, partial *entity.ReportState) bool {
	b.mu.Lock()
	if b.run != run {
		b.mu.Unlock()
		return false
	}
	MergeReport(&b.report, partial)
	b.mu.Unlock()
	b.changed()
	return true
}

func (b *Builder) complete(run uint64, final *entity.ReportState) {
	b.mu.Lock()
	if b.run != run {
		b.mu.Unlock()
		return
	}
	b.report = *final.Clone()
	b.state = StateCompleted
	b.dropPlaceholderLocked()
	title := final.Title
	if title == "" {
		title = "Status report"
	}
	b.appendLocked(entity.RoleAssistant, fmt.Sprintf("%s is ready.", title), entity.MessageTypeReport, false)
	b.mu.Unlock()
	b.changed()
}

// finish moves to a terminal state, replacing the placeholder with content.
func (b *Builder) finish(run uint64, state State, errMsg, content, msgType string) {
	b.mu.Lock()
	if b.run != run {
		b.mu.Unlock()
		return
	}
	b.state = state
	if errMsg != "" {
		b.lastErr = errMsg
	}
	b.dropPlaceholderLocked()
	b.appendLocked(entity.RoleAssistant, content, msgType, false)
	b.mu.Unlock()
	b.changed()
}

func (b *Builder) dropPlaceholderLocked() {
	for i := len(b.messages) - 1; i >= 0; i-- {
		if b.messages[i].IsStreaming {
			b.messages = append(b.messages[:i], b.messages[i+1:]...)
			return
		}
	}
}

func (b *Builder) appendLocked(role, content, msgType string, streaming bool) {
	ts := b.opts.Now().UnixMilli()
	if ts <= b.lastTs {
		ts = b.lastTs + 1
	}
	b.lastTs = ts

	msg := entity.ChatMessage{
		Id:          uuid.NewString(),
		Role:        role,
		Content:     content,
		Timestamp:   ts,
		IsStreaming: streaming,
	}
	if msgType != "" {
		msg.Metadata = &entity.MessageMetadata{Type: msgType}
	}
	b.messages = append(b.messages, msg)
}

func (b *Builder) changed() {
	if b.opts.OnChange != nil {
		b.opts.OnChange(b)
	}
}

// MergeReport applies a partial snapshot onto dst. Later values win per
// field, but an empty incoming field never blanks a filled one.
func MergeReport(dst *entity.ReportState, src *entity.ReportState) {
	if src == nil {
		return
	}
	mergeString(&dst.Title, src.Title)
	mergeString(&dst.Date, src.Date)
	for _, key := range entity.SectionOrder {
		if v := src.Sections.Get(key); v != "" {
			dst.Sections.Set(key, v)
		}
	}
	if src.Metadata.LastUpdated != 0 {
		dst.Metadata.LastUpdated = src.Metadata.LastUpdated
	}
	if len(src.Metadata.RelatedDocuments) > 0 {
		dst.Metadata.RelatedDocuments = append([]string(nil), src.Metadata.RelatedDocuments...)
	}
	mergeString(&dst.Metadata.FullReport, src.Metadata.FullReport)
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
