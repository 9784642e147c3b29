package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-devguide-be/internal/constant"
	"ai-devguide-be/internal/entity"
	"ai-devguide-be/internal/pkg/logger"
	"ai-devguide-be/internal/repository/contract"
	"ai-devguide-be/pkg/events"
	"ai-devguide-be/pkg/llm"

	"github.com/ThreeDotsLabs/watermill/message"
)

var sectionTitles = map[string]string{
	entity.SectionAccomplishments: "Accomplishments",
	entity.SectionInsights:        "Insights",
	entity.SectionDecisions:       "Decisions",
	entity.SectionNextSteps:       "Next Steps",
}

type IReportGenerator interface {
	Consume(ctx context.Context) error
}

// reportGenerator builds the four report sections in order, saving the
// partial report after each one so pollers can show progress.
type reportGenerator struct {
	subscriber  message.Subscriber
	topicName   string
	states      contract.ReportStateRepository
	llmProvider llm.LLMProvider
	events      EventPublisher
	logger      logger.ILogger
	now         func() time.Time
}

func NewReportGenerator(
	subscriber message.Subscriber,
	topicName string,
	states contract.ReportStateRepository,
	llmProvider llm.LLMProvider,
	eventPub EventPublisher,
	log logger.ILogger,
) IReportGenerator {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &reportGenerator{
		subscriber:  subscriber,
		topicName:   topicName,
		states:      states,
		llmProvider: llmProvider,
		events:      eventPub,
		logger:      log,
		now:         time.Now,
	}
}

func (g *reportGenerator) Consume(ctx context.Context) error {
	messages, err := g.subscriber.Subscribe(ctx, g.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			g.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (g *reportGenerator) processMessage(ctx context.Context, msg *message.Message) {
	var job ReportJob
	if err := json.Unmarshal(msg.Payload, &job); err != nil || job.ReportId == "" {
		g.logger.Error("ReportGenerator", "Invalid report job", map[string]interface{}{"payload": string(msg.Payload)})
		msg.Ack()
		return
	}

	state, err := g.states.Get(ctx, job.ReportId)
	if err != nil {
		g.logger.Error("ReportGenerator", "Failed to load report state", map[string]interface{}{
			"report_id": job.ReportId,
			"error":     err.Error(),
		})
		msg.Nack()
		return
	}
	if state == nil || state.IsTerminal() {
		// expired or already handled
		msg.Ack()
		return
	}

	g.generate(ctx, state)
	msg.Ack()
}

func (g *reportGenerator) generate(ctx context.Context, state *entity.ReportProcessingState) {
	start := g.now()
	state.Status = entity.ReportStatusProcessing
	if !g.save(ctx, state) {
		return
	}

	g.logger.Info("ReportGenerator", "Generating report", map[string]interface{}{
		"report_id": state.ReportId,
		"documents": len(state.Documents),
	})

	docNames := make([]string, len(state.Documents))
	for i, d := range state.Documents {
		docNames[i] = d.Name
	}
	docsText := documentsPrompt(state.Documents)

	result := &entity.ReportState{
		Title: fmt.Sprintf(constant.ReportTitleTemplate, start.Format("January 2, 2006")),
		Date:  start.Format("2006-01-02"),
		Metadata: entity.ReportMetadata{
			RelatedDocuments: docNames,
		},
	}

	for _, key := range entity.SectionOrder {
		prompt := fmt.Sprintf(constant.ReportSectionPromptTemplate,
			orNone(state.ProjectContext), docsText, sectionTitles[key], constant.ReportSectionGuidance[key])

		text, err := g.llmProvider.Chat(ctx, []llm.Message{
			{Role: entity.RoleSystem, Content: constant.ReportSystemPrompt},
			{Role: entity.RoleUser, Content: prompt},
		}, llm.WithTemperature(constant.ReportTemperature), llm.WithMaxTokens(constant.ReportMaxTokens))
		if err == nil && strings.TrimSpace(text) == "" {
			err = fmt.Errorf("empty %s section", key)
		}
		if err != nil {
			g.fail(ctx, state, key, err)
			return
		}

		result.Sections.Set(key, strings.TrimSpace(text))
		result.Metadata.LastUpdated = g.now().UnixMilli()
		state.Result = result.Clone()
		if !g.save(ctx, state) {
			return
		}
	}

	result.Metadata.FullReport = FullReport(result)
	result.Metadata.LastUpdated = g.now().UnixMilli()
	state.Result = result
	state.Status = entity.ReportStatusCompleted
	if !g.save(ctx, state) {
		return
	}

	g.logger.Info("ReportGenerator", "Report completed", map[string]interface{}{
		"report_id":   state.ReportId,
		"duration_ms": g.now().Sub(start).Milliseconds(),
	})
	publishEvent(ctx, g.events, g.logger, events.New(events.ReportCompleted, map[string]interface{}{
		"reportId": state.ReportId,
		"title":    result.Title,
	}))
}

// fail keeps whatever sections were already written.
func (g *reportGenerator) fail(ctx context.Context, state *entity.ReportProcessingState, section string, cause error) {
	g.logger.Error("ReportGenerator", "Section generation failed", map[string]interface{}{
		"report_id": state.ReportId,
		"section":   section,
		"error":     cause.Error(),
	})

	state.Status = entity.ReportStatusError
	state.Error = fmt.Sprintf("failed to generate %s: %v", sectionTitles[section], cause)
	g.save(ctx, state)

	publishEvent(ctx, g.events, g.logger, events.New(events.ReportFailed, map[string]interface{}{
		"reportId": state.ReportId,
		"error":    state.Error,
	}))
}

func (g *reportGenerator) save(ctx context.Context, state *entity.ReportProcessingState) bool {
	state.UpdatedAt = g.now().UnixMilli()
	if err := g.states.Save(ctx, state); err != nil {
		g.logger.Error("ReportGenerator", "Failed to save report state", map[string]interface{}{
			"report_id": state.ReportId,
			"status":    string(state.Status),
			"error":     err.Error(),
		})
		return false
	}
	return true
}

func documentsPrompt(docs []entity.UploadedDocument) string {
	var b strings.Builder
	for _, d := range docs {
		body := d.TextContent
		if body == "" {
			body = d.Summary
		}
		if r := []rune(body); len(r) > constant.ReportDocumentCharLimit {
			body = string(r[:constant.ReportDocumentCharLimit]) + "\n[truncated]"
		}
		fmt.Fprintf(&b, "### %s\n%s\n\n", d.Name, body)
	}
	return strings.TrimSpace(b.String())
}

// FullReport renders the report as markdown.
func FullReport(r *entity.ReportState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	for _, key := range entity.SectionOrder {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", sectionTitles[key], r.Sections.Get(key))
	}
	return strings.TrimSpace(b.String())
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none provided)"
	}
	return s
}
