package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-devguide-be/internal/entity"
	"ai-devguide-be/internal/pkg/logger"
	"ai-devguide-be/internal/repository/contract"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

var (
	ErrNoDocuments    = errors.New("at least one document is required")
	ErrReportNotFound = errors.New("report not found")
)

// ReportJob is the queue payload asking the generator to build one report.
type ReportJob struct {
	ReportId string `json:"reportId"`
}

type GenerateReportRequest struct {
	ReportId       string
	ProjectContext string
	Documents      []entity.UploadedDocument
}

// ReportStatus is what a polling client sees.
type ReportStatus struct {
	Status            entity.ReportStatus `json:"status"`
	HasPartialResults bool                `json:"hasPartialResults"`
	ReportState       *entity.ReportState `json:"reportState,omitempty"`
	IsComplete        bool                `json:"isComplete"`
	Error             string              `json:"error,omitempty"`
}

type IReportService interface {
	GenerateReport(ctx context.Context, req GenerateReportRequest) (string, error)
	CheckReport(ctx context.Context, reportId string) (*ReportStatus, error)
}

type reportService struct {
	states    contract.ReportStateRepository
	documents IDocumentService
	publisher message.Publisher
	topicName string
	logger    logger.ILogger
}

func NewReportService(
	states contract.ReportStateRepository,
	documents IDocumentService,
	publisher message.Publisher,
	topicName string,
	log logger.ILogger,
) IReportService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &reportService{
		states:    states,
		documents: documents,
		publisher: publisher,
		topicName: topicName,
		logger:    log,
	}
}

// GenerateReport records a pending report and queues it. Documents given only
// by id are loaded from the document store. A known id that is still running
// or already completed is returned as is; only failed reports are restarted.
func (s *reportService) GenerateReport(ctx context.Context, req GenerateReportRequest) (string, error) {
	if len(req.Documents) == 0 {
		return "", ErrNoDocuments
	}

	reportId := strings.TrimSpace(req.ReportId)
	if reportId == "" {
		reportId = uuid.NewString()
	} else {
		existing, err := s.states.Get(ctx, reportId)
		if err != nil {
			return "", fmt.Errorf("load report state: %w", err)
		}
		if existing != nil && existing.Status != entity.ReportStatusError {
			s.logger.Info("ReportService", "Report already known, resuming", map[string]interface{}{
				"report_id": reportId,
				"status":    existing.Status,
			})
			return reportId, nil
		}
	}

	docs := make([]entity.UploadedDocument, 0, len(req.Documents))
	for _, d := range req.Documents {
		if d.TextContent == "" && d.Summary == "" && d.Id != "" && s.documents != nil {
			stored, err := s.documents.GetDocument(ctx, d.Id)
			if err != nil {
				return "", err
			}
			d = *stored
		}
		docs = append(docs, d)
	}

	now := time.Now().UnixMilli()
	state := &entity.ReportProcessingState{
		ReportId:       reportId,
		Status:         entity.ReportStatusPending,
		Documents:      docs,
		ProjectContext: req.ProjectContext,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.states.Save(ctx, state); err != nil {
		return "", fmt.Errorf("save report state: %w", err)
	}

	payload, err := json.Marshal(ReportJob{ReportId: reportId})
	if err != nil {
		return "", err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.publisher.Publish(s.topicName, msg); err != nil {
		return "", fmt.Errorf("queue report: %w", err)
	}

	s.logger.Info("ReportService", "Report queued", map[string]interface{}{
		"report_id": reportId,
		"documents": len(docs),
	})
	return reportId, nil
}

func (s *reportService) CheckReport(ctx context.Context, reportId string) (*ReportStatus, error) {
	state, err := s.states.Get(ctx, reportId)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrReportNotFound
	}

	return &ReportStatus{
		Status:            state.Status,
		HasPartialResults: state.Result != nil,
		ReportState:       state.Result,
		IsComplete:        state.Status == entity.ReportStatusCompleted,
		Error:             state.Error,
	}, nil
}
