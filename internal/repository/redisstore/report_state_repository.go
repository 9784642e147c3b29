package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-devguide-be/internal/entity"
	"ai-devguide-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

// ReportStateRepository keeps report state under "report:state:<id>" with a TTL
// equal to the retention window; every save refreshes it.
type ReportStateRepository struct {
	rdb       *redis.Client
	retention time.Duration
}

var _ contract.ReportStateRepository = (*ReportStateRepository)(nil)

func NewReportStateRepository(rdb *redis.Client, retention time.Duration) *ReportStateRepository {
	return &ReportStateRepository{rdb: rdb, retention: retention}
}

func reportKey(id string) string {
	return "report:state:" + id
}

func (r *ReportStateRepository) Save(ctx context.Context, state *entity.ReportProcessingState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal report state: %w", err)
	}
	return r.rdb.Set(ctx, reportKey(state.ReportId), b, r.retention).Err()
}

func (r *ReportStateRepository) Get(ctx context.Context, reportId string) (*entity.ReportProcessingState, error) {
	raw, err := r.rdb.Get(ctx, reportKey(reportId)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state entity.ReportProcessingState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("unmarshal report state %s: %w", reportId, err)
	}
	return &state, nil
}
