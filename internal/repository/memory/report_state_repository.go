package memory

import (
	"context"
	"time"

	"ai-devguide-be/internal/entity"
	"ai-devguide-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// ReportStateRepository holds report processing state until the retention
// window passes; go-cache's janitor evicts expired entries.
type ReportStateRepository struct {
	cache *cache.Cache
}

var _ contract.ReportStateRepository = (*ReportStateRepository)(nil)

func NewReportStateRepository(retention time.Duration) *ReportStateRepository {
	return &ReportStateRepository{
		cache: cache.New(retention, 10*time.Minute),
	}
}

func (r *ReportStateRepository) Save(ctx context.Context, state *entity.ReportProcessingState) error {
	r.cache.Set(state.ReportId, state.Clone(), cache.DefaultExpiration)
	return nil
}

func (r *ReportStateRepository) Get(ctx context.Context, reportId string) (*entity.ReportProcessingState, error) {
	if x, found := r.cache.Get(reportId); found {
		return x.(*entity.ReportProcessingState).Clone(), nil
	}
	return nil, nil
}
