package embedding

import (
	"context"
	"fmt"

	"ai-devguide-be/internal/pkg/logger"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// MaxInputChars is the provider-safe input length; longer text is truncated.
const MaxInputChars = 8000

// Adapter turns text into vectors. It never fails: without a provider, or when
// the provider errors, it degrades to Fallback so search and clustering keep
// working. A single failed call can leave vectors of different lengths side
// by side; callers comparing them check SameDimensions and fall back together.
//
// Results are memoised for the process lifetime.
type Adapter struct {
	provider EmbeddingProvider
	cache    *cache.Cache
	group    singleflight.Group
	logger   logger.ILogger
}

// NewAdapter wraps provider. A nil provider means "no credentials": every call
// uses the hash fallback.
func NewAdapter(provider EmbeddingProvider, log logger.ILogger) *Adapter {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Adapter{
		provider: provider,
		cache:    cache.New(cache.NoExpiration, 0),
		logger:   log,
	}
}

// Truncate cuts text to MaxInputChars runes.
func Truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxInputChars {
		return text
	}
	return string(runes[:MaxInputChars])
}

func (a *Adapter) GetEmbedding(ctx context.Context, text string) []float32 {
	text = Truncate(text)

	if v, found := a.cache.Get(text); found {
		return v.([]float32)
	}

	res, _, _ := a.group.Do(text, func() (interface{}, error) {
		vec, remote := a.generate(ctx, text)
		// Fallback vectors are not cached so a recovered provider takes over
		if remote {
			a.cache.Set(text, vec, cache.NoExpiration)
		}
		return vec, nil
	})
	return res.([]float32)
}

func (a *Adapter) generate(ctx context.Context, text string) ([]float32, bool) {
	if a.provider == nil {
		return Fallback(text), false
	}

	res, err := a.provider.Generate(ctx, text)
	if err == nil && (res == nil || len(res.Embedding.Values) == 0) {
		err = fmt.Errorf("provider returned an empty vector")
	}
	if err != nil {
		a.logger.Warn("EmbeddingAdapter", "Embedding request failed, using hash fallback", map[string]interface{}{
			"error":       err.Error(),
			"text_length": len(text),
		})
		return Fallback(text), false
	}

	return res.Embedding.Values, true
}

// Degraded reports whether the adapter is running without a remote provider.
func (a *Adapter) Degraded() bool {
	return a.provider == nil
}
