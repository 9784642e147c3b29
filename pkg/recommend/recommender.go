package recommend

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"ai-devguide-be/internal/entity"
	"ai-devguide-be/internal/pkg/logger"
	"ai-devguide-be/pkg/content"
	"ai-devguide-be/pkg/search"
	"ai-devguide-be/pkg/topic"

	"github.com/patrickmn/go-cache"
)

const (
	DefaultContentLimit     = 3
	DefaultContentThreshold = 0.6
	DefaultResponseLimit    = 5

	contextWindow     = 5
	historyWindow     = 5
	topicDiscount     = 0.8
	excerptLength     = 160
	contentCacheTTL   = 5 * time.Minute
	contentCacheSweep = 10 * time.Minute
)

// Recommendation sources
const (
	SourceTemplate = "template"
	SourceTopic    = "topic"
	SourceHistory  = "history"
)

// Corpus is the embedded site content to recommend from.
type Corpus interface {
	Chunks() []content.EmbeddedContentChunk
}

type ContentRecommendation struct {
	Chunk content.ContentChunk `json:"chunk"`
	Score float64              `json:"score"`
}

type ResponseRecommendation struct {
	Text      string  `json:"text"`
	Relevance float64 `json:"relevance"`
	Source    string  `json:"source"`
	Path      string  `json:"path,omitempty"`
}

// ContentOptions zero values fall back to the defaults. CacheKey enables caching.
type ContentOptions struct {
	Limit     int
	Threshold float64
	CacheKey  string
}

type ResponseOptions struct {
	Limit            int
	IncludeTemplates bool
}

func DefaultResponseOptions() ResponseOptions {
	return ResponseOptions{Limit: DefaultResponseLimit, IncludeTemplates: true}
}

type Recommender struct {
	corpus   Corpus
	searcher *search.Searcher
	topics   *topic.Extractor
	cache    *cache.Cache
	logger   logger.ILogger
}

func NewRecommender(corpus Corpus, searcher *search.Searcher, topics *topic.Extractor, log logger.ILogger) *Recommender {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Recommender{
		corpus:   corpus,
		searcher: searcher,
		topics:   topics,
		cache:    cache.New(contentCacheTTL, contentCacheSweep),
		logger:   log,
	}
}

// GetContentRecommendations finds site content related to the recent conversation.
func (r *Recommender) GetContentRecommendations(ctx context.Context, messages []entity.ChatMessage, opts ContentOptions) []ContentRecommendation {
	if opts.Limit <= 0 {
		opts.Limit = DefaultContentLimit
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultContentThreshold
	}

	cacheKey := ""
	if opts.CacheKey != "" {
		cacheKey = contentCacheKey(opts)
		if v, found := r.cache.Get(cacheKey); found {
			return v.([]ContentRecommendation)
		}
	}

	query := contextString(messages)
	if query == "" {
		return []ContentRecommendation{}
	}

	recs := []ContentRecommendation{}
	for _, res := range r.searcher.Search(ctx, query, r.corpus.Chunks(), 0) {
		if res.Score < opts.Threshold {
			// ranked, nothing further can pass
			break
		}
		recs = append(recs, ContentRecommendation{Chunk: res.Chunk, Score: res.Score})
		if len(recs) == opts.Limit {
			break
		}
	}

	if cacheKey != "" {
		r.cache.Set(cacheKey, recs, cache.DefaultExpiration)
	}
	return recs
}

// contentCacheKey scopes a cached result to the options that shaped it.
func contentCacheKey(opts ContentOptions) string {
	return fmt.Sprintf("%s|%d|%g", opts.CacheKey, opts.Limit, opts.Threshold)
}

// InvalidateCache drops every cached content recommendation stored under key.
func (r *Recommender) InvalidateCache(key string) {
	prefix := key + "|"
	for k := range r.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			r.cache.Delete(k)
		}
	}
}

// GetResponseRecommendations suggests replies by combining template rules,
// topic-driven content lookups and replay of earlier assistant answers.
func (r *Recommender) GetResponseRecommendations(ctx context.Context, messages []entity.ChatMessage, opts ResponseOptions) []ResponseRecommendation {
	if opts.Limit <= 0 {
		opts.Limit = DefaultResponseLimit
	}

	var recs []ResponseRecommendation
	if opts.IncludeTemplates {
		recs = append(recs, matchTemplates(latestUserMessage(messages))...)
	}
	recs = append(recs, r.topicRecommendations(ctx, messages, opts.Limit)...)
	recs = append(recs, historyRecommendations(messages)...)

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Relevance > recs[j].Relevance })
	if len(recs) > opts.Limit {
		recs = recs[:opts.Limit]
	}
	if recs == nil {
		return []ResponseRecommendation{}
	}
	return recs
}

func (r *Recommender) topicRecommendations(ctx context.Context, messages []entity.ChatMessage, limit int) []ResponseRecommendation {
	topics := r.topics.ExtractTopics(ctx, messages)
	if len(topics) == 0 {
		return nil
	}
	top := topics[0]

	var recs []ResponseRecommendation
	for _, res := range r.searcher.Search(ctx, top.Topic, r.corpus.Chunks(), limit) {
		recs = append(recs, ResponseRecommendation{
			Text: fmt.Sprintf("Based on our resources about %s, you may find \"%s: %s\" helpful. %s",
				top.Topic, res.Chunk.Title, res.Chunk.Section, excerpt(res.Chunk.Content)),
			Relevance: res.Score * topicDiscount,
			Source:    SourceTopic,
			Path:      res.Chunk.Path,
		})
	}
	return recs
}

// historyRecommendations replays recent assistant answers, newest first,
// scored 0.7, 0.6, 0.5 ... Error replies and streaming placeholders are skipped.
func historyRecommendations(messages []entity.ChatMessage) []ResponseRecommendation {
	var recs []ResponseRecommendation
	for i := len(messages) - 1; i >= 0 && len(recs) < historyWindow; i-- {
		m := messages[i]
		if m.Role != entity.RoleAssistant || m.IsStreaming || m.IsError() || strings.TrimSpace(m.Content) == "" {
			continue
		}
		recs = append(recs, ResponseRecommendation{
			Text:      m.Content,
			Relevance: 0.7 - 0.1*float64(len(recs)),
			Source:    SourceHistory,
		})
	}
	return recs
}

var (
	greetingPattern = regexp.MustCompile(`(?i)^\s*(hi|hello|hey|howdy|greetings|good (morning|afternoon|evening))\b`)
	farewellPattern = regexp.MustCompile(`(?i)\b(bye|goodbye|see you|thanks|thank you|cheers|that'?s all)\b`)
)

var templates = map[string][]string{
	"greeting": {
		"Hello! What would you like to learn about AI-assisted development today?",
		"Hi there! I can help with MCP servers, prompting patterns or status reports.",
		"Welcome! Ask me anything about the guide.",
	},
	"farewell": {
		"Glad I could help. Come back any time!",
		"Good luck with your project!",
		"Feel free to return if you have more questions.",
	},
	"clarification": {
		"Could you tell me a bit more about what you're trying to do?",
		"Which part would you like me to explain in more detail?",
		"Are you asking about MCP, AI-assisted coding or the report builder?",
	},
}

// templateBucket picks the first matching rule: greeting, farewell, then
// clarification for short messages and questions.
func templateBucket(text string) string {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return ""
	case greetingPattern.MatchString(text):
		return "greeting"
	case farewellPattern.MatchString(text):
		return "farewell"
	case len(strings.Fields(text)) < 4 || strings.HasSuffix(text, "?"):
		return "clarification"
	}
	return ""
}

func matchTemplates(text string) []ResponseRecommendation {
	bucket := templateBucket(text)
	if bucket == "" {
		return nil
	}
	var recs []ResponseRecommendation
	for i, t := range templates[bucket] {
		recs = append(recs, ResponseRecommendation{
			Text:      t,
			Relevance: 0.9 - 0.1*float64(i),
			Source:    SourceTemplate,
		})
	}
	return recs
}

func latestUserMessage(messages []entity.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == entity.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

// contextString joins the last few non-system messages.
func contextString(messages []entity.ChatMessage) string {
	recent := entity.LastN(entity.NonSystemMessages(messages), contextWindow)
	parts := make([]string, 0, len(recent))
	for _, m := range recent {
		if c := strings.TrimSpace(m.Content); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "\n")
}

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= excerptLength {
		return s
	}
	return string(runes[:excerptLength]) + "..."
}
