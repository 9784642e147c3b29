package bootstrap

import (
	"fmt"

	"ai-devguide-be/internal/config"
	"ai-devguide-be/internal/pkg/logger"
	"ai-devguide-be/pkg/content"
	"ai-devguide-be/pkg/contextproto"
	"ai-devguide-be/pkg/embedding"
	"ai-devguide-be/pkg/recommend"
	"ai-devguide-be/pkg/search"
	"ai-devguide-be/pkg/topic"
)

// ContentStack is the corpus and everything that reads it. It is shared by
// the REST server and the MCP stdio server.
type ContentStack struct {
	Index       *content.Index
	Searcher    *search.Searcher
	Topics      *topic.Extractor
	Recommender *recommend.Recommender
	Dispatcher  *contextproto.Dispatcher
}

func NewContentStack(cfg *config.Config, log logger.ILogger) (*ContentStack, error) {
	var (
		chunks []content.ContentChunk
		err    error
	)
	if cfg.App.ContentDir != "" {
		chunks, err = content.LoadDir(cfg.App.ContentDir)
	} else {
		chunks, err = content.LoadBuiltin()
	}
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}

	var provider embedding.EmbeddingProvider
	switch {
	case cfg.Embedding.Provider == "ollama":
		provider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Embedding.Model)
	case cfg.Embedding.APIKey != "":
		provider = embedding.NewOpenAIProvider(cfg.Embedding.APIKey, cfg.Embedding.BaseURL, cfg.Embedding.Model)
	default:
		log.Warn("Bootstrap", "No embedding credentials, using hash embeddings", nil)
	}
	embedder := embedding.NewAdapter(provider, log)

	s := &ContentStack{
		Index:    content.NewIndex(chunks, embedder, log),
		Searcher: search.NewSearcher(embedder),
		Topics:   topic.NewExtractor(embedder, log),
	}
	s.Recommender = recommend.NewRecommender(s.Index, s.Searcher, s.Topics, log)
	s.Dispatcher = contextproto.NewDispatcher(log,
		contextproto.NewSearchContentTool(s.Index, s.Searcher),
		contextproto.NewRecommendContentTool(s.Recommender),
	)
	return s, nil
}
