package topic

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"strings"

	"ai-devguide-be/internal/entity"
	"ai-devguide-be/internal/pkg/logger"
	"ai-devguide-be/pkg/embedding"
	"ai-devguide-be/pkg/utils"
	"ai-devguide-be/pkg/vector"
)

const (
	MinQualifyingMessages = 3
	MinContentLength      = 20

	minClusters        = 2
	maxClusters        = 5
	rounds             = 5
	maxRepresentatives = 3
	labelKeywords      = 5
)

type ExtractedTopic struct {
	Topic      string   `json:"topic"`
	Relevance  float64  `json:"relevance"`
	MessageIds []string `json:"messageIds"`
}

// Extractor clusters conversation messages by embedding and labels each
// cluster with its most frequent keywords.
type Extractor struct {
	embedder embedding.Embedder
	logger   logger.ILogger
}

func NewExtractor(embedder embedding.Embedder, log logger.ILogger) *Extractor {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Extractor{embedder: embedder, logger: log}
}

// ExtractTopics never fails. Too little conversation, a cancelled context or
// any internal error yields an empty list.
func (e *Extractor) ExtractTopics(ctx context.Context, messages []entity.ChatMessage) (topics []ExtractedTopic) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("TopicExtractor", "Topic extraction panicked", map[string]interface{}{"error": fmt.Sprint(r)})
			topics = []ExtractedTopic{}
		}
	}()

	qualifying := qualifyingMessages(messages)
	if len(qualifying) < MinQualifyingMessages {
		return []ExtractedTopic{}
	}

	vecs := make([][]float32, len(qualifying))
	for i, m := range qualifying {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("TopicExtractor", "Topic extraction cancelled", map[string]interface{}{"error": err.Error()})
			return []ExtractedTopic{}
		}
		vecs[i] = e.embedder.GetEmbedding(ctx, m.Content)
		if len(vecs[i]) == 0 {
			e.logger.Warn("TopicExtractor", "Unusable message embedding", map[string]interface{}{"message_id": m.Id})
			return []ExtractedTopic{}
		}
	}
	if !embedding.SameDimensions(vecs...) {
		e.logger.Warn("TopicExtractor", "Mixed embedding sizes, clustering with hash fallback", map[string]interface{}{
			"messages": len(vecs),
		})
		for i, m := range qualifying {
			vecs[i] = embedding.Fallback(m.Content)
		}
	}

	k := clusterCount(len(vecs))
	assignments, centroids := kmeans(vecs, k, seedFor(qualifying))

	for c := range centroids {
		var members []int
		for i, a := range assignments {
			if a == c {
				members = append(members, i)
			}
		}
		if len(members) == 0 {
			continue
		}

		var totalDist float64
		dist := make(map[int]float64, len(members))
		for _, i := range members {
			dist[i] = vector.CosineDistance(vecs[i], centroids[c])
			totalDist += dist[i]
		}

		reps := append([]int(nil), members...)
		sort.SliceStable(reps, func(a, b int) bool { return dist[reps[a]] < dist[reps[b]] })
		if len(reps) > maxRepresentatives {
			reps = reps[:maxRepresentatives]
		}

		var text strings.Builder
		for _, i := range reps {
			text.WriteString(qualifying[i].Content)
			text.WriteByte('\n')
		}
		keywords := utils.TopKeywords(text.String(), labelKeywords)
		if len(keywords) == 0 {
			continue
		}

		ids := make([]string, len(members))
		for j, i := range members {
			ids[j] = qualifying[i].Id
		}

		topics = append(topics, ExtractedTopic{
			Topic:      strings.Join(keywords, ", "),
			Relevance:  relevance(totalDist / float64(len(members))),
			MessageIds: ids,
		})
	}

	if topics == nil {
		return []ExtractedTopic{}
	}
	sort.SliceStable(topics, func(a, b int) bool { return topics[a].Relevance > topics[b].Relevance })
	return topics
}

func qualifyingMessages(messages []entity.ChatMessage) []entity.ChatMessage {
	var out []entity.ChatMessage
	for _, m := range messages {
		if m.IsSystem() || len([]rune(m.Content)) <= MinContentLength {
			continue
		}
		out = append(out, m)
	}
	return out
}

func clusterCount(n int) int {
	k := n / 5
	if k < minClusters {
		k = minClusters
	}
	if k > maxClusters {
		k = maxClusters
	}
	if k > n {
		k = n
	}
	return k
}

// seedFor makes clustering reproducible for a given conversation.
func seedFor(messages []entity.ChatMessage) int64 {
	h := fnv.New64a()
	for _, m := range messages {
		_, _ = h.Write([]byte(m.Id))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(m.Content))
		_, _ = h.Write([]byte{0})
	}
	return int64(h.Sum64())
}

// kmeans runs a fixed number of assign/update rounds. Empty clusters keep their
// previous centroid.
func kmeans(vecs [][]float32, k int, seed int64) ([]int, [][]float32) {
	rng := rand.New(rand.NewSource(seed))
	centroids := make([][]float32, k)
	for c, idx := range rng.Perm(len(vecs))[:k] {
		centroids[c] = vector.Clone(vecs[idx])
	}

	assignments := make([]int, len(vecs))
	for round := 0; round < rounds; round++ {
		for i, v := range vecs {
			best, bestDist := 0, vector.CosineDistance(v, centroids[0])
			for c := 1; c < k; c++ {
				if d := vector.CosineDistance(v, centroids[c]); d < bestDist {
					best, bestDist = c, d
				}
			}
			assignments[i] = best
		}

		for c := 0; c < k; c++ {
			var members [][]float32
			for i, a := range assignments {
				if a == c {
					members = append(members, vecs[i])
				}
			}
			if len(members) > 0 {
				centroids[c] = vector.Mean(members)
			}
		}
	}
	return assignments, centroids
}

// relevance maps mean distance to centroid onto [0, 1]. Tighter clusters rank
// higher. It is an ordering hint, not a calibrated score.
func relevance(meanDist float64) float64 {
	r := 1 - meanDist
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
