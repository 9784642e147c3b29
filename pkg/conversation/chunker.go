package conversation

import (
	"sort"

	"ai-devguide-be/internal/entity"
)

const (
	MaxMessagesPerChunk = 20
	// ChunkOverlap is the number of turns repeated at each chunk boundary.
	ChunkOverlap = 2
)

// Chunk is a bounded window over a conversation. System messages appear in
// every chunk. Overlap counts the non-system messages at the start of the chunk
// that were already in the previous one.
type Chunk struct {
	Messages []entity.ChatMessage `json:"messages"`
	Overlap  int                  `json:"overlap"`
}

// ChunkMessages splits messages into chunks of whole conversation turns.
// A turn runs up to and including an assistant reply (or the final message).
// Message order inside each chunk follows the input.
func ChunkMessages(messages []entity.ChatMessage) []Chunk {
	if len(messages) <= MaxMessagesPerChunk {
		out := make([]entity.ChatMessage, len(messages))
		copy(out, messages)
		return []Chunk{{Messages: out}}
	}

	var system []int
	var turns [][]int
	var current []int
	for i, m := range messages {
		if m.IsSystem() {
			system = append(system, i)
			continue
		}
		current = append(current, i)
		if m.Role == entity.RoleAssistant {
			turns = append(turns, current)
			current = nil
		}
	}
	if len(current) > 0 {
		turns = append(turns, current)
	}

	maxTurns := (MaxMessagesPerChunk - len(system)) / 2
	if maxTurns < 1 {
		maxTurns = 1
	}
	step := maxTurns - ChunkOverlap
	if step < 1 {
		step = 1
	}

	if len(turns) == 0 {
		return []Chunk{{Messages: pick(messages, system)}}
	}

	var chunks []Chunk
	prevEnd := 0
	for start := 0; start < len(turns); start += step {
		end := start + maxTurns
		if end > len(turns) {
			end = len(turns)
		}

		overlap := 0
		for t := start; t < prevEnd && t < end; t++ {
			overlap += len(turns[t])
		}

		idx := append([]int(nil), system...)
		for _, t := range turns[start:end] {
			idx = append(idx, t...)
		}
		sort.Ints(idx)

		chunks = append(chunks, Chunk{Messages: pick(messages, idx), Overlap: overlap})
		prevEnd = end
		if end == len(turns) {
			break
		}
	}
	return chunks
}

func pick(messages []entity.ChatMessage, idx []int) []entity.ChatMessage {
	out := make([]entity.ChatMessage, len(idx))
	for i, j := range idx {
		out[i] = messages[j]
	}
	return out
}
