package utils

import "unicode"

// SplitText splits text into windows of at most chunkSize runes, each
// starting overlap runes before the previous one ended. A window that would
// cut a word prefers to end at whitespace in its last quarter.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	total := len(runes)
	if total <= chunkSize {
		return []string{text}
	}
	if overlap >= chunkSize || overlap < 0 {
		overlap = 0
	}

	var chunks []string
	for start := 0; ; {
		end := start + chunkSize
		if end >= total {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		for i := end - 1; i >= start+chunkSize*3/4; i-- {
			if unicode.IsSpace(runes[i]) {
				end = i + 1
				break
			}
		}
		chunks = append(chunks, string(runes[start:end]))

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}
