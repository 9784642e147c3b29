package entity

// UploadedDocument is immutable once stored.
type UploadedDocument struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Size        int64  `json:"size"`
	TextContent string `json:"textContent,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Url         string `json:"url,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}
