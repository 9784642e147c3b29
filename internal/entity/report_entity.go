package entity

type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "pending"
	ReportStatusProcessing ReportStatus = "processing"
	ReportStatusCompleted  ReportStatus = "completed"
	ReportStatusError      ReportStatus = "error"
)

// Report section keys, in generation order.
const (
	SectionAccomplishments = "accomplishments"
	SectionInsights        = "insights"
	SectionDecisions       = "decisions"
	SectionNextSteps       = "nextSteps"
)

var SectionOrder = []string{SectionAccomplishments, SectionInsights, SectionDecisions, SectionNextSteps}

type ReportSections struct {
	Accomplishments string `json:"accomplishments"`
	Insights        string `json:"insights"`
	Decisions       string `json:"decisions"`
	NextSteps       string `json:"nextSteps"`
}

// Get returns the section named key, "" for unknown keys.
func (s ReportSections) Get(key string) string {
	switch key {
	case SectionAccomplishments:
		return s.Accomplishments
	case SectionInsights:
		return s.Insights
	case SectionDecisions:
		return s.Decisions
	case SectionNextSteps:
		return s.NextSteps
	}
	return ""
}

// Set assigns the section named key. Unknown keys are ignored.
func (s *ReportSections) Set(key, value string) {
	switch key {
	case SectionAccomplishments:
		s.Accomplishments = value
	case SectionInsights:
		s.Insights = value
	case SectionDecisions:
		s.Decisions = value
	case SectionNextSteps:
		s.NextSteps = value
	}
}

type ReportMetadata struct {
	LastUpdated      int64    `json:"lastUpdated"`
	RelatedDocuments []string `json:"relatedDocuments,omitempty"`
	FullReport       string   `json:"fullReport,omitempty"`
}

type ReportState struct {
	Title    string         `json:"title"`
	Date     string         `json:"date"`
	Sections ReportSections `json:"sections"`
	Metadata ReportMetadata `json:"metadata"`
}

// Clone returns a deep copy.
func (r *ReportState) Clone() *ReportState {
	if r == nil {
		return nil
	}
	c := *r
	if r.Metadata.RelatedDocuments != nil {
		c.Metadata.RelatedDocuments = append([]string(nil), r.Metadata.RelatedDocuments...)
	}
	return &c
}

// ReportProcessingState is the server-side record of one generation request.
type ReportProcessingState struct {
	ReportId       string             `json:"reportId"`
	Status         ReportStatus       `json:"status"`
	Documents      []UploadedDocument `json:"documents"`
	ProjectContext string             `json:"projectContext,omitempty"`
	CreatedAt      int64              `json:"createdAt"`
	UpdatedAt      int64              `json:"updatedAt"`
	Result         *ReportState       `json:"result,omitempty"`
	Error          string             `json:"error,omitempty"`
}

func (p *ReportProcessingState) Clone() *ReportProcessingState {
	if p == nil {
		return nil
	}
	c := *p
	c.Documents = append([]UploadedDocument(nil), p.Documents...)
	c.Result = p.Result.Clone()
	return &c
}

func (p *ReportProcessingState) IsTerminal() bool {
	return p.Status == ReportStatusCompleted || p.Status == ReportStatusError
}
