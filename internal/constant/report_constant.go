package constant

const (
	ReportSystemPrompt = `You write concise weekly status reports in the "4-box" format: accomplishments, insights, decisions and next steps.
Use only facts from the supplied documents and project context. Write short bullet points starting with "- ". Do not add headings.`

	ReportSectionPromptTemplate = `PROJECT CONTEXT:
%s

DOCUMENTS:
%s

Write the %s section of the status report.
%s`

	ReportTitleTemplate = "Status Report: %s"

	// ReportDocumentCharLimit caps how much of each document is sent to the model.
	ReportDocumentCharLimit = 6000
	ReportMaxTokens         = 600
	ReportTemperature       = 0.3
)

// ReportSectionGuidance describes what each section should contain.
var ReportSectionGuidance = map[string]string{
	"accomplishments": "List what was completed or shipped during the period.",
	"insights":        "List what the team learned: surprises, risks discovered, metrics that moved.",
	"decisions":       "List decisions that were made and who made them, or decisions that are still needed.",
	"nextSteps":       "List the concrete next steps with owners where the documents name them.",
}
