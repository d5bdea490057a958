package analysis

import (
	"time"
)

// AnalysisID identifier type
type AnalysisID string

// Source enum: which pipeline stage actually produced the verdict
type Source string

const (
	SourceReputation  Source = "reputation"
	SourceFallback    Source = "ai_fallback"
	SourceUnavailable Source = "unavailable"
)

// Verdict is the canonical risk assessment record. Every stage of the
// pipeline produces this shape; it is immutable once constructed.
type Verdict struct {
	RiskScore        int            `json:"risk_score"`
	Summary          string         `json:"summary"`
	Threats          []string       `json:"threats"`
	TechnicalDetails map[string]any `json:"technical_details"`
	Source           Source         `json:"source"`
}

// SubmissionHandle identifies one in-flight reputation analysis job.
// It lives for a single submit+poll cycle and is never persisted.
type SubmissionHandle struct {
	JobID     string
	CreatedAt time.Time
}

// Aggregate Root: persisted analysis result (flattened for the sink)
type Record struct {
	ID          AnalysisID     `json:"id"`
	Filename    string         `json:"filename"`
	RiskScore   int            `json:"risk_score"`
	Summary     string         `json:"summary"`
	Threats     []string       `json:"threats,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	Source      Source         `json:"source"`
	ArtifactURL string         `json:"artifact_url,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ClampScore keeps a risk score inside [0,100]
func ClampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// TimedOutVerdict is the degraded result for a submission that never reached
// "completed" within the poll budget. An unresolved scan counts as medium
// risk so the pipeline still returns something the caller can act on.
func TimedOutVerdict() Verdict {
	return Verdict{
		RiskScore:        50,
		Summary:          "Analysis timed out before the reputation service confirmed a result.",
		Threats:          []string{"Timeout"},
		TechnicalDetails: map[string]any{},
		Source:           SourceReputation,
	}
}

// CleanBinaryVerdict covers binary uploads with no reputation match. Raw
// binary bytes are never handed to the text fallback capability.
func CleanBinaryVerdict() Verdict {
	return Verdict{
		RiskScore:        0,
		Summary:          "Clean binary file (no reputation matches).",
		Threats:          []string{},
		TechnicalDetails: map[string]any{},
		Source:           SourceReputation,
	}
}
