package analysis

import (
	"fmt"
)

// EngineStats is the per-category engine tally from a reputation report.
type EngineStats struct {
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
	Undetected int `json:"undetected"`
	Harmless   int `json:"harmless"`
}

// EngineResult is a single engine's verdict within a report. The label field
// name differs between report schema generations, so both are decoded.
type EngineResult struct {
	Category   string `json:"category"`
	Result     string `json:"result"`
	ResultName string `json:"result_name"`
}

func (e EngineResult) Label() string {
	if e.Result != "" {
		return e.Result
	}
	return e.ResultName
}

// Report is the raw reputation-service report for one file. The service has
// two schema generations for the same statistics (analyses use stats/results,
// file objects use the last_analysis_* names); both variants are carried and
// the primary name wins.
type Report struct {
	Status              string                  `json:"status"`
	Stats               *EngineStats            `json:"stats"`
	LastAnalysisStats   *EngineStats            `json:"last_analysis_stats"`
	Results             map[string]EngineResult `json:"results"`
	LastAnalysisResults map[string]EngineResult `json:"last_analysis_results"`
}

func (r *Report) engineStats() EngineStats {
	if r.Stats != nil {
		return *r.Stats
	}
	if r.LastAnalysisStats != nil {
		return *r.LastAnalysisStats
	}
	return EngineStats{}
}

func (r *Report) engineResults() map[string]EngineResult {
	if len(r.Results) > 0 {
		return r.Results
	}
	return r.LastAnalysisResults
}

const maxThreats = 5

// Normalize maps a raw reputation report into the canonical Verdict.
// Threat ordering follows map iteration and is not stable across runs;
// the reputation service itself gives no ordering guarantee either.
func Normalize(r *Report) Verdict {
	stats := r.engineStats()

	threats := []string{}
	for engine, res := range r.engineResults() {
		if res.Category != "malicious" {
			continue
		}
		threats = append(threats, fmt.Sprintf("%s: %s", engine, res.Label()))
		if len(threats) == maxThreats {
			break
		}
	}

	return Verdict{
		RiskScore: ClampScore((stats.Malicious + stats.Suspicious) * 10),
		Summary:   fmt.Sprintf("Reputation scan finished. Found %d malicious engines.", stats.Malicious),
		Threats:   threats,
		TechnicalDetails: map[string]any{
			"malicious":  stats.Malicious,
			"suspicious": stats.Suspicious,
			"undetected": stats.Undetected,
			"harmless":   stats.Harmless,
		},
		Source: SourceReputation,
	}
}
