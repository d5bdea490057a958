package analysis

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeScoresFromEngineTally(t *testing.T) {
	cases := []struct {
		name       string
		malicious  int
		suspicious int
		want       int
	}{
		{"clean", 0, 0, 0},
		{"mixed tally", 3, 2, 50},
		{"clamped at ceiling", 15, 0, 100},
		{"suspicious only", 0, 4, 40},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rep := &Report{Stats: &EngineStats{Malicious: tc.malicious, Suspicious: tc.suspicious}}
			v := Normalize(rep)
			if v.RiskScore != tc.want {
				t.Fatalf("risk score = %d, want %d", v.RiskScore, tc.want)
			}
			if v.Source != SourceReputation {
				t.Fatalf("source = %q, want %q", v.Source, SourceReputation)
			}
		})
	}
}

func TestNormalizeFallsBackToLegacyFieldNames(t *testing.T) {
	rep := &Report{
		LastAnalysisStats: &EngineStats{Malicious: 2, Suspicious: 1},
		LastAnalysisResults: map[string]EngineResult{
			"EngineA": {Category: "malicious", ResultName: "Trojan.Generic"},
		},
	}

	v := Normalize(rep)
	if v.RiskScore != 30 {
		t.Fatalf("risk score = %d, want 30", v.RiskScore)
	}
	if len(v.Threats) != 1 || v.Threats[0] != "EngineA: Trojan.Generic" {
		t.Fatalf("threats = %v", v.Threats)
	}
}

func TestNormalizePrefersCurrentSchemaOverLegacy(t *testing.T) {
	rep := &Report{
		Stats:             &EngineStats{Malicious: 1},
		LastAnalysisStats: &EngineStats{Malicious: 9},
	}
	if got := Normalize(rep).RiskScore; got != 10 {
		t.Fatalf("risk score = %d, want 10 (primary schema must win)", got)
	}
}

func TestNormalizeCapsThreatList(t *testing.T) {
	results := map[string]EngineResult{}
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		results[name] = EngineResult{Category: "malicious", Result: "Bad.Thing"}
	}
	results["H"] = EngineResult{Category: "harmless"}

	rep := &Report{Stats: &EngineStats{Malicious: 7}, Results: results}
	v := Normalize(rep)

	if len(v.Threats) != 5 {
		t.Fatalf("threats length = %d, want 5", len(v.Threats))
	}
	for _, threat := range v.Threats {
		if !strings.HasSuffix(threat, ": Bad.Thing") {
			t.Fatalf("unexpected threat entry %q", threat)
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	rep := &Report{
		Stats: &EngineStats{Malicious: 1, Suspicious: 1, Harmless: 60},
		Results: map[string]EngineResult{
			"OnlyEngine": {Category: "malicious", Result: "Worm.X"},
		},
	}

	first := Normalize(rep)
	second := Normalize(rep)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalize not idempotent:\nfirst  %#v\nsecond %#v", first, second)
	}
}

func TestNormalizeEmptyReport(t *testing.T) {
	v := Normalize(&Report{})
	if v.RiskScore != 0 {
		t.Fatalf("risk score = %d, want 0", v.RiskScore)
	}
	if v.Threats == nil || len(v.Threats) != 0 {
		t.Fatalf("threats should be empty non-nil, got %#v", v.Threats)
	}
}

func TestClampScore(t *testing.T) {
	if got := ClampScore(-5); got != 0 {
		t.Fatalf("ClampScore(-5) = %d", got)
	}
	if got := ClampScore(150); got != 100 {
		t.Fatalf("ClampScore(150) = %d", got)
	}
	if got := ClampScore(42); got != 42 {
		t.Fatalf("ClampScore(42) = %d", got)
	}
}

func TestDigestIsDeterministic(t *testing.T) {
	a := Digest([]byte("some payload"))
	b := Digest([]byte("some payload"))
	if a != b {
		t.Fatalf("digest not deterministic: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("digest length = %d, want 64 hex chars", len(a))
	}
	if a == Digest([]byte("other payload")) {
		t.Fatal("different content produced identical digest")
	}
}

func TestTimedOutVerdictShape(t *testing.T) {
	v := TimedOutVerdict()
	if v.RiskScore != 50 {
		t.Fatalf("risk score = %d, want 50", v.RiskScore)
	}
	if v.Source != SourceReputation {
		t.Fatalf("source = %q, want %q", v.Source, SourceReputation)
	}
	if len(v.Threats) != 1 || v.Threats[0] != "Timeout" {
		t.Fatalf("threats = %v, want [Timeout]", v.Threats)
	}
}
