package openai

import (
	"context"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/renuka1112/cyberspy/internal/domain/analysis"
)

func responseWith(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func assertOffline(t *testing.T, v analysis.Verdict) {
	t.Helper()
	if v.RiskScore != 0 {
		t.Fatalf("risk score = %d, want 0", v.RiskScore)
	}
	if v.Summary != offlineSummary {
		t.Fatalf("summary = %q, want %q", v.Summary, offlineSummary)
	}
	if v.Source != analysis.SourceUnavailable {
		t.Fatalf("source = %q, want %q", v.Source, analysis.SourceUnavailable)
	}
	if v.Threats == nil || len(v.Threats) != 0 {
		t.Fatalf("threats should be empty non-nil, got %#v", v.Threats)
	}
	if v.TechnicalDetails == nil {
		t.Fatal("technical details should be empty non-nil")
	}
}

func TestDecodeVerdictNonJSONDegradesToOffline(t *testing.T) {
	c := &Client{}
	cases := []string{
		"I could not analyze this file, sorry.",
		"```json\nnot even close\n```",
		"{\"risk_score\": ",
		"",
	}
	for _, content := range cases {
		assertOffline(t, c.decodeVerdict(responseWith(content), false))
	}
}

func TestDecodeVerdictEmptyChoicesDegradesToOffline(t *testing.T) {
	c := &Client{}
	assertOffline(t, c.decodeVerdict(openai.ChatCompletionResponse{}, false))
}

func TestDecodeVerdictParsesFencedPayload(t *testing.T) {
	c := &Client{}
	v := c.decodeVerdict(responseWith("```json\n{\"risk_score\": 250, \"summary\": \"bad\", \"threats\": [\"Trojan\"]}\n```"), false)

	if v.RiskScore != 100 {
		t.Fatalf("risk score = %d, want 100 (clamped)", v.RiskScore)
	}
	if v.Source != analysis.SourceFallback {
		t.Fatalf("source = %q, want %q", v.Source, analysis.SourceFallback)
	}
	if len(v.Threats) != 1 || v.Threats[0] != "Trojan" {
		t.Fatalf("threats = %v", v.Threats)
	}
	if v.TechnicalDetails == nil {
		t.Fatal("technical details should be non-nil even when omitted")
	}
}

func TestDecodeVerdictImageCarriesDecodedContent(t *testing.T) {
	c := &Client{}
	v := c.decodeVerdict(responseWith(`{"risk_score": 70, "summary": "qr", "threats": [], "decoded_content": "http://bad.example"}`), true)

	if v.TechnicalDetails["decoded_content"] != "http://bad.example" {
		t.Fatalf("decoded_content = %v", v.TechnicalDetails["decoded_content"])
	}
}

func TestOfflineClientChatBanner(t *testing.T) {
	c := NewClient("", "")
	reply, err := c.Chat(context.Background(), "hello", "")
	if err != nil {
		t.Fatalf("offline chat errored: %v", err)
	}
	if reply != "SIMBA (Offline): AI core is not connected. Check API key." {
		t.Fatalf("offline banner = %q", reply)
	}
}
