package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/renuka1112/cyberspy/internal/domain/analysis"
	"github.com/renuka1112/cyberspy/internal/domain/assistant"
	"github.com/renuka1112/cyberspy/internal/infra/ai/prompt"
)

const maxTokens = 2048

const offlineSummary = "AI analysis unavailable (check API key)."

// Client adapts the OpenAI chat API to the fallback-analyzer and assistant
// ports. A client built without an API key stays usable: every call
// degrades to the deterministic offline result.
type Client struct {
	api   *openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	c := &Client{Model: model}
	if apiKey != "" {
		c.api = openai.NewClient(apiKey)
	}
	return c
}

// verdictPayload is the JSON object the capability is asked to return.
type verdictPayload struct {
	RiskScore        int            `json:"risk_score"`
	Summary          string         `json:"summary"`
	Threats          []string       `json:"threats"`
	TechnicalDetails map[string]any `json:"technical_details"`
	DecodedContent   string         `json:"decoded_content"`
}

// AnalyzeText asks the capability to assess a bounded content snippet and
// returns the normalized verdict. Any transport or parse failure yields the
// offline verdict; nothing propagates to the caller.
func (c *Client) AnalyzeText(ctx context.Context, text, filename string) analysis.Verdict {
	if c.api == nil {
		return offlineVerdict()
	}

	req := c.newRequest()
	req.Messages = []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
		{Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(filename, text)},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		log.Printf("fallback analysis failed: %v", err)
		return offlineVerdict()
	}
	return c.decodeVerdict(resp, false)
}

// AnalyzeImage runs the QR/image prompt variant. The extracted text ends up
// under technical_details.decoded_content.
func (c *Client) AnalyzeImage(ctx context.Context, image []byte, mimeType string) analysis.Verdict {
	if c.api == nil {
		return offlineVerdict()
	}

	dataURI := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	req := c.newRequest()
	req.Messages = []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: prompt.GetImagePrompt()},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURI,
						Detail: openai.ImageURLDetailAuto,
					},
				},
			},
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		log.Printf("image analysis failed: %v", err)
		return offlineVerdict()
	}
	return c.decodeVerdict(resp, true)
}

// Chat answers a dashboard chat turn in the assistant persona.
func (c *Client) Chat(ctx context.Context, message, systemContext string) (string, error) {
	if c.api == nil {
		return "SIMBA (Offline): AI core is not connected. Check API key.", nil
	}

	req := c.newRequest()
	req.ResponseFormat = nil
	req.Messages = []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt.GetChatPrompt(message, systemContext)},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
			return "", assistant.ErrQuotaExceeded
		}
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) newRequest() openai.ChatCompletionRequest {
	model := c.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}
	return req
}

func (c *Client) decodeVerdict(resp openai.ChatCompletionResponse, image bool) analysis.Verdict {
	if len(resp.Choices) == 0 {
		return offlineVerdict()
	}

	clean := prompt.StripFences(resp.Choices[0].Message.Content)
	var payload verdictPayload
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		log.Printf("fallback response was not valid JSON: %v", err)
		return offlineVerdict()
	}

	details := payload.TechnicalDetails
	if details == nil {
		details = map[string]any{}
	}
	if image {
		details["decoded_content"] = payload.DecodedContent
	}
	threats := payload.Threats
	if threats == nil {
		threats = []string{}
	}

	return analysis.Verdict{
		RiskScore:        analysis.ClampScore(payload.RiskScore),
		Summary:          payload.Summary,
		Threats:          threats,
		TechnicalDetails: details,
		Source:           analysis.SourceFallback,
	}
}

func offlineVerdict() analysis.Verdict {
	return analysis.Verdict{
		RiskScore:        0,
		Summary:          offlineSummary,
		Threats:          []string{},
		TechnicalDetails: map[string]any{},
		Source:           analysis.SourceUnavailable,
	}
}
