package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxSnippet bounds how much file content is handed to the capability.
const maxSnippet = 8000

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a senior security analyst. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- risk_score is an integer between 0 and 100.
- threats is an array of short threat labels; empty when nothing was found.
- Keep the summary to one or two sentences.

Schema (example with empty values):
{
  "risk_score": 0,
  "summary": "<string>",
  "threats": ["<string>"],
  "technical_details": {
    "vulnerabilities": ["<string>"],
    "recommendation": "<string>"
  }
}`
}

// GetUserPrompt builds the user message around a bounded content snippet.
func GetUserPrompt(filename, content string) string {
	return fmt.Sprintf(
		"Analyze the following file content for security threats and respond with the JSON per schema.\nFilename: %s\nContent Snippet:\n%s",
		filename, Snippet(content),
	)
}

// GetImagePrompt asks the capability to first extract any encoded text
// (QR codes and the like) and then assess that text. The response schema
// gains a decoded_content field.
func GetImagePrompt() string {
	return `This image may contain a QR code or other encoded text. First extract any encoded text, then assess that text for security threats (malicious URLs, phishing, credential harvesting). Respond with the JSON per schema, adding a top-level "decoded_content" string field holding the extracted text (empty if none).`
}

// GetChatPrompt frames a dashboard chat turn for the assistant persona.
func GetChatPrompt(message, systemContext string) string {
	return fmt.Sprintf(
		"System Context: %s\nUser: %s\n\nAct as SIMBA, a cybersecurity expert AI. Be concise, technical, and helpful.",
		systemContext, message,
	)
}

// Snippet truncates content to the prompt budget, backing off to a rune
// boundary so a split multi-byte character never leaves an invalid tail.
func Snippet(content string) string {
	if len(content) <= maxSnippet {
		return content
	}
	cut := maxSnippet
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}

// StripFences removes optional markdown code-fence markers around a JSON
// payload. Models add them despite instructions not to.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
