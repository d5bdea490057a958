package virustotal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	analysis "github.com/renuka1112/cyberspy/internal/domain/analysis"
)

// ErrUnavailable indicates the reputation service is not configured or not
// reachable; the pipeline treats this as a soft condition.
var ErrUnavailable = errors.New("reputation service unavailable")

const statusCompleted = "completed"

// Client talks to the VirusTotal v3 API. The embedded http.Client is
// long-lived and shared across requests.
type Client struct {
	http         *http.Client
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	maxAttempts  int
}

func New(apiKey, baseURL string, pollInterval time.Duration, maxAttempts int) *Client {
	return &Client{
		http:         &http.Client{Timeout: 30 * time.Second},
		baseURL:      baseURL,
		apiKey:       apiKey,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

// envelope is the v3 response wrapper: data.{id, attributes}
type envelope struct {
	Data struct {
		ID         string          `json:"id"`
		Attributes analysis.Report `json:"attributes"`
	} `json:"data"`
}

// Lookup queries the service by content digest. Transport failures other
// than a 404 degrade to LookupUnavailable; they never reach the caller as
// errors because the pipeline must survive a flaky reputation service.
func (c *Client) Lookup(ctx context.Context, digest string) (*analysis.Report, analysis.LookupStatus) {
	if !c.Configured() {
		return nil, analysis.LookupUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files/"+digest, nil)
	if err != nil {
		return nil, analysis.LookupUnavailable
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("reputation lookup error: %v", err)
		return nil, analysis.LookupUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, analysis.LookupNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("reputation lookup returned status %d", resp.StatusCode)
		return nil, analysis.LookupUnavailable
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		log.Printf("reputation lookup decode error: %v", err)
		return nil, analysis.LookupUnavailable
	}
	return &env.Data.Attributes, analysis.LookupFound
}

// Submit uploads content for analysis and returns the job handle.
func (c *Client) Submit(ctx context.Context, content []byte, filename string) (analysis.SubmissionHandle, error) {
	if !c.Configured() {
		return analysis.SubmissionHandle{}, ErrUnavailable
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return analysis.SubmissionHandle{}, err
	}
	if _, err := part.Write(content); err != nil {
		return analysis.SubmissionHandle{}, err
	}
	if err := w.Close(); err != nil {
		return analysis.SubmissionHandle{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &buf)
	if err != nil {
		return analysis.SubmissionHandle{}, err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return analysis.SubmissionHandle{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return analysis.SubmissionHandle{}, fmt.Errorf("submit returned status %d: %s", resp.StatusCode, body)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return analysis.SubmissionHandle{}, err
	}
	if env.Data.ID == "" {
		return analysis.SubmissionHandle{}, fmt.Errorf("submit response missing analysis id")
	}

	return analysis.SubmissionHandle{JobID: env.Data.ID, CreatedAt: time.Now()}, nil
}

// AwaitCompletion polls the job at a fixed interval up to the attempt
// ceiling, with a hard deadline of interval*attempts so a vanished caller
// cannot extend the wait. A transport error during polling ends the loop
// early; any non-completed exit yields the degraded timeout verdict.
func (c *Client) AwaitCompletion(ctx context.Context, h analysis.SubmissionHandle) analysis.Verdict {
	ctx, cancel := context.WithTimeout(ctx, c.pollInterval*time.Duration(c.maxAttempts))
	defer cancel()

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		rep, err := c.pollStatus(ctx, h.JobID)
		if err != nil {
			log.Printf("polling error for job %s: %v", h.JobID, err)
			break
		}
		if rep.Status == statusCompleted {
			return analysis.Normalize(rep)
		}

		select {
		case <-ctx.Done():
			return analysis.TimedOutVerdict()
		case <-time.After(c.pollInterval):
		}
	}
	return analysis.TimedOutVerdict()
}

func (c *Client) pollStatus(ctx context.Context, jobID string) (*analysis.Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/analyses/"+jobID, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	return &env.Data.Attributes, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-apikey", c.apiKey)
}
