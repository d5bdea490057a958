package analysis

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/renuka1112/cyberspy/internal/application"
	domain "github.com/renuka1112/cyberspy/internal/domain/analysis"
)

// Service implements the threat-analysis orchestration use-case.
// Service is designed to be used concurrently and is thread-safe;
// each invocation owns its own submission handle and verdict.
type Service struct {
	Reputation domain.Reputation
	Fallback   domain.Fallback
	Repo       domain.Repository    // optional, nil disables persistence
	Artifacts  domain.ArtifactStore // optional, nil disables artifact upload
	Clock      application.Clock
}

// Command untuk analyze file
type AnalyzeFileCommand struct {
	Filename    string
	ContentType string
	Content     []byte
}

// FileAnalysisResult is the flattened response record for one analysis.
type FileAnalysisResult struct {
	ID               string         `json:"id"`
	Filename         string         `json:"filename"`
	Name             string         `json:"name"`
	Size             string         `json:"size"`
	ContentType      string         `json:"type"`
	Score            int            `json:"score"`
	RiskScore        int            `json:"risk_score"`
	Summary          string         `json:"summary"`
	Threats          []string       `json:"threats"`
	TechnicalDetails map[string]any `json:"technical_details"`
	Source           domain.Source  `json:"source"`
	ArtifactURL      string         `json:"artifact_url,omitempty"`
}

// AnalyzeFile runs the full pipeline: digest -> reputation lookup ->
// submit+poll when unknown -> generative fallback when still zero-signal.
// Stages are ordered cheapest first and the pipeline short-circuits on the
// first non-zero risk. It always produces a result; no stage failure is
// allowed to surface as a request failure.
func (s *Service) AnalyzeFile(ctx context.Context, cmd AnalyzeFileCommand) FileAnalysisResult {
	digest := domain.Digest(cmd.Content)

	verdict, conclusive := s.reputationVerdict(ctx, digest, cmd)
	if !conclusive {
		verdict = s.fallbackVerdict(ctx, cmd)
	}

	rec := s.persist(ctx, cmd, verdict)

	return FileAnalysisResult{
		ID:               string(rec.ID),
		Filename:         cmd.Filename,
		Name:             cmd.Filename,
		Size:             fmt.Sprintf("%.2f KB", float64(len(cmd.Content))/1024),
		ContentType:      cmd.ContentType,
		Score:            verdict.RiskScore,
		RiskScore:        verdict.RiskScore,
		Summary:          verdict.Summary,
		Threats:          verdict.Threats,
		TechnicalDetails: verdict.TechnicalDetails,
		Source:           verdict.Source,
		ArtifactURL:      rec.ArtifactURL,
	}
}

// reputationVerdict covers the lookup and submit+poll stages. The second
// return value reports whether the verdict carries an actionable signal;
// a zero-risk reputation answer means "no match", not "confirmed clean",
// so the pipeline keeps going.
func (s *Service) reputationVerdict(ctx context.Context, digest string, cmd AnalyzeFileCommand) (domain.Verdict, bool) {
	rep, status := s.Reputation.Lookup(ctx, digest)

	var verdict domain.Verdict
	switch status {
	case domain.LookupFound:
		verdict = domain.Normalize(rep)
		if verdict.RiskScore > 0 {
			return verdict, true
		}
	case domain.LookupUnavailable:
		log.Printf("reputation lookup unavailable for digest=%s, continuing pipeline", digest)
	}

	handle, err := s.Reputation.Submit(ctx, cmd.Content, cmd.Filename)
	if err != nil {
		log.Printf("reputation submit failed for %s: %v", cmd.Filename, err)
		return verdict, false
	}

	polled := s.Reputation.AwaitCompletion(ctx, handle)
	if polled.RiskScore > 0 {
		return polled, true
	}
	return polled, false
}

// fallbackVerdict routes zero-signal content to the generative capability.
// Images get the QR-extraction prompt; binary that is not UTF-8 decodable
// never reaches the text capability and is reported as a clean binary.
func (s *Service) fallbackVerdict(ctx context.Context, cmd AnalyzeFileCommand) domain.Verdict {
	if strings.HasPrefix(cmd.ContentType, "image/") {
		return s.Fallback.AnalyzeImage(ctx, cmd.Content, cmd.ContentType)
	}
	if !utf8.Valid(cmd.Content) {
		return domain.CleanBinaryVerdict()
	}
	return s.Fallback.AnalyzeText(ctx, string(cmd.Content), cmd.Filename)
}

// persist stores the flattened record and archives the uploaded bytes.
// Both are best-effort: a missing or failing sink never blocks the verdict.
func (s *Service) persist(ctx context.Context, cmd AnalyzeFileCommand, v domain.Verdict) *domain.Record {
	rec := &domain.Record{
		ID:        domain.AnalysisID(uuid.New().String()),
		Filename:  cmd.Filename,
		RiskScore: v.RiskScore,
		Summary:   v.Summary,
		Threats:   v.Threats,
		Details:   v.TechnicalDetails,
		Source:    v.Source,
		CreatedAt: s.Clock.Now(),
	}

	if s.Artifacts != nil {
		key := fmt.Sprintf("analyses/%s/%s", rec.ID, cmd.Filename)
		url, err := s.Artifacts.Put(ctx, key, cmd.Content, cmd.ContentType)
		if err != nil {
			log.Printf("artifact upload failed for %s: %v", cmd.Filename, err)
		} else {
			rec.ArtifactURL = url
		}
	}

	if s.Repo != nil {
		if err := s.Repo.Save(ctx, rec); err != nil {
			log.Printf("analysis record save failed for %s: %v", rec.ID, err)
		}
	}

	return rec
}

// Latest ambil N analysis record terakhir
func (s *Service) Latest(ctx context.Context, limit int) ([]*domain.Record, error) {
	if s.Repo == nil {
		return []*domain.Record{}, nil
	}
	return s.Repo.Latest(ctx, limit)
}
