package capture

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	domanalysis "github.com/renuka1112/cyberspy/internal/domain/analysis"
	domain "github.com/renuka1112/cyberspy/internal/domain/capture"
)

// Service implements the trace-analysis use-case: spool the upload to a
// temp file, decode it, summarize in one pass, archive the trace.
type Service struct {
	Decoder   domain.Decoder
	Artifacts domanalysis.ArtifactStore // optional
}

// TraceAnalysisResult mirrors the dashboard's expected shape: aggregate
// stats, a chart series, and the bounded timeline.
type TraceAnalysisResult struct {
	Stats       domain.PacketStats      `json:"stats"`
	Chart       []domain.ChartPoint     `json:"chart"`
	Timeline    []domain.TimelineSample `json:"timeline"`
	ArtifactURL string                  `json:"artifact_url,omitempty"`
	Error       string                  `json:"error,omitempty"`
}

// AnalyzeTrace decodes a capture stream and summarizes it. A missing decoder
// yields a structured "analysis unavailable" result, not an error; a decode
// failure is an error, but the temp spool is removed on every path.
func (s *Service) AnalyzeTrace(ctx context.Context, r io.Reader, filename string) (TraceAnalysisResult, error) {
	if s.Decoder == nil {
		return TraceAnalysisResult{
			Stats:    domain.Summarize(nil),
			Chart:    []domain.ChartPoint{},
			Timeline: []domain.TimelineSample{},
			Error:    "capture decoder not available",
		}, nil
	}

	tempPath := filepath.Join(os.TempDir(), fmt.Sprintf("trace-%s.pcap", uuid.New()))
	f, err := os.Create(tempPath)
	if err != nil {
		return TraceAnalysisResult{}, err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tempPath)
		return TraceAnalysisResult{}, err
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return TraceAnalysisResult{}, err
	}

	packets, err := s.Decoder.Decode(tempPath)
	if err != nil {
		os.Remove(tempPath)
		return TraceAnalysisResult{}, fmt.Errorf("trace decode: %w", err)
	}

	stats := domain.Summarize(packets)
	result := TraceAnalysisResult{
		Stats:    stats,
		Chart:    domain.ChartSeries(stats),
		Timeline: stats.Timeline,
	}

	if s.Artifacts != nil {
		key := fmt.Sprintf("traces/%s", filename)
		url, uerr := s.Artifacts.UploadAndCleanup(ctx, tempPath, key)
		if uerr != nil {
			log.Printf("trace archive failed for %s: %v", filename, uerr)
			os.Remove(tempPath)
		} else {
			result.ArtifactURL = url
		}
	} else {
		os.Remove(tempPath)
	}

	return result, nil
}
