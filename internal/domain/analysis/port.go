package analysis

import "context"

// LookupStatus classifies the outcome of a reputation lookup. A down or
// unconfigured service is not an error here; the pipeline continues either
// way, but callers can still tell "no prior record" from "service is down".
type LookupStatus int

const (
	LookupFound LookupStatus = iota
	LookupNotFound
	LookupUnavailable
)

// Reputation port (interface untuk external reputation service)
type Reputation interface {
	// Lookup queries the service by content digest. The report is non-nil
	// only when status is LookupFound.
	Lookup(ctx context.Context, digest string) (*Report, LookupStatus)

	// Submit uploads unknown content for analysis and returns a handle for
	// the in-flight job.
	Submit(ctx context.Context, content []byte, filename string) (SubmissionHandle, error)

	// AwaitCompletion polls the job until it completes or the poll budget is
	// exhausted. It always yields a usable Verdict; an exhausted budget
	// yields TimedOutVerdict.
	AwaitCompletion(ctx context.Context, h SubmissionHandle) Verdict
}

// Fallback port (interface untuk generative content-inspection capability).
// Implementations never surface transport or parse failures; they degrade to
// a deterministic offline Verdict instead.
type Fallback interface {
	AnalyzeText(ctx context.Context, text, filename string) Verdict
	AnalyzeImage(ctx context.Context, image []byte, mimeType string) Verdict
}

// Repository port (interface untuk persistence sink)
type Repository interface {
	Save(ctx context.Context, rec *Record) error
	Latest(ctx context.Context, limit int) ([]*Record, error)
}

// ArtifactStore port (interface untuk penyimpanan artefak)
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	UploadAndCleanup(ctx context.Context, localPath, key string) (string, error)
}
