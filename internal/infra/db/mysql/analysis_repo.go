package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	domain "github.com/renuka1112/cyberspy/internal/domain/analysis"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Save insert/update analysis record
func (r *AnalysisRepository) Save(ctx context.Context, rec *domain.Record) error {
	const q = `
INSERT INTO analysis_results
(id, filename, risk_score, summary, threats, details, source, artifact_url, created_at)
VALUES (?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 risk_score=VALUES(risk_score), summary=VALUES(summary),
 threats=VALUES(threats), details=VALUES(details),
 source=VALUES(source), artifact_url=VALUES(artifact_url);
`
	threats, details, err := encodeJSONFields(rec)
	if err != nil {
		return err
	}

	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err = r.db.ExecContext(ctx, q,
		rec.ID, stringOrDash(rec.Filename), rec.RiskScore, rec.Summary,
		threats, details, stringOrDash(string(rec.Source)), rec.ArtifactURL, created,
	)
	return err
}

// Latest analysis records, newest first
func (r *AnalysisRepository) Latest(ctx context.Context, limit int) ([]*domain.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, filename, risk_score, summary, threats, details, source, artifact_url, created_at
FROM analysis_results
ORDER BY created_at DESC LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func encodeJSONFields(rec *domain.Record) (threats, details []byte, err error) {
	threats, err = json.Marshal(rec.Threats)
	if err != nil {
		return nil, nil, err
	}
	details, err = json.Marshal(rec.Details)
	if err != nil {
		return nil, nil, err
	}
	return threats, details, nil
}

func scanRecord(rows *sql.Rows) (*domain.Record, error) {
	var rec domain.Record
	var threats, details []byte
	if err := rows.Scan(
		&rec.ID, &rec.Filename, &rec.RiskScore, &rec.Summary,
		&threats, &details, &rec.Source, &rec.ArtifactURL, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(threats) > 0 {
		if err := json.Unmarshal(threats, &rec.Threats); err != nil {
			return nil, err
		}
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &rec.Details); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}
