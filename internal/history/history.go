package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Sena-ops/wpguard/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_runs (
    run_id        uuid PRIMARY KEY,
    audit         text        NOT NULL,
    root          text        NOT NULL,
    started_at    timestamptz NOT NULL,
    files_scanned integer     NOT NULL,
    total_issues  integer     NOT NULL,
    grade         text        NOT NULL,
    summary       jsonb       NOT NULL,
    meta          jsonb
);
CREATE TABLE IF NOT EXISTS audit_findings (
    id         bigserial PRIMARY KEY,
    run_id     uuid NOT NULL REFERENCES audit_runs(run_id) ON DELETE CASCADE,
    category   text NOT NULL,
    rule       text NOT NULL,
    severity   text NOT NULL,
    file       text NOT NULL,
    line       integer NOT NULL,
    message    text NOT NULL,
    suggestion text,
    extra      jsonb
);
CREATE INDEX IF NOT EXISTS audit_runs_audit_idx ON audit_runs (audit, started_at DESC);
`

type Store struct{ Pool *pgxpool.Pool }

func Open(ctx context.Context, url string) (*Store, error) {
	p, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("conectando ao postgres: %w", err)
	}
	return &Store{Pool: p}, nil
}

func (s *Store) Close() { s.Pool.Close() }

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("criando schema: %w", err)
	}
	return nil
}

// Record grava a execução e seus findings numa transação.
func (s *Store) Record(ctx context.Context, rep *model.Report) error {
	summary, err := json.Marshal(rep.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	meta, err := json.Marshal(rep.Meta)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
INSERT INTO audit_runs (run_id, audit, root, started_at, files_scanned, total_issues, grade, summary, meta)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rep.RunID, rep.Audit, rep.Root, rep.Timestamp, rep.FilesScanned,
		rep.Summary.Total, rep.Summary.Grade, summary, meta); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if err := insertFindings(ctx, tx, rep.RunID, rep.Findings()); err != nil {
		return fmt.Errorf("insert findings: %w", err)
	}
	return tx.Commit(ctx)
}

func insertFindings(ctx context.Context, tx pgx.Tx, runID string, findings []model.Finding) error {
	if len(findings) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, f := range findings {
		var extra []byte
		if len(f.Extra) > 0 {
			b, err := json.Marshal(f.Extra)
			if err != nil {
				return err
			}
			extra = b
		}
		batch.Queue(`
INSERT INTO audit_findings (run_id, category, rule, severity, file, line, message, suggestion, extra)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9)`,
			runID, f.Category, f.Rule, string(f.Severity), f.File, f.Line, f.Message, f.Suggestion, extra)
	}
	br := tx.SendBatch(ctx, batch)
	for range findings {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return err
		}
	}
	return br.Close()
}

// Trend é o total de findings das últimas execuções de uma auditoria, mais recente primeiro.
type Trend struct {
	RunID string
	Total int
	Grade string
}

func (s *Store) Recent(ctx context.Context, audit string, limit int) ([]Trend, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT run_id::text, total_issues, grade FROM audit_runs
WHERE audit = $1 ORDER BY started_at DESC LIMIT $2`, audit, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Trend
	for rows.Next() {
		var t Trend
		if err := rows.Scan(&t.RunID, &t.Total, &t.Grade); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
