package repository

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pesio-ai/be-md-governance/internal/pkg/database"
	"github.com/pesio-ai/be-md-governance/internal/pkg/errors"
)

var schemaDDL = []string{`
	CREATE TABLE IF NOT EXISTS md_change_requests (
	    id            TEXT PRIMARY KEY,
	    change_type   TEXT        NOT NULL,
	    status        TEXT        NOT NULL,
	    priority      TEXT        NOT NULL,
	    current_level INT         NOT NULL,
	    requested_by  TEXT        NOT NULL,
	    version       BIGINT      NOT NULL,
	    body          JSONB       NOT NULL,
	    created_at    TIMESTAMPTZ NOT NULL,
	    updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_md_change_requests_status
	    ON md_change_requests (status, created_at)`,
}

// PostgresRequestStore keeps each request as a JSONB document with its
// queryable attributes and version projected into columns.
type PostgresRequestStore struct {
	db *database.DB
}

// NewPostgresRequestStore creates a new PostgresRequestStore.
func NewPostgresRequestStore(db *database.DB) *PostgresRequestStore {
	return &PostgresRequestStore{db: db}
}

// EnsureSchema creates the table and index when missing.
func (r *PostgresRequestStore) EnsureSchema(ctx context.Context) error {
	err := r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		for _, stmt := range schemaDDL {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create request schema")
	}
	return nil
}

func (r *PostgresRequestStore) Get(ctx context.Context, id string) (*WorkflowRequest, error) {
	query := `
		SELECT body, version
		FROM md_change_requests
		WHERE id = $1
	`

	req, err := r.scanRequest(r.db.QueryRow(ctx, query, id))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.NotFound("workflow_request", id)
	}
	return req, err
}

func (r *PostgresRequestStore) List(ctx context.Context) ([]*WorkflowRequest, error) {
	query := `
		SELECT body, version
		FROM md_change_requests
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list requests")
	}
	defer rows.Close()

	return r.scanRows(rows)
}

func (r *PostgresRequestStore) ListByStatus(ctx context.Context, status RequestStatus) ([]*WorkflowRequest, error) {
	query := `
		SELECT body, version
		FROM md_change_requests
		WHERE status = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, string(status))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list requests by status")
	}
	defer rows.Close()

	return r.scanRows(rows)
}

// Save inserts a new request (version 0) or updates an existing one whose
// stored version matches req.Version.
func (r *PostgresRequestStore) Save(ctx context.Context, req *WorkflowRequest) error {
	if req == nil || req.ID == "" {
		return errors.InvalidInput("id", "request id is required")
	}

	next := req.Clone()
	next.Version = req.Version + 1
	body, err := json.Marshal(next)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal request")
	}

	var query string
	args := []any{
		next.ID, string(next.ChangeType), string(next.Status), string(next.Priority),
		next.CurrentLevel, next.RequestedBy, next.Version, body, next.CreatedAt, next.UpdatedAt,
	}
	if req.Version == 0 {
		query = `
			INSERT INTO md_change_requests
			    (id, change_type, status, priority,
			     current_level, requested_by, version, body,
			     created_at, updated_at)
			VALUES ($1, $2, $3, $4,
			        $5, $6, $7, $8,
			        $9, $10)
			ON CONFLICT (id) DO NOTHING
			RETURNING version
		`
	} else {
		query = `
			UPDATE md_change_requests
			SET change_type   = $2,
			    status        = $3,
			    priority      = $4,
			    current_level = $5,
			    requested_by  = $6,
			    version       = $7,
			    body          = $8,
			    created_at    = $9,
			    updated_at    = $10
			WHERE id = $1 AND version = $11
			RETURNING version
		`
		args = append(args, req.Version)
	}

	var stored int64
	err = r.db.QueryRow(ctx, query, args...).Scan(&stored)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return errors.Conflict(fmt.Sprintf("request %s was modified concurrently (expected version %d)", req.ID, req.Version))
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to save request")
	}

	req.Version = stored
	return nil
}

func (r *PostgresRequestStore) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// ── scan helpers ──────────────────────────────────────────────────────────────

type requestScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRequestStore) scanRows(rows pgx.Rows) ([]*WorkflowRequest, error) {
	var out []*WorkflowRequest
	for rows.Next() {
		req, err := r.scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to iterate requests")
	}
	return out, nil
}

func (r *PostgresRequestStore) scanRequest(sc requestScanner) (*WorkflowRequest, error) {
	var (
		body    []byte
		version int64
	)
	if err := sc.Scan(&body, &version); err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan request")
	}

	req := &WorkflowRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to unmarshal request")
	}
	req.Version = version
	req.NormalizeLevels()
	return req, nil
}
