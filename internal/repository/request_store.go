package repository

import "context"

// RequestStore persists WorkflowRequest aggregates keyed by id.
//
// Save is an upsert guarded by optimistic versioning: the caller passes the
// request carrying the version it read (0 for a new request). On success the
// store increments req.Version; on mismatch it returns a CONFLICT error and
// leaves the stored copy untouched.
type RequestStore interface {
	Get(ctx context.Context, id string) (*WorkflowRequest, error)
	List(ctx context.Context) ([]*WorkflowRequest, error)
	ListByStatus(ctx context.Context, status RequestStatus) ([]*WorkflowRequest, error)
	Save(ctx context.Context, req *WorkflowRequest) error
	Ping(ctx context.Context) error
}
