package service

import (
	"context"
	"strings"

	"github.com/pesio-ai/be-md-governance/internal/repository"
)

// Statistics summarises the request store.
type Statistics struct {
	Total             int                              `json:"total"`
	ByStatus          map[repository.RequestStatus]int `json:"byStatus"`
	PendingByPriority map[repository.Priority]int      `json:"pendingByPriority"`
}

// GovernanceQueryService answers read-only questions about change requests.
type GovernanceQueryService struct {
	store repository.RequestStore
}

func NewGovernanceQueryService(store repository.RequestStore) *GovernanceQueryService {
	return &GovernanceQueryService{store: store}
}

func (q *GovernanceQueryService) GetAllRequests(ctx context.Context) ([]*repository.WorkflowRequest, error) {
	return q.store.List(ctx)
}

func (q *GovernanceQueryService) GetByID(ctx context.Context, id string) (*repository.WorkflowRequest, error) {
	return q.store.Get(ctx, id)
}

func (q *GovernanceQueryService) GetByStatus(ctx context.Context, status repository.RequestStatus) ([]*repository.WorkflowRequest, error) {
	return q.store.ListByStatus(ctx, status)
}

// GetPendingForRole returns requests whose active level awaits role.
func (q *GovernanceQueryService) GetPendingForRole(ctx context.Context, role string) ([]*repository.WorkflowRequest, error) {
	pending, err := q.store.ListByStatus(ctx, repository.StatusPendingApproval)
	if err != nil {
		return nil, err
	}

	out := []*repository.WorkflowRequest{}
	for _, req := range pending {
		level := req.CurrentApprovalLevel()
		if level == nil || level.Status != repository.LevelPending {
			continue
		}
		if strings.EqualFold(level.RequiredRole, role) {
			out = append(out, req)
		}
	}
	return out, nil
}

// GetStatistics counts requests by status and pending requests by priority.
// Every status and priority appears in the result, zero or not.
func (q *GovernanceQueryService) GetStatistics(ctx context.Context) (*Statistics, error) {
	all, err := q.store.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		Total:             len(all),
		ByStatus:          make(map[repository.RequestStatus]int, len(repository.AllStatuses)),
		PendingByPriority: make(map[repository.Priority]int, len(repository.AllPriorities)),
	}
	for _, s := range repository.AllStatuses {
		stats.ByStatus[s] = 0
	}
	for _, p := range repository.AllPriorities {
		stats.PendingByPriority[p] = 0
	}

	for _, req := range all {
		stats.ByStatus[req.Status]++
		if req.Status == repository.StatusPendingApproval {
			stats.PendingByPriority[req.Priority]++
		}
	}
	return stats, nil
}

// GetAuditTrail returns a request's audit entries oldest first.
func (q *GovernanceQueryService) GetAuditTrail(ctx context.Context, id string) ([]repository.AuditEntry, error) {
	req, err := q.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return req.AuditTrail, nil
}
