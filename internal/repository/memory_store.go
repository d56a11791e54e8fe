package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/pesio-ai/be-md-governance/internal/pkg/errors"
)

// MemoryRequestStore is an indexed in-process RequestStore. Reads and writes
// exchange clones so callers never alias stored state.
type MemoryRequestStore struct {
	mu    sync.RWMutex
	byID  map[string]*WorkflowRequest
	order []string
}

// NewMemoryRequestStore creates an empty store.
func NewMemoryRequestStore() *MemoryRequestStore {
	return &MemoryRequestStore{byID: make(map[string]*WorkflowRequest)}
}

func (s *MemoryRequestStore) Get(_ context.Context, id string) (*WorkflowRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.byID[id]
	if !ok {
		return nil, errors.NotFound("workflow_request", id)
	}
	return req.Clone(), nil
}

// List returns all requests in creation order.
func (s *MemoryRequestStore) List(_ context.Context) ([]*WorkflowRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*WorkflowRequest, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out, nil
}

func (s *MemoryRequestStore) ListByStatus(_ context.Context, status RequestStatus) ([]*WorkflowRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*WorkflowRequest
	for _, id := range s.order {
		if req := s.byID[id]; req.Status == status {
			out = append(out, req.Clone())
		}
	}
	return out, nil
}

func (s *MemoryRequestStore) Save(_ context.Context, req *WorkflowRequest) error {
	if req == nil || req.ID == "" {
		return errors.InvalidInput("id", "request id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[req.ID]
	switch {
	case !ok && req.Version != 0:
		return errors.Conflict(fmt.Sprintf("request %s does not exist at version %d", req.ID, req.Version))
	case ok && existing.Version != req.Version:
		return errors.Conflict(fmt.Sprintf("request %s was modified (stored version %d, expected %d)",
			req.ID, existing.Version, req.Version))
	}

	stored := req.Clone()
	stored.Version = req.Version + 1
	if !ok {
		s.order = append(s.order, req.ID)
	}
	s.byID[req.ID] = stored
	req.Version = stored.Version
	return nil
}

func (s *MemoryRequestStore) Ping(context.Context) error {
	return nil
}
