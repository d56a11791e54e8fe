package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pesio-ai/be-md-governance/internal/pkg/errors"
	"github.com/pesio-ai/be-md-governance/internal/pkg/logger"
	"github.com/pesio-ai/be-md-governance/internal/repository"
)

// ChangeExecutor applies an approved change to the master-data store.
type ChangeExecutor interface {
	Execute(ctx context.Context, changeType repository.ChangeType, kind repository.ChangeKind, payload map[string]any) error
}

// EventPublisher delivers workflow notifications. Implementations must not
// block or fail the caller.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, requestID, actorID string, recipients []string, payload map[string]any)
}

// Notification event types.
const (
	EventApprovalRequired = "approval_required"
	EventRequestApproved  = "request_approved"
	EventRequestRejected  = "request_rejected"
	EventRequestCancelled = "request_cancelled"
)

// CreateRequestInput carries everything needed to open a change request.
// ApprovalLevels must come from BuildChain.
type CreateRequestInput struct {
	ChangeType     repository.ChangeType      `json:"changeType" validate:"required"`
	Title          string                     `json:"title" validate:"required,max=200"`
	Description    string                     `json:"description" validate:"max=4000"`
	RequestedBy    string                     `json:"requestedBy" validate:"required"`
	Priority       repository.Priority        `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
	ChangeKind     repository.ChangeKind      `json:"changeKind" validate:"required,oneof=CREATE UPDATE DELETE"`
	TargetEntityID *string                    `json:"targetEntityId,omitempty"`
	BeforeData     map[string]any             `json:"beforeData,omitempty"`
	AfterData      map[string]any             `json:"afterData" validate:"required"`
	ApprovalLevels []repository.ApprovalLevel `json:"approvalLevels"`
}

// ApprovalOutcome reports the effect of a successful Approve call.
type ApprovalOutcome struct {
	Request        *repository.WorkflowRequest `json:"request"`
	Final          bool                        `json:"final"`
	Executed       bool                        `json:"executed"`
	ExecutionError string                      `json:"executionError,omitempty"`
}

// Option customises a WorkflowService.
type Option func(*WorkflowService)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *WorkflowService) { s.now = now }
}

// WithIDGenerator overrides uuid-based request and comment ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *WorkflowService) { s.newID = newID }
}

// WithChainBuilder overrides the default approval chain table.
func WithChainBuilder(b *ChainBuilder) Option {
	return func(s *WorkflowService) { s.chains = b }
}

// WithPayloadValidator overrides the built-in payload schemas.
func WithPayloadValidator(v *PayloadValidator) Option {
	return func(s *WorkflowService) { s.payloads = v }
}

// WorkflowService is the governance state machine. Every mutation runs under
// a per-request lock as get → clone → check → mutate → save, so a failed
// operation never changes stored state.
type WorkflowService struct {
	*GovernanceQueryService

	store      repository.RequestStore
	locker     RequestLocker
	chains     *ChainBuilder
	payloads   *PayloadValidator
	normalizer *AddressNormalizer
	executor   ChangeExecutor
	notifier   EventPublisher
	validate   *validator.Validate
	now        func() time.Time
	newID      func() string
	log        *logger.Logger
}

// NewWorkflowService creates a new WorkflowService.
func NewWorkflowService(
	store repository.RequestStore,
	locker RequestLocker,
	executor ChangeExecutor,
	notifier EventPublisher,
	log *logger.Logger,
	opts ...Option,
) *WorkflowService {
	s := &WorkflowService{
		GovernanceQueryService: NewGovernanceQueryService(store),
		store:                  store,
		locker:                 locker,
		chains:                 NewChainBuilder(nil),
		payloads:               NewPayloadValidator(nil),
		normalizer:             NewAddressNormalizer(nil),
		executor:               executor,
		notifier:               notifier,
		validate:               validator.New(validator.WithRequiredStructEnabled()),
		now:                    time.Now,
		newID:                  uuid.NewString,
		log:                    log.Component("workflow"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildChain exposes the configured chain builder.
func (s *WorkflowService) BuildChain(changeType repository.ChangeType, priority repository.Priority) []repository.ApprovalLevel {
	return s.chains.BuildChain(changeType, priority)
}

// ── Creation ──────────────────────────────────────────────────────────────────

// CreateRequest persists a new DRAFT request.
func (s *WorkflowService) CreateRequest(ctx context.Context, in CreateRequestInput) (*repository.WorkflowRequest, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	if len(in.ApprovalLevels) == 0 {
		return nil, errors.InvalidInput("approvalLevels", "approval chain is empty; build it with BuildChain first")
	}
	// Only the roles are taken from the caller; every level starts undecided.
	levels := make([]repository.ApprovalLevel, len(in.ApprovalLevels))
	for i, lvl := range in.ApprovalLevels {
		if strings.TrimSpace(lvl.RequiredRole) == "" {
			return nil, errors.InvalidInput("approvalLevels", fmt.Sprintf("approval level %d has no required role", i+1))
		}
		levels[i] = repository.ApprovalLevel{RequiredRole: lvl.RequiredRole, Status: repository.LevelPending}
	}

	now := s.now()
	req := &repository.WorkflowRequest{
		ID:             s.newID(),
		ChangeType:     in.ChangeType,
		Title:          in.Title,
		Description:    in.Description,
		RequestedBy:    in.RequestedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
		Status:         repository.StatusDraft,
		Priority:       in.Priority,
		ChangeKind:     in.ChangeKind,
		TargetEntityID: in.TargetEntityID,
		BeforeData:     in.BeforeData,
		AfterData:      in.AfterData,
		ApprovalLevels: levels,
		CurrentLevel:   0,
		Comments:       []repository.WorkflowComment{},
	}
	req.NormalizeLevels()
	appendAudit(req, now, repository.AuditRequestCreated, in.RequestedBy,
		fmt.Sprintf("%s request created with %d approval level(s)", in.ChangeType, len(req.ApprovalLevels)))

	if err := s.store.Save(ctx, req); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("request_id", req.ID).
		Str("change_type", string(req.ChangeType)).
		Str("priority", string(req.Priority)).
		Int("levels", len(req.ApprovalLevels)).
		Msg("Change request created")
	return req.Clone(), nil
}

// ── Transitions ───────────────────────────────────────────────────────────────

// SubmitForApproval moves a DRAFT request to PENDING_APPROVAL at level 0.
func (s *WorkflowService) SubmitForApproval(ctx context.Context, id, submittedBy string) (*repository.WorkflowRequest, error) {
	var req *repository.WorkflowRequest
	err := s.withLock(ctx, id, func() error {
		var err error
		req, err = s.apply(ctx, id, func(r *repository.WorkflowRequest, now time.Time) error {
			if r.Status != repository.StatusDraft {
				return errors.IllegalTransition("submit", string(r.Status))
			}
			if len(r.ApprovalLevels) == 0 {
				return errors.New(errors.ErrCodeInternal, fmt.Sprintf("request %s has no approval levels", r.ID))
			}
			actor := submittedBy
			if actor == "" {
				actor = r.RequestedBy
			}
			r.Status = repository.StatusPendingApproval
			r.CurrentLevel = 0
			r.ApprovalLevels[0].Status = repository.LevelPending
			appendAudit(r, now, repository.AuditSubmittedForApproval, actor,
				fmt.Sprintf("Submitted for approval; awaiting %s", r.ApprovalLevels[0].RequiredRole))
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("request_id", id).Str("awaiting_role", req.ApprovalLevels[0].RequiredRole).Msg("Change request submitted")
	s.notify(ctx, EventApprovalRequired, req, submittedBy, []string{req.ApprovalLevels[0].RequiredRole})
	return req, nil
}

// Approve approves the current level. A non-final approval escalates to the
// next level; the final approval marks the request APPROVED and invokes the
// Change Executor exactly once.
func (s *WorkflowService) Approve(ctx context.Context, id, approverName, comment string) (*ApprovalOutcome, error) {
	if approverName == "" {
		return nil, errors.InvalidInput("approverName", "approver name is required")
	}

	outcome := &ApprovalOutcome{}
	err := s.withLock(ctx, id, func() error {
		req, err := s.apply(ctx, id, func(r *repository.WorkflowRequest, now time.Time) error {
			level, err := activeLevel(r, "approve")
			if err != nil {
				return err
			}

			level.Status = repository.LevelApproved
			level.ApproverName = &approverName
			level.DecidedAt = &now
			if comment != "" {
				level.Comment = &comment
			}
			appendAudit(r, now, repository.AuditLevelApproved, approverName,
				fmt.Sprintf("Level %d (%s) approved", level.Level, level.RequiredRole))

			if !r.IsLastLevel() {
				r.CurrentLevel++
				next := &r.ApprovalLevels[r.CurrentLevel]
				next.Status = repository.LevelPending
				appendAudit(r, now, repository.AuditEscalatedToNextLevel, "system",
					fmt.Sprintf("Escalated to level %d (%s)", next.Level, next.RequiredRole))
				return nil
			}

			r.Status = repository.StatusApproved
			outcome.Final = true
			appendAudit(r, now, repository.AuditFinalApproval, approverName, "All approval levels completed")
			return nil
		})
		if err != nil {
			return err
		}

		if outcome.Final {
			s.executeChange(ctx, req, outcome)
		}
		outcome.Request = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	req := outcome.Request
	if outcome.Final {
		s.log.Info().
			Str("request_id", id).
			Str("approver", approverName).
			Bool("executed", outcome.Executed).
			Msg("Change request fully approved")
		s.notify(ctx, EventRequestApproved, req, approverName, []string{req.RequestedBy})
	} else {
		next := req.ApprovalLevels[req.CurrentLevel]
		s.log.Info().
			Str("request_id", id).
			Str("approver", approverName).
			Int("current_level", req.CurrentLevel).
			Str("awaiting_role", next.RequiredRole).
			Msg("Approval level completed; escalated")
		s.notify(ctx, EventApprovalRequired, req, approverName, []string{next.RequiredRole})
	}
	return outcome, nil
}

// Reject rejects the current level and terminates the request. Later levels
// are left untouched.
func (s *WorkflowService) Reject(ctx context.Context, id, approverName, reason string) (*repository.WorkflowRequest, error) {
	if approverName == "" {
		return nil, errors.InvalidInput("approverName", "approver name is required")
	}
	if reason == "" {
		return nil, errors.InvalidInput("reason", "rejection reason is required")
	}

	var req *repository.WorkflowRequest
	err := s.withLock(ctx, id, func() error {
		var err error
		req, err = s.apply(ctx, id, func(r *repository.WorkflowRequest, now time.Time) error {
			level, err := activeLevel(r, "reject")
			if err != nil {
				return err
			}
			level.Status = repository.LevelRejected
			level.ApproverName = &approverName
			level.DecidedAt = &now
			level.Comment = &reason
			r.Status = repository.StatusRejected
			appendAudit(r, now, repository.AuditRejected, approverName,
				fmt.Sprintf("Rejected at level %d (%s): %s", level.Level, level.RequiredRole, reason))
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("request_id", id).Str("approver", approverName).Int("level", req.CurrentLevel).Msg("Change request rejected")
	s.notify(ctx, EventRequestRejected, req, approverName, []string{req.RequestedBy})
	return req, nil
}

// Cancel terminates a DRAFT or PENDING_APPROVAL request.
func (s *WorkflowService) Cancel(ctx context.Context, id, cancelledBy, reason string) (*repository.WorkflowRequest, error) {
	if cancelledBy == "" {
		return nil, errors.InvalidInput("cancelledBy", "cancelling user is required")
	}

	var req *repository.WorkflowRequest
	err := s.withLock(ctx, id, func() error {
		var err error
		req, err = s.apply(ctx, id, func(r *repository.WorkflowRequest, now time.Time) error {
			if r.Status != repository.StatusDraft && r.Status != repository.StatusPendingApproval {
				return errors.IllegalTransition("cancel", string(r.Status))
			}
			r.Status = repository.StatusCancelled
			details := "Request cancelled"
			if reason != "" {
				details = fmt.Sprintf("Request cancelled: %s", reason)
			}
			appendAudit(r, now, repository.AuditCancelled, cancelledBy, details)
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("request_id", id).Str("cancelled_by", cancelledBy).Msg("Change request cancelled")
	s.notify(ctx, EventRequestCancelled, req, cancelledBy, []string{req.RequestedBy})
	return req, nil
}

// AddComment appends a comment in any status without changing it.
func (s *WorkflowService) AddComment(ctx context.Context, id, author, text string, kind repository.CommentKind) (*repository.WorkflowComment, error) {
	if author == "" {
		return nil, errors.InvalidInput("author", "comment author is required")
	}
	if text == "" {
		return nil, errors.InvalidInput("text", "comment text is required")
	}
	if kind == "" {
		kind = repository.CommentKindComment
	}
	switch kind {
	case repository.CommentKindComment, repository.CommentKindQuestion, repository.CommentKindResponse:
	default:
		return nil, errors.InvalidInput("kind", fmt.Sprintf("unknown comment kind %q", kind))
	}

	var comment repository.WorkflowComment
	err := s.withLock(ctx, id, func() error {
		_, err := s.apply(ctx, id, func(r *repository.WorkflowRequest, now time.Time) error {
			comment = repository.WorkflowComment{
				ID:        s.newID(),
				Author:    author,
				CreatedAt: now,
				Text:      text,
				Kind:      kind,
			}
			r.Comments = append(r.Comments, comment)
			appendAudit(r, now, repository.AuditCommentAdded, author, fmt.Sprintf("%s added", kind))
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ── Internal helpers ──────────────────────────────────────────────────────────

func (s *WorkflowService) withLock(ctx context.Context, id string, fn func() error) error {
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConflict, fmt.Sprintf("could not lock request %s", id))
	}
	defer unlock()
	return fn()
}

// apply loads a request, mutates a clone and saves it. Nothing is written
// when fn fails.
func (s *WorkflowService) apply(ctx context.Context, id string, fn func(r *repository.WorkflowRequest, now time.Time) error) (*repository.WorkflowRequest, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	next.NormalizeLevels()

	now := s.now()
	if err := fn(next, now); err != nil {
		return nil, err
	}
	next.UpdatedAt = now

	if err := s.store.Save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// executeChange runs after the APPROVED state is persisted, so a retry can
// never reach the executor a second time.
func (s *WorkflowService) executeChange(ctx context.Context, req *repository.WorkflowRequest, outcome *ApprovalOutcome) {
	ctx = context.WithoutCancel(ctx)

	err := s.executor.Execute(ctx, req.ChangeType, req.ChangeKind, req.AfterData)
	now := s.now()
	if err != nil {
		outcome.ExecutionError = err.Error()
		appendAudit(req, now, repository.AuditChangeExecutionFailed, "system", err.Error())
		s.log.Error().Err(err).Str("request_id", req.ID).Msg("Change execution failed")
	} else {
		outcome.Executed = true
		appendAudit(req, now, repository.AuditChangeExecuted, "system",
			fmt.Sprintf("%s %s applied to master data", req.ChangeKind, req.ChangeType))
	}
	req.UpdatedAt = now

	if err := s.store.Save(ctx, req); err != nil {
		s.log.Warn().Err(err).
			Str("request_id", req.ID).
			Msg("Failed to persist execution audit entry")
	}
}

func (s *WorkflowService) notify(ctx context.Context, eventType string, req *repository.WorkflowRequest, actor string, recipients []string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(ctx, eventType, req.ID, actor, recipients, map[string]any{
		"change_type": req.ChangeType,
		"title":       req.Title,
		"status":      req.Status,
		"priority":    req.Priority,
	})
}

func (s *WorkflowService) validateInput(in any) error {
	if err := s.validate.Struct(in); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return errors.InvalidInput(verrs[0].Field(), verrs.Error())
		}
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid request")
	}
	return nil
}

// activeLevel returns the level awaiting a decision, or an error when the
// request cannot be decided.
func activeLevel(r *repository.WorkflowRequest, op string) (*repository.ApprovalLevel, error) {
	if r.Status != repository.StatusPendingApproval {
		return nil, errors.IllegalTransition(op, string(r.Status))
	}
	level := r.CurrentApprovalLevel()
	if level == nil {
		return nil, errors.New(errors.ErrCodeInternal,
			fmt.Sprintf("request %s has current level %d outside its chain", r.ID, r.CurrentLevel))
	}
	if level.Status != repository.LevelPending {
		return nil, errors.IllegalTransition(op, fmt.Sprintf("%s (level %d already %s)", r.Status, level.Level, level.Status))
	}
	return level, nil
}

func appendAudit(r *repository.WorkflowRequest, at time.Time, action, actor, details string) {
	r.AuditTrail = append(r.AuditTrail, repository.AuditEntry{
		Timestamp: at,
		Action:    action,
		Actor:     actor,
		Details:   details,
	})
}
