package repository

import "time"

// ── Enumerations ─────────────────────────────────────────────────────────────

// ChangeType identifies the kind of master-data change being proposed.
type ChangeType string

const (
	ChangeLocationCreate    ChangeType = "LOCATION_CREATE"
	ChangeLocationUpdate    ChangeType = "LOCATION_UPDATE"
	ChangeLocationDelete    ChangeType = "LOCATION_DELETE"
	ChangeFuelRuleCreate    ChangeType = "FUEL_RULE_CREATE"
	ChangeFuelRuleUpdate    ChangeType = "FUEL_RULE_UPDATE"
	ChangeLaneCreate        ChangeType = "LANE_CREATE"
	ChangeLaneRateChange    ChangeType = "LANE_RATE_CHANGE"
	ChangeVehicleCreate     ChangeType = "VEHICLE_CREATE"
	ChangeAccessorialCreate ChangeType = "ACCESSORIAL_CREATE"
)

// AllChangeTypes lists the fixed change-type enumeration.
var AllChangeTypes = []ChangeType{
	ChangeLocationCreate, ChangeLocationUpdate, ChangeLocationDelete,
	ChangeFuelRuleCreate, ChangeFuelRuleUpdate,
	ChangeLaneCreate, ChangeLaneRateChange,
	ChangeVehicleCreate, ChangeAccessorialCreate,
}

// IsLocation reports whether the change targets a location record.
func (c ChangeType) IsLocation() bool {
	return c == ChangeLocationCreate || c == ChangeLocationUpdate || c == ChangeLocationDelete
}

type RequestStatus string

const (
	StatusDraft           RequestStatus = "DRAFT"
	StatusPendingApproval RequestStatus = "PENDING_APPROVAL"
	StatusApproved        RequestStatus = "APPROVED"
	StatusRejected        RequestStatus = "REJECTED"
	StatusCancelled       RequestStatus = "CANCELLED"
)

// AllStatuses lists every request status in lifecycle order.
var AllStatuses = []RequestStatus{
	StatusDraft, StatusPendingApproval, StatusApproved, StatusRejected, StatusCancelled,
}

// IsTerminal reports whether no further transitions are possible.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

var AllPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

type ChangeKind string

const (
	KindCreate ChangeKind = "CREATE"
	KindUpdate ChangeKind = "UPDATE"
	KindDelete ChangeKind = "DELETE"
)

type LevelStatus string

const (
	LevelPending  LevelStatus = "PENDING"
	LevelApproved LevelStatus = "APPROVED"
	LevelRejected LevelStatus = "REJECTED"
)

type CommentKind string

const (
	CommentKindComment  CommentKind = "COMMENT"
	CommentKindQuestion CommentKind = "QUESTION"
	CommentKindResponse CommentKind = "RESPONSE"
)

// Audit action tags.
const (
	AuditRequestCreated        = "REQUEST_CREATED"
	AuditSubmittedForApproval  = "SUBMITTED_FOR_APPROVAL"
	AuditLevelApproved         = "LEVEL_APPROVED"
	AuditEscalatedToNextLevel  = "ESCALATED_TO_NEXT_LEVEL"
	AuditFinalApproval         = "FINAL_APPROVAL"
	AuditChangeExecuted        = "CHANGE_EXECUTED"
	AuditChangeExecutionFailed = "CHANGE_EXECUTION_FAILED"
	AuditRejected              = "REJECTED"
	AuditCancelled             = "CANCELLED"
	AuditCommentAdded          = "COMMENT_ADDED"
)

// ── Workflow aggregate ───────────────────────────────────────────────────────

// ApprovalLevel is one stage of a sequential approval chain.
type ApprovalLevel struct {
	Level        int         `json:"level"`
	RequiredRole string      `json:"requiredRole"`
	Status       LevelStatus `json:"status"`
	ApproverName *string     `json:"approverName,omitempty"`
	DecidedAt    *time.Time  `json:"decidedAt,omitempty"`
	Comment      *string     `json:"comment,omitempty"`
}

// WorkflowComment is a free-text note on a request; append-only.
type WorkflowComment struct {
	ID        string      `json:"id"`
	Author    string      `json:"author"`
	CreatedAt time.Time   `json:"createdAt"`
	Text      string      `json:"text"`
	Kind      CommentKind `json:"kind"`
}

// AuditEntry is one immutable record in a request's audit trail.
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Details   string    `json:"details"`
}

// WorkflowRequest is a proposed master-data change moving through approval.
type WorkflowRequest struct {
	ID             string            `json:"id"`
	ChangeType     ChangeType        `json:"changeType"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	RequestedBy    string            `json:"requestedBy"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
	Status         RequestStatus     `json:"status"`
	Priority       Priority          `json:"priority"`
	ChangeKind     ChangeKind        `json:"changeKind"`
	TargetEntityID *string           `json:"targetEntityId,omitempty"`
	BeforeData     map[string]any    `json:"beforeData,omitempty"`
	AfterData      map[string]any    `json:"afterData"`
	ApprovalLevels []ApprovalLevel   `json:"approvalLevels"`
	CurrentLevel   int               `json:"currentLevel"`
	Comments       []WorkflowComment `json:"comments"`
	AuditTrail     []AuditEntry      `json:"auditTrail"`

	// Version increments on every successful save; stores reject stale writes.
	Version int64 `json:"version"`
}

// CurrentApprovalLevel returns the active level, or nil when out of range.
func (r *WorkflowRequest) CurrentApprovalLevel() *ApprovalLevel {
	if r.CurrentLevel < 0 || r.CurrentLevel >= len(r.ApprovalLevels) {
		return nil
	}
	return &r.ApprovalLevels[r.CurrentLevel]
}

// IsLastLevel reports whether the active level is the final one in the chain.
func (r *WorkflowRequest) IsLastLevel() bool {
	return r.CurrentLevel == len(r.ApprovalLevels)-1
}

// NormalizeLevels gives every level without a status the PENDING status and
// renumbers ordinals to match their position.
func (r *WorkflowRequest) NormalizeLevels() {
	for i := range r.ApprovalLevels {
		r.ApprovalLevels[i].Level = i + 1
		if r.ApprovalLevels[i].Status == "" {
			r.ApprovalLevels[i].Status = LevelPending
		}
	}
}

// Clone returns a copy that shares no mutable slices with r. Payload maps are
// copied one level deep; nested values are treated as read-only.
func (r *WorkflowRequest) Clone() *WorkflowRequest {
	if r == nil {
		return nil
	}
	c := *r
	c.TargetEntityID = clonePtr(r.TargetEntityID)
	c.BeforeData = cloneMap(r.BeforeData)
	c.AfterData = cloneMap(r.AfterData)

	c.ApprovalLevels = make([]ApprovalLevel, len(r.ApprovalLevels))
	for i, lvl := range r.ApprovalLevels {
		lvl.ApproverName = clonePtr(lvl.ApproverName)
		lvl.DecidedAt = clonePtr(lvl.DecidedAt)
		lvl.Comment = clonePtr(lvl.Comment)
		c.ApprovalLevels[i] = lvl
	}
	c.Comments = append([]WorkflowComment(nil), r.Comments...)
	c.AuditTrail = append([]AuditEntry(nil), r.AuditTrail...)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
