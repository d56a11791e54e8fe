package handler

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pesio-ai/be-md-governance/internal/pkg/errors"
	"github.com/pesio-ai/be-md-governance/internal/pkg/logger"
	"github.com/pesio-ai/be-md-governance/internal/repository"
	"github.com/pesio-ai/be-md-governance/internal/service"
)

// HTTPHandler handles HTTP requests
type HTTPHandler struct {
	service    *service.WorkflowService
	normalizer *service.AddressNormalizer
	now        func() time.Time
	log        *logger.Logger
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(svc *service.WorkflowService, normalizer *service.AddressNormalizer, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		service:    svc,
		normalizer: normalizer,
		now:        time.Now,
		log:        log.Component("http"),
	}
}

// RegisterRoutes mounts the governance API on r.
func (h *HTTPHandler) RegisterRoutes(r gin.IRouter) {
	requests := r.Group("/requests")
	requests.POST("", h.ProposeChange)
	requests.GET("", h.ListRequests)
	requests.GET("/:id", h.GetRequest)
	requests.GET("/:id/audit", h.GetAuditTrail)
	requests.POST("/:id/submit", h.SubmitForApproval)
	requests.POST("/:id/approve", h.Approve)
	requests.POST("/:id/reject", h.Reject)
	requests.POST("/:id/comments", h.AddComment)
	requests.POST("/:id/cancel", h.Cancel)

	r.GET("/statistics", h.GetStatistics)
	r.GET("/chains", h.BuildChain)

	r.POST("/addresses/validate", h.ValidateAddress)
	r.POST("/addresses/geocode", h.GeocodeAddress)
	r.POST("/locations/duplicates", h.FindDuplicates)
	r.POST("/quality", h.CalculateDataQuality)
}

type submitBody struct {
	SubmittedBy string `json:"submittedBy"`
}

type approveBody struct {
	ApproverName string `json:"approverName" binding:"required"`
	Comment      string `json:"comment"`
}

type rejectBody struct {
	ApproverName string `json:"approverName" binding:"required"`
	Reason       string `json:"reason" binding:"required"`
}

type cancelBody struct {
	CancelledBy string `json:"cancelledBy" binding:"required"`
	Reason      string `json:"reason"`
}

type commentBody struct {
	Author string                 `json:"author" binding:"required"`
	Text   string                 `json:"text" binding:"required"`
	Kind   repository.CommentKind `json:"kind"`
}

type addressBody struct {
	Address string `json:"address" binding:"required"`
}

type duplicatesBody struct {
	Candidate service.LocationCandidate   `json:"candidate"`
	Existing  []service.LocationCandidate `json:"existing"`
}

type qualityBody struct {
	Record service.MasterDataRecord `json:"record"`
	AsOf   *time.Time               `json:"asOf,omitempty"`
}

// ProposeChange handles create change request HTTP requests
func (h *HTTPHandler) ProposeChange(c *gin.Context) {
	var in service.ProposeChangeInput
	if !h.bind(c, &in) {
		return
	}

	proposal, err := h.service.ProposeChange(c.Request.Context(), in)
	if err != nil {
		status, body := h.errorBody(c, err)
		// A draft survives a failed auto-submit; point the caller at it.
		if proposal != nil && proposal.Request != nil {
			body["requestId"] = proposal.Request.ID
		}
		c.AbortWithStatusJSON(status, body)
		return
	}
	c.JSON(http.StatusCreated, proposal)
}

// ListRequests handles list change requests HTTP requests. Either status or
// role may narrow the result; role takes precedence.
func (h *HTTPHandler) ListRequests(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		reqs []*repository.WorkflowRequest
		err  error
	)
	switch role, status := c.Query("role"), c.Query("status"); {
	case role != "":
		reqs, err = h.service.GetPendingForRole(ctx, role)
	case status != "":
		s := repository.RequestStatus(status)
		if !slices.Contains(repository.AllStatuses, s) {
			h.respondError(c, errors.InvalidInput("status", "unknown status "+status))
			return
		}
		reqs, err = h.service.GetByStatus(ctx, s)
	default:
		reqs, err = h.service.GetAllRequests(ctx)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": reqs,
		"total":    len(reqs),
	})
}

// GetRequest handles get change request HTTP requests
func (h *HTTPHandler) GetRequest(c *gin.Context) {
	req, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// GetAuditTrail handles get audit trail HTTP requests
func (h *HTTPHandler) GetAuditTrail(c *gin.Context) {
	trail, err := h.service.GetAuditTrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"auditTrail": trail})
}

// SubmitForApproval handles submit for approval HTTP requests
func (h *HTTPHandler) SubmitForApproval(c *gin.Context) {
	var body submitBody
	if c.Request.ContentLength > 0 && !h.bind(c, &body) {
		return
	}

	req, err := h.service.SubmitForApproval(c.Request.Context(), c.Param("id"), body.SubmittedBy)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// Approve handles approve HTTP requests
func (h *HTTPHandler) Approve(c *gin.Context) {
	var body approveBody
	if !h.bind(c, &body) {
		return
	}

	outcome, err := h.service.Approve(c.Request.Context(), c.Param("id"), body.ApproverName, body.Comment)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// Reject handles reject HTTP requests
func (h *HTTPHandler) Reject(c *gin.Context) {
	var body rejectBody
	if !h.bind(c, &body) {
		return
	}

	req, err := h.service.Reject(c.Request.Context(), c.Param("id"), body.ApproverName, body.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// AddComment handles add comment HTTP requests
func (h *HTTPHandler) AddComment(c *gin.Context) {
	var body commentBody
	if !h.bind(c, &body) {
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), c.Param("id"), body.Author, body.Text, body.Kind)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// Cancel handles cancel HTTP requests
func (h *HTTPHandler) Cancel(c *gin.Context) {
	var body cancelBody
	if !h.bind(c, &body) {
		return
	}

	req, err := h.service.Cancel(c.Request.Context(), c.Param("id"), body.CancelledBy, body.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// GetStatistics handles statistics HTTP requests
func (h *HTTPHandler) GetStatistics(c *gin.Context) {
	stats, err := h.service.GetStatistics(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// BuildChain previews the approval chain for a change type and priority.
func (h *HTTPHandler) BuildChain(c *gin.Context) {
	changeType := repository.ChangeType(c.Query("changeType"))
	if changeType == "" {
		h.respondError(c, errors.InvalidInput("changeType", "changeType is required"))
		return
	}
	priority := repository.Priority(c.DefaultQuery("priority", string(repository.PriorityMedium)))
	if !slices.Contains(repository.AllPriorities, priority) {
		h.respondError(c, errors.InvalidInput("priority", "unknown priority "+string(priority)))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changeType":     changeType,
		"priority":       priority,
		"approvalLevels": h.service.BuildChain(changeType, priority),
	})
}

// ValidateAddress handles address validation HTTP requests
func (h *HTTPHandler) ValidateAddress(c *gin.Context) {
	var body addressBody
	if !h.bind(c, &body) {
		return
	}
	c.JSON(http.StatusOK, h.normalizer.ValidateAddress(body.Address))
}

// GeocodeAddress handles geocoding HTTP requests
func (h *HTTPHandler) GeocodeAddress(c *gin.Context) {
	var body addressBody
	if !h.bind(c, &body) {
		return
	}
	c.JSON(http.StatusOK, h.normalizer.GeocodeAddress(body.Address))
}

// FindDuplicates handles duplicate detection HTTP requests
func (h *HTTPHandler) FindDuplicates(c *gin.Context) {
	var body duplicatesBody
	if !h.bind(c, &body) {
		return
	}
	if body.Candidate.Name == "" {
		h.respondError(c, errors.InvalidInput("candidate.name", "candidate name is required"))
		return
	}

	matches := service.FindDuplicates(body.Candidate, body.Existing)
	c.JSON(http.StatusOK, gin.H{
		"matches": matches,
		"total":   len(matches),
	})
}

// CalculateDataQuality handles data quality HTTP requests
func (h *HTTPHandler) CalculateDataQuality(c *gin.Context) {
	var body qualityBody
	if !h.bind(c, &body) {
		return
	}
	asOf := h.now()
	if body.AsOf != nil {
		asOf = *body.AsOf
	}
	c.JSON(http.StatusOK, service.CalculateDataQuality(body.Record, asOf))
}

func (h *HTTPHandler) bind(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.respondError(c, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid request body"))
		return false
	}
	return true
}

func (h *HTTPHandler) respondError(c *gin.Context, err error) {
	status, body := h.errorBody(c, err)
	c.AbortWithStatusJSON(status, body)
}

func (h *HTTPHandler) errorBody(c *gin.Context, err error) (int, gin.H) {
	code := errors.CodeOf(err)
	status := errors.HTTPStatus(code)

	body := gin.H{
		"code":    code,
		"message": err.Error(),
	}
	var appErr *errors.Error
	if errors.As(err, &appErr) && appErr.Field != "" {
		body["field"] = appErr.Field
	}

	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Request failed")
	}
	return status, body
}
