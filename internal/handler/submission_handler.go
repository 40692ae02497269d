package handler

import (
	"net/http"
	"strconv"

	"applicant-review-api/internal/middleware"
	"applicant-review-api/internal/model"
	"applicant-review-api/internal/service"
	"applicant-review-api/pkg/pagination"
	"applicant-review-api/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SubmissionHandler struct {
	submissionService service.SubmissionService
	reviewService     service.ReviewService
	statusQuery       service.StatusQueryService
	exportService     service.ExportService
}

// NewSubmissionHandler sets up the routing dependencies for the review workflow
func NewSubmissionHandler(
	submissionService service.SubmissionService,
	reviewService service.ReviewService,
	statusQuery service.StatusQueryService,
	exportService service.ExportService,
) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		reviewService:     reviewService,
		statusQuery:       statusQuery,
		exportService:     exportService,
	}
}

// RegisterRoutes binds the endpoints to the gin RouterGroup
func (h *SubmissionHandler) RegisterRoutes(router *gin.RouterGroup) {
	submissions := router.Group("/submissions")
	{
		// Self-service routes: account id comes from the token.
		submissions.GET("/status", middleware.RequireAuth(), h.GetMyStatus)
		submissions.GET("/history", middleware.RequireAuth(), h.GetMyHistory)
		submissions.POST("/revision-request", middleware.RequireAuth(), h.RequestRevision)
		submissions.POST("/sync-latest", middleware.RequireAuth(), h.SyncLatest)

		// Reviewer routes.
		submissions.GET("", middleware.RequireRole(model.RoleAdmin), h.ListSubmissions)
		submissions.GET("/export", middleware.RequireRole(model.RoleAdmin), h.ExportSubmissions)
		submissions.POST("/admit", middleware.RequireRole(model.RoleAdmin), h.AdmitSubmission)
		submissions.POST("/:id/transition", middleware.RequireRole(model.RoleAdmin), h.TransitionSubmission)
	}

	router.GET("/accounts/:id/submission-status", middleware.RequireRole(model.RoleAdmin), h.GetAccountStatus)
}

// GetMyStatus handles GET /submissions/status for the calling account
// @Summary      Get own submission status
// @Description  Returns the ledger-derived status summary for the caller
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        category  query     string  true  "Applicant category"  Enums(provider, requester)
// @Success      200       {object}  response.Response{data=service.SubmissionStatusSummary}
// @Failure      400       {object}  response.Response
// @Router       /submissions/status [get]
func (h *SubmissionHandler) GetMyStatus(c *gin.Context) {
	accountID, ok := middleware.AccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Account ID not found in context"))
		return
	}

	category := model.Category(c.Query("category"))
	if category == "" {
		if raw, exists := c.Get("accountCategory"); exists {
			if str, ok := raw.(string); ok {
				category = model.Category(str)
			}
		}
	}

	summary, err := h.statusQuery.GetSubmissionStatus(c.Request.Context(), accountID, category)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// GetAccountStatus handles GET /accounts/:id/submission-status for reviewers
// @Summary      Get an account's submission status
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        id        path      string  true  "Account ID"
// @Param        category  query     string  true  "Applicant category"  Enums(provider, requester)
// @Success      200       {object}  response.Response{data=service.SubmissionStatusSummary}
// @Failure      404       {object}  response.Response
// @Router       /accounts/{id}/submission-status [get]
func (h *SubmissionHandler) GetAccountStatus(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid account ID"))
		return
	}

	summary, err := h.statusQuery.GetSubmissionStatus(c.Request.Context(), accountID, model.Category(c.Query("category")))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// GetMyHistory handles GET /submissions/history for the calling account
// @Summary      Get own submission history
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        category  query     string  false  "Applicant category"
// @Param        page      query     int     false  "Page number"
// @Param        limit     query     int     false  "Items per page"
// @Success      200       {object}  response.Response{data=object}
// @Router       /submissions/history [get]
func (h *SubmissionHandler) GetMyHistory(c *gin.Context) {
	accountID, ok := middleware.AccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Account ID not found in context"))
		return
	}

	params := pagination.Parse(c)
	records, total, err := h.statusQuery.ListHistory(c.Request.Context(), accountID, model.Category(c.Query("category")), params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, records, params.Meta(total)))
}

// RequestRevision handles POST /submissions/revision-request
// @Summary      Request revision of own data
// @Description  Archives the caller's current submissions so corrected data can be resubmitted
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=object}
// @Failure      404  {object}  response.Response
// @Router       /submissions/revision-request [post]
func (h *SubmissionHandler) RequestRevision(c *gin.Context) {
	accountID, ok := middleware.AccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Account ID not found in context"))
		return
	}

	archived, err := h.submissionService.RequestRevision(c.Request.Context(), accountID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"archived_count": archived,
	}))
}

// SyncLatest handles POST /submissions/sync-latest to reprocess the
// caller's newest submission. Safe to call repeatedly.
// @Summary      Reprocess own latest submission
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        category  query     string  true  "Applicant category"  Enums(provider, requester)
// @Success      200       {object}  response.Response{data=service.AdmitResult}
// @Failure      404       {object}  response.Response
// @Router       /submissions/sync-latest [post]
func (h *SubmissionHandler) SyncLatest(c *gin.Context) {
	accountID, ok := middleware.AccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Account ID not found in context"))
		return
	}

	result, err := h.submissionService.SyncLatest(c.Request.Context(), accountID, model.Category(c.Query("category")))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ListSubmissions handles GET /submissions for the review queue
// @Summary      List submissions
// @Description  Paginated capture-store rows with their reconciled status
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        category  query     string  false  "Applicant category"
// @Param        status    query     string  false  "External status filter"
// @Param        page      query     int     false  "Page number"
// @Param        limit     query     int     false  "Items per page"
// @Success      200       {object}  response.Response{data=object}
// @Router       /submissions [get]
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	params := pagination.Parse(c)

	items, total, err := h.submissionService.ListSubmissions(
		c.Request.Context(),
		model.Category(c.Query("category")),
		model.ExternalStatus(c.Query("status")),
		params.Page, params.Limit,
	)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, items, params.Meta(total)))
}

// ExportSubmissions handles GET /submissions/export
// @Summary      Export submissions
// @Description  Read-only CSV or JSON projection of the ledger
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        category  query     string  false  "Applicant category"
// @Param        status    query     string  false  "Review status filter"
// @Param        format    query     string  true   "Export format"  Enums(csv, json)
// @Success      200       {string}  string  "exported data"
// @Failure      400       {object}  response.Response
// @Router       /submissions/export [get]
func (h *SubmissionHandler) ExportSubmissions(c *gin.Context) {
	data, contentType, err := h.exportService.ExportSubmissions(
		c.Request.Context(),
		model.Category(c.Query("category")),
		model.ReviewStatus(c.Query("status")),
		c.DefaultQuery("format", service.FormatCSV),
	)
	if err != nil {
		writeError(c, err)
		return
	}

	filename := "submissions." + c.DefaultQuery("format", service.FormatCSV)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, data)
}

// AdmitSubmission handles POST /submissions/admit
// @Summary      Admit a submission into the ledger
// @Description  Idempotent: a second admit of the same submission is a no-op
// @Tags         submissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.AdmitRequest  true  "Admit Payload"
// @Success      200      {object}  response.Response{data=service.AdmitResult}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /submissions/admit [post]
func (h *SubmissionHandler) AdmitSubmission(c *gin.Context) {
	var req service.AdmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.submissionService.AdmitSubmission(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, response.Success(status, result))
}

// TransitionSubmission handles POST /submissions/:id/transition
// @Summary      Transition a submission's review status
// @Description  Applies a validated state change; ledger, write-back and profile commit together
// @Tags         submissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                        true  "Submission ID"
// @Param        payload  body      service.TransitionRequest  true  "Transition Payload"
// @Success      200      {object}  response.Response{data=model.StatusRecord}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /submissions/{id}/transition [post]
func (h *SubmissionHandler) TransitionSubmission(c *gin.Context) {
	submissionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid submission ID"))
		return
	}

	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	var actorID *uuid.UUID
	if callerID, ok := middleware.AccountIDFromContext(c); ok {
		actorID = &callerID
	}

	record, err := h.reviewService.Transition(c.Request.Context(), submissionID, req.NewStatus, req.Notes, actorID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}
