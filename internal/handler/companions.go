package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/velvoice/companiond/internal/models"
	"github.com/velvoice/companiond/pkg/logger"
	"github.com/velvoice/companiond/pkg/metrics"
	"github.com/velvoice/companiond/pkg/response"
	"github.com/velvoice/companiond/pkg/voice"
)

// CreateCompanion creates a new companion persona for the current user,
// subject to the plan's creation quota.
func (h *Handlers) CreateCompanion(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		Subject  string `json:"subject" binding:"required"`
		Topic    string `json:"topic" binding:"required"`
		Voice    string `json:"voice" binding:"required"`
		Style    string `json:"style" binding:"required"`
		Duration int    `json:"duration" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Fail(c, "Parameter error", nil)
		return
	}

	// Reject out-of-domain voice/style up front; a companion that cannot be
	// configured would fail at every session start.
	if _, err := voice.Configure(input.Voice, input.Style); err != nil {
		response.Fail(c, "Unsupported voice or style", err.Error())
		return
	}

	user := models.CurrentUser(c)

	allowed, err := models.CanCreateCompanion(h.db, user.ID)
	if err != nil {
		response.Fail(c, "Quota check failed", nil)
		return
	}
	if !allowed {
		response.Forbidden(c, "Companion limit reached", "Upgrade your plan to create more companions")
		return
	}

	companion := models.Companion{
		Author:   user.ID,
		Name:     input.Name,
		Subject:  input.Subject,
		Topic:    input.Topic,
		Voice:    input.Voice,
		Style:    input.Style,
		Duration: input.Duration,
	}
	if err := models.CreateCompanion(h.db, &companion); err != nil {
		logger.Error("create companion failed", zap.Error(err))
		response.Fail(c, fmt.Sprintf("Failed to create companion %s", companion.Name), nil)
		return
	}

	metrics.CompanionsCreated.Inc()
	response.Success(c, fmt.Sprintf("Successfully created companion %s", companion.Name), companion)
}

// ListCompanions returns a filtered, paginated companion listing.
func (h *Handlers) ListCompanions(c *gin.Context) {
	filter := models.CompanionFilter{
		Subject: c.Query("subject"),
		Topic:   c.Query("topic"),
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	list, err := models.ListCompanions(h.db, filter, page, limit)
	if err != nil {
		response.Fail(c, "select companions failed", nil)
		return
	}
	response.Success(c, "select companions successful", list)
}

// ListMyCompanions returns the current user's companions.
func (h *Handlers) ListMyCompanions(c *gin.Context) {
	user := models.CurrentUser(c)
	list, err := models.ListUserCompanions(h.db, user.ID)
	if err != nil {
		response.Fail(c, "select companions failed", nil)
		return
	}
	response.Success(c, "select companions successful", list)
}

// GetCompanion fetches a single companion by id.
func (h *Handlers) GetCompanion(c *gin.Context) {
	companion, err := models.GetCompanion(h.db, c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrCompanionNotFound) {
			response.NotFound(c, "Companion does not exist")
			return
		}
		response.Fail(c, "select companion failed", nil)
		return
	}
	response.Success(c, "select companion successful", companion)
}

// CreationQuota reports whether the current user may create another
// companion, with the plan and counts for the UI.
func (h *Handlers) CreationQuota(c *gin.Context) {
	user := models.CurrentUser(c)

	plan, err := models.GetUserPlan(h.db, user.ID)
	if err != nil {
		response.Fail(c, "Quota check failed", nil)
		return
	}
	count, err := models.CountUserCompanions(h.db, user.ID)
	if err != nil {
		response.Fail(c, "Quota check failed", nil)
		return
	}
	limit := models.CompanionLimit(plan)

	response.Success(c, "quota", gin.H{
		"plan":      plan,
		"limit":     limit,
		"used":      count,
		"canCreate": limit > 0 && count < limit,
	})
}
