package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GOG-777/course-registration-api/internal/models"
	"github.com/GOG-777/course-registration-api/internal/service"
	appErrors "github.com/GOG-777/course-registration-api/pkg/errors"
	"github.com/GOG-777/course-registration-api/pkg/response"
)

// ResultHandler exposes GPA computation and score sheet endpoints.
type ResultHandler struct {
	service *service.ResultService
}

// NewResultHandler creates a new handler.
func NewResultHandler(svc *service.ResultService) *ResultHandler {
	return &ResultHandler{service: svc}
}

// Compute godoc
// @Summary Compute GPA or CGPA
// @Description Evaluate the result summary for a level from the submitted score sheet
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body service.ComputeResultRequest true "Computation payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /results/compute [post]
func (h *ResultHandler) Compute(c *gin.Context) {
	var req service.ComputeResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid result payload"))
		return
	}

	summary, err := h.service.Compute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// GetScores godoc
// @Summary Load saved score sheet
// @Description Return the current user's saved score sheet, empty when none exists
// @Tags Results
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /results/scores [get]
func (h *ResultHandler) GetScores(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	sheet, err := h.service.LoadScores(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, sheet, nil)
}

// SaveScores godoc
// @Summary Save score sheet
// @Description Replace the current user's saved score sheet
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body models.ScoreSheet true "Score sheet keyed by level-code"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /results/scores [put]
func (h *ResultHandler) SaveScores(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var sheet models.ScoreSheet
	if err := c.ShouldBindJSON(&sheet); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid score sheet payload"))
		return
	}

	if err := h.service.SaveScores(c.Request.Context(), claims.UserID, sheet); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ClearScores godoc
// @Summary Clear score sheet
// @Description Remove the current user's saved score sheet
// @Tags Results
// @Produce json
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /results/scores [delete]
func (h *ResultHandler) ClearScores(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.ClearScores(c.Request.Context(), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
