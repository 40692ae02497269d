package handler

import (
	"net/http"

	"applicant-review-api/internal/middleware"
	"applicant-review-api/internal/model"
	"applicant-review-api/internal/service"
	"applicant-review-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	statsGroup := router.Group("/statistics")
	{
		statsGroup.GET("/submissions", middleware.RequireRole(model.RoleAdmin), h.GetStatistics)
	}
}

// GetStatistics handles GET /statistics/submissions
// @Summary      Get review-queue statistics
// @Description  Per-category totals, status breakdowns and recent admission counts
// @Tags         statistics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=model.StatisticsResponse}
// @Failure      500  {object}  response.Response
// @Router       /statistics/submissions [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	stats, err := h.statisticsService.GetStatistics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to compute statistics"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
