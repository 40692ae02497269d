package handler

import (
	"net/http"

	"applicant-review-api/internal/service"
	"applicant-review-api/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProfileHandler struct {
	profileService service.ProfileService
}

func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// RegisterRoutes binds the endpoints to the gin RouterGroup
func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Published profiles are public; hidden ones 404.
	router.GET("/profiles/:id", h.GetProfile)
}

// GetProfile handles GET /profiles/:id
// @Summary      Get a published profile
// @Description  Returns the profile document if it is currently visible
// @Tags         profiles
// @Produce      json
// @Param        id   path      string  true  "Profile ID"
// @Success      200  {object}  response.Response{data=model.Profile}
// @Failure      404  {object}  response.Response
// @Router       /profiles/{id} [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid profile ID"))
		return
	}

	profile, err := h.profileService.GetVisible(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, profile))
}
