package handler

import (
	"applicant-review-api/pkg/apperr"
	"applicant-review-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError maps a service error onto the response envelope. Persistence
// details never leave the server; they are already logged where they
// occurred.
func writeError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	c.JSON(status, response.Error(status, apperr.PublicMessage(err)))
}
