package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, successResponse{Success: true, Data: data})
}

func respondOK(c *gin.Context, data any) {
	respond(c, http.StatusOK, data)
}

// NoRoute answers unknown paths with the standard error envelope.
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	}
}
