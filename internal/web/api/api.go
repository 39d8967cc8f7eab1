package api

import (
	"streamcast/internal/errs"

	"github.com/gin-gonic/gin"
)

// writeError maps domain errors onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	switch {
	case errs.IsValidation(err):
		c.JSON(400, gin.H{"error": err.Error()})
	case errs.IsNotFound(err):
		c.JSON(404, gin.H{"error": err.Error()})
	default:
		c.JSON(500, gin.H{"error": err.Error()})
	}
}
