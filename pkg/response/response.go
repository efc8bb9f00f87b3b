package response

import (
	"errors"
	"log"
	"net/http"

	"anoa.com/feedsync/pkg/apperror"
	"anoa.com/feedsync/pkg/ratelimiter"
	"github.com/gin-gonic/gin"
)

// ResponseError writes err with the status it maps to.
func ResponseError(c *gin.Context, err error) {
	var limited *ratelimiter.RateLimitError
	if errors.As(err, &limited) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": limited.Error()})
		return
	}

	code := apperror.MapErrorToStatus(err)

	// Log internal and upstream errors
	switch code {
	case http.StatusInternalServerError:
		log.Printf("[Internal Error]: %v", err)
	case http.StatusBadGateway:
		log.Printf("[Remote Error]: %v", err)
	}

	c.JSON(code, gin.H{"error": err.Error()})
}

// Data wraps payload in the {"data": ...} envelope.
func Data(c *gin.Context, code int, payload any) {
	c.JSON(code, gin.H{"data": payload})
}

func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"message": message})
}
