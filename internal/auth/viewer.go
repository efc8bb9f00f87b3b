package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const viewerKey = "viewer"

// Viewer is the identity a request or session acts for. The zero value is an
// anonymous viewer. It is established by the auth middleware and passed
// explicitly into every operation that needs it.
type Viewer struct {
	UserID uuid.UUID
}

// Anonymous is the viewer of a request without a valid token.
var Anonymous = Viewer{}

func NewViewer(userID uuid.UUID) Viewer {
	return Viewer{UserID: userID}
}

func (v Viewer) Authenticated() bool {
	return v.UserID != uuid.Nil
}

// SetViewer stores the viewer on the request scope.
func SetViewer(c *gin.Context, v Viewer) {
	c.Set(viewerKey, v)
}

// GetViewer returns the request's viewer, Anonymous when none was set.
func GetViewer(c *gin.Context) Viewer {
	if temp, exists := c.Get(viewerKey); exists {
		if v, ok := temp.(Viewer); ok {
			return v
		}
	}
	return Anonymous
}
