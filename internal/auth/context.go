package auth

import "github.com/gin-gonic/gin"

// Actor is the authenticated identity extracted from the request context.
type Actor struct {
	UserID      string
	Username    string
	Role        string
	HallID      string
	IsSiteAdmin bool
}

// GetActor returns the authenticated actor, or a zero Actor for anonymous requests.
func GetActor(c *gin.Context) Actor {
	return Actor{
		UserID:      getString(c, "userID"),
		Username:    getString(c, "username"),
		Role:        getString(c, "role"),
		HallID:      getString(c, "hallID"),
		IsSiteAdmin: getBool(c, "isSiteAdmin"),
	}
}

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return getString(c, "userID")
}

func getString(c *gin.Context, key string) string {
	if v, ok := c.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getBool(c *gin.Context, key string) bool {
	if v, ok := c.Get(key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}
