package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/muhammadNahidul/social-media-API/internal/middleware"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUserID extracts the authenticated user id placed in context by the
// auth middleware. Empty means the request is anonymous.
func currentUserID(c *gin.Context) string {
	v, ok := c.Get(middleware.CtxUserIDKey)
	if !ok {
		return ""
	}
	userID, _ := v.(string)
	return userID
}

func currentSessionID(c *gin.Context) string {
	v, ok := c.Get(middleware.CtxSessionIDKey)
	if !ok {
		return ""
	}
	sessionID, _ := v.(string)
	return sessionID
}
