package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderUserID carries the caller identity injected by the fronting auth layer.
const HeaderUserID = "X-User-ID"

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

// currentUserID extracts the trusted caller identity from the request headers.
func currentUserID(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return ""
	}
	return strings.TrimSpace(c.Request.Header.Get(HeaderUserID))
}
