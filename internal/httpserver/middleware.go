package httpserver

import (
	"context"
	"log"
	"strings"

	"biomarket/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ctxKey string

const (
	principalCtxKey ctxKey = "principal"
	requestIDHeader        = "X-Request-ID"
)

// requestIDMiddleware echoes the caller's X-Request-ID or assigns a new one.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// principalMiddleware resolves the bearer token, if any, and stores the
// principal on the request context. Requests without a token continue as
// anonymous; a token that does not verify is rejected.
func principalMiddleware(tokens TokenParser, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.Next()
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			writeError(c, logger, domain.ErrUnauthenticated)
			c.Abort()
			return
		}
		p, err := tokens.Parse(token)
		if err != nil {
			writeError(c, logger, err)
			c.Abort()
			return
		}
		ctx := context.WithValue(c.Request.Context(), principalCtxKey, p)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// principal returns the caller, or the zero Principal for anonymous requests.
func principal(c *gin.Context) domain.Principal {
	p, _ := c.Request.Context().Value(principalCtxKey).(domain.Principal)
	return p
}
