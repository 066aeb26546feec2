package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/smallbiznis/facture/internal/orgcontext"
)

const orgHeader = "X-Org-ID"

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// OrgContext resolves the active organization from the request header,
// falling back to the configured default. Requests without a resolvable
// organization are rejected before they reach a handler.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(orgHeader))

		var orgID int64
		switch {
		case raw != "":
			parsed, err := snowflake.ParseString(raw)
			if err != nil || parsed == 0 {
				AbortWithError(c, ErrUnauthorized)
				return
			}
			orgID = parsed.Int64()
		case s.cfg.DefaultOrgID != 0:
			orgID = s.cfg.DefaultOrgID
		default:
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := orgcontext.WithOrgID(c.Request.Context(), orgID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
