package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/invoicestudio/backend/internal/usercontext"
)

const contextUserIDKey = "user_id"

// AuthRequired resolves the acting account from a bearer token and threads it
// through both the gin context and the request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if header == "" || token == "" || token == header {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		userID, err := s.tokens.VerifyToken(token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserIDKey, userID)
		c.Request = c.Request.WithContext(usercontext.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

func currentUserID(c *gin.Context) (snowflake.ID, bool) {
	v, ok := c.Get(contextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(snowflake.ID)
	return id, ok
}

// requireUserID is used inside handlers behind AuthRequired; a missing id
// there means the route was wired without the middleware.
func requireUserID(c *gin.Context) (snowflake.ID, bool) {
	id, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return 0, false
	}
	return id, true
}

func parseIDParam(c *gin.Context, name string) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(c.Param(name))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return 0, false
	}
	return id, true
}
