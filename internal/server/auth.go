package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	userdomain "github.com/invoicestudio/backend/internal/user/domain"
)

type authResponse struct {
	Token string          `json:"token"`
	User  userdomain.User `json:"user"`
}

func (s *Server) Register(c *gin.Context) {
	var req userdomain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	user, err := s.userSvc.Register(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	token, err := s.tokens.IssueToken(user.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, authResponse{Token: token, User: user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	user, err := s.userSvc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	token, err := s.tokens.IssueToken(user.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

func (s *Server) Me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	user, err := s.userSvc.GetByID(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) UpdateProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req userdomain.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	user, err := s.userSvc.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
