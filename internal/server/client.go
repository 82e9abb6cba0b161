package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	clientdomain "github.com/invoicestudio/backend/internal/client/domain"
)

func (s *Server) ListClients(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	clients, err := s.clientSvc.List(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

func (s *Server) CreateClient(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req clientdomain.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	client, err := s.clientSvc.Create(c.Request.Context(), userID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

func (s *Server) GetClientByID(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	client, err := s.clientSvc.GetByID(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (s *Server) UpdateClient(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req clientdomain.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	client, err := s.clientSvc.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (s *Server) DeleteClient(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := s.clientSvc.Delete(c.Request.Context(), userID, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
