package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	itemdomain "github.com/invoicestudio/backend/internal/item/domain"
)

func (s *Server) ListItems(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	items, err := s.itemSvc.List(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) CreateItem(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req itemdomain.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	item, err := s.itemSvc.Create(c.Request.Context(), userID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *Server) GetItemByID(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := s.itemSvc.GetByID(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) UpdateItem(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req itemdomain.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	item, err := s.itemSvc.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) DeleteItem(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := s.itemSvc.Delete(c.Request.Context(), userID, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
