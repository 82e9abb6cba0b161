package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/invoicestudio/backend/internal/invoice/domain"
	"github.com/invoicestudio/backend/internal/invoice/lifecycle"
)

type invoiceView struct {
	invoicedomain.Invoice
	Lifecycle lifecycle.Classification `json:"lifecycle"`
}

func (s *Server) classify(inv invoicedomain.Invoice) invoiceView {
	return invoiceView{
		Invoice: inv,
		Lifecycle: lifecycle.Classify(
			inv.Status, inv.IssueDate, inv.DueDate,
			s.clock.Now(), lifecycle.DefaultOptions(),
		),
	}
}

func (s *Server) ListInvoices(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	invoices, err := s.invoiceSvc.List(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	views := make([]invoiceView, 0, len(invoices))
	for _, inv := range invoices {
		views = append(views, s.classify(inv))
	}
	c.JSON(http.StatusOK, gin.H{"invoices": views})
}

func (s *Server) CreateInvoice(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req invoicedomain.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	inv, err := s.invoiceSvc.Create(c.Request.Context(), userID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.classify(inv))
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	inv, err := s.invoiceSvc.GetByID(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.classify(inv))
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req invoicedomain.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	inv, err := s.invoiceSvc.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.classify(inv))
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := s.invoiceSvc.Delete(c.Request.Context(), userID, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) GetInvoiceHistory(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	inv, err := s.invoiceSvc.GetByID(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"version": inv.Version,
		"history": inv.History,
	})
}
