package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	emaildomain "github.com/invoicestudio/backend/internal/email/domain"
)

func (s *Server) GetEmailDraft(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	draft, err := s.emailSvc.BuildDraft(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoiceId": id, "draft": draft})
}

func (s *Server) SendInvoiceEmail(c *gin.Context) {
	s.sendEmail(c, false)
}

// SendCustomInvoiceEmail requires an explicit subject and body; everything
// else behaves like the default send and the invoice itself is untouched.
func (s *Server) SendCustomInvoiceEmail(c *gin.Context) {
	s.sendEmail(c, true)
}

func (s *Server) sendEmail(c *gin.Context, custom bool) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req emaildomain.SendRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
	}
	if custom && (req.Subject == "" || req.BodyText == "") {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	entry, err := s.emailSvc.Send(c.Request.Context(), userID, id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"messageId": entry.ProviderMessageID,
		"accepted":  entry.Accepted,
		"rejected":  entry.Rejected,
		"log":       entry,
	})
}

func (s *Server) GetInvoiceEmailHistory(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	logs, err := s.emailSvc.History(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (s *Server) GetEmailOutbox(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	logs, err := s.emailSvc.Outbox(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
