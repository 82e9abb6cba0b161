package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/invoicestudio/backend/internal/invoice/domain"
	"github.com/invoicestudio/backend/internal/providers/pdf"
	"github.com/invoicestudio/backend/internal/render"
)

// GeneratePDF streams the invoice as application/pdf. An optional template
// query switches the stored template first, through the normal update guard,
// so the choice survives and a paid invoice still refuses the change.
func (s *Server) GeneratePDF(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if key := strings.TrimSpace(c.Query("template")); key != "" {
		if !pdf.IsKnownTemplate(key) {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		if _, err := s.invoiceSvc.Update(c.Request.Context(), userID, id, invoicedomain.UpdateInvoiceRequest{
			TemplateKey: &key,
		}); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	code, rate, err := s.resolveRate(c, c.Query("currency"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	mat, err := s.invoiceSvc.Materialize(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	contract := render.BuildContract(mat.Invoice, mat.Client, mat.Items, mat.Owner, code, rate)
	data, err := s.pdfRenderer.RenderInvoice(c.Request.Context(), contract)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", "invoice-"+mat.Invoice.InvoiceNumber+".pdf"))
	c.Data(http.StatusOK, "application/pdf", data)
}

// ListTemplates exposes the selectable template keys.
func (s *Server) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": pdf.TemplateKeys()})
}
