// Package pdf renders invoices to PDF bytes with maroto. It consumes the
// display contract as-is and adds no arithmetic of its own.
package pdf

import (
	"context"
	"fmt"

	"github.com/invoicestudio/backend/internal/render"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Renderer interface {
	RenderInvoice(ctx context.Context, contract render.Contract) ([]byte, error)
}

type marotoRenderer struct {
	log *zap.Logger
}

func New(log *zap.Logger) Renderer {
	return &marotoRenderer{log: log.Named("pdf.renderer")}
}

var white = props.Color{Red: 255, Green: 255, Blue: 255}

func (r *marotoRenderer) RenderInvoice(ctx context.Context, contract render.Contract) ([]byte, error) {
	theme := ThemeFor(contract.TemplateKey)

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	// Header: an accent bar for themes that carry one, plain heading otherwise.
	heading := props.Text{
		Size:  theme.HeadingSize,
		Style: fontstyle.Bold,
		Align: align.Left,
		Color: &theme.Accent,
	}
	if theme.HeaderBar {
		heading.Color = &white
		m.AddRow(14, text.NewCol(12, "INVOICE", heading)).
			WithStyle(&props.Cell{BackgroundColor: &theme.Accent})
	} else {
		m.AddRow(14, text.NewCol(12, "INVOICE", heading))
	}

	m.AddRow(18,
		col.New(6).Add(
			text.New(contract.Company.Name, props.Text{Style: fontstyle.Bold, Size: 11}),
			text.New(contract.Company.Address, props.Text{Top: 5, Size: 9, Color: &theme.Muted}),
			text.New(contract.Company.Email, props.Text{Top: 9, Size: 9, Color: &theme.Muted}),
		),
		col.New(6).Add(
			text.New("Invoice #: "+contract.InvoiceNumber, props.Text{Align: align.Right, Size: 10}),
			text.New("Issue date: "+contract.IssueDate.Format("02 Jan 2006"), props.Text{Top: 5, Align: align.Right, Size: 9, Color: &theme.Muted}),
			text.New("Due date: "+contract.DueDate.Format("02 Jan 2006"), props.Text{Top: 9, Align: align.Right, Size: 9, Color: &theme.Muted}),
		),
	)

	m.AddRow(22,
		col.New(12).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold, Size: 9, Color: &theme.Accent}),
			text.New(contract.BillTo.Name, props.Text{Top: 4, Size: 10}),
			text.New(contract.BillTo.Address, props.Text{Top: 9, Size: 9, Color: &theme.Muted}),
			text.New(contract.BillTo.Email, props.Text{Top: 13, Size: 9, Color: &theme.Muted}),
		),
	)

	// Items table.
	m.AddRow(8,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Quantity", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Rate", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, item := range contract.Items {
		m.AddRow(7,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%g", item.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPriceFormatted, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.AmountFormatted, props.Text{Size: 9, Align: align.Right}),
		)
	}

	// Summary block, in the contract's order. The final line is the total.
	for i, l := range contract.Summary {
		style := props.Text{Size: 9, Align: align.Right}
		if i == len(contract.Summary)-1 {
			style = props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Right, Color: &theme.Accent}
		}
		m.AddRow(7,
			col.New(6),
			text.NewCol(4, l.Label, style),
			text.NewCol(2, l.Formatted, style),
		)
	}
	if contract.Paid != nil {
		m.AddRow(7,
			col.New(6),
			text.NewCol(4, contract.Paid.Label, props.Text{Size: 9, Align: align.Right, Color: &theme.Muted}),
			text.NewCol(2, contract.Paid.Formatted, props.Text{Size: 9, Align: align.Right, Color: &theme.Muted}),
		)
	}

	for _, section := range []struct{ title, body string }{
		{"Notes", contract.Notes},
		{"Payment instructions", contract.PaymentInstructions},
		{"Terms & conditions", contract.TermsAndConditions},
	} {
		if section.body == "" {
			continue
		}
		m.AddRow(14,
			col.New(12).Add(
				text.New(section.title, props.Text{Style: fontstyle.Bold, Size: 9, Color: &theme.Accent}),
				text.New(section.body, props.Text{Top: 4, Size: 9, Color: &theme.Muted}),
			),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		r.log.Error("pdf generation failed", zap.String("invoice", contract.InvoiceNumber), zap.Error(err))
		return nil, err
	}
	return doc.GetBytes(), nil
}

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)
