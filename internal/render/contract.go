// Package render builds the display contract shared by the PDF renderer and
// summary JSON responses. Every amount on the contract is converted from the
// stored figure independently; nothing is re-derived from other converted
// values, so rounding differences can never compound across lines.
package render

import (
	"fmt"
	"time"

	clientdomain "github.com/invoicestudio/backend/internal/client/domain"
	"github.com/invoicestudio/backend/internal/currency"
	invoicedomain "github.com/invoicestudio/backend/internal/invoice/domain"
	"github.com/invoicestudio/backend/internal/invoice/lifecycle"
	"github.com/invoicestudio/backend/internal/invoice/money"
	itemdomain "github.com/invoicestudio/backend/internal/item/domain"
	userdomain "github.com/invoicestudio/backend/internal/user/domain"
)

// Line is one row of the summary block.
type Line struct {
	Label     string  `json:"label"`
	Amount    float64 `json:"amount"`
	Formatted string  `json:"formatted"`
}

// ItemRow is one resolved catalog line.
type ItemRow struct {
	Description        string  `json:"description"`
	Quantity           float64 `json:"quantity"`
	UnitPrice          float64 `json:"unitPrice"`
	UnitPriceFormatted string  `json:"unitPriceFormatted"`
	Amount             float64 `json:"amount"`
	AmountFormatted    string  `json:"amountFormatted"`
}

// Party is one side of the invoice header.
type Party struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	TaxID   string `json:"taxId"`
	Logo    string `json:"logo,omitempty"`
}

// Contract is the full display shape for one invoice in one display currency.
type Contract struct {
	InvoiceNumber string    `json:"invoiceNumber"`
	IssueDate     time.Time `json:"issueDate"`
	DueDate       time.Time `json:"dueDate"`
	Status        string    `json:"status"`
	TemplateKey   string    `json:"templateKey"`

	CurrencyCode string  `json:"currencyCode"`
	Rate         float64 `json:"rate"`

	Company Party `json:"company"`
	BillTo  Party `json:"billTo"`

	Items   []ItemRow `json:"items"`
	Summary []Line    `json:"summary"`
	Paid    *Line     `json:"paid,omitempty"`

	Notes               string `json:"notes,omitempty"`
	PaymentInstructions string `json:"paymentInstructions,omitempty"`
	TermsAndConditions  string `json:"termsAndConditions,omitempty"`
}

// BuildContract assembles the display contract. code is the display currency
// and rate the INR->code multiplier already resolved by the caller.
func BuildContract(
	inv invoicedomain.Invoice,
	client clientdomain.Client,
	items []itemdomain.Item,
	owner userdomain.User,
	code string,
	rate float64,
) Contract {
	code = currency.NormalizeCode(code)
	line := func(label string, stored float64) Line {
		converted := currency.Convert(stored, rate)
		return Line{Label: label, Amount: converted, Formatted: currency.Format(converted, code)}
	}

	rows := make([]ItemRow, 0, len(items))
	for _, item := range items {
		unit := currency.Convert(item.Price, rate)
		amount := currency.Convert(item.Quantity*item.Price, rate)
		rows = append(rows, ItemRow{
			Description:        item.Description,
			Quantity:           item.Quantity,
			UnitPrice:          unit,
			UnitPriceFormatted: currency.Format(unit, code),
			Amount:             amount,
			AmountFormatted:    currency.Format(amount, code),
		})
	}

	// Summary block order is fixed: subtotal, discount, taxable, tax,
	// additional charges, grand total. Zero discount and zero charges are
	// omitted entirely rather than rendered as zero rows.
	summary := []Line{line("Subtotal", inv.Subtotal)}
	if inv.Discount > 0 {
		summary = append(summary, line("Discount", inv.Discount))
	}
	summary = append(summary, line("Taxable amount", money.TaxableAmount(inv.Subtotal, inv.Discount)))

	snapshot := inv.Snapshot()
	if inv.TaxTotal > 0 || snapshot != nil {
		summary = append(summary, line(taxLabel(snapshot), inv.TaxTotal))
	}
	if inv.AdditionalCharges > 0 {
		summary = append(summary, line("Additional charges", inv.AdditionalCharges))
	}
	summary = append(summary, line("Total", inv.Total))

	contract := Contract{
		InvoiceNumber: inv.InvoiceNumber,
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		Status:        lifecycle.NormalizeStatus(inv.Status),
		TemplateKey:   inv.TemplateKey,
		CurrencyCode:  code,
		Rate:          rate,
		Company: Party{
			Name:    companyName(owner),
			Address: owner.CompanyAddress,
			Email:   owner.CompanyEmail,
			Phone:   owner.CompanyPhone,
			TaxID:   owner.CompanyTaxID,
			Logo:    owner.CompanyLogo,
		},
		BillTo: Party{
			Name:    client.Name,
			Address: client.Address,
			Email:   client.Email,
			Phone:   client.Phone,
			TaxID:   client.TaxID,
		},
		Items:               rows,
		Summary:             summary,
		Notes:               inv.Notes,
		PaymentInstructions: inv.PaymentInstructions,
		TermsAndConditions:  inv.TermsAndConditions,
	}

	if lifecycle.IsPaid(inv.Status) && inv.PaidAmount > 0 {
		paid := line("Paid", inv.PaidAmount)
		contract.Paid = &paid
	}
	return contract
}

// taxLabel names the tax line from the snapshot; invoices taxed without a
// snapshot fall back to a bare "Tax".
func taxLabel(snapshot *invoicedomain.TaxSnapshot) string {
	name := "Tax"
	if snapshot != nil && snapshot.Name != "" {
		name = snapshot.Name
	}
	if snapshot != nil && snapshot.Rate > 0 {
		return fmt.Sprintf("%s (%g%%)", name, snapshot.Rate)
	}
	return name
}

func companyName(owner userdomain.User) string {
	if owner.CompanyName != "" {
		return owner.CompanyName
	}
	return owner.Name
}
