package render

import (
	"testing"
	"time"

	clientdomain "github.com/invoicestudio/backend/internal/client/domain"
	invoicedomain "github.com/invoicestudio/backend/internal/invoice/domain"
	itemdomain "github.com/invoicestudio/backend/internal/item/domain"
	userdomain "github.com/invoicestudio/backend/internal/user/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func snapshotOf(name string, rate float64) datatypes.JSONType[*invoicedomain.TaxSnapshot] {
	return datatypes.NewJSONType(&invoicedomain.TaxSnapshot{Name: name, Rate: rate})
}

func baseInvoice() invoicedomain.Invoice {
	return invoicedomain.Invoice{
		InvoiceNumber:     "INV-042",
		IssueDate:         time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:           time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:            "draft",
		TemplateKey:       "classic",
		Subtotal:          1000,
		Discount:          100,
		TaxTotal:          162,
		AdditionalCharges: 50,
		Total:             1112,
		TaxSnapshot:       snapshotOf("GST", 18),
	}
}

func TestBuildContract_SummaryOrder(t *testing.T) {
	c := BuildContract(baseInvoice(), clientdomain.Client{Name: "Acme"}, nil, userdomain.User{Name: "Asha"}, "INR", 1)

	labels := make([]string, 0, len(c.Summary))
	for _, l := range c.Summary {
		labels = append(labels, l.Label)
	}
	assert.Equal(t, []string{"Subtotal", "Discount", "Taxable amount", "GST (18%)", "Additional charges", "Total"}, labels)
	assert.Equal(t, 900.0, c.Summary[2].Amount)
	assert.Equal(t, 1112.0, c.Summary[5].Amount)
}

func TestBuildContract_ZeroRowsOmitted(t *testing.T) {
	inv := baseInvoice()
	inv.Discount = 0
	inv.AdditionalCharges = 0
	inv.TaxTotal = 0
	inv.TaxSnapshot = datatypes.NewJSONType[*invoicedomain.TaxSnapshot](nil)

	c := BuildContract(inv, clientdomain.Client{}, nil, userdomain.User{}, "INR", 1)

	labels := make([]string, 0, len(c.Summary))
	for _, l := range c.Summary {
		labels = append(labels, l.Label)
	}
	assert.Equal(t, []string{"Subtotal", "Taxable amount", "Total"}, labels)
}

func TestBuildContract_IndependentConversion(t *testing.T) {
	// A manual total that does not equal the component sum must convert from
	// the stored total, never from the converted components.
	inv := baseInvoice()
	inv.Total = 777

	c := BuildContract(inv, clientdomain.Client{}, nil, userdomain.User{}, "USD", 0.5)

	assert.Equal(t, 500.0, c.Summary[0].Amount)  // subtotal
	assert.Equal(t, 50.0, c.Summary[1].Amount)   // discount
	assert.Equal(t, 450.0, c.Summary[2].Amount)  // taxable
	assert.Equal(t, 81.0, c.Summary[3].Amount)   // tax
	assert.Equal(t, 25.0, c.Summary[4].Amount)   // charges
	assert.Equal(t, 388.5, c.Summary[5].Amount)  // total, stored 777 * 0.5
	assert.Equal(t, "USD", c.CurrencyCode)
}

func TestBuildContract_ItemRows(t *testing.T) {
	items := []itemdomain.Item{
		{Description: "Design", Quantity: 2, Price: 300},
		{Description: "Hosting", Quantity: 1, Price: 400},
	}

	c := BuildContract(baseInvoice(), clientdomain.Client{}, items, userdomain.User{}, "INR", 1)

	require.Len(t, c.Items, 2)
	assert.Equal(t, 600.0, c.Items[0].Amount)
	assert.Equal(t, 300.0, c.Items[0].UnitPrice)
	assert.Equal(t, 400.0, c.Items[1].Amount)
}

func TestBuildContract_PaidLine(t *testing.T) {
	inv := baseInvoice()
	c := BuildContract(inv, clientdomain.Client{}, nil, userdomain.User{}, "INR", 1)
	assert.Nil(t, c.Paid)

	inv.Status = "paid"
	inv.PaidAmount = 1112
	c = BuildContract(inv, clientdomain.Client{}, nil, userdomain.User{}, "INR", 1)
	require.NotNil(t, c.Paid)
	assert.Equal(t, "Paid", c.Paid.Label)
	assert.Equal(t, 1112.0, c.Paid.Amount)
}

func TestBuildContract_CompanyFallsBackToUserName(t *testing.T) {
	c := BuildContract(baseInvoice(), clientdomain.Client{}, nil, userdomain.User{Name: "Asha"}, "INR", 1)
	assert.Equal(t, "Asha", c.Company.Name)

	c = BuildContract(baseInvoice(), clientdomain.Client{}, nil, userdomain.User{Name: "Asha", CompanyName: "Asha Studio"}, "INR", 1)
	assert.Equal(t, "Asha Studio", c.Company.Name)
}
