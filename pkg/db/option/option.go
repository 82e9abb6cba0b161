// Package option provides composable query modifiers for the generic store.
package option

import "gorm.io/gorm"

type Operator string

const (
	EQ  Operator = "="
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func (c Condition) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(c.Field+" "+string(c.Operator)+" ?", c.Value)
}

func ApplyOperator(c Condition) QueryOption { return c }

type orderBy struct {
	expr string
}

func (o orderBy) Apply(db *gorm.DB) *gorm.DB { return db.Order(o.expr) }

// WithOrder sorts results by a raw order expression, e.g. "created_at DESC".
func WithOrder(expr string) QueryOption { return orderBy{expr: expr} }

type limit struct {
	n int
}

func (l limit) Apply(db *gorm.DB) *gorm.DB { return db.Limit(l.n) }

func WithLimit(n int) QueryOption { return limit{n: n} }
