package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is a typed row whose Values line up with its table's columns.
type Record interface {
	Values() []any
}

type UserAccount struct {
	Phone     int64
	FirstName string
	LastName  string
}

func (u UserAccount) Values() []any {
	return []any{u.Phone, u.FirstName, u.LastName}
}

type CreditCard struct {
	CardNumber int64
	ExpDate    time.Time
	CVC        int
	Zipcode    int
	Phone      int64
}

func (c CreditCard) Values() []any {
	return []any{c.CardNumber, c.ExpDate, c.CVC, c.Zipcode, c.Phone}
}

type AddOn struct {
	ID    int
	Name  string
	Price decimal.Decimal
}

func (a AddOn) Values() []any {
	return []any{a.ID, a.Name, a.Price}
}

type Purchase struct {
	Phone      int64
	AddOnID    int
	CardNumber int64
}

func (p Purchase) Values() []any {
	return []any{p.Phone, p.AddOnID, p.CardNumber}
}

// AddOnContents is the fixed content of the add_on lookup table.
func AddOnContents() []AddOn {
	return []AddOn{
		{ID: 1, Name: "Track & Field", Price: decimal.RequireFromString("13.99")},
		{ID: 2, Name: "Marathon", Price: decimal.RequireFromString("26.20")},
		{ID: 3, Name: "Sprint", Price: decimal.RequireFromString("100.00")},
	}
}

func Rows[R Record](records []R) [][]any {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = r.Values()
	}
	return rows
}
