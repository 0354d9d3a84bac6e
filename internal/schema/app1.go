package schema

const (
	TableUserAccount = "user_account"
	TableCreditCard  = "credit_card"
	TableAddOn       = "add_on"
	TablePurchase    = "purchase"
)

// App1 declares the account / card / add-on / purchase schema.
func App1() *Schema {
	return Declare("app1")
}

// Declare builds the four-table schema under the given name. The name labels
// diagrams only; table names are the same for every name.
func Declare(name string) *Schema {
	s := New(name)

	s.MustAdd(&Table{
		Name:  TableUserAccount,
		Class: "UserAccount",
		Tier:  Manual,
		Columns: []Column{
			{Name: "phone", Type: BigInt, Unsigned: true},
			{Name: "first_name", Type: Varchar, Size: 40},
			{Name: "last_name", Type: Varchar, Size: 40},
		},
		PrimaryKey: []string{"phone"},
	})

	s.MustAdd(&Table{
		Name:  TableCreditCard,
		Class: "CreditCard",
		Tier:  Manual,
		Columns: []Column{
			{Name: "card_number", Type: BigInt, Unsigned: true},
			{Name: "exp_date", Type: Date},
			{Name: "cvc", Type: SmallInt, Unsigned: true},
			{Name: "zipcode", Type: Int, Unsigned: true},
			{Name: "phone", Type: BigInt, Unsigned: true},
		},
		PrimaryKey: []string{"card_number"},
		ForeignKeys: []ForeignKey{
			{Columns: []string{"phone"}, RefTable: TableUserAccount, RefColumns: []string{"phone"}},
		},
	})

	addOnRows := make([][]any, 0, 3)
	for _, a := range AddOnContents() {
		addOnRows = append(addOnRows, a.Values())
	}
	s.MustAdd(&Table{
		Name:  TableAddOn,
		Class: "AddOn",
		Tier:  Lookup,
		Columns: []Column{
			{Name: "addon_id", Type: Int},
			{Name: "addon_name", Type: Varchar, Size: 40},
			{Name: "price", Type: Decimal, Size: 5, Scale: 2, Unsigned: true},
		},
		PrimaryKey: []string{"addon_id"},
		Contents:   addOnRows,
	})

	s.MustAdd(&Table{
		Name:  TablePurchase,
		Class: "Purchase",
		Tier:  Manual,
		Columns: []Column{
			{Name: "phone", Type: BigInt, Unsigned: true},
			{Name: "addon_id", Type: Int},
			{Name: "card_number", Type: BigInt, Unsigned: true},
		},
		PrimaryKey: []string{"phone", "addon_id"},
		ForeignKeys: []ForeignKey{
			{Columns: []string{"phone"}, RefTable: TableUserAccount, RefColumns: []string{"phone"}},
			{Columns: []string{"addon_id"}, RefTable: TableAddOn, RefColumns: []string{"addon_id"}},
			{Columns: []string{"card_number"}, RefTable: TableCreditCard, RefColumns: []string{"card_number"}},
		},
	})

	return s
}
