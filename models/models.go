package models

import "github.com/shopspring/decimal"

func init() {
	// amounts go over the wire as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

// All lists every persisted model in parent -> child migration order.
func All() []interface{} {
	return []interface{}{
		&Admin{},
		&SequenceCounter{},
		&Room{},
		&Guest{},
		&TravelAgent{},
		&Reservation{},
		&GuestExpense{},
		&Invoice{},
		&InvoiceLine{},
		&InvoicePayment{},
	}
}
