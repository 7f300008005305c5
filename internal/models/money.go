package models

import "github.com/shopspring/decimal"

func init() {
	// The rules backend reads costs as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}
