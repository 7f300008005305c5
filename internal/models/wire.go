package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Upstream publishers are loosely typed: identifiers arrive as numbers,
// quantities as strings, empty costs as "". The types below read either
// form so one variance does not cost the whole record.

// flexString accepts a JSON string or number; numbers keep their literal text.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*s = ""
	case b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		*s = flexString(b)
	default:
		return fmt.Errorf("expected string or number, got %s", b)
	}
	return nil
}

// flexFloat accepts a JSON number or a numeric string. null and "" read as 0.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	text, err := numericText(b)
	if err != nil {
		return err
	}
	if text == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", text)
	}
	*f = flexFloat(v)
	return nil
}

// flexDecimal accepts a JSON number or a numeric string. null and "" read as zero.
type flexDecimal decimal.Decimal

func (d *flexDecimal) UnmarshalJSON(b []byte) error {
	text, err := numericText(b)
	if err != nil {
		return err
	}
	if text == "" {
		*d = flexDecimal(decimal.Zero)
		return nil
	}
	v, err := decimal.NewFromString(text)
	if err != nil {
		return fmt.Errorf("invalid amount %q", text)
	}
	*d = flexDecimal(v)
	return nil
}

// numericText returns the number a JSON value spells, "" for null or blank.
func numericText(b []byte) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return "", nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return "", err
		}
		return strings.TrimSpace(v), nil
	}
	if b[0] == '-' || (b[0] >= '0' && b[0] <= '9') {
		return string(b), nil
	}
	return "", fmt.Errorf("expected number, got %s", b)
}

func (o *InboundOrder) UnmarshalJSON(data []byte) error {
	type plain InboundOrder
	var aux struct {
		plain
		DNNo flexString `json:"dn_no"`
		Qty  flexFloat  `json:"qty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*o = InboundOrder(aux.plain)
	o.DNNo = string(aux.DNNo)
	o.Qty = float64(aux.Qty)
	return nil
}

func (a *ApprovalItem) UnmarshalJSON(data []byte) error {
	type plain ApprovalItem
	var aux struct {
		plain
		DNNo      flexString  `json:"dn_no"`
		BasicCost flexDecimal `json:"basic_cost"`
		VASCost   flexDecimal `json:"vas_cost"`
		TotalCost flexDecimal `json:"total_cost"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*a = ApprovalItem(aux.plain)
	a.DNNo = string(aux.DNNo)
	a.BasicCost = decimal.Decimal(aux.BasicCost)
	a.VASCost = decimal.Decimal(aux.VASCost)
	a.TotalCost = decimal.Decimal(aux.TotalCost)
	return nil
}

func (h *HistoryRecord) UnmarshalJSON(data []byte) error {
	type plain HistoryRecord
	var aux struct {
		plain
		DNNo       flexString  `json:"dn_no"`
		FinalCost  flexDecimal `json:"final_cost"`
		ApprovedAt flexString  `json:"approved_at"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*h = HistoryRecord(aux.plain)
	h.DNNo = string(aux.DNNo)
	h.FinalCost = decimal.Decimal(aux.FinalCost)
	h.ApprovedAt = string(aux.ApprovedAt)
	return nil
}

func (a *WarehouseActivity) UnmarshalJSON(data []byte) error {
	type plain WarehouseActivity
	var aux struct {
		plain
		DNNo      flexString `json:"dn_no"`
		Qty       flexFloat  `json:"qty"`
		Timestamp flexString `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*a = WarehouseActivity(aux.plain)
	a.DNNo = string(aux.DNNo)
	a.Qty = float64(aux.Qty)
	a.Timestamp = string(aux.Timestamp)
	return nil
}
