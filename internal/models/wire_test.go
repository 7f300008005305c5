package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInboundOrderReadsNumericFields(t *testing.T) {
	var o InboundOrder
	require.NoError(t, json.Unmarshal([]byte(`{"dn_no":1001,"qty":" 2.5 ","status":"NEW","material":"M1"}`), &o))
	assert.Equal(t, "1001", o.DNNo)
	assert.Equal(t, 2.5, o.Qty)
	assert.Equal(t, "M1", o.Material)
	assert.True(t, o.IsNew())

	require.NoError(t, json.Unmarshal([]byte(`{"dn_no":"DN-1","qty":""}`), &o))
	assert.Zero(t, o.Qty)
}

func TestLooseFieldsStillRejectGarbage(t *testing.T) {
	var o InboundOrder
	assert.Error(t, json.Unmarshal([]byte(`{"dn_no":"DN-1","qty":"many"}`), &o))
	assert.Error(t, json.Unmarshal([]byte(`{"dn_no":{"id":1}}`), &o))

	var h HistoryRecord
	assert.Error(t, json.Unmarshal([]byte(`{"dn_no":"DN-1","final_cost":"n/a"}`), &h))
	assert.Error(t, json.Unmarshal([]byte(`{"dn_no":"DN-1","final_cost":true}`), &h))
}

func TestHistoryRecordEmptyCostIsZero(t *testing.T) {
	var h HistoryRecord
	require.NoError(t, json.Unmarshal([]byte(`{"dn_no":"DN-1","final_cost":"","approved_at":1764756000000,"supplier":"A"}`), &h))
	assert.True(t, h.FinalCost.IsZero())
	assert.Equal(t, "1764756000000", h.ApprovedAt)
	assert.Equal(t, "A", h.Supplier)

	out, err := json.Marshal(h)
	require.NoError(t, err)
	assert.JSONEq(t, `{"dn_no":"DN-1","final_cost":0,"approved_at":"1764756000000","supplier":"A"}`, string(out))
}
