package snapshot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckcosting/internal/models"
)

func rawStrings(records []json.RawMessage) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = string(r)
	}
	return out
}

func TestNormalizeListPassesThrough(t *testing.T) {
	snap, err := Normalize([]byte(`[{"dn_no":"1"},{"dn_no":"2"},{"dn_no":"3"}]`))
	require.NoError(t, err)

	assert.Equal(t, ShapeList, snap.Shape)
	assert.Equal(t, []string{`{"dn_no":"1"}`, `{"dn_no":"2"}`, `{"dn_no":"3"}`}, rawStrings(snap.Records))
}

func TestNormalizeEmptyList(t *testing.T) {
	snap, err := Normalize([]byte(` [] `))
	require.NoError(t, err)
	assert.Equal(t, ShapeList, snap.Shape)
	assert.Empty(t, snap.Records)
	assert.NotNil(t, snap.Records)
}

func TestNormalizeKeyedMapKeepsDocumentOrder(t *testing.T) {
	// keys deliberately out of lexical order
	snap, err := Normalize([]byte(`{"b":{"dn_no":"r1"},"a":{"dn_no":"r2"}}`))
	require.NoError(t, err)

	assert.Equal(t, ShapeMap, snap.Shape)
	assert.Equal(t, []string{`{"dn_no":"r1"}`, `{"dn_no":"r2"}`}, rawStrings(snap.Records))
}

func TestNormalizeKeyedMapDropsTombstones(t *testing.T) {
	snap, err := Normalize([]byte(`{"a":{"dn_no":"r1"},"b":null,"c":{"dn_no":"r3"},"d":0}`))
	require.NoError(t, err)

	assert.Equal(t, ShapeMap, snap.Shape)
	assert.Equal(t, []string{`{"dn_no":"r1"}`, `{"dn_no":"r3"}`}, rawStrings(snap.Records))
	assert.Equal(t, 2, snap.Dropped)

	snap, err = Normalize([]byte(`{"a":{"dn_no":"r1"},"b":null}`))
	require.NoError(t, err)
	assert.Equal(t, ShapeMap, snap.Shape)
	assert.Len(t, snap.Records, 1)

	snap, err = Normalize([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, ShapeMap, snap.Shape)
	assert.Empty(t, snap.Records)
}

func TestNormalizeRecordWithNestedObjectStaysRecord(t *testing.T) {
	snap, err := Normalize([]byte(`{"dn_no":"DN-1","qty":5,"saved_requirements":{"pallets":2},"supplier":null}`))
	require.NoError(t, err)
	assert.Equal(t, ShapeRecord, snap.Shape)
	assert.Empty(t, snap.Records)
}

func TestNormalizeSingleRecordYieldsEmpty(t *testing.T) {
	snap, err := Normalize([]byte(`{"dn_no":"DN-1","final_cost":150}`))
	require.NoError(t, err)
	assert.Equal(t, ShapeRecord, snap.Shape)
	assert.Empty(t, snap.Records)
}

func TestNormalizeScalarYieldsEmpty(t *testing.T) {
	for _, payload := range []string{`null`, `42`, `"text"`, `true`} {
		snap, err := Normalize([]byte(payload))
		require.NoError(t, err, payload)
		assert.Equal(t, ShapeScalar, snap.Shape, payload)
		assert.Empty(t, snap.Records, payload)
	}
}

func TestNormalizeMalformed(t *testing.T) {
	for _, payload := range []string{``, `{"dn_no":`, `[1,2`, `not json`} {
		_, err := Normalize([]byte(payload))
		assert.ErrorIs(t, err, ErrMalformed, payload)
	}
}

func TestDecodeSkipsRecordsThatDoNotFit(t *testing.T) {
	snap, err := Normalize([]byte(`[{"dn_no":"DN-1","qty":5},"junk",{"dn_no":"DN-2","qty":"many"},{"dn_no":"DN-3"}]`))
	require.NoError(t, err)

	orders, skipped := Decode[models.InboundOrder](snap.Records)
	assert.Equal(t, 2, skipped)
	require.Len(t, orders, 2)
	assert.Equal(t, "DN-1", orders[0].DNNo)
	assert.Equal(t, "DN-3", orders[1].DNNo)
}

func TestDecodeToleratesLooseTyping(t *testing.T) {
	snap, err := Normalize([]byte(`[{"dn_no":1,"qty":10},{"dn_no":"DN-2","qty":"5"},{"dn_no":"DN-3","qty":7}]`))
	require.NoError(t, err)

	orders, skipped := Decode[models.InboundOrder](snap.Records)
	assert.Zero(t, skipped)
	require.Len(t, orders, 3)
	assert.Equal(t, "1", orders[0].DNNo)
	assert.Equal(t, 10.0, orders[0].Qty)
	assert.Equal(t, 5.0, orders[1].Qty)
	assert.Equal(t, "DN-3", orders[2].DNNo)

	snap, err = Normalize([]byte(`[
		{"dn_no":"DN-10","final_cost":"","approved_at":"2025-12-01T10:00:00","supplier":"A"},
		{"dn_no":"DN-11","final_cost":"99.5","approved_at":1764756000000,"supplier":"A"},
		{"dn_no":"DN-12","final_cost":null,"approved_at":null,"supplier":"B"}
	]`))
	require.NoError(t, err)

	history, skipped := Decode[models.HistoryRecord](snap.Records)
	assert.Zero(t, skipped)
	require.Len(t, history, 3)
	assert.True(t, history[0].FinalCost.IsZero())
	assert.Equal(t, "99.5", history[1].FinalCost.String())
	assert.Equal(t, "1764756000000", history[1].ApprovedAt)
	assert.Empty(t, history[2].ApprovedAt)
	assert.Equal(t, "99.5", history[1].Raw["final_cost"])

	snap, err = Normalize([]byte(`[{"dn_no":"DN-1","basic_cost":"","vas_cost":"12","total_cost":12}]`))
	require.NoError(t, err)
	items, skipped := Decode[models.ApprovalItem](snap.Records)
	assert.Zero(t, skipped)
	require.Len(t, items, 1)
	assert.True(t, items[0].BasicCost.IsZero())
	assert.Equal(t, "12", items[0].VASCost.String())
	assert.Equal(t, "12", items[0].TotalCost.String())

	snap, err = Normalize([]byte(`[{"dn_no":42,"activity":"Repacking","qty":"3","operator":"op","timestamp":1764756000000}]`))
	require.NoError(t, err)
	activities, skipped := Decode[models.WarehouseActivity](snap.Records)
	assert.Zero(t, skipped)
	require.Len(t, activities, 1)
	assert.Equal(t, "42", activities[0].DNNo)
	assert.Equal(t, 3.0, activities[0].Qty)
	assert.Equal(t, "1764756000000", activities[0].Timestamp)
}

func TestDecodeKeepsRawFields(t *testing.T) {
	snap, err := Normalize([]byte(`[{"dn_no":"DN-9","supplier":"A","totalCost":12.5}]`))
	require.NoError(t, err)

	items, skipped := Decode[models.ApprovalItem](snap.Records)
	require.Zero(t, skipped)
	require.Len(t, items, 1)
	assert.Equal(t, 12.5, items[0].Raw["totalCost"])
}

func TestWithoutSentinel(t *testing.T) {
	snap, err := Normalize([]byte(`[
		{"dn_no":"DN-1","activity":"Placeholder","timestamp":"t0"},
		{"dn_no":"DN-1","activity":"Activity 1","timestamp":"t1"},
		{"dn_no":"DN-2","activity":"Activity 2","timestamp":"t2"}
	]`))
	require.NoError(t, err)

	activities, _ := Decode[models.WarehouseActivity](snap.Records)
	filtered := WithoutSentinel(activities, "Placeholder")

	require.Len(t, filtered, 2)
	assert.Equal(t, "t1", filtered[0].Timestamp)
	assert.Equal(t, "t2", filtered[1].Timestamp)
}
