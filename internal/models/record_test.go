package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRecord = `{
	"id": 1,
	"ZB1_FILIAL": "01",
	"ZB1_CGCEMI": "11222333000181",
	"ZB1_DOC": "000123",
	"ZB1_EMIT": "TRANSPORTADORA ALADO",
	"ZB1_TOTVAL": 1532.90,
	"ZB1_DTLIB": "2024-01-01",
	"ZB1_STATUS": "PENDENTE",
	"R_E_C_N_O_": 991
}`

func parseRecord(t *testing.T, data string) Record {
	t.Helper()
	var record Record
	require.NoError(t, json.Unmarshal([]byte(data), &record))
	return record
}

func TestRecordUnmarshal(t *testing.T) {
	record := parseRecord(t, sampleRecord)

	assert.Equal(t, int64(1), record.ID)
	assert.Equal(t, "2024-01-01", record.Text(FieldDtLib))
	total, ok := record.Total()
	require.True(t, ok)
	assert.True(t, total.Equal(decimal.RequireFromString("1532.9")))
	raw, ok := record.Raw("R_E_C_N_O_")
	require.True(t, ok)
	assert.JSONEq(t, "991", string(raw))
}

func TestRecordMarshalWritesBackEverything(t *testing.T) {
	record := parseRecord(t, sampleRecord)

	data, err := json.Marshal(record)
	require.NoError(t, err)
	assert.JSONEq(t, sampleRecord, string(data))
	// Numbers keep their literal
	assert.Contains(t, string(data), `"ZB1_TOTVAL":1532.90`)
}

func TestRecordRoundTripsUnusualValues(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "null total", data: `{"id":1,"ZB1_TOTVAL":null,"ZB1_DTLIB":"2024-01-01"}`},
		{name: "string total", data: `{"id":1,"ZB1_TOTVAL":"1532.90"}`},
		{name: "empty total", data: `{"id":1,"ZB1_TOTVAL":""}`},
		{name: "null columns", data: `{"id":1,"ZB1_DTLIB":null,"ZB1_STATUS":null}`},
		{name: "absent columns", data: `{"id":1,"ZB1_DOC":"000123"}`},
		{name: "numeric doc", data: `{"id":1,"ZB1_DOC":123}`},
		{name: "string id", data: `{"id":"7","ZB1_DOC":"000123"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := parseRecord(t, tt.data)

			data, err := json.Marshal(record)
			require.NoError(t, err)
			assert.JSONEq(t, tt.data, string(data))
		})
	}
}

func TestRecordStagedOverlayTouchesOnlyStagedKeys(t *testing.T) {
	record := parseRecord(t, `{"id":1,"ZB1_TOTVAL":null,"ZB1_DTLIB":"2024-01-01","ZB1_DOC":123}`)

	merged, err := record.Merge(map[string]string{FieldDtLib: "2024-02-15"})
	require.NoError(t, err)

	data, err := json.Marshal(merged)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"ZB1_TOTVAL":null,"ZB1_DTLIB":"2024-02-15","ZB1_DOC":123}`, string(data))
}

func TestRecordUnmarshalRejectsBadIDs(t *testing.T) {
	for _, data := range []string{
		`{"ZB1_DOC":"1"}`,
		`{"id":null}`,
		`{"id":"abc"}`,
		`{"id":1.5}`,
		`null`,
	} {
		var record Record
		err := json.Unmarshal([]byte(data), &record)
		assert.ErrorIs(t, err, ErrInvalidRecordID, data)
	}

	var record Record
	assert.Error(t, json.Unmarshal([]byte(`[1]`), &record))
}

func TestRecordFieldAccess(t *testing.T) {
	record := parseRecord(t, `{"id":1,"ZB1_TOTVAL":1532.90,"ZB1_DOC":123,"ZB1_STATUS":null}`)

	for _, field := range RecordFields {
		_, ok := record.Field(field)
		assert.True(t, ok, field)
	}

	value, _ := record.Field(FieldTotVal)
	assert.Equal(t, "1532.90", value)
	value, _ = record.Field(FieldDoc)
	assert.Equal(t, "123", value)
	value, _ = record.Field(FieldStatus)
	assert.Equal(t, "", value)
	value, _ = record.Field(FieldDtLib)
	assert.Equal(t, "", value)

	_, ok := record.Field("id")
	assert.False(t, ok)
}

func TestRecordTotal(t *testing.T) {
	tests := []struct {
		data string
		want string
		ok   bool
	}{
		{data: `{"id":1,"ZB1_TOTVAL":80}`, want: "80", ok: true},
		{data: `{"id":1,"ZB1_TOTVAL":"1532.90"}`, want: "1532.9", ok: true},
		{data: `{"id":1,"ZB1_TOTVAL":null}`},
		{data: `{"id":1,"ZB1_TOTVAL":""}`},
		{data: `{"id":1,"ZB1_TOTVAL":"mil reais"}`},
		{data: `{"id":1}`},
	}

	for _, tt := range tests {
		total, ok := parseRecord(t, tt.data).Total()
		assert.Equal(t, tt.ok, ok, tt.data)
		if tt.ok {
			assert.True(t, total.Equal(decimal.RequireFromString(tt.want)), tt.data)
		}
	}
}

func TestRecordWithFieldLeavesOriginalUntouched(t *testing.T) {
	record := parseRecord(t, sampleRecord)

	updated, err := record.WithField(FieldDtLib, "2024-02-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-15", updated.Text(FieldDtLib))
	assert.Equal(t, "2024-01-01", record.Text(FieldDtLib))

	_, err = record.WithField("ZB1_NOPE", "x")
	assert.True(t, errors.Is(err, ErrUnknownField))

	// Staged values are not validated
	updated, err = record.WithField(FieldTotVal, "mil reais")
	require.NoError(t, err)
	raw, _ := updated.Raw(FieldTotVal)
	assert.JSONEq(t, `"mil reais"`, string(raw))
}

func TestRecordMerge(t *testing.T) {
	record := parseRecord(t, sampleRecord)

	merged, err := record.Merge(map[string]string{
		FieldDtLib:  "2024-02-15",
		FieldStatus: "LIBERADO",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-15", merged.Text(FieldDtLib))
	assert.Equal(t, "LIBERADO", merged.Text(FieldStatus))

	want := parseRecord(t, `{
		"id": 1, "ZB1_FILIAL": "01", "ZB1_CGCEMI": "11222333000181", "ZB1_DOC": "000123",
		"ZB1_EMIT": "TRANSPORTADORA ALADO", "ZB1_TOTVAL": 1532.90, "ZB1_DTLIB": "2024-02-15",
		"ZB1_STATUS": "LIBERADO", "R_E_C_N_O_": 991
	}`)
	assert.True(t, want.Equal(merged))
	assert.False(t, record.Equal(merged))
}

func TestNewRecord(t *testing.T) {
	record := NewRecord(4, map[string]interface{}{
		FieldDoc:    "000999",
		FieldTotVal: json.Number("10.50"),
	})

	data, err := json.Marshal(record)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":4,"ZB1_DOC":"000999","ZB1_TOTVAL":10.50}`, string(data))
}

func TestFindRecord(t *testing.T) {
	records := []Record{{ID: 3}, {ID: 1}, {ID: 2}}

	record, index, ok := FindRecord(records, 1)
	assert.True(t, ok)
	assert.Equal(t, 1, index)
	assert.Equal(t, int64(1), record.ID)

	_, index, ok = FindRecord(records, 9)
	assert.False(t, ok)
	assert.Equal(t, -1, index)
}
