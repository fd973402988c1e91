package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestRows_ColumnsAlignWithValues(t *testing.T) {
	rows := []Row{
		Category{ID: "13005000", Group: "place", Category: strPtr("Food and Drink")},
		Institution{ID: "ins_3", Name: "Chase"},
		Account{ID: "acc_1", InstitutionID: "ins_3", Name: "Checking", Type: "depository"},
		Transaction{ID: "tx_1", AccountID: "acc_1", Name: "STARBUCKS", Amount: decimal.RequireFromString("-4.33"), Date: "2024-03-01"},
	}

	for _, r := range rows {
		assert.Equal(t, len(r.Columns()), len(r.Values()))
		assert.Equal(t, PrimaryKey, r.Columns()[0])
	}
}

func TestAccount_Values_NullableColumns(t *testing.T) {
	acc := Account{ID: "acc_1", InstitutionID: "ins_3", Name: "Checking", Type: "depository"}
	values := acc.Values()

	assert.Nil(t, values[2], "missing balance stays NULL")
	assert.Nil(t, values[3], "missing mask stays NULL")
	assert.Nil(t, values[6], "missing subtype stays NULL")

	acc.BalanceCurrent = decimal.NewNullDecimal(decimal.RequireFromString("-410.05"))
	acc.Mask = strPtr("0000")
	values = acc.Values()
	assert.Equal(t, Numeric("-410.05"), values[2])
	assert.Equal(t, "0000", values[3])
}

func TestAsRows(t *testing.T) {
	institutions := []Institution{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}
	rows := AsRows(institutions)

	assert.Len(t, rows, 2)
	assert.Equal(t, []any{"b", "B"}, rows[1].Values())
}
