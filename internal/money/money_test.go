package money_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/benefits/internal/money"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    money.Amount
		wantErr error
	}{
		{name: "Integer", input: "40", want: 4000},
		{name: "OneDecimal", input: "40.5", want: 4050},
		{name: "Cent", input: "0.01", want: 1},
		{name: "Whitespace", input: " 100.00 ", want: 10000},
		{name: "Negative", input: "-12.30", want: -1230},
		{name: "TooPrecise", input: "1.005", wantErr: money.ErrInvalidAmount},
		{name: "Garbage", input: "abc", wantErr: money.ErrInvalidAmount},
		{name: "Empty", input: "", wantErr: money.ErrInvalidAmount},
		{name: "Overflow", input: "999999999999999999999", wantErr: money.ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := money.Parse(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAmount_String(t *testing.T) {
	assert.Equal(t, "40.00", money.Amount(4000).String())
	assert.Equal(t, "0.01", money.Amount(1).String())
	assert.Equal(t, "-5.50", money.Amount(-550).String())
}

func TestAmount_AddSubOverflow(t *testing.T) {
	_, err := money.Amount(math.MaxInt64).Add(1)
	assert.ErrorIs(t, err, money.ErrOverflow)

	_, err = money.Amount(math.MinInt64).Sub(1)
	assert.ErrorIs(t, err, money.ErrOverflow)

	got, err := money.Amount(10000).Sub(4000)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(6000), got)

	total, err := money.Sum(1000, 2000, 3000)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(6000), total)
}

func TestAmount_JSON(t *testing.T) {
	type payload struct {
		Amount money.Amount `json:"amount"`
	}

	data, err := json.Marshal(payload{Amount: 4050})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount": 40.50}`, string(data))

	var fromNumber payload
	require.NoError(t, json.Unmarshal([]byte(`{"amount": 60}`), &fromNumber))
	assert.Equal(t, money.Amount(6000), fromNumber.Amount)

	var fromString payload
	require.NoError(t, json.Unmarshal([]byte(`{"amount": "0.01"}`), &fromString))
	assert.Equal(t, money.Amount(1), fromString.Amount)

	var bad payload
	assert.Error(t, json.Unmarshal([]byte(`{"amount": 0.001}`), &bad))
}
