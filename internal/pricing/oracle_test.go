package pricing

import (
	"testing"

	"github.com/josh-kwaku/brokerage-ledger/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOracle(t *testing.T) {
	o := NewDefaultOracle()

	tests := []struct {
		symbol    string
		wantPrice string
		wantErr   error
	}{
		{symbol: "AAPL", wantPrice: "150"},
		{symbol: "TSLA", wantPrice: "700"},
		{symbol: "GOOGL", wantPrice: "2800"},
		{symbol: "aapl", wantErr: domain.ErrUnknownSymbol},
		{symbol: "XXX", wantErr: domain.ErrUnknownSymbol},
		{symbol: "", wantErr: domain.ErrUnknownSymbol},
	}

	for _, tc := range tests {
		t.Run(tc.symbol, func(t *testing.T) {
			price, err := o.PriceOf(tc.symbol)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, price.Equal(decimal.RequireFromString(tc.wantPrice)),
				"price: got %s, want %s", price, tc.wantPrice)
		})
	}
}

func TestUnknownSymbolMessage(t *testing.T) {
	_, err := NewDefaultOracle().PriceOf("MSFT")
	require.Error(t, err)
	assert.Equal(t, "unknown symbol: MSFT", err.Error())
}

func TestStaticOracleCopiesTable(t *testing.T) {
	table := map[string]decimal.Decimal{"AAPL": decimal.NewFromInt(1)}
	o := NewStaticOracle(table)
	table["AAPL"] = decimal.NewFromInt(2)
	table["TSLA"] = decimal.NewFromInt(3)

	price, err := o.PriceOf("AAPL")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, []string{"AAPL"}, o.Symbols())
}

func TestSymbolsSorted(t *testing.T) {
	assert.Equal(t, []string{"AAPL", "GOOGL", "TSLA"}, NewDefaultOracle().Symbols())
}

func TestOracleFunc(t *testing.T) {
	var o Oracle = OracleFunc(func(symbol string) (decimal.Decimal, error) {
		return decimal.NewFromInt(int64(len(symbol))), nil
	})
	price, err := o.PriceOf("ABCD")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(4)))
}

func TestParsePriceTable(t *testing.T) {
	tests := []struct {
		name    string
		table   map[string]string
		want    map[string]string
		wantErr bool
	}{
		{
			name:  "valid",
			table: map[string]string{"aapl": "151.25", " MSFT ": " 410 "},
			want:  map[string]string{"AAPL": "151.25", "MSFT": "410"},
		},
		{
			name:  "zero price allowed",
			table: map[string]string{"FREE": "0"},
			want:  map[string]string{"FREE": "0"},
		},
		{
			name:    "negative price",
			table:   map[string]string{"AAPL": "-1"},
			wantErr: true,
		},
		{
			name:    "not a number",
			table:   map[string]string{"AAPL": "abc"},
			wantErr: true,
		},
		{
			name:    "empty symbol",
			table:   map[string]string{" ": "1"},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePriceTable(tc.table)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, len(tc.want))
			for sym, price := range tc.want {
				assert.True(t, got[sym].Equal(decimal.RequireFromString(price)), "%s: got %s", sym, got[sym])
			}
		})
	}
}

func TestNewOracleFromTable(t *testing.T) {
	o, err := NewOracleFromTable(map[string]string{"aapl": "155", "MSFT": "410.5"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "GOOGL", "MSFT", "TSLA"}, o.Symbols())

	price, err := o.PriceOf("AAPL")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(155)))

	empty, err := NewOracleFromTable(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "GOOGL", "TSLA"}, empty.Symbols())

	_, err = NewOracleFromTable(map[string]string{"AAPL": "-3"})
	require.Error(t, err)
}
