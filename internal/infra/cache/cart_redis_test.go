package cache

import (
	"encoding/json"
	"testing"

	"app/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

// Test: 壊れたblobは空カートに落ちる（panicもエラーもしない）
func TestDecodeCartCorruptBytes(t *testing.T) {
	for _, raw := range [][]byte{
		[]byte("not json at all"),
		[]byte(`{"lines": "should be an array"}`),
		[]byte(`{"lines":[{`),
		{0xff, 0xfe, 0x00},
		nil,
	} {
		cart := decodeCart(raw)
		assert.True(t, cart.IsEmpty())
	}
}

// Test: 正常なblobはそのまま復元される
func TestDecodeCartRoundTrip(t *testing.T) {
	in := model.Cart{Lines: []model.CartLine{
		{ProductID: 1, Name: "Shirt", UnitPrice: 1999, Quantity: 2, Size: "M", Color: "red", Stock: 7},
		{ProductID: 2, Name: "Cap", UnitPrice: 500, Quantity: 1, Stock: 3},
	}}

	b, err := json.Marshal(in)
	assert.NoError(t, err)

	out := decodeCart(b)
	assert.Equal(t, in, out)
	assert.Equal(t, int64(1999*2+500), out.Total())
}
