package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test: 同一キー（商品＋サイズ＋カラー）は数量加算で1行に寄せる
func TestCartUpsertMergesSameKey(t *testing.T) {
	c := &Cart{}

	c.Upsert(CartLine{ProductID: 1, Name: "Shirt", UnitPrice: 1000, Quantity: 2, Size: "M", Color: "red", Stock: 10})
	c.Upsert(CartLine{ProductID: 1, Name: "Shirt", UnitPrice: 1000, Quantity: 1, Size: "M", Color: "red", Stock: 9})

	assert.Len(t, c.Lines, 1)
	assert.Equal(t, int64(3), c.Lines[0].Quantity)
	// 在庫の既知値は最新を採用
	assert.Equal(t, int64(9), c.Lines[0].Stock)
}

// Test: バリアント違いは別行
func TestCartUpsertKeepsDifferentVariants(t *testing.T) {
	c := &Cart{}

	c.Upsert(CartLine{ProductID: 1, Quantity: 1, Size: "M", Color: "red"})
	c.Upsert(CartLine{ProductID: 1, Quantity: 1, Size: "L", Color: "red"})
	c.Upsert(CartLine{ProductID: 1, Quantity: 1, Size: "M", Color: "blue"})

	assert.Len(t, c.Lines, 3)
	assert.Equal(t, int64(3), c.QuantityOf(1))
}

// Test: 合計は単価×数量の総和、空カートは0
func TestCartTotal(t *testing.T) {
	c := &Cart{}
	assert.Equal(t, int64(0), c.Total())

	c.Upsert(CartLine{ProductID: 1, UnitPrice: 10, Quantity: 2})
	c.Upsert(CartLine{ProductID: 2, UnitPrice: 5, Quantity: 3})
	assert.Equal(t, int64(35), c.Total())
}

// Test: index削除と範囲外
func TestCartRemoveAt(t *testing.T) {
	c := &Cart{}
	c.Upsert(CartLine{ProductID: 1, Quantity: 1})
	c.Upsert(CartLine{ProductID: 2, Quantity: 1})

	assert.False(t, c.RemoveAt(5))
	assert.False(t, c.RemoveAt(-1))
	assert.Len(t, c.Lines, 2)

	assert.True(t, c.RemoveAt(0))
	assert.Len(t, c.Lines, 1)
	assert.Equal(t, int64(2), c.Lines[0].ProductID)
}
