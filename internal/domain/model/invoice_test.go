package model

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test: 冪等キーの一意制約はuser_idとの複合。
// グローバル一意だと別ユーザーが同じキーを使えなくなる。
func TestInvoiceIdempotencyKeyUniquePerUser(t *testing.T) {
	typ := reflect.TypeOf(Invoice{})

	userField, ok := typ.FieldByName("UserID")
	assert.True(t, ok)
	keyField, ok := typ.FieldByName("IdempotencyKey")
	assert.True(t, ok)

	userTag := userField.Tag.Get("gorm")
	keyTag := keyField.Tag.Get("gorm")

	assert.Contains(t, userTag, "uniqueIndex:idx_invoices_user_idem_key")
	assert.Contains(t, keyTag, "uniqueIndex:idx_invoices_user_idem_key")
	// キー単独のグローバル一意にはしない
	assert.False(t, strings.Contains(keyTag, "uniqueIndex;") || strings.HasSuffix(keyTag, "uniqueIndex"))
}

func TestInvoiceStatusValid(t *testing.T) {
	assert.True(t, InvoiceStatusPending.Valid())
	assert.True(t, InvoiceStatusCompleted.Valid())
	assert.True(t, InvoiceStatusCancelled.Valid())
	assert.False(t, InvoiceStatus("shipped").Valid())
	assert.False(t, InvoiceStatus("").Valid())
}
