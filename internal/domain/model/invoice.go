package model

import "time"

type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusCompleted InvoiceStatus = "completed"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// 受け付ける状態か
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusCompleted, InvoiceStatusCancelled:
		return true
	}
	return false
}

type Invoice struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index;uniqueIndex:idx_invoices_user_idem_key,priority:1" json:"user_id"`

	Status         InvoiceStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Total          int64         `gorm:"not null" json:"total"`
	BillingAddress string        `gorm:"type:text" json:"billing_address"`
	Notes          string        `gorm:"type:text" json:"notes"`

	// 冪等キーはユーザー単位で一意（検索もuser_id+keyで行う）
	IdempotencyKey string `gorm:"type:varchar(255);not null;uniqueIndex:idx_invoices_user_idem_key,priority:2" json:"-"`
	CreatedAt      time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
