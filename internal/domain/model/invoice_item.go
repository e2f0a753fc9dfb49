package model

import "time"

// 請求書の明細。商品名・価格・バリアントは作成時点のスナップショット。
type InvoiceItem struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	InvoiceID           int64     `gorm:"not null;index" json:"invoice_id"`
	ProductID           int64     `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string    `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	UnitPriceSnapshot   int64     `gorm:"not null" json:"unit_price_snapshot"`
	Quantity            int64     `gorm:"not null" json:"quantity"`
	Size                string    `gorm:"type:varchar(50)" json:"size,omitempty"`
	Color               string    `gorm:"type:varchar(50)" json:"color,omitempty"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
