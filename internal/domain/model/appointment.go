package model

import "time"

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCancelled:
		return true
	}
	return false
}

// 予約。削除は論理削除（is_deleted）で残す。
type Appointment struct {
	ID        int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64             `gorm:"not null;index" json:"user_id"`
	Service   string            `gorm:"type:varchar(100);not null" json:"service"`
	Date      time.Time         `gorm:"not null;index" json:"date"`
	Notes     string            `gorm:"type:text" json:"notes"`
	Status    AppointmentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	IsDeleted bool              `gorm:"not null;default:false;index" json:"-"`
	DeletedAt *time.Time        `json:"-"`
	CreatedAt time.Time         `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
