package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type AppointmentRepository interface {
	FindByID(ctx context.Context, appointmentID int64) (model.Appointment, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Appointment, error)

	// 管理者用：全ユーザーの予約を日付順で
	ListAll(ctx context.Context) ([]model.Appointment, error)

	Create(ctx context.Context, a model.Appointment) (int64, error)
	Update(ctx context.Context, a model.Appointment) error
	UpdateStatus(ctx context.Context, appointmentID int64, status model.AppointmentStatus) error
	SoftDelete(ctx context.Context, appointmentID int64, deletedAt time.Time) error

	// 同一日時に既存予約があるか（論理削除・キャンセル済みは除く）
	ExistsAt(ctx context.Context, userID int64, date time.Time) (bool, error)
}
