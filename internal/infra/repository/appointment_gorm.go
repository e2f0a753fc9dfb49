package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type AppointmentGormRepository struct {
	db *gorm.DB
}

// DI
func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

func (r *AppointmentGormRepository) FindByID(ctx context.Context, appointmentID int64) (model.Appointment, error) {
	var a model.Appointment

	err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", appointmentID, false).
		First(&a).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Appointment{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Appointment{}, err
	}
	return a, nil
}

// 日付の昇順で返す
func (r *AppointmentGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Appointment, error) {
	var list []model.Appointment

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("date asc").
		Find(&list).Error
	if err != nil {
		return []model.Appointment{}, err
	}
	return list, nil
}

func (r *AppointmentGormRepository) ListAll(ctx context.Context) ([]model.Appointment, error) {
	var list []model.Appointment

	err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("date asc").
		Find(&list).Error
	if err != nil {
		return []model.Appointment{}, err
	}
	return list, nil
}

func (r *AppointmentGormRepository) Create(ctx context.Context, a model.Appointment) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&a).Error; err != nil {
		return 0, err
	}
	return a.ID, nil
}

func (r *AppointmentGormRepository) Update(ctx context.Context, a model.Appointment) error {
	res := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("id = ? AND is_deleted = ?", a.ID, false).
		Updates(map[string]interface{}{
			"service": a.Service,
			"date":    a.Date,
			"notes":   a.Notes,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *AppointmentGormRepository) UpdateStatus(ctx context.Context, appointmentID int64, status model.AppointmentStatus) error {
	res := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("id = ? AND is_deleted = ?", appointmentID, false).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *AppointmentGormRepository) SoftDelete(ctx context.Context, appointmentID int64, deletedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("id = ? AND is_deleted = ?", appointmentID, false).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": &deletedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 同一ユーザー・同一日時の予約があるか（キャンセル済みは除く）
func (r *AppointmentGormRepository) ExistsAt(ctx context.Context, userID int64, date time.Time) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("user_id = ? AND date = ? AND is_deleted = ? AND status <> ?",
			userID, date, false, model.AppointmentStatusCancelled).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
