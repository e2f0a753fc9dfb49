package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/rs/zerolog"
)

// AppointmentUsecase は予約の業務ロジック。
// 削除は論理削除で、管理者のステータス変更は監査ログに残す。
type AppointmentUsecase struct {
	appointmentRepo repo.AppointmentRepository
	auditRepo       repo.AuditLogRepository
	logger          zerolog.Logger
}

func NewAppointmentUsecase(
	appointmentRepo repo.AppointmentRepository,
	auditRepo repo.AuditLogRepository,
	logger zerolog.Logger,
) *AppointmentUsecase {
	return &AppointmentUsecase{
		appointmentRepo: appointmentRepo,
		auditRepo:       auditRepo,
		logger:          logger,
	}
}

type AppointmentInput struct {
	Service string
	Date    time.Time
	Notes   string
}

func (u *AppointmentUsecase) ListMine(ctx context.Context, userID int64) ([]model.Appointment, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	list, err := u.appointmentRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return list, nil
}

// Create は予約作成。過去日時と同一日時の重複は弾く。
func (u *AppointmentUsecase) Create(ctx context.Context, userID int64, in AppointmentInput) (int64, error) {
	if userID <= 0 {
		return 0, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.Service) == "" {
		return 0, NewHTTPError(http.StatusBadRequest, "service required")
	}
	if !in.Date.After(time.Now()) {
		return 0, NewHTTPError(http.StatusBadRequest, "date must be in the future")
	}

	exists, err := u.appointmentRepo.ExistsAt(ctx, userID, in.Date)
	if err != nil {
		return 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if exists {
		return 0, NewHTTPError(http.StatusConflict, "appointment already exists at that time")
	}

	now := time.Now()
	id, err := u.appointmentRepo.Create(ctx, model.Appointment{
		UserID:    userID,
		Service:   strings.TrimSpace(in.Service),
		Date:      in.Date,
		Notes:     in.Notes,
		Status:    model.AppointmentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return id, nil
}

// Update は本人の予約内容変更。キャンセル済みは変更不可。
func (u *AppointmentUsecase) Update(ctx context.Context, userID int64, appointmentID int64, in AppointmentInput) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if appointmentID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if strings.TrimSpace(in.Service) == "" {
		return NewHTTPError(http.StatusBadRequest, "service required")
	}
	if !in.Date.After(time.Now()) {
		return NewHTTPError(http.StatusBadRequest, "date must be in the future")
	}

	a, err := u.appointmentRepo.FindByID(ctx, appointmentID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if a.UserID != userID || a.IsDeleted {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if a.Status == model.AppointmentStatusCancelled {
		return NewHTTPError(http.StatusBadRequest, "appointment cancelled")
	}

	// 日時を動かすなら重複を見直す
	if !a.Date.Equal(in.Date) {
		exists, err := u.appointmentRepo.ExistsAt(ctx, userID, in.Date)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if exists {
			return NewHTTPError(http.StatusConflict, "appointment already exists at that time")
		}
	}

	a.Service = strings.TrimSpace(in.Service)
	a.Date = in.Date
	a.Notes = in.Notes
	a.UpdatedAt = time.Now()

	if err := u.appointmentRepo.Update(ctx, a); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// Delete は本人の予約の論理削除。
func (u *AppointmentUsecase) Delete(ctx context.Context, userID int64, appointmentID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if appointmentID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	a, err := u.appointmentRepo.FindByID(ctx, appointmentID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if a.UserID != userID || a.IsDeleted {
		return NewHTTPError(http.StatusNotFound, "not found")
	}

	if err := u.appointmentRepo.SoftDelete(ctx, appointmentID, time.Now()); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *AppointmentUsecase) AdminListAll(ctx context.Context) ([]model.Appointment, error) {
	list, err := u.appointmentRepo.ListAll(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return list, nil
}

// AdminUpdateStatus は管理者のステータス変更。
func (u *AppointmentUsecase) AdminUpdateStatus(ctx context.Context, adminUserID int64, appointmentID int64, newStatus string) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if appointmentID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	status := model.AppointmentStatus(newStatus)
	if !status.Valid() {
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	a, err := u.appointmentRepo.FindByID(ctx, appointmentID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if a.IsDeleted {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if a.Status == status {
		return NewHTTPError(http.StatusBadRequest, "status unchanged")
	}

	if err := u.appointmentRepo.UpdateStatus(ctx, appointmentID, status); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	beforeJSON, _ := json.Marshal(map[string]string{"status": string(a.Status)})
	afterJSON, _ := json.Marshal(map[string]string{"status": string(status)})

	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionUpdateAppointmentStatus,
		ResourceType: model.AuditResourceAppointment,
		ResourceID:   appointmentID,
		BeforeJSON:   string(beforeJSON),
		AfterJSON:    string(afterJSON),
		CreatedAt:    time.Now(),
	}); err != nil {
		u.logger.Warn().Err(err).Int64("appointment_id", appointmentID).Msg("failed to write audit log")
	}

	return nil
}
