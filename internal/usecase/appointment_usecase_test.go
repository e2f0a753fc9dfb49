package usecase_test

import (
	"context"
	"testing"
	"time"

	"app/internal/domain/model"
	"app/internal/usecase"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type AppointmentRepoMock struct{ mock.Mock }

func (m *AppointmentRepoMock) FindByID(ctx context.Context, appointmentID int64) (model.Appointment, error) {
	args := m.Called(ctx, appointmentID)
	a, _ := args.Get(0).(model.Appointment)
	return a, args.Error(1)
}

func (m *AppointmentRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.Appointment, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]model.Appointment)
	return list, args.Error(1)
}

func (m *AppointmentRepoMock) ListAll(ctx context.Context) ([]model.Appointment, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]model.Appointment)
	return list, args.Error(1)
}

func (m *AppointmentRepoMock) Create(ctx context.Context, a model.Appointment) (int64, error) {
	args := m.Called(ctx, a)
	return args.Get(0).(int64), args.Error(1)
}

func (m *AppointmentRepoMock) Update(ctx context.Context, a model.Appointment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *AppointmentRepoMock) UpdateStatus(ctx context.Context, appointmentID int64, status model.AppointmentStatus) error {
	args := m.Called(ctx, appointmentID, status)
	return args.Error(0)
}

func (m *AppointmentRepoMock) SoftDelete(ctx context.Context, appointmentID int64, deletedAt time.Time) error {
	args := m.Called(ctx, appointmentID, deletedAt)
	return args.Error(0)
}

func (m *AppointmentRepoMock) ExistsAt(ctx context.Context, userID int64, date time.Time) (bool, error) {
	args := m.Called(ctx, userID, date)
	return args.Bool(0), args.Error(1)
}

func TestAppointmentUsecase_Create_PastDate(t *testing.T) {
	aRepo := new(AppointmentRepoMock)
	uc := usecase.NewAppointmentUsecase(aRepo, new(AuditRepoMock), zerolog.Nop())

	_, err := uc.Create(context.Background(), 1, usecase.AppointmentInput{
		Service: "haircut",
		Date:    time.Now().Add(-time.Hour),
	})
	assertHTTPStatus(t, err, 400)
}

func TestAppointmentUsecase_Create_MissingService(t *testing.T) {
	aRepo := new(AppointmentRepoMock)
	uc := usecase.NewAppointmentUsecase(aRepo, new(AuditRepoMock), zerolog.Nop())

	_, err := uc.Create(context.Background(), 1, usecase.AppointmentInput{
		Service: "  ",
		Date:    time.Now().Add(time.Hour),
	})
	assertHTTPStatus(t, err, 400)
}

func TestAppointmentUsecase_Create_Conflict(t *testing.T) {
	aRepo := new(AppointmentRepoMock)
	uc := usecase.NewAppointmentUsecase(aRepo, new(AuditRepoMock), zerolog.Nop())

	date := time.Now().Add(24 * time.Hour)
	aRepo.On("ExistsAt", mock.Anything, int64(1), date).Return(true, nil)

	_, err := uc.Create(context.Background(), 1, usecase.AppointmentInput{
		Service: "haircut",
		Date:    date,
	})
	assertHTTPStatus(t, err, 409)
}

func TestAppointmentUsecase_Create_Success(t *testing.T) {
	aRepo := new(AppointmentRepoMock)
	uc := usecase.NewAppointmentUsecase(aRepo, new(AuditRepoMock), zerolog.Nop())

	date := time.Now().Add(24 * time.Hour)
	aRepo.On("ExistsAt", mock.Anything, int64(1), date).Return(false, nil)
	aRepo.On("Create", mock.Anything, mock.Anything).Return(int64(7), nil)

	id, err := uc.Create(context.Background(), 1, usecase.AppointmentInput{
		Service: "haircut",
		Date:    date,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestAppointmentUsecase_Delete_OtherUsersAppointment(t *testing.T) {
	aRepo := new(AppointmentRepoMock)
	uc := usecase.NewAppointmentUsecase(aRepo, new(AuditRepoMock), zerolog.Nop())

	aRepo.On("FindByID", mock.Anything, int64(3)).
		Return(model.Appointment{ID: 3, UserID: 2}, nil)

	err := uc.Delete(context.Background(), 1, 3)
	assertHTTPStatus(t, err, 404)
	aRepo.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything, mock.Anything)
}

func TestAppointmentUsecase_AdminUpdateStatus_WritesAudit(t *testing.T) {
	aRepo := new(AppointmentRepoMock)
	audit := new(AuditRepoMock)
	uc := usecase.NewAppointmentUsecase(aRepo, audit, zerolog.Nop())

	aRepo.On("FindByID", mock.Anything, int64(3)).
		Return(model.Appointment{ID: 3, UserID: 2, Status: model.AppointmentStatusPending}, nil)
	aRepo.On("UpdateStatus", mock.Anything, int64(3), model.AppointmentStatusConfirmed).Return(nil)
	audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	err := uc.AdminUpdateStatus(context.Background(), 99, 3, "confirmed")
	assert.NoError(t, err)
	audit.AssertCalled(t, "Create", mock.Anything, mock.Anything)
}
