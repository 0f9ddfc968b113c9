package services

import (
	"context"
	"testing"
	"time"

	gateway "github.com/rosadoagency/appointment-api/internal/gateways"
	"github.com/rosadoagency/appointment-api/internal/model"
	"github.com/rosadoagency/appointment-api/internal/repository"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendEmail(ctx context.Context, msg model.EmailMessage) (*gateway.SendResponse, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.SendResponse), args.Error(1)
}

func (m *MockNotifier) SendSMS(ctx context.Context, msg model.SMSMessage) (*gateway.SendResponse, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.SendResponse), args.Error(1)
}

func delivered(channel string) *gateway.SendResponse {
	return &gateway.SendResponse{MessageID: "msg-1", Channel: channel, Status: gateway.StatusDelivered}
}

func chicago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	return loc
}

func testMessageConfig(loc *time.Location) MessageConfig {
	return MessageConfig{
		From:        "appointments@rosadoagency.com",
		AgencyName:  "Rosado Agency",
		AgencyPhone: "(254) 548-4815",
		Location:    loc,
	}
}

func newTestRepository(t *testing.T) *repository.AppointmentRepository {
	return repository.NewAppointmentRepository(repository.NewTestDB(t))
}

func createAppointment(t *testing.T, repo *repository.AppointmentRepository, name, email string) *model.Appointment {
	t.Helper()
	a, err := repo.Create(context.Background(), &model.Appointment{
		Name:   name,
		Phone:  "2545484815",
		Email:  email,
		Reason: "Medicare questions",
		Status: model.AppointmentStatusPending,
	})
	require.NoError(t, err)
	return a
}

func confirmAppointment(t *testing.T, repo *repository.AppointmentRepository, id int64, at time.Time, zoom string) *model.Appointment {
	t.Helper()
	status := model.AppointmentStatusConfirmed
	patch := model.AppointmentPatch{Status: &status, AppointmentDate: &at}
	if zoom != "" {
		patch.ZoomLink = &zoom
	}
	a, err := repo.Update(context.Background(), id, patch)
	require.NoError(t, err)
	return a
}

func strPtr(s string) *string {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}
