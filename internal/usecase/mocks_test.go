package usecase

import (
	"context"
	"time"

	"airtel-ipn-service/internal/domain"
	"airtel-ipn-service/pkg/client"

	"github.com/stretchr/testify/mock"
)

type notificationRepoMock struct{ mock.Mock }

func (m *notificationRepoMock) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Notification, error) {
	args := m.Called(ctx, transactionID)
	n, _ := args.Get(0).(*domain.Notification)
	return n, args.Error(1)
}

func (m *notificationRepoMock) InsertIfAbsent(ctx context.Context, n *domain.Notification) (*domain.Notification, bool, error) {
	args := m.Called(ctx, n)
	stored, _ := args.Get(0).(*domain.Notification)
	return stored, args.Bool(1), args.Error(2)
}

func (m *notificationRepoMock) UpdateStatus(ctx context.Context, transactionID string, status domain.NotificationStatus, at time.Time) error {
	args := m.Called(ctx, transactionID, status, at)
	return args.Error(0)
}

func (m *notificationRepoMock) RecordSettlement(ctx context.Context, transactionID string, settledAmount float64, settledAt *time.Time, mobiquityRef string) error {
	args := m.Called(ctx, transactionID, settledAmount, settledAt, mobiquityRef)
	return args.Error(0)
}

type customerRepoMock struct{ mock.Mock }

func (m *customerRepoMock) FindByBillRef(ctx context.Context, billRef string, refType domain.RefType) (*domain.Customer, error) {
	args := m.Called(ctx, billRef, refType)
	c, _ := args.Get(0).(*domain.Customer)
	return c, args.Error(1)
}

type resultRepoMock struct{ mock.Mock }

func (m *resultRepoMock) CreateValidationResult(ctx context.Context, notificationID int64, valid bool, message string) error {
	args := m.Called(ctx, notificationID, valid, message)
	return args.Error(0)
}

func (m *resultRepoMock) CreateProcessingResult(ctx context.Context, notificationID int64, processed bool, message string) error {
	args := m.Called(ctx, notificationID, processed, message)
	return args.Error(0)
}

type ledgerMock struct{ mock.Mock }

func (m *ledgerMock) PostSettlement(ctx context.Context, posting *client.SettlementPosting) error {
	args := m.Called(ctx, posting)
	return args.Error(0)
}
