package usecase

import (
	"context"
	"errors"
	"testing"

	"airtel-ipn-service/config"
	"airtel-ipn-service/internal/domain"
	"airtel-ipn-service/internal/repository"
	"airtel-ipn-service/pkg/ids"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		IPN: config.IPNConfig{
			MinAmount:       1,
			MaxAmount:       10000,
			DefaultCurrency: "KES",
		},
	}
}

func newValidationUC(notifications *notificationRepoMock, customers *customerRepoMock, results *resultRepoMock) *ValidationUsecase {
	return NewValidationUsecase(
		notifications,
		customers,
		results,
		nil, // no cache in tests, lookups go straight to the repo
		ids.NewGenerator(),
		testConfig(),
		zap.NewNop(),
	)
}

func activeCustomer() *domain.Customer {
	return &domain.Customer{
		ID:            7,
		BillRefNumber: "123456",
		RefType:       domain.RefTypeAccount,
		MSISDN:        "254712345678",
		FullName:      "Wanjiku Kamau",
		Status:        domain.CustomerActive,
	}
}

func validRequest() *domain.ValidationRequest {
	return &domain.ValidationRequest{
		TransactionID: "TX1",
		BillRefNumber: "123456",
		RefType:       domain.RefTypeAccount,
		Amount:        500,
		MSISDN:        "254712345678",
	}
}

func TestValidateIPN_Accept(t *testing.T) {
	notifications := new(notificationRepoMock)
	customers := new(customerRepoMock)
	results := new(resultRepoMock)

	customers.On("FindByBillRef", mock.Anything, "123456", domain.RefTypeAccount).
		Return(activeCustomer(), nil)
	notifications.On("InsertIfAbsent", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.TransactionID == "TX1" &&
			n.Status == domain.StatusValidated &&
			n.Validated &&
			n.ReasonCode == nil &&
			n.IPNRef != ""
	})).Return(&domain.Notification{ID: 1, TransactionID: "TX1", IPNRef: "IPNX"}, true, nil)
	results.On("CreateValidationResult", mock.Anything, int64(1), true, mock.Anything).Return(nil)

	uc := newValidationUC(notifications, customers, results)

	verdict, err := uc.ValidateIPN(context.Background(), validRequest(), []byte(`{}`))
	require.NoError(t, err)
	require.True(t, verdict.Accepted)
	require.Empty(t, verdict.ReasonCode)
	require.Equal(t, "TX1", verdict.TransactionID)

	notifications.AssertExpectations(t)
	customers.AssertExpectations(t)
	results.AssertExpectations(t)
}

func TestValidateIPN_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(req *domain.ValidationRequest)
		setup      func(customers *customerRepoMock)
		wantReason string
	}{
		{
			name:       "unknown ref type",
			mutate:     func(req *domain.ValidationRequest) { req.RefType = "LOYALTY" },
			wantReason: domain.ReasonUnknownRefType,
		},
		{
			name:       "bill ref format mismatch",
			mutate:     func(req *domain.ValidationRequest) { req.BillRefNumber = "12A" },
			wantReason: domain.ReasonInvalidBillRef,
		},
		{
			name:   "unresolvable bill ref",
			mutate: func(req *domain.ValidationRequest) {},
			setup: func(customers *customerRepoMock) {
				customers.On("FindByBillRef", mock.Anything, "123456", domain.RefTypeAccount).
					Return(nil, repository.ErrNotFound)
			},
			wantReason: domain.ReasonUnresolvableTarget,
		},
		{
			name:   "inactive customer",
			mutate: func(req *domain.ValidationRequest) {},
			setup: func(customers *customerRepoMock) {
				suspended := activeCustomer()
				suspended.Status = domain.CustomerSuspended
				customers.On("FindByBillRef", mock.Anything, "123456", domain.RefTypeAccount).
					Return(suspended, nil)
			},
			wantReason: domain.ReasonUnresolvableTarget,
		},
		{
			name:   "amount above bound",
			mutate: func(req *domain.ValidationRequest) { req.Amount = 50000 },
			setup: func(customers *customerRepoMock) {
				customers.On("FindByBillRef", mock.Anything, "123456", domain.RefTypeAccount).
					Return(activeCustomer(), nil)
			},
			wantReason: domain.ReasonAmountOutOfBounds,
		},
		{
			name:   "negative amount",
			mutate: func(req *domain.ValidationRequest) { req.Amount = -5 },
			setup: func(customers *customerRepoMock) {
				customers.On("FindByBillRef", mock.Anything, "123456", domain.RefTypeAccount).
					Return(activeCustomer(), nil)
			},
			wantReason: domain.ReasonAmountOutOfBounds,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			notifications := new(notificationRepoMock)
			customers := new(customerRepoMock)
			results := new(resultRepoMock)
			if tc.setup != nil {
				tc.setup(customers)
			}

			notifications.On("InsertIfAbsent", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
				return n.Status == domain.StatusRejected &&
					!n.Validated &&
					n.ReasonCode != nil && *n.ReasonCode == tc.wantReason
			})).Return(&domain.Notification{ID: 2, TransactionID: "TX1"}, true, nil)
			results.On("CreateValidationResult", mock.Anything, int64(2), false, mock.Anything).Return(nil)

			req := validRequest()
			tc.mutate(req)

			uc := newValidationUC(notifications, customers, results)
			verdict, err := uc.ValidateIPN(context.Background(), req, []byte(`{}`))
			require.NoError(t, err)
			require.False(t, verdict.Accepted)
			require.Equal(t, tc.wantReason, verdict.ReasonCode)

			notifications.AssertExpectations(t)
			customers.AssertExpectations(t)
		})
	}
}

func TestValidateIPN_MissingTransactionID(t *testing.T) {
	notifications := new(notificationRepoMock)
	uc := newValidationUC(notifications, new(customerRepoMock), new(resultRepoMock))

	req := validRequest()
	req.TransactionID = ""

	verdict, err := uc.ValidateIPN(context.Background(), req, []byte(`{}`))
	require.NoError(t, err)
	require.False(t, verdict.Accepted)
	require.Equal(t, domain.ReasonMissingFields, verdict.ReasonCode)

	notifications.AssertNotCalled(t, "InsertIfAbsent", mock.Anything, mock.Anything)
}

func TestValidateIPN_DuplicateReplaysStoredVerdict(t *testing.T) {
	notifications := new(notificationRepoMock)
	customers := new(customerRepoMock)
	results := new(resultRepoMock)

	reason := domain.ReasonAmountOutOfBounds
	stored := &domain.Notification{
		ID:            3,
		TransactionID: "TX1",
		Status:        domain.StatusRejected,
		ReasonCode:    &reason,
	}

	customers.On("FindByBillRef", mock.Anything, "123456", domain.RefTypeAccount).
		Return(activeCustomer(), nil)
	// The fresh computation would accept, but the stored rejection wins.
	notifications.On("InsertIfAbsent", mock.Anything, mock.Anything).Return(stored, false, nil)

	uc := newValidationUC(notifications, customers, results)
	verdict, err := uc.ValidateIPN(context.Background(), validRequest(), []byte(`{}`))
	require.NoError(t, err)
	require.False(t, verdict.Accepted)
	require.Equal(t, domain.ReasonAmountOutOfBounds, verdict.ReasonCode)

	results.AssertNotCalled(t, "CreateValidationResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestValidateIPN_StoreError(t *testing.T) {
	notifications := new(notificationRepoMock)
	customers := new(customerRepoMock)

	customers.On("FindByBillRef", mock.Anything, "123456", domain.RefTypeAccount).
		Return(activeCustomer(), nil)
	notifications.On("InsertIfAbsent", mock.Anything, mock.Anything).
		Return(nil, false, errors.New("connection refused"))

	uc := newValidationUC(notifications, customers, new(resultRepoMock))
	_, err := uc.ValidateIPN(context.Background(), validRequest(), []byte(`{}`))
	require.Error(t, err)
}
