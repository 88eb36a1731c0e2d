// internal/usecase/process_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"airtel-ipn-service/internal/domain"
	"airtel-ipn-service/internal/repository"
	"airtel-ipn-service/pkg/client"
	"airtel-ipn-service/pkg/ids"

	"go.uber.org/zap"
)

type ProcessingUsecase struct {
	notifications repository.NotificationRepository
	results       repository.ResultRepository
	ledger        client.LedgerPoster
	refs          *ids.Generator
	logger        *zap.Logger
}

func NewProcessingUsecase(
	notifications repository.NotificationRepository,
	results repository.ResultRepository,
	ledger client.LedgerPoster,
	refs *ids.Generator,
	logger *zap.Logger,
) *ProcessingUsecase {
	return &ProcessingUsecase{
		notifications: notifications,
		results:       results,
		ledger:        ledger,
		refs:          refs,
		logger:        logger,
	}
}

// ProcessIPN settles a finalized transaction exactly once. A duplicate
// delivery replays the stored acknowledgement without touching the ledger or
// processedAt. A processing call with no prior validation round-trip is
// persisted as an out-of-order terminal record flagged for reconciliation.
func (uc *ProcessingUsecase) ProcessIPN(ctx context.Context, req *domain.ProcessingRequest, rawPayload []byte) (*domain.ProcessingAck, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid processing request: %w", err)
	}

	uc.logger.Info("processing IPN",
		zap.String("transaction_id", req.TransactionID),
		zap.Float64("settled_amount", req.SettledAmount))

	existing, err := uc.notifications.FindByTransactionID(ctx, req.TransactionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return uc.processOutOfOrder(ctx, req, rawPayload)
		}
		return nil, fmt.Errorf("failed to look up notification: %w", err)
	}

	if existing.Status.IsTerminal() {
		uc.logger.Info("duplicate processing delivery, replaying stored acknowledgement",
			zap.String("transaction_id", existing.TransactionID),
			zap.String("status", string(existing.Status)))
		return ackFor(existing), nil
	}

	if existing.Status != domain.StatusValidated {
		// Only validated notifications may settle; anything else here means
		// the switch skipped the validation round-trip outcome.
		uc.logger.Error("notification not in a settleable status",
			zap.String("transaction_id", existing.TransactionID),
			zap.String("status", string(existing.Status)))
		return nil, repository.ErrInvalidTransition
	}

	status := uc.settle(ctx, existing, req)

	if err := uc.notifications.RecordSettlement(ctx, req.TransactionID, req.SettledAmount, req.SettledAt, req.MobiquityReference); err != nil {
		uc.logger.Error("failed to record settlement details",
			zap.String("transaction_id", req.TransactionID),
			zap.Error(err))
	}

	now := time.Now().UTC()
	if err := uc.notifications.UpdateStatus(ctx, req.TransactionID, status, now); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			// Lost a race with a concurrent delivery that already settled;
			// replay whatever it recorded.
			stored, findErr := uc.notifications.FindByTransactionID(ctx, req.TransactionID)
			if findErr == nil && stored.Status.IsTerminal() {
				uc.logger.Info("concurrent processing already settled, replaying",
					zap.String("transaction_id", req.TransactionID),
					zap.String("status", string(stored.Status)))
				return ackFor(stored), nil
			}
		}
		return nil, fmt.Errorf("failed to update notification status: %w", err)
	}

	uc.audit(ctx, existing.ID, req.TransactionID, status)

	uc.logger.Info("IPN processed",
		zap.String("transaction_id", req.TransactionID),
		zap.String("ipn_ref", existing.IPNRef),
		zap.String("status", string(status)))

	ack := ackFor(existing)
	ack.Status = status
	return ack, nil
}

// processOutOfOrder persists a processing call that arrived with no prior
// validated notification. The record lands directly at a terminal status with
// validated=false so reconciliation can pick it out.
func (uc *ProcessingUsecase) processOutOfOrder(ctx context.Context, req *domain.ProcessingRequest, rawPayload []byte) (*domain.ProcessingAck, error) {
	uc.logger.Warn("processing delivery without prior validation",
		zap.String("transaction_id", req.TransactionID),
		zap.String("bill_ref_number", req.BillRefNumber))

	n := &domain.Notification{
		IPNRef:        uc.refs.NewIPNRef(),
		TransactionID: req.TransactionID,
		BillRefNumber: req.BillRefNumber,
		RefType:       req.RefType,
		Amount:        req.Amount,
		Currency:      req.Currency,
		MSISDN:        req.MSISDN,
		Validated:     false,
		SettledAmount: &req.SettledAmount,
		SettledAt:     req.SettledAt,
		RawPayload:    string(rawPayload),
		ReceivedAt:    time.Now().UTC(),
	}
	if req.MerchantMSISDN != "" {
		n.MerchantMSISDN = &req.MerchantMSISDN
	}
	if req.MobiquityReference != "" {
		n.MobiquityReference = &req.MobiquityReference
	}

	n.Status = uc.settle(ctx, n, req)
	now := time.Now().UTC()
	n.ProcessedAt = &now

	stored, inserted, err := uc.notifications.InsertIfAbsent(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("failed to store out-of-order notification: %w", err)
	}
	if !inserted {
		// A concurrent delivery of the same transactionId won; its
		// acknowledgement is the one of record.
		uc.logger.Info("concurrent delivery won out-of-order insert, replaying",
			zap.String("transaction_id", stored.TransactionID),
			zap.String("status", string(stored.Status)))
		return ackFor(stored), nil
	}

	uc.audit(ctx, stored.ID, stored.TransactionID, stored.Status)

	return ackFor(stored), nil
}

// settle posts the settlement downstream and maps the outcome onto the
// terminal status. A gateway without a configured ledger records success.
func (uc *ProcessingUsecase) settle(ctx context.Context, n *domain.Notification, req *domain.ProcessingRequest) domain.NotificationStatus {
	if uc.ledger == nil {
		return domain.StatusProcessed
	}

	posting := &client.SettlementPosting{
		IPNRef:        n.IPNRef,
		TransactionID: req.TransactionID,
		BillRefNumber: req.BillRefNumber,
		RefType:       string(req.RefType),
		SettledAmount: req.SettledAmount,
		Currency:      req.Currency,
		MSISDN:        req.MSISDN,
	}

	if err := uc.ledger.PostSettlement(ctx, posting); err != nil {
		uc.logger.Error("ledger posting failed, marking notification failed",
			zap.String("transaction_id", req.TransactionID),
			zap.Error(err))
		return domain.StatusFailed
	}
	return domain.StatusProcessed
}

func (uc *ProcessingUsecase) audit(ctx context.Context, notificationID int64, transactionID string, status domain.NotificationStatus) {
	processed := status == domain.StatusProcessed
	message := "settlement posted successfully"
	if !processed {
		message = "settlement posting failed"
	}
	if err := uc.results.CreateProcessingResult(ctx, notificationID, processed, message); err != nil {
		uc.logger.Error("failed to write processing audit row",
			zap.String("transaction_id", transactionID),
			zap.Error(err))
	}
}

func ackFor(n *domain.Notification) *domain.ProcessingAck {
	status := n.Status
	if status != domain.StatusProcessed {
		// rejected and failed both acknowledge as failed to the switch.
		status = domain.StatusFailed
	}
	return &domain.ProcessingAck{
		Status:        status,
		TransactionID: n.TransactionID,
		IPNRef:        n.IPNRef,
		BillRefNumber: n.BillRefNumber,
		Amount:        n.Amount,
		Currency:      n.Currency,
	}
}
