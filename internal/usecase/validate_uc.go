// internal/usecase/validate_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"airtel-ipn-service/config"
	"airtel-ipn-service/internal/cache"
	"airtel-ipn-service/internal/domain"
	"airtel-ipn-service/internal/repository"
	"airtel-ipn-service/pkg/ids"

	"go.uber.org/zap"
)

type ValidationUsecase struct {
	notifications repository.NotificationRepository
	customers     repository.CustomerRepository
	results       repository.ResultRepository
	customerCache *cache.CustomerCache
	refs          *ids.Generator
	cfg           *config.Config
	logger        *zap.Logger
}

func NewValidationUsecase(
	notifications repository.NotificationRepository,
	customers repository.CustomerRepository,
	results repository.ResultRepository,
	customerCache *cache.CustomerCache,
	refs *ids.Generator,
	cfg *config.Config,
	logger *zap.Logger,
) *ValidationUsecase {
	return &ValidationUsecase{
		notifications: notifications,
		customers:     customers,
		results:       results,
		customerCache: customerCache,
		refs:          refs,
		cfg:           cfg,
		logger:        logger,
	}
}

// ValidateIPN runs the pre-funding checks for a candidate transaction and
// records the verdict. Duplicate deliveries of the same transactionId replay
// the stored verdict; exactly one row ever exists per transactionId.
func (uc *ValidationUsecase) ValidateIPN(ctx context.Context, req *domain.ValidationRequest, rawPayload []byte) (*domain.ValidationVerdict, error) {
	if req.Currency == "" && uc.cfg.IPN.DefaultCurrency != "" {
		req.Currency = uc.cfg.IPN.DefaultCurrency
	}
	if err := req.Validate(); err != nil {
		if req.TransactionID == "" {
			// Without a transaction id there is nothing to key the audit
			// record on; reject without persisting.
			uc.logger.Error("validation request missing transaction id", zap.Error(err))
			return &domain.ValidationVerdict{Accepted: false, ReasonCode: domain.ReasonMissingFields}, nil
		}
		uc.logger.Error("validation request missing fields",
			zap.String("transaction_id", req.TransactionID),
			zap.Error(err))
		return uc.record(ctx, req, rawPayload, domain.ReasonMissingFields)
	}

	uc.logger.Info("validating IPN",
		zap.String("transaction_id", req.TransactionID),
		zap.String("bill_ref_number", req.BillRefNumber),
		zap.String("ref_type", string(req.RefType)),
		zap.Float64("amount", req.Amount),
		zap.String("msisdn", req.MSISDN))

	if !domain.KnownRefType(req.RefType) {
		uc.logger.Warn("unknown ref type",
			zap.String("transaction_id", req.TransactionID),
			zap.String("ref_type", string(req.RefType)))
		return uc.record(ctx, req, rawPayload, domain.ReasonUnknownRefType)
	}

	if !domain.ValidBillRef(req.RefType, req.BillRefNumber) {
		uc.logger.Warn("bill reference does not match format rule",
			zap.String("transaction_id", req.TransactionID),
			zap.String("bill_ref_number", req.BillRefNumber),
			zap.String("expected", domain.BillRefRuleDescription(req.RefType)))
		return uc.record(ctx, req, rawPayload, domain.ReasonInvalidBillRef)
	}

	customer, err := uc.resolveCustomer(ctx, req.BillRefNumber, req.RefType)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve customer: %w", err)
	}
	if customer == nil || !customer.Active() {
		uc.logger.Warn("bill reference does not resolve to an active customer",
			zap.String("transaction_id", req.TransactionID),
			zap.String("bill_ref_number", req.BillRefNumber),
			zap.String("ref_type", string(req.RefType)))
		return uc.record(ctx, req, rawPayload, domain.ReasonUnresolvableTarget)
	}

	if req.Amount < uc.cfg.IPN.MinAmount || req.Amount > uc.cfg.IPN.MaxAmount {
		uc.logger.Warn("amount out of configured bounds",
			zap.String("transaction_id", req.TransactionID),
			zap.Float64("amount", req.Amount),
			zap.Float64("min", uc.cfg.IPN.MinAmount),
			zap.Float64("max", uc.cfg.IPN.MaxAmount))
		return uc.record(ctx, req, rawPayload, domain.ReasonAmountOutOfBounds)
	}

	return uc.record(ctx, req, rawPayload, "")
}

// record persists the verdict (empty reasonCode means accepted) and returns
// it. When the transactionId already exists the stored verdict wins, the
// fresh computation is discarded.
func (uc *ValidationUsecase) record(ctx context.Context, req *domain.ValidationRequest, rawPayload []byte, reasonCode string) (*domain.ValidationVerdict, error) {
	accepted := reasonCode == ""

	n := &domain.Notification{
		IPNRef:        uc.refs.NewIPNRef(),
		TransactionID: req.TransactionID,
		BillRefNumber: req.BillRefNumber,
		RefType:       req.RefType,
		Amount:        req.Amount,
		Currency:      req.Currency,
		MSISDN:        req.MSISDN,
		Status:        domain.StatusValidated,
		Validated:     true,
		RawPayload:    string(rawPayload),
		ReceivedAt:    time.Now().UTC(),
	}
	if req.MerchantMSISDN != "" {
		n.MerchantMSISDN = &req.MerchantMSISDN
	}
	if !accepted {
		n.Status = domain.StatusRejected
		n.Validated = false
		n.ReasonCode = &reasonCode
	}

	stored, inserted, err := uc.notifications.InsertIfAbsent(ctx, n)
	if err != nil {
		uc.logger.Error("failed to store validation outcome",
			zap.String("transaction_id", req.TransactionID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to store validation outcome: %w", err)
	}

	if !inserted {
		verdict := &domain.ValidationVerdict{
			Accepted:      stored.Accepted(),
			TransactionID: stored.TransactionID,
		}
		if stored.ReasonCode != nil {
			verdict.ReasonCode = *stored.ReasonCode
		}
		uc.logger.Info("duplicate validation delivery, replaying stored verdict",
			zap.String("transaction_id", stored.TransactionID),
			zap.Bool("accepted", verdict.Accepted))
		return verdict, nil
	}

	message := "transaction validated successfully"
	if !accepted {
		message = "validation rejected: " + reasonCode
	}
	if err := uc.results.CreateValidationResult(ctx, stored.ID, accepted, message); err != nil {
		// Audit row is reconciliation data, not the verdict of record; the
		// notification row already carries the outcome.
		uc.logger.Error("failed to write validation audit row",
			zap.String("transaction_id", stored.TransactionID),
			zap.Error(err))
	}

	uc.logger.Info("validation verdict recorded",
		zap.String("transaction_id", stored.TransactionID),
		zap.String("ipn_ref", stored.IPNRef),
		zap.Bool("accepted", accepted),
		zap.String("reason_code", reasonCode))

	return &domain.ValidationVerdict{
		Accepted:      accepted,
		ReasonCode:    reasonCode,
		TransactionID: stored.TransactionID,
	}, nil
}

// resolveCustomer looks up the bill reference target, cache first. Cache
// errors degrade to the store.
func (uc *ValidationUsecase) resolveCustomer(ctx context.Context, billRef string, refType domain.RefType) (*domain.Customer, error) {
	if customer, err := uc.customerCache.Get(ctx, billRef, refType); err == nil {
		return customer, nil
	}

	customer, err := uc.customers.FindByBillRef(ctx, billRef, refType)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	uc.customerCache.Set(ctx, customer)
	return customer, nil
}
