// internal/domain/request.go
package domain

import (
	"errors"
	"time"
)

// Reason codes returned to the switch on rejection. These are part of the
// integration contract and must stay stable.
const (
	ReasonMissingFields      = "MISSING_FIELDS"
	ReasonUnknownRefType     = "UNKNOWN_REF_TYPE"
	ReasonInvalidBillRef     = "INVALID_BILL_REF"
	ReasonUnresolvableTarget = "UNRESOLVABLE_ACCOUNT"
	ReasonAmountOutOfBounds  = "AMOUNT_OUT_OF_BOUNDS"
)

// ValidationRequest is the candidate transaction descriptor the switch sends
// before forwarding funds.
type ValidationRequest struct {
	TransactionID  string  `json:"transactionId"`
	BillRefNumber  string  `json:"billRefNumber"`
	RefType        RefType `json:"refType"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	MSISDN         string  `json:"msisdn"`
	MerchantMSISDN string  `json:"merchantMsisdn"`
}

// Validate checks field presence only. Business checks (ref type rules,
// customer resolution, amount bounds) belong to the usecase.
func (r *ValidationRequest) Validate() error {
	if r.TransactionID == "" {
		return errors.New("transactionId is required")
	}
	if r.BillRefNumber == "" {
		return errors.New("billRefNumber is required")
	}
	if r.MSISDN == "" {
		return errors.New("msisdn is required")
	}
	if r.Amount == 0 {
		return errors.New("amount is required")
	}
	if r.RefType == "" {
		r.RefType = InferRefType(r.BillRefNumber)
	}
	r.RefType = r.RefType.Normalize()
	if r.Currency == "" {
		r.Currency = "KES"
	}
	return nil
}

// ProcessingRequest is the finalized transaction: the validation fields plus
// settlement details.
type ProcessingRequest struct {
	ValidationRequest
	SettledAmount      float64    `json:"settledAmount"`
	SettledAt          *time.Time `json:"settledAt"`
	MobiquityReference string     `json:"mobiquityReference"`
}

func (r *ProcessingRequest) Validate() error {
	if err := r.ValidationRequest.Validate(); err != nil {
		return err
	}
	if r.SettledAmount <= 0 {
		return errors.New("settledAmount must be greater than 0")
	}
	return nil
}

// ValidationVerdict is the outcome of a validation call, replayed verbatim on
// duplicate deliveries of the same transactionId.
type ValidationVerdict struct {
	Accepted      bool   `json:"accepted"`
	ReasonCode    string `json:"reasonCode,omitempty"`
	TransactionID string `json:"transactionId"`
}

// ProcessingAck is the acknowledgement the switch expects exactly once per
// transactionId.
type ProcessingAck struct {
	Status        NotificationStatus `json:"status"`
	TransactionID string             `json:"transactionId"`
	IPNRef        string             `json:"ipnRef,omitempty"`
	BillRefNumber string             `json:"billRefNumber,omitempty"`
	Amount        float64            `json:"amount,omitempty"`
	Currency      string             `json:"currency,omitempty"`
}
