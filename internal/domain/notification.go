// internal/domain/notification.go
package domain

import (
	"time"
)

type NotificationStatus string

const (
	StatusReceived  NotificationStatus = "received"
	StatusValidated NotificationStatus = "validated"
	StatusRejected  NotificationStatus = "rejected"
	StatusProcessed NotificationStatus = "processed"
	StatusFailed    NotificationStatus = "failed"
)

// forwardTransitions is the full state machine. Every status not present as
// a key is terminal.
var forwardTransitions = map[NotificationStatus][]NotificationStatus{
	StatusReceived:  {StatusValidated, StatusRejected},
	StatusValidated: {StatusProcessed, StatusFailed},
}

// CanTransition reports whether moving from one status to the next is a
// forward-valid transition. Transitions never reverse and never skip a state.
func CanTransition(from, to NotificationStatus) bool {
	for _, next := range forwardTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PriorStatuses returns the set of statuses from which the given status is
// reachable. Used by the store to guard UPDATEs.
func PriorStatuses(to NotificationStatus) []NotificationStatus {
	var priors []NotificationStatus
	for from, nexts := range forwardTransitions {
		for _, next := range nexts {
			if next == to {
				priors = append(priors, from)
			}
		}
	}
	return priors
}

// IsTerminal reports whether a notification in this status can never change
// again.
func (s NotificationStatus) IsTerminal() bool {
	return len(forwardTransitions[s]) == 0
}

// Notification is one row per received IPN callback. transaction_id is the
// natural idempotency key, unique at the store level. Rows are never deleted.
type Notification struct {
	ID             int64   `json:"id" db:"id"`
	IPNRef         string  `json:"ipn_ref" db:"ipn_ref"`
	TransactionID  string  `json:"transaction_id" db:"transaction_id"`
	BillRefNumber  string  `json:"bill_ref_number" db:"bill_ref_number"`
	RefType        RefType `json:"ref_type" db:"ref_type"`
	Amount         float64 `json:"amount" db:"amount"`
	Currency       string  `json:"currency" db:"currency"`
	MSISDN         string  `json:"msisdn" db:"msisdn"`
	MerchantMSISDN *string `json:"merchant_msisdn,omitempty" db:"merchant_msisdn"`

	Status     NotificationStatus `json:"status" db:"status"`
	Validated  bool               `json:"validated" db:"validated"`
	ReasonCode *string            `json:"reason_code,omitempty" db:"reason_code"`

	MobiquityReference *string    `json:"mobiquity_reference,omitempty" db:"mobiquity_reference"`
	SettledAmount      *float64   `json:"settled_amount,omitempty" db:"settled_amount"`
	SettledAt          *time.Time `json:"settled_at,omitempty" db:"settled_at"`

	RawPayload string `json:"raw_payload,omitempty" db:"raw_payload"`

	ReceivedAt  time.Time  `json:"received_at" db:"received_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty" db:"processed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Accepted reports the verdict previously computed for this notification,
// for replaying duplicate validation deliveries.
func (n *Notification) Accepted() bool {
	return n.Status != StatusRejected
}
