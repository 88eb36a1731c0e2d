// internal/domain/customer.go
package domain

import "time"

type CustomerStatus string

const (
	CustomerActive    CustomerStatus = "active"
	CustomerInactive  CustomerStatus = "inactive"
	CustomerSuspended CustomerStatus = "suspended"
)

// Customer is the resolvable target of a bill reference. A validation call
// only accepts when an active customer exists for (bill_ref, ref_type).
type Customer struct {
	ID            int64          `json:"id" db:"id"`
	BillRefNumber string         `json:"bill_ref_number" db:"bill_ref_number"`
	RefType       RefType        `json:"ref_type" db:"ref_type"`
	MSISDN        string         `json:"msisdn" db:"msisdn"`
	FullName      string         `json:"full_name" db:"full_name"`
	Status        CustomerStatus `json:"status" db:"status"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

func (c *Customer) Active() bool {
	return c.Status == CustomerActive
}
