package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPartial PaymentStatus = "PARTIAL"
	PaymentPaid    PaymentStatus = "PAID"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPartial, PaymentPaid:
		return true
	default:
		return false
	}
}

// StatusFor derives the payment status from the recorded total. A ledger with
// no payments stays PENDING.
func StatusFor(amountPaid, acceptedPrice int64, hasPayments bool) PaymentStatus {
	switch {
	case !hasPayments:
		return PaymentPending
	case amountPaid >= acceptedPrice:
		return PaymentPaid
	default:
		return PaymentPartial
	}
}

// Financial is the payment ledger header created when an offer is accepted.
// Amounts are in minor currency units. FreelancerID and ManagerID are copied
// from the offer and project so row policies can be evaluated on this table alone.
type Financial struct {
	ID              snowflake.ID  `gorm:"primaryKey" json:"id"`
	ProjectID       snowflake.ID  `gorm:"column:project_id;not null;uniqueIndex:ux_financials_project" json:"project_id"`
	OfferID         snowflake.ID  `gorm:"column:offer_id;not null;uniqueIndex:ux_financials_offer" json:"offer_id"`
	FreelancerID    snowflake.ID  `gorm:"column:freelancer_id;not null;index" json:"freelancer_id"`
	ManagerID       snowflake.ID  `gorm:"column:manager_id;not null;index" json:"manager_id"`
	AcceptedPrice   int64         `gorm:"column:accepted_price;not null" json:"accepted_price"`
	EstimatedBudget int64         `gorm:"column:estimated_budget;not null" json:"estimated_budget"`
	AmountPaid      int64         `gorm:"column:amount_paid;not null;default:0" json:"amount_paid"`
	PaymentStatus   PaymentStatus `gorm:"column:payment_status;type:text;not null" json:"payment_status"`
	CreatedAt       time.Time     `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Financial) TableName() string { return "financials" }

func (f Financial) Remaining() int64 {
	if f.AmountPaid >= f.AcceptedPrice {
		return 0
	}
	return f.AcceptedPrice - f.AmountPaid
}

// Update is an append-only ledger entry. A nil Amount is a note.
type Update struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	FinancialID snowflake.ID `gorm:"column:financial_id;not null;index" json:"financial_id"`
	Amount      *int64       `gorm:"column:amount" json:"amount"`
	Description string       `gorm:"column:description;type:text;not null" json:"description"`
	UpdatedByID snowflake.ID `gorm:"column:updated_by_id;not null" json:"updated_by_id"`
	CreatedAt   time.Time    `gorm:"column:created_at;not null" json:"created_at"`
}

func (Update) TableName() string { return "financial_updates" }
