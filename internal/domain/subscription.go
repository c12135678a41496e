package domain

import "time"

// Plan types. SHARED subscriptions borrow a pooled account (up to 5 users
// per pool); PRIVATE subscriptions wait for an admin to issue dedicated
// credentials.
const (
	PlanShared  = "SHARED"
	PlanPrivate = "PRIVATE"
)

// Subscription lifecycle status (user-facing dimension).
const (
	SubStatusActive   = "ACTIVE"
	SubStatusPaused   = "PAUSED"
	SubStatusCanceled = "CANCELED"
)

// Activation status — the gate between "paid" and "actually usable".
// Orthogonal to the Status field above.
const (
	ActivationPending   = "PENDING"
	ActivationActive    = "ACTIVE"
	ActivationSuspended = "SUSPENDED"
)

// ToolSubscription links a user to a tool. Never deleted, only
// status-transitioned.
type ToolSubscription struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"userId"`
	ToolID             string     `json:"toolId"`
	PlanType           string     `json:"planType"`
	Status             string     `json:"status"`
	ActivationStatus   string     `json:"activationStatus"`
	PoolID             *string    `json:"poolId,omitempty"`
	Credentials        *string    `json:"-"` // encrypted dedicated credentials (PRIVATE)
	OrderID            string     `json:"orderId"`
	CurrentPeriodStart time.Time  `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time  `json:"currentPeriodEnd"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	SuspendedAt        *time.Time `json:"suspendedAt,omitempty"`
}

// Expired reports whether the billing period has lapsed. Expiry is always
// computed at read time, never transitioned eagerly.
func (s *ToolSubscription) Expired(now time.Time) bool {
	return s.CurrentPeriodEnd.Before(now)
}

// CredentialPool is one shared account for a tool plus its occupancy
// counter. Invariant: CurrentUsers <= MaxUsers.
type CredentialPool struct {
	ID            string    `json:"id"`
	ToolID        string    `json:"toolId"`
	LoginEmail    string    `json:"loginEmail"`
	LoginPassword string    `json:"-"`
	CurrentUsers  int       `json:"currentUsers"`
	MaxUsers      int       `json:"maxUsers"`
	CreatedAt     time.Time `json:"createdAt"`
}

// DefaultPoolCapacity is the shared-account capacity per pool.
const DefaultPoolCapacity = 5

// CheckoutRequest is the input for starting a subscription purchase.
type CheckoutRequest struct {
	ToolID   string `json:"toolId" validate:"required"`
	PlanType string `json:"planType" validate:"required,oneof=SHARED PRIVATE"`
}

// PaymentLinkResponse returns the URL to redirect the user to for payment.
type PaymentLinkResponse struct {
	PaymentURL string `json:"paymentUrl"`
	OrderID    string `json:"orderId"`
}

// ActivateSubscriptionRequest carries the dedicated credentials an admin
// issues when activating a PRIVATE subscription.
type ActivateSubscriptionRequest struct {
	LoginEmail    string `json:"loginEmail" validate:"required,email"`
	LoginPassword string `json:"loginPassword" validate:"required,min=1"`
}
