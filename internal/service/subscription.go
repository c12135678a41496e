package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/growtools/backend/internal/domain"
	"github.com/growtools/backend/pkg/crypto"
	"github.com/growtools/backend/pkg/payment"
)

// SubscriptionService owns the activation state machine: payment-triggered
// creation, shared-pool assignment, private activation, suspension, and
// the pause/resume toggle. It is the gate the access gateway consults
// before any cookie decrypt.
type SubscriptionService struct {
	subs    SubscriptionStore
	pools   PoolStore
	users   UserStore
	tools   ToolStore
	audit   AuditStore
	gateway payment.Gateway
	enc     *crypto.Encryptor
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(
	subs SubscriptionStore,
	pools PoolStore,
	users UserStore,
	tools ToolStore,
	audit AuditStore,
	gateway payment.Gateway,
	enc *crypto.Encryptor,
) *SubscriptionService {
	return &SubscriptionService{
		subs:    subs,
		pools:   pools,
		users:   users,
		tools:   tools,
		audit:   audit,
		gateway: gateway,
		enc:     enc,
	}
}

// CreateCheckout creates a payment page for a tool plan. The user/tool/plan
// context rides along as metadata so the webhook can recover it.
func (s *SubscriptionService) CreateCheckout(ctx context.Context, userID, toolID, planType string) (*domain.PaymentLinkResponse, error) {
	tool, err := s.tools.FindByID(ctx, toolID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load tool", err)
	}
	if tool == nil {
		return nil, domain.ErrNotFound("tool not found")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load user", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthorized("unknown user")
	}

	price := tool.PriceShared
	if planType == domain.PlanPrivate {
		price = tool.PricePrivate
	}
	if price <= 0 {
		return nil, domain.ErrBadRequest("plan is not purchasable for this tool")
	}

	orderID := uuid.New().String()
	resp, err := s.gateway.CreatePayment(ctx, &payment.CreatePaymentRequest{
		OrderID:       orderID,
		Amount:        price,
		CustomerEmail: user.Email,
		Metadata: map[string]string{
			"userId":   userID,
			"toolId":   toolID,
			"planType": planType,
		},
	})
	if err != nil {
		return nil, domain.ErrInternal("failed to create payment link", err)
	}

	return &domain.PaymentLinkResponse{PaymentURL: resp.PaymentURL, OrderID: resp.OrderID}, nil
}

// HandlePaymentSuccess creates the subscription for a confirmed payment.
// SHARED plans are activated immediately against the least-loaded pool;
// PRIVATE plans start PENDING until an admin issues credentials.
func (s *SubscriptionService) HandlePaymentSuccess(ctx context.Context, userID, toolID, planType, orderID string) (*domain.ToolSubscription, error) {
	now := time.Now()
	sub := &domain.ToolSubscription{
		ID:                 uuid.New().String(),
		UserID:             userID,
		ToolID:             toolID,
		PlanType:           planType,
		Status:             domain.SubStatusActive,
		OrderID:            orderID,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0), // 1 month
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	switch planType {
	case domain.PlanShared:
		pool, err := s.assignPool(ctx, toolID)
		if err != nil {
			return nil, err
		}
		sub.ActivationStatus = domain.ActivationActive
		sub.PoolID = &pool.ID
	case domain.PlanPrivate:
		sub.ActivationStatus = domain.ActivationPending
	default:
		return nil, domain.ErrBadRequest("unknown plan type: " + planType)
	}

	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, domain.ErrInternal("failed to create subscription", err)
	}

	log.Printf("[subscription] created %s (%s/%s) for user %s, activation=%s",
		sub.ID, toolID, planType, userID, sub.ActivationStatus)
	return sub, nil
}

// assignPool picks the pool with the fewest occupants that has headroom,
// creating a fresh one when every pool for the tool is full. The increment
// is guarded so a pool never exceeds capacity even when two purchases race
// for the last seat.
func (s *SubscriptionService) assignPool(ctx context.Context, toolID string) (*domain.CredentialPool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		pool, err := s.pools.FindAvailable(ctx, toolID)
		if err != nil {
			return nil, domain.ErrInternal("failed to select credential pool", err)
		}
		if pool == nil {
			break
		}
		if err := s.pools.Increment(ctx, pool.ID); err != nil {
			// Lost the race for the last seat; reselect.
			log.Printf("[subscription] pool %s filled up during assignment, reselecting", pool.ID)
			continue
		}
		return pool, nil
	}

	pool := &domain.CredentialPool{
		ID:        uuid.New().String(),
		ToolID:    toolID,
		MaxUsers:  domain.DefaultPoolCapacity,
		CreatedAt: time.Now(),
	}
	if err := s.pools.Create(ctx, pool); err != nil {
		return nil, domain.ErrInternal("failed to create credential pool", err)
	}
	if err := s.pools.Increment(ctx, pool.ID); err != nil {
		return nil, domain.ErrInternal("failed to occupy new credential pool", err)
	}
	log.Printf("[subscription] created new credential pool %s for tool %s", pool.ID, toolID)
	return pool, nil
}

// ActivatePrivate moves a PENDING private subscription to ACTIVE, storing
// the admin-issued dedicated credentials encrypted.
func (s *SubscriptionService) ActivatePrivate(ctx context.Context, adminID, subID string, req *domain.ActivateSubscriptionRequest) error {
	sub, err := s.subs.FindByID(ctx, subID)
	if err != nil {
		return domain.ErrInternal("failed to load subscription", err)
	}
	if sub == nil {
		return domain.ErrNotFound("subscription not found")
	}
	if sub.PlanType != domain.PlanPrivate {
		return domain.ErrBadRequest("only private subscriptions require manual activation")
	}
	if sub.ActivationStatus != domain.ActivationPending {
		return domain.ErrBadRequest("subscription is not pending activation")
	}

	encrypted, err := s.enc.EncryptJSON(map[string]string{
		"loginEmail":    req.LoginEmail,
		"loginPassword": req.LoginPassword,
	})
	if err != nil {
		return domain.ErrInternal("failed to encrypt credentials", err)
	}

	if err := s.subs.UpdateActivation(ctx, subID, domain.ActivationActive, &encrypted); err != nil {
		return domain.ErrInternal("failed to activate subscription", err)
	}

	s.appendAudit(ctx, adminID, domain.AuditSubscriptionActivated, subID, "private credentials issued")
	return nil
}

// Suspend marks a subscription SUSPENDED. When it was the user's last
// active subscription, the account itself is downgraded too.
func (s *SubscriptionService) Suspend(ctx context.Context, adminID, subID string) error {
	sub, err := s.subs.FindByID(ctx, subID)
	if err != nil {
		return domain.ErrInternal("failed to load subscription", err)
	}
	if sub == nil {
		return domain.ErrNotFound("subscription not found")
	}

	if err := s.subs.UpdateActivation(ctx, subID, domain.ActivationSuspended, nil); err != nil {
		return domain.ErrInternal("failed to suspend subscription", err)
	}

	remaining, err := s.subs.CountActiveByUser(ctx, sub.UserID, subID)
	if err != nil {
		return domain.ErrInternal("failed to count active subscriptions", err)
	}
	if remaining == 0 {
		if err := s.users.UpdateStatus(ctx, sub.UserID, domain.UserStatusSuspended); err != nil {
			return domain.ErrInternal("failed to suspend user account", err)
		}
		log.Printf("[subscription] user %s downgraded to SUSPENDED (no active subscriptions left)", sub.UserID)
	}

	s.appendAudit(ctx, adminID, domain.AuditSubscriptionSuspended, subID, "")
	return nil
}

// Pause toggles an ACTIVE subscription to PAUSED. Activation state (and
// any assigned credentials) stays untouched; access is simply denied while
// paused.
func (s *SubscriptionService) Pause(ctx context.Context, userID, subID string) error {
	return s.togglePause(ctx, userID, subID, domain.SubStatusActive, domain.SubStatusPaused)
}

// Resume toggles a PAUSED subscription back to ACTIVE.
func (s *SubscriptionService) Resume(ctx context.Context, userID, subID string) error {
	return s.togglePause(ctx, userID, subID, domain.SubStatusPaused, domain.SubStatusActive)
}

func (s *SubscriptionService) togglePause(ctx context.Context, userID, subID, from, to string) error {
	sub, err := s.subs.FindByID(ctx, subID)
	if err != nil {
		return domain.ErrInternal("failed to load subscription", err)
	}
	if sub == nil || sub.UserID != userID {
		return domain.ErrNotFound("subscription not found")
	}
	if sub.Status != from {
		return domain.ErrBadRequest(fmt.Sprintf("subscription is %s, not %s", sub.Status, from))
	}
	if err := s.subs.UpdateStatus(ctx, subID, to); err != nil {
		return domain.ErrInternal("failed to update subscription", err)
	}
	return nil
}

// ListForUser returns all of a user's subscriptions.
func (s *SubscriptionService) ListForUser(ctx context.Context, userID string) ([]*domain.ToolSubscription, error) {
	subs, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.ErrInternal("failed to list subscriptions", err)
	}
	return subs, nil
}

// Authorize decides whether the user may access the tool's cookies right
// now. Each unmet condition maps to its own error so the UI can name it.
// Expiry is recomputed from CurrentPeriodEnd on every call.
func (s *SubscriptionService) Authorize(ctx context.Context, userID, toolID string) error {
	sub, err := s.subs.FindByUserAndTool(ctx, userID, toolID)
	if err != nil {
		return domain.ErrInternal("failed to load subscription", err)
	}
	if sub == nil {
		return domain.ErrNoSubscription
	}

	switch sub.Status {
	case domain.SubStatusCanceled:
		return domain.ErrSubscriptionCanceled
	case domain.SubStatusPaused:
		return domain.ErrSubscriptionPaused
	}

	switch sub.ActivationStatus {
	case domain.ActivationPending:
		return domain.ErrActivationPending
	case domain.ActivationSuspended:
		return domain.ErrSubscriptionSuspended
	}

	if sub.Expired(time.Now()) {
		return domain.ErrSubscriptionExpired
	}
	return nil
}

func (s *SubscriptionService) appendAudit(ctx context.Context, adminID, action, targetID, detail string) {
	entry := &domain.AdminLog{
		ID:         domain.NewID(),
		AdminID:    adminID,
		Action:     action,
		TargetType: "subscription",
		TargetID:   targetID,
		Detail:     detail,
		CreatedAt:  time.Now(),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		log.Printf("[subscription] failed to append audit entry (%s on %s): %v", action, targetID, err)
	}
}
