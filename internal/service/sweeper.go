package service

import (
	"context"
	"log"
	"time"
)

// SweepService periodically surfaces subscriptions whose billing period
// has lapsed while still marked ACTIVE. Reporting only: the authorization
// path always recomputes expiry itself, so nothing is transitioned here.
type SweepService struct {
	subs     SubscriptionStore
	interval time.Duration
}

// NewSweepService creates a sweep service with the given interval.
func NewSweepService(subs SubscriptionStore, interval time.Duration) *SweepService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SweepService{subs: subs, interval: interval}
}

// Start begins the sweep loop in a background goroutine. It stops when
// the context is canceled.
func (s *SweepService) Start(ctx context.Context) {
	go func() {
		s.sweep(ctx)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *SweepService) sweep(ctx context.Context) {
	expired, err := s.subs.ListExpired(ctx, time.Now())
	if err != nil {
		log.Printf("[sweep] failed to list expired subscriptions: %v", err)
		return
	}
	if len(expired) == 0 {
		return
	}
	log.Printf("[sweep] %d subscriptions past their billing period", len(expired))
	for _, sub := range expired {
		log.Printf("[sweep] subscription %s (user %s, tool %s) expired %s",
			sub.ID, sub.UserID, sub.ToolID, sub.CurrentPeriodEnd.Format(time.RFC3339))
	}
}
