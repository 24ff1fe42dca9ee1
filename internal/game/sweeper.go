package game

import (
	"context"
	"time"

	"chat-realtime/pkg/logger"
)

// ExpiryPolicy decides when an untouched session is dropped. PendingTTL
// applies to sessions nobody is playing (awaiting a join or already
// finished), IdleTTL to sessions still in progress. A zero TTL disables
// that rule.
type ExpiryPolicy struct {
	PendingTTL time.Duration
	IdleTTL    time.Duration
}

func (p ExpiryPolicy) expired(s *Session, now time.Time) bool {
	idle := now.Sub(s.UpdatedAt)
	if s.Status == StatusInProgress {
		return p.IdleTTL > 0 && idle > p.IdleTTL
	}
	return p.PendingTTL > 0 && idle > p.PendingTTL
}

// Evict removes every session the policy considers expired at now and
// returns their ids
func (s *Store) Evict(policy ExpiryPolicy, now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []string
	for id, e := range s.sessions {
		if policy.expired(e.session, now) {
			delete(s.sessions, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// Sweeper periodically evicts expired sessions from a Store
type Sweeper struct {
	store    *Store
	policy   ExpiryPolicy
	interval time.Duration
	log      *logger.Logger

	// OnEvict, when set, is called after every sweep that removed sessions
	OnEvict func(ids []string)
}

func NewSweeper(store *Store, policy ExpiryPolicy, interval time.Duration, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Sweeper{
		store:    store,
		policy:   policy,
		interval: interval,
		log:      log.Named("sweeper"),
	}
}

// Run sweeps on every tick until ctx is cancelled
func (sw *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	sw.log.Info("Session sweeper started", "interval", sw.interval.String())
	for {
		select {
		case <-ctx.Done():
			sw.log.Info("Session sweeper stopped")
			return
		case now := <-ticker.C:
			sw.Sweep(now)
		}
	}
}

// Sweep runs a single eviction pass
func (sw *Sweeper) Sweep(now time.Time) []string {
	ids := sw.store.Evict(sw.policy, now)
	if len(ids) == 0 {
		return nil
	}
	sw.log.Info("Evicted expired game sessions", "count", len(ids), "remaining", sw.store.Len())
	if sw.OnEvict != nil {
		sw.OnEvict(ids)
	}
	return ids
}
