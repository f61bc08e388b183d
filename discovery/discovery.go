// Package discovery turns raw beacon signals into repository membership
// changes: decoding an observed peer's MeshContext, inserting or refreshing
// it, and periodically sweeping the repository for peers that have gone
// quiet.
package discovery

import (
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/coaxial/meshbus/aggregator"
	"github.com/coaxial/meshbus/beacon"
	"github.com/coaxial/meshbus/mesh"
)

// Config controls the eviction sweep's cadence and threshold.
type Config struct {
	CleanupInterval   time.Duration
	InactiveThreshold time.Duration
}

// Service bridges a Beacon's Signals channel and a periodic eviction sweep
// into Repository/Aggregator updates.
type Service struct {
	cfg    Config
	repo   *mesh.Repository
	agg    *aggregator.Aggregator
	beacon *beacon.Beacon
	logger *zap.Logger

	done chan struct{}
}

// New returns a Service ready to Start.
func New(cfg Config, repo *mesh.Repository, agg *aggregator.Aggregator, b *beacon.Beacon, logger *zap.Logger) *Service {
	return &Service{cfg: cfg, repo: repo, agg: agg, beacon: b, logger: logger, done: make(chan struct{})}
}

// Start launches the signal-consuming and sweep goroutines.
func (s *Service) Start() {
	go s.consumeSignals()
	go s.sweep()
}

// Stop signals both goroutines to exit. It does not stop the underlying
// Beacon; the caller owns that shutdown order.
func (s *Service) Stop() {
	close(s.done)
}

func (s *Service) consumeSignals() {
	for {
		select {
		case <-s.done:
			return
		case sig, ok := <-s.beacon.Signals():
			if !ok {
				return
			}
			s.onSignal(sig)
		}
	}
}

func (s *Service) onSignal(sig *beacon.Signal) {
	var peer mesh.MeshContext
	if err := msgpack.Unmarshal(sig.Transmit, &peer); err != nil {
		s.logger.Debug("malformed beacon payload", zap.String("addr", sig.Addr), zap.Error(err))
		return
	}

	peer.Self = false
	peer.LastSeen = time.Now()

	if s.repo.Touch(peer.MeshId, peer) {
		return
	}
	s.repo.Insert(peer)
	s.agg.Publish(aggregator.MeshJoined{Peer: peer})
}

func (s *Service) sweep() {
	interval := s.cfg.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *Service) evictExpired() {
	cutoff := time.Now().Add(-s.cfg.InactiveThreshold)
	for _, peer := range s.repo.ExpiredBefore(cutoff) {
		if _, ok := s.repo.Remove(peer.MeshId); ok {
			s.agg.Publish(aggregator.MeshRemoved{Peer: peer})
		}
	}
}
