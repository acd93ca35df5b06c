package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/eda/internal/logging"
	"github.com/JonMunkholm/eda/internal/metric"
	"github.com/JonMunkholm/eda/internal/table"
)

// ServiceConfig configures a Service. Zero values take defaults.
type ServiceConfig struct {
	MaxSessions        int           // 0 means unlimited
	IdleTimeout        time.Duration // sessions unused this long are evicted
	MaxFileSize        int64         // bytes; 0 means unlimited
	MaxConcurrentLoads int
	MaxLoadWait        time.Duration
	Load               table.LoadOptions
	Metric             metric.Limits
	Audit              AuditStore // nil means an in-memory store
}

// DefaultIdleTimeout is used when ServiceConfig.IdleTimeout is zero.
const DefaultIdleTimeout = 2 * time.Hour

// Service hosts one DatasetSession per user session and wraps every session
// operation with load limiting, audit recording and logging.
type Service struct {
	cfg       ServiceConfig
	limiter   *LoadLimiter
	audit     AuditStore
	evaluator *metric.Evaluator
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*hostedSession
}

type hostedSession struct {
	id      string
	created time.Time
	data    *DatasetSession

	mu       sync.Mutex
	lastSeen time.Time
	pending  *pendingLoad
}

// pendingLoad is an upload waiting for a missing-value decision.
type pendingLoad struct {
	table    *table.Table
	report   table.MissingReport
	fileName string
}

// NewService creates a Service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Audit == nil {
		cfg.Audit = NewMemoryAuditStore(DefaultAuditCapacity)
	}
	return &Service{
		cfg:       cfg,
		limiter:   NewLoadLimiter(cfg.MaxConcurrentLoads, cfg.MaxLoadWait),
		audit:     cfg.Audit,
		evaluator: metric.NewEvaluator(cfg.Metric),
		now:       time.Now,
		sessions:  make(map[string]*hostedSession),
	}
}

// CreateSession starts a new empty session and returns its ID.
func (s *Service) CreateSession(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.MaxSessions > 0 && len(s.sessions) >= s.cfg.MaxSessions {
		return "", ErrTooManySessions
	}

	now := s.now()
	h := &hostedSession{
		id:       uuid.NewString(),
		created:  now,
		lastSeen: now,
		data:     NewDatasetSession(),
	}
	s.sessions[h.id] = h
	logging.ForSession(ctx, h.id).Debug("session created", "active_sessions", len(s.sessions))
	return h.id, nil
}

// EnsureSession returns id when it names a live session, or creates a new one.
func (s *Service) EnsureSession(ctx context.Context, id string) (string, error) {
	if id != "" {
		if _, err := s.lookup(id); err == nil {
			return id, nil
		}
	}
	return s.CreateSession(ctx)
}

// Session returns the dataset session for id.
func (s *Service) Session(id string) (*DatasetSession, error) {
	h, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return h.data, nil
}

// CloseSession discards a session and any pending upload.
func (s *Service) CloseSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sessions summarizes every live session.
func (s *Service) Sessions() []SessionInfo {
	s.mu.RLock()
	hosted := make([]*hostedSession, 0, len(s.sessions))
	for _, h := range s.sessions {
		hosted = append(hosted, h)
	}
	s.mu.RUnlock()

	out := make([]SessionInfo, 0, len(hosted))
	for _, h := range hosted {
		h.mu.Lock()
		info := SessionInfo{ID: h.id, CreatedAt: h.created, LastSeen: h.lastSeen, Pending: h.pending != nil}
		h.mu.Unlock()
		info.State = h.data.State()
		out = append(out, info)
	}
	return out
}

// EvictIdle removes sessions unused since before now minus the idle timeout
// and returns how many were removed.
func (s *Service) EvictIdle(ctx context.Context) int {
	cutoff := s.now().Add(-s.cfg.IdleTimeout)

	s.mu.Lock()
	var expired []string
	for id, h := range s.sessions {
		h.mu.Lock()
		idle := h.lastSeen.Before(cutoff)
		h.mu.Unlock()
		if idle {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		s.record(ctx, NewAuditEntry(ctx, ActionSessionExpired, id))
	}
	return len(expired)
}

// LimiterStatus reports load limiter usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// Shutdown waits for in-flight loads to finish or ctx to end.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// lookup finds a session and marks it as used.
func (s *Service) lookup(id string) (*hostedSession, error) {
	s.mu.RLock()
	h, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	h.mu.Lock()
	h.lastSeen = s.now()
	h.mu.Unlock()
	return h, nil
}

// record writes an audit entry. Audit failures are logged, never returned.
func (s *Service) record(ctx context.Context, e AuditEntry) {
	if err := s.audit.Insert(ctx, e); err != nil {
		logging.ForSession(ctx, e.SessionID).Error("audit insert failed",
			"action", e.Action,
			"error", err,
		)
	}
}
