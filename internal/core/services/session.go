package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
	"github.com/custodia-labs/passage-highlights/internal/core/ports/driven"
	"github.com/custodia-labs/passage-highlights/internal/core/ports/driving"
	"github.com/custodia-labs/passage-highlights/internal/runtime"
)

// Ensure sessionService implements SessionService
var _ driving.SessionService = (*sessionService)(nil)

const leasePrefix = "session:"

// LeaseName returns the lease held by the instance serving a session
func LeaseName(sessionID string) string {
	return leasePrefix + sessionID
}

// sessionService implements the SessionService interface
type sessionService struct {
	sessions *runtime.Sessions
	tokens   driven.SessionTokenAdapter
	bridge   *PersistenceBridge
	leases   driven.DistributedLock
	tokenTTL time.Duration
	leaseTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time

	// resuming collapses concurrent resumes of one session into a single recovery
	resuming singleflight.Group
}

// SessionServiceConfig holds dependencies for the SessionService.
type SessionServiceConfig struct {
	Sessions *runtime.Sessions
	Tokens   driven.SessionTokenAdapter
	Bridge   *PersistenceBridge
	Leases   driven.DistributedLock // optional; nil for single-instance deployments
	TokenTTL time.Duration
	LeaseTTL time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

// NewSessionService creates a new SessionService
func NewSessionService(cfg SessionServiceConfig) driving.SessionService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	tokenTTL := cfg.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	leaseTTL := cfg.LeaseTTL
	if leaseTTL <= 0 {
		leaseTTL = 2 * time.Minute
	}
	return &sessionService{
		sessions: cfg.Sessions,
		tokens:   cfg.Tokens,
		bridge:   cfg.Bridge,
		leases:   cfg.Leases,
		tokenTTL: tokenTTL,
		leaseTTL: leaseTTL,
		logger:   logger,
		now:      now,
	}
}

// Start opens a new empty session
func (s *sessionService) Start(ctx context.Context) (*domain.SessionStarted, error) {
	sessionID := uuid.New().String()

	if s.leases != nil {
		if _, err := s.leases.Acquire(ctx, LeaseName(sessionID), s.leaseTTL); err != nil {
			s.logger.Warn("failed to take session lease", "session_id", sessionID, "error", err)
		}
	}

	ws := domain.NewWorkspace(sessionID, s.now())
	// Mirror the empty workspace so the session can be resumed right away.
	ws.MarkDirty()
	s.sessions.Put(ws)

	s.logger.Info("session started", "session_id", sessionID)
	return s.issue(ws)
}

// Resume re-attaches to a session
func (s *sessionService) Resume(ctx context.Context, sessionID string) (*domain.SessionStarted, error) {
	if sessionID == "" {
		return nil, domain.ErrInvalidInput
	}
	if ws, ok := s.keepAlive(sessionID); ok {
		return s.issue(ws)
	}

	v, err, _ := s.resuming.Do(sessionID, func() (any, error) {
		return s.recover(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}
	return s.issue(v.(*domain.Workspace))
}

func (s *sessionService) recover(ctx context.Context, sessionID string) (*domain.Workspace, error) {
	if ws, ok := s.keepAlive(sessionID); ok {
		return ws, nil
	}

	if s.leases != nil {
		acquired, err := s.leases.Acquire(ctx, LeaseName(sessionID), s.leaseTTL)
		if err != nil {
			return nil, err
		}
		if !acquired {
			return nil, domain.ErrSessionLocked
		}
	}

	snap, err := s.bridge.Recover(ctx, sessionID)
	if err != nil {
		s.releaseLease(ctx, sessionID)
		return nil, err
	}
	ws := domain.NewWorkspace(sessionID, s.now())
	if err := ws.Recover(snap); err != nil {
		s.releaseLease(ctx, sessionID)
		s.logger.Error("unusable recovery snapshot", "session_id", sessionID, "error", err)
		return nil, err
	}
	s.sessions.Put(ws)

	s.logger.Info("session recovered", "session_id", sessionID, "documents", ws.Store.Len())
	return ws, nil
}

// keepAlive touches the live workspace of a session. It fails when the
// session is not live here, or was evicted while being touched.
func (s *sessionService) keepAlive(sessionID string) (*domain.Workspace, bool) {
	ws, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, false
	}
	ws.Lock()
	ws.Touch(s.now(), false)
	ws.Unlock()

	current, err := s.sessions.Get(sessionID)
	return ws, err == nil && current == ws
}

func (s *sessionService) issue(ws *domain.Workspace) (*domain.SessionStarted, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	token, err := s.tokens.GenerateToken(&domain.SessionClaims{
		SessionID: ws.SessionID,
		IssuedAt:  now.Unix(),
		ExpiresAt: expiresAt.Unix(),
	})
	if err != nil {
		return nil, err
	}

	ws.Lock()
	docs := ws.Store.IDs()
	ws.Unlock()

	return &domain.SessionStarted{
		SessionID: ws.SessionID,
		Token:     token,
		ExpiresAt: expiresAt,
		Documents: docs,
	}, nil
}

// Validate checks a session token and returns the session it names
func (s *sessionService) Validate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrTokenInvalid
	}
	claims, err := s.tokens.ParseToken(token)
	if errors.Is(err, domain.ErrTokenExpired) {
		return "", domain.ErrTokenExpired
	}
	if err != nil {
		return "", domain.ErrTokenInvalid
	}
	if claims.IsExpired(s.now()) {
		return "", domain.ErrTokenExpired
	}
	if _, err := s.sessions.Get(claims.SessionID); err != nil {
		return "", domain.ErrSessionNotFound
	}
	return claims.SessionID, nil
}

// Get returns a summary of a live session
func (s *sessionService) Get(ctx context.Context, sessionID string) (*domain.SessionInfo, error) {
	ws, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	ws.Lock()
	defer ws.Unlock()
	return info(ws), nil
}

// SetSubject records the content type being displayed
func (s *sessionService) SetSubject(ctx context.Context, sessionID, subject string) (*domain.SessionInfo, error) {
	ws, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	ws.Lock()
	defer ws.Unlock()

	ws.SetSubject(subject)
	ws.Touch(s.now(), true)
	return info(ws), nil
}

// Reset clears all annotation state of a session. Durable records are kept;
// commits still in flight are dropped as stale.
func (s *sessionService) Reset(ctx context.Context, sessionID string) error {
	ws, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	ws.Lock()
	ws.Reset(s.now())
	ws.MarkDirty()
	ws.Unlock()

	s.logger.Info("session reset", "session_id", sessionID)
	return nil
}

// End closes a session
func (s *sessionService) End(ctx context.Context, sessionID string) error {
	if ws := s.sessions.Remove(sessionID); ws == nil {
		return domain.ErrSessionNotFound
	}

	if err := s.bridge.DropRecovery(ctx, sessionID); err != nil {
		s.logger.Warn("failed to drop recovery snapshot", "session_id", sessionID, "error", err)
	}
	s.releaseLease(ctx, sessionID)

	s.logger.Info("session ended", "session_id", sessionID)
	return nil
}

func (s *sessionService) releaseLease(ctx context.Context, sessionID string) {
	if s.leases == nil {
		return
	}
	if err := s.leases.Release(ctx, LeaseName(sessionID)); err != nil {
		s.logger.Warn("failed to release session lease", "session_id", sessionID, "error", err)
	}
}

func info(ws *domain.Workspace) *domain.SessionInfo {
	return &domain.SessionInfo{
		SessionID:      ws.SessionID,
		Subject:        ws.Subject(),
		ActiveDocument: ws.ActiveDocument(),
		Documents:      ws.Store.IDs(),
		Consumers:      ws.Registry.Len(),
		CreatedAt:      ws.CreatedAt,
	}
}
