package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/institute-api/internal/dto"
	"github.com/noah-isme/institute-api/internal/models"
	"github.com/noah-isme/institute-api/internal/repository"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
	"github.com/noah-isme/institute-api/pkg/validation"
)

type sessionStore interface {
	Save(ctx context.Context, session models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	Subscribe(ctx context.Context) (<-chan models.SessionEvent, error)
}

// SessionConfig configures the password gate.
type SessionConfig struct {
	Secret            string
	TTL               time.Duration
	AdminTTL          time.Duration
	SitePasswordHash  string
	AdminPasswordHash string
	// VerifyTTL bounds how long a locally verified session is trusted before the store is
	// consulted again. It caps revocation latency when change events are lost.
	VerifyTTL time.Duration
}

const (
	defaultVerifyTTL = 30 * time.Second
	watchBackoffMin  = time.Second
	watchBackoffMax  = time.Minute
)

type verifiedSession struct {
	session    models.Session
	verifiedAt time.Time
}

type sessionClaims struct {
	Scope models.SessionScope `json:"scope"`
	jwt.RegisteredClaims
}

// SessionService implements the shared-password gate. Tokens are JWTs naming a session
// persisted in the store, so a session survives restarts and is revocable.
type SessionService struct {
	store     sessionStore
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	config    SessionConfig
	now       func() time.Time

	mu       sync.RWMutex
	verified map[string]verifiedSession
}

// NewSessionService constructs a SessionService.
func NewSessionService(store sessionStore, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, config SessionConfig) *SessionService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TTL <= 0 {
		config.TTL = 12 * time.Hour
	}
	if config.AdminTTL <= 0 {
		config.AdminTTL = config.TTL
	}
	if config.VerifyTTL <= 0 {
		config.VerifyTTL = defaultVerifyTTL
	}
	return &SessionService{
		store:     store,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		config:    config,
		now:       time.Now,
		verified:  make(map[string]verifiedSession),
	}
}

// Login checks password against the hash configured for scope and opens a session.
func (s *SessionService) Login(ctx context.Context, scope models.SessionScope, req dto.LoginRequest) (*dto.SessionResponse, error) {
	if !scope.Valid() {
		return nil, fieldError("scope", "scope must be site or admin")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	hash := s.config.SitePasswordHash
	ttl := s.config.TTL
	if scope == models.SessionScopeAdmin {
		hash = s.config.AdminPasswordHash
		ttl = s.config.AdminTTL
	}
	if hash == "" {
		s.logger.Warn("login attempted without configured password hash", zap.String("scope", string(scope)))
		s.metrics.LoginAttempt(string(scope), false)
		return nil, appErrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		s.metrics.LoginAttempt(string(scope), false)
		return nil, appErrors.ErrInvalidCredentials
	}

	now := s.now().UTC().Truncate(time.Second)
	session := models.Session{
		ID:        uuid.NewString(),
		Scope:     scope,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.store.Save(ctx, session); err != nil {
		return nil, appErrors.Internal(err, "failed to persist session")
	}

	token, err := s.sign(session)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign session token")
	}
	s.remember(session)
	s.metrics.LoginAttempt(string(scope), true)
	s.logger.Info("session opened", zap.String("session_id", session.ID), zap.String("scope", string(scope)))

	return &dto.SessionResponse{Token: token, Scope: scope, ExpiresAt: session.ExpiresAt}, nil
}

// Authenticate resolves token to a live session or returns ErrLoginRequired.
func (s *SessionService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, appErrors.ErrLoginRequired
	}
	claims, err := s.parse(token)
	if err != nil {
		return nil, appErrors.ErrLoginRequired
	}

	if session, ok := s.cached(claims.ID); ok {
		return &session, nil
	}

	session, err := s.store.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, appErrors.ErrLoginRequired
		}
		return nil, appErrors.Internal(err, "failed to load session")
	}
	if session.Scope != claims.Scope {
		return nil, appErrors.ErrLoginRequired
	}
	s.remember(*session)
	return session, nil
}

// IsAuthenticated reports whether token names a live session.
func (s *SessionService) IsAuthenticated(ctx context.Context, token string) bool {
	_, err := s.Authenticate(ctx, token)
	return err == nil
}

// State describes the gate for token. Unknown or expired tokens are simply unauthenticated.
func (s *SessionService) State(ctx context.Context, token string) (*dto.SessionState, error) {
	session, err := s.Authenticate(ctx, token)
	if err != nil {
		if errors.Is(err, appErrors.ErrLoginRequired) {
			return &dto.SessionState{Authenticated: false}, nil
		}
		return nil, err
	}
	expiresAt := session.ExpiresAt
	return &dto.SessionState{Authenticated: true, Scope: session.Scope, ExpiresAt: &expiresAt}, nil
}

// Logout revokes the session named by token. Logging out twice is not an error.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	s.forget(claims.ID)
	if err := s.store.Delete(ctx, claims.ID); err != nil {
		return appErrors.Internal(err, "failed to revoke session")
	}
	s.logger.Info("session closed", zap.String("session_id", claims.ID))
	return nil
}

// Watch evicts locally verified sessions when any instance revokes them. It blocks until
// ctx is cancelled or the subscription ends.
func (s *SessionService) Watch(ctx context.Context) error {
	events, err := s.store.Subscribe(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if event.Kind == models.SessionEventRevoked {
				s.forget(event.SessionID)
			}
		}
	}
}

// KeepWatching runs Watch until ctx ends, resubscribing with exponential backoff whenever
// the subscription fails or closes. Events missed while disconnected are covered by
// dropping the local cache on every resubscribe.
func (s *SessionService) KeepWatching(ctx context.Context) {
	backoff := watchBackoffMin
	for {
		started := s.now()
		err := s.Watch(ctx)
		if ctx.Err() != nil {
			return
		}
		s.forgetAll()
		if s.now().Sub(started) > watchBackoffMax {
			backoff = watchBackoffMin
		}
		s.logger.Warn("session watcher disconnected, retrying", zap.Error(err), zap.Duration("backoff", backoff))

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if backoff *= 2; backoff > watchBackoffMax {
			backoff = watchBackoffMax
		}
	}
}

func (s *SessionService) sign(session models.Session) (string, error) {
	claims := sessionClaims{
		Scope: session.Scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			NotBefore: jwt.NewNumericDate(session.CreatedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
}

func (s *SessionService) parse(token string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.ID == "" || !claims.Scope.Valid() {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

func (s *SessionService) cached(id string) (models.Session, bool) {
	s.mu.RLock()
	entry, ok := s.verified[id]
	s.mu.RUnlock()
	if !ok {
		return models.Session{}, false
	}
	now := s.now()
	if !now.Before(entry.session.ExpiresAt) || now.Sub(entry.verifiedAt) >= s.config.VerifyTTL {
		s.forget(id)
		return models.Session{}, false
	}
	return entry.session, true
}

func (s *SessionService) remember(session models.Session) {
	s.mu.Lock()
	s.verified[session.ID] = verifiedSession{session: session, verifiedAt: s.now()}
	s.mu.Unlock()
}

func (s *SessionService) forgetAll() {
	s.mu.Lock()
	s.verified = make(map[string]verifiedSession)
	s.mu.Unlock()
}

func (s *SessionService) forget(id string) {
	s.mu.Lock()
	delete(s.verified, id)
	s.mu.Unlock()
}
