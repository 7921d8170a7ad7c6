package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/leadgen-backend/internal/auth"
	"github.com/unclebandit/leadgen-backend/internal/cache"
	appErrors "github.com/unclebandit/leadgen-backend/internal/errors"
	"github.com/unclebandit/leadgen-backend/internal/model"
	"github.com/unclebandit/leadgen-backend/internal/repository"
)

// AuthService issues, resolves and revokes login sessions.
type AuthService struct {
	Users    repository.UserRepositoryInterface
	Sessions repository.SessionRepositoryInterface
	// Cache is optional.
	Cache  cache.SessionCache
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login records the identity u and opens a session for it. It returns the
// signed session token and its expiry.
func (s *AuthService) Login(ctx context.Context, u *model.User) (string, time.Time, error) {
	u.ID = strings.TrimSpace(u.ID)
	if u.ID == "" {
		return "", time.Time{}, appErrors.Validation("user id is required")
	}
	if err := s.Users.Upsert(ctx, u); err != nil {
		return "", time.Time{}, appErrors.Internal("upsert user", err)
	}

	sess := &model.Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		ExpiresAt: s.now().Add(s.TTL),
	}
	if err := s.Sessions.Create(ctx, sess); err != nil {
		return "", time.Time{}, appErrors.Internal("create session", err)
	}
	token, err := auth.GenerateToken(s.Secret, sess.ID, u.ID, sess.ExpiresAt)
	if err != nil {
		return "", time.Time{}, appErrors.Internal("sign session token", err)
	}
	s.cacheSession(ctx, sess)

	slog.InfoContext(ctx, "session issued", "module", "auth", "operation", "login", "user_id", u.ID, "outcome", "ok")
	return token, sess.ExpiresAt, nil
}

// Authenticate resolves a session token to its user. Any failure is reported as Unauthorized.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := auth.ValidateToken(s.Secret, token)
	if err != nil {
		return nil, appErrors.Unauthorized("invalid session token")
	}

	userID, ok := s.cachedUser(ctx, claims.SessionID)
	if !ok {
		sess, err := s.Sessions.Get(ctx, claims.SessionID)
		if err != nil {
			if appErrors.KindOf(err) == appErrors.KindNotFound {
				return nil, appErrors.Unauthorized("session not found")
			}
			return nil, appErrors.Internal("get session", err)
		}
		if sess.Expired(s.now()) {
			return nil, appErrors.Unauthorized("session expired")
		}
		s.cacheSession(ctx, sess)
		userID = sess.UserID
	}
	if userID != claims.Subject {
		return nil, appErrors.Unauthorized("session does not match token")
	}

	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if appErrors.KindOf(err) == appErrors.KindNotFound {
			return nil, appErrors.Unauthorized("user not found")
		}
		return nil, appErrors.Internal("get user", err)
	}
	return u, nil
}

// Logout revokes the session behind token. Unknown or invalid tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := auth.ValidateToken(s.Secret, token)
	if err != nil {
		return nil
	}
	if s.Cache != nil {
		if err := s.Cache.Delete(ctx, claims.SessionID); err != nil {
			slog.WarnContext(ctx, "session cache delete failed", "module", "auth", "operation", "logout", "error", err)
		}
	}
	if err := s.Sessions.Delete(ctx, claims.SessionID); err != nil {
		return appErrors.Internal("delete session", err)
	}
	slog.InfoContext(ctx, "session revoked", "module", "auth", "operation", "logout", "user_id", claims.Subject)
	return nil
}

// SweepExpired deletes expired sessions and returns how many were removed.
func (s *AuthService) SweepExpired(ctx context.Context) (int64, error) {
	return s.Sessions.DeleteExpired(ctx, s.now())
}

// RunSweeper calls SweepExpired every interval until ctx is done.
func (s *AuthService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepExpired(ctx)
			if err != nil {
				slog.Error("session sweep failed", "module", "auth", "operation", "sweep", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("expired sessions removed", "module", "auth", "operation", "sweep", "count", n)
			}
		}
	}
}

func (s *AuthService) cachedUser(ctx context.Context, sessionID string) (string, bool) {
	if s.Cache == nil {
		return "", false
	}
	userID, ok, err := s.Cache.Get(ctx, sessionID)
	if err != nil {
		slog.WarnContext(ctx, "session cache read failed", "module", "auth", "operation", "authenticate", "error", err)
		return "", false
	}
	return userID, ok
}

func (s *AuthService) cacheSession(ctx context.Context, sess *model.Session) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Set(ctx, sess.ID, sess.UserID, sess.ExpiresAt.Sub(s.now())); err != nil {
		slog.WarnContext(ctx, "session cache write failed", "module", "auth", "operation", "cache", "error", err)
	}
}

var _ auth.Authenticator = (*AuthService)(nil)
