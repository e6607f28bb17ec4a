package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Temutjin2k/ride-hail-client/internal/domain/models"
	"github.com/Temutjin2k/ride-hail-client/internal/domain/types"
	"github.com/Temutjin2k/ride-hail-client/pkg/logger"
	wrap "github.com/Temutjin2k/ride-hail-client/pkg/logger/wrapper"
	"github.com/golang-jwt/jwt/v5"
)

/*
Store is the single source of truth for "who is acting and with what
standing". The session is persisted to a local file on every mutation so
a process restart restores it without re-authentication. A corrupt or
unreadable file is treated as "no session", never as an error.
*/
type Store struct {
	mu      sync.RWMutex
	current *models.Session

	path string
	l    logger.Logger
}

// New creates the store and restores a persisted session if one exists.
func New(path string, l logger.Logger) *Store {
	s := &Store{
		path: path,
		l:    l,
	}
	s.restore()
	return s
}

// Set replaces any existing session with the given user and credential
// and persists it. Trusts the caller: the record comes from a successful
// authentication response.
func (s *Store) Set(user models.User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = &models.Session{
		User:      user,
		Token:     token,
		CreatedAt: time.Now(),
	}
	s.persistLocked()
}

// Clear erases the in-memory and persisted session. Idempotent.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}
	s.current = nil

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.l.Warn(context.Background(), "failed to remove session file", "path", s.path, "reason", err.Error())
	}
	ctx := wrap.WithAction(context.Background(), types.ActionSessionCleared)
	s.l.Debug(ctx, "session cleared")
}

// Patch merges a partial user update into the current session.
// No-op when no session exists.
func (s *Store) Patch(fn func(u *models.User)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || fn == nil {
		return
	}
	fn(&s.current.User)
	s.persistLocked()
}

// Current returns a copy of the session, or nil when logged out.
// Возвращаем копию, чтобы никто не менял сессию в обход стора.
func (s *Store) Current() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// Token returns the opaque credential, or empty when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// TokenExpired inspects the credential's exp claim without verifying the
// signature (the client holds no signing key; the backend stays
// authoritative). Opaque non-JWT tokens are never reported expired.
func (s *Store) TokenExpired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return true
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(s.current.Token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return time.Now().After(claims.ExpiresAt.Time)
}

// restore loads the persisted session. Any failure falls open to
// logged-out state.
func (s *Store) restore() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil || sess.Token == "" {
		s.l.Warn(context.Background(), "persisted session unreadable, starting logged out", "path", s.path)
		_ = os.Remove(s.path)
		return
	}

	s.current = &sess

	ctx := wrap.WithAction(context.Background(), types.ActionSessionRestored)
	ctx = wrap.WithUserID(ctx, sess.User.ID.String())
	s.l.Info(ctx, "session restored", "role", sess.User.Role)
}

// persistLocked writes the session atomically. Caller holds s.mu.
func (s *Store) persistLocked() {
	if s.current == nil {
		return
	}

	data, err := json.Marshal(s.current)
	if err != nil {
		s.l.Error(context.Background(), "failed to encode session", err)
		return
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			s.l.Error(context.Background(), "failed to create session dir", fmt.Errorf("mkdir %s: %w", dir, err))
			return
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		s.l.Error(context.Background(), "failed to persist session", err)
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.l.Error(context.Background(), "failed to persist session", err)
	}
}
