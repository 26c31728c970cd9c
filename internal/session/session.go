package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"golang.org/x/oauth2"

	"github.com/phikva/helseapp-sub000/internal/repository"
)

// ErrSessionInvalid reports a mutation attempted without a valid, matching
// session. The UI reacts by prompting re-authentication, not by retrying.
var ErrSessionInvalid = errors.New("session invalid")

const settingKey = "session"

// Session is an authenticated identity issued by the backend's auth
// collaborator. A nil Token is a non-expiring local session (used by
// tests); otherwise the token's own expiry governs validity.
type Session struct {
	ID     uuid.UUID
	UserID string
	Token  *oauth2.Token
}

func (s Session) valid() bool {
	if s.UserID == "" {
		return false
	}
	return s.Token == nil || s.Token.Valid()
}

// Manager holds the current session and persists it, signed, in the local
// settings store so a restart does not force a fresh sign-in. A persisted
// blob that fails signature verification reads as signed out.
//
// Manager implements oauth2.TokenSource for the relation store client.
type Manager struct {
	mu       sync.RWMutex
	current  *Session
	codec    *securecookie.SecureCookie
	settings repository.SettingsRepository
}

func NewManager(secret []byte, settings repository.SettingsRepository) *Manager {
	return &Manager{
		codec:    securecookie.New(secret, nil),
		settings: settings,
	}
}

// persisted is the signed on-disk shape of a session.
type persisted struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	AccessToken string    `json:"access_token,omitempty"`
	Expiry      time.Time `json:"expiry,omitempty"`
}

// Load restores a previously persisted session. Absence or a blob that no
// longer verifies leaves the manager signed out without error.
func (manager *Manager) Load(ctx context.Context) error {
	blob, err := manager.settings.Get(ctx, settingKey)
	if errors.Is(err, repository.ErrSettingNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	var stored persisted
	if err := manager.codec.Decode(settingKey, blob, &stored); err != nil {
		slog.Warn("discarding unreadable session blob", "error", err)
		return nil
	}

	id, err := uuid.Parse(stored.ID)
	if err != nil {
		id = uuid.New()
	}
	restored := Session{ID: id, UserID: stored.UserID}
	if stored.AccessToken != "" {
		restored.Token = &oauth2.Token{AccessToken: stored.AccessToken, Expiry: stored.Expiry}
	}
	if !restored.valid() {
		return nil
	}

	manager.mu.Lock()
	manager.current = &restored
	manager.mu.Unlock()
	return nil
}

// SetCurrent replaces the current session and persists it.
func (manager *Manager) SetCurrent(ctx context.Context, s Session) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	stored := persisted{ID: s.ID.String(), UserID: s.UserID}
	if s.Token != nil {
		stored.AccessToken = s.Token.AccessToken
		stored.Expiry = s.Token.Expiry
	}
	blob, err := manager.codec.Encode(settingKey, stored)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := manager.settings.Set(ctx, settingKey, blob); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}

	manager.mu.Lock()
	manager.current = &s
	manager.mu.Unlock()
	return nil
}

// Current returns the active session. ok is false when signed out or the
// session has expired; callers must not trust cached per-user data then.
func (manager *Manager) Current() (Session, bool) {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	if manager.current == nil || !manager.current.valid() {
		return Session{}, false
	}
	return *manager.current, true
}

// Require confirms the active session exists and belongs to userID.
func (manager *Manager) Require(userID string) error {
	current, ok := manager.Current()
	if !ok || current.UserID != userID {
		return ErrSessionInvalid
	}
	return nil
}

// Clear signs out and removes the persisted blob.
func (manager *Manager) Clear(ctx context.Context) error {
	manager.mu.Lock()
	manager.current = nil
	manager.mu.Unlock()

	if err := manager.settings.Delete(ctx, settingKey); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Token implements oauth2.TokenSource over the current session.
func (manager *Manager) Token() (*oauth2.Token, error) {
	current, ok := manager.Current()
	if !ok {
		return nil, ErrSessionInvalid
	}
	if current.Token == nil {
		return nil, ErrSessionInvalid
	}
	return current.Token, nil
}
