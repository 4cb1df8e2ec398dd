// Package settings holds the user's display preferences. The preference is an
// explicit value loaded once at startup and changed only through Manager,
// which persists every change.
package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mcclellann/ledgerbook/pkg/store"
)

// Language is a UI language code.
type Language string

const (
	English Language = "en"
	Telugu  Language = "te"
)

const languageKey = "language"

// ParseLanguage accepts "en" or "te".
func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case English, Telugu:
		return Language(s), nil
	}
	return "", fmt.Errorf("unsupported language %q", s)
}

// Settings is the full set of user preferences.
type Settings struct {
	Language Language `json:"language"`
}

// KV is the slice of the store that settings need.
type KV interface {
	GetSetting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error
}

var _ KV = (store.Storage)(nil)

// Manager owns the current Settings.
type Manager struct {
	mu      sync.RWMutex
	kv      KV
	current Settings
}

// Load reads stored settings, falling back to def for anything unset or unreadable.
func Load(ctx context.Context, kv KV, def Language) (*Manager, error) {
	m := &Manager{kv: kv, current: Settings{Language: def}}

	raw, err := kv.GetSetting(ctx, languageKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return m, nil
	case err != nil:
		return m, fmt.Errorf("load language preference: %w", err)
	}
	if lang, err := ParseLanguage(raw); err == nil {
		m.current.Language = lang
	}
	return m, nil
}

// Current returns a copy of the current settings.
func (m *Manager) Current() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// SetLanguage persists lang and makes it current. On a failed write the
// previous language is kept.
func (m *Manager) SetLanguage(ctx context.Context, lang Language) (Settings, error) {
	if _, err := ParseLanguage(string(lang)); err != nil {
		return m.Current(), err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.kv.PutSetting(ctx, languageKey, string(lang)); err != nil {
		return m.current, fmt.Errorf("save language preference: %w", err)
	}
	m.current.Language = lang
	return m.current, nil
}

// Toggle switches between English and Telugu.
func (m *Manager) Toggle(ctx context.Context) (Settings, error) {
	next := Telugu
	if m.Current().Language == Telugu {
		next = English
	}
	return m.SetLanguage(ctx, next)
}

// Translator returns the label translator for the current language.
func (m *Manager) Translator() Translator {
	return TranslatorFor(m.Current().Language)
}
