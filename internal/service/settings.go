package service

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/evxf/melodia/internal/domain"
	"github.com/evxf/melodia/internal/ports"
)

// Defaults applied when no preference has been persisted yet.
const (
	DefaultTheme    = "light"
	DefaultLanguage = "pt"
)

// DefaultSortKey is the sort order used before the user picks one.
const DefaultSortKey = domain.SortByName

// SettingsService manages user preferences: sort order, theme and language.
// Each preference is persisted under its own key immediately on change.
// All operations are thread-safe via sync.RWMutex.
type SettingsService struct {
	logger *slog.Logger
	store  ports.KeyValueStore
	bus    ports.EventBus

	mu       sync.RWMutex
	sortBy   domain.SortKey
	theme    string
	language string
}

// NewSettingsService creates a settings service and loads persisted
// preferences. Missing or unreadable values fall back to defaults.
func NewSettingsService(logger *slog.Logger, store ports.KeyValueStore, bus ports.EventBus) *SettingsService {
	s := &SettingsService{
		logger:   logger,
		store:    store,
		bus:      bus,
		sortBy:   DefaultSortKey,
		theme:    DefaultTheme,
		language: DefaultLanguage,
	}
	s.load()

	logger.Debug("settings service initialized",
		slog.String("sort_by", string(s.sortBy)),
		slog.String("theme", s.theme),
		slog.String("language", s.language))

	return s
}

func (s *SettingsService) load() {
	if v, err := s.store.Get(ports.KeySortBy); err == nil {
		key := domain.SortKey(v)
		switch key {
		case domain.SortByName, domain.SortByDateAdded, domain.SortByDateModified:
			s.sortBy = key
		default:
			s.logger.Warn("ignoring unknown persisted sort key", slog.String("value", v))
		}
	} else if !errors.Is(err, domain.ErrKeyNotFound) {
		s.logger.Warn("failed to load sort preference", slog.Any("error", err))
	}

	if v, err := s.store.Get(ports.KeyTheme); err == nil {
		if v == "dark" || v == "light" {
			s.theme = v
		} else {
			s.logger.Warn("ignoring unknown persisted theme", slog.String("value", v))
		}
	} else if !errors.Is(err, domain.ErrKeyNotFound) {
		s.logger.Warn("failed to load theme preference", slog.Any("error", err))
	}

	if v, err := s.store.Get(ports.KeyLanguage); err == nil && v != "" {
		s.language = v
	} else if err != nil && !errors.Is(err, domain.ErrKeyNotFound) {
		s.logger.Warn("failed to load language preference", slog.Any("error", err))
	}
}

// SortBy returns the current sort preference.
func (s *SettingsService) SortBy() domain.SortKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortBy
}

// SetSortBy updates and persists the sort preference. Unknown keys are
// rejected so a typo cannot wedge the library view.
func (s *SettingsService) SetSortBy(key domain.SortKey) error {
	switch key {
	case domain.SortByName, domain.SortByDateAdded, domain.SortByDateModified:
	default:
		return domain.NewServiceError("settings", "set_sort_by", "unknown sort key: "+string(key), nil)
	}

	s.mu.Lock()
	s.sortBy = key
	s.mu.Unlock()

	s.persist(ports.KeySortBy, string(key))
	s.bus.Publish(domain.NewSettingsChangedEvent(ports.KeySortBy, string(key)))
	return nil
}

// Theme returns the current theme ("dark" or "light").
func (s *SettingsService) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetTheme updates and persists the theme.
func (s *SettingsService) SetTheme(theme string) error {
	if theme != "dark" && theme != "light" {
		return domain.NewServiceError("settings", "set_theme", "unknown theme: "+theme, nil)
	}

	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()

	s.persist(ports.KeyTheme, theme)
	s.bus.Publish(domain.NewSettingsChangedEvent(ports.KeyTheme, theme))
	return nil
}

// Language returns the current language code.
func (s *SettingsService) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// SetLanguage updates and persists the language code.
func (s *SettingsService) SetLanguage(code string) error {
	if code == "" {
		return domain.NewServiceError("settings", "set_language", "empty language code", nil)
	}

	s.mu.Lock()
	s.language = code
	s.mu.Unlock()

	s.persist(ports.KeyLanguage, code)
	s.bus.Publish(domain.NewSettingsChangedEvent(ports.KeyLanguage, code))
	return nil
}

// persist writes a preference, logging and swallowing storage failures so
// the in-memory value stays authoritative.
func (s *SettingsService) persist(key, value string) {
	if err := s.store.Set(key, value); err != nil {
		s.logger.Warn("failed to persist setting",
			slog.String("key", key),
			slog.Any("error", err))
	}
}
