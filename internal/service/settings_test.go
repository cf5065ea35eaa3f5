package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evxf/melodia/internal/adapter/eventbus"
	"github.com/evxf/melodia/internal/adapter/storage/memory"
	"github.com/evxf/melodia/internal/domain"
	"github.com/evxf/melodia/internal/logger"
	"github.com/evxf/melodia/internal/ports"
)

func newSettingsFixture(t *testing.T) (*SettingsService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	bus := eventbus.NewSyncEventBus()
	t.Cleanup(func() { _ = bus.Close() })
	return NewSettingsService(logger.NewTestLogger(), store, bus), store
}

func TestSettingsDefaults(t *testing.T) {
	s, _ := newSettingsFixture(t)

	assert.Equal(t, domain.SortByName, s.SortBy())
	assert.Equal(t, "light", s.Theme())
	assert.Equal(t, "pt", s.Language())
}

func TestSettingsSetAndPersist(t *testing.T) {
	s, store := newSettingsFixture(t)

	require.NoError(t, s.SetSortBy(domain.SortByDateAdded))
	require.NoError(t, s.SetTheme("dark"))
	require.NoError(t, s.SetLanguage("en"))

	assert.Equal(t, domain.SortByDateAdded, s.SortBy())
	assert.Equal(t, "dark", s.Theme())
	assert.Equal(t, "en", s.Language())

	v, err := store.Get(ports.KeySortBy)
	require.NoError(t, err)
	assert.Equal(t, "dateAdded", v)

	v, err = store.Get(ports.KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "dark", v)

	v, err = store.Get(ports.KeyLanguage)
	require.NoError(t, err)
	assert.Equal(t, "en", v)
}

func TestSettingsLoadPersisted(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Set(ports.KeySortBy, "dateModified"))
	require.NoError(t, store.Set(ports.KeyTheme, "dark"))
	require.NoError(t, store.Set(ports.KeyLanguage, "es"))

	bus := eventbus.NewSyncEventBus()
	defer func() { _ = bus.Close() }()

	s := NewSettingsService(logger.NewTestLogger(), store, bus)

	assert.Equal(t, domain.SortByDateModified, s.SortBy())
	assert.Equal(t, "dark", s.Theme())
	assert.Equal(t, "es", s.Language())
}

func TestSettingsRejectsInvalidValues(t *testing.T) {
	s, _ := newSettingsFixture(t)

	assert.Error(t, s.SetSortBy(domain.SortKey("bogus")))
	assert.Error(t, s.SetTheme("sepia"))
	assert.Error(t, s.SetLanguage(""))

	// State unchanged
	assert.Equal(t, domain.SortByName, s.SortBy())
	assert.Equal(t, "light", s.Theme())
	assert.Equal(t, "pt", s.Language())
}

func TestSettingsIgnoresCorruptPersistedValues(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Set(ports.KeySortBy, "garbage"))
	require.NoError(t, store.Set(ports.KeyTheme, "neon"))

	bus := eventbus.NewSyncEventBus()
	defer func() { _ = bus.Close() }()

	s := NewSettingsService(logger.NewTestLogger(), store, bus)

	assert.Equal(t, domain.SortByName, s.SortBy())
	assert.Equal(t, "light", s.Theme())
}

func TestSettingsSurvivesStorageFailure(t *testing.T) {
	s, store := newSettingsFixture(t)
	store.SetFailSet(true)

	require.NoError(t, s.SetTheme("dark"))
	assert.Equal(t, "dark", s.Theme())
}

func TestSettingsPublishesChangeEvents(t *testing.T) {
	store := memory.NewStore()
	bus := eventbus.NewSyncEventBus()
	defer func() { _ = bus.Close() }()

	s := NewSettingsService(logger.NewTestLogger(), store, bus)

	var got []domain.Event
	bus.Subscribe(domain.EventSettingsChanged, func(e domain.Event) {
		got = append(got, e)
	})

	require.NoError(t, s.SetLanguage("en"))
	require.Len(t, got, 1)

	evt, ok := got[0].(domain.SettingsChangedEvent)
	require.True(t, ok)
	assert.Equal(t, ports.KeyLanguage, evt.Key)
	assert.Equal(t, "en", evt.Value)
}
