package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evxf/melodia/internal/domain"
)

func TestStoreSetGet(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.Set("k", "v"))

	v, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
	assert.Equal(t, 1, s.Len())
}

func TestStoreMissingKey(t *testing.T) {
	s := NewStore()

	_, err := s.Get("nope")
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
}

func TestStoreFailureInjection(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Set("k", "v"))

	s.SetFailGet(true)
	_, err := s.Get("k")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrKeyNotFound)

	s.SetFailSet(true)
	assert.Error(t, s.Set("k2", "v2"))

	s.SetFailGet(false)
	v, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestStoreClose(t *testing.T) {
	s := NewStore()
	assert.NoError(t, s.Close())
}
