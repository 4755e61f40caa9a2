package client

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryIndexOf(t *testing.T) {
	r := NewRegistry()
	names := []string{"osc", "stats", "console", "ytdl"}
	for _, n := range names {
		require.NoError(t, r.Register(n))
	}

	for want, n := range names {
		got, err := r.IndexOf(n)
		require.NoError(t, err)
		assert.Equal(t, want, got, "IndexOf(%q)", n)
	}
	assert.Equal(t, names, r.Names())
	assert.Equal(t, len(names), r.Len())
}

func TestRegistryUnknown(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("osc"))

	idx, err := r.IndexOf("missing")
	assert.Equal(t, -1, idx)
	assert.ErrorIs(t, err, ErrUnknownClient)

	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "missing", cerr.Name)
	assert.Equal(t, `client index "missing": unknown client`, err.Error())
	assert.False(t, r.Contains("missing"))
	assert.True(t, r.Contains("osc"))
}

func TestRegistryDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("osc"))

	err := r.Register("osc")
	assert.ErrorIs(t, err, ErrDuplicateClient)
	assert.Equal(t, 1, r.Len(), "duplicate must not be appended")
}

func TestRegistryInvalidName(t *testing.T) {
	r := NewRegistry()
	assert.ErrorIs(t, r.Register(""), ErrInvalidName)
	assert.ErrorIs(t, r.Register("  "), ErrInvalidName)
	assert.Zero(t, r.Len())
}

func TestRegistrySeal(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("a"))
	assert.False(t, r.Sealed())

	r.Seal()
	assert.True(t, r.Sealed())
	assert.ErrorIs(t, r.Register("b"), ErrRegistrationClosed)

	idx, err := r.IndexOf("a")
	require.NoError(t, err)
	assert.Zero(t, idx)
}

func TestRegistryNamesIsCopy(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("a"))

	names := r.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"a"}, r.Names())
}

func TestRegistryConcurrentReads(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("a"))
	require.NoError(t, r.Register("b"))
	r.Seal()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				idx, err := r.IndexOf("b")
				if err != nil || idx != 1 {
					t.Errorf("IndexOf(b) = %d, %v", idx, err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
