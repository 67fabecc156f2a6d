package securestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore wraps StaticKeys and counts lookups, to observe the
// provider cache.
type countingStore struct {
	keys StaticKeys
	gets int
}

func (c *countingStore) Get(ctx context.Context, item string) (string, error) {
	c.gets++
	return c.keys.Get(ctx, item)
}

func (c *countingStore) Set(ctx context.Context, item string, value string) error {
	return c.keys.Set(ctx, item, value)
}

func TestNewProviderValidation(t *testing.T) {
	store := &countingStore{keys: StaticKeys{}}

	tests := []struct {
		name     string
		bindings map[string]Binding
		wantErr  bool
	}{
		{
			name:     "no bindings",
			bindings: map[string]Binding{},
			wantErr:  true,
		},
		{
			name:     "empty name",
			bindings: map[string]Binding{"": {Store: store, Item: "ITEM"}},
			wantErr:  true,
		},
		{
			name:     "nil store",
			bindings: map[string]Binding{MasterKeyName: {Item: "ITEM"}},
			wantErr:  true,
		},
		{
			name:     "empty item",
			bindings: map[string]Binding{MasterKeyName: {Store: store}},
			wantErr:  true,
		},
		{
			name:     "valid",
			bindings: map[string]Binding{MasterKeyName: {Store: store, Item: "ITEM"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.bindings)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, p)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, p)
			}
		})
	}
}

func TestProviderGetCaches(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{keys: StaticKeys{"MK": "a2V5"}}
	p, err := NewProvider(map[string]Binding{
		MasterKeyName: {Store: store, Item: "MK"},
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := p.Get(ctx, MasterKeyName)
		require.NoError(t, err)
		assert.Equal(t, "a2V5", got)
	}
	assert.Equal(t, 1, store.gets)
}

func TestProviderGetUnknownName(t *testing.T) {
	store := &countingStore{keys: StaticKeys{"MK": "a2V5"}}
	p, err := NewProvider(map[string]Binding{
		MasterKeyName: {Store: store, Item: "MK"},
	})
	require.NoError(t, err)

	_, err = p.Get(context.Background(), "other_key")
	require.ErrorIs(t, err, ErrKeyUnavailable)
}

func TestProviderGetEmptyValue(t *testing.T) {
	store := &countingStore{keys: StaticKeys{"MK": ""}}
	p, err := NewProvider(map[string]Binding{
		MasterKeyName: {Store: store, Item: "MK"},
	})
	require.NoError(t, err)

	_, err = p.Get(context.Background(), MasterKeyName)
	require.ErrorIs(t, err, ErrKeyUnavailable)
}

func TestProviderSetRefreshesCache(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{keys: StaticKeys{"MK": "b2xk"}}
	p, err := NewProvider(map[string]Binding{
		MasterKeyName: {Store: store, Item: "MK"},
	})
	require.NoError(t, err)

	got, err := p.Get(ctx, MasterKeyName)
	require.NoError(t, err)
	require.Equal(t, "b2xk", got)

	require.NoError(t, p.Set(ctx, MasterKeyName, "bmV3"))
	assert.Equal(t, "bmV3", store.keys["MK"])

	got, err = p.Get(ctx, MasterKeyName)
	require.NoError(t, err)
	assert.Equal(t, "bmV3", got)
	assert.Equal(t, 1, store.gets)
}

func TestStaticKeys(t *testing.T) {
	ctx := context.Background()
	keys := StaticKeys{MasterKeyName: "a2V5"}

	got, err := keys.Get(ctx, MasterKeyName)
	require.NoError(t, err)
	assert.Equal(t, "a2V5", got)

	_, err = keys.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrKeyUnavailable)

	require.NoError(t, keys.Set(ctx, "added", "dg=="))
	got, err = keys.Get(ctx, "added")
	require.NoError(t, err)
	assert.Equal(t, "dg==", got)
}
