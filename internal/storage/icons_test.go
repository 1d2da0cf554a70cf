package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	getErr  error
	puts    int
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

func (m *memoryStore) Put(_ context.Context, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	m.objects[key] = data
	return nil
}

type countingOrigin struct {
	calls int
	data  []byte
	err   error
}

func (o *countingOrigin) Fetch(context.Context, string) ([]byte, error) {
	o.calls++
	return o.data, o.err
}

const iconURL = "https://ss3.4sqi.net/img/categories_v2/food/cafe_64.png"

func TestIconMirror_FetchesOnceThenServesFromStore(t *testing.T) {
	store := &memoryStore{objects: map[string][]byte{}}
	origin := &countingOrigin{data: []byte("png-bytes")}
	mirror := NewIconMirror(store, origin)

	for i := 0; i < 2; i++ {
		data, err := mirror.Fetch(context.Background(), iconURL)
		require.NoError(t, err)
		require.Equal(t, []byte("png-bytes"), data)
	}
	require.Equal(t, 1, origin.calls)
	require.Equal(t, 1, store.puts)
	require.Contains(t, store.objects, "icons/ss3.4sqi.net/img/categories_v2/food/cafe_64.png")
}

func TestIconMirror_StoreFailureFallsBackToOrigin(t *testing.T) {
	store := &memoryStore{objects: map[string][]byte{}, getErr: errors.New("connection refused")}
	origin := &countingOrigin{data: []byte("png-bytes")}

	data, err := NewIconMirror(store, origin).Fetch(context.Background(), iconURL)
	require.NoError(t, err)
	require.Equal(t, []byte("png-bytes"), data)
	require.Equal(t, 1, origin.calls)
}

func TestIconMirror_OriginFailure(t *testing.T) {
	store := &memoryStore{objects: map[string][]byte{}}
	origin := &countingOrigin{err: errors.New("404 Not Found")}

	_, err := NewIconMirror(store, origin).Fetch(context.Background(), iconURL)
	require.Error(t, err)
	require.Equal(t, 0, store.puts)
}
