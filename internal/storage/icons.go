package storage

import (
	"context"
	"errors"
	"log"
	"net/http"

	"nearme/internal/imagecache"
	"nearme/internal/keys"
)

// IconMirror is an image fetcher that serves icons from an object store and
// falls back to the origin on a miss, saving what it downloaded.
type IconMirror struct {
	store  ObjectStore
	origin imagecache.Fetcher
}

func NewIconMirror(store ObjectStore, origin imagecache.Fetcher) *IconMirror {
	return &IconMirror{store: store, origin: origin}
}

func (m *IconMirror) Fetch(ctx context.Context, url string) ([]byte, error) {
	key := keys.Icon(url)

	data, err := m.store.Get(ctx, key)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, ErrNotFound) {
		// The mirror is best effort; a broken store must not hide icons.
		log.Printf("Icon mirror lookup for %s failed: %v", key, err)
	}

	data, err = m.origin.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := m.store.Put(ctx, key, data, http.DetectContentType(data)); err != nil {
		log.Printf("Failed to mirror icon %s: %v", key, err)
	}
	return data, nil
}
