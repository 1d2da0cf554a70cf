// Package imagecache keeps decoded venue icons in memory, keyed by URL, and
// fetches them on a miss. Entries live for the life of the process.
package imagecache

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"nearme/internal/observability"
)

// Fetcher retrieves the raw bytes behind an image URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Target receives the image produced by Load.
type Target interface {
	SetImage(img image.Image)
}

// TargetFunc adapts a function to Target.
type TargetFunc func(img image.Image)

func (f TargetFunc) SetImage(img image.Image) { f(img) }

// Cache is safe for concurrent use. Concurrent misses for the same URL share
// one fetch.
type Cache struct {
	fetcher Fetcher
	timeout time.Duration

	mu     sync.RWMutex
	images map[string]image.Image
	group  singleflight.Group
}

// New creates a cache. timeout bounds each background fetch started by Load.
func New(fetcher Fetcher, timeout time.Duration) *Cache {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Cache{
		fetcher: fetcher,
		timeout: timeout,
		images:  make(map[string]image.Image),
	}
}

// Cached returns the decoded image for url without fetching.
func (c *Cache) Cached(url string) (image.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.images[url]
	return img, ok
}

// Get returns the image for url, fetching and decoding it on a miss.
func (c *Cache) Get(ctx context.Context, url string) (image.Image, error) {
	if img, ok := c.Cached(url); ok {
		observability.RecordImageLookup(true)
		return img, nil
	}
	observability.RecordImageLookup(false)

	v, err, _ := c.group.Do(url, func() (any, error) {
		if img, ok := c.Cached(url); ok {
			return img, nil
		}
		data, err := c.fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image %s: %w", url, err)
		}
		c.mu.Lock()
		c.images[url] = img
		c.mu.Unlock()
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

// Load sets target to the image for url. A cached image is set before Load
// returns; otherwise the image is fetched in the background and target gets
// it, or placeholder if the fetch or decode fails.
func (c *Cache) Load(url string, placeholder image.Image, target Target) {
	if img, ok := c.Cached(url); ok {
		observability.RecordImageLookup(true)
		target.SetImage(img)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		img, err := c.Get(ctx, url)
		if err != nil {
			log.Printf("Error loading image from %s: %v", url, err)
			target.SetImage(placeholder)
			return
		}
		target.SetImage(img)
	}()
}

// Len reports how many images are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}
