package listview

import (
	"bytes"
	"context"
	"errors"
	"image"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nearme/internal/imagecache"
	"nearme/internal/models"
	"nearme/internal/store"
)

type stubLoader struct {
	mu     sync.Mutex
	images map[string]image.Image
	urls   []string
}

// Load answers synchronously: known URLs get their image, others the
// placeholder.
func (l *stubLoader) Load(url string, placeholder image.Image, target imagecache.Target) {
	l.mu.Lock()
	l.urls = append(l.urls, url)
	img, ok := l.images[url]
	l.mu.Unlock()
	if !ok {
		img = placeholder
	}
	target.SetImage(img)
}

const cafeIcon = "https://ss3.4sqi.net/img/categories_v2/food/cafe_64.png"

func sampleVenues() []models.Venue {
	return []models.Venue{
		{ID: "b", Name: "Blue Bottle", Category: "Café", IconLink: cafeIcon, Distance: 42, Latitude: 40.7128, Longitude: -74.006, Address: "1 Main St\nNew York, NY"},
		{ID: "a", Name: "Corner Deli", Distance: 7, Latitude: 40.7129, Longitude: -74.0061},
		{ID: "c", Name: "", Category: "Park", IconLink: "https://example.com/missing.png", Distance: 90, Latitude: 40.713, Longitude: -74.007},
	}
}

func TestView_RowsOrderedAndFormatted(t *testing.T) {
	icon := image.NewAlpha(image.Rect(0, 0, 2, 2))
	placeholder := Placeholder(8)
	loader := &stubLoader{images: map[string]image.Image{cafeIcon: icon}}
	view := New(loader, placeholder)

	view.OnChange(store.Change{Venues: sampleVenues()})

	rows := view.Rows()
	require.Len(t, rows, 3)
	require.Equal(t, []string{"a", "b", "c"}, []string{rows[0].ID, rows[1].ID, rows[2].ID})

	require.Equal(t, "7 m", rows[0].Distance)
	require.Same(t, placeholder, rows[0].Icon)
	require.False(t, rows[0].IconLoaded)

	require.Equal(t, "Blue Bottle", rows[1].Name)
	require.Equal(t, "Café", rows[1].Category)
	require.Equal(t, "1 Main St\nNew York, NY", rows[1].Address)
	require.Equal(t, "40.7128, -74.006", rows[1].Coordinates)
	require.Same(t, icon, rows[1].Icon)
	require.True(t, rows[1].IconLoaded)

	require.Same(t, placeholder, rows[2].Icon)
	require.False(t, rows[2].IconLoaded)
	require.ElementsMatch(t, []string{cafeIcon, "https://example.com/missing.png"}, loader.urls)
}

func TestView_Render(t *testing.T) {
	view := New(&stubLoader{}, Placeholder(8))
	view.OnChange(store.Change{Venues: sampleVenues()})

	var buf bytes.Buffer
	require.NoError(t, view.Render(&buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	require.True(t, strings.HasPrefix(lines[0], "DISTANCE"))
	require.True(t, strings.HasPrefix(lines[1], "7 m"))
	require.Contains(t, lines[2], "1 Main St, New York, NY")
	require.True(t, strings.HasPrefix(lines[3], "90 m"))
	require.Contains(t, lines[3], "  -  ")
}

func TestView_FollowsStore(t *testing.T) {
	repo, err := store.OpenSQLite(filepath.Join(t.TempDir(), "venues.db"))
	require.NoError(t, err)
	s := store.New(repo)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.ReplaceAll(ctx, sampleVenues()[:1]))

	view := New(&stubLoader{}, Placeholder(8))
	updates := 0
	view.OnUpdate(func() { updates++ })
	detach, err := view.Attach(ctx, s)
	require.NoError(t, err)
	require.Equal(t, 1, view.Len())
	require.Equal(t, 1, updates)

	require.NoError(t, s.ReplaceAll(ctx, sampleVenues()))
	require.Equal(t, 3, view.Len())

	require.NoError(t, s.ReplaceAll(ctx, nil))
	require.Equal(t, 0, view.Len())

	detach()
	require.NoError(t, s.ReplaceAll(ctx, sampleVenues()))
	require.Equal(t, 0, view.Len())
}

func TestView_WithImageCacheFallsBackToPlaceholder(t *testing.T) {
	fetcher := fetcherFunc(func(context.Context, string) ([]byte, error) {
		return nil, errors.New("404 Not Found")
	})
	placeholder := Placeholder(8)
	view := New(imagecache.New(fetcher, time.Second), placeholder)

	view.OnChange(store.Change{Venues: sampleVenues()[:1]})

	require.Eventually(t, func() bool {
		view.mu.RLock()
		defer view.mu.RUnlock()
		_, ok := view.loaded[cafeIcon]
		return ok
	}, 2*time.Second, 5*time.Millisecond)
	rows := view.Rows()
	require.Same(t, placeholder, rows[0].Icon)
	require.False(t, rows[0].IconLoaded)
}

type fetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f fetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) { return f(ctx, url) }

func TestPlaceholder(t *testing.T) {
	p := Placeholder(16)
	require.EqualValues(t, 0xff, p.AlphaAt(8, 8).A)
	require.EqualValues(t, 0, p.AlphaAt(0, 0).A)
}
