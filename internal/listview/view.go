// Package listview presents the stored venues as list rows, nearest first,
// and keeps them in sync with the venue store.
package listview

import (
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"slices"
	"strings"
	"sync"
	"text/tabwriter"

	"nearme/internal/imagecache"
	"nearme/internal/models"
	"nearme/internal/store"
)

// Row is one rendered venue.
type Row struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Category    string      `json:"category"`
	Address     string      `json:"address"`
	Distance    string      `json:"distance"`
	Coordinates string      `json:"coordinates"`
	IconURL     string      `json:"iconUrl,omitempty"`
	IconLoaded  bool        `json:"iconLoaded"`
	Icon        image.Image `json:"-"`
}

// IconLoader is satisfied by *imagecache.Cache.
type IconLoader interface {
	Load(url string, placeholder image.Image, target imagecache.Target)
}

// View holds the rows shown to the user. It is updated from store change
// notifications and read from any goroutine.
type View struct {
	icons       IconLoader
	placeholder image.Image

	mu       sync.RWMutex
	venues   []models.Venue
	loaded   map[string]image.Image
	onUpdate func()
}

func New(icons IconLoader, placeholder image.Image) *View {
	return &View{
		icons:       icons,
		placeholder: placeholder,
		loaded:      make(map[string]image.Image),
	}
}

// OnUpdate registers fn to run after every row replacement.
func (v *View) OnUpdate(fn func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onUpdate = fn
}

// Attach shows the current contents of s and follows its changes until the
// returned function is called.
func (v *View) Attach(ctx context.Context, s *store.VenueStore) (func(), error) {
	venues, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	v.show(venues)
	return s.Subscribe(v.OnChange), nil
}

// OnChange replaces the rows with the committed venue set.
func (v *View) OnChange(c store.Change) {
	v.show(c.Venues)
}

func (v *View) show(venues []models.Venue) {
	sorted := slices.Clone(venues)
	slices.SortStableFunc(sorted, func(a, b models.Venue) int { return a.Distance - b.Distance })

	v.mu.Lock()
	v.venues = sorted
	onUpdate := v.onUpdate
	v.mu.Unlock()

	for _, venue := range sorted {
		if venue.IconLink == "" {
			continue
		}
		link := venue.IconLink
		v.icons.Load(link, v.placeholder, imagecache.TargetFunc(func(img image.Image) {
			v.setIcon(link, img)
		}))
	}
	if onUpdate != nil {
		onUpdate()
	}
}

func (v *View) setIcon(link string, img image.Image) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loaded[link] = img
}

// Len reports the number of rows.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.venues)
}

// Rows returns the rows ordered by distance ascending. Rows whose icon has
// not arrived yet carry the placeholder.
func (v *View) Rows() []Row {
	v.mu.RLock()
	defer v.mu.RUnlock()

	rows := make([]Row, 0, len(v.venues))
	for _, venue := range v.venues {
		row := Row{
			ID:          venue.ID,
			Name:        venue.Name,
			Category:    venue.Category,
			Address:     venue.Address,
			Distance:    venue.DistanceLabel(),
			Coordinates: venue.CoordinatesLabel(),
			IconURL:     venue.IconLink,
			Icon:        v.placeholder,
		}
		if img, ok := v.loaded[venue.IconLink]; ok && venue.IconLink != "" {
			row.Icon = img
			row.IconLoaded = img != v.placeholder
		}
		rows = append(rows, row)
	}
	return rows
}

// Render writes the rows as an aligned text table.
func (v *View) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DISTANCE\tNAME\tCATEGORY\tADDRESS\tCOORDINATES")
	for _, row := range v.Rows() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			row.Distance,
			orDash(row.Name),
			orDash(row.Category),
			orDash(strings.ReplaceAll(row.Address, "\n", ", ")),
			row.Coordinates,
		)
	}
	if err := tw.Flush(); err != nil {
		log.Printf("Error rendering venue list: %v", err)
		return err
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
