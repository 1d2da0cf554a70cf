// Package location observes device position and publishes fixes, gated by
// the user's location permission.
package location

import (
	"context"
	"errors"
	"log"
	"sync"

	"nearme/models"
	"nearme/pkg/geo"
)

// DefaultDistanceFilter is the movement, in meters, needed before another
// fix is published while observing.
const DefaultDistanceFilter = 100.0

// ErrNotAuthorized is returned by Start when permission is not granted.
var ErrNotAuthorized = errors.New("location access not authorized")

// Feed produces raw fixes until ctx is done. Implementations call emit for
// every reading; the provider applies permission and distance filtering.
type Feed interface {
	Run(ctx context.Context, emit func(models.Fix)) error
}

// FeedFunc adapts a function to Feed.
type FeedFunc func(ctx context.Context, emit func(models.Fix)) error

func (f FeedFunc) Run(ctx context.Context, emit func(models.Fix)) error { return f(ctx, emit) }

// Prompter asks the user for location permission. The answer arrives later
// through Provider.SetPermission.
type Prompter interface {
	PromptForPermission()
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func()

func (f PrompterFunc) PromptForPermission() { f() }

// Provider tracks permission and, while observing, publishes fixes that
// moved more than the distance filter since the last published one. The
// first fix after Start is always published.
type Provider struct {
	feed     Feed
	prompter Prompter
	filter   float64

	mu         sync.Mutex
	permission Permission
	observing  bool
	latest     *models.Fix
	published  *models.Coordinates

	fixes       chan models.Fix
	permChanges chan Permission
}

// Option configures a Provider.
type Option func(*Provider)

// WithDistanceFilter overrides DefaultDistanceFilter.
func WithDistanceFilter(meters float64) Option {
	return func(p *Provider) {
		if meters >= 0 {
			p.filter = meters
		}
	}
}

// WithPrompter sets who is asked when permission is undetermined.
func WithPrompter(pr Prompter) Option {
	return func(p *Provider) { p.prompter = pr }
}

// WithPermission sets the initial permission state.
func WithPermission(perm Permission) Option {
	return func(p *Provider) { p.permission = perm }
}

// NewProvider creates a provider reading from feed.
func NewProvider(feed Feed, opts ...Option) *Provider {
	p := &Provider{
		feed:        feed,
		filter:      DefaultDistanceFilter,
		fixes:       make(chan models.Fix, 1),
		permChanges: make(chan Permission, 4),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run drives the feed until ctx is done.
func (p *Provider) Run(ctx context.Context) error {
	err := p.feed.Run(ctx, p.handle)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Fixes delivers published fixes. Only the most recent unread fix is kept.
func (p *Provider) Fixes() <-chan models.Fix { return p.fixes }

// PermissionChanges delivers every permission transition.
func (p *Provider) PermissionChanges() <-chan Permission { return p.permChanges }

// Permission returns the current permission state.
func (p *Provider) Permission() Permission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.permission
}

// SetPermission records the user's answer. Revoking permission stops observation.
func (p *Provider) SetPermission(perm Permission) {
	p.mu.Lock()
	if perm == p.permission {
		p.mu.Unlock()
		return
	}
	p.permission = perm
	if perm != Authorized {
		p.observing = false
	}
	p.mu.Unlock()

	log.Printf("Location permission changed to %s", perm)
	select {
	case p.permChanges <- perm:
	default:
		log.Printf("Dropping permission change %s: no reader", perm)
	}
}

// RequestPermission prompts the user if permission was never decided.
func (p *Provider) RequestPermission() {
	if p.Permission() != Undetermined {
		return
	}
	if p.prompter == nil {
		log.Println("Location permission requested but no prompter is configured")
		return
	}
	p.prompter.PromptForPermission()
}

// Start begins observation. The latest known fix, if any, is published at once.
func (p *Provider) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.permission != Authorized {
		return ErrNotAuthorized
	}
	p.observing = true
	p.published = nil
	p.drainLocked()
	if p.latest != nil {
		p.publishLocked(*p.latest)
	}
	return nil
}

// Stop ends observation and discards any unread fix.
func (p *Provider) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observing = false
	p.drainLocked()
}

// Observing reports whether Start is in effect.
func (p *Provider) Observing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.observing
}

func (p *Provider) handle(fix models.Fix) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest = &fix
	if !p.observing {
		return
	}
	if p.published != nil && !geo.Moved(*p.published, fix.Coordinates, p.filter) {
		return
	}
	p.publishLocked(fix)
}

func (p *Provider) publishLocked(fix models.Fix) {
	c := fix.Coordinates
	p.published = &c
	p.drainLocked()
	p.fixes <- fix
}

func (p *Provider) drainLocked() {
	select {
	case <-p.fixes:
	default:
	}
}
