// Package refresh runs the venue refresh pipeline: check connectivity, wait
// for a location fix, search for nearby venues and replace the stored set.
package refresh

import (
	"context"
	"log"
	"sync"
	"time"

	"nearme/internal/failure"
	"nearme/internal/models"
	"nearme/internal/observability"
	locmodels "nearme/models"
	"nearme/pkg/location"
)

const (
	DefaultLocationTimeout = 30 * time.Second
	DefaultFetchTimeout    = 15 * time.Second
)

// VenueFetcher searches for venues around a coordinate.
type VenueFetcher interface {
	FetchNearbyVenues(ctx context.Context, latitude, longitude float64) ([]models.Venue, error)
}

// VenueWriter replaces the stored venue set.
type VenueWriter interface {
	ReplaceAll(ctx context.Context, venues []models.Venue) error
}

// Connectivity reports network reachability transitions.
type Connectivity interface {
	Connected() bool
	Subscribe() (<-chan bool, func())
}

// LocationSource is the part of the location provider the pipeline drives.
type LocationSource interface {
	Permission() location.Permission
	RequestPermission()
	Start() error
	Stop()
	Fixes() <-chan locmodels.Fix
	PermissionChanges() <-chan location.Permission
}

// Status is a snapshot of the coordinator for presentation.
type Status struct {
	State         State           `json:"state"`
	Refreshing    bool            `json:"refreshing"`
	Notice        *failure.Notice `json:"notice,omitempty"`
	LastRefreshed time.Time       `json:"lastRefreshed,omitzero"`
}

type fetchResult struct {
	cycle  uint64
	venues []models.Venue
	err    error
}

// Coordinator owns the refresh state machine. All state changes and store
// writes happen on the goroutine running Run; fetches run in the background
// and hand their result back to it.
type Coordinator struct {
	fetcher  VenueFetcher
	writer   VenueWriter
	conn     Connectivity
	location LocationSource

	locationTimeout time.Duration
	fetchTimeout    time.Duration

	triggers chan string
	dismiss  chan struct{}
	results  chan fetchResult
	notices  chan failure.Notice

	// Owned by the Run goroutine.
	cycle     uint64
	connected bool
	deadline  *time.Timer

	mu     sync.RWMutex
	status Status
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLocationTimeout bounds the wait for the first fix of a cycle.
func WithLocationTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.locationTimeout = d
		}
	}
}

// WithFetchTimeout bounds the venue search of a cycle.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

func New(fetcher VenueFetcher, writer VenueWriter, conn Connectivity, loc LocationSource, opts ...Option) *Coordinator {
	c := &Coordinator{
		fetcher:         fetcher,
		writer:          writer,
		conn:            conn,
		location:        loc,
		locationTimeout: DefaultLocationTimeout,
		fetchTimeout:    DefaultFetchTimeout,
		triggers:        make(chan string, 8),
		dismiss:         make(chan struct{}, 1),
		results:         make(chan fetchResult, 1),
		notices:         make(chan failure.Notice, 4),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TriggerRefresh asks for a new cycle. It is a no-op while one is in flight.
func (c *Coordinator) TriggerRefresh(reason string) {
	select {
	case c.triggers <- reason:
	default:
		log.Printf("Refresh trigger %q dropped: trigger queue full", reason)
	}
}

// DismissNotice clears the current notice.
func (c *Coordinator) DismissNotice() {
	select {
	case c.dismiss <- struct{}{}:
	default:
	}
}

// Notices delivers one notice per failed cycle and one per connectivity loss.
// Old notices are dropped when the reader falls behind.
func (c *Coordinator) Notices() <-chan failure.Notice { return c.notices }

func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status.State
}

// Refreshing reports whether the refresh indicator should be shown.
func (c *Coordinator) Refreshing() bool {
	return c.State().Busy()
}

func (c *Coordinator) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.status
	s.Refreshing = s.State.Busy()
	if s.Notice != nil {
		n := *s.Notice
		s.Notice = &n
	}
	return s
}

// Run processes triggers and events until ctx is done.
func (c *Coordinator) Run(ctx context.Context) error {
	connCh, unsubscribe := c.conn.Subscribe()
	defer unsubscribe()
	c.connected = c.conn.Connected()

	c.deadline = time.NewTimer(time.Hour)
	stopTimer(c.deadline)
	defer c.deadline.Stop()

	for {
		var fixes <-chan locmodels.Fix
		if c.State() == AwaitingLocation {
			fixes = c.location.Fixes()
		}

		select {
		case <-ctx.Done():
			if c.State() == AwaitingLocation {
				c.location.Stop()
			}
			return nil

		case reason := <-c.triggers:
			c.begin(reason)

		case up, ok := <-connCh:
			if !ok {
				connCh = nil
				continue
			}
			c.onConnectivity(up)

		case perm := <-c.location.PermissionChanges():
			c.onPermission(perm)

		case fix := <-fixes:
			c.fetch(ctx, fix)

		case <-c.deadline.C:
			c.onDeadline()

		case res := <-c.results:
			c.apply(ctx, res)

		case <-c.dismiss:
			c.mu.Lock()
			c.status.Notice = nil
			c.mu.Unlock()
		}
	}
}

func (c *Coordinator) begin(reason string) {
	if c.State().Busy() {
		log.Printf("Refresh (%s) ignored: cycle already in %s", reason, c.State())
		return
	}
	log.Printf("Refresh triggered by %s", reason)

	c.setState(AwaitingConnectivity)
	if !c.connected {
		c.fail(failure.NewConnectivity("network unreachable"))
		return
	}

	switch perm := c.location.Permission(); {
	case perm == location.Undetermined:
		log.Println("Location permission undetermined, requesting authorization")
		c.location.RequestPermission()
		c.setState(Idle)
		return
	case perm.Blocked():
		c.fail(failure.NewPermission("location access " + perm.String()))
		return
	}

	if err := c.location.Start(); err != nil {
		c.fail(failure.NewPermission(err.Error()))
		return
	}
	c.cycle++
	c.setState(AwaitingLocation)
	c.arm(c.locationTimeout)
}

func (c *Coordinator) onConnectivity(up bool) {
	was := c.connected
	c.connected = up
	switch {
	case up && !was:
		c.begin("connectivity restored")
	case !up && c.State() == AwaitingLocation:
		c.location.Stop()
		c.fail(failure.NewConnectivity("network lost while waiting for location"))
	case !up && was:
		// Shown data may be stale. An in-flight fetch keeps its state and
		// still applies if it completes.
		log.Printf("Connectivity lost while %s", c.State())
		c.publish(failure.NoticeFor(failure.NewConnectivity("network lost")))
	}
}

func (c *Coordinator) onPermission(perm location.Permission) {
	switch {
	case perm == location.Authorized:
		c.begin("location authorized")
	case perm.Blocked() && c.State() == AwaitingLocation:
		c.location.Stop()
		c.fail(failure.NewPermission("location access " + perm.String()))
	}
}

func (c *Coordinator) onDeadline() {
	switch c.State() {
	case AwaitingLocation:
		c.location.Stop()
		c.fail(failure.NewLocationUnavailable("No location fix received in time"))
	case Fetching:
		// The background fetch may still finish; its result carries an old
		// cycle id and is dropped in apply.
		c.cycle++
		c.fail(failure.NewNetwork(context.DeadlineExceeded))
	}
}

// fetch runs the venue search for the first fix of the cycle. Observation
// stops here; later fixes do not start new searches.
func (c *Coordinator) fetch(ctx context.Context, fix locmodels.Fix) {
	c.location.Stop()
	c.setState(Fetching)
	c.arm(c.fetchTimeout)
	log.Printf("Fetching venues near %s (cycle %d)", fix.Coordinates, c.cycle)

	cycle := c.cycle
	go func() {
		fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()

		start := time.Now()
		venues, err := c.fetcher.FetchNearbyVenues(fetchCtx, fix.Coordinates.Lat, fix.Coordinates.Lon)
		observability.ObserveFetch(time.Since(start))

		select {
		case c.results <- fetchResult{cycle: cycle, venues: venues, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (c *Coordinator) apply(ctx context.Context, res fetchResult) {
	if res.cycle != c.cycle || c.State() != Fetching {
		log.Printf("Discarding stale fetch result from cycle %d (current %d)", res.cycle, c.cycle)
		return
	}
	stopTimer(c.deadline)

	if res.err != nil {
		c.fail(res.err)
		return
	}

	c.setState(Applying)
	if err := c.writer.ReplaceAll(ctx, res.venues); err != nil {
		c.fail(err)
		return
	}

	now := time.Now().UTC()
	c.mu.Lock()
	c.status.State = Idle
	c.status.Notice = nil
	c.status.LastRefreshed = now
	c.mu.Unlock()
	observability.RecordRefresh("success")
	log.Printf("Refresh complete: %d venues", len(res.venues))
}

func (c *Coordinator) fail(err error) {
	stopTimer(c.deadline)
	notice := failure.NoticeFor(err)
	log.Printf("Refresh failed (%s): %v", notice.Kind, err)

	c.setState(Failed)
	observability.RecordRefresh(notice.Kind.String())
	c.publish(notice)
}

// publish makes notice current and queues it for Notices readers.
func (c *Coordinator) publish(notice failure.Notice) {
	c.mu.Lock()
	c.status.Notice = &notice
	c.mu.Unlock()

	for {
		select {
		case c.notices <- notice:
			return
		default:
		}
		select {
		case <-c.notices:
		default:
		}
	}
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.status.State = s
	c.mu.Unlock()
}

func (c *Coordinator) arm(d time.Duration) {
	stopTimer(c.deadline)
	c.deadline.Reset(d)
}

func stopTimer(t *time.Timer) {
	if t == nil {
		return
	}
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
