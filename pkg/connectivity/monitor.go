// Package connectivity watches network reachability and reports every
// transition to its subscribers.
package connectivity

import (
	"context"
	"log"
	"net"
	"sync"
	"time"
)

// Prober checks whether the network is usable right now.
type Prober interface {
	Probe(ctx context.Context) bool
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) bool

func (f ProberFunc) Probe(ctx context.Context) bool { return f(ctx) }

// DialProber reports the network as satisfied when a TCP connection to
// Address can be opened.
type DialProber struct {
	Address string
	Timeout time.Duration
}

func (p DialProber) Probe(ctx context.Context) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.Address)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Monitor polls a Prober and broadcasts changes. Until the first probe
// completes the network is treated as unsatisfied.
type Monitor struct {
	prober   Prober
	interval time.Duration

	mu        sync.Mutex
	known     bool
	connected bool
	nextID    int
	subs      map[int]chan bool
}

func NewMonitor(prober Prober, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Monitor{
		prober:   prober,
		interval: interval,
		subs:     make(map[int]chan bool),
	}
}

// Run probes immediately and then on every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		m.Update(m.prober.Probe(ctx))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Update records a reachability reading and notifies subscribers if it
// differs from the previous one.
func (m *Monitor) Update(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.known && m.connected == connected {
		return
	}
	m.known = true
	m.connected = connected
	log.Printf("Network connectivity changed: connected=%t", connected)
	for _, ch := range m.subs {
		send(ch, connected)
	}
}

// Connected returns the most recent reading.
func (m *Monitor) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Subscribe returns a channel of transitions. The current state is
// delivered first once it is known. Readers that fall behind only see the
// latest state.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan bool, 1)
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	if m.known {
		ch <- m.connected
	}

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}
}

func send(ch chan bool, v bool) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
