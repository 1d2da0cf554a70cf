package connectivity

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan bool) bool {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for connectivity update")
		return false
	}
}

func TestMonitor_ReportsTransitionsOnly(t *testing.T) {
	m := NewMonitor(nil, time.Second)
	ch, unsubscribe := m.Subscribe()
	defer unsubscribe()

	m.Update(true)
	require.True(t, receive(t, ch))

	m.Update(true)
	select {
	case v := <-ch:
		t.Fatalf("unexpected duplicate update %t", v)
	default:
	}

	m.Update(false)
	require.False(t, receive(t, ch))
	require.False(t, m.Connected())
}

func TestMonitor_InitialStateDeliveredOnSubscribe(t *testing.T) {
	m := NewMonitor(nil, time.Second)
	m.Update(true)

	ch, unsubscribe := m.Subscribe()
	defer unsubscribe()
	require.True(t, receive(t, ch))
}

func TestMonitor_UnsubscribeClosesChannel(t *testing.T) {
	m := NewMonitor(nil, time.Second)
	ch, unsubscribe := m.Subscribe()
	unsubscribe()
	unsubscribe()

	_, ok := <-ch
	require.False(t, ok)
	m.Update(true)
}

func TestMonitor_RunPolls(t *testing.T) {
	var up atomic.Bool
	m := NewMonitor(ProberFunc(func(context.Context) bool { return up.Load() }), 10*time.Millisecond)
	ch, unsubscribe := m.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	require.False(t, receive(t, ch))
	up.Store(true)
	require.True(t, receive(t, ch))
}

func TestDialProber(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	require.True(t, DialProber{Address: addr, Timeout: time.Second}.Probe(context.Background()))

	require.NoError(t, ln.Close())
	require.False(t, DialProber{Address: addr, Timeout: time.Second}.Probe(context.Background()))
}
