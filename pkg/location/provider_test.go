package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"nearme/models"
)

var (
	cityHall = models.Coordinates{Lat: 40.7128, Lon: -74.0060}
	nearby   = models.Coordinates{Lat: 40.7132, Lon: -74.0060} // ~45 m north
	uptown   = models.Coordinates{Lat: 40.7140, Lon: -74.0060} // ~134 m north
)

func fix(c models.Coordinates) models.Fix { return models.Fix{Coordinates: c} }

func receive(t *testing.T, p *Provider) models.Fix {
	t.Helper()
	select {
	case f := <-p.Fixes():
		return f
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for fix")
	}
	return models.Fix{}
}

func requireNoFix(t *testing.T, p *Provider) {
	t.Helper()
	select {
	case f := <-p.Fixes():
		t.Fatalf("unexpected fix %+v", f)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestProvider_StartRequiresAuthorization(t *testing.T) {
	for _, perm := range []Permission{Undetermined, Denied, Restricted} {
		p := NewProvider(nil, WithPermission(perm))
		require.ErrorIs(t, p.Start(), ErrNotAuthorized, perm.String())
		require.False(t, p.Observing())
	}
}

func TestProvider_DistanceFilter(t *testing.T) {
	p := NewProvider(nil, WithPermission(Authorized))

	p.handle(fix(cityHall))
	requireNoFix(t, p)

	require.NoError(t, p.Start())
	require.Equal(t, cityHall, receive(t, p).Coordinates, "latest fix is published on start")

	p.handle(fix(nearby))
	requireNoFix(t, p)

	p.handle(fix(uptown))
	require.Equal(t, uptown, receive(t, p).Coordinates)

	p.Stop()
	p.handle(fix(cityHall))
	requireNoFix(t, p)
}

func TestProvider_StopDiscardsUnreadFix(t *testing.T) {
	p := NewProvider(nil, WithPermission(Authorized))
	require.NoError(t, p.Start())
	p.handle(fix(cityHall))
	p.Stop()
	requireNoFix(t, p)
}

func TestProvider_PermissionChanges(t *testing.T) {
	prompted := 0
	p := NewProvider(nil, WithPrompter(PrompterFunc(func() { prompted++ })))

	p.RequestPermission()
	require.Equal(t, 1, prompted)

	p.SetPermission(Authorized)
	require.Equal(t, Authorized, <-p.PermissionChanges())

	p.RequestPermission()
	require.Equal(t, 1, prompted, "no prompt once decided")

	require.NoError(t, p.Start())
	p.SetPermission(Denied)
	require.Equal(t, Denied, <-p.PermissionChanges())
	require.False(t, p.Observing(), "revoking permission stops observation")
}

func TestProvider_RunWithStaticFeed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewProvider(StaticFeed{At: cityHall}, WithPermission(Authorized))
	require.NoError(t, p.Start())

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	got := receive(t, p)
	require.Equal(t, cityHall, got.Coordinates)
	require.Equal(t, "static", got.Source)

	cancel()
	require.NoError(t, <-done)
}

func TestParsePermission(t *testing.T) {
	cases := []struct {
		in      string
		want    Permission
		wantErr bool
	}{
		{"authorized", Authorized, false},
		{" Denied ", Denied, false},
		{"restricted", Restricted, false},
		{"", Undetermined, false},
		{"maybe", Undetermined, true},
	}
	for _, tc := range cases {
		got, err := ParsePermission(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParsePermission(%q) = %v, %v; want %v, err=%v", tc.in, got, err, tc.want, tc.wantErr)
		}
	}
}

type stubSource struct {
	msgs    chan kafka.Message
	commits int
}

func (s *stubSource) Messages() <-chan kafka.Message { return s.msgs }

func (s *stubSource) CommitOffset(context.Context, kafka.Message) error {
	s.commits++
	return nil
}

func TestKafkaFeed_DecodesAndCommits(t *testing.T) {
	src := &stubSource{msgs: make(chan kafka.Message, 3)}
	src.msgs <- kafka.Message{Offset: 1, Value: []byte(`{"lat":40.7128,"lon":-74.006}`)}
	src.msgs <- kafka.Message{Offset: 2, Value: []byte(`not json`)}
	src.msgs <- kafka.Message{Offset: 3, Value: []byte(`{"coordinates":{"lat":1.5,"lon":2.5}}`)}
	close(src.msgs)

	var got []models.Fix
	err := NewKafkaFeed(src).Run(context.Background(), func(f models.Fix) { got = append(got, f) })
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, models.Coordinates{Lat: 40.7128, Lon: -74.006}, got[0].Coordinates)
	require.Equal(t, "kafka", got[1].Source)
	require.Equal(t, 3, src.commits, "bad payloads are committed too")
}

func TestDecodeFix_MissingCoordinates(t *testing.T) {
	_, err := DecodeFix([]byte(`{"lat":1}`))
	require.True(t, errors.Is(err, errMissingCoordinates))
}
