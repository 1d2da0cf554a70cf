package failure

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"connectivity", NewConnectivity("no connection"), Connectivity},
		{"wrapped network", fmt.Errorf("fetch: %w", NewNetwork(errors.New("dial tcp: timeout"))), Network},
		{"plain error", errors.New("boom"), Unknown},
		{"nil", nil, Unknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Fatalf("KindOf(%v) = %v; want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestErrorsIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("cycle 3: %w", NewData("There are no new venues to show", nil))
	if !errors.Is(err, ErrData) {
		t.Fatalf("expected errors.Is(err, ErrData) for %v", err)
	}
	if errors.Is(err, ErrNetwork) {
		t.Fatalf("did not expect errors.Is(err, ErrNetwork) for %v", err)
	}
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewPersistence(cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable through Unwrap")
	}
}

func TestNoticeFor(t *testing.T) {
	cases := []struct {
		name         string
		err          error
		wantTitle    string
		wantMessage  string
		wantSettings bool
	}{
		{"connectivity", NewConnectivity("no connection"), "No connection!", noConnectionMessage, false},
		{"permission offers settings", NewPermission("no location access"), "No location access", noLocationMessage, true},
		{"data keeps message", NewData("There are no new venues to show", nil), "No Internet!", "There are no new venues to show", false},
		{"network uses cause", NewNetwork(errors.New("connection refused")), "No Internet!", "connection refused", false},
		{"persistence", NewPersistence(errors.New("disk full")), "Error", "disk full", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := NoticeFor(tc.err)
			if n.Title != tc.wantTitle {
				t.Errorf("Title = %q; want %q", n.Title, tc.wantTitle)
			}
			if n.Message != tc.wantMessage {
				t.Errorf("Message = %q; want %q", n.Message, tc.wantMessage)
			}
			if (n.SettingsURL != "") != tc.wantSettings {
				t.Errorf("SettingsURL = %q; wantSettings %v", n.SettingsURL, tc.wantSettings)
			}
		})
	}
}
