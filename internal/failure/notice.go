package failure

import "errors"

// SettingsURL is the deep link offered with location permission notices.
const SettingsURL = "app-settings:LOCATION"

const (
	noConnectionMessage = "This app needs internet to fetch the venues around you. Shown data might be inaccurate, connect to the Internet and pull the table to refresh the data."
	noLocationMessage   = "This app needs access to your location in order to show you the closest venues."
)

// Notice is what the user sees when a refresh cycle fails: a single message
// with a dismiss action and, for permission problems, a settings link.
type Notice struct {
	Kind        Kind   `json:"kind"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	Dismiss     string `json:"dismiss"`
	SettingsURL string `json:"settingsUrl,omitempty"`
}

// NoticeFor builds the notice for err.
func NoticeFor(err error) Notice {
	kind := KindOf(err)
	n := Notice{Kind: kind, Dismiss: "Ok"}
	switch kind {
	case Connectivity:
		n.Title = "No connection!"
		n.Message = noConnectionMessage
	case Permission:
		n.Title = "No location access"
		n.Message = noLocationMessage
		n.Dismiss = "Open Settings"
		n.SettingsURL = SettingsURL
	case Network, Data:
		n.Title = "No Internet!"
		n.Message = messageOf(err)
	case LocationUnavailable:
		n.Title = "No location"
		n.Message = messageOf(err)
	default:
		n.Title = "Error"
		n.Message = messageOf(err)
	}
	return n
}

func messageOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		if fe.Message != "" {
			return fe.Message
		}
		if fe.Err != nil {
			return fe.Err.Error()
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
