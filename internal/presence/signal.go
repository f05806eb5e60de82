package presence

import (
	"fmt"
	"strings"

	"github.com/prudhvinik1/chatline/internal/models"
)

// Signal is a liveness event observed by a client session.
type Signal int

const (
	SignalVisible Signal = iota + 1
	SignalHidden
	SignalNetworkOnline
	SignalNetworkOffline
	// SignalUnload is sent by the client right before its page goes away.
	SignalUnload
)

// Status is the presence status a signal maps to.
func (s Signal) Status() models.PresenceStatus {
	switch s {
	case SignalVisible, SignalNetworkOnline:
		return models.StatusOnline
	default:
		return models.StatusOffline
	}
}

func (s Signal) String() string {
	switch s {
	case SignalVisible:
		return "visible"
	case SignalHidden:
		return "hidden"
	case SignalNetworkOnline:
		return "online"
	case SignalNetworkOffline:
		return "offline"
	case SignalUnload:
		return "unload"
	default:
		return fmt.Sprintf("signal(%d)", int(s))
	}
}

// Event is the wire form of a signal:
//
//	{"event":"visibility","state":"hidden"}
//	{"event":"online"} {"event":"offline"} {"event":"unload"}
type Event struct {
	Event string `json:"event"`
	State string `json:"state,omitempty"`
}

// ParseEvent maps a client event to a Signal.
func ParseEvent(ev Event) (Signal, error) {
	switch strings.ToLower(strings.TrimSpace(ev.Event)) {
	case "visibility", "visibilitychange":
		switch strings.ToLower(strings.TrimSpace(ev.State)) {
		case "visible":
			return SignalVisible, nil
		case "hidden":
			return SignalHidden, nil
		default:
			return 0, fmt.Errorf("unknown visibility state %q", ev.State)
		}
	case "online":
		return SignalNetworkOnline, nil
	case "offline":
		return SignalNetworkOffline, nil
	case "unload", "beforeunload":
		return SignalUnload, nil
	default:
		return 0, fmt.Errorf("unknown presence event %q", ev.Event)
	}
}
