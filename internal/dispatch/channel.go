package dispatch

import "time"

// RoutingPolicy decides which interfaces carry a channel's traffic when more
// than one is configured.
type RoutingPolicy int

const (
	// RoutingPrimary sends to the first interface in Interfaces, moving on to
	// the next only when a send fails; interface state is not consulted.
	RoutingPrimary RoutingPolicy = iota
	// RoutingAll sends to every configured interface, regardless of health.
	RoutingAll
	// RoutingFallback sends to the first interface; if it is degraded, the
	// next is tried, and so on, without returning to a recovered primary
	// until it is probed healthy again.
	RoutingFallback
)

func parseRoutingPolicy(s string) RoutingPolicy {
	switch s {
	case "all":
		return RoutingAll
	case "fallback":
		return RoutingFallback
	default:
		return RoutingPrimary
	}
}

// ChannelConfig names one alert channel: its template, throttle policy, PSK
// and the ordered interfaces that may carry it.
type ChannelConfig struct {
	Name             string
	Template         *Template
	PSK              []byte // nil disables encryption for this channel
	ChannelNumber    int
	UplinkEnabled    bool
	DownlinkEnabled  bool
	Routing          RoutingPolicy
	Interfaces       []string // names, matched against OutboundInterface.Name()
	MinIntervalSec   int
	MaxAlertsPerHour int
	MaxMessageLength int
	MessageTTL       time.Duration
	MaxAttempts      int
}

// DefaultChannelConfig mirrors the documented per-channel defaults.
func DefaultChannelConfig(name string) ChannelConfig {
	return ChannelConfig{
		Name:             name,
		UplinkEnabled:    false,
		DownlinkEnabled:  true,
		Routing:          RoutingPrimary,
		MinIntervalSec:   300,
		MaxAlertsPerHour: 10,
		MaxMessageLength: 200,
		MessageTTL:       300 * time.Second,
		MaxAttempts:      3,
	}
}
