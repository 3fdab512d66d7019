package app

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go1090/internal/dispatch"
	"go1090/internal/source"
	"go1090/internal/tracker"
	"go1090/internal/watchlist"
)

// Default configuration constants, named after the spec's documented
// per-field defaults.
const (
	DefaultAircraftTimeout    = 300 * time.Second
	DefaultMaxAircraft        = 10000
	DefaultGlobalCPRAirborne  = 10 * time.Second
	DefaultGlobalCPRSurface   = 25 * time.Second
	DefaultLocalCPRRangeNM    = 180.0
	DefaultPositionTimeout    = 60 * time.Second
	DefaultMinIntervalSec     = 300
	DefaultMaxAlertsPerHour   = 10
	DefaultMaxMessageLength   = 200
	DefaultMessageTTL         = 300 * time.Second
	DefaultMaxAttempts        = 3
	DefaultHealthCheckSeconds = 60
	DefaultShutdownGrace      = 5 * time.Second
)

// Config holds everything the Application needs to wire the pipeline.
// Every field is populated from cobra flags in cmd/go1090/main.go;
// config-file parsing is out of scope.
type Config struct {
	Sources []source.Config

	// CPR
	ReferenceLat      float64
	ReferenceLon      float64
	HasReference      bool
	GlobalCPRAirborne time.Duration
	GlobalCPRSurface  time.Duration
	LocalCPRRangeNM   float64
	PositionTimeout   time.Duration

	// Tracker
	AircraftTimeout time.Duration
	MaxAircraft     int
	BDSConfirmWindow time.Duration

	// Watchlist
	WatchlistEntries []watchlist.Entry

	// Dispatcher
	Channels         []dispatch.ChannelConfig
	MQTT             *dispatch.MQTTConfig
	SerialPort       string
	SerialBaud       int
	HealthCheckSec   int
	ShutdownGrace    time.Duration

	// Control channel
	ControlAddr string

	LogDir       string
	LogRotateUTC bool
	Verbose      bool
	ShowVersion  bool
}

// DefaultConfig returns a Config with every documented default filled in
// and no sources, channels, or watchlist entries.
func DefaultConfig() Config {
	return Config{
		GlobalCPRAirborne: DefaultGlobalCPRAirborne,
		GlobalCPRSurface:  DefaultGlobalCPRSurface,
		LocalCPRRangeNM:   DefaultLocalCPRRangeNM,
		PositionTimeout:   DefaultPositionTimeout,
		AircraftTimeout:   DefaultAircraftTimeout,
		MaxAircraft:       DefaultMaxAircraft,
		BDSConfirmWindow:  30 * time.Second,
		ShutdownGrace:     DefaultShutdownGrace,
		HealthCheckSec:    DefaultHealthCheckSeconds,
		LogDir:            "./logs",
		LogRotateUTC:      true,
		ControlAddr:       "127.0.0.1:30105",
	}
}

// TrackerConfig projects the relevant fields into a tracker.Config.
func (c Config) TrackerConfig() tracker.Config {
	return tracker.Config{
		AircraftTimeout:         c.AircraftTimeout,
		MaxAircraft:             c.MaxAircraft,
		GlobalCPRWindowAirborne: c.GlobalCPRAirborne,
		GlobalCPRWindowSurface:  c.GlobalCPRSurface,
		LocalCPRRangeNM:         c.LocalCPRRangeNM,
		PositionTimeout:         c.PositionTimeout,
		BDSConfirmWindow:        c.BDSConfirmWindow,
	}
}

// ParseSourceSpec parses one --source flag value of the form
// "name=<name>,type=<beast_tcp|avr_tcp|json_poll|raw_file>,addr=<addr>[,framing=<beast|avr>]".
func ParseSourceSpec(spec string) (source.Config, error) {
	fields := parseKeyValues(spec)
	name := fields["name"]
	addr := fields["addr"]
	if name == "" || addr == "" {
		return source.Config{}, fmt.Errorf("source spec %q requires name and addr", spec)
	}

	var typ source.Type
	switch fields["type"] {
	case "beast_tcp", "":
		typ = source.TypeBeastTCP
	case "avr_tcp":
		typ = source.TypeAVRTCP
	case "json_poll":
		typ = source.TypeJSONPoll
	case "raw_file":
		typ = source.TypeRawFile
	default:
		return source.Config{}, fmt.Errorf("source spec %q: unknown type %q", spec, fields["type"])
	}

	cfg := source.DefaultConfig(name, typ, addr)
	if fields["framing"] == "avr" {
		cfg.Framing = source.FramingAVR
	}
	if v, ok := fields["poll_interval_s"]; ok {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.PollInterval = time.Duration(secs) * time.Second
		}
	}
	return cfg, nil
}

// ParseChannelSpec parses one --channel flag value of the form
// "name=<name>,template=<template>[,psk=<b64>][,routing=primary|all|fallback]
// [,interfaces=serial|mqtt][,downlink=true][,uplink=false]".
func ParseChannelSpec(spec string) (dispatch.ChannelConfig, error) {
	fields := parseKeyValues(spec)
	name := fields["name"]
	if name == "" {
		return dispatch.ChannelConfig{}, fmt.Errorf("channel spec %q requires name", spec)
	}
	ch := dispatch.DefaultChannelConfig(name)
	if t, ok := fields["template"]; ok {
		tmpl, err := dispatch.NewTemplate(t)
		if err != nil {
			return dispatch.ChannelConfig{}, fmt.Errorf("channel %s: %w", name, err)
		}
		ch.Template = tmpl
	}
	if v, ok := fields["psk"]; ok {
		key, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return dispatch.ChannelConfig{}, fmt.Errorf("channel %s: invalid psk: %w", name, err)
		}
		ch.PSK = key
	}
	if v, ok := fields["interfaces"]; ok {
		ch.Interfaces = strings.Split(v, "|")
	}
	if v, ok := fields["routing"]; ok {
		ch.Routing = parseRoutingPolicyOrDefault(v, ch.Routing)
	}
	if v, ok := fields["downlink"]; ok {
		ch.DownlinkEnabled = v == "true"
	}
	if v, ok := fields["uplink"]; ok {
		ch.UplinkEnabled = v == "true"
	}
	return ch, nil
}

// ParseWatchlistSpec parses one --watch flag value of the form
// "kind=icao_exact|icao_prefix|callsign_exact|callsign_regex,value=<v>[,label=<l>]".
func ParseWatchlistSpec(spec string) (watchlist.Entry, error) {
	fields := parseKeyValues(spec)
	value := fields["value"]
	if value == "" {
		return watchlist.Entry{}, fmt.Errorf("watch spec %q requires value", spec)
	}
	var kind watchlist.Kind
	switch fields["kind"] {
	case "icao_exact", "":
		kind = watchlist.KindICAOExact
	case "icao_prefix":
		kind = watchlist.KindICAOPrefix
	case "callsign_exact":
		kind = watchlist.KindCallsignExact
	case "callsign_regex":
		kind = watchlist.KindCallsignRegex
	default:
		return watchlist.Entry{}, fmt.Errorf("watch spec %q: unknown kind %q", spec, fields["kind"])
	}
	return watchlist.Entry{Kind: kind, Value: value, Label: fields["label"]}, nil
}

func parseKeyValues(spec string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(spec, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		out[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return out
}

func parseRoutingPolicyOrDefault(s string, fallback dispatch.RoutingPolicy) dispatch.RoutingPolicy {
	switch s {
	case "primary":
		return dispatch.RoutingPrimary
	case "all":
		return dispatch.RoutingAll
	case "fallback":
		return dispatch.RoutingFallback
	default:
		return fallback
	}
}
