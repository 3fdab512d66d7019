package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"go1090/internal/app"
	"go1090/internal/dispatch"
)

func main() {
	config := app.DefaultConfig()

	var sourceSpecs []string
	var channelSpecs []string
	var watchSpecs []string
	var mqttBroker, mqttClientID, mqttUsername, mqttPassword, mqttTopicPrefix string
	var mqttQoS int

	rootCmd := &cobra.Command{
		Use:   "go1090",
		Short: "ADS-B Mode-S receiver, tracker and watchlist alert dispatcher",
		Long: `go1090 ingests raw Mode-S frames from one or more feeders (Beast, AVR or
a JSON snapshot poll), decodes and tracks aircraft state, and dispatches
throttled alerts for watchlisted aircraft over a LoRa gateway's serial port
and/or an MQTT broker.

Example usage:
  go1090 --source "name=local,type=beast_tcp,addr=127.0.0.1:30005" \
          --watch "kind=icao_exact,value=4840D6,label=target" \
          --channel "name=ops,template={icao} {callsign} {position} alt={alt_baro}ft" \
          --serial-port /dev/ttyUSB0 --verbose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.ShowVersion {
				app.ShowVersion()
				return nil
			}
			if err := applyFlagSpecs(&config, sourceSpecs, channelSpecs, watchSpecs); err != nil {
				return err
			}
			if mqttBroker != "" {
				config.MQTT = &dispatch.MQTTConfig{
					BrokerURL:   mqttBroker,
					ClientID:    mqttClientID,
					Username:    mqttUsername,
					Password:    mqttPassword,
					TopicPrefix: mqttTopicPrefix,
					QoS:         byte(mqttQoS),
					KeepAlive:   30 * time.Second,
				}
			}

			application := app.NewApplication(config)
			return application.Start()
		},
	}

	rootCmd.Flags().StringArrayVar(&sourceSpecs, "source", nil,
		`feeder spec "name=<n>,type=beast_tcp|avr_tcp|json_poll|raw_file,addr=<addr>[,framing=avr][,poll_interval_s=<n>]" (repeatable)`)
	rootCmd.Flags().StringArrayVar(&channelSpecs, "channel", nil,
		`alert channel spec "name=<n>,template=<t>[,psk=<b64>][,routing=primary|all|fallback][,interfaces=serial|mqtt][,downlink=true][,uplink=false]" (repeatable)`)
	rootCmd.Flags().StringArrayVar(&watchSpecs, "watch", nil,
		`watchlist entry spec "kind=icao_exact|icao_prefix|callsign_exact|callsign_regex,value=<v>[,label=<l>]" (repeatable)`)

	rootCmd.Flags().Float64Var(&config.ReferenceLat, "reference-lat", 0, "receiver latitude, anchors local CPR decode")
	rootCmd.Flags().Float64Var(&config.ReferenceLon, "reference-lon", 0, "receiver longitude, anchors local CPR decode")
	rootCmd.Flags().BoolVar(&config.HasReference, "has-reference", false, "enable the reference-lat/reference-lon anchor")

	rootCmd.Flags().DurationVar(&config.AircraftTimeout, "aircraft-timeout", config.AircraftTimeout, "expire an aircraft after this long without a message")
	rootCmd.Flags().IntVar(&config.MaxAircraft, "max-aircraft", config.MaxAircraft, "evict the oldest aircraft once the store exceeds this size")

	rootCmd.Flags().StringVar(&config.SerialPort, "serial-port", "", "serial device path for the LoRa gateway outbound interface")
	rootCmd.Flags().IntVar(&config.SerialBaud, "serial-baud", 57600, "serial baud rate")

	rootCmd.Flags().StringVar(&mqttBroker, "mqtt-broker", "", "MQTT broker URL (e.g. tcp://localhost:1883), enables the mqtt outbound interface")
	rootCmd.Flags().StringVar(&mqttClientID, "mqtt-client-id", "go1090", "MQTT client id")
	rootCmd.Flags().StringVar(&mqttUsername, "mqtt-username", "", "MQTT username")
	rootCmd.Flags().StringVar(&mqttPassword, "mqtt-password", "", "MQTT password")
	rootCmd.Flags().StringVar(&mqttTopicPrefix, "mqtt-topic-prefix", "go1090", "MQTT topic prefix (<prefix>/<channel>)")
	rootCmd.Flags().IntVar(&mqttQoS, "mqtt-qos", 0, "MQTT publish QoS (0 or 1)")

	rootCmd.Flags().StringVar(&config.ControlAddr, "control-addr", config.ControlAddr, "line-oriented control channel listen address, empty disables it")
	rootCmd.Flags().StringVarP(&config.LogDir, "log-dir", "l", "./logs", "alert log directory")
	rootCmd.Flags().BoolVarP(&config.LogRotateUTC, "utc", "u", true, "use UTC for log rotation")
	rootCmd.Flags().BoolVarP(&config.Verbose, "verbose", "v", false, "verbose logging")
	rootCmd.Flags().BoolVar(&config.ShowVersion, "version", false, "show version information")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// applyFlagSpecs parses the repeatable --source/--channel/--watch flags
// into config, returning the first parse error encountered.
func applyFlagSpecs(config *app.Config, sourceSpecs, channelSpecs, watchSpecs []string) error {
	for _, spec := range sourceSpecs {
		cfg, err := app.ParseSourceSpec(spec)
		if err != nil {
			return err
		}
		config.Sources = append(config.Sources, cfg)
	}
	for _, spec := range channelSpecs {
		ch, err := app.ParseChannelSpec(spec)
		if err != nil {
			return err
		}
		config.Channels = append(config.Channels, ch)
	}
	for _, spec := range watchSpecs {
		entry, err := app.ParseWatchlistSpec(spec)
		if err != nil {
			return err
		}
		config.WatchlistEntries = append(config.WatchlistEntries, entry)
	}
	return nil
}
