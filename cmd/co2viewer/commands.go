package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/co2viewer/internal/config"
	"github.com/muurk/co2viewer/internal/discovery"
	"github.com/muurk/co2viewer/internal/gauge"
	"github.com/muurk/co2viewer/internal/logging"
	"github.com/muurk/co2viewer/internal/monitor"
	"github.com/muurk/co2viewer/internal/mqtt"
	"github.com/muurk/co2viewer/internal/relay"
	"github.com/muurk/co2viewer/internal/sensor"
	"github.com/muurk/co2viewer/internal/store"
	"github.com/muurk/co2viewer/internal/tui"
	"github.com/muurk/co2viewer/internal/ui"
)

// errReported is returned after a command already printed its failure.
var errReported = errors.New("command failed")

// Common flags (persistent on root). Zero values fall back to config.yaml.
var (
	sensorAddress  string
	pollInterval   time.Duration
	requestTimeout time.Duration
	logLevel       string
	gaugeRadius    int

	prefs *config.Preferences
)

func init() {
	rootCmd.PersistentFlags().StringVar(&sensorAddress, "address", "", "Sensor address for this run (not saved)")
	rootCmd.PersistentFlags().DurationVar(&pollInterval, "interval", 0, "Poll interval (default from config.yaml, 5s)")
	rootCmd.PersistentFlags().DurationVar(&requestTimeout, "timeout", 0, "Sensor request timeout (default from config.yaml, 4s)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().IntVar(&gaugeRadius, "radius", 0, "Gauge radius in rows (default from config.yaml, 7)")

	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(addressCmd)
	rootCmd.AddCommand(relayCmd)
	rootCmd.AddCommand(configCmd)
}

// loadPreferences reads config.yaml and fills in every flag left at zero.
func loadPreferences(cmd *cobra.Command) error {
	p, err := config.LoadPreferences("")
	if err != nil {
		return err
	}
	prefs = p

	if pollInterval <= 0 {
		pollInterval = prefs.PollInterval()
	}
	if requestTimeout <= 0 {
		requestTimeout = prefs.RequestTimeout()
	}
	if gaugeRadius <= 0 {
		gaugeRadius = prefs.GaugeRadius
	}
	return nil
}

func newSensorClient() *sensor.Client {
	client := sensor.NewClient()
	client.SetTimeout(requestTimeout)
	return client
}

// resolveAddress returns --address or the stored address.
func resolveAddress() (string, error) {
	if addr := strings.TrimSpace(sensorAddress); addr != "" {
		return addr, nil
	}
	st, err := store.Default()
	if err != nil {
		return "", err
	}
	if addr, ok := st.Load(); ok {
		return addr, nil
	}
	return "", errors.New("no sensor address configured (use --address or 'co2viewer address set <host>')")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	logPath, err := config.GetLogPath()
	if err != nil {
		return err
	}
	if err := logging.InitializeToFile(logLevel, logPath); err != nil {
		return err
	}
	defer logging.Sync()

	st, err := store.Default()
	if err != nil {
		return err
	}

	m := monitor.New(st, newSensorClient())
	if sensorAddress != "" {
		m.UseAddress(sensorAddress)
	}

	scanner := discovery.NewScanner()
	scanner.Timeout = prefs.DiscoverTimeout()

	return tui.Run(m, tui.Options{
		Interval:    pollInterval,
		Radius:      gaugeRadius,
		Scanner:     scanner,
		ScanTimeout: prefs.DiscoverTimeout(),
	})
}

// readCmd fetches and prints one reading
var (
	readFormat  string
	readRetries int
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Print the sensor's current reading",
	Long: `Fetch a single reading from the sensor and print it.

The address comes from --address or the stored address. Unlike the monitor,
which waits for the next tick after a failure, this command can retry with
exponential backoff.`,
	Example: `  # Read the stored sensor
  co2viewer read

  # Read a specific sensor, retrying twice
  co2viewer read --address 192.168.1.31 --retries 2

  # One line for a status bar
  co2viewer read --format compact

  # JSON output for scripting
  co2viewer read --format json`,
	RunE: runRead,
}

func init() {
	readCmd.Flags().StringVar(&readFormat, "format", "detailed", "Output format (detailed, compact, json)")
	readCmd.Flags().IntVar(&readRetries, "retries", 0, "Retries after a retryable failure")
}

func runRead(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}
	defer logging.Sync()

	address, err := resolveAddress()
	if err != nil {
		return err
	}

	client := newSensorClient()
	client.SetRetry(readRetries, sensor.DefaultRetryDelay)

	p := ui.NewPrinter(os.Stdout)

	raw, err := client.Fetch(cmd.Context(), address)
	if err == nil {
		var ppm float64
		if ppm, err = gauge.ParsePPM(raw); err == nil {
			return printReading(p, address, raw, ppm)
		}
		err = fmt.Errorf("sensor answered %q: %w", raw, err)
	}

	if readFormat != "detailed" {
		return fmt.Errorf("failed to read %s: %w", address, err)
	}
	p.PrintError("Failed to read sensor", err, sensor.TroubleshootingHint(err))
	return errReported
}

func printReading(p *ui.Printer, address, raw string, ppm float64) error {
	r := gauge.NewReading(ppm)
	label := gauge.Label(raw)

	switch readFormat {
	case "compact":
		p.Println(ui.RenderCompactReading(label, r))
	case "json":
		data, err := json.MarshalIndent(relay.NewReading(address, raw, ppm, time.Now()), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		p.Println(string(data))
	case "detailed":
		fallthrough
	default:
		p.PrintHeader("CO2 Reading", "co2viewer read", ui.Field{Key: "Sensor", Value: address})
		p.Println(ui.RenderReadingCard(address, label, r, gaugeRadius, p.Width()))
	}
	return nil
}

// scanCmd discovers sensors on the network
var (
	scanTimeout time.Duration
	scanPattern string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for CO2 sensors on the network",
	Long: `Scan for CO2 sensors using mDNS/DNS-SD discovery.

Sensors announce an HTTP service. Entries whose host or instance name
matches the pattern are listed with the address to store.`,
	Example: `  # Scan with the configured timeout
  co2viewer scan

  # Longer scan for slow networks
  co2viewer scan --timeout 10s

  # Match a differently named sensor
  co2viewer scan --pattern '(?i)^office-co2'`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 0, "Scan timeout (default from config.yaml, 3s)")
	scanCmd.Flags().StringVar(&scanPattern, "pattern", discovery.DefaultPattern, "Regular expression matched against host and instance names")
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}
	defer logging.Sync()

	scanner := discovery.NewScanner()
	if err := scanner.SetPattern(scanPattern); err != nil {
		return err
	}
	scanner.Timeout = scanTimeout
	if scanner.Timeout <= 0 {
		scanner.Timeout = prefs.DiscoverTimeout()
	}

	p := ui.NewPrinter(os.Stdout)
	p.PrintHeader("Sensor Discovery", "co2viewer scan",
		ui.Field{Key: "Timeout", Value: scanner.Timeout.String()},
	)

	devices, err := scanner.Scan(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	p.Println(ui.RenderDeviceList(devices, p.Width()))
	if len(devices) > 0 {
		p.Println("Use 'co2viewer address set <address>' to store a sensor")
	}
	return nil
}

// addressCmd shows and edits the stored sensor address
var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Show the stored sensor address",
	Long: `Show, set, or clear the sensor address the monitor starts with.

The address is kept in address_data.txt in the application data directory.
The monitor's settings form writes the same file.`,
	Example: `  # Show the stored address
  co2viewer address

  # Store a new address after checking it answers
  co2viewer address set 192.168.1.31 --verify

  # Forget the address
  co2viewer address clear`,
	Args: cobra.NoArgs,
	RunE: runAddressShow,
}

var verifyAddress bool

var addressSetCmd = &cobra.Command{
	Use:   "set <address>",
	Short: "Store the sensor address",
	Args:  cobra.ExactArgs(1),
	RunE:  runAddressSet,
}

var addressClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored sensor address",
	Args:  cobra.NoArgs,
	RunE:  runAddressClear,
}

func init() {
	addressSetCmd.Flags().BoolVar(&verifyAddress, "verify", false, "Read the sensor before storing the address")

	addressCmd.AddCommand(addressSetCmd)
	addressCmd.AddCommand(addressClearCmd)
}

func runAddressShow(cmd *cobra.Command, args []string) error {
	st, err := store.Default()
	if err != nil {
		return err
	}

	p := ui.NewPrinter(os.Stdout)
	addr, ok := st.Load()
	if !ok {
		p.PrintWarning("No sensor address stored",
			ui.Field{Key: "File", Value: st.Path()},
			ui.Field{Key: "Hint", Value: "co2viewer address set <host>"},
		)
		return nil
	}
	p.PrintSuccess("Stored sensor address",
		ui.Field{Key: "Address", Value: addr},
		ui.Field{Key: "File", Value: st.Path()},
	)
	return nil
}

func runAddressSet(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}
	defer logging.Sync()

	addr := strings.TrimSpace(args[0])
	if addr == "" {
		return errors.New("address cannot be blank")
	}

	p := ui.NewPrinter(os.Stdout)
	details := []ui.Field{{Key: "Address", Value: addr}}

	if verifyAddress {
		ppm, err := newSensorClient().ReadPPM(cmd.Context(), addr)
		if err != nil {
			p.PrintError("Address not saved", err, sensor.TroubleshootingHint(err))
			return errReported
		}
		details = append(details, ui.Field{Key: "Reading", Value: fmt.Sprintf("%g ppm", ppm)})
	}

	st, err := store.Default()
	if err != nil {
		return err
	}
	if err := st.Save(addr); err != nil {
		return err
	}

	details = append(details, ui.Field{Key: "File", Value: st.Path()})
	p.PrintSuccess("Sensor address saved", details...)
	return nil
}

func runAddressClear(cmd *cobra.Command, args []string) error {
	st, err := store.Default()
	if err != nil {
		return err
	}
	if err := st.Clear(); err != nil {
		return err
	}
	ui.NewPrinter(os.Stdout).PrintSuccess("Sensor address cleared",
		ui.Field{Key: "File", Value: st.Path()},
	)
	return nil
}

// relayCmd republishes readings over HTTP, WebSocket and MQTT
var (
	relayListen string
	tlsCertPath string
	tlsKeyPath  string
	mqttBroker  string
	mqttPort    int
	mqttTopic   string
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Serve the sensor's readings to other clients",
	Long: `Poll the sensor and republish every reading.

Endpoints:
  GET /co2      plain-text ppm, the same contract as the sensor
  GET /reading  JSON reading with level and color
  GET /ws       WebSocket stream of JSON snapshots
  GET /healthz  liveness probe

/co2 and /reading answer 503 while there is no current reading. When an MQTT
broker is configured each reading is also published to the topic, with a
retained online/offline status on <topic>/status.`,
	Example: `  # Serve the stored sensor on :8080
  co2viewer relay

  # Point another viewer at the relay
  co2viewer --address relay-host:8080

  # Publish to MQTT as well
  co2viewer relay --mqtt-broker localhost --mqtt-topic home/office/co2

  # Serve HTTPS
  co2viewer relay --listen :8443 --tls-cert cert.pem --tls-key key.pem`,
	RunE: runRelay,
}

func init() {
	relayCmd.Flags().StringVar(&relayListen, "listen", "", "Listen address (default from config.yaml, :8080)")
	relayCmd.Flags().StringVar(&tlsCertPath, "tls-cert", "", "TLS certificate file (PEM)")
	relayCmd.Flags().StringVar(&tlsKeyPath, "tls-key", "", "TLS private key file (PEM)")
	relayCmd.Flags().StringVar(&mqttBroker, "mqtt-broker", "", "MQTT broker host (empty disables MQTT)")
	relayCmd.Flags().IntVar(&mqttPort, "mqtt-port", 0, "MQTT broker port (default 1883)")
	relayCmd.Flags().StringVar(&mqttTopic, "mqtt-topic", "", "MQTT topic for readings (default co2viewer/ppm)")
}

func runRelay(cmd *cobra.Command, args []string) error {
	// The relay is a service; log at info unless told otherwise.
	level := logLevel
	if level == "" && os.Getenv(logging.LogLevelEnvVar) == "" {
		level = "info"
	}
	if err := logging.Initialize(level); err != nil {
		return err
	}
	defer logging.Sync()

	address, err := resolveAddress()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := relay.Config{
		Address:  address,
		Listen:   firstNonEmpty(relayListen, prefs.Relay.Listen),
		Interval: pollInterval,
		CertPath: tlsCertPath,
		KeyPath:  tlsKeyPath,
	}

	var pub *mqtt.Publisher
	if broker := firstNonEmpty(mqttBroker, prefs.Relay.MQTT.Broker); broker != "" {
		mqttCfg := mqtt.Config{
			Broker:   broker,
			Port:     prefs.Relay.MQTT.Port,
			Topic:    firstNonEmpty(mqttTopic, prefs.Relay.MQTT.Topic),
			ClientID: prefs.Relay.MQTT.ClientID,
		}
		if mqttPort > 0 {
			mqttCfg.Port = mqttPort
		}

		if pub, err = mqtt.NewPublisher(mqttCfg, logging.GetLogger()); err != nil {
			return err
		}
	}

	// A nil *mqtt.Publisher must not become a non-nil interface.
	var publisher relay.Publisher
	if pub != nil {
		publisher = pub
	}

	srv, err := relay.New(cfg, newSensorClient(), publisher)
	if err != nil {
		return err
	}

	if pub != nil {
		pub.SetOnConnect(srv.RepublishStatus)
		if err := pub.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to MQTT broker %s: %w", pub.Config().Broker, err)
		}
		defer pub.Disconnect()
	}

	return srv.Run(ctx)
}

// configCmd shows and initializes config.yaml
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show where co2viewer keeps its files and the preferences in effect.

Preferences live in config.yaml in the user config directory. Command-line
flags override them for a single run.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write config.yaml with the current preferences",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configInitCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	addressPath, err := config.GetAddressPath()
	if err != nil {
		return err
	}
	logPath, err := config.GetLogPath()
	if err != nil {
		return err
	}

	broker := prefs.Relay.MQTT.Broker
	if broker == "" {
		broker = "(disabled)"
	}

	ui.NewPrinter(os.Stdout).PrintSuccess("co2viewer configuration",
		ui.Field{Key: "Config file", Value: configPath},
		ui.Field{Key: "Address file", Value: addressPath},
		ui.Field{Key: "Log file", Value: logPath},
		ui.Field{Key: "Poll interval", Value: prefs.PollInterval().String()},
		ui.Field{Key: "Request timeout", Value: prefs.RequestTimeout().String()},
		ui.Field{Key: "Scan timeout", Value: prefs.DiscoverTimeout().String()},
		ui.Field{Key: "Gauge radius", Value: fmt.Sprintf("%d", prefs.GaugeRadius)},
		ui.Field{Key: "Relay listen", Value: prefs.Relay.Listen},
		ui.Field{Key: "MQTT broker", Value: broker},
		ui.Field{Key: "MQTT topic", Value: prefs.Relay.MQTT.Topic},
	)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if err := prefs.Save(""); err != nil {
		return err
	}
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	ui.NewPrinter(os.Stdout).PrintSuccess("Configuration written",
		ui.Field{Key: "File", Value: path},
	)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
