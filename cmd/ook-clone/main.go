// ook-clone: capture and replay fixed-code OOK remotes
//
// The demodulated carrier is read from a GPIO line wired to the radio's data
// output (GDO0 on a YardStick One). The same line drives the radio's data
// input when replaying.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/gousb"
	"github.com/spf13/pflag"

	"github.com/herlein/ookclone/pkg/cloner"
	"github.com/herlein/ookclone/pkg/config"
	"github.com/herlein/ookclone/pkg/gpio"
	"github.com/herlein/ookclone/pkg/metrics"
	"github.com/herlein/ookclone/pkg/profiles"
	"github.com/herlein/ookclone/pkg/pulse"
	"github.com/herlein/ookclone/pkg/radio"
	"github.com/herlein/ookclone/pkg/store"
	"github.com/herlein/ookclone/pkg/timing"
	"github.com/herlein/ookclone/pkg/yardstick"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] <command> [name]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  sniff [name]   wait for a signal, record it and save it\n")
	fmt.Fprintf(os.Stderr, "  play <name>    transmit a saved capture\n")
	fmt.Fprintf(os.Stderr, "  show <name>    summarize a saved capture\n")
	fmt.Fprintf(os.Stderr, "  list           list saved captures\n\n")
	fmt.Fprintf(os.Stderr, "Flags:\n")
	pflag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nPresets: %v\n", profiles.PresetNames())
	fmt.Fprintf(os.Stderr, "\n%s\n", yardstick.SelectorUsage)
}

func main() {
	configPath := pflag.StringP("config", "c", "", "YAML configuration file")
	verbose := pflag.BoolP("verbose", "v", false, "Debug logging")
	device := pflag.StringP("device", "d", "", "YardStick selector (overrides radio.device)")
	dataLine := pflag.IntP("line", "l", -1, "GPIO offset of the data line (overrides gpio.data_line)")
	chip := pflag.String("chip", "", "GPIO chip (overrides gpio.chip)")
	preset := pflag.StringP("preset", "p", "", "Radio preset (overrides radio.preset)")
	backend := pflag.StringP("backend", "b", "", "Radio backend: yardstick or ptt")
	dir := pflag.String("dir", "", "Capture directory (overrides store.dir)")
	saveEmpty := pflag.Bool("save-empty", false, "Save captures with no transitions")
	repeat := pflag.IntP("repeat", "r", 1, "Transmissions per play")
	gap := pflag.Duration("gap", 100*time.Millisecond, "Pause between repeated transmissions")
	help := pflag.BoolP("help", "h", false, "Display help text")
	pflag.Usage = usage
	pflag.Parse()

	if *help {
		usage()
		os.Exit(0)
	}
	if pflag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "ook-clone",
	})

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Fatal("failed to load config", "path", *configPath, "err", err)
		}
	}

	if *device != "" {
		cfg.Radio.Device = *device
	}
	if *dataLine >= 0 {
		cfg.GPIO.DataLine = dataLine
	}
	if *chip != "" {
		cfg.GPIO.Chip = *chip
	}
	if *preset != "" {
		cfg.Radio.Preset = *preset
	}
	if *backend != "" {
		cfg.Radio.Backend = *backend
	}
	if *dir != "" {
		cfg.Store.Dir = *dir
	}
	if *saveEmpty {
		cfg.Capture.SaveEmpty = true
	}

	logger.SetLevel(cfg.LogLevel())
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	command, name := pflag.Arg(0), pflag.Arg(1)

	st, err := store.Open(cfg.Store.Dir, cfg.Store.NamePattern)
	if err != nil {
		logger.Fatal("failed to open capture store", "err", err)
	}

	switch command {
	case "list":
		os.Exit(list(cloner.New(cloner.Options{Logger: logger, Store: st}), logger))
	case "show":
		if name == "" {
			logger.Fatal("show needs a capture name")
		}
		os.Exit(show(cloner.New(cloner.Options{Logger: logger, Store: st}), logger, name))
	case "sniff", "play":
		if command == "play" && name == "" {
			logger.Fatal("play needs a capture name")
		}
	default:
		usage()
		os.Exit(2)
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}
	settings, err := cfg.RadioSettings()
	if err != nil {
		logger.Fatal("invalid radio settings", "err", err)
	}

	hw, err := openHardware(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open hardware", "err", err)
	}
	defer hw.Close()

	var recorder *metrics.Recorder
	if cfg.Metrics.Pushgateway != "" {
		recorder = metrics.New()
	}

	c := cloner.New(cloner.Options{
		Logger:    logger,
		Clock:     timing.NewSystem(),
		Capture:   cfg.CaptureConfig(),
		Radio:     hw.radio,
		Settings:  settings,
		Line:      hw.data,
		Store:     st,
		Metrics:   recorder,
		Realtime:  cfg.Realtime,
		SaveEmpty: cfg.Capture.SaveEmpty,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := 0
	if err := c.Setup(); err != nil {
		logger.Error("radio setup failed", "err", err)
		code = 1
	} else {
		switch command {
		case "sniff":
			code = sniff(ctx, c, logger, name)
		case "play":
			code = play(ctx, c, logger, name, *repeat, *gap)
		}
	}

	if recorder != nil {
		if err := recorder.Push(cfg.Metrics.Pushgateway, cfg.Metrics.Job); err != nil {
			logger.Warn("failed to push metrics", "gateway", cfg.Metrics.Pushgateway, "err", err)
		}
	}

	if code != 0 {
		hw.Close()
		os.Exit(code)
	}
}

func sniff(ctx context.Context, c *cloner.Cloner, logger *log.Logger, name string) int {
	capture, err := c.Sniff(ctx, name)
	switch {
	case errors.Is(err, pulse.ErrNoSignalDetected), errors.Is(err, cloner.ErrEmptyCapture):
		return 3
	case err != nil:
		logger.Error("capture failed", "err", err)
		return 1
	}
	fmt.Printf("%s: %d pulses, %v\n", capture.Path, len(capture.Sequence), capture.Sequence.Total())
	return 0
}

func play(ctx context.Context, c *cloner.Cloner, logger *log.Logger, name string, repeat int, gap time.Duration) int {
	reports, err := c.PlayRepeat(ctx, name, max(repeat, 1), gap)
	for _, report := range reports {
		fmt.Printf("%s: %d pulses in %v (drift %v)\n", name, report.Pulses, report.Elapsed, report.Drift())
	}
	if err != nil {
		var rerr *pulse.ReplayError
		if errors.As(err, &rerr) {
			logger.Error("replay failed", "step", rerr.Step, "err", rerr.Err)
		} else {
			logger.Error("replay failed", "err", err)
		}
		return 1
	}
	return 0
}

func show(c *cloner.Cloner, logger *log.Logger, name string) int {
	sum, err := c.Show(name)
	if err != nil {
		logger.Error("failed to read capture", "err", err)
		return 1
	}
	fmt.Printf("Capture:  %s\n", sum.Path)
	fmt.Printf("Pulses:   %d\n", sum.Pulses)
	fmt.Printf("Total:    %v\n", sum.Total)
	if sum.Pulses > 0 {
		fmt.Printf("Shortest: %d us\n", sum.Shortest)
		fmt.Printf("Longest:  %d us\n", sum.Longest)
	}
	return 0
}

func list(c *cloner.Cloner, logger *log.Logger) int {
	entries, err := c.List()
	if err != nil {
		logger.Error("failed to list captures", "err", err)
		return 1
	}
	if len(entries) == 0 {
		fmt.Println("No captures")
		return 0
	}
	for _, e := range entries {
		fmt.Printf("  %-32s %6d bytes  %s\n", e.Name, e.Size, e.ModTime.Format("2006-01-02 15:04:05"))
	}
	return 0
}

// hardware holds the opened radio and lines until Close.
type hardware struct {
	radio   pulse.Radio
	data    *gpio.Line
	closers []func() error
}

func (h *hardware) Close() {
	for i := len(h.closers) - 1; i >= 0; i-- {
		h.closers[i]()
	}
	h.closers = nil
}

func openHardware(cfg *config.Config, logger *log.Logger) (*hardware, error) {
	hw := &hardware{}

	data, err := gpio.Open(cfg.DataLine())
	if err != nil {
		return nil, err
	}
	hw.data = data
	hw.closers = append(hw.closers, data.Close)
	logger.Debug("data line", "line", data)

	switch cfg.Radio.Backend {
	case config.BackendYardStick:
		usb := gousb.NewContext()
		hw.closers = append(hw.closers, usb.Close)

		dev, err := yardstick.SelectDevice(usb, cfg.Radio.Device)
		if err != nil {
			hw.Close()
			return nil, err
		}
		hw.closers = append(hw.closers, dev.Close)
		logger.Info("using radio", "device", dev)
		hw.radio = radio.NewYardStick(dev, cfg.Radio.Amplifier)

	case config.BackendPTT:
		idle := pulse.Low
		if cfg.Radio.PTTInvert {
			idle = pulse.High
		}
		enable, err := gpio.OpenOutput(cfg.PTTLine(), idle)
		if err != nil {
			hw.Close()
			return nil, err
		}
		hw.closers = append(hw.closers, enable.Close)
		logger.Info("using transmitter", "enable", enable)
		hw.radio = radio.NewPTT(enable, 0, cfg.Radio.PTTInvert)
	}

	return hw, nil
}
