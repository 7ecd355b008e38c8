package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mzyy94/nelprint/internal/config"
	"github.com/mzyy94/nelprint/internal/printer"
	"github.com/mzyy94/nelprint/internal/raster"
	"github.com/mzyy94/nelprint/internal/tspl"
)

func main() {
	logLevel := parseLogLevel(envStr("NELPRINT_LOG_LEVEL", "info"))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	store := openStore()
	settings := store.Get()

	device := flag.String("device", "", "serial device path (default: NELPRINT_DEVICE, then last used)")
	image := flag.String("image", "", "image file to print (png, jpeg, gif, bmp, tiff)")
	density := flag.Int("density", settings.Density, "print density (1-15)")
	copies := flag.Int("copies", settings.Copies, "number of copies")
	showConfig := flag.Bool("config", false, "query device configuration")
	showStatus := flag.Bool("status", false, "query label status")
	showBattery := flag.Bool("battery", false, "query battery state")
	timeoutMin := flag.Int("timeout", 0, "auto power-off in minutes (0, 15, 30 or 60)")
	beep := flag.Bool("beep", false, "print beep on (true) or off (false)")
	selfTest := flag.Bool("selftest", false, "print the built-in test page")
	listPorts := flag.Bool("ports", false, "list serial ports and exit")
	discover := flag.Bool("discover", false, "probe serial ports for a printer")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options]\n\nNelko P21 label printer driver.\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if len(os.Args) == 1 {
		flag.Usage()
		return
	}

	// 0 and false are meaningful values for --timeout and --beep, so
	// presence has to be tracked separately from the parsed value.
	flagsSet := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { flagsSet[f.Name] = true })

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *listPorts {
		ports, err := printer.ListPorts()
		if err != nil {
			slog.Error("port enumeration failed", "err", err)
			os.Exit(1)
		}
		for _, info := range ports {
			if info.USB {
				fmt.Printf("%s\tUSB %s:%s %s\n", info.Name, info.VID, info.PID, info.Serial)
			} else {
				fmt.Println(info.Name)
			}
		}
		return
	}

	dev := *device
	if dev == "" {
		dev = os.Getenv("NELPRINT_DEVICE")
	}
	if dev == "" {
		dev = settings.Device
	}

	if *discover {
		found, err := printer.Discover(ctx)
		if err != nil {
			slog.Error("printer discovery failed", "err", err)
			os.Exit(1)
		}
		fmt.Println(found)
		dev = found
	}

	p := printer.New(dev)
	slog.Debug("using device", "device", dev)
	exchanged := false

	if *image != "" {
		f, err := os.Open(*image)
		if err != nil {
			slog.Error("failed to open image", "path", *image, "err", err)
			os.Exit(1)
		}
		bitmap, err := raster.Produce(f)
		f.Close()
		if err != nil {
			slog.Error("image processing failed", "path", *image, "err", err)
			os.Exit(1)
		}
		status, err := p.Print(ctx, bitmap, *density, *copies)
		if err != nil {
			slog.Error("print failed", "err", err)
			os.Exit(1)
		}
		exchanged = true
		if *debug || status.Readiness != tspl.Ready {
			fmt.Println(status)
		}
	}

	if *showConfig {
		cfg, err := p.Config(ctx)
		if err != nil {
			slog.Error("config query failed", "err", err)
			os.Exit(1)
		}
		exchanged = true
		fmt.Println(cfg)
	}

	if *showBattery {
		battery, err := p.Battery(ctx)
		if err != nil {
			slog.Error("battery query failed", "err", err)
			os.Exit(1)
		}
		exchanged = true
		fmt.Println(battery)
	}

	if flagsSet["timeout"] {
		if err := p.SetTimeout(ctx, *timeoutMin); err != nil {
			slog.Error("timeout change failed", "err", err)
			os.Exit(1)
		}
		exchanged = true
		confirm(ctx, p)
	}

	if flagsSet["beep"] {
		if err := p.SetBeep(ctx, *beep); err != nil {
			slog.Error("beep change failed", "err", err)
			os.Exit(1)
		}
		exchanged = true
		confirm(ctx, p)
	}

	if *showStatus {
		status, err := p.Status(ctx)
		if err != nil {
			slog.Error("status query failed", "err", err)
			os.Exit(1)
		}
		exchanged = true
		fmt.Println(status)
	}

	if *selfTest {
		if err := p.SelfTest(ctx); err != nil {
			slog.Error("self test failed", "err", err)
			os.Exit(1)
		}
		exchanged = true
		slog.Info("self test page sent")
	}

	if exchanged && (flagsSet["device"] || flagsSet["density"] || flagsSet["copies"] || *discover) {
		settings.Device = dev
		settings.Density = *density
		settings.Copies = *copies
		if err := store.Update(settings); err != nil {
			slog.Warn("could not save settings", "err", err)
		}
	}
}

// openStore loads persisted defaults, falling back to a memory-only
// store when no config directory is available.
func openStore() *config.Store {
	dir, err := config.DefaultDir()
	if err != nil {
		slog.Warn("no config directory, settings will not persist", "err", err)
		return config.NewMemoryStore()
	}
	store, err := config.NewStore(dir)
	if err != nil {
		slog.Warn("settings store unavailable, settings will not persist", "dir", dir, "err", err)
		return config.NewMemoryStore()
	}
	return store
}

// confirm re-queries the configuration after a settings change; the
// device does not acknowledge TIMEOUT or BEEP itself.
func confirm(ctx context.Context, p *printer.Printer) {
	cfg, err := p.Config(ctx)
	if err != nil {
		slog.Error("confirmation query failed", "err", err)
		os.Exit(1)
	}
	fmt.Println(cfg)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
