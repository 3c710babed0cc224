package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"swipeable/internal/carousel"
	"swipeable/internal/config"
	"swipeable/internal/logging"
	"swipeable/internal/swipe"
)

const version = "0.3.0"

// localID is the store key of the daemon's own carousel.
const localID = "local"

func printVersion() {
	fmt.Printf("swiped v%s\n", version)
	fmt.Println("Swipeable carousel gesture daemon")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  swiped [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Serves one carousel per WebSocket connection on server.path (default /ws):")
	fmt.Println("  clients stream raw mouse/touch events and receive offset, index and")
	fmt.Println("  prevent_scroll frames. A local carousel can be driven by evdev touch")
	fmt.Println("  input and the IPC socket, and observed on /watch.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  swiped -config /etc/swiped.yaml")
	fmt.Println("  swiped -input -input-device /dev/input/event4 -width 1280")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - Flags override values from the config file")
	fmt.Println("  - evdev input requires read access to the device (run as root or add user to 'input' group)")
	fmt.Println()
}

func main() {
	var (
		configPath   = flag.String("config", "", "Path to YAML config file")
		listen       = flag.String("listen", "", "HTTP listen address for the WebSocket endpoints")
		peek         = flag.Int("peek", swipe.DefaultPeekOffsetPercent, "Peek offset percent (0-50)")
		fling        = flag.Float64("fling-velocity", swipe.DefaultFlingVelocity, "Release speed in px/ms that commits regardless of distance")
		frameHz      = flag.Int("frame-hz", carousel.DefaultFrameHz, "Settle animation frame rate")
		width        = flag.Float64("width", 0, "Local carousel item width in px")
		itemCount    = flag.Int("item-count", 0, "Local carousel item count")
		inputEnabled = flag.Bool("input", false, "Drive the local carousel from evdev input")
		inputDevice  = flag.String("input-device", "", "Linux input event device")
		ipcSocket    = flag.String("ipc-socket", "", "Unix domain socket path for IPC")
		logLevelStr  = flag.String("log-level", "", "Log level: error, warn, info, debug")
		showVersion  = flag.Bool("version", false, "Print version and exit")
	)

	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Only flags given on the command line override the file.
	var ov config.FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			ov.Listen = listen
		case "peek":
			ov.PeekOffsetPercent = peek
		case "fling-velocity":
			ov.FlingVelocity = fling
		case "frame-hz":
			ov.FrameHz = frameHz
		case "width":
			ov.Width = width
		case "item-count":
			ov.ItemCount = itemCount
		case "input":
			ov.InputEnabled = inputEnabled
		case "input-device":
			ov.InputDevice = inputDevice
		case "ipc-socket":
			ov.IPCSocketPath = ipcSocket
		case "log-level":
			ov.LogLevel = logLevelStr
		}
	})
	ov.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	level, _ := logging.ParseLevel(cfg.Logging.Level)
	logger := logging.New(os.Stdout, level)

	if err := run(cfg, logger); err != nil {
		logger.Error("swiped stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := carousel.NewStore()
	opts := carousel.Options{
		Tuning:  cfg.Tuning(),
		FrameHz: cfg.Carousel.FrameHz,
		Logger:  logger,
	}

	// WebSocket sessions
	srv := NewServer(logger, store, ServerConfig{
		Hub:        HubConfig{SendBuf: cfg.Server.SendBuf},
		PingPeriod: time.Duration(cfg.Server.PingIntervalMS) * time.Millisecond,
		Width:      cfg.Carousel.Width,
		ItemCount:  cfg.Carousel.ItemCount,
		Carousel:   opts,
	})
	go srv.Hub().Run(ctx)

	// Local carousel, observed on /watch
	store.Register(localID, cfg.Carousel.ItemCount, cfg.Carousel.StartIndex)
	startIndex, _ := store.Index(localID)
	view := broadcastView{hub: srv.Hub()}
	host := localHost{Host: store.Host(localID, view), view: view}

	localOpts := opts
	localOpts.Logger = logger.With("carousel", localID)
	local, release := carousel.Start(ctx, swipe.NewState(cfg.Carousel.Width, cfg.Carousel.ItemCount, startIndex), host, localOpts)
	defer release()

	if err := store.Watch(localID, func(i int) { local.Send(swipe.IndexObserved{Index: i}) }); err != nil {
		return err
	}

	errc := make(chan error, 3)

	go func() {
		ipc := &ipcServer{id: localID, carousel: local, store: store, logger: logger}
		if err := runIPCServer(ctx, cfg.IPC.SocketPath, ipc); err != nil {
			errc <- fmt.Errorf("ipc: %w", err)
		}
	}()

	mux := http.NewServeMux()
	srv.Register(mux, cfg.Server.Path)
	httpSrv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http: %w", err)
		}
	}()

	if cfg.Input.Enabled {
		files, err := openDevices(cfg.Input.Devices)
		if err != nil {
			return err
		}
		defer closeDevices(files)
		go func() {
			if err := runInput(ctx, files, cfg.Input.Scale, local, logger); err != nil {
				errc <- fmt.Errorf("input: %w", err)
			}
		}()
	}

	logger.Info("listening",
		"http", cfg.Server.Listen,
		"ws_path", cfg.Server.Path,
		"ipc", cfg.IPC.SocketPath,
		"input", cfg.Input.Enabled,
		"frame_hz", cfg.Carousel.FrameHz,
		"peek_offset_percent", cfg.Carousel.PeekOffsetPercent)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-errc:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	return runErr
}

func openDevices(paths []string) ([]*os.File, error) {
	files := make([]*os.File, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeDevices(files)
			return nil, fmt.Errorf("open input device %s: %w", p, err)
		}
		files = append(files, f)
	}
	return files, nil
}

func closeDevices(files []*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

// runInput decodes evdev frames into pointer events for the local carousel.
func runInput(ctx context.Context, files []*os.File, scale float64, local *carousel.Instance, logger *slog.Logger) error {
	events := make(chan deviceEvent, 64)
	readErr := make(chan error, 1)
	go func() { readErr <- readInputEvents(ctx, files, events) }()

	dec := newDeviceDecoders(scale)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case ev := <-events:
			raw, ok := dec.feed(ev)
			if !ok {
				continue
			}
			pev, ok := swipe.Normalize(raw)
			if !ok {
				continue
			}
			if !local.Send(pev) {
				logger.Warn("local carousel inbox full, dropping input", "kind", raw.Kind)
			}
		}
	}
}
