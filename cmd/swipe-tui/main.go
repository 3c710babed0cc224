package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"swipeable/internal/config"
	"swipeable/internal/logging"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file (shares swiped's format)")
		cellPx     = flag.Float64("cell-px", 8, "Pixels per terminal cell, so pixel thresholds keep their meaning")
		logFile    = flag.String("log-file", "", "Write debug logs to this file (the terminal is busy)")
		logLevel   = flag.String("log-level", "", "Log level: error, warn, info, debug")
	)
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfigFile(config.ExpandPath(*configPath))
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if len(cfg.Swatches) == 0 {
		cfg.Swatches = config.DefaultConfig().Swatches
	}

	var logOut io.Writer = io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(config.ExpandPath(*logFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	level, _ := logging.ParseLevel(cfg.Logging.Level)
	logger := logging.New(logOut, level)

	m := newModel(modelConfig{
		Tuning:     cfg.Tuning(),
		Swatches:   cfg.Swatches,
		StartIndex: cfg.Carousel.StartIndex,
		CellPx:     *cellPx,
		FrameHz:    cfg.Carousel.FrameHz,
		Logger:     logger,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
}
