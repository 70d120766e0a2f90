package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mkarlsen/circuit-timer/internal/alert"
	"github.com/mkarlsen/circuit-timer/internal/circuit"
	"github.com/mkarlsen/circuit-timer/internal/config"
)

// uiLogWriter tees log lines into the UI log channel. Lines are dropped
// rather than blocking the logger when the UI falls behind; the file sink
// still gets everything.
type uiLogWriter struct {
	ch chan<- string
}

func (w *uiLogWriter) Write(p []byte) (int, error) {
	select {
	case w.ch <- string(p):
	default:
	}
	return len(p), nil
}

func main() {
	configPath := pflag.String("config", "", "path to config file (default: ~/.circuit-timer/config.yaml)")
	routinesFile := pflag.String("routines", "", "override routines file location")
	tickInterval := pflag.Duration("tick", 0, "override session tick interval")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	must("load config", err)
	if *routinesFile != "" {
		cfg.RoutinesFile = *routinesFile
	}
	if *tickInterval > 0 {
		cfg.TickInterval = *tickInterval
	}

	// Log to a rotated file and tee into the in-app log view. Stderr is owned
	// by the terminal UI, so nothing may write there while it runs.
	uiLogChan := make(chan string, 64)
	fileSink := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	}
	defer fileSink.Close()
	logger := log.New(io.MultiWriter(fileSink, &uiLogWriter{ch: uiLogChan}), "", log.Ltime)

	logger.Printf("circuit-timer starting (tick=%v, routines=%s)", cfg.TickInterval, cfg.RoutinesFile)

	app := tview.NewApplication()
	screen, err := tcell.NewScreen()
	must("create screen", err)
	app.SetScreen(screen)

	model := circuit.NewUIModel(logger, uiLogChan)
	notifier := alert.NewNotifier(logger)
	waker := circuit.NewTerminalWaker(screen, cfg.KeepScreenOn, logger)
	manager := circuit.NewSessionManager(model, notifier, waker, cfg.TickInterval, logger)
	controller := circuit.NewUIController(model, manager, cfg.RoutinesFile, logger)

	viewImpl := circuit.NewCursesUIView(logger, app, model)
	view := circuit.NewBaseUIView(circuit.NewBaseUIViewArg{
		UIViewImpl:   viewImpl,
		UIModel:      model,
		UIController: controller,
		Logger:       logger,
	})

	runErr := view.Run()

	// Shutdown order matters: the view stops listening before the controller
	// tears down the session manager, and the model goes last so every
	// component can still log through it.
	view.Shutdown()
	controller.Shutdown()
	model.Shutdown()

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "circuit-timer: %v\n", runErr)
		os.Exit(1)
	}
}

func must(action string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "circuit-timer: failed to %s: %v\n", action, err)
		os.Exit(1)
	}
}
