package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"

	"github.com/googlesky/bandhawk/internal/apperr"
	"github.com/googlesky/bandhawk/internal/applog"
	"github.com/googlesky/bandhawk/internal/model"
	"github.com/googlesky/bandhawk/internal/options"
	"github.com/googlesky/bandhawk/internal/orchestrator"
	"github.com/googlesky/bandhawk/internal/output"
	"github.com/googlesky/bandhawk/internal/rawout"
	"github.com/googlesky/bandhawk/internal/recorder"
	"github.com/googlesky/bandhawk/internal/ui"
)

func main() {
	os.Exit(run())
}

// run does the real work and returns a process exit code.
func run() int {
	opts, err := options.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return apperr.KindOf(err).ExitCode()
	}

	if opts.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	if opts.Playback != "" {
		return runPlayback(opts)
	}

	interactive := !opts.Raw && !opts.JSON && !opts.CSV
	logOpts := applog.Options{Verbosity: opts.Verbosity, LogFile: opts.LogTo}

	var logger zerolog.Logger
	var closeLog func()
	if interactive {
		logger, closeLog, err = applog.Setup(logOpts)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error: failed to open --log-to file:", err)
			return apperr.KindFatal.ExitCode()
		}
	} else {
		logger = applog.SetupPlain(logOpts)
		closeLog = func() {}
	}
	defer closeLog()

	pipe, err := orchestrator.New(opts, logger)
	if err != nil {
		return reportFatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapCh := pipe.Start(ctx)

	if opts.Record != "" {
		recCh, _, err := recorder.RecordSession(snapCh, opts.Record, logger)
		if err != nil {
			pipe.Stop()
			return reportFatal(apperr.New(apperr.KindFatal, "main.run", err))
		}
		snapCh = recCh
	}

	var runErr error
	switch {
	case opts.JSON || opts.CSV:
		runErr = runStreaming(snapCh, opts)
	case opts.Raw:
		runErr = runRaw(snapCh, opts)
	default:
		runErr = runInteractive(snapCh, pipe, opts)
	}

	pipe.Stop()

	select {
	case pipeErr := <-pipe.Errors():
		if pipeErr != nil && runErr == nil {
			runErr = pipeErr
		}
	default:
	}

	if runErr != nil {
		return reportFatal(apperr.New(apperr.KindFatal, "main.run", runErr))
	}

	if summary := pipe.SessionStats().Summary(); summary != "" {
		fmt.Print(summary)
	}
	return 0
}

func reportFatal(err error) int {
	fmt.Fprintln(os.Stderr, "error:", err)
	return apperr.KindOf(err).ExitCode()
}

// runInteractive drives the bubbletea TUI over the live snapshot stream.
func runInteractive(snapCh <-chan model.Snapshot, pipe *orchestrator.Pipeline, opts options.Options) error {
	m := ui.New(snapCh)
	m.SetDefaultInterface(pipe.Interface())
	m.SetCollector(pipe)

	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := prog.Run()
	return err
}

// runStreaming handles --json / --csv non-interactive output. Every
// snapshot carries real per-interval counters straight from the hub's
// ring buffer, not a delta against a raw cumulative counter, so there is
// no warm-up tick to discard — even the first one is meaningful.
func runStreaming(snapCh <-chan model.Snapshot, opts options.Options) error {
	var csvWriter *output.CSVWriter
	if opts.CSV {
		csvWriter = output.NewCSVWriter(os.Stdout)
	}

	for snap := range snapCh {
		var err error
		if opts.JSON {
			err = output.WriteJSON(os.Stdout, snap)
		} else {
			err = csvWriter.Write(snap)
		}
		if err != nil {
			return err
		}

		if opts.Once {
			return nil
		}
	}
	return nil
}

// runRaw handles --raw, the line-oriented mode for scripting and logging
// pipelines: one line per connection per tick instead of a redrawn table.
func runRaw(snapCh <-chan model.Snapshot, opts options.Options) error {
	w := rawout.New(os.Stdout)
	for snap := range snapCh {
		if err := w.WriteSnapshot(snap); err != nil {
			return err
		}
		if opts.Once {
			return nil
		}
	}
	return nil
}

// runPlayback replays a recorded session, either through the TUI (default)
// or through the same raw/JSON/CSV writers a live session would use.
func runPlayback(opts options.Options) int {
	player, err := recorder.NewPlayer(opts.Playback)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: failed to open playback file:", err)
		return apperr.KindUsage.ExitCode()
	}
	defer player.Close()

	if player.Len() == 0 {
		fmt.Fprintln(os.Stderr, "error: recording is empty, nothing to play")
		return apperr.KindUsage.ExitCode()
	}

	snapCh := player.Play()

	switch {
	case opts.JSON || opts.CSV:
		if err := runStreaming(snapCh, opts); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return apperr.KindFatal.ExitCode()
		}
		return 0
	case opts.Raw:
		if err := runRaw(snapCh, opts); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return apperr.KindFatal.ExitCode()
		}
		return 0
	}

	m := ui.New(snapCh)
	m.SetPlayback(player, filepath.Base(opts.Playback))

	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := prog.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return apperr.KindFatal.ExitCode()
	}
	return 0
}
