// Command raventerm-core wires the VT core together headlessly: a
// pty-backed shell, the parser/streamhandler/screen pipeline, the
// three-thread io coordinator, and the cell builder's per-frame
// shaping pass. It renders nothing — the GPU backend, font shaping
// and window/input handling live outside this module's scope — but
// running it drives a real shell session through every layer the way
// a GUI frontend eventually would.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/javanhut/raventerm/internal/cellbuilder"
	"github.com/javanhut/raventerm/internal/config"
	"github.com/javanhut/raventerm/internal/ioloop"
	"github.com/javanhut/raventerm/internal/pty"
	"github.com/javanhut/raventerm/internal/screen"
	"github.com/javanhut/raventerm/internal/streamhandler"
)

func main() {
	setupLogging()

	cfg := config.Load()
	log.Info().Str("shell", cfg.Shell).Str("theme", cfg.Theme).Msg("config loaded")

	const cols, rows uint16 = 120, 40
	term := screen.NewTerminal(int(cols), int(rows), 1)
	if cfg.HasCursorBlinkPref {
		term.SetDefaultBlinkPref(cfg.CursorBlinkPref)
	}

	session, err := pty.Start(cols, rows, pty.ShellConfig{
		Path:             cfg.Shell,
		SourceRC:         cfg.SourceRC,
		ShellIntegration: cfg.ShellIntegration,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start shell")
	}

	ui := &logOnlyUI{}
	handler := streamhandler.New(term, nil, ui, streamhandler.Config{
		ClipboardRead:  streamhandler.ClipboardPolicy(cfg.ClipboardRead),
		ClipboardWrite: streamhandler.ClipboardPolicy(cfg.ClipboardWrite),
		ColorReportFmt: streamhandler.ColorReport16Bit,
		TermVersion:    "raventerm-core",
	})

	coordinator := ioloop.New(term, handler, session)
	shaper := cellbuilder.NopShaper{}
	builder := cellbuilder.New(shaper, int(cols), int(rows))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go coordinator.Run()
	go renderLoop(coordinator, term, builder)

	<-sigCh
	log.Info().Msg("shutting down")
	coordinator.Close()
}

// renderLoop stands in for the real renderer thread: every wake it
// asks the cell builder for a frame and logs its shape. A real
// frontend would upload Frame.Records to the GPU instead.
func renderLoop(c *ioloop.Coordinator, term *screen.Terminal, builder *cellbuilder.Builder) {
	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-c.RenderWake():
		case <-ticker.C:
		}
		frame := builder.Build(term, true)
		log.Debug().Int("records", len(frame.Records)).Bool("atlas_dirty", frame.AtlasDirty).Msg("frame built")
	}
}

func setupLogging() {
	level := zerolog.InfoLevel
	if os.Getenv("RAVENTERM_DEBUG") != "" {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// logOnlyUI satisfies streamhandler.UIEvents by logging; a GUI
// frontend would route these to clipboard/notification/window code
// instead.
type logOnlyUI struct{}

func (logOnlyUI) ClipboardRead(target byte) {
	log.Debug().Str("target", string(target)).Msg("clipboard read requested")
}

func (logOnlyUI) ClipboardWrite(target byte, data []byte) {
	log.Debug().Str("target", string(target)).Int("len", len(data)).Msg("clipboard write requested")
}

func (logOnlyUI) DesktopNotification(n streamhandler.Notification) {
	log.Info().Interface("notification", n).Msg("desktop notification")
}

func (logOnlyUI) TitleChanged(title string) {
	log.Debug().Str("title", title).Msg("title changed")
}

func (logOnlyUI) MouseShapeChanged(shape string) {
	log.Debug().Str("shape", shape).Msg("mouse shape changed")
}
