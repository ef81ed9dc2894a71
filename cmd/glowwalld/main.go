// Command glowwalld is the background process that renders a static image,
// solid color, gradient, or animated GPU fragment-shader image on every
// compositor output, reacting to hot-plug, scale, power-state, and config
// changes until it receives SIGINT or SIGTERM.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fennwick/glowwall/compositor/wlclient"
	"github.com/fennwick/glowwall/config"
	"github.com/fennwick/glowwall/engine"
	"github.com/fennwick/glowwall/envscope"
	"github.com/fennwick/glowwall/power"
)

func main() {
	logger := newLogger()

	if err := run(logger); err != nil {
		logger.Error("glowwalld: exiting", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storePath, err := configStorePath()
	if err != nil {
		return fmt.Errorf("resolve config store path: %w", err)
	}
	store, err := config.NewStore(storePath, logger)
	if err != nil {
		return fmt.Errorf("open config store %s: %w", storePath, err)
	}

	monitor, powerHandle := power.NewMonitor(logger)
	if err := monitor.Start(ctx); err != nil {
		return fmt.Errorf("start power monitor: %w", err)
	}

	// The compositor and GPU client libraries read their connection
	// parameters (WAYLAND_DISPLAY, XDG_RUNTIME_DIR) from the environment at
	// initialization, so an override is scoped around bring-up and held for
	// the rest of the process lifetime, matching BackgroundHandle::spawn's
	// env_guard in the engine this was translated from.
	guard := userEnv().Apply()
	defer guard.Close()

	reg, err := wlclient.Open()
	if err != nil {
		return fmt.Errorf("connect to compositor: %w", err)
	}
	defer reg.Close()

	eng, err := engine.New(reg, store, powerHandle, logger)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	logger.Info("glowwalld: running", "config", storePath)
	return eng.Run(ctx)
}

// userEnv builds the environment scope applied around compositor/GPU
// bring-up. GLOWWALL_WAYLAND_DISPLAY and GLOWWALL_XDG_RUNTIME_DIR let the
// daemon target a compositor socket or runtime directory other than the
// ambient one (e.g. a systemd user unit whose inherited environment lags the
// session bus); unset, the scope carries no overrides and Apply/Close are
// no-ops.
func userEnv() *envscope.Context {
	var vars []envscope.Var
	if v := os.Getenv("GLOWWALL_WAYLAND_DISPLAY"); v != "" {
		vars = append(vars, envscope.Var{Name: "WAYLAND_DISPLAY", Value: v})
	}
	if v := os.Getenv("GLOWWALL_XDG_RUNTIME_DIR"); v != "" {
		vars = append(vars, envscope.Var{Name: "XDG_RUNTIME_DIR", Value: v})
	}
	return envscope.New(vars...)
}

// configStorePath resolves $XDG_CONFIG_HOME/glowwall/config.json, falling
// back to $HOME/.config when XDG_CONFIG_HOME is unset, and ensures the
// containing directory exists.
func configStorePath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	dir := filepath.Join(base, "glowwall")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory %s: %w", dir, err)
	}
	return filepath.Join(dir, "config.json"), nil
}

// newLogger builds a stderr text logger, honoring GLOWWALL_LOG (debug,
// info, warn, error) the way the daemon this was translated from reads
// RUST_LOG, defaulting to info.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("GLOWWALL_LOG") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
