package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"browserchat/internal/config"
	"browserchat/internal/logging"
	"browserchat/internal/session"
)

type appConfig struct {
	config.Config
	configPath string
}

// parseFlags resolves defaults, the YAML file, env, and then any flags that
// were set explicitly on the command line.
func parseFlags(args []string, getenv func(string) string, stderr io.Writer) (appConfig, error) {
	fs := flag.NewFlagSet("browserchat-tui", flag.ContinueOnError)
	fs.SetOutput(stderr)

	defaults := config.Defaults()
	configPath := fs.String("config", strings.TrimSpace(getenv(config.EnvConfig)), "YAML config file")
	endpoint := fs.String("endpoint", defaults.Endpoint, "Agent websocket URL")
	logFile := fs.String("log-file", defaults.LogFile, "Write JSON logs to this file (disabled when empty)")
	logLevel := fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	handshake := fs.Duration("handshake-timeout", defaults.HandshakeTimeout, "Websocket handshake timeout")
	altScreen := fs.Bool("alt-screen", defaults.AltScreen, "Use alternate screen buffer")
	mouse := fs.Bool("mouse", defaults.Mouse, "Enable mouse wheel scrolling")
	if err := fs.Parse(args); err != nil {
		return appConfig{}, err
	}

	cfg, err := config.Load(*configPath, getenv)
	if err != nil {
		return appConfig{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "endpoint":
			cfg.Endpoint = strings.TrimSpace(*endpoint)
		case "log-file":
			cfg.LogFile = *logFile
		case "log-level":
			cfg.LogLevel = *logLevel
		case "handshake-timeout":
			cfg.HandshakeTimeout = *handshake
		case "alt-screen":
			cfg.AltScreen = *altScreen
		case "mouse":
			cfg.Mouse = *mouse
		}
	})
	if err := cfg.Validate(); err != nil {
		return appConfig{}, err
	}
	return appConfig{Config: cfg, configPath: *configPath}, nil
}

func programOptions(cfg appConfig) []tea.ProgramOption {
	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return opts
}

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Getenv, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "browserchat-tui: %v\n", err)
		os.Exit(2)
	}
	if err := logging.Init(logging.Options{Path: cfg.LogFile, Level: cfg.LogLevel}); err != nil {
		fmt.Fprintf(os.Stderr, "browserchat-tui: %v\n", err)
		os.Exit(1)
	}
	defer logging.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn := session.NewConn(cfg.Endpoint,
		session.WithHandshakeTimeout(cfg.HandshakeTimeout),
		session.WithWriteTimeout(10*time.Second),
	)
	sess := session.New(conn)
	logging.Info("starting", logging.FieldSession, sess.ID(), logging.FieldEndpoint, cfg.Endpoint, "config", cfg.String())

	p := tea.NewProgram(newModel(ctx, cancel, cfg, conn, sess), programOptions(cfg)...)
	if _, err := p.Run(); err != nil {
		logging.Error("program exited", logging.FieldError, err)
		_ = conn.Close()
		logging.Shutdown()
		fmt.Fprintf(os.Stderr, "browserchat-tui fatal error: %v\n", err)
		os.Exit(1)
	}
	logging.Info("stopped", logging.FieldSession, sess.ID(), logging.FieldCount, len(sess.Transcript()))
}
