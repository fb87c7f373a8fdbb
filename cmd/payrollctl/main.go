// Command payrollctl drives the payroll backend from a terminal: it signs in,
// prints the same listings as the dashboard and runs bulk imports.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/PayrollDash/internal/apiclient"
	"github.com/JonMunkholm/PayrollDash/internal/config"
	"github.com/JonMunkholm/PayrollDash/internal/core"
	_ "github.com/JonMunkholm/PayrollDash/internal/core/tables" // Register all listings
	"github.com/JonMunkholm/PayrollDash/internal/logging"
)

// Options are the flags shared by every command. Flags win over the
// environment, which wins over built-in defaults.
type Options struct {
	BackendURL string `short:"u" long:"backend-url" env:"BACKEND_URL" description:"payroll API base URL"`
	TokenFile  string `long:"token-file" description:"where the bearer token is kept between runs (default: ~/.payrollctl/token)"`
	Timeout    string `long:"timeout" description:"per-request backend timeout, e.g. 30s"`
	LogLevel   string `long:"log-level" default:"warn" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"log level"`
	JSON       bool   `long:"json" description:"print JSON instead of tables"`
}

var (
	opts   Options
	stdout io.Writer = os.Stdout
)

func main() {
	_ = godotenv.Load()

	parser := flags.NewParser(&opts, flags.Default)
	parser.Name = "payrollctl"
	registerCommands(parser)

	if _, err := parser.Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		// go-flags already printed parse errors; command errors are ours.
		var fe *flags.Error
		if !errors.As(err, &fe) {
			fmt.Fprintln(os.Stderr, "hata:", describe(err))
		}
		os.Exit(1)
	}
}

// overlay exposes the flag values as environment variables to the config
// loader so the CLI and the server share one set of validation rules.
func (o *Options) overlay() map[string]string {
	m := map[string]string{}
	if o.BackendURL != "" {
		m["BACKEND_URL"] = o.BackendURL
	}
	if o.TokenFile != "" {
		m["BACKEND_TOKEN_FILE"] = o.TokenFile
	}
	if o.Timeout != "" {
		m["BACKEND_TIMEOUT"] = o.Timeout
	}
	if o.LogLevel != "" {
		m["LOG_LEVEL"] = o.LogLevel
	}
	return m
}

func lookupWith(overlay map[string]string, env func(string) (string, bool)) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := overlay[key]; ok {
			return v, true
		}
		return env(key)
	}
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".payrollctl-token"
	}
	return filepath.Join(home, ".payrollctl", "token")
}

// session is what every command works with.
type session struct {
	cfg     *config.Config
	creds   *apiclient.FileCredentials
	service *core.Service
}

func open() (*session, error) {
	cfg, err := config.LoadFrom(lookupWith(opts.overlay(), os.LookupEnv))
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Logging.Level, "pretty")

	path := cfg.Backend.TokenFile
	if path == "" {
		path = defaultTokenFile()
	}
	creds, err := apiclient.NewFileCredentials(path)
	if err != nil {
		return nil, err
	}
	if creds.Token() == "" && cfg.Backend.Token != "" {
		creds.Seed(cfg.Backend.Token)
	}

	client, err := apiclient.New(apiclient.Config{
		BaseURL:   cfg.Backend.URL,
		Timeout:   cfg.Backend.Timeout,
		UserAgent: "payrollctl",
	}, creds)
	if err != nil {
		return nil, err
	}

	service, err := core.NewService(client, nil, cfg)
	if err != nil {
		return nil, err
	}
	slog.Debug("session opened", "backend", cfg.Backend.URL, "token_file", creds.Path())

	return &session{cfg: cfg, creds: creds, service: service}, nil
}

// signalContext is cancelled on the first interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// describe prefers the mapped user message and falls back to the raw error.
func describe(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return err.Error()
}
