package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wesm/subtle/internal/config"
	"github.com/wesm/subtle/internal/server"
	"github.com/wesm/subtle/internal/telemetry"
)

const (
	browserPollInterval = 100 * time.Millisecond
	browserPollAttempts = 60
	shutdownTimeout     = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start the dashboard server",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd.Flags())
		},
	}
	config.RegisterServeFlags(cmd.Flags())
	return cmd
}

// loadConfig layers the parsed serve flags over the config file
// and environment and makes sure the data dir exists.
func loadConfig(fs *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(fs)
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return cfg, fmt.Errorf("creating data dir: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, fs *pflag.FlagSet) error {
	cfg, err := loadConfig(fs)
	if err != nil {
		return err
	}
	setupLogFile(cfg.DataDir)

	metrics, err := telemetry.New(ctx, telemetry.Config{
		Endpoint: cfg.OTLPEndpoint,
		Insecure: cfg.OTLPInsecure,
		Version:  canonicalVersion(version),
	})
	if err != nil {
		return fmt.Errorf("starting telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(
			context.Background(), shutdownTimeout,
		)
		defer cancel()
		if err := metrics.Shutdown(sctx); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	port := server.FindAvailablePort(cfg.Host, cfg.Port)
	if port != cfg.Port {
		fmt.Printf("Port %d in use, using %d\n", cfg.Port, port)
	}
	cfg.Port = port

	srv := server.New(cfg,
		server.WithVersion(versionInfo()),
		server.WithMetrics(metrics),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	url := srv.URL()
	fmt.Printf("subtle %s listening at %s\n",
		canonicalVersion(version), url)
	fmt.Printf("Reading sessions from %s\n", cfg.ProjectsDir)

	if !cfg.NoBrowser {
		go openBrowser(url, cfg.BrowserCommand)
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	sctx, cancel := context.WithTimeout(
		context.Background(), shutdownTimeout,
	)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// openBrowser waits for the server to answer, then opens url.
func openBrowser(url, command string) {
	for range browserPollAttempts {
		time.Sleep(browserPollInterval)
		resp, err := http.Get(url + "/api/version")
		if err == nil {
			resp.Body.Close()
			break
		}
	}

	cmd, err := browserCommand(url, command, runtime.GOOS)
	if err != nil {
		log.Printf("warning: cannot open browser: %v", err)
		return
	}
	if cmd == nil {
		return
	}
	if err := cmd.Run(); err != nil {
		log.Printf("warning: opening browser: %v", err)
	}
}

// browserCommand builds the command that opens url. A custom
// command is split shell-style and gets url as its last
// argument; otherwise the platform opener is used. A nil
// command means the platform has no known opener.
func browserCommand(url, command, goos string) (*exec.Cmd, error) {
	if command != "" {
		args, err := shlex.Split(command)
		if err != nil {
			return nil, fmt.Errorf("parsing browser command: %w", err)
		}
		if len(args) == 0 {
			return nil, errors.New("browser command is empty")
		}
		args = append(args, url)
		return exec.Command(args[0], args[1:]...), nil
	}

	switch goos {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux":
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("rundll32",
			"url.dll,FileProtocolHandler", url), nil
	}
	return nil, nil
}
