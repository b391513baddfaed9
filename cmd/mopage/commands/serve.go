package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mopage/mopage/internal/config"
	"github.com/mopage/mopage/internal/server"
)

// ServeCommand runs the editor/viewer server.
func ServeCommand(args []string) error {
	var configPath string
	var host string
	var port string
	var storeURL string
	var templatesDir string
	var noWatch bool

	for i := 0; i < len(args); i++ {
		switch arg := args[i]; arg {
		case "--config", "-c":
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
			}
		case "--host":
			if i+1 < len(args) {
				host = args[i+1]
				i++
			}
		case "--port", "-p":
			if i+1 < len(args) {
				port = args[i+1]
				i++
			}
		case "--store":
			if i+1 < len(args) {
				storeURL = args[i+1]
				i++
			}
		case "--templates":
			if i+1 < len(args) {
				templatesDir = args[i+1]
				i++
			}
		case "--no-watch":
			noWatch = true
		default:
			return fmt.Errorf("unknown flag: %s", arg)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// CLI flags override config
	if host != "" {
		cfg.Server.Host = host
	}
	if port != "" {
		portInt, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid port: %s", port)
		}
		cfg.Server.Port = portInt
	}
	if storeURL != "" {
		cfg.Store.Endpoint = storeURL
	}
	if cfg.Store.Endpoint == "" {
		cfg.Store.Endpoint = "http://localhost:8091"
	}
	if templatesDir != "" {
		cfg.Templates.Dir = templatesDir
	}
	if noWatch {
		watch := false
		cfg.Templates.Watch = &watch
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("mopage editor at http://%s (store: %s)\n", cfg.Server.Addr(), cfg.Store.Endpoint)
	fmt.Printf("Press Ctrl+C to stop\n\n")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	fmt.Fprintln(os.Stderr, "stopped")
	return <-errCh
}
