package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mopage/mopage/internal/devstore"
)

// DevStoreCommand runs a local page store speaking the remote store
// protocol, backed by SQLite or PostgreSQL.
func DevStoreCommand(args []string) error {
	port := "8091"
	dbPath := "mopage-dev.db"
	var postgresDSN string

	for i := 0; i < len(args); i++ {
		switch arg := args[i]; arg {
		case "--port", "-p":
			if i+1 < len(args) {
				port = args[i+1]
				i++
			}
		case "--db":
			if i+1 < len(args) {
				dbPath = args[i+1]
				i++
			}
		case "--postgres":
			if i+1 < len(args) {
				postgresDSN = args[i+1]
				i++
			}
		default:
			return fmt.Errorf("unknown flag: %s", arg)
		}
	}

	var backend devstore.Backend
	var err error
	if postgresDSN != "" {
		backend, err = devstore.NewPostgres(postgresDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		fmt.Println("mopage devstore (PostgreSQL)")
	} else {
		backend, err = devstore.NewSQLite(dbPath)
		if err != nil {
			return fmt.Errorf("open %s: %w", dbPath, err)
		}
		fmt.Printf("mopage devstore (SQLite: %s)\n", dbPath)
	}
	defer backend.Close()

	srv := &http.Server{
		Addr:              "localhost:" + port,
		Handler:           devstore.NewHandler(backend),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Listening on http://%s\n", srv.Addr)
	fmt.Printf("Press Ctrl+C to stop\n\n")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	fmt.Fprintln(os.Stderr, "stopped")
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
