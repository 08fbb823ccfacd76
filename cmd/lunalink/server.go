package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/lunalink/lunalink/internal/api"
	"github.com/lunalink/lunalink/internal/hostdb"
	"github.com/lunalink/lunalink/internal/prefs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the lunalink daemon (HTTP control API + MCP stdio server)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "lunalink-data"
		}
	}
	return filepath.Join(dir, "lunalink")
}

func runServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bridge := prefs.NewBridge(prefs.NewFileBackend(settingsPath()))
	if bridge.GetBool(prefs.KeyLogVerbose, false) {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	hosts, err := hostdb.Open(defaultDataDir())
	if err != nil {
		return fmt.Errorf("opening host registry: %w", err)
	}
	defer hosts.Close()

	deps := api.Deps{
		Bridge:     bridge,
		Serializer: prefs.NewSerializer(bridge),
		Hosts:      hosts,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", serverPort())
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewHandler(deps),
	}

	// MCP server on stdio, alongside the HTTP API.
	stdioSrv := server.NewStdioServer(api.NewMCPServer(deps))
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	errCh := make(chan error, 1)
	go func() {
		slog.Info("lunalink listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
