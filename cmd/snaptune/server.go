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
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/snaptune/internal/api"
	"github.com/kalambet/snaptune/internal/catalog"
	"github.com/kalambet/snaptune/internal/config"
	"github.com/kalambet/snaptune/internal/describe"
	"github.com/kalambet/snaptune/internal/engine"
	"github.com/kalambet/snaptune/internal/lyrics"
	"github.com/kalambet/snaptune/internal/pipeline"
	"github.com/kalambet/snaptune/internal/ranking"
	"github.com/kalambet/snaptune/internal/studio"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the snaptune server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running snaptune server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show snaptune system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "snaptune.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func sessionFilePath(dataDir string) string {
	return filepath.Join(dataDir, "session.json")
}

func newStudio(cfg config.Config) *studio.Studio {
	sessions := studio.NewSessionStore(sessionFilePath(cfg.Storage.DataDir))
	return studio.New(studio.Config{
		EntryURL:       cfg.Studio.EntryURL,
		CreateURL:      cfg.Studio.CreateURL,
		LandingPattern: cfg.Studio.LandingPattern,
		AudioDir:       cfg.Storage.AudioDir,
		Headless:       cfg.Studio.Headless,
		SlowMoMillis:   cfg.Studio.SlowMoMillis,
		LoginTimeout:   config.ParseDuration(cfg.Studio.LoginTimeout, 3*time.Minute),
		RenderTimeout:  config.ParseDuration(cfg.Studio.RenderTimeout, 4*time.Minute),
		StepTimeout:    config.ParseDuration(cfg.Studio.StepTimeout, 15*time.Second),
	}, sessions)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "snaptune version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if strings.EqualFold(os.Getenv("SNAPTUNE_LOG_LEVEL"), "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("snaptune is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("snaptune is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Check local inference engine readiness.
	eng := engine.NewOllamaEngine(cfg.Ollama.BaseURL)
	if err := engine.EnsureReady(ctx, eng, os.Stderr,
		cfg.Ollama.VisionModel, cfg.Ollama.TextModel, cfg.Ollama.EmbedModel); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Storage.AudioDir, 0o755); err != nil {
		return fmt.Errorf("creating audio directory: %w", err)
	}

	// Open the catalog store and load the songs into memory.
	store, err := catalog.OpenStore(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening catalog store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing catalog store: %v\n", err)
		}
	}()

	songs, err := catalog.Load(store)
	if err != nil {
		return err
	}
	if songs.Len() == 0 {
		printWarning("song catalog is empty, run 'snaptune seed' to populate it")
	}
	slog.Info("catalog loaded", "songs", songs.Len())

	// Build the pipelines.
	cache := describe.NewCache(cfg.Storage.CacheSize)
	describer := describe.NewDescriber(eng, cfg.Ollama.VisionModel, cfg.Ollama.TextModel, cache)
	embedder := ranking.NewEmbedder(eng, cfg.Ollama.EmbedModel)
	ranker := ranking.NewRanker(embedder)
	writer := lyrics.NewWriter(eng, cfg.Ollama.TextModel)
	studioSvc := newStudio(cfg)

	recommender := pipeline.NewRecommender(describer, songs, ranker)
	producer := pipeline.NewProducer(writer, studioSvc)
	seeder := catalog.NewSeeder(store, embedder)

	handler := api.NewHandler(api.Deps{
		Recommender: recommender,
		Producer:    producer,
		Catalog:     songs,
		Seeder:      seeder,
		Token:       cfg.Server.APIToken,
		CacheSize:   describer.CacheSize,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Build and start MCP server (stdio transport in a goroutine).
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Catalog: songs,
		Ranker:  ranker,
		Writer:  writer,
	})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "snaptune listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("snaptune is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop snaptune (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to snaptune (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	ollamaResp, err := client.Get(cfg.Ollama.BaseURL + "/api/version")
	if err != nil {
		printStatus("Ollama", "not running")
	} else {
		ollamaResp.Body.Close()
		printStatus("Ollama", "running at %s", cfg.Ollama.BaseURL)
	}

	printStatus("Vision model", "%s", cfg.Ollama.VisionModel)
	printStatus("Text model", "%s", cfg.Ollama.TextModel)
	printStatus("Embed model", "%s", cfg.Ollama.EmbedModel)

	sessions := studio.NewSessionStore(sessionFilePath(cfg.Storage.DataDir))
	if sessions.Valid() {
		printStatus("Studio session", "saved at %s", sessions.Path())
	} else {
		printStatus("Studio session", "missing, run 'snaptune login'")
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	printStatus("Audio dir", "%s", cfg.Storage.AudioDir)
	return nil
}
