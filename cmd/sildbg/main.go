package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/silverlang/sildbg/internal/config"
	"github.com/silverlang/sildbg/internal/engine"
	"github.com/silverlang/sildbg/internal/server"
	"github.com/silverlang/sildbg/internal/session"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (defaults to CONFIG_PATH)")
	flag.Parse()

	if *configPath == "" {
		*configPath = os.Getenv("CONFIG_PATH")
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	// Optional PORT override to match container conventions
	if port := os.Getenv("PORT"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			log.Fatalf("Invalid PORT %q: %v", port, err)
		}
		cfg.Listen.Port = n
	}

	eng := engine.New(cfg.Engine.URL, time.Duration(cfg.Engine.TimeoutSeconds)*time.Second)
	log.Printf("Using engine service at %s", cfg.Engine.URL)

	initial := loadInitialScript(cfg)
	if initial != nil {
		log.Printf("Preloaded script from %s", cfg.Script.Path)
	}

	sessionMgr := session.NewManager()

	// Create HTTP handler with proper session management
	handler := mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		// Create a new MCP server instance for each request so the SDK
		// can manage sessions properly
		return server.NewMCPServer(sessionMgr, eng, initial)
	}, &mcp.StreamableHTTPOptions{
		Stateless:      false,
		JSONResponse:   false,
		Logger:         nil,
		EventStore:     nil,
		SessionTimeout: 0,
	})

	addr := cfg.Listen.Host + ":" + strconv.Itoa(cfg.Listen.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("sildbg MCP server listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	sessionMgr.CloseAll()

	log.Println("Server stopped")
}

// loadInitialScript reads the configured script file, if any. A missing file
// is fatal only when the config explicitly names one.
func loadInitialScript(cfg *config.Config) *server.InitialScript {
	if cfg.Script.Path == "" {
		return nil
	}
	source, err := os.ReadFile(cfg.Script.Path)
	if err != nil {
		log.Fatalf("Failed to read script %s: %v", cfg.Script.Path, err)
	}
	return &server.InitialScript{
		Source:           string(source),
		Function:         cfg.Script.Function,
		CtorArgs:         cfg.Script.CtorArgs,
		Args:             cfg.Script.Args,
		ExpectNoSelector: cfg.Script.ExpectNoSelector,
	}
}
