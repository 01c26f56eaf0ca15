// Command regwatch is the admin dashboard service for the regulatory watch
// board. It fronts the fetch backend with manual trigger endpoints, keeps a
// durable log of trigger outcomes, and exposes the same operations as MCP
// tools over stdio.
//
// Usage:
//
//	BACKEND_URL=http://backend:8080 regwatch          # HTTP mode
//	MCP_TRANSPORT=stdio BACKEND_URL=... regwatch      # MCP stdio mode
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/regwatch/audit"
	"github.com/hazyhaar/regwatch/dbopen"
	"github.com/hazyhaar/regwatch/regwatch"
	"github.com/hazyhaar/regwatch/shield"
)

func main() {
	port := env("PORT", "8086")
	statePath := env("STATE_DB", "db/regwatch.db")
	mcpTransport := env("MCP_TRANSPORT", "")
	logLevel := env("LOG_LEVEL", "info")

	// Logging. In MCP stdio mode stdout carries the protocol, so logs go to
	// stderr.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logOut := os.Stdout
	if mcpTransport == "stdio" {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	cfg, err := resolveConfig()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// State DB holds the trigger log and the audit trail.
	stateDB, err := dbopen.Open(statePath,
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(regwatch.StateSchema),
		dbopen.WithSchema(audit.Schema),
	)
	if err != nil {
		slog.Error("state db", "error", err)
		os.Exit(1)
	}
	defer stateDB.Close()

	events := audit.NewEventLogger(stateDB)

	svc, err := regwatch.New(stateDB, cfg, logger, regwatch.WithAudit(events))
	if err != nil {
		slog.Error("regwatch service", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	svc.Start(ctx)

	// MCP stdio mode: serve tools over stdin/stdout and exit when the client
	// disconnects.
	if mcpTransport == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "regwatch",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(mcpSrv)

		transport := &mcp.IOTransport{Reader: os.Stdin, Writer: os.Stdout}
		slog.Info("mcp stdio starting")
		if err := mcpSrv.Run(ctx, transport); err != nil && ctx.Err() == nil {
			slog.Error("mcp stdio", "error", err)
			os.Exit(1)
		}
		return
	}

	// Router.
	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack() {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Get("/api/overview", func(w http.ResponseWriter, r *http.Request) {
		ov, err := svc.Overview(r.Context())
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, 200, ov)
	})

	r.Get("/api/sources", func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.Sources(r.Context())
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, 200, rows)
	})

	r.Post("/api/sources/{sourceID}/trigger", func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.TriggerOne(r.Context(), chi.URLParam(r, "sourceID"))
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, 200, view)
	})

	r.Get("/api/sources/{sourceID}/outcome", func(w http.ResponseWriter, r *http.Request) {
		view, ok := svc.LastOutcome(chi.URLParam(r, "sourceID"))
		if !ok {
			writeJSON(w, 404, map[string]string{"error": "no recorded trigger"})
			return
		}
		writeJSON(w, 200, view)
	})

	// Batch trigger. The confirmation gate is resolved from the request body;
	// a declined sweep is a 200 with declined=true, not an error.
	r.Post("/api/trigger-all", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Confirm bool                 `json:"confirm"`
			Sources []regwatch.SourceRef `json:"sources"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, 400, err)
			return
		}
		gate := func(string) bool { return req.Confirm }

		var report *regwatch.SweepView
		if len(req.Sources) > 0 {
			report = svc.TriggerAll(r.Context(), req.Sources, gate, nil)
		} else {
			var err error
			report, err = svc.TriggerEligible(r.Context(), gate, nil)
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
		}
		writeJSON(w, 200, report)
	})

	r.Get("/api/trigger-log", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, svc.TriggerLog())
	})

	r.Get("/api/changes", func(w http.ResponseWriter, r *http.Request) {
		changes, err := svc.Changes(r.Context(), r.URL.Query().Get("source_id"), queryInt(r, "limit", 50))
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, 200, changes)
	})

	r.Get("/api/changes/{changeID}/preview", func(w http.ResponseWriter, r *http.Request) {
		preview, err := svc.ChangePreview(r.Context(), chi.URLParam(r, "changeID"))
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, 200, preview)
	})

	r.Get("/api/audit", func(w http.ResponseWriter, r *http.Request) {
		recent, err := events.Recent(r.Context(), queryInt(r, "limit", 50))
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, recent)
	})

	// HTTP server.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// resolveConfig builds the service config from CONFIG_FILE (optional YAML)
// with environment overrides. BACKEND_URL is required one way or the other.
func resolveConfig() (*regwatch.Config, error) {
	cfg := &regwatch.Config{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		loaded, err := regwatch.LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if v := os.Getenv("BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("BACKEND_TOKEN"); v != "" {
		cfg.Backend.Token = v
	}
	if cfg.Backend.BaseURL == "" {
		return nil, errors.New("BACKEND_URL is required")
	}
	return cfg, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, regwatch.ErrInvalidInput):
		return 400
	case errors.Is(err, regwatch.ErrNotFound):
		return 404
	default:
		return 500
	}
}

// --- Helpers ---

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
