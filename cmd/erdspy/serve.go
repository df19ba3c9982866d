package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"erdspy/internal/db"
	"erdspy/internal/introspect"
	"erdspy/internal/logger"
	"erdspy/internal/model"
	"erdspy/pkg/config"
)

const defaultPort = 8080

var (
	port   int
	webdir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the schema model over HTTP",
	Long: `Start an HTTP API that gathers a database on request and serves the model,
its anomalies and table neighborhoods from an in-memory snapshot cache.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&port, "port", 0, fmt.Sprintf("http port (overrides config, default %d)", defaultPort))
	serveCmd.Flags().StringVar(&webdir, "web", "", "optional web ui directory")
}

// gatherFunc gathers the database described by app.
type gatherFunc func(ctx context.Context, app config.AppConfig) (*model.Database, error)

// snapshot is one gathered model. The model is only read once stored.
type snapshot struct {
	ID      uuid.UUID         `json:"id"`
	Created time.Time         `json:"created"`
	Report  introspect.Report `json:"report"`

	db      *model.Database
	implied bool
}

type server struct {
	gather gatherFunc

	mu        sync.RWMutex
	app       config.AppConfig
	connected bool
	snapshots map[uuid.UUID]*snapshot
	latest    uuid.UUID
}

func newServer(app config.AppConfig, gather gatherFunc) *server {
	return &server{
		gather:    gather,
		app:       app,
		connected: app.Database.Type != "",
		snapshots: map[uuid.UUID]*snapshot{},
	}
}

// setActive sets the active database connection
func (s *server) setActive(c config.DBConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.app.Database = c
	s.connected = true
}

// getActive returns the configuration of the active connection
func (s *server) getActive() (config.AppConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.app, s.connected
}

// take gathers app and caches the result as the latest snapshot.
func (s *server) take(ctx context.Context, app config.AppConfig) (*snapshot, error) {
	m, err := s.gather(ctx, app)
	if err != nil {
		return nil, err
	}
	opts := reportOptions(app.Gather)
	snap := &snapshot{
		ID:      uuid.New(),
		Created: time.Now(),
		Report:  introspect.NewReport(m, opts),
		db:      m,
		implied: opts.Implied,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.ID] = snap
	s.latest = snap.ID
	logger.Info("snapshot %s: %d tables, %d views", snap.ID, len(m.Tables()), len(m.Views()))
	return snap, nil
}

func (s *server) lookup(r *http.Request) (*snapshot, error) {
	raw := chi.URLParam(r, "id")
	s.mu.RLock()
	defer s.mu.RUnlock()
	if raw == "latest" {
		if snap, ok := s.snapshots[s.latest]; ok {
			return snap, nil
		}
		return nil, errors.New("no snapshot taken yet")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot id: %w", err)
	}
	snap, ok := s.snapshots[id]
	if !ok {
		return nil, fmt.Errorf("unknown snapshot %s", id)
	}
	return snap, nil
}

func (s *server) routes(webdir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/getConnect", s.handleGetConnect)
		r.Post("/connect", s.handleConnect)
		r.Get("/schema", s.handleSchema)
		r.Get("/dialects", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, db.RegisteredDialects())
		})

		r.Route("/snapshots/{id}", func(r chi.Router) {
			r.Get("/", s.handleSnapshot)
			r.Delete("/", s.handleDeleteSnapshot)
			r.Get("/anomalies", s.handleAnomalies)
			r.Get("/tables/{table}/neighborhood", s.handleNeighborhood)
		})
	})

	if webdir != "" {
		r.Handle("/*", http.FileServer(http.Dir(webdir)))
	}
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response: %v", err)
	}
}

// handleGetConnect returns the current DB params
func (s *server) handleGetConnect(w http.ResponseWriter, r *http.Request) {
	app, _ := s.getActive()
	c := app.Database
	c.Type = config.NormalizeDriver(c.Type)
	writeJSON(w, struct {
		OK     bool            `json:"ok"`
		Config config.DBConfig `json:"config"`
	}{OK: true, Config: c})
}

// handleConnect gathers the posted database and makes it the active one.
func (s *server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var dbReq config.DBConfig
	if err := json.NewDecoder(r.Body).Decode(&dbReq); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if _, _, err := config.BuildDriverAndDSN(dbReq); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	app, _ := s.getActive()
	app.Database = dbReq

	snap, err := s.take(r.Context(), app)
	if err != nil {
		http.Error(w, "connection failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.setActive(dbReq)

	writeJSON(w, struct {
		OK     bool              `json:"ok"`
		ID     uuid.UUID         `json:"id"`
		Schema introspect.Schema `json:"schema"`
	}{OK: true, ID: snap.ID, Schema: snap.Report.Schema})
}

// handleSchema gathers the active connection again.
func (s *server) handleSchema(w http.ResponseWriter, r *http.Request) {
	app, ok := s.getActive()
	if !ok {
		http.Error(w, "no active connection; POST /api/connect to create one", http.StatusBadRequest)
		return
	}
	snap, err := s.take(r.Context(), app)
	if err != nil {
		http.Error(w, "failed to gather schema: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("X-Snapshot-Id", snap.ID.String())
	writeJSON(w, snap.Report.Schema)
}

func (s *server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.lookup(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, snap)
}

func (s *server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.lookup(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.mu.Lock()
	delete(s.snapshots, snap.ID)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	snap, err := s.lookup(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, snap.Report.Anomalies)
}

// handleNeighborhood serves the tables within ?degrees=1 or 2 (the default)
// of a table or view.
func (s *server) handleNeighborhood(w http.ResponseWriter, r *http.Request) {
	snap, err := s.lookup(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	degrees := 2
	if v := r.URL.Query().Get("degrees"); v != "" {
		degrees, err = strconv.Atoi(v)
		if err != nil || degrees < 1 || degrees > 2 {
			http.Error(w, "degrees must be 1 or 2", http.StatusBadRequest)
			return
		}
	}
	name := chi.URLParam(r, "table")
	t := snap.db.Lookup(name)
	if t == nil {
		http.Error(w, fmt.Sprintf("unknown table %q", name), http.StatusNotFound)
		return
	}
	writeJSON(w, introspect.NeighborhoodOf(t, degrees == 2, snap.implied))
}

func runServe(cmd *cobra.Command, args []string) error {
	appCfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	port = cmpOr(port, appCfg.Server.Port, defaultPort)

	s := newServer(appCfg, func(ctx context.Context, app config.AppConfig) (*model.Database, error) {
		return gatherOne(ctx, app, timeout)
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.routes(webdir),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown: %v", err)
		}
	}()

	logger.Info("listening on %s", addr)
	logger.Info("registered dialects: %v", db.RegisteredDialects())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
