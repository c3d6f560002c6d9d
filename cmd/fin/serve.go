package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	fin "github.com/DrewCarlson/Fin"
	"github.com/DrewCarlson/Fin/internal/logging"
	filestore "github.com/DrewCarlson/Fin/pkg/adapters/file"
	httpadapter "github.com/DrewCarlson/Fin/pkg/adapters/http"
	redisstore "github.com/DrewCarlson/Fin/pkg/adapters/redis"
	"github.com/DrewCarlson/Fin/pkg/domain"
	"github.com/DrewCarlson/Fin/pkg/middleware"
	"github.com/DrewCarlson/Fin/pkg/ports"
	"github.com/DrewCarlson/Fin/pkg/session"
)

// mapState is the generic state domain served by the CLI: a bag of keys
// mutated by "merge" and "reset" actions.
type mapState = map[string]any

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a state domain over HTTP",
	Long: `Serve hosts a generic map-shaped state domain behind the JSON dispatch API.

Actions:
  merge  payload object is merged into the state
  reset  state is replaced by the payload object (or emptied)

Any other action, and any merge with a non-object payload, is rejected.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "HTTP listen address")
	serveCmd.Flags().String("seed", "", "YAML file with the initial state")
	serveCmd.Flags().String("snapshot-dir", "", "Directory for file snapshots")
	serveCmd.Flags().String("redis-addr", "", "Redis address for snapshots (overrides --snapshot-dir)")
	serveCmd.Flags().String("redis-password", "", "Redis password")
	serveCmd.Flags().Int("redis-db", 0, "Redis database")
	serveCmd.Flags().String("snapshot-id", "default", "Snapshot ID for this state domain")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	levelName, _ := cmd.Flags().GetString("log-level")
	logger := logging.New(logging.ParseLevel(levelName))

	addr, _ := cmd.Flags().GetString("addr")
	seedPath, _ := cmd.Flags().GetString("seed")
	snapshotDir, _ := cmd.Flags().GetString("snapshot-dir")
	redisAddr, _ := cmd.Flags().GetString("redis-addr")
	redisPassword, _ := cmd.Flags().GetString("redis-password")
	redisDB, _ := cmd.Flags().GetInt("redis-db")
	snapshotID, _ := cmd.Flags().GetString("snapshot-id")

	initial, err := loadSeed(seedPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []fin.Option[mapState]{
		fin.WithReducerFunc[mapState](mergeReducer),
		fin.WithPreMiddleware[mapState](middleware.Logging[mapState](logger)),
		fin.WithHooks(middleware.Hooks[mapState](middleware.NewCollector(prometheus.DefaultRegisterer))),
		fin.WithLogger[mapState](logger),
	}

	// Snapshot persistence: redis wins over the file store; neither means
	// the domain is purely in-memory.
	var store ports.SnapshotStore[mapState]
	switch {
	case redisAddr != "":
		store = redisstore.New[mapState](redisAddr, redisPassword, redisDB)
		logger.Info("using redis snapshots", "addr", redisAddr, "snapshot_id", snapshotID)
	case snapshotDir != "":
		store = filestore.New[mapState](snapshotDir)
		logger.Info("using file snapshots", "dir", snapshotDir, "snapshot_id", snapshotID)
	}

	if store != nil {
		mgr := session.NewManager(store, session.WithLogger[mapState](logger))
		initial, err = mgr.LoadOrInit(ctx, snapshotID, initial)
		if err != nil {
			return fmt.Errorf("failed to restore snapshot: %w", err)
		}
		opts = append(opts, fin.WithStateHandler(session.Autosave(mgr, snapshotID, logger)))
	}

	proc := fin.New(initial, opts...)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", httpadapter.NewHandler(proc, httpadapter.WithLogger[mapState](logger)))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// loadSeed parses the YAML seed file, or returns an empty state.
func loadSeed(path string) (mapState, error) {
	if path == "" {
		return mapState{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed mapState
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if seed == nil {
		seed = mapState{}
	}
	return seed, nil
}

// mergeReducer applies "merge" and "reset" actions to the map state,
// returning a fresh map on every change so committed states stay immutable.
func mergeReducer(ctx context.Context, state mapState, action domain.Action) (mapState, error) {
	switch action.Name {
	case "merge":
		patch, ok := action.Payload.(map[string]any)
		if !ok {
			return fin.Reject[mapState]()
		}
		next := make(mapState, len(state)+len(patch))
		for k, v := range state {
			next[k] = v
		}
		for k, v := range patch {
			next[k] = v
		}
		return next, nil
	case "reset":
		if patch, ok := action.Payload.(map[string]any); ok {
			next := make(mapState, len(patch))
			for k, v := range patch {
				next[k] = v
			}
			return next, nil
		}
		return mapState{}, nil
	default:
		return fin.Reject[mapState]()
	}
}
