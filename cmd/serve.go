package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/quota"
)

// shutdownGrace bounds how long in-flight requests have to finish once
// a termination signal arrives.
const shutdownGrace = 10 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start webhook server for pipeline runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		mux := buildMux(ctx, env)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		go func() {
			if err := awaitShutdown(ctx, srv); err != nil {
				zap.L().Error("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// awaitShutdown blocks until ctx is cancelled, then drains srv. The
// signal context is already cancelled at that point, so in-flight
// requests get their own grace-period context.
func awaitShutdown(ctx context.Context, srv *http.Server) error {
	<-ctx.Done()
	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildMux assembles the webhook routes. Nil env fields are tolerated so
// route behavior can be exercised without a live store or API keys.
func buildMux(ctx context.Context, env *pipelineEnv) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /quota", func(w http.ResponseWriter, r *http.Request) {
		statuses := map[string]quota.ProviderStatus{}
		persistFailures := 0
		if env != nil && env.Tracker != nil {
			statuses, persistFailures = env.Tracker.Status()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"providers":        statuses,
			"persist_failures": persistFailures,
		})
	})

	mux.HandleFunc("POST /webhook/run", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Vertical   string `json:"vertical"`
			Region     string `json:"region"`
			MaxResults int    `json:"max_results"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		if req.Vertical == "" || req.Region == "" {
			http.Error(w, `{"error":"vertical and region are required"}`, http.StatusBadRequest)
			return
		}

		params := pipeline.Params{
			Vertical:   req.Vertical,
			Region:     req.Region,
			MaxResults: req.MaxResults,
		}

		// Run the pipeline asynchronously; callers poll run history.
		go func() {
			if env == nil || env.Pipeline == nil {
				return
			}
			run, err := env.Pipeline.Run(ctx, params)
			if err != nil {
				zap.L().Error("webhook run failed",
					zap.String("vertical", params.Vertical),
					zap.String("region", params.Region),
					zap.Error(err),
				)
				return
			}
			zap.L().Info("webhook run complete",
				zap.String("run_id", run.ID),
				zap.Int("leads", run.Result.LeadsExported),
			)
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{
			"status":   "accepted",
			"vertical": req.Vertical,
			"region":   req.Region,
		})
	})

	return mux
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
