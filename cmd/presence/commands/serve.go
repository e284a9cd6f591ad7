package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/wonny/presence/backend/internal/api"
	"github.com/wonny/presence/backend/internal/api/handlers"
	"github.com/wonny/presence/backend/pkg/redis"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Démarrer le dashboard web",
	Long: `Démarre le serveur HTTP du dashboard.

Pages:
  GET  /                     - Accueil, vue d'ensemble
  GET  /dashboard            - Tableau de bord principal
  GET  /analysis             - Analyses détaillées

API:
  GET  /health               - Health check
  GET  /api/report           - KPIs et vues agrégées
  GET  /api/overview         - Résumé des données
  GET  /api/filters          - Options et sélection par défaut
  POST /api/refresh          - Recharger les tables
  GET  /api/export/{view}.csv - Export CSV (brands, segments, zones, products, daily)

Example:
  go run ./cmd/presence serve
  go run ./cmd/presence serve --port 8080`,
	RunE: runServe,
}

var (
	servePort string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flags
	serveCmd.Flags().StringVar(&servePort, "port", "", "HTTP port (default: PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// 1. Config, logger, data source
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if servePort != "" {
		a.cfg.Port = servePort
	}
	log := a.log

	// 2. Dashboard service
	svc := a.newService()
	h := handlers.NewDashboardHandler(svc, a.health, rate.NewLimiter(rate.Limit(a.cfg.RefreshRate), 1), log)

	// 3. Optional Redis: shared report cache and cross-instance refresh limit
	rc, err := redis.New(ctx, a.cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without shared cache")
	} else {
		defer rc.Close()
		if rc.Enabled() {
			svc.WithReportCache(redis.NewCache(rc, "presence"))
			h.WithSharedLimiter(redis.NewRateLimiter(rc, "presence:ratelimit"), redis.RefreshRateLimit(int(a.cfg.RefreshRate*60)))
			log.WithField("addr", rc.Addr()).Info("Redis shared cache enabled")
		}
	}

	// 4. Warm the snapshot so the first visitor does not pay for the load
	if _, err := svc.Snapshot(ctx); err != nil {
		log.WithError(err).Warn("Initial load failed, pages will retry on demand")
	}

	// 5. Router and server, stopped by Ctrl+C or SIGTERM
	server := api.New(a.cfg, log, api.NewRouter(h, log))

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n✅ Dashboard running on http://localhost%s\n", server.Addr())
	fmt.Println("\nPress Ctrl+C to stop")

	return server.Run(runCtx)
}
