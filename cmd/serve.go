package cmd

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/part-recommender/internal/api"
	"github.com/spigell/part-recommender/internal/catalog"
	"github.com/spigell/part-recommender/internal/logger"
	"github.com/spigell/part-recommender/internal/matching"
	"github.com/spigell/part-recommender/internal/recommender"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve recommendations over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default is :8080)")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), logOutputs()...)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	mode, err := matching.ParseRankMode(config.Recommend.Priority)
	if err != nil {
		logger.Fatal("parsing the priority", zap.Error(err))
	}

	vendors, parts, err := exclusions(config.Recommend, config.Recommend.ExcludeFile)
	if err != nil {
		logger.Fatal("getting excluded products from file", zap.Error(err))
	}

	store, err := catalog.NewStore(config.Catalog.DB)
	if err != nil {
		logger.Fatal("opening the catalog", zap.Error(err), zap.String("path", config.Catalog.DB))
	}
	defer store.Close()

	opts := []recommender.Option{recommender.WithLogger(logger), recommender.WithHistory(store)}

	selector, err := newSelector(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("skipping AI picks", zap.Error(err))
	}
	if selector != nil {
		opts = append(opts, recommender.WithSelector(selector))
	}

	if !viper.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	api.SetupRoutes(router, api.NewAPI(recommender.New(store, opts...), store, store, api.Defaults{
		Mode:           mode,
		Top:            config.Recommend.Top,
		ExcludeVendors: vendors,
		ExcludeParts:   parts,
	}, logger))

	srv := &http.Server{
		Addr:              config.Server.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		logger.Fatal("listening", zap.Error(err), zap.String("listen", srv.Addr))
	}

	logger.Info("serving recommendations", zap.String("listen", listener.Addr().String()), zap.String("version", resolveVersion()))

	if err := runServer(ctx, srv, listener, logger); err != nil {
		logger.Error("serving", zap.Error(err))
		return
	}

	logger.Info("server stopped")
}

// runServer serves on listener until ctx is done, then shuts srv down and
// returns only after in-flight requests have finished or the shutdown
// timeout has passed.
func runServer(ctx context.Context, srv *http.Server, listener net.Listener, logger *zap.Logger) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutting down the server", zap.Error(err))
		}
	}()

	if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-done
	return nil
}
