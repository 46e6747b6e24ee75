package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/address-book-service/internal/config"
	"gitlab.com/dirk.krummacker/address-book-service/internal/database"
	"gitlab.com/dirk.krummacker/address-book-service/internal/logging"
	"gitlab.com/dirk.krummacker/address-book-service/internal/repository"
	"gitlab.com/dirk.krummacker/address-book-service/internal/service"
)

// Usage example on the command line:
// > PORT=8080 DBHOST=localhost:3306 DBUSER=dirk DBPWD=bullo92 GIN_MODE=release GIN_LOGGING=OFF go run main.go
// > go run main.go --driver=sqlite --dbname=addresses --init-schema
func main() {
	cmd := &cobra.Command{
		Use:   "address-book-service",
		Short: "REST API for managing address book entries",
		Long: `REST API for creating, reading, updating, deleting and searching address book entries.
The entries are stored in MySQL, PostgreSQL or SQLite.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := config.ReadConfigFile(viper.GetViper(), cmd.Use); err != nil {
				return err
			}
			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}

			log := logging.New(logging.Options{
				Verbose:     cfg.Verbose,
				Development: gin.Mode() == gin.DebugMode,
				File:        cfg.LogFile,
			})
			defer log.Sync()

			db, err := database.Open(ctx, log.Named("database"), cfg.Driver, cfg.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			if cfg.InitSchema {
				log.Info("Creating schema", zap.String("driver", cfg.Driver))
				if err := database.ApplySchema(ctx, db); err != nil {
					return err
				}
			}

			repo, err := repository.New(db, log.Named("repository"))
			if err != nil {
				return err
			}
			defer repo.Close()

			svc := service.NewService(repo, log.Named("service"))
			router := service.SetupHttpRouter(svc, service.RouterOptions{
				Logging: cfg.GinLogging,
				Metrics: cfg.Metrics,
			})

			srv := &http.Server{
				Addr:    cfg.Laddr,
				Handler: router,
			}
			errs := make(chan error, 1)
			go func() {
				log.Info("Listening", zap.String("laddr", cfg.Laddr))
				errs <- srv.ListenAndServe()
			}()

			select {
			case err := <-errs:
				return err
			case <-ctx.Done():
				log.Info("Shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return err
				}
				if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			}
		},
	}

	config.RegisterCommonFlags(cmd.PersistentFlags(), cmd.Use)
	config.RegisterDatabaseFlags(cmd.PersistentFlags())
	config.RegisterServiceFlags(cmd.PersistentFlags())

	if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		panic(err)
	}
	config.BindEnv(viper.GetViper())

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
