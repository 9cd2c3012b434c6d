package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbolis/parish-forms/app"
	"github.com/mbolis/parish-forms/config"
	"github.com/mbolis/parish-forms/events"
	"github.com/mbolis/parish-forms/httpx"
	"github.com/mbolis/parish-forms/log"
	"github.com/mbolis/parish-forms/routes"
	"github.com/mbolis/parish-forms/upload"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(true)
		if err != nil {
			return err
		}

		publisher, err := newPublisher(cfg)
		if err != nil {
			return err
		}
		defer publisher.Close()

		db, engine, err := openEngine(cfg, publisher)
		if err != nil {
			return err
		}
		defer db.Close()

		uploader, err := newUploader(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		handler := routes.Wire(app.App{
			DB:           db,
			BearerServer: httpx.NewBearerServer(db, cfg),
			Config:       cfg,
			Forms:        engine,
			Uploader:     uploader,
		})

		err = runServer(cfg, handler)
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.String("host", "0.0.0.0", "address to listen on")
	flags.Int("port", 80, "port to listen on")
	flags.String("token-secret", "", "secret used to sign access tokens")
	flags.Int("token-ttl", 120, "access token lifetime in seconds")
	bindFlags(v, flags.Lookup("host"), flags.Lookup("port"), flags.Lookup("token-secret"), flags.Lookup("token-ttl"))
}

func newPublisher(cfg config.Config) (events.Publisher, error) {
	if cfg.NatsURL == "" {
		log.Info("events disabled (nats.url not set)")
		return events.NoopPublisher{}, nil
	}
	pub, err := events.NewNATSPublisher(cfg.NatsURL)
	if err != nil {
		return nil, err
	}
	log.WithField("nats_url", cfg.NatsURL).Info("events enabled")
	return pub, nil
}

func newUploader(ctx context.Context, cfg config.Config) (upload.Uploader, error) {
	switch cfg.Upload.Backend {
	case "s3":
		log.WithField("bucket", cfg.S3.Bucket).Info("uploads go to S3")
		return upload.NewS3(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Endpoint, cfg.S3.PublicURL)
	default:
		log.WithField("dir", cfg.Upload.Dir).Info("uploads stored locally")
		return upload.NewLocal(cfg.Upload.Dir, cfg.UploadBaseURL())
	}
}

// runServer serves until SIGINT or SIGTERM, then drains open requests.
func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("Shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		done <- srv.Shutdown(ctx)
	}()

	log.Info("Listening on " + cfg.Url())
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		if shutdownErr := <-done; shutdownErr != nil {
			return shutdownErr
		}
	}
	return err
}
