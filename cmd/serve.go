package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spatialbench/annotator/config"
	"github.com/spatialbench/annotator/db"
	"github.com/spatialbench/annotator/service"
	"github.com/spatialbench/annotator/service/exceptions"
	"github.com/spatialbench/annotator/video"
	"github.com/spf13/cobra"
)

var serveFlags struct {
	port     int
	file     string
	videoDir string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the annotation HTTP server",
	Long: `Run the annotation HTTP server. Settings come from ANNOTATOR_* and REDIS_*
environment variables; flags override them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if serveFlags.port != 0 {
			cfg.Server.Port = serveFlags.port
		}
		if serveFlags.file != "" {
			cfg.Session.File = serveFlags.file
		}
		if serveFlags.videoDir != "" {
			cfg.Server.VideoDir = serveFlags.videoDir
		}
		return serve(cfg)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&serveFlags.port, "port", "p", 0, "port to listen on")
	serveCmd.Flags().StringVarP(&serveFlags.file, "file", "f", "", "dataset file to load for every mode")
	serveCmd.Flags().StringVar(&serveFlags.videoDir, "video-dir", "", "directory holding the videos")
}

func serve(cfg *config.Config) error {
	logger, err := cfg.Log.Logger()
	if err != nil {
		return err
	}
	reporter, err := exceptions.New(cfg.Sentry.DSN, cfg.Sentry.Env)
	if err != nil {
		return errors.Wrap(err, "creating exception reporter")
	}
	store, err := db.New(cfg.Store.Options())
	if err != nil {
		return errors.Wrap(err, "opening store")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	videos := video.New(cfg.Server.VideoDir, logger)
	if cfg.Server.WatchVideos {
		if err := videos.Watch(ctx); err != nil {
			logger.WithError(err).Warn("not watching video dir")
		}
	}

	srv := service.NewServer(cfg, store, videos, logger, reporter)
	if cfg.Session.File != "" {
		if _, err := srv.Load(cfg.Session.File, service.Modes...); err != nil {
			return errors.Wrapf(err, "loading %s", cfg.Session.File)
		}
	}

	hs := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		hs.Shutdown(shutdown)
	}()

	logger.WithField("addr", hs.Addr).Info("listening")
	if err := hs.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	logger.Info("server stopped")
	return nil
}
