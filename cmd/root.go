package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
	"github.com/spf13/cobra"

	"emili/internal/config"
	"emili/internal/metrics"
	"emili/internal/session"
	"emili/internal/store"
	"emili/internal/ui"
	"emili/processing/capture"
	"emili/processing/detector"
	"emili/processing/worker"
)

const Version = "0.1.0"

var (
	configPath   string
	detectorHost string
	redisAddr    string
	dbPath       string
	metricsAddr  string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:          "emili",
	Short:        "Emotionally intelligent chat companion with live facial emotion recognition",
	Version:      Version,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd, cfg)

		return run(cmd.Context(), cfg)
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", config.DefaultConfigPath, "path to the JSON config file")
	flags.StringVar(&detectorHost, "detector", "", "FER server host:port (overrides config)")
	flags.StringVar(&redisAddr, "redis", "", "Redis address for relaying chat (overrides config)")
	flags.StringVar(&dbPath, "db", "", "SQLite message log path (overrides config)")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "address to serve /metrics on (overrides config)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("detector") {
		cfg.DetectorHost = detectorHost
	}
	if flags.Changed("redis") {
		cfg.RedisAddr = redisAddr
	}
	if flags.Changed("db") {
		cfg.DBPath = dbPath
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = metricsAddr
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess := session.New(time.Now())

	relayOpts := session.RelayOptions{}

	if cfg.DBPath != "" {
		messages, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer messages.Close()
		relayOpts.Recorder = messages
	}

	client, err := session.Dial(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
		bus := session.NewRedisBus(client, cfg.RedisPrefix)
		relayOpts.Publisher = bus
		relayOpts.Subscriber = bus
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr)
	}

	go func() {
		if err := session.NewRelay(sess, relayOpts).Run(ctx); err != nil {
			slog.Error("relay stopped", "error", err)
		}
	}()

	camera, err := capture.NewCamera(cfg)
	if err != nil {
		return err
	}

	fer := detector.NewRemoteFER(cfg.DetectorHost, cfg.GetDetectorTimeout())
	defer fer.Close()

	imageSize := cfg.GetImageSize()
	frameWorker := worker.New(camera, fer, worker.Options{
		Width:  imageSize.Width,
		Height: imageSize.Height,
		Topic:  cfg.Topic,
	})

	fyneApp := app.NewWithID("io.emili.companion")
	chat := ui.NewChatApp(fyneApp, sess, ui.Options{
		WindowSize:        fyne.NewSize(float32(cfg.WindowSize.Width), float32(cfg.WindowSize.Height)),
		ImageSize:         fyne.NewSize(float32(imageSize.Width), float32(imageSize.Height)),
		UserChatName:      cfg.UserChatName,
		AssistantChatName: cfg.AssistantChatName,
		DisplayFPS:        cfg.GetFPS(),
	})

	workerDone := make(chan struct{})
	go func() {
		err := frameWorker.Run(ctx)
		close(workerDone)

		if err != nil && ctx.Err() == nil {
			slog.Error("frame worker stopped", "error", err)
			fyne.Do(func() {
				dialog.ShowError(err, chat.Window())
			})
		}
	}()

	chat.Attach(ctx, frameWorker)

	chat.Window().SetOnClosed(func() {
		frameWorker.Stop()
		cancel()
		if err := cfg.Save(configPath); err != nil {
			slog.Error("failed to save config", "error", err)
		}
	})

	// a signal closes the window so the UI loop can return
	go func() {
		<-ctx.Done()
		fyne.Do(fyneApp.Quit)
	}()

	chat.ShowAndRun()

	<-workerDone
	return nil
}

func serveMetrics(ctx context.Context, addr string) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("metrics server failed", "error", err)
	}
}
