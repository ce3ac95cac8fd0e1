package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"

	"stream-uploader/internal"
	"stream-uploader/internal/logging"
	"stream-uploader/internal/metrics"
	"stream-uploader/internal/model"
	"stream-uploader/internal/notify"
	"stream-uploader/internal/report"
	"stream-uploader/internal/s3"
	"stream-uploader/internal/stream"
	"stream-uploader/internal/uploaders"
)

func main() {
	// Load .env file if it exists (try multiple paths)
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, path := range envPaths {
		_ = godotenv.Load(path)
	}

	name := flag.String("name", "", "display name for the uploaded videos (default $UPLOADER_VIDEO_NAME or \"Test video\")")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "Usage: uploader [-name NAME] URL...")
		flag.PrintDefaults()
	}
	flag.Parse()

	log, err := logging.New(internal.ErrorsLogPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Infof("shutdown signal received")
		cancel()
	}()

	log.Infof("Starting uploader")
	err = run(ctx, log, flag.Args(), *name)
	cancel()
	if err != nil {
		log.Errorf("Service failed:\n\n%v", err)
		log.Close()
		os.Exit(1)
	}
	log.Infof("Service successfully stopped")
	log.Close()
}

// run uploads every URL in args. Only the URL arguments are passed in, never
// the program name.
func run(ctx context.Context, log *logging.Logger, args []string, name string) error {
	log.Infof("Parsing config")
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	reqs := uploaders.BuildRequests(args, lo.Ternary(name != "", name, cfg.VideoName))
	if len(reqs) == 0 {
		return errors.New("no video URLs given (usage: uploader [-name NAME] URL...)")
	}

	mt := metrics.New()
	client, err := stream.NewClientBuilder().
		Token(cfg.Token).
		AccountID(cfg.AccountID).
		BaseURL(cfg.BaseURL).
		MaxPolls(cfg.MaxPolls).
		OnPoll(func(polls int, v stream.Video) {
			mt.ObservePoll()
			if !v.ReadyToStream && polls%30 == 0 {
				log.Infof("still waiting for %s after %d polls", v.UID, polls)
			}
		}).
		Build()
	if err != nil {
		return err
	}

	mgr := uploaders.NewManager(uploaders.NewStreamUploader(client), log)
	mgr.SetPolicy(cfg.OnError)
	mgr.SetMetrics(mt)
	mgr.SetNotifier(newNotifier(cfg, log))

	rep, runErr := mgr.Run(ctx, reqs)
	ok, failed := rep.Counts()
	log.Infof("run %s finished: %d uploaded, %d failed, %d skipped", rep.ID, ok, failed, len(reqs)-len(rep.Items))

	// The run context may already be canceled; give the bookkeeping its own.
	bg, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()
	if cfg.ReportsEnabled() {
		saveReport(bg, cfg, log, rep)
	}
	if cfg.PushgatewayURL != "" {
		if err := mt.Push(bg, cfg.PushgatewayURL); err != nil {
			log.Warnf("push metrics: %v", err)
		}
	}
	return runErr
}

func newNotifier(cfg internal.Config, log *logging.Logger) notify.Notifier {
	if !cfg.TelegramEnabled() {
		return notify.Nop{}
	}
	tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		log.Warnf("notifications disabled: %v", err)
		return notify.Nop{}
	}
	return tg
}

func saveReport(ctx context.Context, cfg internal.Config, log *logging.Logger, rep *model.RunReport) {
	s3c, err := s3.New(ctx, cfg)
	if err != nil {
		log.Warnf("report not saved: s3 client: %v", err)
		return
	}
	key, err := report.NewStore(s3c, cfg.ReportPrefix).Save(ctx, rep)
	if err != nil {
		log.Warnf("report not saved: %v", err)
		return
	}
	log.Infof("report saved to s3://%s/%s", cfg.S3Bucket, key)
}
