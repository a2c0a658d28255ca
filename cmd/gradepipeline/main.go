// Command gradepipeline runs the grading pipeline daemon: an ingress
// listener, a normal stage worker pool, a dedicated advisory worker, a
// delivery loop, and a periodic janitor, all sharing one StepQueue.
// Startup order is: load config, build the logger, then wire and start
// every subsystem.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dawgym/pipeline/internal/advisor"
	"github.com/dawgym/pipeline/internal/audit"
	"github.com/dawgym/pipeline/internal/common"
	"github.com/dawgym/pipeline/internal/egress"
	"github.com/dawgym/pipeline/internal/exerciserepo"
	"github.com/dawgym/pipeline/internal/ingress"
	"github.com/dawgym/pipeline/internal/models"
	"github.com/dawgym/pipeline/internal/queue"
	"github.com/dawgym/pipeline/internal/stages"
)

func main() {
	cfg, err := common.Load("config.toml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "gradepipeline: load config: %v\n", err)
		os.Exit(1)
	}

	logger := common.NewLogger(&cfg.Logging)
	defer common.Stop()

	creds, err := common.LoadCredentials("credentials.txt")
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load credentials.txt")
	}

	repo, err := exerciserepo.Open(filepath.Join("data", "exercises.db"), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not open exercise repository")
	}
	defer repo.Close()

	adv, err := advisor.New(advisor.Config{APIKey: creds.AdvisorAPIKey}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not initialize advisor")
	}

	trail, err := audit.Open(filepath.Join("data", "audit"))
	if err != nil {
		logger.Warn().Err(err).Msg("could not open audit trail, continuing without one")
		trail = nil
	} else {
		defer trail.Close()
	}

	sq := queue.NewStepQueue(logger)

	handlers := queue.Handlers{
		models.StageExtract: stages.NewExtractHandler(repo),
		models.StageCompile: stages.NewCompileHandler(),
		models.StageTest:    stages.NewTestHandler(),
		models.StagePattern: stages.NewPatternHandler(),
	}

	pool := queue.NewWorkerPool(sq, handlers, logger, trail, cfg.Queue.Poll(), cfg.Queue.Pause(), cfg.Queue.PauseMaxIterations)
	pool.Start(cfg.Queue.NormalWorkers)
	defer pool.Stop()

	advisoryHandler := stages.NewAdvisoryHandler(adv)
	advisoryWorker := queue.NewAdvisoryWorker(sq, advisoryHandler, logger, trail, cfg.Queue.Poll())
	advisoryWorker.Start()
	defer advisoryWorker.Stop()

	janitor := queue.NewJanitor(sq, "workspaces", 24*time.Hour, logger)
	if err := janitor.Start(cfg.Queue.JanitorSchedule); err != nil {
		logger.Warn().Err(err).Msg("janitor could not start")
	} else {
		defer janitor.Stop()
	}

	deliveryAddr := fmt.Sprintf("%s:%d", cfg.Egress.Host, cfg.Egress.Port)
	delivery := egress.NewLoop(sq, deliveryAddr, creds.SharedKey, cfg.Egress.MaxConsecFailure, cfg.Queue.Poll(), logger)
	deliveryCtx, cancelDelivery := context.WithCancel(context.Background())
	go delivery.Run(deliveryCtx)
	defer cancelDelivery()

	ingressAddr := fmt.Sprintf("%s:%d", cfg.Ingress.Host, cfg.Ingress.Port)
	listener := ingress.New(ingressAddr, creds.SharedKey, sq, logger)
	ingressCtx, cancelIngress := context.WithCancel(context.Background())
	go func() {
		if err := listener.Run(ingressCtx); err != nil {
			logger.Error().Err(err).Msg("ingress listener exited")
		}
	}()
	defer cancelIngress()

	logger.Info().Str("ingress", ingressAddr).Str("egress", deliveryAddr).Msg("gradepipeline started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("shutting down, writing final snapshot")
	if err := sq.Snapshot(); err != nil {
		logger.Error().Err(err).Msg("final snapshot failed")
	}
}
