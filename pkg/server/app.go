package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"EarnPulse/internal/middleware"
	"EarnPulse/internal/usecase"
	"EarnPulse/pkg/config"
	xhttp "EarnPulse/pkg/http"
	pkgkafka "EarnPulse/pkg/kafka"
	applogger "EarnPulse/pkg/logger"
)

type closer struct {
	name string
	fn   func() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	pipeline    *middleware.RecordingPipeline
	recorder    *usecase.PredictionRecorder
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	closers     []closer
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	pipeline *middleware.RecordingPipeline,
	recorder *usecase.PredictionRecorder,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		httpHandler: handler,
		pipeline:    pipeline,
		recorder:    recorder,
	}
}

// SetConsumer attaches a Kafka consumer and the handler it feeds.
func (a *App) SetConsumer(c *pkgkafka.Consumer, h pkgkafka.MessageHandler) {
	a.consumer = c
	a.kh = h
}

// OnClose registers a resource to release after everything else has stopped.
func (a *App) OnClose(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler, a.log,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(a.cfg.Server.SlowThreshold),
	)

	if a.pipeline != nil {
		a.pipeline.Start(ctx)
		a.log.Info("recording pipeline started", applogger.String("backend", a.cfg.Recorder.Backend))
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops intake first, then drains the recorder, then releases clients.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.pipeline != nil {
		if err := a.pipeline.Stop(ctx); err != nil {
			a.log.Warn("recording pipeline stop error",
				applogger.Int("pending", a.pipeline.Pending()),
				applogger.Error(err),
			)
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.recorder != nil {
		a.recorder.Close()
	}

	for _, c := range a.closers {
		if err := c.fn(); err != nil {
			a.log.Warn("close error", applogger.String("resource", c.name), applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
