package di

import (
	"context"
	"fmt"
	"time"

	"EarnPulse/internal/domain/repository"
	domsvc "EarnPulse/internal/domain/service"
	"EarnPulse/internal/handler/api"
	mid "EarnPulse/internal/middleware"
	internalrepo "EarnPulse/internal/repository"
	icache "EarnPulse/internal/service/cache"
	"EarnPulse/internal/service/finnhub"
	"EarnPulse/internal/service/ratelimit"
	"EarnPulse/internal/service/yahoo"
	"EarnPulse/internal/services/calendar"
	"EarnPulse/internal/services/classifier"
	"EarnPulse/internal/usecase"
	pcache "EarnPulse/pkg/cache"
	pkgch "EarnPulse/pkg/clickhouse"
	"EarnPulse/pkg/config"
	pkgkafka "EarnPulse/pkg/kafka"
	"EarnPulse/pkg/logger"
	"EarnPulse/pkg/metrics"
	"EarnPulse/pkg/server"
)

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideNopMetrics is used by one-shot tools that expose no /metrics.
func ProvideNopMetrics() repository.Metrics {
	return metrics.Nop{}
}

// ProvideYahooClient creates the Yahoo Finance client shared by prices,
// profiles and the calendar.
func ProvideYahooClient(cfg *config.Config, log *logger.Logger) *yahoo.Client {
	return yahoo.New(yahoo.Options{
		ChartURL:   cfg.Yahoo.ChartURL,
		SummaryURL: cfg.Yahoo.SummaryURL,
		UserAgent:  cfg.Yahoo.UserAgent,
		Timeout:    cfg.Yahoo.Timeout,
		Limiter:    ratelimit.New(cfg.Yahoo.RPS, cfg.Yahoo.Burst),
	}, log)
}

// ProvideProfileCache builds the cache backing company profiles: Redis with an
// in-process L1 when Redis is enabled, otherwise memory only.
func ProvideProfileCache(cfg *config.Config) (pcache.Service, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	if !cfg.Cache.Redis.Enabled {
		return pcache.NewMemoryCache(pcache.WithMemoryMaxSize(cfg.Cache.MemorySize)), nil
	}
	rc, err := pcache.NewRedisCache(
		pcache.WithRedisAddr(cfg.Cache.Redis.Host, cfg.Cache.Redis.Port),
		pcache.WithRedisAuth(cfg.Cache.Redis.Password, cfg.Cache.Redis.DB),
		pcache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pcache.NewLayeredCache(rc, cfg.Cache.MemorySize, time.Minute), nil
}

// ProvideCompanyInfo decorates Yahoo profiles with the cache when one is configured.
func ProvideCompanyInfo(yc *yahoo.Client, store pcache.Service, cfg *config.Config, log *logger.Logger) repository.CompanyInfo {
	if store == nil {
		return yc
	}
	return icache.NewProfileCache(yc, store, cfg.Cache.ProfileTTL, log)
}

// ProvideEarningsHistory prefers Finnhub when an API key is configured.
func ProvideEarningsHistory(yc *yahoo.Client, cfg *config.Config) repository.EarningsHistory {
	if cfg.Finnhub.APIKey == "" {
		return yc
	}
	return finnhub.New(cfg.Finnhub.APIKey, cfg.Finnhub.BaseURL, cfg.Finnhub.Timeout, cfg.Finnhub.LookbackDays)
}

func ProvideResolver(yc *yahoo.Client, hist repository.EarningsHistory, cfg *config.Config) *calendar.Resolver {
	return calendar.NewResolver(yc, hist, cfg.Prediction.EarningsLimit)
}

// ProvideModelHandle loads the classifier up front; a missing or corrupt model
// aborts startup.
func ProvideModelHandle(cfg *config.Config, log *logger.Logger) (*classifier.ModelHandle, error) {
	var load classifier.Loader
	switch cfg.Model.Backend {
	case "http":
		load = func(ctx context.Context) (domsvc.Classifier, error) {
			return classifier.LoadHTTPScorer(ctx, cfg.Model.ServiceURL, cfg.Model.Timeout, cfg.Model.Attempts)
		}
	default:
		load = func(context.Context) (domsvc.Classifier, error) {
			return classifier.LoadEnsemble(cfg.Model.ArtifactPath)
		}
	}

	h := classifier.NewModelHandle(load)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := h.Get(ctx); err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	log.Info("model loaded",
		logger.String("backend", cfg.Model.Backend),
		logger.String("version", h.Version()),
	)
	return h, nil
}

// ProvideClickHouseClient connects only when the recorder or consumer writes to ClickHouse.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Recorder.Backend != usecase.BackendClickHouse && !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideStorage creates the ClickHouse prediction store and its table.
func ProvideStorage(client *pkgch.Client, cfg *config.Config, log *logger.Logger) (repository.Storage, error) {
	if client == nil {
		return nil, nil
	}
	table := cfg.ClickHouse.Database + "." + cfg.ClickHouse.Table
	store := internalrepo.NewClickHouseStorage(client, table, log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, []string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse database: %w", err)
	}
	if err := store.Init(ctx, client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a producer when predictions are recorded to Kafka.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Recorder.Backend != usecase.BackendKafka {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

func ProvidePredictionRecorder(
	pub repository.Publisher,
	store repository.Storage,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.PredictionRecorder {
	return usecase.NewPredictionRecorder(pub, store, m, cfg.Recorder.Backend)
}

func ProvideRecordingPipeline(rec *usecase.PredictionRecorder, m repository.Metrics, log *logger.Logger, cfg *config.Config) *mid.RecordingPipeline {
	return mid.NewRecordingPipeline(rec, m, log,
		mid.WithBufferSize(cfg.Recorder.BufferSize),
		mid.WithBatching(50, time.Second),
	)
}

// ProvideEventSink feeds served predictions into the recording pipeline.
func ProvideEventSink(pipe *mid.RecordingPipeline, cfg *config.Config) usecase.EventSink {
	if cfg.Recorder.Backend == usecase.BackendNone || cfg.Recorder.Backend == "" {
		return nil
	}
	return pipe
}

// ProvideNoSink is used where predictions are not recorded.
func ProvideNoSink() usecase.EventSink {
	return nil
}

func ProvideBeatPredictor(
	cfg *config.Config,
	yc *yahoo.Client,
	profiles repository.CompanyInfo,
	resolver *calendar.Resolver,
	handle *classifier.ModelHandle,
	sink usecase.EventSink,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.BeatPredictor {
	return usecase.NewBeatPredictor(profiles, yc, resolver, handle, sink, m, log, usecase.PredictorOptions{
		Benchmark:    cfg.Prediction.Benchmark,
		HistoryStart: cfg.HistoryStart(),
		BlackoutDays: cfg.Prediction.BlackoutDays,
		Threshold:    cfg.Prediction.Threshold,
		Location:     cfg.Location(),
	})
}

// ProvideKafkaConsumer creates a consumer when the recorder topic should be drained into ClickHouse.
func ProvideKafkaConsumer(cfg *config.Config, log *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(log,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaPredictionsHandler writes consumed prediction events to storage.
func ProvideKafkaPredictionsHandler(store repository.Storage, m repository.Metrics, cfg *config.Config) *usecase.KafkaPredictionsHandler {
	if store == nil {
		return nil
	}
	return usecase.NewKafkaPredictionsHandler(cfg.Kafka.Topic, store, m)
}

func ProvideHTTPHandler(
	cfg *config.Config,
	log *logger.Logger,
	predictor *usecase.BeatPredictor,
	store repository.Storage,
	handle *classifier.ModelHandle,
) *api.PredictEchoHandler {
	return api.NewPredictEchoHandler(log, predictor, store,
		ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		cfg.Prediction.DefaultTicker,
		handle.Version,
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	handler *api.PredictEchoHandler,
	pipe *mid.RecordingPipeline,
	rec *usecase.PredictionRecorder,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaPredictionsHandler,
	chClient *pkgch.Client,
	profileCache pcache.Service,
) *server.App {
	app := server.New(cfg, log, handler, pipe, rec)
	if consumer != nil && kh != nil {
		app.SetConsumer(consumer, kh)
	}
	if chClient != nil {
		app.OnClose("clickhouse", chClient.Close)
	}
	if profileCache != nil {
		app.OnClose("profile cache", profileCache.Close)
	}
	return app
}
