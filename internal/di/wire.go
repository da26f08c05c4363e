//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"EarnPulse/internal/usecase"
	"EarnPulse/pkg/config"
	"EarnPulse/pkg/logger"
	"EarnPulse/pkg/server"
)

var sourceSet = wire.NewSet(
	ProvideYahooClient,
	ProvideProfileCache,
	ProvideCompanyInfo,
	ProvideEarningsHistory,
	ProvideResolver,
	ProvideModelHandle,
)

// InitializeApp wires up all dependencies and returns the application.
func InitializeApp(cfg *config.Config, log *logger.Logger) (*server.App, error) {
	wire.Build(
		ProvideMetrics,
		sourceSet,

		// Recording
		ProvideClickHouseClient,
		ProvideStorage,
		ProvideKafkaProducer,
		ProvidePublisher,
		ProvidePredictionRecorder,
		ProvideRecordingPipeline,
		ProvideEventSink,

		// Consumer
		ProvideKafkaConsumer,
		ProvideKafkaPredictionsHandler,

		ProvideBeatPredictor,
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializePredictor wires a predictor that records nothing, for one-shot use.
func InitializePredictor(cfg *config.Config, log *logger.Logger) (*usecase.BeatPredictor, error) {
	wire.Build(
		ProvideNopMetrics,
		sourceSet,
		ProvideNoSink,
		ProvideBeatPredictor,
	)
	return &usecase.BeatPredictor{}, nil
}
