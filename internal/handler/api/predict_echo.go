package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	models "EarnPulse/internal/domain/models"
	domrepo "EarnPulse/internal/domain/repository"
	"EarnPulse/internal/service/metrics"
	"EarnPulse/internal/service/ratelimit"
	xhttp "EarnPulse/pkg/http"
	xlogger "EarnPulse/pkg/logger"
)

// Predictor serves one prediction payload per ticker.
type Predictor interface {
	GetPrediction(ctx context.Context, ticker string) (*models.ResponsePayload, error)
}

// PredictEchoHandler exposes the prediction flow over HTTP.
type PredictEchoHandler struct {
	logger        *xlogger.Logger
	predictor     Predictor
	storage       domrepo.Storage
	limiter       *ratelimit.Limiter
	defaultTicker string
	modelVersion  func() string
}

func NewPredictEchoHandler(
	logger *xlogger.Logger,
	predictor Predictor,
	storage domrepo.Storage,
	limiter *ratelimit.Limiter,
	defaultTicker string,
	modelVersion func() string,
) *PredictEchoHandler {
	metrics.Register()
	if modelVersion == nil {
		modelVersion = func() string { return "" }
	}
	return &PredictEchoHandler{
		logger:        logger,
		predictor:     predictor,
		storage:       storage,
		limiter:       limiter,
		defaultTicker: defaultTicker,
		modelVersion:  modelVersion,
	}
}

func (h *PredictEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Health)
	e.GET("/predict", h.Predict)

	g := e.Group("/api")
	g.GET("/predict", h.Predict)
	g.GET("/predictions", h.History)
}

func (h *PredictEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"service":       "earnpulse",
		"model_version": h.modelVersion(),
		"time":          time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *PredictEchoHandler) Predict(c echo.Context) error {
	if !h.allow(c) {
		return h.fail(c, "predict", rateLimitedError())
	}

	req := &models.PredictRequest{}
	if c.QueryParam("ticker") == "" && h.defaultTicker != "" {
		req.Ticker = h.defaultTicker
	}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	payload, err := h.predictor.GetPrediction(c.Request().Context(), req.Ticker)
	if err != nil {
		h.logger.Error("predict usecase error", xlogger.String("ticker", req.Ticker), xlogger.Error(err))
		return h.fail(c, "predict", mapError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, payload)
}

func (h *PredictEchoHandler) History(c echo.Context) error {
	if h.storage == nil {
		return h.fail(c, "predictions", xhttp.NotFoundError("prediction history is not enabled"))
	}
	if !h.allow(c) {
		return h.fail(c, "predictions", rateLimitedError())
	}

	req := &models.PredictionHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.storage.Query(c.Request().Context(), strings.ToUpper(req.Ticker), req.Limit)
	if err != nil {
		h.logger.Error("prediction history query error", xlogger.String("ticker", req.Ticker), xlogger.Error(err))
		return h.fail(c, "predictions", xhttp.InternalError("could not load prediction history").WithError(err))
	}
	if rows == nil {
		rows = []*models.PredictionEvent{}
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *PredictEchoHandler) allow(c echo.Context) bool {
	if h.limiter == nil || h.limiter.Allow(c.RealIP()) {
		return true
	}
	metrics.RateLimited.Inc()
	return false
}

func (h *PredictEchoHandler) fail(c echo.Context, endpoint string, err *xhttp.AppError) error {
	metrics.EndpointErrors.WithLabelValues(endpoint, err.Code).Inc()
	return xhttp.AppErrorResponse(c, err)
}

func rateLimitedError() *xhttp.AppError {
	return xhttp.NewAppError("ERR_RATE_LIMITED", "", "too many requests", http.StatusTooManyRequests)
}

// mapError turns usecase failures into client-facing errors.
func mapError(err error) *xhttp.AppError {
	var pe *models.ProviderError
	switch {
	case errors.Is(err, models.ErrInvalidTicker):
		appErr := xhttp.BadRequestError("ticker is required")
		appErr.Field = "ticker"
		return appErr
	case errors.Is(err, models.ErrDataUnavailable):
		appErr := xhttp.NewAppError("ERR_DATA_UNAVAILABLE", "", "upstream market data is unavailable", http.StatusBadGateway).WithError(err)
		if errors.As(err, &pe) {
			appErr.WithParam("provider", pe.Provider)
		}
		return appErr
	case errors.Is(err, models.ErrModelLoad):
		return xhttp.NewAppError("ERR_MODEL_UNAVAILABLE", "", "prediction model is not loaded", http.StatusServiceUnavailable).WithError(err)
	default:
		return xhttp.InternalError("prediction failed").WithError(err)
	}
}
