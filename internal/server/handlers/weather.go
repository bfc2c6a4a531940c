package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-brief/internal/aggregator"
	"github.com/vzahanych/weather-brief/internal/server/utils"
	"github.com/vzahanych/weather-brief/internal/service"
	"go.uber.org/zap"
)

type WeatherHandler struct {
	aggregator *aggregator.Aggregator
	logger     *zap.Logger
}

func NewWeatherHandler(agg *aggregator.Aggregator, logger *zap.Logger) *WeatherHandler {
	return &WeatherHandler{
		aggregator: agg,
		logger:     logger,
	}
}

// GetWeather serves GET /api/weather?city=... or ?lat=...&lon=... and the
// equivalent POST with a JSON body.
func (h *WeatherHandler) GetWeather(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	requestID := utils.GetRequestIDFromGinContext(c)

	// Create logger with request ID for this request
	reqLogger := h.logger.With(zap.String("request_id", requestID))

	if !h.aggregator.Configured() {
		reqLogger.Error("Weather API key is not configured")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: service.ErrNotConfigured.Error(),
			Code:  "NOT_CONFIGURED",
		})
		return
	}

	var req WeatherRequest
	var err error
	if c.Request.Method == http.MethodPost {
		if err = c.ShouldBindJSON(&req); err == nil {
			req.normalize()
		}
	} else {
		var query WeatherQuery
		if err = c.ShouldBindQuery(&query); err == nil {
			req, err = query.Request()
		}
	}
	if err != nil {
		reqLogger.Warn("Invalid request parameters", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request parameters",
			Code:    "INVALID_PARAMS",
			Details: err.Error(),
		})
		return
	}

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		reqLogger.Warn("Request validation failed", zap.Any("errors", errs))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request parameters",
			Code:    "INVALID_PARAMS",
			Details: errs,
		})
		return
	}

	loc := req.Location()
	reqLogger.Info("Processing weather request", zap.String("location", loc.String()))

	data, err := h.aggregator.GetWeatherData(ctx, loc)
	if err != nil {
		h.writeError(c, reqLogger, err)
		return
	}

	reqLogger.Info("Weather request completed successfully",
		zap.String("location", data.Location),
		zap.Int("forecast_days", len(data.Forecast)))

	c.JSON(http.StatusOK, data)
}

func (h *WeatherHandler) writeError(c *gin.Context, reqLogger *zap.Logger, err error) {
	var notFound *aggregator.NotFoundError

	switch {
	case errors.Is(err, service.ErrNoLocation):
		reqLogger.Warn("No location supplied")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: service.ErrNoLocation.Error(),
			Code:  "MISSING_LOCATION",
		})
	case errors.Is(err, service.ErrNotConfigured):
		reqLogger.Error("Weather API key is not configured")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: service.ErrNotConfigured.Error(),
			Code:  "NOT_CONFIGURED",
		})
	case errors.As(err, &notFound):
		reqLogger.Warn("Location lookup failed", zap.Error(err))
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "City not found or API error",
			Code:    "NOT_FOUND",
			Details: notFound.Details(),
		})
	default:
		reqLogger.Error("Failed to get weather data", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to fetch weather data",
			Code:    "INTERNAL_ERROR",
			Details: err.Error(),
		})
	}
}
