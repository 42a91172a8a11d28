package handlers

import (
	"errors"
	"net/http"

	"fertilizer-service/internal/models"
	"fertilizer-service/internal/services"
	"fertilizer-service/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WeatherHandler struct {
	weatherService services.IWeatherService
	logger         *zap.Logger
}

func NewWeatherHandler(weatherService services.IWeatherService, logger *zap.Logger) *WeatherHandler {
	return &WeatherHandler{
		weatherService: weatherService,
		logger:         logger,
	}
}

func (h *WeatherHandler) RegisterRoutes(router *gin.Engine) {
	router.Group("/api").GET("/weather", h.GetWeather)
}

func (h *WeatherHandler) GetWeather(c *gin.Context) {
	query := models.WeatherQuery{City: c.Query("city")}

	lat, hasLat, err := utils.GetQueryParamAsFloat(c, "lat")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	lon, hasLon, err := utils.GetQueryParamAsFloat(c, "lon")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if hasLat {
		query.Lat = &lat
	}
	if hasLon {
		query.Lon = &lon
	}

	weather, err := h.weatherService.FetchCurrentWeather(c.Request.Context(), query)
	switch {
	case errors.Is(err, services.ErrLocationRequired):
		utils.RespondError(c, http.StatusBadRequest, "LOCATION_REQUIRED", "City name or coordinates required")
		return
	case errors.Is(err, services.ErrAPIKeyMissing):
		utils.RespondError(c, http.StatusInternalServerError, "WEATHER_NOT_CONFIGURED", "Weather API key not configured")
		return
	case err != nil:
		h.logger.Warn("weather lookup failed", zap.String("op", "WeatherHandler.GetWeather"), zap.Error(err))
		utils.RespondError(c, http.StatusBadGateway, "WEATHER_UNAVAILABLE", "Failed to fetch weather data")
		return
	}

	utils.RespondOK(c, weather)
}
