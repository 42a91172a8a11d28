package models

// WeatherQuery selects a location by city name or by coordinates.
type WeatherQuery struct {
	City string
	Lat  *float64
	Lon  *float64
}

func (q WeatherQuery) HasCoordinates() bool {
	return q.Lat != nil && q.Lon != nil
}

// WeatherData is the condensed current-weather snapshot returned to clients.
type WeatherData struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Pressure    float64 `json:"pressure"`
	Description string  `json:"description"`
	WindSpeed   float64 `json:"wind_speed"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Rainfall    float64 `json:"rainfall"`
}

// OpenWeatherCurrentResponse mirrors the fields read from /data/2.5/weather.
type OpenWeatherCurrentResponse struct {
	Name string `json:"name"`
	Main *struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
		Pressure *float64 `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind *struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Sys *struct {
		Country string `json:"country"`
	} `json:"sys"`
	Rain *struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
}
