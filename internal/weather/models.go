package weather

import (
	"time"
)

// City is a resolved geocoding result. Coordinates are always within valid
// geographic ranges once a City has been produced by a Geocoder.
type City struct {
	Name        string  `json:"name"`
	CountryCode string  `json:"country_code"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Snapshot is the current-weather payload served to clients and stored in the
// cache. Immutable once created; FetchedAt records when it was obtained from
// upstream. Cached is response metadata: it is persisted as false and flipped
// by the service when the snapshot is served from the cache.
type Snapshot struct {
	City             string    `json:"city"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	Time             time.Time `json:"time"`
	TemperatureC     float64   `json:"temperature_c"`
	WindspeedKmh     float64   `json:"windspeed_kmh"`
	WinddirectionDeg int       `json:"winddirection_deg"`
	IsDay            bool      `json:"is_day"`
	WeatherCode      int       `json:"weather_code"`
	Description      string    `json:"weather_description"`
	FetchedAt        time.Time `json:"fetched_at"`
	Cached           bool      `json:"cached"`
}

// weatherCodeDescriptions maps WMO weather interpretation codes to
// human-readable descriptions.
var weatherCodeDescriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snowfall",
	73: "Moderate snowfall",
	75: "Heavy snowfall",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm (no hail)",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// DescribeWeatherCode returns the description for a WMO weather code, or
// "Unknown" for codes outside the table.
func DescribeWeatherCode(code int) string {
	if desc, ok := weatherCodeDescriptions[code]; ok {
		return desc
	}
	return "Unknown"
}
