package tools

import (
	"context"
	"fmt"
	"strings"
)

// weatherReports is a canned city table; a real forecast backend can swap
// in behind the same tool name.
var weatherReports = map[string]string{
	"newyork": "The weather in New York is sunny with a temperature of 25°C.",
	"london":  "It's cloudy in London with a temperature of 15°C.",
	"tokyo":   "Tokyo is experiencing light rain and a temperature of 18°C.",
}

// Weather reports current conditions for a city.
type Weather struct{}

// NewWeather builds the weather tool.
func NewWeather() *Weather {
	return &Weather{}
}

// Name implements Tool.
func (w *Weather) Name() string {
	return "get_weather"
}

// Description implements Tool.
func (w *Weather) Description() string {
	return "Retrieves the current weather report for a specified city."
}

// Call implements Tool. It expects a "city" argument.
func (w *Weather) Call(_ context.Context, args map[string]any) (string, error) {
	city, _ := args["city"].(string)
	if strings.TrimSpace(city) == "" {
		return "", fmt.Errorf("get_weather: city argument is required")
	}
	key := strings.ReplaceAll(strings.ToLower(city), " ", "")
	report, ok := weatherReports[key]
	if !ok {
		return "", fmt.Errorf("get_weather: the weather for %s is not available", city)
	}
	return report, nil
}
