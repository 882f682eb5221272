package model

import "github.com/smartcity/trafficast/internal/config"

// Traffic levels reported alongside a volume prediction.
const (
	TrafficLight    = "Light"
	TrafficModerate = "Moderate"
	TrafficHeavy    = "Heavy"
)

// ClassifyTraffic buckets a predicted volume into a traffic level using the
// configured thresholds. Bounds are inclusive on the lower bucket.
func ClassifyTraffic(volume float64, cfg config.Predict) string {
	switch {
	case volume <= cfg.LightMax:
		return TrafficLight
	case volume <= cfg.ModerateMax:
		return TrafficModerate
	default:
		return TrafficHeavy
	}
}
