package garden

import "fmt"

type MetricKind string

const (
	MetricMoisture MetricKind = "moisture"
	MetricBattery  MetricKind = "battery"
)

func ParseMetricKind(s string) (MetricKind, error) {
	switch k := MetricKind(s); k {
	case MetricMoisture, MetricBattery:
		return k, nil
	default:
		return "", fmt.Errorf("unknown metric kind %q, expected moisture or battery", s)
	}
}

type Tier string

const (
	TierLow      Tier = "low"
	TierMedium   Tier = "medium"
	TierGood     Tier = "good"
	TierCritical Tier = "critical"
	TierWarning  Tier = "warning"
	TierHealthy  Tier = "healthy"
	TierUnknown  Tier = "unknown"
)

type Classification struct {
	Tier  Tier   `json:"tier"`
	Label string `json:"label"`
}

type band struct {
	below float64
	class Classification
}

// scale lists bands in ascending order; a level at or above every band
// boundary falls into top.
type scale struct {
	bands []band
	top   Classification
}

var scales = map[MetricKind]scale{
	MetricMoisture: {
		bands: []band{
			{below: 30, class: Classification{Tier: TierLow, Label: "Low"}},
			{below: 40, class: Classification{Tier: TierMedium, Label: "Medium"}},
		},
		top: Classification{Tier: TierGood, Label: "Good"},
	},
	MetricBattery: {
		bands: []band{
			{below: 20, class: Classification{Tier: TierCritical, Label: "Critical"}},
			{below: 50, class: Classification{Tier: TierWarning, Label: "Warning"}},
		},
		top: Classification{Tier: TierHealthy, Label: "Healthy"},
	},
}

// Classify maps a reading onto its tier. Levels outside [0,100] are not
// clamped, they fall into the lowest or highest band like any other value.
func Classify(level float64, kind MetricKind) Classification {
	s, ok := scales[kind]
	if !ok {
		return Classification{Tier: TierUnknown, Label: "Unknown"}
	}
	for _, b := range s.bands {
		if level < b.below {
			return b.class
		}
	}
	return s.top
}

func ClassifyMoisture(level float64) Classification {
	return Classify(level, MetricMoisture)
}

func ClassifyBattery(level float64) Classification {
	return Classify(level, MetricBattery)
}
