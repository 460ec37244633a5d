package preview

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Risk band thresholds on the 0-10 score scale.
const (
	HighRiskThreshold   = 7.5
	MediumRiskThreshold = 4.0
)

// ParseScore converts an externally supplied score to a number. Numeric
// kinds, json.Number and numeric strings are accepted; an empty string is
// 0. Anything else, and NaN, reports ok=false with a score of 0.
func ParseScore(score any) (value float64, ok bool) {
	switch v := score.(type) {
	case nil:
		return 0, false
	case float64:
		value = v
	case float32:
		value = float64(v)
	case int:
		value = float64(v)
	case int8:
		value = float64(v)
	case int16:
		value = float64(v)
	case int32:
		value = float64(v)
	case int64:
		value = float64(v)
	case uint:
		value = float64(v)
	case uint8:
		value = float64(v)
	case uint16:
		value = float64(v)
	case uint32:
		value = float64(v)
	case uint64:
		value = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		value = f
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		value = f
	default:
		return 0, false
	}

	if math.IsNaN(value) {
		return 0, false
	}
	return value, true
}

// ScoreToPercent maps a 0-10 risk score to a 0-100 display percentage.
// Non-numeric or missing scores count as 0.
func ScoreToPercent(score any) float64 {
	v, _ := ParseScore(score)
	return clamp(v*10, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// RiskBand labels a 0-10 score as "High", "Medium" or "Low".
func RiskBand(score any) string {
	v, _ := ParseScore(score)
	switch {
	case v >= HighRiskThreshold:
		return "High"
	case v >= MediumRiskThreshold:
		return "Medium"
	default:
		return "Low"
	}
}
