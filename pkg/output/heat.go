package output

// Heat buckets a function by its share of sampled time.
type Heat string

const (
	HeatHot  Heat = "hot"
	HeatWarm Heat = "warm"
	HeatCool Heat = "cool"
)

// Classify returns hot from 20% of the time up, warm from 5%.
func Classify(percent float64) Heat {
	if percent >= 20 {
		return HeatHot
	}
	if percent >= 5 {
		return HeatWarm
	}
	return HeatCool
}
