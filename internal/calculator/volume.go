package calculator

import (
	"sort"

	"MoexSentinel/internal/model"
)

const (
	volumeLookback = 20

	// DefaultVolumeSpikeThreshold is the multiple of the median volume that counts as a spike.
	DefaultVolumeSpikeThreshold = 1.8
)

// VolumeSpike reports whether the last bar's volume exceeds the median of the last 20 volumes
// times threshold. It is false with fewer than 20 bars or a non-positive median.
func VolumeSpike(series []model.Candle, threshold float64) bool {
	n := len(series)
	if n < volumeLookback {
		return false
	}
	vols := make([]float64, volumeLookback)
	for i := range vols {
		vols[i] = series[n-volumeLookback+i].Volume
	}
	med := median(vols)
	if !(med > 0) {
		return false
	}
	return series[n-1].Volume > med*threshold
}

func median(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
