package indicator

import "math"

// VolumeProfile summarises a whole volume window.
type VolumeProfile struct {
	Average float64 `json:"average_volume"`
	StdDev  float64 `json:"volume_std"`
	Current float64 `json:"current_volume"`
	Ready   bool    `json:"ready"`
}

// NewVolumeProfile computes mean, sample standard deviation and the latest
// value of volumes. StdDev needs two values; Ready is false when empty.
func NewVolumeProfile(volumes []float64) VolumeProfile {
	n := len(volumes)
	if n == 0 {
		return VolumeProfile{}
	}

	sum := 0.0
	for _, v := range volumes {
		sum += v
	}
	mean := sum / float64(n)

	std := 0.0
	if n > 1 {
		ss := 0.0
		for _, v := range volumes {
			d := v - mean
			ss += d * d
		}
		std = math.Sqrt(ss / float64(n-1))
	}

	return VolumeProfile{
		Average: mean,
		StdDev:  std,
		Current: volumes[n-1],
		Ready:   true,
	}
}
