package util

import "github.com/asecurityteam/rolling"

// CreateRollingWindow creates a point based rolling window holding the last "size" values
func CreateRollingWindow(size int) *rolling.PointPolicy {
	return rolling.NewPointPolicy(rolling.NewWindow(size))
}

// GetWindowMax returns the max value in the window
func GetWindowMax(window *rolling.PointPolicy) float64 {
	return window.Reduce(rolling.Max)
}

// GetWindowSum returns the sum of all values in the window
func GetWindowSum(window *rolling.PointPolicy) float64 {
	return window.Reduce(rolling.Sum)
}
