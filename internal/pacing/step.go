package pacing

// StepFunc returns the quantization step size at the given value
type StepFunc func(value float64) float64

// RateStep moves the rate in whole pulses per minute
func RateStep(float64) float64 {
	return 1
}

// OutputStep is shared by the atrial and ventricular output current
func OutputStep(value float64) float64 {
	switch {
	case value < 0.4:
		return 0.1
	case value < 1.0:
		return 0.2
	case value < 5.0:
		return 0.5
	default:
		return 1.0
	}
}

// ASensitivityStep gets finer again above 9 mV for fine control near the ceiling.
func ASensitivityStep(value float64) float64 {
	switch {
	case value <= 1:
		return 0.1
	case value <= 2:
		return 0.2
	case value <= 5:
		return 0.5
	case value <= 9:
		return 1.0
	default:
		return 0.5
	}
}

// VSensitivityStep gets finer again above 18 mV for fine control near the ceiling.
func VSensitivityStep(value float64) float64 {
	switch {
	case value <= 1:
		return 0.2
	case value <= 3:
		return 0.5
	case value <= 10:
		return 1.0
	case value <= 18:
		return 2.0
	default:
		return 0.5
	}
}
