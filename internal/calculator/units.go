package calculator

const (
	poundsPerKilogram  = 2.2046226218
	centimetersPerInch = 2.54
	inchesPerFoot      = 12
)

// KgToLb converts kilograms to pounds.
func KgToLb(kg float64) float64 { return kg * poundsPerKilogram }

// LbToKg converts pounds to kilograms.
func LbToKg(lb float64) float64 { return lb / poundsPerKilogram }

// CmToIn converts centimeters to inches.
func CmToIn(cm float64) float64 { return cm / centimetersPerInch }

// InToCm converts inches to centimeters.
func InToCm(in float64) float64 { return in * centimetersPerInch }

// FeetInchesToCm converts a height given as feet plus inches to centimeters.
func FeetInchesToCm(feet, inches float64) float64 {
	return InToCm(feet*inchesPerFoot + inches)
}

// CmToFeetInches splits a height in centimeters into whole feet and remaining inches.
func CmToFeetInches(cm float64) (feet int, inches float64) {
	total := CmToIn(cm)
	feet = int(total / inchesPerFoot)
	inches = total - float64(feet*inchesPerFoot)
	return feet, inches
}

// UnitSystem selects how weight and height are expressed in a request.
type UnitSystem string

const (
	Metric   UnitSystem = "metric"   // kg, cm
	Imperial UnitSystem = "imperial" // lb, in
)

// ToMetric normalizes a weight/height pair to kilograms and centimeters.
func ToMetric(system UnitSystem, weight, height float64) (weightKg, heightCm float64, err error) {
	switch system {
	case "", Metric:
		return weight, height, nil
	case Imperial:
		return LbToKg(weight), InToCm(height), nil
	default:
		return 0, 0, invalid("units", "must be metric or imperial")
	}
}
