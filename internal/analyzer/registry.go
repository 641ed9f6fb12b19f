package analyzer

import "fmt"

// NewEstimator creates an estimator based on the specified variant
func NewEstimator(variant string) (Estimator, error) {
	switch variant {
	case "median", "raycast", "":
		return NewRaycastEstimator(), nil
	case "bounds":
		return NewBoundsEstimator(), nil
	default:
		return nil, fmt.Errorf("unknown estimator variant: %s", variant)
	}
}
