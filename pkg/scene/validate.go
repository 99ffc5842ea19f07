package scene

import (
	"fmt"

	"github.com/chazu/sculpt/pkg/transform"
)

// ValidationSeverity indicates whether a finding blocks applying the scene
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks Apply
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Field    string             // grid, plane, elevate, point, scale, resolution or handle-size
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Field, e.Message)
}

// Resolution above which a warning is issued.
const maxComfortableResolution = 256

// Control points per axis above which a warning is issued.
const maxComfortableOrder = 16

// Validate checks s and returns every finding. This function is read-only
// and never mutates the scene.
func Validate(s *Scene) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateGrid(s)...)
	errs = append(errs, validatePoints(s)...)
	errs = append(errs, validateTransform(s)...)
	errs = append(errs, validateDisplay(s)...)
	return errs
}

// HasErrors reports whether any finding is an error.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

func errorf(field, format string, args ...any) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

func warnf(field, format string, args ...any) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning}
}

func validateGrid(s *Scene) []ValidationError {
	var errs []ValidationError
	if s.NX < 2 || s.NY < 2 {
		errs = append(errs, errorf("grid", "%dx%d grid needs at least 2 control points per axis", s.NX, s.NY))
	}
	if s.ElevateU < 0 || s.ElevateV < 0 {
		errs = append(errs, errorf("elevate", "negative elevation (%d, %d)", s.ElevateU, s.ElevateV))
	}
	if nx, ny := s.Dimensions(); nx > maxComfortableOrder || ny > maxComfortableOrder {
		errs = append(errs, warnf("grid", "%dx%d control points make a high-degree patch that is slow to evaluate", nx, ny))
	}

	if s.Plane != nil {
		a1 := s.Plane.Point1.Sub(s.Plane.Origin)
		a2 := s.Plane.Point2.Sub(s.Plane.Origin)
		if a1.Cross(a2).Length() == 0 {
			errs = append(errs, errorf("plane", "axes are parallel or zero"))
		}
		return errs
	}
	b := s.Bounds
	if !(b.XMax > b.XMin) || !(b.YMax > b.YMin) {
		errs = append(errs, warnf("grid", "bounds [%g, %g]×[%g, %g] have no area", b.XMin, b.XMax, b.YMin, b.YMax))
	}
	return errs
}

func validatePoints(s *Scene) []ValidationError {
	var errs []ValidationError
	nx, ny := s.Dimensions()
	seen := make(map[[2]int]bool)
	for _, e := range s.Points {
		if e.I < 0 || e.I >= nx || e.J < 0 || e.J >= ny {
			errs = append(errs, errorf("point", "(%d, %d) is outside the %dx%d grid", e.I, e.J, nx, ny))
			continue
		}
		key := [2]int{e.I, e.J}
		if seen[key] {
			errs = append(errs, warnf("point", "(%d, %d) is set more than once; the last value wins", e.I, e.J))
		}
		seen[key] = true
	}
	return errs
}

func validateTransform(s *Scene) []ValidationError {
	var errs []ValidationError
	if !transform.ValidScale(s.Scale) {
		errs = append(errs, errorf("scale", "(%g, %g, %g) is not invertible", s.Scale.X, s.Scale.Y, s.Scale.Z))
	}
	return errs
}

func validateDisplay(s *Scene) []ValidationError {
	var errs []ValidationError
	switch {
	case s.ResolutionU < 2 || s.ResolutionV < 2:
		errs = append(errs, errorf("resolution", "%dx%d needs at least 2 samples per axis", s.ResolutionU, s.ResolutionV))
	case s.ResolutionU > maxComfortableResolution || s.ResolutionV > maxComfortableResolution:
		errs = append(errs, warnf("resolution", "%dx%d samples is expensive to tessellate", s.ResolutionU, s.ResolutionV))
	}
	if !(s.HandleSize > 0) {
		errs = append(errs, errorf("handle-size", "%g must be positive", s.HandleSize))
	}
	return errs
}
