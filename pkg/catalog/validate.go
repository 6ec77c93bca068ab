package catalog

import (
	"fmt"

	"github.com/chazu/solidprobe/pkg/geometry"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
)

// ValidationSeverity indicates whether a validation finding makes the
// catalog unusable or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // queries may misbehave
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
	EntryID  EntryID            // which entry has the problem (zero if catalog-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.EntryID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] entry %s: %s", e.Severity, e.EntryID.Short(), e.Message)
}

// ValidationResult bundles errors and warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether the result holds no errors.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// coverSamples is the number of grid points per axis used when checking
// that a cover contains its solid.
const coverSamples = 9

// maxCoverDepth bounds cover chain walks.
const maxCoverDepth = 64

// Validate checks every entry and returns the findings. It never mutates
// the catalog.
func (c *Catalog) Validate() ValidationResult {
	entries := c.Entries()

	var all []ValidationError
	for _, e := range entries {
		all = append(all, validateCapacity(e)...)
		chainErrs := validateCoverChain(e)
		all = append(all, chainErrs...)
		if len(chainErrs) == 0 {
			all = append(all, validateCoverSuperset(e)...)
		}
		all = append(all, validateExtent(e)...)
	}
	all = append(all, validateNames(entries)...)

	var result ValidationResult
	for _, f := range all {
		if f.Severity == SeverityError {
			result.Errors = append(result.Errors, f)
		} else {
			result.Warnings = append(result.Warnings, f)
		}
	}
	return result
}

func validateCapacity(e *Entry) []ValidationError {
	if err := geometry.CheckTickContainerCapacity(e.Solid); err != nil {
		return []ValidationError{{EntryID: e.ID, Message: err.Error(), Severity: SeverityError}}
	}
	return nil
}

// validateCoverChain walks the cover links and reports a chain that never
// reaches a self-covering solid.
func validateCoverChain(e *Entry) []ValidationError {
	seen := map[geometry.Solid]bool{}
	s := e.Solid
	for depth := 0; depth < maxCoverDepth; depth++ {
		seen[s] = true
		next := s.Cover()
		if next == nil {
			return []ValidationError{{
				EntryID:  e.ID,
				Message:  fmt.Sprintf("%s %q has no cover", s.TypeName(), s.Name()),
				Severity: SeverityError,
			}}
		}
		if next == s {
			return nil
		}
		if seen[next] {
			return []ValidationError{{
				EntryID:  e.ID,
				Message:  fmt.Sprintf("cover chain of %q is cyclic at %s %q", e.Name, next.TypeName(), next.Name()),
				Severity: SeverityError,
			}}
		}
		s = next
	}
	return []ValidationError{{
		EntryID:  e.ID,
		Message:  fmt.Sprintf("cover chain of %q is longer than %d", e.Name, maxCoverDepth),
		Severity: SeverityError,
	}}
}

// validateCoverSuperset samples a grid over the solid's bounding box and
// reports a point inside the solid but outside its cover.
func validateCoverSuperset(e *Entry) []ValidationError {
	s := e.Solid
	cover := s.Cover()
	if cover == s {
		return nil
	}
	bb := s.BBox()
	size := bb.Max.Sub(bb.Min)
	for i := 0; i < coverSamples; i++ {
		for j := 0; j < coverSamples; j++ {
			for k := 0; k < coverSamples; k++ {
				p := v3.Vec{
					X: bb.Min.X + size.X*(float64(i)+0.5)/coverSamples,
					Y: bb.Min.Y + size.Y*(float64(j)+0.5)/coverSamples,
					Z: bb.Min.Z + size.Z*(float64(k)+0.5)/coverSamples,
				}
				if s.IsInside(p) && !cover.IsInside(p) {
					return []ValidationError{{
						EntryID:  e.ID,
						Message:  fmt.Sprintf("cover %q does not contain point %v of %q", cover.Name(), p, e.Name),
						Severity: SeverityError,
					}}
				}
			}
		}
	}
	return nil
}

func validateExtent(e *Entry) []ValidationError {
	bb := e.Solid.BBox()
	size := bb.Max.Sub(bb.Min)
	if size.X > 0 && size.Y > 0 && size.Z > 0 {
		return nil
	}
	return []ValidationError{{
		EntryID:  e.ID,
		Message:  fmt.Sprintf("%s %q encloses no volume", e.Solid.TypeName(), e.Name),
		Severity: SeverityWarning,
	}}
}

func validateNames(entries []*Entry) []ValidationError {
	names := lo.Map(entries, func(e *Entry, _ int) string { return e.Name })
	return lo.Map(lo.FindDuplicates(names), func(name string, _ int) ValidationError {
		return ValidationError{
			Message:  fmt.Sprintf("duplicate entry name %q", name),
			Severity: SeverityWarning,
		}
	})
}
