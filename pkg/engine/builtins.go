package engine

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/chazu/solidprobe/pkg/catalog"
	"github.com/chazu/solidprobe/pkg/geometry"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites solidprobe source into something zygomys reads:
//
//   - ; and ;; line comments become // comments.
//   - Keyword arguments such as :at, :name, :min and :max become the string
//     markers "__kw_at" and so on, which parseArgs splits off again. Leaving
//     them as symbols would need globals that shadow user definitions.
//   - Hyphenated builtin names such as cover-top become cover_top, since
//     zygomys reads a hyphen as subtraction. Minus signs and negative
//     literals are left alone.
//
// String literals pass through untouched, and := is preserved.
func preprocessSource(source string) string {
	var out strings.Builder
	out.Grow(len(source) + len(source)/4)
	b := []byte(source)
	for i := 0; i < len(b); {
		switch c := b[i]; {
		case c == '"' || c == '`':
			j := quotedEnd(b, i)
			out.Write(b[i:j])
			i = j
		case c == ';':
			out.WriteString("//")
			for i < len(b) && b[i] == ';' {
				i++
			}
			j := i
			for j < len(b) && b[j] != '\n' {
				j++
			}
			out.Write(b[i:j])
			i = j
		case c == ':' && i+1 < len(b) && b[i+1] == '=':
			out.WriteString(":=")
			i += 2
		case c == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			out.WriteString(`"` + kwPrefix + string(b[i+1:j]) + `"`)
			i = j
		case c == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			out.WriteByte('_')
			i++
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

// quotedEnd returns the index just past the string literal opening at
// b[i]. Backslash escapes apply inside double quotes only. An unterminated
// literal runs to the end of the source.
func quotedEnd(b []byte, i int) int {
	quote := b[i]
	for j := i + 1; j < len(b); j++ {
		switch {
		case quote == '"' && b[j] == '\\' && j+1 < len(b):
			j++
		case b[j] == quote:
			return j + 1
		}
	}
	return len(b)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec wraps a point or vector.
type sexpVec struct {
	kind string // "point" or "vector"
	vec  v3.Vec
}

func (v *sexpVec) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %g %g %g)", v.kind, v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec) Type() *zygo.RegisteredType { return nil }

// sexpSolid wraps an unplaced geometry solid, centred on its own origin.
type sexpSolid struct {
	solid geometry.Solid
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(solid %s %q)", s.solid.TypeName(), s.solid.Name())
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// sexpEntry wraps a catalog entry returned by `place`. Queries against an
// entry take world coordinates.
type sexpEntry struct {
	entry *catalog.Entry
}

func (e *sexpEntry) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(entry %q %s)", e.entry.Name, e.entry.ID.Short())
}
func (e *sexpEntry) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value, treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toVec extracts a point or vector. Either kind is accepted anywhere.
func toVec(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected point or vector, got %T (%s)", s, s.SexpString(nil))
}

// target is the subject of a query: a bare solid or a placed entry.
type target struct {
	solid geometry.Solid
	name  string
	at    v3.Vec
}

// local converts a query point into the solid's frame.
func (t target) local(p v3.Vec) v3.Vec { return p.Sub(t.at) }

// toTarget extracts a query subject.
func toTarget(s zygo.Sexp) (target, error) {
	switch v := s.(type) {
	case *sexpSolid:
		return target{solid: v.solid, name: v.solid.Name()}, nil
	case *sexpEntry:
		return target{solid: v.entry.Solid, name: v.entry.Name, at: v.entry.At}, nil
	}
	return target{}, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// floatKW reads a required numeric keyword argument.
func floatKW(pa kwArgs, builtin, key string) (float64, error) {
	v, ok := pa.kw[key]
	if !ok {
		return 0, fmt.Errorf("%s: missing :%s", builtin, key)
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %s: %w", builtin, key, err)
	}
	return f, nil
}

// optFloatKW reads an optional numeric keyword argument.
func optFloatKW(pa kwArgs, builtin, key string, def float64) (float64, error) {
	if _, ok := pa.kw[key]; !ok {
		return def, nil
	}
	return floatKW(pa, builtin, key)
}

// solidName reads :name, falling back to a generated name.
func solidName(pa kwArgs, builtin string) (string, error) {
	v, ok := pa.kw["name"]
	if !ok {
		return builtin + nextAnonSuffix(), nil
	}
	s, err := toString(v)
	if err != nil {
		return "", fmt.Errorf("%s: name: %w", builtin, err)
	}
	return s, nil
}

// tickList converts ticks into a Lisp list of floats.
func tickList(ts []geometry.Tick) zygo.Sexp {
	return zygo.MakeList(lo.Map(ts, func(t geometry.Tick, _ int) zygo.Sexp {
		return &zygo.SexpFloat{Val: t}
	}))
}

// ---------------------------------------------------------------------------
// Anonymous names
// ---------------------------------------------------------------------------

// anonCounter provides unique suffixes for unnamed solids.
var anonCounter uint64

func nextAnonSuffix() string {
	n := atomic.AddUint64(&anonCounter, 1)
	return fmt.Sprintf("_anon_%d", n)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// builtinFunc is the signature zygomys expects for Go builtins.
type builtinFunc = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs all solidprobe DSL builtins into a zygomys
// environment. Placed solids and query results are recorded in c.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, c *catalog.Catalog, log logrus.FieldLogger) {

	record := func(p catalog.Probe) {
		c.Record(p)
		log.WithFields(logrus.Fields{
			"probe": p.Kind.String(),
			"solid": p.Solid,
		}).Debug(p.String())
	}

	vecBuiltin := func(kind string) builtinFunc {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 3 {
				return zygo.SexpNull, fmt.Errorf("%s requires exactly 3 arguments, got %d", kind, len(args))
			}
			var xyz [3]float64
			for i, axis := range []string{"x", "y", "z"} {
				f, err := toFloat64(args[i])
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: %s: %w", kind, axis, err)
				}
				xyz[i] = f
			}
			return &sexpVec{kind: kind, vec: v3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
		}
	}

	// -----------------------------------------------------------------------
	// (point 1 2 3), (vector 0 0 1)
	// -----------------------------------------------------------------------
	env.AddFunction("point", vecBuiltin("point"))
	env.AddFunction("vector", vecBuiltin("vector"))

	// -----------------------------------------------------------------------
	// (box :name "b" :x 10 :y 20 :z 30)
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		n, err := solidName(pa, "box")
		if err != nil {
			return zygo.SexpNull, err
		}
		var h [3]float64
		for i, key := range []string{"x", "y", "z"} {
			if h[i], err = floatKW(pa, "box", key); err != nil {
				return zygo.SexpNull, err
			}
		}
		b, err := geometry.NewBox(n, h[0], h[1], h[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		return &sexpSolid{solid: b}, nil
	})

	// -----------------------------------------------------------------------
	// (trd :name "t" :z 10 :x1 5 :y1 5 :x2 8 :y2 8)
	// -----------------------------------------------------------------------
	env.AddFunction("trd", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		n, err := solidName(pa, "trd")
		if err != nil {
			return zygo.SexpNull, err
		}
		var p [5]float64
		for i, key := range []string{"z", "x1", "y1", "x2", "y2"} {
			if p[i], err = floatKW(pa, "trd", key); err != nil {
				return zygo.SexpNull, err
			}
		}
		t, err := geometry.NewTrd(n, p[0], p[1], p[2], p[3], p[4])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("trd: %w", err)
		}
		return &sexpSolid{solid: t}, nil
	})

	// -----------------------------------------------------------------------
	// (trap :name "t" :dz 10 :theta 0 :phi 0
	//       :dy1 5 :dx1 5 :dx2 5 :alpha1 0
	//       :dy2 5 :dx3 5 :dx4 5 :alpha2 0)
	//
	// Angles are radians and default to zero.
	// -----------------------------------------------------------------------
	env.AddFunction("trap", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		n, err := solidName(pa, "trap")
		if err != nil {
			return zygo.SexpNull, err
		}
		var tp geometry.TrapParams
		lengths := []struct {
			key string
			dst *float64
		}{
			{"dz", &tp.DZ}, {"dy1", &tp.DY1}, {"dx1", &tp.DX1}, {"dx2", &tp.DX2},
			{"dy2", &tp.DY2}, {"dx3", &tp.DX3}, {"dx4", &tp.DX4},
		}
		for _, l := range lengths {
			if *l.dst, err = floatKW(pa, "trap", l.key); err != nil {
				return zygo.SexpNull, err
			}
		}
		angles := []struct {
			key string
			dst *float64
		}{
			{"theta", &tp.Theta}, {"phi", &tp.Phi}, {"alpha1", &tp.Alpha1}, {"alpha2", &tp.Alpha2},
		}
		for _, a := range angles {
			if *a.dst, err = optFloatKW(pa, "trap", a.key, 0); err != nil {
				return zygo.SexpNull, err
			}
		}
		t, err := geometry.NewTrap(n, tp)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("trap: %w", err)
		}
		return &sexpSolid{solid: t}, nil
	})

	// -----------------------------------------------------------------------
	// (place (box ...) :at (vector 0 0 10) :name "lid")
	// -----------------------------------------------------------------------
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("place requires a solid as first argument")
		}
		s, ok := pa.positional[0].(*sexpSolid)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("place: expected solid, got %T (%s)",
				pa.positional[0], pa.positional[0].SexpString(nil))
		}

		var at v3.Vec
		if v, ok := pa.kw["at"]; ok {
			vec, err := toVec(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
			}
			at = vec
		}
		entryName := s.solid.Name()
		if v, ok := pa.kw["name"]; ok {
			str, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: name: %w", err)
			}
			entryName = str
		}

		e := c.Add(entryName, s.solid, at)
		log.WithFields(s.solid.Fields()).WithField("id", e.ID.Short()).Debug("placed solid")
		return &sexpEntry{entry: e}, nil
	})

	// -----------------------------------------------------------------------
	// (inside s (point 0 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("inside", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("inside requires a solid and a point, got %d arguments", len(args))
		}
		t, err := toTarget(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("inside: %w", err)
		}
		p, err := toVec(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("inside: point: %w", err)
		}
		in := t.solid.IsInside(t.local(p))
		record(catalog.Probe{Kind: catalog.ProbeInside, Solid: t.name, Point: p, Result: in})
		return &zygo.SexpBool{Val: in}, nil
	})

	// -----------------------------------------------------------------------
	// (ticks s (point ...) (vector ...) :min 0 :max 10)
	// -----------------------------------------------------------------------
	env.AddFunction("ticks", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 3 {
			return zygo.SexpNull, fmt.Errorf("ticks requires a solid, a point and a vector")
		}
		t, err := toTarget(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ticks: %w", err)
		}
		p, err := toVec(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ticks: point: %w", err)
		}
		v, err := toVec(pa.positional[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ticks: vector: %w", err)
		}

		_, hasMin := pa.kw["min"]
		_, hasMax := pa.kw["max"]
		probe := catalog.Probe{Kind: catalog.ProbeTicks, Solid: t.name, Point: p, Vector: &v}
		var ts geometry.Ticks
		if hasMin || hasMax {
			tMin, err := optFloatKW(pa, "ticks", "min", math.Inf(-1))
			if err != nil {
				return zygo.SexpNull, err
			}
			tMax, err := optFloatKW(pa, "ticks", "max", math.Inf(1))
			if err != nil {
				return zygo.SexpNull, err
			}
			t.solid.IntersectionTicksRange(t.local(p), v, tMin, tMax, &ts)
			probe.Kind = catalog.ProbeTicksRange
			if hasMin {
				probe.TickMin = &tMin
			}
			if hasMax {
				probe.TickMax = &tMax
			}
		} else {
			t.solid.IntersectionTicks(t.local(p), v, &ts)
		}
		probe.Ticks = ts.Slice()
		probe.Result = ts.Len() > 0
		record(probe)
		return tickList(probe.Ticks), nil
	})

	// -----------------------------------------------------------------------
	// (intersects s (point ...) (vector ...))
	// -----------------------------------------------------------------------
	env.AddFunction("intersects", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("intersects requires a solid, a point and a vector, got %d arguments", len(args))
		}
		t, err := toTarget(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("intersects: %w", err)
		}
		p, err := toVec(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("intersects: point: %w", err)
		}
		v, err := toVec(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("intersects: vector: %w", err)
		}
		hit := t.solid.TestForIntersection(t.local(p), v)
		record(catalog.Probe{Kind: catalog.ProbeIntersects, Solid: t.name, Point: p, Vector: &v, Result: hit})
		return &zygo.SexpBool{Val: hit}, nil
	})

	// -----------------------------------------------------------------------
	// (cover s), (cover-top s)
	// -----------------------------------------------------------------------
	coverBuiltin := func(label string, next func(geometry.Solid) geometry.Solid) builtinFunc {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires exactly 1 argument, got %d", label, len(args))
			}
			t, err := toTarget(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", label, err)
			}
			return &sexpSolid{solid: next(t.solid)}, nil
		}
	}
	env.AddFunction("cover", coverBuiltin("cover", geometry.Solid.Cover))
	env.AddFunction("cover_top", coverBuiltin("cover-top", geometry.CoverTop))

	// -----------------------------------------------------------------------
	// (rmax s), (rhomax s)
	// -----------------------------------------------------------------------
	radiusBuiltin := func(label string, r func(geometry.Solid) float64) builtinFunc {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires exactly 1 argument, got %d", label, len(args))
			}
			t, err := toTarget(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", label, err)
			}
			return &zygo.SexpFloat{Val: r(t.solid)}, nil
		}
	}
	env.AddFunction("rmax", radiusBuiltin("rmax", geometry.Solid.RMax))
	env.AddFunction("rhomax", radiusBuiltin("rhomax", geometry.Solid.RhoMax))

	// -----------------------------------------------------------------------
	// (locate (point ...)) -> list of entry names containing the point
	// -----------------------------------------------------------------------
	env.AddFunction("locate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("locate requires exactly 1 argument, got %d", len(args))
		}
		p, err := toVec(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("locate: point: %w", err)
		}
		names := lo.Map(c.Locate(p), func(e *catalog.Entry, _ int) zygo.Sexp {
			return &zygo.SexpStr{S: e.Name}
		})
		return zygo.MakeList(names), nil
	})

	// -----------------------------------------------------------------------
	// (crossings (point ...) (vector ...) :min 0 :max 100)
	//   -> list of (name entry exit ...) per crossed entry
	// -----------------------------------------------------------------------
	env.AddFunction("crossings", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("crossings requires a point and a vector")
		}
		p, err := toVec(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("crossings: point: %w", err)
		}
		v, err := toVec(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("crossings: vector: %w", err)
		}
		tMin, err := optFloatKW(pa, "crossings", "min", math.Inf(-1))
		if err != nil {
			return zygo.SexpNull, err
		}
		tMax, err := optFloatKW(pa, "crossings", "max", math.Inf(1))
		if err != nil {
			return zygo.SexpNull, err
		}
		rows := lo.Map(c.Crossings(p, v, tMin, tMax), func(cr catalog.Crossing, _ int) zygo.Sexp {
			items := []zygo.Sexp{&zygo.SexpStr{S: cr.Name}}
			for _, t := range cr.Ticks {
				items = append(items, &zygo.SexpFloat{Val: t})
			}
			return zygo.MakeList(items)
		})
		return zygo.MakeList(rows), nil
	})
}
