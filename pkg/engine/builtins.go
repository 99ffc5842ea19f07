package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/sculpt/pkg/grid"
	"github.com/chazu/sculpt/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms scene script source before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: handle-size -> handle_size
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
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

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a point so it can be passed between builtins.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

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
				// Keyword at end with no value: treat as flag with nil.
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

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toInt extracts an integer from a SexpInt.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toAxis converts a keyword or string to a component index: x=0, y=1, z=2.
func toAxis(s zygo.Sexp) (int, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, fmt.Errorf("expected axis keyword (:x, :y, :z): %w", err)
	}
	switch name {
	case "x":
		return 0, nil
	case "y":
		return 1, nil
	case "z":
		return 2, nil
	}
	return 0, fmt.Errorf("invalid axis %q, expected x, y, or z", name)
}

// toVec3 extracts a point from a sexpVec3 or a three-number array.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	if _, ok := s.(*zygo.SexpArray); ok {
		items, err := sexpListToSlice(s)
		if err != nil {
			return v3.Vec{}, err
		}
		return numbersToVec3(items)
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func numbersToVec3(args []zygo.Sexp) (v3.Vec, error) {
	if len(args) != 3 {
		return v3.Vec{}, fmt.Errorf("expected 3 numbers, got %d", len(args))
	}
	var c [3]float64
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return v3.Vec{}, err
		}
		c[i] = f
	}
	return v3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}

// vecArg reads a point given either as one vec3 or as three numbers.
func vecArg(args []zygo.Sexp) (v3.Vec, error) {
	if len(args) == 1 {
		return toVec3(args[0])
	}
	return numbersToVec3(args)
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

func setComponent(v *v3.Vec, axis int, f float64) {
	switch axis {
	case 0:
		v.X = f
	case 1:
		v.Y = f
	case 2:
		v.Z = f
	}
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the scene script builtins into a zygomys
// environment. The builtins operate on the provided Scene, filling it in
// during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, sc *scene.Scene) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		v, err := numbersToVec3(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %w", err)
		}
		return &sexpVec3{vec: v}, nil
	})

	// -----------------------------------------------------------------------
	// (name "saddle")
	// -----------------------------------------------------------------------
	env.AddFunction("name", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("name requires exactly 1 argument")
		}
		s, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("name: %w", err)
		}
		sc.Name = s
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (grid 4 4) or (grid :nx 4 :ny 4)
	// -----------------------------------------------------------------------
	env.AddFunction("grid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		nx, ny, err := intPair("grid", "nx", "ny", args, sc.NX, sc.NY)
		if err != nil {
			return zygo.SexpNull, err
		}
		sc.NX, sc.NY = nx, ny
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (bounds -1 1 -1 1) or (bounds :xmin -1 :xmax 1 :ymin -1 :ymax 1)
	// -----------------------------------------------------------------------
	env.AddFunction("bounds", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		b := sc.Bounds
		fields := []struct {
			key string
			dst *float64
		}{
			{"xmin", &b.XMin}, {"xmax", &b.XMax}, {"ymin", &b.YMin}, {"ymax", &b.YMax},
		}
		if len(pa.positional) != 0 && len(pa.positional) != len(fields) {
			return zygo.SexpNull, fmt.Errorf("bounds requires 4 numbers, got %d", len(pa.positional))
		}
		for i, f := range fields {
			v, ok := pa.kw[f.key]
			if !ok && len(pa.positional) == len(fields) {
				v, ok = pa.positional[i], true
			}
			if !ok {
				continue
			}
			x, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("bounds: %s: %w", f.key, err)
			}
			*f.dst = x
		}
		sc.Bounds = b
		sc.Plane = nil
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (plane :origin (vec3 ...) :point1 (vec3 ...) :point2 (vec3 ...))
	// -----------------------------------------------------------------------
	env.AddFunction("plane", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		p := grid.DefaultPlane
		fields := []struct {
			key string
			dst *v3.Vec
		}{
			{"origin", &p.Origin}, {"point1", &p.Point1}, {"point2", &p.Point2},
		}
		for _, f := range fields {
			v, ok := pa.kw[f.key]
			if !ok {
				continue
			}
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("plane: %s: %w", f.key, err)
			}
			*f.dst = vec
		}
		sc.Plane = &p
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (elevate 1 0) or (elevate :u 1 :v 0)
	// -----------------------------------------------------------------------
	env.AddFunction("elevate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		du, dv, err := intPair("elevate", "u", "v", args, 0, 0)
		if err != nil {
			return zygo.SexpNull, err
		}
		sc.ElevateU += du
		sc.ElevateV += dv
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (point 1 2 (vec3 0 0 1)) or (point 1 2 0 0 1)
	// -----------------------------------------------------------------------
	env.AddFunction("point", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 && len(args) != 5 {
			return zygo.SexpNull, fmt.Errorf("point requires i, j and a position")
		}
		i, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("point: i: %w", err)
		}
		j, err := toInt(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("point: j: %w", err)
		}
		p, err := vecArg(args[2:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("point: %w", err)
		}
		sc.Points = append(sc.Points, scene.PointEdit{I: i, J: j, Point: p})
		return &sexpVec3{vec: p}, nil
	})

	// -----------------------------------------------------------------------
	// (translate 1 0 0) or (translate (vec3 1 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := vecArg(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %w", err)
		}
		sc.Translation = v
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (rotate 0 0 45), (rotate (vec3 0 0 45)) or (rotate :z 45), in degrees
	// -----------------------------------------------------------------------
	env.AddFunction("rotate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) == 2 {
			axis, err := toAxis(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
			}
			deg, err := toFloat64(args[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
			}
			setComponent(&sc.Rotation, axis, deg)
			return zygo.SexpNull, nil
		}
		v, err := vecArg(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
		}
		sc.Rotation = v
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (scale 2), (scale 1 1 2) or (scale (vec3 1 1 2))
	// -----------------------------------------------------------------------
	env.AddFunction("scale", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) == 1 {
			if f, err := toFloat64(args[0]); err == nil {
				sc.Scale = v3.Vec{X: f, Y: f, Z: f}
				return zygo.SexpNull, nil
			}
		}
		v, err := vecArg(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scale: %w", err)
		}
		sc.Scale = v
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (resolution 30) or (resolution 30 40)
	// -----------------------------------------------------------------------
	env.AddFunction("resolution", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) == 1 {
			n, err := toInt(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("resolution: %w", err)
			}
			sc.ResolutionU, sc.ResolutionV = n, n
			return zygo.SexpNull, nil
		}
		u, v, err := intPair("resolution", "u", "v", args, sc.ResolutionU, sc.ResolutionV)
		if err != nil {
			return zygo.SexpNull, err
		}
		sc.ResolutionU, sc.ResolutionV = u, v
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (handle-size 0.1)
	// -----------------------------------------------------------------------
	env.AddFunction("handle_size", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("handle-size requires exactly 1 argument")
		}
		f, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("handle-size: %w", err)
		}
		sc.HandleSize = f
		return zygo.SexpNull, nil
	})
}

// intPair reads two integers given positionally or as keywords a and b.
// Missing keywords keep the defaults.
func intPair(fn, a, b string, args []zygo.Sexp, da, db int) (int, int, error) {
	pa := parseArgs(args)
	switch len(pa.positional) {
	case 0:
	case 2:
		x, err := toInt(pa.positional[0])
		if err != nil {
			return 0, 0, fmt.Errorf("%s: %s: %w", fn, a, err)
		}
		y, err := toInt(pa.positional[1])
		if err != nil {
			return 0, 0, fmt.Errorf("%s: %s: %w", fn, b, err)
		}
		return x, y, nil
	default:
		return 0, 0, fmt.Errorf("%s requires 2 integers, got %d", fn, len(pa.positional))
	}
	x, y := da, db
	if v, ok := pa.kw[a]; ok {
		n, err := toInt(v)
		if err != nil {
			return 0, 0, fmt.Errorf("%s: %s: %w", fn, a, err)
		}
		x = n
	}
	if v, ok := pa.kw[b]; ok {
		n, err := toInt(v)
		if err != nil {
			return 0, 0, fmt.Errorf("%s: %s: %w", fn, b, err)
		}
		y = n
	}
	return x, y, nil
}
