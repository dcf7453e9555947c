package asset

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/Faultbox/midgard-thumbnails/pkg/encoding"
)

// ErrBadRef is returned for refs that name no asset kind.
var ErrBadRef = errors.New("invalid asset ref")

// Ref names an asset to load: "static:<model>", "skeletal:<model>[@ms]" or
// "collection:<manifest>". A bare .rsm path is static and a bare
// .yaml/.yml path is a collection.
type Ref struct {
	Kind   Kind
	Path   string
	TimeMs float32
}

// ParseRef parses s into a Ref.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}, fmt.Errorf("%w: empty", ErrBadRef)
	}

	prefix, rest, found := strings.Cut(s, ":")
	// Windows drive letters are not kind prefixes.
	if !found || len(prefix) == 1 {
		return bareRef(s)
	}

	var ref Ref
	switch strings.ToLower(prefix) {
	case "static":
		ref = Ref{Kind: KindStatic, Path: rest}
	case "skeletal":
		ref = Ref{Kind: KindSkeletal, Path: rest}
		if p, at, ok := strings.Cut(rest, "@"); ok {
			ms, err := strconv.ParseFloat(at, 32)
			if err != nil || ms < 0 {
				return Ref{}, fmt.Errorf("%w: bad pose time %q", ErrBadRef, at)
			}
			ref.Path = p
			ref.TimeMs = float32(ms)
		}
	case "collection":
		ref = Ref{Kind: KindCollection, Path: rest}
	default:
		return Ref{}, fmt.Errorf("%w: unknown kind %q", ErrBadRef, prefix)
	}
	if ref.Path == "" {
		return Ref{}, fmt.Errorf("%w: %q has no path", ErrBadRef, s)
	}
	return ref, nil
}

func bareRef(s string) (Ref, error) {
	switch strings.ToLower(path.Ext(strings.ReplaceAll(s, "\\", "/"))) {
	case ".rsm", ".rsm2":
		return Ref{Kind: KindStatic, Path: s}, nil
	case ".yaml", ".yml":
		return Ref{Kind: KindCollection, Path: s}, nil
	default:
		return Ref{}, fmt.Errorf("%w: cannot infer kind of %q", ErrBadRef, s)
	}
}

// String formats the ref so that ParseRef(r.String()) == r.
func (r Ref) String() string {
	if r.Kind == KindSkeletal && r.TimeMs != 0 {
		return fmt.Sprintf("%s:%s@%s", r.Kind, r.Path, strconv.FormatFloat(float64(r.TimeMs), 'f', -1, 32))
	}
	return r.Kind.String() + ":" + r.Path
}

// OutputName returns a file-system friendly name for the ref, without
// extension: the model base name, plus the pose time for skeletal refs.
func (r Ref) OutputName() string {
	p := strings.ReplaceAll(r.Path, "\\", "/")
	name := encoding.DisplayName(strings.TrimSuffix(path.Base(p), path.Ext(p)))
	if r.Kind == KindSkeletal && r.TimeMs != 0 {
		name += "@" + strconv.FormatFloat(float64(r.TimeMs), 'f', -1, 32)
	}
	return name
}
