package pathresolve

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"regexp"
	"strings"

	"curator/internal/errclass"
)

// Resolver produces absolute, collision-free destination paths from route
// destination templates. A Resolver is immutable and safe for concurrent use.
type Resolver struct {
	username       string
	collisionLimit int
	stat           func(string) (os.FileInfo, error)
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithUsername overrides the OS user context used for placeholder expansion.
func WithUsername(name string) Option {
	return func(r *Resolver) { r.username = name }
}

// WithCollisionLimit bounds the "name (N).ext" probe.
func WithCollisionLimit(limit int) Option {
	return func(r *Resolver) {
		if limit > 0 {
			r.collisionLimit = limit
		}
	}
}

// WithStat replaces the filesystem probe used during collision detection.
func WithStat(stat func(string) (os.FileInfo, error)) Option {
	return func(r *Resolver) {
		if stat != nil {
			r.stat = stat
		}
	}
}

const defaultCollisionLimit = 1000

// New builds a Resolver. The OS user context comes from os/user, falling back
// to the USER/USERNAME environment variables; templates that never reference a
// placeholder work even when no user can be resolved.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		username:       currentUsername(),
		collisionLimit: defaultCollisionLimit,
		stat:           os.Stat,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return os.Getenv("USERNAME")
}

var placeholderPattern = regexp.MustCompile(`%[A-Za-z_][A-Za-z0-9_]*%`)

// Expand substitutes %USERNAME% and %USER% tokens (case-insensitive) with the
// resolver's user context. Any other placeholder, or a user token with no
// resolvable user, is a configuration error.
func (r *Resolver) Expand(template string) (string, error) {
	var expandErr error
	out := placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := strings.ToUpper(strings.Trim(token, "%"))
		switch name {
		case "USERNAME", "USER":
			if r.username == "" {
				expandErr = errclass.Wrap(errclass.ErrConfiguration, "pathresolve", "expand",
					fmt.Sprintf("no user context to substitute %s", token), nil)
				return token
			}
			return r.username
		default:
			expandErr = errclass.Wrap(errclass.ErrConfiguration, "pathresolve", "expand",
				fmt.Sprintf("unresolvable placeholder %s", token), nil)
			return token
		}
	})
	if expandErr != nil {
		return "", expandErr
	}
	return out, nil
}

// Resolve expands template, validates its shape, and returns a destination
// path under it for filename that did not exist at probe time. The probe is
// not atomic with the eventual move; a late collision is the mover's problem.
func (r *Resolver) Resolve(template, filename string) (string, error) {
	root, format, err := r.ResolveRoot(template)
	if err != nil {
		return "", err
	}
	base := sanitizeFilename(filename)
	if base == "" {
		return "", errclass.Wrap(errclass.ErrConfiguration, "pathresolve", "resolve",
			fmt.Sprintf("filename %q reduces to nothing", filename), nil)
	}

	candidate := join(format, root, base)
	exists, err := r.exists(candidate)
	if err != nil {
		return "", err
	}
	if !exists {
		return candidate, nil
	}

	stem, ext := splitName(base)
	for n := 1; n <= r.collisionLimit; n++ {
		candidate = join(format, root, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		exists, err = r.exists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", errclass.Wrap(errclass.ErrDestinationExhausted, "pathresolve", "resolve",
		fmt.Sprintf("no free name for %q under %s after %d probes", base, root, r.collisionLimit), nil)
}

// ResolveRoot expands and validates a destination template without touching
// the filesystem. It returns the expanded root and its format.
func (r *Resolver) ResolveRoot(template string) (string, Format, error) {
	expanded, err := r.Expand(template)
	if err != nil {
		return "", FormatInvalid, err
	}
	format := ClassifyFormat(expanded)
	if format == FormatInvalid {
		return "", FormatInvalid, errclass.Wrap(errclass.ErrConfiguration, "pathresolve", "resolve",
			fmt.Sprintf("destination %q is not UNC, Windows absolute, or Unix absolute", expanded), nil)
	}
	return trimTrailingSeparators(expanded), format, nil
}

func (r *Resolver) exists(path string) (bool, error) {
	_, err := r.stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	// Stat failures on a network destination tend to clear on retry.
	return false, errclass.Wrap(errclass.ErrTransient, "pathresolve", "stat", path, err)
}

func separator(format Format) string {
	if format == FormatUnixAbsolute {
		return "/"
	}
	return `\`
}

func join(format Format, root, name string) string {
	return root + separator(format) + name
}

func trimTrailingSeparators(path string) string {
	trimmed := strings.TrimRight(path, `\/`)
	if trimmed == "" {
		return path
	}
	return trimmed
}

// sanitizeFilename reduces a source path to its final component regardless of
// which separator convention produced it.
func sanitizeFilename(path string) string {
	if idx := strings.LastIndexAny(path, `\/`); idx >= 0 {
		path = path[idx+1:]
	}
	return strings.TrimSpace(path)
}

func splitName(base string) (stem, ext string) {
	idx := strings.LastIndex(base, ".")
	if idx <= 0 {
		return base, ""
	}
	return base[:idx], base[idx:]
}
