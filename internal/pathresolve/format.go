package pathresolve

import "strings"

// Format describes the syntactic shape of a destination path.
type Format int

const (
	FormatInvalid Format = iota
	FormatUNC
	FormatWindowsAbsolute
	FormatUnixAbsolute
)

func (f Format) String() string {
	switch f {
	case FormatUNC:
		return "unc"
	case FormatWindowsAbsolute:
		return "windows-absolute"
	case FormatUnixAbsolute:
		return "unix-absolute"
	default:
		return "invalid"
	}
}

// ClassifyFormat determines the shape of a path. Accepted shapes are UNC
// (\\host\share\...), Windows absolute (X:\ or X:/), and Unix absolute (/...).
// Everything else, including relative paths and bare drive letters without a
// separator, is invalid and rejected before any filesystem call.
func ClassifyFormat(path string) Format {
	if path == "" {
		return FormatInvalid
	}
	if strings.HasPrefix(path, `\\`) {
		// A UNC path needs at least a host and a share component.
		rest := strings.TrimPrefix(path, `\\`)
		parts := strings.FieldsFunc(rest, func(r rune) bool { return r == '\\' || r == '/' })
		if len(parts) >= 2 {
			return FormatUNC
		}
		return FormatInvalid
	}
	if len(path) >= 3 && isDriveLetter(path[0]) && path[1] == ':' && (path[2] == '\\' || path[2] == '/') {
		return FormatWindowsAbsolute
	}
	if strings.HasPrefix(path, "/") {
		return FormatUnixAbsolute
	}
	return FormatInvalid
}

func isDriveLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// IsNetwork reports whether the format addresses a remote filesystem. Network
// destinations get per-attempt timeouts and a transient-leaning error
// classification in the mover.
func (f Format) IsNetwork() bool { return f == FormatUNC }
