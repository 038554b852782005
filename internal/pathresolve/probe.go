package pathresolve

import (
	"os"

	"golang.org/x/sys/unix"
)

// Report is the outcome of a side-effect-free path probe. Nothing is created,
// opened for writing, or modified while producing it.
type Report struct {
	Input    string `json:"input"`
	Resolved string `json:"resolved"`
	Format   string `json:"format"`
	Exists   bool   `json:"exists"`
	IsDir    bool   `json:"is_dir"`
	Readable bool   `json:"readable"`
	Writable bool   `json:"writable"`
}

// Probe expands and classifies path, then checks existence and effective
// read/write access without creating anything. Invalid templates return an
// error; an unreachable or missing path returns a Report with the flags down.
func (r *Resolver) Probe(path string) (Report, error) {
	resolved, format, err := r.ResolveRoot(path)
	if err != nil {
		return Report{Input: path}, err
	}
	report := Report{
		Input:    path,
		Resolved: resolved,
		Format:   format.String(),
	}
	info, statErr := os.Stat(resolved)
	if statErr != nil {
		return report, nil
	}
	report.Exists = true
	report.IsDir = info.IsDir()
	report.Readable = unix.Access(resolved, unix.R_OK) == nil
	report.Writable = unix.Access(resolved, unix.W_OK) == nil
	return report, nil
}
