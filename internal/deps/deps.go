package deps

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"
)

// Requirement names one executable voicescribe shells out to. Command is
// either a bare name resolved through PATH or an explicit path from config.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the resolution outcome for one requirement.
type Status struct {
	Name        string
	Command     string
	Path        string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries resolves every requirement in order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, Resolve(req))
	}
	return results
}

// Resolve locates a single requirement. Explicit paths are checked for the
// execute bit so a config pointing at a data file is reported as such.
func Resolve(req Requirement) Status {
	command := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Command:     command,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if command == "" {
		status.Detail = "command not configured"
		return status
	}

	if strings.ContainsRune(command, os.PathSeparator) {
		info, err := os.Stat(command)
		switch {
		case errors.Is(err, os.ErrNotExist):
			status.Detail = fmt.Sprintf("binary %q not found", command)
			return status
		case err != nil:
			status.Detail = fmt.Sprintf("stat %q: %v", command, err)
			return status
		case info.IsDir():
			status.Detail = fmt.Sprintf("%q is a directory", command)
			return status
		}
		if err := unix.Access(command, unix.X_OK); err != nil {
			status.Detail = fmt.Sprintf("%q is not executable", command)
			return status
		}
	}

	resolved, err := exec.LookPath(command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", command)
		return status
	}
	status.Path = resolved
	status.Available = true
	return status
}

// MissingRequired returns the names of non-optional requirements that could
// not be resolved.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Optional && !status.Available {
			missing = append(missing, status.Name)
		}
	}
	return missing
}

// Satisfied reports whether every non-optional requirement is available.
func Satisfied(statuses []Status) bool {
	return len(MissingRequired(statuses)) == 0
}
