package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"splice/internal/services"
)

// Requirement defines an external dependency splice relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// MediaRequirements lists the tools used by the probe, normalize, and concat steps.
func MediaRequirements(ffmpeg, ffprobe string) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpeg, Description: "Normalizes and concatenates clips"},
		{Name: "FFprobe", Command: ffprobe, Description: "Reads clip durations"},
		{Name: "nvidia-smi", Command: nvidiaSMI, Description: "Enables NVENC hardware encoding", Optional: true},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = resolved
		results = append(results, status)
	}
	return results
}

// Resolve locates command on PATH. A miss is reported as services.ErrToolMissing
// so callers fail before touching any state.
func Resolve(command string) (string, error) {
	cmd := strings.TrimSpace(command)
	if cmd == "" {
		return "", services.Wrap(services.ErrToolMissing, "deps", "resolve", "command not configured", nil)
	}
	resolved, err := exec.LookPath(cmd)
	if err != nil {
		return "", services.Wrap(services.ErrToolMissing, "deps", "resolve", fmt.Sprintf("binary %q not found on PATH", cmd), err)
	}
	return resolved, nil
}
