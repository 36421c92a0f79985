package deps

import (
	"os"
	"os/exec"
	"runtime"
)

const (
	nvidiaSMI    = "nvidia-smi"
	nvidiaDevice = "/dev/nvidia0"
)

// HardwareDetector reports whether NVIDIA encoding tooling is present. The
// zero value checks the standard device node and nvidia-smi on PATH.
type HardwareDetector struct {
	DevicePath string
	SMICommand string
}

// NVENCAvailable reports whether an NVIDIA device node exists or nvidia-smi
// resolves on PATH.
func (d HardwareDetector) NVENCAvailable() bool {
	device := d.DevicePath
	if device == "" {
		device = nvidiaDevice
	}
	if _, err := os.Stat(device); err == nil {
		return true
	}
	smi := d.SMICommand
	if smi == "" {
		smi = nvidiaSMI
	}
	if path, err := exec.LookPath(smi); err == nil {
		if info, statErr := os.Stat(path); statErr == nil && isExecutable(info) {
			return true
		}
	}
	return false
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
