package platform

import (
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Guliveer/hostsnap/internal/errs"
)

// nvidiaQuery runs nvidia-smi for a single GPU property and returns the
// first line of output.
func nvidiaQuery(ctx context.Context, field string) (string, error) {
	out, err := exec.CommandContext(ctx, "nvidia-smi",
		"--query-gpu="+field, "--format=csv,noheader,nounits").Output()
	if err != nil {
		return "", errs.Wrap(errs.ApiUnavailable, "nvidia-smi", err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errs.New(errs.NotFound, "nvidia-smi", "no GPU reported")
	}
	return line, nil
}

// nvidiaTemperature returns nil when no NVIDIA GPU or nvidia-smi is present.
func nvidiaTemperature(ctx context.Context) *float64 {
	out, err := nvidiaQuery(ctx, "temperature.gpu")
	if err != nil {
		return nil
	}
	temp, err := strconv.ParseFloat(out, 64)
	if err != nil {
		return nil
	}
	return &temp
}
