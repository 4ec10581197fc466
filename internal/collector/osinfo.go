// OS info collector: distribution name, version and id.
//   - Linux: reads /etc/os-release
//   - elsewhere: gopsutil host platform information
package collector

import (
	"context"
	"os"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/models"
)

// OSInfo identifies the running operating system.
func (s *System) OSInfo(ctx context.Context) (models.OSInfo, error) {
	if runtime.GOOS == "linux" {
		data, err := os.ReadFile(s.osRelease)
		if err == nil {
			info, ok := osInfoFromRelease(string(data))
			if ok {
				return info, nil
			}
		}
		s.logger.Debug("os-release unavailable, using gopsutil platform info")
	}

	platform, _, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		return models.OSInfo{}, errs.Wrap(errs.ApiUnavailable, "collector.os", err)
	}
	info := models.OSInfo{
		Name:    platformName(platform),
		Version: version,
		ID:      strings.ToLower(platform),
	}
	if runtime.GOOS == "darwin" {
		info.ID = "darwin"
	}
	return info, nil
}

// osInfoFromRelease extracts NAME, VERSION_ID and ID. It reports false when
// NAME is missing.
func osInfoFromRelease(content string) (models.OSInfo, bool) {
	fields := parseKeyValueFile(content)
	name, ok := fields["NAME"]
	if !ok || name == "" {
		return models.OSInfo{}, false
	}
	info := models.OSInfo{
		Name:    name,
		Version: fields["VERSION_ID"],
		ID:      fields["ID"],
	}
	if info.Version == "" {
		info.Version = fields["BUILD_ID"]
	}
	return info, true
}

// platformName maps gopsutil platform identifiers to display names.
func platformName(platform string) string {
	switch strings.ToLower(platform) {
	case "darwin":
		return "macOS"
	case "":
		return runtime.GOOS
	}
	return platform
}

// parseKeyValueFile parses KEY=VALUE lines (like /etc/os-release) and
// strips surrounding quotes.
func parseKeyValueFile(content string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[key] = strings.Trim(value, `"'`)
	}
	return fields
}
