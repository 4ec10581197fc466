//go:build linux

package collector

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/Guliveer/hostsnap/internal/errs"
)

// Host returns the DMI product family, falling back to the product name.
func (s *System) Host(ctx context.Context) (string, error) {
	dmi := filepath.Join(s.sysfs, "class", "dmi", "id")
	family, err := readFirstLine(filepath.Join(dmi, "product_family"))
	if err == nil {
		return family, nil
	}
	name, nameErr := readFirstLine(filepath.Join(dmi, "product_name"))
	if nameErr == nil {
		return name, nil
	}
	s.logger.Debug("DMI product identifiers unavailable")
	return "", nameErr
}

// readFirstLine returns the first line of a sysfs file. Empty files are
// ParseError; missing files NotFound; unreadable ones PermissionDenied.
func readFirstLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errs.WrapIO("collector.host", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return "", errs.Errorf(errs.ParseError, "collector.host", "%s is empty", path)
	}
	line := strings.TrimSpace(sc.Text())
	if line == "" {
		return "", errs.Errorf(errs.ParseError, "collector.host", "%s is empty", path)
	}
	return line, nil
}
