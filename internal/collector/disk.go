// Disk collector: mounted local volumes with usage and drive type.
// Uses gopsutil for cross-platform disk metrics.
package collector

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/models"
)

// pseudoFSTypes contains virtual and system filesystems that don't
// represent storage devices.
var pseudoFSTypes = map[string]bool{
	"devfs":         true,
	"autofs":        true,
	"nullfs":        true,
	"sysfs":         true,
	"proc":          true,
	"procfs":        true,
	"devtmpfs":      true,
	"cgroup":        true,
	"cgroup2":       true,
	"overlay":       true,
	"squashfs":      true,
	"fuse.snapfuse": true,
	"nsfs":          true,
	"pstore":        true,
	"debugfs":       true,
	"tracefs":       true,
	"securityfs":    true,
	"configfs":      true,
	"fusectl":       true,
	"mqueue":        true,
	"hugetlbfs":     true,
	"binfmt_misc":   true,
	"efivarfs":      true,
	"bpf":           true,
}

// networkFSTypes are remote filesystems; they are reported with
// DriveNetwork rather than skipped.
var networkFSTypes = map[string]bool{
	"nfs":           true,
	"nfs4":          true,
	"cifs":          true,
	"smbfs":         true,
	"fuse.sshfs":    true,
	"fuse.rclone":   true,
	"9p":            true,
	"afs":           true,
	"glusterfs":     true,
	"ceph":          true,
	"fuse.ceph":     true,
	"davfs2":        true,
	"fuse.s3fs":     true,
	"fuse.gcsfuse":  true,
	"fuse.blobfuse": true,
}

// isSystemMount returns true for macOS system volumes and other OS-internal
// paths that shouldn't be shown to users.
func isSystemMount(mount string) bool {
	for _, prefix := range []string{"/System/Volumes/", "/private/var/vm", "/snap/", "/boot/efi"} {
		if strings.HasPrefix(mount, prefix) {
			return true
		}
	}
	return false
}

// driveType infers the drive type from filesystem, device and options.
func driveType(p disk.PartitionStat) models.DriveType {
	fs := strings.ToLower(p.Fstype)
	switch {
	case networkFSTypes[fs]:
		return models.DriveNetwork
	case fs == "tmpfs" || fs == "ramfs":
		return models.DriveRAM
	case fs == "iso9660" || fs == "udf" || fs == "cd9660":
		return models.DriveCDRom
	case strings.HasPrefix(p.Mountpoint, "/media/") || strings.HasPrefix(p.Mountpoint, "/run/media/") ||
		(strings.HasPrefix(p.Mountpoint, "/Volumes/") && p.Mountpoint != "/Volumes/Macintosh HD"):
		return models.DriveRemovable
	case fs == "":
		return models.DriveUnknown
	}
	return models.DriveFixed
}

// systemMount returns the mount point holding the operating system.
func systemMount() string {
	if runtime.GOOS == "windows" {
		drive := os.Getenv("SystemDrive")
		if drive == "" {
			drive = "C:"
		}
		return drive + `\`
	}
	return "/"
}

// sameMount compares mount points, ignoring case and trailing separators on
// Windows.
func sameMount(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(strings.TrimRight(a, `\/`), strings.TrimRight(b, `\/`))
	}
	return filepath.Clean(a) == filepath.Clean(b)
}

// Disks returns every local or network volume with usage. Inaccessible
// partitions are skipped.
func (s *System) Disks(ctx context.Context) ([]models.DiskInfo, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, errs.Wrap(errs.ApiUnavailable, "collector.disks", err)
	}

	root := systemMount()
	seen := make(map[string]bool)
	var results []models.DiskInfo
	for _, p := range partitions {
		fs := strings.ToLower(p.Fstype)
		if pseudoFSTypes[fs] {
			s.logger.Debug("Skipping pseudo filesystem",
				zap.String("mount", p.Mountpoint),
				zap.String("fstype", p.Fstype))
			continue
		}
		if isSystemMount(p.Mountpoint) || seen[p.Mountpoint] {
			continue
		}

		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			s.logger.Debug("Skipping inaccessible partition",
				zap.String("mount", p.Mountpoint),
				zap.Error(err))
			continue
		}
		// Some virtual mounts report 0 size
		if usage.Total == 0 {
			continue
		}
		seen[p.Mountpoint] = true
		results = append(results, models.DiskInfo{
			Name:          p.Device,
			MountPoint:    p.Mountpoint,
			Filesystem:    p.Fstype,
			DriveType:     driveType(p),
			TotalBytes:    usage.Total,
			UsedBytes:     usage.Used,
			IsSystemDrive: sameMount(p.Mountpoint, root),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].IsSystemDrive != results[j].IsSystemDrive {
			return results[i].IsSystemDrive
		}
		return results[i].MountPoint < results[j].MountPoint
	})
	if len(results) == 0 {
		return nil, errs.New(errs.NotFound, "collector.disks", "no usable volumes")
	}
	return results, nil
}
