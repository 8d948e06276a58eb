//go:build !linux && !darwin

package storage

import (
	"os"
	"time"
)

// lastActivity falls back to the modification time on platforms without a
// portable status-change timestamp.
func lastActivity(fi os.FileInfo) time.Time {
	return fi.ModTime()
}
