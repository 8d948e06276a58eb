//go:build darwin

package storage

import (
	"os"
	"syscall"
	"time"
)

// lastActivity returns the most recent of a file's modification time and
// status-change time.
func lastActivity(fi os.FileInfo) time.Time {
	mod := fi.ModTime()
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return mod
	}
	ctime := time.Unix(st.Ctimespec.Sec, st.Ctimespec.Nsec)
	if ctime.After(mod) {
		return ctime
	}
	return mod
}
