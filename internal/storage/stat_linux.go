//go:build linux

package storage

import (
	"os"
	"syscall"
	"time"
)

// lastActivity returns the most recent of a file's modification time and
// status-change time. A note copied into the vault keeps its original
// mtime, so ctime is what makes it count as recent.
func lastActivity(fi os.FileInfo) time.Time {
	mod := fi.ModTime()
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return mod
	}
	ctime := time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	if ctime.After(mod) {
		return ctime
	}
	return mod
}
