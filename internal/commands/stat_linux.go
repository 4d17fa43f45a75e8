package commands

import (
	"io/fs"
	"syscall"
	"time"
)

func statTimes(info fs.FileInfo) (created, accessed float64) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		m := unixSeconds(info.ModTime())
		return m, m
	}
	return unixSeconds(time.Unix(st.Ctim.Unix())), unixSeconds(time.Unix(st.Atim.Unix()))
}
