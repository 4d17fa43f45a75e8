//go:build !linux

package commands

import "io/fs"

func statTimes(info fs.FileInfo) (created, accessed float64) {
	m := unixSeconds(info.ModTime())
	return m, m
}
