package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
)

// MaxFindResults caps the number of findfile matches in one response.
const MaxFindResults = 100

// DirEntry is one listdir row.
type DirEntry struct {
	Name     string  `json:"name"`
	Size     int64   `json:"size"`
	Modified float64 `json:"modified"`
	IsDir    bool    `json:"is_dir"`
}

func ListDir(_ context.Context, args Args) (any, error) {
	path, err := args.String("path", ".")
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, pathError(err)
	}

	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		// follow symlinks the way stat(2) does; broken links fall back to the link itself
		info, err := os.Stat(filepath.Join(path, e.Name()))
		if err != nil {
			if info, err = e.Info(); err != nil {
				continue
			}
		}
		out = append(out, DirEntry{
			Name:     e.Name(),
			Size:     info.Size(),
			Modified: unixSeconds(info.ModTime()),
			IsDir:    info.IsDir(),
		})
	}
	return out, nil
}

func DiskSpace(ctx context.Context, args Args) (any, error) {
	path, err := args.String("path", ".")
	if err != nil {
		return nil, err
	}
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return nil, pathError(err)
	}
	var percent float64
	if usage.Total > 0 {
		percent = float64(usage.Used) / float64(usage.Total) * 100
	}
	return map[string]any{
		"total":        usage.Total,
		"used":         usage.Used,
		"free":         usage.Free,
		"percent_used": percent,
	}, nil
}

func FileInfo(_ context.Context, args Args) (any, error) {
	path, err := args.RequireString("path", "No path specified")
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.New("File not found")
	}
	if err != nil {
		return nil, pathError(err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	isLink := false
	if linfo, err := os.Lstat(path); err == nil {
		isLink = linfo.Mode()&fs.ModeSymlink != 0
	}
	created, accessed := statTimes(info)

	return map[string]any{
		"name":       filepath.Base(path),
		"path":       abs,
		"size":       info.Size(),
		"created":    created,
		"modified":   unixSeconds(info.ModTime()),
		"accessed":   accessed,
		"is_dir":     info.IsDir(),
		"is_file":    info.Mode().IsRegular(),
		"is_symlink": isLink,
	}, nil
}

// Match is one findfile hit.
type Match struct {
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
}

func FindFile(ctx context.Context, args Args) (any, error) {
	pattern, err := args.RequireString("pattern", "No pattern specified")
	if err != nil {
		return nil, err
	}
	root, err := args.String("path", ".")
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(root); err != nil {
		return nil, pathError(err)
	}
	return findMatches(ctx, root, pattern, MaxFindResults)
}

func findMatches(ctx context.Context, root, pattern string, limit int) ([]Match, error) {
	needle := strings.ToLower(pattern)
	matches := make([]Match, 0)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable subtrees are skipped, not fatal
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == root {
			return nil
		}
		if strings.Contains(strings.ToLower(d.Name()), needle) {
			matches = append(matches, Match{Path: path, IsDir: d.IsDir()})
			if len(matches) >= limit {
				return fs.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// pathError strips the Go operation prefix so clients see "<path>: <reason>".
func pathError(err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return fmt.Errorf("%s: %s", pe.Path, pe.Err)
	}
	return err
}
