package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanDir walks a directory tree and discovers all JSONL usage-export files.
// A missing directory is not an error; imports of an empty tree are a no-op.
func ScanDir(dir string) ([]DiscoveredFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var files []DiscoveredFile

	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".jsonl") {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // file vanished mid-walk
		}

		files = append(files, DiscoveredFile{
			Path:      path,
			Name:      d.Name(),
			SizeBytes: fi.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Exports are named by date; path order replays them chronologically.
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
