package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"subscli/internal/config"
)

// FileInfo describes one discovered file.
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

var (
	csvPattern  = regexp.MustCompile(config.SourceCSVPattern)
	xlsxPattern = regexp.MustCompile(config.SourceXLSXPattern)
)

// Discovery locates candidate subscription source files on disk.
type Discovery struct {
	basePath string
}

// NewDiscovery creates a discovery instance. Relative directories passed to
// the finder methods resolve against basePath.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindSourceCandidates lists the loadable source files (CSV and XLSX) in
// the specified directory, newest first. The result feeds the guidance
// shown when the configured source file is missing.
func (d *Discovery) FindSourceCandidates(dir string) ([]FileInfo, error) {
	files, err := d.findMatching(dir, func(name string) bool {
		return csvPattern.MatchString(name) || xlsxPattern.MatchString(name)
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})

	return files, nil
}

// FindCSVFiles lists the CSV files in the specified directory.
func (d *Discovery) FindCSVFiles(dir string) ([]FileInfo, error) {
	return d.findMatching(dir, csvPattern.MatchString)
}

// FindExcelFiles lists the Excel workbooks in the specified directory.
func (d *Discovery) FindExcelFiles(dir string) ([]FileInfo, error) {
	return d.findMatching(dir, xlsxPattern.MatchString)
}

// findMatching reads one directory level and keeps the regular files whose
// name passes match.
func (d *Discovery) findMatching(dir string, match func(string) bool) ([]FileInfo, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !match(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return files, nil
}

// Names returns the file names in order.
func Names(files []FileInfo) []string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return names
}

// GetLatestFile returns the most recently modified file from a list.
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}

	return latest, true
}
