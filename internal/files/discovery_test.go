package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDiscovery(t *testing.T) {
	basePath := "/test/base"
	discovery := NewDiscovery(basePath)

	assert.NotNil(t, discovery)
	assert.Equal(t, basePath, discovery.basePath)
}

func writeDiscoveryFiles(t *testing.T, dir string, names []string) {
	t.Helper()
	for i, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("test content"), 0644))

		// Stagger modification times so ordering is observable.
		modTime := time.Now().Add(time.Duration(i-len(names)) * time.Minute)
		require.NoError(t, os.Chtimes(path, modTime, modTime))
	}
}

func TestFindSourceCandidates(t *testing.T) {
	tests := []struct {
		name      string
		files     []string
		wantNames []string
	}{
		{
			name:      "csv and xlsx qualify, other extensions do not",
			files:     []string{"Analytics.csv", "notes.txt", "legacy.xls", "image.png", "export.xlsx"},
			wantNames: []string{"export.xlsx", "legacy.xls", "Analytics.csv"},
		},
		{
			name:      "case insensitive extensions",
			files:     []string{"DATA.CSV", "Sheet.XLSX"},
			wantNames: []string{"Sheet.XLSX", "DATA.CSV"},
		},
		{
			name:      "no candidates",
			files:     []string{"readme.md", "doc.pdf"},
			wantNames: []string{},
		},
		{
			name:      "empty directory",
			files:     []string{},
			wantNames: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			writeDiscoveryFiles(t, tmpDir, tt.files)

			discovery := NewDiscovery(tmpDir)
			candidates, err := discovery.FindSourceCandidates(tmpDir)
			require.NoError(t, err)

			// Newest first: writeDiscoveryFiles stamps later names with
			// later times, so the expected order is reverse write order.
			assert.Equal(t, tt.wantNames, Names(candidates))
		})
	}

	t.Run("missing directory returns error", func(t *testing.T) {
		discovery := NewDiscovery(t.TempDir())
		_, err := discovery.FindSourceCandidates("does_not_exist")
		assert.Error(t, err)
	})

	t.Run("relative directory resolves against base path", func(t *testing.T) {
		tmpDir := t.TempDir()
		subDir := filepath.Join(tmpDir, "data")
		require.NoError(t, os.MkdirAll(subDir, 0755))
		writeDiscoveryFiles(t, subDir, []string{"Analytics.csv"})

		discovery := NewDiscovery(tmpDir)
		candidates, err := discovery.FindSourceCandidates("data")
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, filepath.Join(subDir, "Analytics.csv"), candidates[0].Path)
	})
}

func TestFindCSVFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writeDiscoveryFiles(t, tmpDir, []string{"a.csv", "b.CSV", "c.xlsx", "d.txt"})

	discovery := NewDiscovery(tmpDir)
	found, err := discovery.FindCSVFiles(tmpDir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.csv", "b.CSV"}, Names(found))
}

func TestFindExcelFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writeDiscoveryFiles(t, tmpDir, []string{"a.csv", "b.xlsx", "c.XLS", "d.txt"})

	discovery := NewDiscovery(tmpDir)
	found, err := discovery.FindExcelFiles(tmpDir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b.xlsx", "c.XLS"}, Names(found))
}

func TestGetLatestFile(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		_, ok := GetLatestFile(nil)
		assert.False(t, ok)
	})

	t.Run("picks newest", func(t *testing.T) {
		base := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
		list := []FileInfo{
			{Name: "old.csv", ModTime: base},
			{Name: "newest.csv", ModTime: base.Add(2 * time.Hour)},
			{Name: "middle.csv", ModTime: base.Add(time.Hour)},
		}

		latest, ok := GetLatestFile(list)
		require.True(t, ok)
		assert.Equal(t, "newest.csv", latest.Name)
	})
}
