// Package files provides file system operations and discovery utilities
// for locating and managing subscription data files.
//
// This package contains two main components:
//
// Discovery: Locates candidate source files (CSV and XLSX exports) in a
// directory. When the configured source file is missing, its candidate
// listing tells the user which loadable files actually exist.
//
// Manager: Provides basic file operations (existence checks, reads, writes,
// directory creation) resolved against the application's data, exports, and
// logs directories so callers never assemble paths by hand.
//
// Example usage:
//
//	// Create a discovery instance
//	discovery := files.NewDiscovery(paths.DataDir)
//
//	// List loadable source files, newest first
//	candidates, err := discovery.FindSourceCandidates(paths.DataDir)
//
//	// Create a manager instance
//	manager := files.NewManager(paths)
//
//	// Check if the source file exists
//	if manager.FileExists("Analytics.csv") {
//	    // Process file
//	}
package files
