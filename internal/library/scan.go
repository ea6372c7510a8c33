// Package library discovers playable audio files on disk.
package library

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/llehouerou/hush/internal/player"
	"github.com/llehouerou/hush/internal/playlist"
)

// Scan walks folder recursively and returns a track per supported audio
// file, ordered by path. Unreadable entries are skipped; a track's ID is
// its absolute path.
func Scan(folder string) ([]playlist.Track, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, err
	}

	var paths []string
	_ = filepath.WalkDir(abs, func(path string, d os.DirEntry, walkErr error) error {
		// Skip any walk errors - intentionally continuing to scan other paths
		if walkErr != nil {
			return nil //nolint:nilerr // intentionally skipping errors
		}
		if d.IsDir() {
			return nil
		}
		if !player.Supported(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})

	sort.Strings(paths)

	tracks := make([]playlist.Track, 0, len(paths))
	for _, path := range paths {
		info, err := player.ReadTrackInfo(path)
		if err != nil {
			// Unreadable file: fall back to the bare path.
			info = &player.TrackInfo{Path: path, Title: filepath.Base(path)}
		}
		tracks = append(tracks, playlist.Track{
			ID:          path,
			Path:        path,
			Title:       info.Title,
			Artist:      info.Artist,
			Album:       info.Album,
			TrackNumber: info.Track,
		})
	}

	return tracks, nil
}
