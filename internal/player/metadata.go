package player

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dhowden/tag"
)

// TrackInfo holds display metadata for a track.
type TrackInfo struct {
	Path     string
	Title    string
	Artist   string
	Album    string
	Year     int
	Track    int
	Duration time.Duration
}

// ReadTrackInfo reads tag metadata for the given audio file.
// Falls back to the file name as title when the file carries no tags.
func ReadTrackInfo(path string) (*TrackInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return &TrackInfo{
			Path:  path,
			Title: filepath.Base(path),
		}, nil
	}

	title := m.Title()
	if title == "" {
		title = filepath.Base(path)
	}

	track, _ := m.Track()

	return &TrackInfo{
		Path:   path,
		Title:  title,
		Artist: m.Artist(),
		Album:  m.Album(),
		Year:   m.Year(),
		Track:  track,
	}, nil
}
