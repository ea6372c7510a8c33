package playback

import (
	"time"

	"github.com/llehouerou/hush/internal/playlist"
)

// Track represents a track in the queue.
// This is a copy of the data, not a reference to playlist.Track.
type Track struct {
	ID          string
	Path        string
	Title       string
	Artist      string
	Album       string
	TrackNumber int
	Duration    time.Duration
}

func fromPlaylistTrack(t playlist.Track) Track {
	return Track{
		ID:          t.ID,
		Path:        t.Path,
		Title:       t.Title,
		Artist:      t.Artist,
		Album:       t.Album,
		TrackNumber: t.TrackNumber,
		Duration:    t.Duration,
	}
}

func toPlaylistTrack(t Track) playlist.Track {
	return playlist.Track{
		ID:          t.ID,
		Path:        t.Path,
		Title:       t.Title,
		Artist:      t.Artist,
		Album:       t.Album,
		TrackNumber: t.TrackNumber,
		Duration:    t.Duration,
	}
}

// TracksFromPlaylist converts playlist tracks to playback tracks.
func TracksFromPlaylist(tracks []playlist.Track) []Track {
	result := make([]Track, len(tracks))
	for i, t := range tracks {
		result[i] = fromPlaylistTrack(t)
	}
	return result
}
