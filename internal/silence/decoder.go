package silence

import (
	"context"
	"errors"
	"fmt"

	"github.com/llehouerou/hush/internal/player"
)

// ErrUnanalyzable marks a track whose samples could not be fetched or
// decoded. It is non-fatal: the caller treats the track as having no
// measured silence, and the analysis may be retried on a later cache miss.
var ErrUnanalyzable = errors.New("track cannot be analyzed")

// Decoder produces a normalized mono sample buffer for a track.
type Decoder interface {
	Decode(ctx context.Context, path string) (samples []float64, sampleRate int, err error)
}

// FileDecoder decodes local audio files through the player's codec stack.
type FileDecoder struct{}

var _ Decoder = FileDecoder{}

// decodeChunk is the streaming read size in samples.
const decodeChunk = 4096

// Decode reads the whole file into a mono float64 buffer, averaging
// channels. The context is checked between chunks so a disabled engine does
// not keep decoding in the background.
func (FileDecoder) Decode(ctx context.Context, path string) ([]float64, int, error) {
	f, streamer, format, err := player.OpenStream(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrUnanalyzable, err)
	}
	defer f.Close()
	defer streamer.Close()

	samples := make([]float64, 0, streamer.Len())
	buf := make([][2]float64, decodeChunk)

	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		n, ok := streamer.Stream(buf)
		for _, s := range buf[:n] {
			samples = append(samples, (s[0]+s[1])/2)
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrUnanalyzable, err)
	}
	if len(samples) == 0 {
		return nil, 0, fmt.Errorf("%w: empty stream", ErrUnanalyzable)
	}

	return samples, int(format.SampleRate), nil
}
