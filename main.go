package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/llehouerou/hush/internal/config"
	"github.com/llehouerou/hush/internal/errmsg"
	"github.com/llehouerou/hush/internal/library"
	"github.com/llehouerou/hush/internal/playback"
	"github.com/llehouerou/hush/internal/player"
	"github.com/llehouerou/hush/internal/playlist"
	"github.com/llehouerou/hush/internal/silence"
	"github.com/llehouerou/hush/internal/skip"
	"github.com/llehouerou/hush/internal/state"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		thresholdDB  = flag.Float64("threshold-db", 0, "silence threshold in dBFS (overrides config)")
		minSilenceMs = flag.Int("min-silence-ms", 0, "minimum silence run in ms (overrides config)")
		noSkip       = flag.Bool("no-skip", false, "disable silence skipping")
		shuffle      = flag.Bool("shuffle", false, "play tracks in shuffle order")
		repeat       = flag.String("repeat", "", "repeat mode: off, all, one")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpInitialize, err))
	}

	folder := cfg.DefaultFolder
	if flag.NArg() > 0 {
		folder = flag.Arg(0)
	}
	if folder == "" {
		if folder, err = os.Getwd(); err != nil {
			return fmt.Errorf("%s", errmsg.Format(errmsg.OpInitialize, err))
		}
	}

	stateMgr, err := state.Open()
	if err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpStateOpen, err))
	}
	defer stateMgr.Close()

	tracks, err := library.Scan(folder)
	if err != nil {
		return fmt.Errorf("%s", errmsg.FormatWith(errmsg.OpFolderScan, folder, err))
	}
	if len(tracks) == 0 {
		return fmt.Errorf("no playable tracks in %s", folder)
	}
	log.Printf("found %d tracks in %s", len(tracks), folder)

	settings := resolveSilenceSettings(cfg, stateMgr, *thresholdDB, *minSilenceMs, *noSkip)

	queue := playlist.NewQueue()
	queue.Replace(tracks...)
	applyModes(queue, stateMgr, *shuffle, *repeat)

	p := player.New()
	svc := playback.New(p, queue)
	defer svc.Close()

	if volume, err := stateMgr.GetVolume(); err == nil {
		svc.SetVolume(volume)
	} else {
		svc.SetVolume(cfg.GetVolume())
	}

	cache := silence.NewCache(silence.FileDecoder{}, silence.Params{
		ThresholdDB: settings.ThresholdDB,
		MinSilence:  settings.MinSilence,
	}.Clamped())

	coord := skip.New(svc, cache, skip.Hooks{
		OnEnabled:  func() { log.Print("silence skipping enabled") },
		OnDisabled: func() { log.Print("silence skipping disabled") },
		OnSkip: func(fromID, toID string) {
			if toID == "" {
				log.Printf("skipped trailing silence on %s, end of queue", fromID)
				return
			}
			log.Printf("skipped silence: %s -> %s", fromID, toID)
		},
		OnError: func(err error) {
			log.Print(errmsg.Format(errmsg.OpSkipExecute, err))
		},
	})
	defer coord.Disable()

	if settings.Enabled {
		if err := coord.Enable(); err != nil {
			log.Print(errmsg.Format(errmsg.OpSkipEnable, err))
		}
	}

	sub := svc.Subscribe()
	defer svc.Unsubscribe(sub)

	if err := svc.Play(); err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpPlaybackStart, err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			persistSession(stateMgr, svc, settings)
			return nil
		case <-sub.Done:
			return nil
		case change := <-sub.TrackChanged:
			if change.Current != nil {
				log.Printf("playing [%d/%d] %s - %s", change.Index+1, svc.QueueLen(), change.Current.Artist, change.Current.Title)
			}
			saveQueueState(stateMgr, svc)
		case sc := <-sub.StateChanged:
			if sc.Current == playback.StateStopped && svc.CurrentTrack() == nil {
				log.Print("end of queue")
				persistSession(stateMgr, svc, settings)
				return nil
			}
		case e := <-sub.Error:
			log.Print(errmsg.FormatWith(errmsg.Op(e.Operation), e.Path, e.Err))
		}
	}
}

// resolveSilenceSettings layers flags over saved state over config.
func resolveSilenceSettings(cfg *config.Config, stateMgr *state.Manager, thresholdDB float64, minSilenceMs int, noSkip bool) config.SilenceSettings {
	settings := cfg.GetSilenceSettings()

	if saved, err := stateMgr.GetSilence(); err == nil {
		settings.Enabled = saved.Enabled
		settings.ThresholdDB = saved.ThresholdDB
		settings.MinSilence = saved.MinSilence
	}

	if thresholdDB != 0 {
		settings.ThresholdDB = thresholdDB
	}
	if minSilenceMs != 0 {
		settings.MinSilence = time.Duration(minSilenceMs) * time.Millisecond
	}
	if noSkip {
		settings.Enabled = false
	}

	return settings
}

func applyModes(queue *playlist.PlayingQueue, stateMgr *state.Manager, shuffle bool, repeat string) {
	if saved, err := stateMgr.GetQueue(); err == nil {
		queue.SetRepeatMode(playlist.RepeatMode(saved.RepeatMode))
		queue.SetShuffle(saved.Shuffle)
	}

	switch repeat {
	case "off":
		queue.SetRepeatMode(playlist.RepeatOff)
	case "all":
		queue.SetRepeatMode(playlist.RepeatAll)
	case "one":
		queue.SetRepeatMode(playlist.RepeatOne)
	}
	if shuffle {
		queue.SetShuffle(true)
	}
}

func saveQueueState(stateMgr *state.Manager, svc playback.Service) {
	tracks := svc.QueueTracks()
	saved := make([]state.QueueTrack, len(tracks))
	for i, t := range tracks {
		saved[i] = state.QueueTrack{
			ID:          t.ID,
			Path:        t.Path,
			Title:       t.Title,
			Artist:      t.Artist,
			Album:       t.Album,
			TrackNumber: t.TrackNumber,
			DurationMs:  t.Duration.Milliseconds(),
		}
	}
	stateMgr.SaveQueue(state.QueueState{
		CurrentIndex: svc.QueueCurrentIndex(),
		RepeatMode:   int(svc.RepeatMode()),
		Shuffle:      svc.Shuffle(),
		Tracks:       saved,
	})
}

func persistSession(stateMgr *state.Manager, svc playback.Service, settings config.SilenceSettings) {
	saveQueueState(stateMgr, svc)
	if err := stateMgr.SaveVolume(svc.Volume()); err != nil {
		log.Print(errmsg.Format(errmsg.OpStateSave, err))
	}
	if err := stateMgr.SaveSilence(state.SilenceState{
		Enabled:     settings.Enabled,
		ThresholdDB: settings.ThresholdDB,
		MinSilence:  settings.MinSilence,
	}); err != nil {
		log.Print(errmsg.Format(errmsg.OpStateSave, err))
	}
}
