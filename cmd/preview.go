package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialbench/annotator/clip"
	"github.com/spatialbench/annotator/db"
	"github.com/spatialbench/annotator/qa"
	"github.com/spatialbench/annotator/timecode"
	"github.com/spatialbench/annotator/video"
	"github.com/spf13/cobra"
)

var previewFlags struct {
	part     string
	dataDir  string
	videoDir string
	tick     time.Duration
	realtime bool
	verbose  bool
}

var previewCmd = &cobra.Command{
	Use:   "preview <file> <qa_id>",
	Short: "Play a QA's clip on a virtual playhead",
	Long: `Play a QA's clip on a virtual playhead and report where playback stopped.
The playhead has no decoder; it advances by --tick and stops at the end of
the selected part exactly as the annotation UI does.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logrus.New()
		log.Out = os.Stderr
		log.Level = logrus.WarnLevel
		store, err := db.NewFileStore(previewFlags.dataDir)
		if err != nil {
			return err
		}
		ss, err := qa.Open(store, args[0], log)
		if err != nil {
			return err
		}
		var q *qa.QA
		err = ss.View(func(d *qa.Dataset) (err error) {
			q, err = d.Get(args[1])
			return err
		})
		if err != nil {
			return err
		}
		src := q.VideoName
		if previewFlags.videoDir != "" {
			if p, err := video.New(previewFlags.videoDir, log).Find(q.VideoName, q.Perspective()); err == nil {
				src = p
			}
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return preview(ctx, cmd.OutOrStdout(), q, qa.Part(previewFlags.part), src)
	},
}

func init() {
	f := previewCmd.Flags()
	f.StringVar(&previewFlags.part, "part", string(qa.Directed), "clip part: full, first, second or directed")
	f.StringVar(&previewFlags.dataDir, "data-dir", "data", "directory holding dataset files")
	f.StringVar(&previewFlags.videoDir, "video-dir", "", "resolve the QA's video file in this directory")
	f.DurationVar(&previewFlags.tick, "tick", 100*time.Millisecond, "playhead position update interval")
	f.BoolVar(&previewFlags.realtime, "realtime", false, "advance the playhead in real time")
	f.BoolVarP(&previewFlags.verbose, "verbose", "v", false, "print every position update")
}

func preview(ctx context.Context, out io.Writer, q *qa.QA, part qa.Part, src string) error {
	iv, err := q.Clip(part)
	if err != nil {
		return err
	}
	tick := previewFlags.tick
	if tick <= 0 {
		return fmt.Errorf("tick must be positive")
	}

	ph := clip.NewPlayhead(src, 0)
	if previewFlags.verbose {
		cancel := ph.OnPositionChange(func(pos float64) {
			fmt.Fprintf(out, "  %s\n", timecode.Format(pos))
		})
		defer cancel()
	}
	ctl := clip.NewController()
	fmt.Fprintf(out, "%s %s: playing %s from %s to %s\n",
		q.ID, part, src, timecode.Format(iv.Start), timecode.Format(iv.End))
	if err := ctl.PlayInterval(ph, iv); err != nil {
		return err
	}

	if previewFlags.realtime {
		if err := ph.Run(ctx, tick); err != nil {
			ctl.Stop()
			return err
		}
	} else {
		for ph.Advance(tick.Seconds()) {
		}
	}
	fmt.Fprintf(out, "stopped at %s (%s)\n", timecode.Format(ph.Position()), ctl.State())
	return nil
}
