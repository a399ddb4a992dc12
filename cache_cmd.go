package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/learnlink/learnlink/internal/cache"
	"github.com/learnlink/learnlink/internal/trainer"
	"github.com/learnlink/learnlink/tts"
	"github.com/learnlink/learnlink/tts/engines"
)

var (
	warmJobs int

	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Inspect or manage the synthesized audio cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cacheStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show cache location and size",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return withCache(func(_ tts.Config, m *cache.Manager) error {
				printCacheStats(m.Stats())
				return nil
			})
		},
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached clip",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return withCache(func(_ tts.Config, m *cache.Manager) error {
				before := m.Stats().Disk
				if err := m.Clear(); err != nil {
					return err
				}
				fmt.Printf("Removed %d clips (%s) from %s\n",
					before.Entries, humanize.Bytes(uint64(before.Bytes)), m.Stats().Dir) //nolint:gosec
				return nil
			})
		},
	}

	cacheWarmCmd = &cobra.Command{
		Use:   "warm",
		Short: "Synthesize the alphabet and sound examples ahead of time",
		Long: paragraph(fmt.Sprintf("\nSynthesize every letter name, letter sound and example sentence with the configured engine so the trainer %s.",
			keyword("answers instantly"))),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCache(func(cfg tts.Config, m *cache.Manager) error {
				if cfg.Engine == tts.EngineMock {
					return errors.New("the mock engine produces no audio: choose another one with --engine")
				}
				synth, err := engines.NewSynthesizer(cfg, engines.Options{Logger: log.Default()})
				if err != nil {
					return err
				}
				warmed, skipped, err := warmCache(cmd.Context(), m.Wrap(synth), warmClips(), warmJobs)
				if err != nil {
					return err
				}
				m.Flush()
				fmt.Printf("Synthesized %d clips, %d were already cached\n", warmed, skipped)
				printCacheStats(m.Stats())
				return nil
			})
		},
	}
)

// clip is one piece of text the trainer speaks with a fixed voice.
type clip struct {
	text  string
	voice tts.VoiceParams
}

// warmClips lists what the trainer says most often.
func warmClips() []clip {
	clips := make([]clip, 0, 2*len(trainer.Alphabet)+2*len(trainer.Sounds))
	for _, l := range trainer.Alphabet {
		clips = append(clips,
			clip{l.Name, trainer.NameVoice},
			clip{l.Sound, trainer.SoundVoice},
		)
	}
	for _, s := range trainer.Sounds {
		clips = append(clips,
			clip{s.ExampleWord, trainer.WordVoice},
			clip{s.ExampleSentence, trainer.SentenceVoice},
		)
	}
	return clips
}

// warmCache synthesizes every clip not yet cached, at most jobs at a time.
func warmCache(ctx context.Context, synth *cache.Synthesizer, clips []clip, jobs int) (warmed, skipped int64, err error) {
	if jobs < 1 {
		jobs = 1
	}
	var w, s atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, c := range clips {
		if synth.Cached(c.text, c.voice) {
			s.Add(1)
			continue
		}
		g.Go(func() error {
			if _, err := synth.Synthesize(ctx, c.text, c.voice); err != nil {
				return fmt.Errorf("%q: %w", c.text, err)
			}
			w.Add(1)
			return nil
		})
	}
	err = g.Wait()
	return w.Load(), s.Load(), err
}

func printCacheStats(s cache.Summary) {
	fmt.Printf("%s %s\n", keyword("Directory:"), s.Dir)
	fmt.Printf("%s %d clips, %s", keyword("Disk:"), s.Disk.Entries, humanize.Bytes(uint64(s.Disk.Bytes))) //nolint:gosec
	if s.Disk.Capacity > 0 {
		fmt.Printf(" of %s", humanize.Bytes(uint64(s.Disk.Capacity))) //nolint:gosec
	}
	fmt.Println()
	if s.Pruned > 0 {
		fmt.Printf("%s %d expired clips removed\n", keyword("Pruned:"), s.Pruned)
	}
	if total := s.Memory.Hits + s.Disk.Hits + s.Disk.Misses; total > 0 {
		fmt.Printf("%s %.0f%% of %d lookups\n", keyword("Hit rate:"), 100*s.HitRate(), total)
	}
}

// withCache opens the configured cache, even when caching is disabled for
// playback, for the duration of fn.
func withCache(fn func(tts.Config, *cache.Manager) error) error {
	cfg, err := loadSpeechConfig()
	if err != nil {
		return err
	}
	m, err := cache.NewManager(cfg.Cache, log.Default().WithPrefix("cache"))
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close audio cache", "error", err)
		}
	}()
	return fn(cfg, m)
}

func init() {
	cacheWarmCmd.Flags().IntVarP(&warmJobs, "jobs", "j", 4, "number of clips synthesized at once")
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd, cacheWarmCmd)
}
