// Command speechdeck runs a batch of text segments through the synthesis
// scheduler and writes the resulting audio to disk.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"speechdeck/tts"
	"speechdeck/tts/providers"
)

var (
	configFile  string
	providerTag string
	voiceID     string
	outDir      string
	debug       bool
)

var rootCmd = &cobra.Command{
	Use:   "speechdeck [file]",
	Short: "Batch text-to-speech synthesis",
	Long: "Reads text segments (one per line) from a file or stdin, synthesizes\n" +
		"each through the configured provider, and writes the audio to disk.",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runBatch,
}

var voicesCmd = &cobra.Command{
	Use:   "voices [provider]",
	Short: "List the voices the configured providers offer",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runVoices,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.Flags().StringVar(&providerTag, "provider", "", "provider backend (mock, openai, google)")
	rootCmd.Flags().StringVar(&voiceID, "voice", "", "voice identifier")
	rootCmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory for audio files")
	rootCmd.AddCommand(voicesCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	if debug {
		log.SetLevel(log.DebugLevel)
	}

	cfg, rules, err := loadConfig()
	if err != nil {
		return err
	}
	if providerTag == "" {
		providerTag = cfg.DefaultProvider
	}

	registry, err := tts.BuildRegistry(cfg)
	if err != nil {
		return fmt.Errorf("build provider registry: %w", err)
	}

	scheduler, err := tts.NewScheduler(tts.SchedulerConfig{
		Registry:         registry,
		Recorder:         tts.LogRecorder{},
		Rules:            rules,
		SynthesisTimeout: cfg.SynthesisTimeout,
	})
	if err != nil {
		return err
	}

	segments, err := readSegments(args)
	if err != nil {
		return err
	}

	ids := scheduler.Enqueue(segments, tts.Options{Provider: providerTag, VoiceID: voiceID})
	if len(ids) == 0 {
		log.Warn("no non-empty segments to synthesize")
		return nil
	}
	log.Info("batch enqueued", "jobs", len(ids), "provider", providerTag)

	if err := scheduler.Start(cmd.Context()); err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	failed := 0
	for i, job := range scheduler.Jobs() {
		switch job.Status {
		case tts.StatusCompleted:
			path, err := exportJob(scheduler, job, i)
			if err != nil {
				return err
			}
			fmt.Printf("ok   %s  %q -> %s\n", job.ID, preview(job.Text), path)
		case tts.StatusFailed:
			failed++
			fmt.Printf("FAIL %s  %q: %s\n", job.ID, preview(job.Text), job.ErrorMessage)
		default:
			fmt.Printf("%-4s %s  %q\n", job.Status, job.ID, preview(job.Text))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(ids))
	}
	return nil
}

func runVoices(cmd *cobra.Command, args []string) error {
	if debug {
		log.SetLevel(log.DebugLevel)
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	registry, err := tts.BuildRegistry(cfg)
	if err != nil {
		return fmt.Errorf("build provider registry: %w", err)
	}

	names := registry.Names()
	if len(args) == 1 {
		names = args[:1]
	}

	for _, name := range names {
		p, err := registry.Lookup(name)
		if err != nil {
			return err
		}
		voices, err := p.Voices(cmd.Context())
		if err != nil {
			return fmt.Errorf("list %s voices: %w", name, err)
		}
		for _, v := range voices {
			fmt.Printf("%-8s %-28s %-8s %s\n", name, v.ID, v.Language, v.Gender)
		}
	}
	return nil
}

func loadConfig() (tts.Config, []providers.Rule, error) {
	if configFile == "" {
		cfg, err := tts.LoadConfigFromEnv()
		return cfg, nil, err
	}

	viper.SetConfigFile(configFile)
	if err := viper.ReadInConfig(); err != nil {
		return tts.Config{}, nil, fmt.Errorf("read config file: %w", err)
	}
	cfg, err := tts.LoadConfigFromViper()
	if err != nil {
		return cfg, nil, err
	}
	rules, err := tts.LoadGlossaryFromViper()
	if err != nil {
		return cfg, nil, err
	}
	return cfg, rules, nil
}

func readSegments(args []string) ([]string, error) {
	var reader io.Reader = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer f.Close()
		reader = f
	}

	var segments []string
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		segments = append(segments, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read segments: %w", err)
	}
	return segments, nil
}

func exportJob(scheduler *tts.Scheduler, job tts.Job, index int) (string, error) {
	handle, ok := scheduler.Handle(job.ID)
	if !ok {
		return "", fmt.Errorf("missing audio handle for job %s", job.ID)
	}
	data, err := handle.Bytes()
	if err != nil {
		return "", fmt.Errorf("read audio for job %s: %w", job.ID, err)
	}

	path := filepath.Join(outDir, fmt.Sprintf("%03d-%s%s", index+1, job.ID, extension(job.Result.ContentType)))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write audio file: %w", err)
	}
	return path, nil
}

func extension(contentType string) string {
	switch {
	case strings.Contains(contentType, "wav"):
		return ".wav"
	case strings.Contains(contentType, "mpeg"), strings.Contains(contentType, "mp3"):
		return ".mp3"
	case strings.Contains(contentType, "ogg"), strings.Contains(contentType, "opus"):
		return ".ogg"
	default:
		return ".bin"
	}
}

func preview(text string) string {
	const max = 40
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
