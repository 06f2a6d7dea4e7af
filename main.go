// Package main provides the entry point for the revoice CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/tonekit/revoice/internal/audio"
	"github.com/tonekit/revoice/internal/cache"
	"github.com/tonekit/revoice/internal/device"
	"github.com/tonekit/revoice/internal/model"
	"github.com/tonekit/revoice/internal/pipeline"
	"github.com/tonekit/revoice/internal/source"
	"github.com/tonekit/revoice/internal/speaker"
	"github.com/tonekit/revoice/ui"
	"github.com/tonekit/revoice/utils"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile    string
	outputDir     string
	speed         float64
	encodeMessage string
	checkpoints   string
	deviceFlag    string
	offline       bool
	rawInput      bool
	playOutput    bool
	copyOutput    bool
	noProgress    bool

	rootCmd = &cobra.Command{
		Use:   "revoice <text> <language> <reference_file>",
		Short: "Speak text in any voice you have a recording of",
		Long: paragraph(fmt.Sprintf(
			"\nSynthesize speech from text, then %s to match the speaker in a reference recording. Text may be a literal string or a path to a text or markdown file.",
			keyword("re-color its tone"),
		)),
		Example: paragraph(
			"revoice 'Hello there' EN_US samples/alice.wav\n" +
				"revoice notes.md EN_UK samples/bob.mp3 --speed 0.9 -o renders",
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.ExactArgs(3),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	outputDir = viper.GetString("output-dir")
	speed = viper.GetFloat64("speed")
	encodeMessage = viper.GetString("encode-message")
	checkpoints = utils.ExpandPath(viper.GetString("checkpoints"))
	deviceFlag = viper.GetString("device")
	offline = viper.GetBool("offline")

	if _, err := device.Parse(deviceFlag); err != nil {
		return err
	}
	if speed <= 0 {
		return fmt.Errorf("--speed must be positive, got %v", speed)
	}
	return nil
}

func execute(cmd *cobra.Command, args []string) error {
	text, speakerKey, reference := args[0], args[1], args[2]

	resolver := source.Resolver{Raw: rawInput}
	resolved, err := resolver.Resolve(text)
	if err != nil {
		return err
	}
	if strings.TrimSpace(resolved) == "" {
		return errors.New("nothing to say: the resolved text is empty")
	}

	dev, err := device.Parse(deviceFlag)
	if err != nil {
		return err
	}

	loader := &pipeline.CachingLoader{
		Inner: &pipeline.ModelLoader{
			CheckpointRoot: checkpoints,
			Runner:         model.RunnerConfig{Offline: offline},
			Embeddings:     openEmbeddingStore(),
		},
		Cache: cache.NewHandleCache(),
	}

	// The output directory is the caller's side effect, before any model
	// runs.
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	req := pipeline.Request{
		Text:             resolved,
		SpeakerKey:       speakerKey,
		ReferenceAudio:   reference,
		OutputDir:        outputDir,
		Speed:            speed,
		WatermarkMessage: encodeMessage,
		Device:           dev,
	}

	uiCfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	var res *pipeline.Result
	if term.IsTerminal(int(os.Stdout.Fd())) && !noProgress && !uiCfg.NoProgress {
		res, err = runWithProgress(cmd.Context(), loader, req, uiCfg)
	} else {
		res, err = runPlain(cmd.Context(), loader, req)
	}
	if err != nil {
		printGuidance(err)
		return err
	}

	printSuccess(res)

	if copyOutput {
		if err := clipboard.WriteAll(res.OutputPath); err != nil {
			log.Warn("Could not copy output path", "error", err)
		}
	}
	if playOutput {
		if err := audio.PlayFile(cmd.Context(), res.OutputPath); err != nil {
			log.Warn("Playback failed", "error", err)
			fmt.Fprintln(os.Stderr, subtle("Playback failed: "+err.Error()))
		}
	}
	return nil
}

func newPipeline(loader model.Loader, events func(pipeline.Event)) (*pipeline.Pipeline, error) {
	return pipeline.New(pipeline.Config{
		Loader:  loader,
		Catalog: speaker.NewCatalog(checkpoints),
		Events:  events,
	})
}

func runPlain(ctx context.Context, loader model.Loader, req pipeline.Request) (*pipeline.Result, error) {
	p, err := newPipeline(loader, func(e pipeline.Event) {
		log.Debug("Stage", "stage", e.Stage, "detail", e.Detail)
	})
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, req)
}

func runWithProgress(ctx context.Context, loader model.Loader, req pipeline.Request, uiCfg ui.Config) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := ui.NewProgram(uiCfg, firstLine(req.Text))
	p, err := newPipeline(loader, func(e pipeline.Event) {
		prog.Send(ui.StageMsg(e))
	})
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	var (
		res    *pipeline.Result
		runErr error
	)
	go func() {
		defer close(done)
		res, runErr = p.Run(ctx, req)
		if runErr != nil {
			prog.Send(ui.FailedMsg{Err: runErr})
			return
		}
		prog.Send(ui.DoneMsg{Result: res})
	}()

	finalModel, err := prog.Run()
	if err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("unable to run progress view: %w", err)
	}
	if m, ok := finalModel.(ui.Model); ok && m.Aborted() {
		cancel()
		<-done
		return nil, errors.New("canceled")
	}
	<-done
	return res, runErr
}

// openEmbeddingStore opens the on-disk cache for extracted reference
// embeddings. Failures degrade to uncached extraction.
func openEmbeddingStore() model.EmbeddingCache {
	scope := gap.NewScope(gap.User, "revoice")
	dir, err := scope.CacheDir()
	if err != nil {
		log.Warn("No cache directory available", "error", err)
		return nil
	}

	store, err := cache.NewEmbeddingStore(filepath.Join(dir, "embeddings"))
	if err != nil {
		log.Warn("Could not open embedding cache", "error", err)
		return nil
	}
	return store
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func printSuccess(res *pipeline.Result) {
	line := fmt.Sprintf("Wrote %s", keyword(res.OutputPath))
	if info, err := os.Stat(res.OutputPath); err == nil {
		line += subtle(fmt.Sprintf(" (%s", humanize.Bytes(uint64(info.Size()))))
		if res.Audio != nil {
			line += subtle(fmt.Sprintf(", %s", res.Audio.Duration.Round(10*time.Millisecond)))
		}
		line += subtle(")")
	}
	fmt.Println(line)
}

// printGuidance surfaces install or download instructions carried by model
// load failures before cobra prints the error itself.
func printGuidance(err error) {
	var load *model.LoadError
	if errors.As(err, &load) && load.Guidance != "" {
		fmt.Fprintln(os.Stderr, load.Guidance)
	}
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", pipeline.DefaultOutputDir, "directory for converted audio")
	rootCmd.Flags().Float64Var(&speed, "speed", pipeline.DefaultSpeed, "synthesis rate multiplier")
	rootCmd.Flags().StringVar(&encodeMessage, "encode-message", pipeline.DefaultWatermark, "watermark message encoded into the output")
	rootCmd.Flags().StringVar(&checkpoints, "checkpoints", pipeline.DefaultCheckpoint, "pretrained checkpoint root")
	rootCmd.Flags().StringVar(&deviceFlag, "device", string(device.Auto), "compute device (auto, cpu, mps, cuda[:N])")
	rootCmd.Flags().BoolVar(&offline, "offline", true, "keep model runners offline")
	rootCmd.Flags().BoolVar(&rawInput, "raw", false, "treat file input verbatim, no markdown stripping")
	rootCmd.Flags().BoolVar(&playOutput, "play", false, "play the converted audio when done")
	rootCmd.Flags().BoolVar(&copyOutput, "copy", false, "copy the output path to the clipboard")
	rootCmd.Flags().BoolVar(&noProgress, "no-progress", false, "plain output instead of the progress view")

	_ = viper.BindPFlag("output-dir", rootCmd.Flags().Lookup("output-dir"))
	_ = viper.BindPFlag("speed", rootCmd.Flags().Lookup("speed"))
	_ = viper.BindPFlag("encode-message", rootCmd.Flags().Lookup("encode-message"))
	_ = viper.BindPFlag("checkpoints", rootCmd.Flags().Lookup("checkpoints"))
	_ = viper.BindPFlag("device", rootCmd.Flags().Lookup("device"))
	_ = viper.BindPFlag("offline", rootCmd.Flags().Lookup("offline"))

	viper.SetDefault("output-dir", pipeline.DefaultOutputDir)
	viper.SetDefault("speed", pipeline.DefaultSpeed)
	viper.SetDefault("encode-message", pipeline.DefaultWatermark)
	viper.SetDefault("checkpoints", pipeline.DefaultCheckpoint)
	viper.SetDefault("device", string(device.Auto))
	viper.SetDefault("offline", true)

	rootCmd.AddCommand(configCmd, manCmd, speakersCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "revoice")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "revoice")}, dirs...)
	}

	if c := os.Getenv("REVOICE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("revoice")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("revoice")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "revoice.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
