package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"profscreen/internal/config"
	"profscreen/internal/history"
	"profscreen/internal/language"
	"profscreen/internal/logging"
	"profscreen/internal/pipeline"
	"profscreen/internal/report"
	"profscreen/internal/services"
	"profscreen/internal/staging"
	"profscreen/internal/transcribe"
)

type scanOptions struct {
	lexicon    string
	language   string
	output     string
	windowMs   int64
	engine     string
	onError    string
	json       bool
	noProgress bool
	windowSet  bool
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var opts scanOptions

	cmd := &cobra.Command{
		Use:   "scan [MEDIA]",
		Short: "Transcribe a media file and flag segments containing lexicon terms",
		Long: `Extract the audio of MEDIA, split it into fixed windows, transcribe each
window and label it 1 when it contains a term from the lexicon.

The report is written as CSV with the columns segment,text,label. When MEDIA
or the lexicon is omitted on an interactive terminal, profscreen asks for them.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var media string
			if len(args) == 1 {
				media = args[0]
			}
			opts.windowSet = cmd.Flags().Changed("window-ms")
			return runScan(cmd, ctx, media, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.lexicon, "lexicon", "l", "", "CSV file with a Profanity column")
	flags.StringVarP(&opts.language, "language", "L", "", "Spoken language: en, es or de")
	flags.StringVarP(&opts.output, "output", "o", "", "Report destination (default from config)")
	flags.Int64Var(&opts.windowMs, "window-ms", 0, "Segment length in milliseconds (default from config)")
	flags.StringVar(&opts.engine, "engine", "", "Transcription engine: whisperx or openai")
	flags.StringVar(&opts.onError, "on-error", "", "Segment failure policy: abort or skip")
	flags.BoolVar(&opts.json, "json", false, "Print a JSON run summary")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

func runScan(cmd *cobra.Command, ctx *commandContext, media string, opts scanOptions) error {
	baseCfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	cfg := *baseCfg
	if engine := strings.ToLower(strings.TrimSpace(opts.engine)); engine != "" {
		if engine != config.EngineWhisperX && engine != config.EngineOpenAI {
			return services.Wrap(services.ErrInvalidConfiguration, "scan", "engine",
				fmt.Sprintf("unknown engine %q (want %s or %s)", engine, config.EngineWhisperX, config.EngineOpenAI), nil)
		}
		cfg.Transcription.Engine = engine
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	interactive := ctx.interactive(cmd.InOrStdin())
	ask := newPrompter(cmd.InOrStdin(), errOut)

	req, err := buildScanRequest(&cfg, ask, interactive, media, opts, cmd.Flags().Changed("language"))
	if err != nil {
		return err
	}
	if err := ctx.checkDeps(&cfg); err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = services.WithRequestID(runCtx, uuid.NewString())

	if hours := cfg.Pipeline.StaleWorkHours; hours > 0 {
		cleaned := staging.CleanStale(runCtx, cfg.Paths.WorkDir, time.Duration(hours)*time.Hour, logger)
		if n := len(cleaned.Removed); n > 0 {
			logger.Info("removed stale run directories", logging.Int("count", n))
		}
	}

	runnerOpts := []pipeline.Option{}
	if strings.TrimSpace(cfg.Paths.HistoryDB) != "" {
		store, err := history.Open(cfg.Paths.HistoryDB)
		if err != nil {
			logging.WarnWithContext(logger, "run history unavailable", "history_unavailable",
				logging.String("path", cfg.Paths.HistoryDB),
				logging.Error(err),
				logging.String(logging.FieldImpact, "this run will not appear in `profscreen history`"),
			)
		} else {
			defer store.Close()
			runnerOpts = append(runnerOpts, pipeline.WithHistory(store))
		}
	}
	if !opts.json && !opts.noProgress && isTerminalWriter(errOut) {
		runnerOpts = append(runnerOpts, pipeline.WithObserver(newProgressObserver(errOut)))
	}

	provider := transcribe.NewProvider(ctx.newEngine(&cfg, logger))
	defer func() {
		if err := provider.Close(); err != nil {
			logger.Warn("transcription engine shutdown failed", logging.Error(err))
		}
	}()

	runner := pipeline.NewRunner(&cfg, ctx.newExtractor(&cfg, logger), provider, logger, runnerOpts...)
	started := time.Now()
	rep, runErr := runner.Run(runCtx, req)
	if runErr != nil && (rep == nil || services.IsFatal(runErr)) {
		return runErr
	}

	output := req.OutputPath
	if runErr != nil {
		output, runErr = recoverSave(out, errOut, ask, interactive, !opts.json, rep, req.OutputPath, runErr)
	}
	elapsed := time.Since(started)

	if opts.json {
		if err := writeJSON(cmd, newScanSummary(rep, output, runErr, elapsed)); err != nil {
			return err
		}
		return runErr
	}
	if runErr == nil {
		printScanSummary(out, rep, output, elapsed)
	}
	return runErr
}

// buildScanRequest merges flags, configuration and interactive answers.
func buildScanRequest(cfg *config.Config, ask *prompter, interactive bool, media string, opts scanOptions, languageSet bool) (pipeline.Request, error) {
	var err error
	if opts.windowSet && opts.windowMs <= 0 {
		return pipeline.Request{}, services.Wrap(services.ErrInvalidConfiguration, "scan", "window",
			fmt.Sprintf("--window-ms must be positive, got %d", opts.windowMs), nil)
	}
	media = strings.TrimSpace(media)
	if media == "" && interactive {
		if media, err = ask.ask("Enter the path to the media file: "); err != nil {
			return pipeline.Request{}, err
		}
	}
	if media == "" {
		return pipeline.Request{}, services.Wrap(services.ErrInputNotFound, "scan", "media",
			"no media file given (pass MEDIA or run interactively)", nil)
	}

	lexiconPath := strings.TrimSpace(opts.lexicon)
	if lexiconPath == "" {
		lexiconPath = cfg.Pipeline.LexiconPath
	}
	if lexiconPath == "" && interactive {
		if lexiconPath, err = ask.ask("Enter the path to the profanity list CSV: "); err != nil {
			return pipeline.Request{}, err
		}
	}

	lang := strings.TrimSpace(opts.language)
	if !languageSet && interactive {
		if lang, err = ask.askLanguage(); err != nil {
			return pipeline.Request{}, err
		}
	}
	if lang == "" {
		lang = cfg.Pipeline.Language
	}

	output := strings.TrimSpace(opts.output)
	if output == "" {
		output = cfg.Pipeline.OutputPath
	}

	req := pipeline.Request{
		Language: lang,
		WindowMs: opts.windowMs,
		OnError:  opts.onError,
	}
	for _, p := range []struct {
		dst *string
		src string
	}{
		{&req.MediaPath, media},
		{&req.LexiconPath, lexiconPath},
		{&req.OutputPath, output},
	} {
		if *p.dst, err = config.ExpandPath(p.src); err != nil {
			return pipeline.Request{}, services.Wrap(services.ErrInvalidConfiguration, "scan", "path", p.src, err)
		}
	}
	return req, nil
}

// recoverSave handles a report that was computed but could not be written.
// On a terminal the user may name other destinations until one works; a blank
// answer, or a non-interactive session, prints the report so it is not lost.
func recoverSave(out, errOut io.Writer, ask *prompter, interactive, printFallback bool, rep *report.Report, dest string, saveErr error) (string, error) {
	for {
		reason := "could not be written"
		var se *report.SaveError
		if errors.As(saveErr, &se) && se.PermissionDenied() {
			reason = "is not writable (permission denied)"
		}
		fmt.Fprintf(errOut, "Report destination %s %s: %v\n", dest, reason, saveErr)
		if !interactive {
			break
		}
		next, err := ask.ask("Enter another output path (blank to print the report): ")
		if err != nil || next == "" {
			break
		}
		if next, err = config.ExpandPath(next); err != nil {
			saveErr = err
			continue
		}
		if err := report.Save(rep, next); err != nil {
			dest, saveErr = next, err
			continue
		}
		fmt.Fprintf(errOut, "Report saved to %s\n", next)
		return next, nil
	}
	if printFallback {
		fmt.Fprintln(out, renderReport(rep, false))
	}
	return "", saveErr
}

func printScanSummary(out io.Writer, rep *report.Report, output string, elapsed time.Duration) {
	media := time.Duration(rep.DurationMs()) * time.Millisecond
	fmt.Fprintf(out, "Screened %s (%s of %s audio) in %s\n",
		filepath.Base(rep.MediaPath),
		media.Round(100*time.Millisecond),
		language.DisplayName(rep.Language),
		elapsed.Round(time.Millisecond),
	)
	fmt.Fprintf(out, "Segments: %s  Flagged: %s  Skipped: %s\n",
		humanize.Comma(int64(rep.Len())),
		humanize.Comma(int64(rep.FlaggedCount())),
		humanize.Comma(int64(rep.Skipped)),
	)
	if flagged := rep.FlaggedRecords(); len(flagged) > 0 {
		fmt.Fprintln(out, renderReport(rep, true))
	}
	if info, err := os.Stat(output); err == nil {
		fmt.Fprintf(out, "Report: %s (%s)\n", output, humanize.Bytes(uint64(info.Size())))
	} else {
		fmt.Fprintf(out, "Report: %s\n", output)
	}
}
