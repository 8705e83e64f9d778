package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"profscreen/internal/config"
	"profscreen/internal/history"
	"profscreen/internal/language"
	"profscreen/internal/lexicon"
	"profscreen/internal/logging"
	"profscreen/internal/media/extract"
	"profscreen/internal/media/wav"
	"profscreen/internal/report"
	"profscreen/internal/segment"
	"profscreen/internal/services"
	"profscreen/internal/staging"
	"profscreen/internal/transcribe"
)

// AudioFileName is the name of the extracted stream inside the run directory.
const AudioFileName = "audio.wav"

// Extractor writes the speech track of a media file as WAV.
type Extractor interface {
	Extract(ctx context.Context, source, dest, lang string) (extract.Result, error)
}

// EngineSource hands out the process-wide transcription engine.
type EngineSource interface {
	Engine() (transcribe.Engine, error)
}

// Recorder persists run outcomes.
type Recorder interface {
	Record(ctx context.Context, run history.Run) (int64, error)
}

// Request describes one screening run. Zero fields fall back to the
// configuration.
type Request struct {
	MediaPath   string
	LexiconPath string
	Language    string
	OutputPath  string
	WindowMs    int64
	OnError     string
}

// Runner executes screening runs.
type Runner struct {
	cfg       *config.Config
	extractor Extractor
	engines   EngineSource
	history   Recorder
	observer  Observer
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// Option customizes a Runner.
type Option func(*Runner)

// WithHistory records every run in rec.
func WithHistory(rec Recorder) Option {
	return func(r *Runner) { r.history = rec }
}

// WithObserver reports progress to obs.
func WithObserver(obs Observer) Option {
	return func(r *Runner) {
		if obs != nil {
			r.observer = obs
		}
	}
}

// NewRunner builds a Runner. The engine source is consulted lazily so a run
// that fails before transcription never starts an engine.
func NewRunner(cfg *config.Config, extractor Extractor, engines EngineSource, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:       cfg,
		extractor: extractor,
		engines:   engines,
		observer:  nopObserver{},
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// run carries the mutable state of one Run call.
type run struct {
	ctx     context.Context
	logger  *slog.Logger
	state   State
	req     Request
	lang    string
	record  history.Run
	started time.Time
}

// Run screens req.MediaPath and saves the report.
//
// On success the saved report is returned. When only the save fails, the
// fully assembled report is returned together with the error so the caller can
// retry elsewhere without recomputing. Every other failure returns a nil
// report.
func (r *Runner) Run(ctx context.Context, req Request) (rep *report.Report, err error) {
	runID := r.newID()
	ctx = services.WithRunID(ctx, runID)
	st := &run{
		ctx:     ctx,
		state:   StateInit,
		started: r.now(),
	}
	st.logger = logging.WithContext(services.WithStage(ctx, StateInit.Stage()), r.logger)
	st.record = history.Run{RunID: runID, StartedAt: st.started}

	defer func() {
		if err != nil {
			r.transition(st, StateAborted)
			r.logFailure(st, err)
		}
		r.recordHistory(st, rep, err)
	}()

	st.req, err = r.resolveRequest(req)
	if err != nil {
		return nil, err
	}
	st.record.MediaPath = st.req.MediaPath
	st.record.LexiconPath = st.req.LexiconPath
	st.record.OutputPath = st.req.OutputPath
	st.record.WindowMs = st.req.WindowMs
	st.record.State = string(StateInit)

	if err := checkMedia(st.req.MediaPath); err != nil {
		return nil, err
	}
	st.lang = r.resolveLanguage(st, st.req.Language)
	st.record.Language = st.lang

	lex, lexResult, err := lexicon.Load(st.req.LexiconPath, language.Tag(st.lang), st.logger)
	if err != nil {
		return nil, err
	}
	st.logger.Info("lexicon loaded",
		logging.String("path", lexResult.Path),
		logging.Int("terms", lex.Len()),
		logging.Int("skipped_rows", lexResult.Skipped),
		logging.Bool("missing", lexResult.Missing),
	)

	r.transition(st, StateExtracting)
	runDir, err := staging.NewRunDir(r.cfg.Paths.WorkDir, runID)
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidConfiguration, "extracting", "work dir",
			"paths.work_dir is not usable: "+r.cfg.Paths.WorkDir, err)
	}
	defer func() {
		if rmErr := os.RemoveAll(runDir); rmErr != nil {
			st.logger.Warn("run directory cleanup failed", logging.String("path", runDir), logging.Error(rmErr))
		}
	}()

	stream, err := r.extractAudio(st, runDir)
	if err != nil {
		return nil, err
	}
	st.record.MediaMs = stream.DurationMs()

	r.transition(st, StateSegmenting)
	segments, err := segment.Split(stream.DurationMs(), st.req.WindowMs)
	if err != nil {
		return nil, err
	}
	total := segment.Count(stream.DurationMs(), st.req.WindowMs)
	st.record.Segments = total
	r.observer.SegmentsPlanned(total)
	if total == 0 {
		logging.WarnWithContext(st.logger, "media contains no audio samples", "empty_media",
			logging.String("media", st.req.MediaPath),
			logging.String(logging.FieldImpact, "the report will contain no rows"),
			logging.String(logging.FieldErrorHint, "check that the selected audio track is not empty"),
		)
	} else {
		st.logger.Info("segments planned",
			logging.Int("segments", total),
			logging.Int64("window_ms", st.req.WindowMs),
			logging.Int64("media_ms", stream.DurationMs()),
		)
	}

	engine, err := r.engine()
	if err != nil {
		return nil, err
	}
	adapter := transcribe.NewAdapter(engine, transcribe.Options{
		WorkDir: runDir,
		Timeout: time.Duration(r.cfg.Transcription.SegmentTimeoutSeconds) * time.Second,
		Logger:  st.logger,
	})
	st.record.Engine = adapter.EngineName()

	assembled := &report.Report{
		RunID:       runID,
		MediaPath:   st.req.MediaPath,
		Language:    st.lang,
		Engine:      adapter.EngineName(),
		WindowMs:    st.req.WindowMs,
		LexiconSize: lex.Len(),
	}

	r.transition(st, StateTranscribing)
	for seg := range segments {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		rec, err := r.screenSegment(st, adapter, lex, stream, seg)
		if err != nil {
			return nil, err
		}
		if err := assembled.Append(rec); err != nil {
			return nil, err
		}
		if rec.Flagged() {
			st.record.Flagged++
		}
		r.observer.SegmentDone(rec)
	}

	r.transition(st, StateAssembling)
	assembled.Skipped = st.record.Skipped
	assembled.CreatedAt = r.now()
	st.logger.Info("report assembled",
		logging.Int("rows", assembled.Len()),
		logging.Int("flagged", assembled.FlaggedCount()),
		logging.Int("skipped", assembled.Skipped),
	)

	r.transition(st, StateSaving)
	if err := report.Save(assembled, st.req.OutputPath); err != nil {
		return assembled, err
	}
	st.logger.Info("report saved", logging.String("path", st.req.OutputPath))

	r.transition(st, StateDone)
	return assembled, nil
}

// screenSegment transcribes and classifies one segment. Under the skip policy
// a transcription failure yields an empty, unflagged record.
func (r *Runner) screenSegment(st *run, adapter *transcribe.Adapter, lex *lexicon.Lexicon, stream *wav.Stream, seg segment.Segment) (report.Record, error) {
	segCtx := services.WithSegment(st.ctx, seg.Label())
	text, err := adapter.Transcribe(segCtx, seg, stream.Slice(seg.StartMs, seg.EndMs), st.lang)
	if err != nil {
		var terr *transcribe.TranscriptionError
		if !errors.As(err, &terr) || st.req.OnError != config.OnErrorSkip {
			return report.Record{}, err
		}
		st.record.Skipped++
		logging.WarnWithContext(logging.WithContext(segCtx, r.logger), "segment transcription failed", "segment_skipped",
			logging.Error(terr.Err),
			logging.String(logging.FieldImpact, "segment recorded as empty and unflagged"),
			logging.String(logging.FieldErrorHint, "set on_error = \"abort\" to stop on the first failure"),
		)
		return report.NewRecord(seg, "", 0), nil
	}
	return report.NewRecord(seg, text, lexicon.Classify(text, lex)), nil
}

func (r *Runner) extractAudio(st *run, runDir string) (*wav.Stream, error) {
	dest := filepath.Join(runDir, AudioFileName)
	result, err := r.extractor.Extract(services.WithStage(st.ctx, StateExtracting.Stage()), st.req.MediaPath, dest, st.lang)
	if err != nil {
		return nil, err
	}
	stream, err := wav.ReadFile(dest)
	if err != nil {
		if ctxErr := st.ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, services.Wrap(services.ErrMediaDecode, "extracting", "decode", st.req.MediaPath, err)
	}
	st.logger.Info("audio extracted",
		logging.String("track", result.Selection.Label()),
		logging.Int64("media_ms", stream.DurationMs()),
		logging.Int("sample_rate", stream.SampleRate()),
	)
	return stream, nil
}

func (r *Runner) engine() (transcribe.Engine, error) {
	if r.engines == nil {
		return nil, services.Wrap(services.ErrInvalidConfiguration, "transcribing", "engine", "no transcription engine configured", nil)
	}
	return r.engines.Engine()
}

func (r *Runner) resolveRequest(req Request) (Request, error) {
	req.MediaPath = strings.TrimSpace(req.MediaPath)
	req.LexiconPath = strings.TrimSpace(req.LexiconPath)
	req.Language = strings.TrimSpace(req.Language)
	req.OutputPath = strings.TrimSpace(req.OutputPath)
	req.OnError = strings.ToLower(strings.TrimSpace(req.OnError))

	if r.cfg != nil {
		if req.LexiconPath == "" {
			req.LexiconPath = r.cfg.Pipeline.LexiconPath
		}
		if req.Language == "" {
			req.Language = r.cfg.Pipeline.Language
		}
		if req.OutputPath == "" {
			req.OutputPath = r.cfg.Pipeline.OutputPath
		}
		if req.WindowMs == 0 {
			req.WindowMs = int64(r.cfg.Pipeline.WindowMs)
		}
		if req.OnError == "" {
			req.OnError = r.cfg.Pipeline.OnError
		}
	}
	if req.WindowMs == 0 {
		req.WindowMs = segment.DefaultWindowMs
	}
	if req.OnError == "" {
		req.OnError = config.OnErrorAbort
	}

	if req.MediaPath == "" {
		return req, services.Wrap(services.ErrInputNotFound, "init", "media", "no media path given", nil)
	}
	if req.OutputPath == "" {
		return req, services.Wrap(services.ErrInvalidConfiguration, "init", "output", "no output path given", nil)
	}
	if req.WindowMs < 0 {
		return req, services.Wrap(services.ErrInvalidConfiguration, "init", "window",
			fmt.Sprintf("window must be positive, got %d ms", req.WindowMs), nil)
	}
	if req.OnError != config.OnErrorAbort && req.OnError != config.OnErrorSkip {
		return req, services.Wrap(services.ErrInvalidConfiguration, "init", "on_error",
			fmt.Sprintf("unknown policy %q (want %s or %s)", req.OnError, config.OnErrorAbort, config.OnErrorSkip), nil)
	}
	if r.cfg == nil || strings.TrimSpace(r.cfg.Paths.WorkDir) == "" {
		return req, services.Wrap(services.ErrInvalidConfiguration, "init", "work dir", "paths.work_dir not configured", nil)
	}
	return req, nil
}

func (r *Runner) resolveLanguage(st *run, code string) string {
	resolved, ok := language.Resolve(code)
	if !ok {
		logging.WarnWithContext(st.logger, "unsupported language, using default", "language_fallback",
			logging.String("requested", code),
			logging.String("language", resolved),
			logging.String(logging.FieldImpact, "segments are transcribed as "+language.DisplayName(resolved)),
			logging.String(logging.FieldErrorHint, "supported: "+strings.Join(language.Supported(), ", ")),
		)
	}
	return resolved
}

func (r *Runner) transition(st *run, next State) {
	if st.state == next || st.state.Terminal() {
		return
	}
	prev := st.state
	st.state = next
	st.record.State = string(next)
	st.logger = logging.WithContext(services.WithStage(st.ctx, next.Stage()), r.logger)
	st.logger.Debug("state changed",
		logging.String("from", string(prev)),
		logging.String("to", string(next)),
	)
	r.observer.StateChanged(next)
}

func (r *Runner) logFailure(st *run, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		st.logger.Warn("run cancelled", logging.Error(err))
		return
	}
	var saveErr *report.SaveError
	if errors.As(err, &saveErr) {
		logging.ErrorWithContext(st.logger, "report could not be saved", "report_save_failed",
			logging.String("path", st.req.OutputPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "transcription results are kept in memory"),
			logging.String(logging.FieldErrorHint, "choose a writable output path"),
		)
		return
	}
	logging.ErrorWithContext(st.logger, "run aborted", "run_aborted",
		logging.String("error_kind", services.Kind(err)),
		logging.Error(err),
	)
}

func (r *Runner) recordHistory(st *run, rep *report.Report, runErr error) {
	if r.history == nil {
		return
	}
	rec := st.record
	rec.FinishedAt = r.now()
	if runErr != nil {
		rec.ErrorKind = services.Kind(runErr)
		if errors.Is(runErr, context.Canceled) {
			rec.ErrorKind = "Cancelled"
		}
		rec.ErrorMessage = runErr.Error()
	}
	if rep != nil {
		rec.Flagged = rep.FlaggedCount()
		rec.Skipped = rep.Skipped
	}
	ctx := context.WithoutCancel(st.ctx)
	if _, err := r.history.Record(ctx, rec); err != nil {
		st.logger.Warn("history record failed", logging.Error(err))
	}
}

func checkMedia(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrInputNotFound, "init", "media", path, nil)
		}
		return services.Wrap(services.ErrInputNotFound, "init", "media", path, err)
	}
	if !info.Mode().IsRegular() {
		return services.Wrap(services.ErrInputNotFound, "init", "media", path+": not a regular file", nil)
	}
	return nil
}
