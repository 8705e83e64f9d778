package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"profscreen/internal/config"
	"profscreen/internal/history"
	"profscreen/internal/media/extract"
	"profscreen/internal/media/wav"
	"profscreen/internal/pipeline"
	"profscreen/internal/report"
	"profscreen/internal/services"
	"profscreen/internal/transcribe"
)

type fakeExtractor struct {
	durationMs int64
	err        error
	calls      int
	langs      []string
}

func (f *fakeExtractor) Extract(_ context.Context, source, dest, lang string) (extract.Result, error) {
	f.calls++
	f.langs = append(f.langs, lang)
	if f.err != nil {
		return extract.Result{}, f.err
	}
	silence := wav.Silence(wav.SpeechFormat, f.durationMs)
	if err := wav.WriteFile(dest, silence); err != nil {
		return extract.Result{}, err
	}
	return extract.Result{Source: source, Dest: dest}, nil
}

type scriptedEngine struct {
	mu     sync.Mutex
	texts  map[int]string
	fail   map[int]error
	onCall func(idx int)
	calls  int
	langs  []string
}

func (e *scriptedEngine) Name() string { return "scripted" }

func (e *scriptedEngine) Close() error { return nil }

func (e *scriptedEngine) Transcribe(_ context.Context, _ string, lang string) (string, error) {
	e.mu.Lock()
	idx := e.calls
	e.calls++
	e.langs = append(e.langs, lang)
	hook := e.onCall
	e.mu.Unlock()
	if hook != nil {
		hook(idx)
	}
	if err := e.fail[idx]; err != nil {
		return "", err
	}
	return e.texts[idx], nil
}

type engineSource struct {
	engine transcribe.Engine
	calls  int
}

func (s *engineSource) Engine() (transcribe.Engine, error) {
	s.calls++
	return s.engine, nil
}

type recordingObserver struct {
	states  []pipeline.State
	planned int
	done    []report.Record
}

func (o *recordingObserver) StateChanged(state pipeline.State) { o.states = append(o.states, state) }

func (o *recordingObserver) SegmentsPlanned(total int) { o.planned = total }

func (o *recordingObserver) SegmentDone(rec report.Record) { o.done = append(o.done, rec) }

type fixture struct {
	cfg       *config.Config
	extractor *fakeExtractor
	engine    *scriptedEngine
	source    *engineSource
	observer  *recordingObserver
	media     string
	lexicon   string
}

func newFixture(t *testing.T, durationMs int64) *fixture {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(dir, "work")
	cfg.Pipeline.OutputPath = filepath.Join(dir, "out", "labels.csv")
	cfg.Pipeline.LexiconPath = ""

	media := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(media, []byte("not really media"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}
	lexicon := filepath.Join(dir, "lexicon.csv")
	if err := os.WriteFile(lexicon, []byte("Id,Profanity,Severity\n1,damn,1\n2,ass,2\n"), 0o644); err != nil {
		t.Fatalf("write lexicon: %v", err)
	}

	engine := &scriptedEngine{texts: map[int]string{}, fail: map[int]error{}}
	return &fixture{
		cfg:       &cfg,
		extractor: &fakeExtractor{durationMs: durationMs},
		engine:    engine,
		source:    &engineSource{engine: engine},
		observer:  &recordingObserver{},
		media:     media,
		lexicon:   lexicon,
	}
}

func (f *fixture) runner(opts ...pipeline.Option) *pipeline.Runner {
	opts = append([]pipeline.Option{pipeline.WithObserver(f.observer)}, opts...)
	return pipeline.NewRunner(f.cfg, f.extractor, f.source, nil, opts...)
}

func assertWorkDirEmpty(t *testing.T, workDir string) {
	t.Helper()
	entries, err := os.ReadDir(workDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("read work dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected work dir to be empty, found %d entries", len(entries))
	}
}

func TestRunSilentMediaProducesSingleEmptyRow(t *testing.T) {
	f := newFixture(t, 3000)

	rep, err := f.runner().Run(context.Background(), pipeline.Request{
		MediaPath:   f.media,
		LexiconPath: filepath.Join(t.TempDir(), "missing.csv"),
		Language:    "en",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []report.Record{{Segment: "0.0s - 3.0s", StartMs: 0, EndMs: 3000, Text: "", Label: 0}}
	if !reflect.DeepEqual(rep.Records, want) {
		t.Fatalf("records = %+v, want %+v", rep.Records, want)
	}
	if rep.LexiconSize != 0 {
		t.Fatalf("expected empty lexicon, got %d terms", rep.LexiconSize)
	}

	saved, err := report.Read(f.cfg.Pipeline.OutputPath)
	if err != nil {
		t.Fatalf("Read saved report: %v", err)
	}
	if len(saved.Records) != 1 || saved.Records[0].Segment != "0.0s - 3.0s" || saved.Records[0].Text != "" {
		t.Fatalf("unexpected saved records: %+v", saved.Records)
	}
	assertWorkDirEmpty(t, f.cfg.Paths.WorkDir)
}

func TestRunClassifiesEverySegmentInOrder(t *testing.T) {
	f := newFixture(t, 12000)
	f.engine.texts = map[int]string{0: "hello there", 1: "Well, DAMN it!", 2: "a class act"}

	rep, err := f.runner().Run(context.Background(), pipeline.Request{
		MediaPath:   f.media,
		LexiconPath: f.lexicon,
		Language:    "en",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantSegments := []string{"0.0s - 5.0s", "5.0s - 10.0s", "10.0s - 12.0s"}
	wantLabels := []int{0, 1, 0}
	if len(rep.Records) != len(wantSegments) {
		t.Fatalf("expected %d records, got %d", len(wantSegments), len(rep.Records))
	}
	for i, rec := range rep.Records {
		if rec.Segment != wantSegments[i] || rec.Label != wantLabels[i] {
			t.Fatalf("record %d = %+v, want segment %q label %d", i, rec, wantSegments[i], wantLabels[i])
		}
	}
	if rep.Records[1].Text != "Well, DAMN it!" {
		t.Fatalf("expected original casing to be kept, got %q", rep.Records[1].Text)
	}
	if rep.LexiconSize != 2 || rep.Engine != "scripted" || rep.WindowMs != 5000 {
		t.Fatalf("unexpected report metadata: %+v", rep)
	}

	wantStates := []pipeline.State{
		pipeline.StateExtracting,
		pipeline.StateSegmenting,
		pipeline.StateTranscribing,
		pipeline.StateAssembling,
		pipeline.StateSaving,
		pipeline.StateDone,
	}
	if !reflect.DeepEqual(f.observer.states, wantStates) {
		t.Fatalf("states = %v, want %v", f.observer.states, wantStates)
	}
	if f.observer.planned != 3 || len(f.observer.done) != 3 {
		t.Fatalf("observer saw planned=%d done=%d", f.observer.planned, len(f.observer.done))
	}
	if f.source.calls != 1 {
		t.Fatalf("expected engine to be requested once, got %d", f.source.calls)
	}
	assertWorkDirEmpty(t, f.cfg.Paths.WorkDir)
}

func TestRunAbortsOnTranscriptionErrorByDefault(t *testing.T) {
	f := newFixture(t, 12000)
	f.engine.fail = map[int]error{1: errors.New("model crashed")}

	rep, err := f.runner().Run(context.Background(), pipeline.Request{MediaPath: f.media, Language: "en"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected ErrTranscription, got %v", err)
	}
	var terr *transcribe.TranscriptionError
	if !errors.As(err, &terr) || terr.Segment.Label() != "5.0s - 10.0s" {
		t.Fatalf("expected failing segment 5.0s - 10.0s, got %v", err)
	}
	if rep != nil {
		t.Fatalf("expected nil report, got %+v", rep)
	}
	if f.engine.calls != 2 {
		t.Fatalf("expected transcription to stop after 2 calls, got %d", f.engine.calls)
	}
	if _, statErr := os.Stat(f.cfg.Pipeline.OutputPath); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected no output file, stat err = %v", statErr)
	}
	if last := f.observer.states[len(f.observer.states)-1]; last != pipeline.StateAborted {
		t.Fatalf("expected final state ABORTED, got %s", last)
	}
	assertWorkDirEmpty(t, f.cfg.Paths.WorkDir)
}

func TestRunSkipPolicyRecordsEmptySegment(t *testing.T) {
	f := newFixture(t, 12000)
	f.engine.texts = map[int]string{0: "damn", 2: "fine"}
	f.engine.fail = map[int]error{1: errors.New("model crashed")}

	rep, err := f.runner().Run(context.Background(), pipeline.Request{
		MediaPath:   f.media,
		LexiconPath: f.lexicon,
		Language:    "en",
		OnError:     config.OnErrorSkip,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(rep.Records))
	}
	if rep.Records[1].Text != "" || rep.Records[1].Label != 0 {
		t.Fatalf("expected skipped segment to be empty and unflagged, got %+v", rep.Records[1])
	}
	if rep.Skipped != 1 {
		t.Fatalf("expected 1 skipped segment, got %d", rep.Skipped)
	}
	if rep.FlaggedCount() != 1 {
		t.Fatalf("expected 1 flagged segment, got %d", rep.FlaggedCount())
	}
}

func TestRunMissingMediaFailsBeforeWork(t *testing.T) {
	f := newFixture(t, 3000)

	_, err := f.runner().Run(context.Background(), pipeline.Request{
		MediaPath: filepath.Join(t.TempDir(), "nope.mp4"),
	})
	if !errors.Is(err, services.ErrInputNotFound) {
		t.Fatalf("expected ErrInputNotFound, got %v", err)
	}
	if f.extractor.calls != 0 || f.source.calls != 0 {
		t.Fatalf("expected no extraction or engine use, got extract=%d engine=%d", f.extractor.calls, f.source.calls)
	}

	_, err = f.runner().Run(context.Background(), pipeline.Request{MediaPath: t.TempDir()})
	if !errors.Is(err, services.ErrInputNotFound) {
		t.Fatalf("expected ErrInputNotFound for a directory, got %v", err)
	}
	_, err = f.runner().Run(context.Background(), pipeline.Request{})
	if !errors.Is(err, services.ErrInputNotFound) {
		t.Fatalf("expected ErrInputNotFound for an empty path, got %v", err)
	}
}

func TestRunRejectsInvalidRequest(t *testing.T) {
	f := newFixture(t, 3000)
	cases := []pipeline.Request{
		{MediaPath: f.media, OnError: "retry"},
		{MediaPath: f.media, WindowMs: -5},
	}
	for _, req := range cases {
		if _, err := f.runner().Run(context.Background(), req); !errors.Is(err, services.ErrInvalidConfiguration) {
			t.Fatalf("request %+v: expected ErrInvalidConfiguration, got %v", req, err)
		}
	}
}

func TestRunLexiconWithoutColumnFails(t *testing.T) {
	f := newFixture(t, 3000)
	bad := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(bad, []byte("Word\ndamn\n"), 0o644); err != nil {
		t.Fatalf("write lexicon: %v", err)
	}
	_, err := f.runner().Run(context.Background(), pipeline.Request{MediaPath: f.media, LexiconPath: bad})
	if !errors.Is(err, services.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
	if f.extractor.calls != 0 {
		t.Fatal("expected extraction to be skipped")
	}
}

func TestRunUnsupportedLanguageFallsBackToEnglish(t *testing.T) {
	f := newFixture(t, 3000)

	rep, err := f.runner().Run(context.Background(), pipeline.Request{MediaPath: f.media, Language: "fr"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Language != "en" {
		t.Fatalf("expected fallback to en, got %q", rep.Language)
	}
	if len(f.engine.langs) != 1 || f.engine.langs[0] != "en" {
		t.Fatalf("engine languages = %v", f.engine.langs)
	}
	if len(f.extractor.langs) != 1 || f.extractor.langs[0] != "en" {
		t.Fatalf("extractor languages = %v", f.extractor.langs)
	}
}

func TestRunExtractionFailureCleansUp(t *testing.T) {
	f := newFixture(t, 3000)
	f.extractor.err = services.Wrap(services.ErrMediaDecode, "extracting", "ffmpeg", f.media, errors.New("exit status 1"))

	_, err := f.runner().Run(context.Background(), pipeline.Request{MediaPath: f.media})
	if !errors.Is(err, services.ErrMediaDecode) {
		t.Fatalf("expected ErrMediaDecode, got %v", err)
	}
	if f.source.calls != 0 {
		t.Fatal("engine must not start when extraction fails")
	}
	assertWorkDirEmpty(t, f.cfg.Paths.WorkDir)
}

func TestRunUnusableWorkDirIsFatal(t *testing.T) {
	f := newFixture(t, 3000)
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	f.cfg.Paths.WorkDir = filepath.Join(blocker, "work")
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	rep, err := f.runner(pipeline.WithHistory(store)).Run(context.Background(), pipeline.Request{MediaPath: f.media})
	if !errors.Is(err, services.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
	if !services.IsFatal(err) || rep != nil {
		t.Fatalf("expected fatal error without a report, got fatal=%v report=%v", services.IsFatal(err), rep)
	}
	if f.extractor.calls != 0 {
		t.Fatal("extraction must not run without a work directory")
	}
	runs, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 || runs[0].ErrorKind != "InvalidConfiguration" || runs[0].State != string(pipeline.StateAborted) {
		t.Fatalf("unexpected history: %+v", runs)
	}
}

func TestRunZeroDurationProducesEmptyReport(t *testing.T) {
	f := newFixture(t, 0)

	rep, err := f.runner().Run(context.Background(), pipeline.Request{MediaPath: f.media})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Len() != 0 || f.engine.calls != 0 {
		t.Fatalf("expected empty report without engine calls, got %d rows / %d calls", rep.Len(), f.engine.calls)
	}
	saved, err := report.Read(f.cfg.Pipeline.OutputPath)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if saved.Len() != 0 {
		t.Fatalf("expected header-only file, got %d rows", saved.Len())
	}
}

func TestRunCancellationAbortsEvenWhenSkipping(t *testing.T) {
	f := newFixture(t, 12000)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.engine.fail = map[int]error{0: errors.New("interrupted")}
	f.engine.onCall = func(int) { cancel() }

	rep, err := f.runner().Run(ctx, pipeline.Request{MediaPath: f.media, OnError: config.OnErrorSkip})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if rep != nil {
		t.Fatal("expected nil report after cancellation")
	}
	if f.engine.calls != 1 {
		t.Fatalf("expected a single engine call, got %d", f.engine.calls)
	}
	assertWorkDirEmpty(t, f.cfg.Paths.WorkDir)
}

func TestRunSaveFailureReturnsAssembledReport(t *testing.T) {
	f := newFixture(t, 7000)
	f.engine.texts = map[int]string{0: "one", 1: "two"}
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	rep, err := f.runner().Run(context.Background(), pipeline.Request{
		MediaPath:  f.media,
		OutputPath: filepath.Join(blocker, "out.csv"),
	})
	if err == nil {
		t.Fatal("expected save error")
	}
	if services.IsFatal(err) {
		t.Fatalf("save failure should not be fatal: %v", err)
	}
	if rep == nil || rep.Len() != 2 || rep.Records[1].Text != "two" {
		t.Fatalf("expected the assembled report to be returned, got %+v", rep)
	}

	retry := filepath.Join(t.TempDir(), "retry.csv")
	if err := report.Save(rep, retry); err != nil {
		t.Fatalf("retry Save: %v", err)
	}
	if f.engine.calls != 2 {
		t.Fatalf("retry must not transcribe again, engine calls = %d", f.engine.calls)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	f := newFixture(t, 12000)
	f.engine.texts = map[int]string{1: "damn"}
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	runner := f.runner(pipeline.WithHistory(store))
	ctx := context.Background()

	rep, err := runner.Run(ctx, pipeline.Request{MediaPath: f.media, LexiconPath: f.lexicon})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, err := store.Get(ctx, rep.RunID)
	if err != nil || got == nil {
		t.Fatalf("Get: run=%v err=%v", got, err)
	}
	if got.State != string(pipeline.StateDone) || got.Segments != 3 || got.Flagged != 1 || got.MediaMs != 12000 {
		t.Fatalf("unexpected history record: %+v", got)
	}
	if !got.Succeeded() || got.Engine != "scripted" || got.Language != "en" {
		t.Fatalf("unexpected history record: %+v", got)
	}

	if _, err := runner.Run(ctx, pipeline.Request{MediaPath: filepath.Join(t.TempDir(), "gone.mp4")}); err == nil {
		t.Fatal("expected failure for missing media")
	}
	runs, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(runs))
	}
	var failed *history.Run
	for i := range runs {
		if runs[i].RunID != rep.RunID {
			failed = &runs[i]
		}
	}
	if failed == nil || failed.State != string(pipeline.StateAborted) || failed.ErrorKind != "InputNotFound" {
		t.Fatalf("unexpected failed record: %+v", failed)
	}
}
