package report_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"profscreen/internal/report"
	"profscreen/internal/segment"
	"profscreen/internal/services"
)

func sampleReport(t *testing.T) *report.Report {
	t.Helper()
	rep := &report.Report{RunID: "run-1", Language: "en", WindowMs: 5000}
	rows := []struct {
		seg   segment.Segment
		text  string
		label int
	}{
		{segment.Segment{Index: 0, StartMs: 0, EndMs: 5000}, "hello, world", 0},
		{segment.Segment{Index: 1, StartMs: 5000, EndMs: 10000}, `he said "damn"`, 1},
		{segment.Segment{Index: 2, StartMs: 10000, EndMs: 12000}, "", 0},
	}
	for _, row := range rows {
		if err := rep.Append(report.NewRecord(row.seg, row.text, row.label)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	return rep
}

func TestSaveReadRoundTrip(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "nested", "out", "report.csv")
	rep := sampleReport(t)

	if err := report.Save(rep, dest); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read saved report: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if lines[0] != "segment,text,label" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != `0.0s - 5.0s,"hello, world",0` {
		t.Fatalf("unexpected first row %q", lines[1])
	}

	loaded, err := report.Read(dest)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if loaded.Len() != rep.Len() {
		t.Fatalf("expected %d records, got %d", rep.Len(), loaded.Len())
	}
	for i := range rep.Records {
		if loaded.Records[i] != rep.Records[i] {
			t.Fatalf("record %d = %+v, want %+v", i, loaded.Records[i], rep.Records[i])
		}
	}
	if loaded.FlaggedCount() != 1 || len(loaded.FlaggedRecords()) != 1 {
		t.Fatalf("expected one flagged record, got %d", loaded.FlaggedCount())
	}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(dest), ".report.csv.*.tmp"))
	if len(matches) != 0 {
		t.Fatalf("temporary files left behind: %v", matches)
	}
}

func TestSaveEmptyReportWritesHeaderOnly(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "empty.csv")
	if err := report.Save(&report.Report{}, dest); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "segment,text,label\n" {
		t.Fatalf("unexpected content %q", data)
	}
	loaded, err := report.Read(dest)
	if err != nil || loaded.Len() != 0 {
		t.Fatalf("expected empty report, got %v, %v", loaded, err)
	}
}

func TestSaveOverwritesExistingReport(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "report.csv")
	if err := os.WriteFile(dest, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := report.Save(sampleReport(t), dest); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := report.Read(dest)
	if err != nil || loaded.Len() != 3 {
		t.Fatalf("expected overwritten report, got %v, %v", loaded, err)
	}
}

func TestSaveConcurrentWritersProduceCompleteFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "report.csv")
	rep := sampleReport(t)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- report.Save(rep, dest)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	loaded, err := report.Read(dest)
	if err != nil || loaded.Len() != rep.Len() {
		t.Fatalf("expected intact report, got %v, %v", loaded, err)
	}
}

func TestSavePermissionDeniedKeepsReport(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks are bypassed for root")
	}
	dir := filepath.Join(t.TempDir(), "locked")
	if err := os.Mkdir(dir, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	rep := sampleReport(t)
	dest := filepath.Join(dir, "report.csv")

	if err := report.CheckWritable(dest); !errors.Is(err, services.ErrPermissionDenied) {
		t.Fatalf("CheckWritable: expected ErrPermissionDenied, got %v", err)
	}

	err := report.Save(rep, dest)
	if !errors.Is(err, services.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	var saveErr *report.SaveError
	if !errors.As(err, &saveErr) || !saveErr.PermissionDenied() || saveErr.Path != dest {
		t.Fatalf("expected SaveError for %s, got %v", dest, err)
	}
	if services.IsFatal(err) {
		t.Fatal("save failures must not be fatal")
	}

	retry := filepath.Join(t.TempDir(), "report.csv")
	if err := report.Save(rep, retry); err != nil {
		t.Fatalf("retry Save: %v", err)
	}
	loaded, err := report.Read(retry)
	if err != nil || loaded.Len() != 3 {
		t.Fatalf("expected retried report, got %v, %v", loaded, err)
	}
}

func TestSaveIntoFileParentIsWriteError(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(parent, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	err := report.Save(sampleReport(t), filepath.Join(parent, "report.csv"))
	if !errors.Is(err, services.ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
	if err := report.CheckWritable(filepath.Join(parent, "report.csv")); !errors.Is(err, services.ErrWrite) {
		t.Fatalf("CheckWritable: expected ErrWrite, got %v", err)
	}
}

func TestCheckWritableAcceptsMissingDirectories(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "a", "b", "report.csv")
	if err := report.CheckWritable(dest); err != nil {
		t.Fatalf("CheckWritable: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(dest)); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("CheckWritable must not create directories")
	}
}

func TestReadRejectsBadSchema(t *testing.T) {
	cases := map[string]string{
		"wrong header": "segment,text\n0.0s - 5.0s,hi\n",
		"bad label":    "segment,text,label\n0.0s - 5.0s,hi,2\n",
		"bad range":    "segment,text,label\nfive,hi,0\n",
		"overlap":      "segment,text,label\n0.0s - 5.0s,a,0\n4.0s - 9.0s,b,0\n",
	}
	for name, content := range cases {
		path := filepath.Join(t.TempDir(), "r.csv")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := report.Read(path); !errors.Is(err, services.ErrInvalidConfiguration) {
			t.Errorf("%s: expected schema error, got %v", name, err)
		}
	}

	if _, err := report.Read(filepath.Join(t.TempDir(), "missing.csv")); !errors.Is(err, services.ErrInputNotFound) {
		t.Fatalf("expected ErrInputNotFound, got %v", err)
	}
}

func TestParseRange(t *testing.T) {
	start, end, err := report.ParseRange("10.0s - 12.5s")
	if err != nil || start != 10000 || end != 12500 {
		t.Fatalf("ParseRange = %d, %d, %v", start, end, err)
	}
	if _, _, err := report.ParseRange("5.0s - 1.0s"); err == nil {
		t.Fatal("expected inverted range error")
	}
}

func TestNewRecordNormalizesLabel(t *testing.T) {
	rec := report.NewRecord(segment.Segment{StartMs: 0, EndMs: 3000}, "", 7)
	if rec.Label != 1 || rec.Segment != "0.0s - 3.0s" {
		t.Fatalf("unexpected record %+v", rec)
	}
}
