package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"

	"profscreen/internal/services"
)

// Read loads a report saved by Save. The header must match Header exactly.
func Read(path string) (*Report, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrInputNotFound, "report", "open", path, err)
		}
		if errors.Is(err, fs.ErrPermission) {
			return nil, services.Wrap(services.ErrPermissionDenied, "report", "open", path, err)
		}
		return nil, services.Wrap(services.ErrWrite, "report", "open", path, err)
	}
	defer file.Close()

	rep, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rep, nil
}

// Decode parses report CSV from r.
func Decode(r io.Reader) (*Report, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Header)

	header, err := reader.Read()
	if err != nil {
		return nil, schemaError("read header", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if !slices.Equal(header, Header) {
		return nil, schemaError(fmt.Sprintf("unexpected header %q, want %q", strings.Join(header, ","), strings.Join(Header, ",")), nil)
	}

	rep := &Report{}
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, schemaError("read row", err)
		}
		rec, err := parseRecord(row)
		if err != nil {
			return nil, schemaError(fmt.Sprintf("line %d", line), err)
		}
		if err := rep.Append(rec); err != nil {
			return nil, schemaError(fmt.Sprintf("line %d", line), err)
		}
	}
	return rep, nil
}

func parseRecord(row []string) (Record, error) {
	label, err := strconv.Atoi(strings.TrimSpace(row[2]))
	if err != nil || (label != 0 && label != 1) {
		return Record{}, fmt.Errorf("label must be 0 or 1, got %q", row[2])
	}
	startMs, endMs, err := ParseRange(row[0])
	if err != nil {
		return Record{}, err
	}
	return Record{Segment: row[0], StartMs: startMs, EndMs: endMs, Text: row[1], Label: label}, nil
}

// ParseRange parses a "{start}s - {end}s" segment label into milliseconds.
func ParseRange(label string) (startMs, endMs int64, err error) {
	left, right, ok := strings.Cut(label, " - ")
	if !ok {
		return 0, 0, fmt.Errorf("malformed segment %q", label)
	}
	start, err := parseSeconds(left)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed segment %q: %w", label, err)
	}
	end, err := parseSeconds(right)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed segment %q: %w", label, err)
	}
	if end < start {
		return 0, 0, fmt.Errorf("segment %q ends before it starts", label)
	}
	return start, end, nil
}

func parseSeconds(value string) (int64, error) {
	value = strings.TrimSuffix(strings.TrimSpace(value), "s")
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if seconds < 0 {
		return 0, fmt.Errorf("negative offset %v", seconds)
	}
	return int64(seconds*1000 + 0.5), nil
}

func schemaError(msg string, err error) error {
	return services.Wrap(services.ErrInvalidConfiguration, "report", "schema", msg, err)
}
