package lexicon

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/language"

	"profscreen/internal/logging"
	"profscreen/internal/services"
)

// Column is the header name that holds lexicon terms.
const Column = "Profanity"

// LoadResult describes how a lexicon source was consumed.
type LoadResult struct {
	Path string
	// Missing is set when the source does not exist; the lexicon is then empty.
	Missing bool
	Rows    int
	Skipped int
	Terms   int
}

// Load reads terms from the Profanity column of a CSV file.
//
// A missing file is not an error: the returned lexicon is empty and
// LoadResult.Missing is set. A header without the Profanity column fails with
// services.ErrInvalidConfiguration. Rows without a usable value are skipped.
func Load(path string, tag language.Tag, logger *slog.Logger) (*Lexicon, LoadResult, error) {
	logger = logging.NewComponentLogger(logger, "lexicon")
	result := LoadResult{Path: path}
	lex := New(tag)

	if strings.TrimSpace(path) == "" {
		result.Missing = true
		logging.WarnWithContext(logger, "no lexicon configured", "lexicon_missing",
			logging.String(logging.FieldImpact, "no segment will be flagged"),
			logging.String(logging.FieldErrorHint, "pass --lexicon or set pipeline.lexicon_path"),
		)
		return lex, result, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			result.Missing = true
			logging.WarnWithContext(logger, "lexicon file not found", "lexicon_missing",
				logging.String("path", path),
				logging.String(logging.FieldImpact, "no segment will be flagged"),
				logging.String(logging.FieldErrorHint, "check the lexicon path"),
			)
			return lex, result, nil
		}
		return nil, result, services.Wrap(services.ErrInvalidConfiguration, "lexicon", "open", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		logging.WarnWithContext(logger, "lexicon file is empty", "lexicon_empty",
			logging.String("path", path),
			logging.String(logging.FieldImpact, "no segment will be flagged"),
		)
		return lex, result, nil
	}
	if err != nil {
		return nil, result, services.Wrap(services.ErrInvalidConfiguration, "lexicon", "read header", path, err)
	}
	column := columnIndex(header, Column)
	if column < 0 {
		return nil, result, services.Wrap(services.ErrInvalidConfiguration, "lexicon", "schema",
			fmt.Sprintf("%s: missing %q column (found %s)", path, Column, strings.Join(header, ", ")), nil)
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.Rows++
				result.Skipped++
				continue
			}
			return nil, result, services.Wrap(services.ErrInvalidConfiguration, "lexicon", "read", path, err)
		}
		result.Rows++
		if column >= len(record) || strings.TrimSpace(record[column]) == "" {
			result.Skipped++
			continue
		}
		lex.add(record[column])
	}
	lex.sortPhrases()

	result.Terms = lex.Len()
	logger.Info("lexicon loaded",
		logging.String("path", path),
		logging.Int("terms", result.Terms),
		logging.Int("rows", result.Rows),
		logging.Int("skipped", result.Skipped),
	)
	return lex, result, nil
}

func columnIndex(header []string, name string) int {
	for i, field := range header {
		field = strings.TrimPrefix(field, "\ufeff")
		if strings.TrimSpace(field) == name {
			return i
		}
	}
	return -1
}
