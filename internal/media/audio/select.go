package audio

import (
	"strconv"
	"strings"

	"profscreen/internal/language"
	"profscreen/internal/media/ffprobe"
)

// Selection describes the audio track chosen for extraction.
type Selection struct {
	Stream ffprobe.Stream
	// Ordinal is the position among audio streams, as used by "-map 0:a:N".
	Ordinal int
	// LanguageMatched is false when no track carried the requested language.
	LanguageMatched bool
	Candidates      int
}

// Found reports whether any audio track was available.
func (s Selection) Found() bool {
	return s.Ordinal >= 0
}

// MapSpec returns the ffmpeg stream specifier for the selection.
func (s Selection) MapSpec() string {
	if s.Ordinal < 0 {
		return "0:a:0"
	}
	return "0:a:" + strconv.Itoa(s.Ordinal)
}

// Label returns a human-readable summary of the selected stream.
func (s Selection) Label() string {
	if !s.Found() {
		return ""
	}
	return formatStreamSummary(s.Stream)
}

// Select returns the best dialogue track for lang among streams.
func Select(streams []ffprobe.Stream, lang string) Selection {
	candidates := buildCandidates(streams, lang)
	if len(candidates) == 0 {
		return Selection{Ordinal: -1}
	}

	pool := candidates.matching()
	matched := len(pool) > 0
	if !matched {
		pool = candidates
	}

	best := pool[0]
	bestScore := score(best)
	for _, cand := range pool[1:] {
		if s := score(cand); s > bestScore {
			best, bestScore = cand, s
		}
	}
	return Selection{
		Stream:          best.stream,
		Ordinal:         best.ordinal,
		LanguageMatched: matched,
		Candidates:      len(candidates),
	}
}

type candidate struct {
	stream     ffprobe.Stream
	ordinal    int
	matches    bool
	commentary bool
}

type candidateList []candidate

func (c candidateList) matching() candidateList {
	var out candidateList
	for _, cand := range c {
		if cand.matches {
			out = append(out, cand)
		}
	}
	return out
}

func buildCandidates(streams []ffprobe.Stream, lang string) candidateList {
	var out candidateList
	ordinal := 0
	for _, stream := range streams {
		if !stream.IsAudio() {
			continue
		}
		out = append(out, candidate{
			stream:     stream,
			ordinal:    ordinal,
			matches:    language.Matches(stream.Language(), lang),
			commentary: isCommentary(stream),
		})
		ordinal++
	}
	return out
}

func score(cand candidate) float64 {
	total := 100.0
	if cand.commentary {
		total -= 50
	}
	if cand.stream.Default() {
		total += 10
	}
	// Earlier tracks win ties.
	total -= float64(cand.ordinal) * 0.1
	return total
}

var commentaryKeywords = []string{"commentary", "director", "descriptive", "audio description", "visually impaired"}

func isCommentary(stream ffprobe.Stream) bool {
	if stream.Disposition["comment"] == 1 || stream.Disposition["visual_impaired"] == 1 {
		return true
	}
	title := stream.Title()
	for _, keyword := range commentaryKeywords {
		if strings.Contains(title, keyword) {
			return true
		}
	}
	return false
}

func formatStreamSummary(stream ffprobe.Stream) string {
	parts := make([]string, 0, 4)
	if lang := stream.Language(); lang != "" {
		parts = append(parts, lang)
	}
	codec := stream.CodecLong
	if codec == "" {
		codec = stream.CodecName
	}
	if codec != "" {
		parts = append(parts, codec)
	}
	if stream.Channels > 0 {
		parts = append(parts, strconv.Itoa(stream.Channels)+"ch")
	}
	if title := strings.TrimSpace(stream.Tags["title"]); title != "" {
		parts = append(parts, title)
	}
	if len(parts) == 0 {
		return "audio"
	}
	return strings.Join(parts, " | ")
}
