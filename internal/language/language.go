package language

import (
	"strings"

	"golang.org/x/text/language"
)

// Default is the fallback language for unknown selections.
const Default = "en"

type entry struct {
	code2   string // ISO 639-1
	code3   string // ISO 639-2
	alt3    string // ISO 639-2 bibliographic form, when different
	display string
	word    string
	choice  string // interactive menu number
	tag     language.Tag
}

var languages = []entry{
	{"en", "eng", "", "English", "english", "1", language.English},
	{"es", "spa", "", "Spanish", "spanish", "2", language.Spanish},
	{"de", "deu", "ger", "German", "german", "3", language.German},
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	for i := range languages {
		e := &languages[i]
		switch code {
		case e.code2, e.code3, e.word, e.choice:
			return e
		}
		if e.alt3 != "" && code == e.alt3 {
			return e
		}
	}
	return nil
}

// Supported returns the ISO 639-1 codes accepted for transcription, in menu order.
func Supported() []string {
	codes := make([]string, 0, len(languages))
	for _, e := range languages {
		codes = append(codes, e.code2)
	}
	return codes
}

// Resolve maps a code, name, or menu choice to its ISO 639-1 code. Unknown
// input resolves to Default and ok is false so callers can report the fallback.
func Resolve(code string) (resolved string, ok bool) {
	if e := lookup(code); e != nil {
		return e.code2, true
	}
	return Default, false
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// Tag returns the x/text tag for code, or language.Und when unsupported.
func Tag(code string) language.Tag {
	if e := lookup(code); e != nil {
		return e.tag
	}
	return language.Und
}

// MenuOption is one line of the interactive language menu.
type MenuOption struct {
	Choice  string
	Code    string
	Display string
}

// Menu returns the numbered options shown by the interactive prompt.
func Menu() []MenuOption {
	options := make([]MenuOption, 0, len(languages))
	for _, e := range languages {
		options = append(options, MenuOption{Choice: e.choice, Code: e.code2, Display: e.display})
	}
	return options
}

// Matches reports whether a media language tag such as "eng", "de-DE" or
// "ger" denotes the same supported language as code.
func Matches(tag, code string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	want := lookup(code)
	return want != nil && lookup(tag) == want
}
