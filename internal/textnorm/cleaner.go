// Package textnorm cleans and normalizes raw transcript and artifact text
// before any downstream pattern matching runs over it.
package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"skillscope/internal/domain"
)

// Options controls which cleaning passes run.
type Options struct {
	RemoveURLs          bool
	RemoveEmails        bool
	RemoveTimestamps    bool
	RemoveSpeakerTags   bool
	NormalizeWhitespace bool
	// PreserveLines keeps line structure intact while collapsing whitespace:
	// newline runs become a single newline instead of a space. Required when
	// speaker tags are kept for later segment extraction.
	PreserveLines   bool
	RemoveStopwords bool
}

// DefaultOptions returns the standard cleaning options: strip URLs, emails and
// timestamps, normalize whitespace, keep speaker tags and stopwords.
func DefaultOptions() Options {
	return Options{
		RemoveURLs:          true,
		RemoveEmails:        true,
		RemoveTimestamps:    true,
		NormalizeWhitespace: true,
	}
}

// smartPunct maps common "smart" punctuation to ASCII equivalents so pattern
// matching downstream is encoding-stable.
var smartPunct = strings.NewReplacer(
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"–", "-", // en dash
	"—", "-", // em dash
	"…", "...", // ellipsis glyph
	" ", " ", // non-breaking space
)

// Cleaner normalizes text for downstream processing. It holds only compiled
// patterns and is safe for concurrent use.
type Cleaner struct {
	url          *regexp.Regexp
	email        *regexp.Regexp
	timestamp    *regexp.Regexp
	speakerTag   *regexp.Regexp
	spaces       *regexp.Regexp
	lineBreaks   *regexp.Regexp
	allSpace     *regexp.Regexp
	specialChars *regexp.Regexp
	bangRuns     *regexp.Regexp
	dotRuns      *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewCleaner creates a Cleaner with all patterns compiled.
func NewCleaner() *Cleaner {
	return &Cleaner{
		url:          regexp.MustCompile(`https?://[^\s]+`),
		email:        regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		timestamp:    regexp.MustCompile(`\[?\d{1,2}:\d{2}(?::\d{2})?\]?`),
		speakerTag:   regexp.MustCompile(`(?m)^[ \t]*([A-Za-z][A-Za-z0-9 .'_-]{0,40}?)[ \t]*:[ \t]*`),
		spaces:       regexp.MustCompile(`[ \t]+`),
		lineBreaks:   regexp.MustCompile(`\n+`),
		allSpace:     regexp.MustCompile(`\s+`),
		specialChars: regexp.MustCompile(`[^\w\s.,!?;:()\[\]"'-]`),
		bangRuns:     regexp.MustCompile(`([!?;,]){2,}`),
		dotRuns:      regexp.MustCompile(`\.{3,}`),
		stopwords:    englishStopwords,
	}
}

// Clean normalizes text according to opts. Unicode is folded to NFC and smart
// punctuation mapped to ASCII before any pattern runs. Pure function over its
// input.
func (c *Cleaner) Clean(text string, opts Options) string {
	if text == "" {
		return ""
	}

	text = norm.NFC.String(text)
	text = smartPunct.Replace(text)

	if opts.RemoveURLs {
		text = c.url.ReplaceAllString(text, " ")
	}
	if opts.RemoveEmails {
		text = c.email.ReplaceAllString(text, " ")
	}
	if opts.RemoveTimestamps {
		text = c.timestamp.ReplaceAllString(text, " ")
	}
	if opts.RemoveSpeakerTags {
		text = c.speakerTag.ReplaceAllString(text, "")
	}

	// Collapse punctuation runs. Ellipses are normalized, not destroyed.
	text = c.dotRuns.ReplaceAllString(text, "...")
	text = c.bangRuns.ReplaceAllString(text, "$1")

	text = c.specialChars.ReplaceAllString(text, " ")

	if opts.NormalizeWhitespace {
		if opts.PreserveLines {
			text = c.lineBreaks.ReplaceAllString(text, "\n")
			text = c.spaces.ReplaceAllString(text, " ")
			lines := strings.Split(text, "\n")
			for i, line := range lines {
				lines[i] = strings.TrimSpace(line)
			}
			text = strings.Join(lines, "\n")
		} else {
			text = c.allSpace.ReplaceAllString(text, " ")
		}
	}

	text = strings.TrimSpace(text)

	if opts.RemoveStopwords {
		words := strings.Fields(text)
		kept := words[:0]
		for _, w := range words {
			if _, ok := c.stopwords[strings.ToLower(w)]; !ok {
				kept = append(kept, w)
			}
		}
		text = strings.Join(kept, " ")
	}

	return text
}

// CleanTranscript cleans transcript text: timestamps go, speaker tags and line
// structure stay so segment extraction can still walk the lines.
func (c *Cleaner) CleanTranscript(text string) string {
	return c.Clean(text, Options{
		RemoveURLs:          true,
		RemoveEmails:        true,
		RemoveTimestamps:    true,
		NormalizeWhitespace: true,
		PreserveLines:       true,
	})
}

// CleanArtifact cleans single-author artifact text (essays, documents).
func (c *Cleaner) CleanArtifact(text string) string {
	return c.Clean(text, Options{
		RemoveURLs:          true,
		RemoveEmails:        true,
		NormalizeWhitespace: true,
	})
}

// ExtractSpeakerSegments scans text line by line for a leading "Name: " label.
// A line without a label continues the previous segment's text, joined with a
// single space; leading continuation lines with no open segment are dropped.
func (c *Cleaner) ExtractSpeakerSegments(text string) []domain.TextSegment {
	var segments []domain.TextSegment

	for _, line := range strings.Split(text, "\n") {
		loc := c.speakerTag.FindStringSubmatchIndex(line)
		if loc != nil {
			speaker := strings.TrimSpace(line[loc[2]:loc[3]])
			content := strings.TrimSpace(line[loc[1]:])
			if content != "" {
				segments = append(segments, domain.TextSegment{
					SpeakerLabel: speaker,
					Text:         content,
				})
			}
			continue
		}
		if len(segments) > 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" {
				last := &segments[len(segments)-1]
				last.Text += " " + trimmed
			}
		}
	}

	return segments
}

// RemoveNoise strips custom noise patterns and collapses the leftover whitespace.
func (c *Cleaner) RemoveNoise(text string, patterns []*regexp.Regexp) string {
	for _, p := range patterns {
		text = p.ReplaceAllString(text, " ")
	}
	return strings.TrimSpace(c.spaces.ReplaceAllString(text, " "))
}
