// Package segment splits normalized text into sentence-level units, carrying
// speaker and timestamp metadata through when present.
package segment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"

	"skillscope/internal/domain"
)

// Segmenter performs sentence boundary detection. The underlying classifier
// is built once and never mutated afterwards, so a Segmenter is safe for
// concurrent use; boundary rules must be registered before that.
type Segmenter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
	rules     []*regexp.Regexp
}

// New creates a Segmenter backed by the trained English sentence classifier.
func New() (*Segmenter, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("loading sentence classifier: %w", err)
	}
	return &Segmenter{tokenizer: tokenizer}, nil
}

// AddBoundaryRule registers an extra delimiter pattern applied before the
// sentence classifier runs. Text is split at every match of the pattern.
func (s *Segmenter) AddBoundaryRule(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("compiling boundary rule %q: %w", pattern, err)
	}
	s.rules = append(s.rules, re)
	return nil
}

// Segment splits text into trimmed, non-empty sentences.
func (s *Segmenter) Segment(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	chunks := []string{text}
	for _, rule := range s.rules {
		var next []string
		for _, chunk := range chunks {
			next = append(next, rule.Split(chunk, -1)...)
		}
		chunks = next
	}

	var result []string
	for _, chunk := range chunks {
		for _, sent := range s.tokenizer.Tokenize(chunk) {
			trimmed := strings.TrimSpace(sent.Text)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
	}
	return result
}

// SegmentWithMetadata splits text into sentences annotated with the given
// speaker label and timestamp. CharStart/CharEnd index into text; repeated
// sentences resolve to distinct positions via a moving cursor.
func (s *Segmenter) SegmentWithMetadata(text, speakerLabel, timestamp string) []domain.Sentence {
	sents := s.Segment(text)
	result := make([]domain.Sentence, 0, len(sents))

	cursor := 0
	for idx, sent := range sents {
		start := cursor
		if rel := strings.Index(text[cursor:], sent); rel >= 0 {
			start = cursor + rel
		}
		end := start + len(sent)
		cursor = end

		result = append(result, domain.Sentence{
			Text:         sent,
			SpeakerLabel: speakerLabel,
			Timestamp:    timestamp,
			SentenceID:   idx,
			CharStart:    start,
			CharEnd:      end,
		})
	}
	return result
}

// SegmentTranscript segments each speaker segment independently and
// re-attaches that segment's speaker and timestamp to every sentence it
// produced. Sentence IDs increase monotonically across the whole document;
// segments that clean down to nothing contribute no sentences.
func (s *Segmenter) SegmentTranscript(segments []domain.TextSegment) []domain.Sentence {
	var all []domain.Sentence
	counter := 0

	for _, seg := range segments {
		cursor := 0
		for _, sent := range s.Segment(seg.Text) {
			start := cursor
			if rel := strings.Index(seg.Text[cursor:], sent); rel >= 0 {
				start = cursor + rel
			}
			end := start + len(sent)
			cursor = end

			all = append(all, domain.Sentence{
				Text:         sent,
				SpeakerLabel: seg.SpeakerLabel,
				Timestamp:    seg.Timestamp,
				SentenceID:   counter,
				CharStart:    start,
				CharEnd:      end,
			})
			counter++
		}
	}
	return all
}

// SegmentBatch segments many independent texts. No state is shared between
// texts beyond the read-only classifier.
func (s *Segmenter) SegmentBatch(texts []string) [][]string {
	results := make([][]string, len(texts))
	for i, text := range texts {
		results[i] = s.Segment(text)
	}
	return results
}

// SentenceCount returns the number of sentences in text.
func (s *Segmenter) SentenceCount(text string) int {
	return len(s.Segment(text))
}
