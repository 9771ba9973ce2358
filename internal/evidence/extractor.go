// Package evidence locates skill cues inside source documents and turns them
// into citable spans: verbatim excerpts with a "line N" or "page N" location,
// a rationale, and a relevance score.
package evidence

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"skillscope/internal/config"
	"skillscope/internal/domain"
	"skillscope/internal/skill"
)

// Extractor finds and ranks evidence spans. Safe for concurrent use.
type Extractor struct {
	detector *skill.Detector
	cfg      config.EvidenceConfig
}

// NewExtractor creates an Extractor backed by the given cue detector.
func NewExtractor(detector *skill.Detector, cfg config.EvidenceConfig) *Extractor {
	return &Extractor{detector: detector, cfg: cfg}
}

// ExtractFromTranscript collects evidence for one student and one skill from
// a speaker-attributed transcript. Locations are 1-based line numbers in the
// transcript text. Only the student's own sentences are searched; when the
// sentence list carries no utterance for the student, raw transcript lines
// prefixed with the student's name are scanned as a fallback.
func (e *Extractor) ExtractFromTranscript(transcript string, sentencesIn []domain.Sentence, studentID string, s domain.Skill) ([]domain.EvidenceSpan, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("extract evidence for %q: %w", s, domain.ErrUnknownSkill)
	}

	lineStarts := buildLineStarts(transcript)
	var spans []domain.EvidenceSpan

	matched := false
	cursor := 0
	for _, sent := range sentencesIn {
		if !strings.EqualFold(sent.SpeakerID, studentID) {
			continue
		}
		matched = true

		base, sentEnd := locateSentence(transcript, cursor, sent.Text)
		if base < 0 {
			// Utterance cannot be found in the transcript; nothing citable.
			continue
		}
		cursor = sentEnd
		window := transcript[base:sentEnd]
		for _, raw := range e.detector.ExtractSpans(sent.Text, s, e.cfg.MaxSpans) {
			idx := strings.Index(window, raw.Text)
			if idx < 0 {
				// The cue crosses a reflowed line break.
				continue
			}
			span := rawToSpan(raw, s, sent.Text)
			span.StartChar = base + idx
			span.EndChar = base + idx + len(raw.Text)
			span.Location = fmt.Sprintf("line %d", lineOf(lineStarts, span.StartChar))
			spans = append(spans, span)
		}
	}

	if !matched {
		spans = e.scanRawLines(transcript, lineStarts, studentID, s)
	}

	spans = dedupe(spans)
	rank(spans)
	return truncate(spans, e.cfg.MaxSpans), nil
}

// ExtractFromArtifact collects evidence for one skill from student-authored
// prose. Locations are synthetic page numbers derived from a fixed words-per-
// page size, and each span carries a context window around the match.
func (e *Extractor) ExtractFromArtifact(text string, s domain.Skill) ([]domain.EvidenceSpan, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("extract evidence for %q: %w", s, domain.ErrUnknownSkill)
	}

	wordStarts := buildWordStarts(text)
	var spans []domain.EvidenceSpan
	for _, raw := range e.detector.ExtractSpans(text, s, e.cfg.MaxSpans) {
		span := rawToSpan(raw, s, text)
		span.StartChar = raw.Start
		span.EndChar = raw.End
		span.Location = fmt.Sprintf("page %d", e.pageOf(wordStarts, raw.Start))
		span.Context = e.contextWindow(text, raw.Start, raw.End)
		spans = append(spans, span)
	}

	spans = dedupe(spans)
	rank(spans)
	return truncate(spans, e.cfg.MaxSpans), nil
}

// BatchExtractEvidence collects evidence for every skill at once, a few spans
// per skill. The result always has an entry for all five skills.
func (e *Extractor) BatchExtractEvidence(transcript string, sentencesIn []domain.Sentence, studentID string) (map[domain.Skill][]domain.EvidenceSpan, error) {
	out := make(map[domain.Skill][]domain.EvidenceSpan, len(domain.AllSkills))
	for _, s := range domain.AllSkills {
		spans, err := e.ExtractFromTranscript(transcript, sentencesIn, studentID, s)
		if err != nil {
			return nil, err
		}
		out[s] = truncate(spans, e.cfg.MaxPerSkillBulk)
	}
	return out, nil
}

// scanRawLines is the fallback when diarization produced no sentences for the
// student: lines beginning with the student's name are searched directly.
func (e *Extractor) scanRawLines(transcript string, lineStarts []int, studentID string, s domain.Skill) []domain.EvidenceSpan {
	prefix := regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(studentID) + `\s*[:,]\s*`)

	var spans []domain.EvidenceSpan
	offset := 0
	for _, line := range strings.Split(transcript, "\n") {
		loc := prefix.FindStringIndex(line)
		if loc != nil {
			content := line[loc[1]:]
			base := offset + loc[1]
			for _, raw := range e.detector.ExtractSpans(content, s, e.cfg.MaxSpans) {
				span := rawToSpan(raw, s, content)
				span.StartChar = base + raw.Start
				span.EndChar = base + raw.End
				span.Location = fmt.Sprintf("line %d", lineOf(lineStarts, span.StartChar))
				spans = append(spans, span)
			}
		}
		offset += len(line) + 1
	}
	return spans
}

func (e *Extractor) contextWindow(text string, start, end int) string {
	ctxStart := start - e.cfg.ContextChars
	if ctxStart < 0 {
		ctxStart = 0
	}
	ctxEnd := end + e.cfg.ContextChars
	if ctxEnd > len(text) {
		ctxEnd = len(text)
	}
	window := text[ctxStart:ctxEnd]
	if ctxStart > 0 {
		window = "..." + window
	}
	if ctxEnd < len(text) {
		window += "..."
	}
	return window
}

// pageOf maps a byte offset to a 1-based synthetic page number. Offsets past
// the last word land on the last page.
func (e *Extractor) pageOf(wordStarts []int, offset int) int {
	if len(wordStarts) == 0 || e.cfg.WordsPerPage <= 0 {
		return 1
	}
	idx := sort.Search(len(wordStarts), func(i int) bool { return wordStarts[i] > offset })
	if idx > 0 {
		idx--
	}
	return idx/e.cfg.WordsPerPage + 1
}

func rawToSpan(raw skill.RawSpan, s domain.Skill, context string) domain.EvidenceSpan {
	return domain.EvidenceSpan{
		Text:              raw.Text,
		Rationale:         raw.Rationale,
		ScoreContribution: round3(raw.Relevance()),
		Skill:             s,
		SpanType:          domain.SpanType(raw.Type),
		StartChar:         raw.Start,
		EndChar:           raw.End,
		Context:           context,
	}
}

// dedupe drops overlapping spans, keeping the higher-scoring one. Input order
// does not matter; output is ordered by StartChar.
func dedupe(spans []domain.EvidenceSpan) []domain.EvidenceSpan {
	if len(spans) < 2 {
		return spans
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].StartChar < spans[j].StartChar })

	kept := spans[:1]
	for _, span := range spans[1:] {
		last := &kept[len(kept)-1]
		if span.Overlaps(*last) {
			if span.ScoreContribution > last.ScoreContribution {
				*last = span
			}
			continue
		}
		kept = append(kept, span)
	}
	return kept
}

// rank orders spans by relevance, breaking ties toward longer excerpts.
func rank(spans []domain.EvidenceSpan) {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].ScoreContribution != spans[j].ScoreContribution {
			return spans[i].ScoreContribution > spans[j].ScoreContribution
		}
		return len(spans[i].Text) > len(spans[j].Text)
	})
}

func truncate(spans []domain.EvidenceSpan, max int) []domain.EvidenceSpan {
	if max > 0 && len(spans) > max {
		return spans[:max]
	}
	return spans
}

// buildLineStarts returns the byte offset of each 1-based line's first byte.
// locateSentence finds sent inside transcript at or after cursor and returns
// its start and end offsets, or -1 when absent. Speaker segmentation joins
// continuation lines with a single space, so an utterance may not occur
// verbatim; the fallback match lets each space in the sentence stand for any
// whitespace run.
func locateSentence(transcript string, cursor int, sent string) (int, int) {
	rest := transcript[cursor:]
	if idx := strings.Index(rest, sent); idx >= 0 {
		return cursor + idx, cursor + idx + len(sent)
	}

	fields := strings.Fields(sent)
	if len(fields) == 0 {
		return -1, -1
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = regexp.QuoteMeta(f)
	}
	loc := regexp.MustCompile(strings.Join(quoted, `\s+`)).FindStringIndex(rest)
	if loc == nil {
		return -1, -1
	}
	return cursor + loc[0], cursor + loc[1]
}

func buildLineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func lineOf(lineStarts []int, offset int) int {
	idx := sort.Search(len(lineStarts), func(i int) bool { return lineStarts[i] > offset })
	return idx
}

func buildWordStarts(text string) []int {
	var starts []int
	inWord := false
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case ' ', '\t', '\n', '\r':
			inWord = false
		default:
			if !inWord {
				starts = append(starts, i)
				inWord = true
			}
		}
	}
	return starts
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
