package domain

import "github.com/google/uuid"

// RawDocument is an immutable input document.
type RawDocument struct {
	Text     string         `json:"text"`
	Kind     SourceKind     `json:"kind"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TextSegment is a run of transcript text attributed to one raw speaker label.
type TextSegment struct {
	SpeakerLabel string `json:"speaker"`
	Text         string `json:"text"`
	Timestamp    string `json:"timestamp,omitempty"`
}

// Sentence is a single sentence-level unit with its provenance. CharStart and
// CharEnd index into the segment text that produced the sentence (or the raw
// document text when segmentation ran directly on it); CharStart < CharEnd.
// SpeakerID, SpeakerRole and DiarizationConfidence are attached by the
// speaker resolver.
type Sentence struct {
	Text                  string      `json:"text"`
	SpeakerLabel          string      `json:"speaker"`
	Timestamp             string      `json:"timestamp,omitempty"`
	SentenceID            int         `json:"sentence_id"`
	CharStart             int         `json:"char_start"`
	CharEnd               int         `json:"char_end"`
	SpeakerID             string      `json:"speaker_id,omitempty"`
	SpeakerRole           SpeakerRole `json:"speaker_role,omitempty"`
	DiarizationConfidence float64     `json:"diarization_confidence,omitempty"`
}

// WordCount returns the number of whitespace-delimited words in the sentence.
func (s Sentence) WordCount() int {
	n := 0
	inWord := false
	for _, r := range s.Text {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			inWord = false
		case !inWord:
			inWord = true
			n++
		}
	}
	return n
}

// SpeakerProfile is the canonical identity derived from a raw speaker label.
type SpeakerProfile struct {
	SpeakerID string      `json:"speaker_id"`
	Role      SpeakerRole `json:"role"`
}

// DiarizationRecord is one externally supplied speaker interval.
type DiarizationRecord struct {
	Start      string      `json:"start"`
	End        string      `json:"end"`
	SpeakerID  string      `json:"speaker_id"`
	Role       SpeakerRole `json:"role"`
	Confidence float64     `json:"confidence"`
}

// Turn is one or more consecutive sentences from the same speaker.
type Turn struct {
	SpeakerID     string      `json:"speaker_id"`
	SpeakerRole   SpeakerRole `json:"speaker_role"`
	Text          string      `json:"text"`
	SentenceCount int         `json:"sentence_count"`
	Sentences     []string    `json:"sentences"`
}

// CueMatch is a single keyword or phrase hit inside a unit of text.
// Start and End are character offsets into the text that produced the match.
type CueMatch struct {
	Skill     Skill     `json:"skill"`
	MatchType MatchType `json:"type"`
	Text      string    `json:"match"`
	Start     int       `json:"start"`
	End       int       `json:"end"`
}

// EvidenceSpan is a citable excerpt supporting a skill score. Text is the
// verbatim substring source[StartChar:EndChar]; Location is "line N" for
// transcripts and "page N" for artifacts.
type EvidenceSpan struct {
	Text              string   `json:"text"`
	Location          string   `json:"location"`
	Rationale         string   `json:"rationale"`
	ScoreContribution float64  `json:"score_contribution"`
	Skill             Skill    `json:"skill"`
	SpanType          SpanType `json:"span_type"`
	StartChar         int      `json:"start_char"`
	EndChar           int      `json:"end_char"`
	Context           string   `json:"context,omitempty"`
}

// Overlaps reports whether the [StartChar, EndChar) ranges of two spans intersect.
func (e EvidenceSpan) Overlaps(other EvidenceSpan) bool {
	return e.StartChar < other.EndChar && other.StartChar < e.EndChar
}

// SkillScore is the aggregated result for one student and one skill.
// Score and Confidence are in [0,1]; rescaling to a storage scale is the
// persistence collaborator's concern.
type SkillScore struct {
	Score              float64        `json:"score"`
	Confidence         float64        `json:"confidence"`
	DemonstrationCount int            `json:"demonstration_count"`
	EvidenceCount      int            `json:"evidence_count"`
	TopEvidence        []EvidenceSpan `json:"top_evidence"`
}

// LanguageAlternative is a runner-up language candidate.
type LanguageAlternative struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// LanguageResult is the outcome of language identification.
type LanguageResult struct {
	Language     string                `json:"language"`
	Name         string                `json:"name"`
	Confidence   float64               `json:"confidence"`
	Method       string                `json:"method"`
	Reason       string                `json:"reason,omitempty"`
	Alternatives []LanguageAlternative `json:"alternatives"`
}

// SpeakerStats summarizes one speaker's participation in a document.
type SpeakerStats struct {
	SentenceCount int         `json:"count"`
	WordCount     int         `json:"word_count"`
	Role          SpeakerRole `json:"role"`
	Sentences     []string    `json:"sentences"`
}

// ProcessingStats carries size and count measurements for one pipeline run.
type ProcessingStats struct {
	OriginalLength  int `json:"original_length"`
	CleanedLength   int `json:"cleaned_length"`
	SpeakerSegments int `json:"speaker_segments,omitempty"`
	SentenceCount   int `json:"sentence_count"`
	StudentCount    int `json:"student_count"`
}

// ProcessingResult is the per-document aggregate emitted by the pipeline.
type ProcessingResult struct {
	RunID           uuid.UUID                       `json:"run_id"`
	StudentID       string                          `json:"student_id,omitempty"`
	Metadata        map[string]any                  `json:"metadata"`
	Language        LanguageResult                  `json:"language"`
	Stats           ProcessingStats                 `json:"processing_stats"`
	SpeakerStats    map[string]SpeakerStats         `json:"speaker_statistics,omitempty"`
	StudentIDs      []string                        `json:"student_ids,omitempty"`
	SkillScores     map[string]map[Skill]SkillScore `json:"skill_scores"`
	Sentences       []Sentence                      `json:"sentences"`
	PipelineVersion string                          `json:"pipeline_version"`
	Seed            int64                           `json:"seed"`
}

// BatchItem is one slot of a batch run. Exactly one of Result and Err is set;
// TranscriptIndex always carries the position of the input that produced it.
type BatchItem struct {
	Result          *ProcessingResult `json:"result,omitempty"`
	Err             string            `json:"error,omitempty"`
	TranscriptIndex int               `json:"transcript_index"`
}
