package domain

// Skill identifies one of the five non-academic competencies scored per student.
type Skill string

const (
	SkillEmpathy        Skill = "empathy"
	SkillAdaptability   Skill = "adaptability"
	SkillCollaboration  Skill = "collaboration"
	SkillCommunication  Skill = "communication"
	SkillSelfRegulation Skill = "self_regulation"
)

// AllSkills lists every supported skill in canonical order.
var AllSkills = []Skill{
	SkillEmpathy,
	SkillAdaptability,
	SkillCollaboration,
	SkillCommunication,
	SkillSelfRegulation,
}

// SkillDescriptions maps each skill to its human-readable description.
var SkillDescriptions = map[Skill]string{
	SkillEmpathy:        "Understanding and sharing others' feelings",
	SkillAdaptability:   "Adjusting to new situations and changes",
	SkillCollaboration:  "Working effectively with others",
	SkillCommunication:  "Expressing ideas clearly and effectively",
	SkillSelfRegulation: "Managing emotions and behavior appropriately",
}

// IsValid reports whether s is one of the supported skills.
func (s Skill) IsValid() bool {
	_, ok := SkillDescriptions[s]
	return ok
}

// SpeakerRole classifies who produced an utterance.
type SpeakerRole string

const (
	RoleTeacher SpeakerRole = "teacher"
	RoleStudent SpeakerRole = "student"
	RoleUnknown SpeakerRole = "unknown"
)

// IsValid reports whether r is a recognized speaker role.
func (r SpeakerRole) IsValid() bool {
	switch r {
	case RoleTeacher, RoleStudent, RoleUnknown:
		return true
	}
	return false
}

// SourceKind distinguishes multi-speaker transcripts from single-author artifacts.
type SourceKind string

const (
	SourceTranscript SourceKind = "transcript"
	SourceArtifact   SourceKind = "artifact"
)

// MatchType identifies how a skill cue was matched.
type MatchType string

const (
	MatchKeyword MatchType = "keyword"
	MatchPhrase  MatchType = "phrase"
)

// SpanType identifies the granularity of an evidence span.
type SpanType string

const (
	SpanKeyword   SpanType = "keyword"
	SpanPhrase    SpanType = "phrase"
	SpanSentence  SpanType = "sentence"
	SpanParagraph SpanType = "paragraph"
)
