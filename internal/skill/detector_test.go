package skill_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillscope/internal/config"
	"skillscope/internal/domain"
	"skillscope/internal/skill"
)

func newDetector() *skill.Detector {
	cfg := config.Default()
	return skill.NewDetector(cfg.Detector, cfg.Seed)
}

func TestDetectSkills_EmpathyAndCollaboration(t *testing.T) {
	d := newDetector()

	results := d.DetectSkills("I understand how you feel. Let's work together on this.", domain.RoleStudent)

	require.Len(t, results, 5)

	empathy := results[domain.SkillEmpathy]
	assert.True(t, empathy.Detected)
	assert.Greater(t, empathy.Score, 0.0)
	assert.Greater(t, empathy.Confidence, 0.0)
	// "understand", "feel" and the phrase "i understand"
	assert.Equal(t, 3, empathy.CueCount)

	collaboration := results[domain.SkillCollaboration]
	assert.True(t, collaboration.Detected)
	assert.Greater(t, collaboration.Score, 0.0)
	assert.Greater(t, collaboration.Confidence, 0.0)

	for _, s := range []domain.Skill{domain.SkillAdaptability, domain.SkillCommunication, domain.SkillSelfRegulation} {
		det := results[s]
		assert.False(t, det.Detected, "unexpected detection for %s", s)
		assert.Zero(t, det.Score)
		assert.Zero(t, det.Confidence)
		assert.Zero(t, det.CueCount)
	}
}

func TestDetectSkills_PunctuationAdjacentKeyword(t *testing.T) {
	d := newDetector()

	// trailing punctuation must not hide the cue
	results := d.DetectSkills("I know how you feel.", domain.RoleStudent)
	assert.True(t, results[domain.SkillEmpathy].Detected)
}

func TestDetectSkills_CaseInsensitive(t *testing.T) {
	d := newDetector()

	results := d.DetectSkills("WE SHOULD COOPERATE AS A TEAM", domain.RoleStudent)
	collab := results[domain.SkillCollaboration]
	assert.True(t, collab.Detected)
	// "cooperate", "team" and the phrase "as a team"
	assert.Equal(t, 3, collab.CueCount)
}

func TestDetectSkills_ScoringFormula(t *testing.T) {
	d := newDetector()

	t.Run("single cue without student boost", func(t *testing.T) {
		det := d.DetectSkills("stay flexible", domain.RoleTeacher)[domain.SkillAdaptability]
		require.True(t, det.Detected)
		// 0.5 + 0.15*2 for "flexible" + "be flexible"? no: only keyword matches here
		assert.Equal(t, 1, det.CueCount)
		assert.InDelta(t, 0.65, det.Score, 0.001)
		assert.InDelta(t, 0.7, det.Confidence, 0.001)
	})

	t.Run("student utterances score higher", func(t *testing.T) {
		asTeacher := d.DetectSkills("stay flexible", domain.RoleTeacher)[domain.SkillAdaptability]
		asStudent := d.DetectSkills("stay flexible", domain.RoleStudent)[domain.SkillAdaptability]
		assert.Greater(t, asStudent.Score, asTeacher.Score)
	})

	t.Run("score and confidence are capped", func(t *testing.T) {
		det := d.DetectSkills(
			"We must change, adapt, adjust, switch, pivot and modify our different alternative plan.",
			domain.RoleStudent,
		)[domain.SkillAdaptability]
		assert.Equal(t, 1.0, det.Score)
		assert.Equal(t, 0.95, det.Confidence)
	})

	t.Run("evidence truncated to five matches", func(t *testing.T) {
		det := d.DetectSkills(
			"change adapt adjust switch pivot modify flexible different",
			domain.RoleStudent,
		)[domain.SkillAdaptability]
		assert.Greater(t, det.CueCount, 5)
		assert.Len(t, det.Evidence, 5)
	})
}

func TestDetectSkills_EvidenceOffsets(t *testing.T) {
	d := newDetector()

	text := "Please stay calm now."
	det := d.DetectSkills(text, domain.RoleStudent)[domain.SkillSelfRegulation]
	require.True(t, det.Detected)
	require.NotEmpty(t, det.Evidence)

	match := det.Evidence[0]
	assert.Equal(t, "calm", match.Text)
	assert.Equal(t, "calm", text[match.Start:match.End])
}

func TestScoreConversation(t *testing.T) {
	d := newDetector()

	sentences := []domain.Sentence{
		{Text: "Good morning!", SpeakerID: "teacher", SpeakerRole: domain.RoleTeacher},
		{Text: "I understand.", SpeakerID: "student_a", SpeakerRole: domain.RoleStudent},
		{Text: "I feel sorry for them.", SpeakerID: "student_a", SpeakerRole: domain.RoleStudent},
		{Text: "Whatever.", SpeakerID: "student_b", SpeakerRole: domain.RoleStudent},
	}

	scores := d.ScoreConversation(sentences, nil)

	require.Contains(t, scores, "student_a")
	require.Contains(t, scores, "student_b")
	assert.NotContains(t, scores, "teacher")

	t.Run("every skill always present", func(t *testing.T) {
		for id, skills := range scores {
			assert.Len(t, skills, 5, "student %s", id)
		}
	})

	t.Run("aggregation over demonstrations", func(t *testing.T) {
		empathy := scores["student_a"][domain.SkillEmpathy]
		assert.Equal(t, 2, empathy.DemonstrationCount)
		assert.Greater(t, empathy.Score, 0.0)
		assert.InDelta(t, 0.8, empathy.Confidence, 0.001) // 0.7 + 0.05*2
		assert.NotEmpty(t, empathy.TopEvidence)
		assert.LessOrEqual(t, len(empathy.TopEvidence), 3)
	})

	t.Run("no cues yields zero values, never omission", func(t *testing.T) {
		adapt := scores["student_b"][domain.SkillAdaptability]
		assert.Zero(t, adapt.Score)
		assert.Zero(t, adapt.Confidence)
		assert.Zero(t, adapt.DemonstrationCount)
		assert.NotNil(t, adapt.TopEvidence)
		assert.Empty(t, adapt.TopEvidence)
	})
}

func TestScoreConversation_TunedConfidenceSlope(t *testing.T) {
	cfg := config.Default().Detector
	cfg.AggConfidenceBase = 0.5
	cfg.AggConfidenceStep = 0.1
	d := skill.NewDetector(cfg, 42)

	sentences := []domain.Sentence{
		{Text: "I understand.", SpeakerID: "student_a", SpeakerRole: domain.RoleStudent},
		{Text: "I feel sorry for them.", SpeakerID: "student_a", SpeakerRole: domain.RoleStudent},
	}

	empathy := d.ScoreConversation(sentences, nil)["student_a"][domain.SkillEmpathy]
	assert.Equal(t, 2, empathy.DemonstrationCount)
	assert.InDelta(t, 0.7, empathy.Confidence, 0.001) // 0.5 + 0.1*2
}

func TestScoreConversation_TeacherOnly(t *testing.T) {
	d := newDetector()

	sentences := []domain.Sentence{
		{Text: "I understand how you all feel about exams.", SpeakerID: "teacher", SpeakerRole: domain.RoleTeacher},
		{Text: "Let's work together on the review.", SpeakerID: "teacher", SpeakerRole: domain.RoleTeacher},
	}

	scores := d.ScoreConversation(sentences, nil)
	assert.Empty(t, scores)
}

func TestScoreConversation_StudentFilter(t *testing.T) {
	d := newDetector()

	sentences := []domain.Sentence{
		{Text: "I understand.", SpeakerID: "student_a", SpeakerRole: domain.RoleStudent},
		{Text: "I understand.", SpeakerID: "student_b", SpeakerRole: domain.RoleStudent},
	}

	scores := d.ScoreConversation(sentences, []string{"student_a"})
	assert.Contains(t, scores, "student_a")
	assert.NotContains(t, scores, "student_b")
}

func TestScoreConversation_Deterministic(t *testing.T) {
	d := newDetector()

	sentences := []domain.Sentence{
		{Text: "I understand how you feel.", SpeakerID: "student_a", SpeakerRole: domain.RoleStudent},
		{Text: "Let's work together and share ideas.", SpeakerID: "student_a", SpeakerRole: domain.RoleStudent},
	}

	first := d.ScoreConversation(sentences, nil)
	second := d.ScoreConversation(sentences, nil)
	assert.Equal(t, first, second)
}

func TestExtractSpans(t *testing.T) {
	d := newDetector()

	t.Run("phrases rank before keywords", func(t *testing.T) {
		spans := d.ExtractSpans("Let's work together as a team.", domain.SkillCollaboration, 10)
		require.NotEmpty(t, spans)
		assert.Equal(t, domain.MatchPhrase, spans[0].Type)
	})

	t.Run("spans slice back verbatim", func(t *testing.T) {
		text := "We should help each other."
		spans := d.ExtractSpans(text, domain.SkillCollaboration, 10)
		require.NotEmpty(t, spans)
		for _, span := range spans {
			assert.Equal(t, span.Text, text[span.Start:span.End])
		}
	})

	t.Run("rationale names the match", func(t *testing.T) {
		spans := d.ExtractSpans("stay calm", domain.SkillSelfRegulation, 10)
		require.NotEmpty(t, spans)
		assert.Contains(t, spans[0].Rationale, "stay calm")
		assert.Contains(t, spans[0].Rationale, "self_regulation")
	})

	t.Run("maxSpans truncates", func(t *testing.T) {
		spans := d.ExtractSpans("change adapt adjust switch pivot", domain.SkillAdaptability, 2)
		assert.Len(t, spans, 2)
	})

	t.Run("unknown skill", func(t *testing.T) {
		assert.Nil(t, d.ExtractSpans("anything", domain.Skill("grit"), 5))
	})
}

func TestRawSpanRelevance(t *testing.T) {
	keyword := skill.RawSpan{Start: 0, End: 4, Type: domain.MatchKeyword}
	assert.InDelta(t, 0.68, keyword.Relevance(), 0.001)

	longPhrase := skill.RawSpan{Start: 0, End: 19, Type: domain.MatchPhrase}
	assert.InDelta(t, 1.0, longPhrase.Relevance(), 0.001)
}

func TestSupportedSkills(t *testing.T) {
	d := newDetector()

	skills := d.SupportedSkills()
	assert.Equal(t, domain.AllSkills, skills)
	assert.NotEmpty(t, d.SkillDescription(domain.SkillEmpathy))
	assert.Equal(t, "Unknown skill", d.SkillDescription(domain.Skill("grit")))
}
