package evidence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillscope/internal/config"
	"skillscope/internal/domain"
	"skillscope/internal/evidence"
	"skillscope/internal/skill"
)

func newExtractor(cfg config.EvidenceConfig) *evidence.Extractor {
	defaults := config.Default()
	detector := skill.NewDetector(defaults.Detector, defaults.Seed)
	return evidence.NewExtractor(detector, cfg)
}

func defaultExtractor() *evidence.Extractor {
	return newExtractor(config.Default().Evidence)
}

func TestExtractFromTranscript(t *testing.T) {
	e := defaultExtractor()

	transcript := "Teacher: Welcome.\nStudent A: Hi there.\nStudent A: I understand how you feel."
	sentences := []domain.Sentence{
		{Text: "Welcome.", SpeakerID: "teacher", SpeakerRole: domain.RoleTeacher},
		{Text: "Hi there.", SpeakerID: "student_a", SpeakerRole: domain.RoleStudent},
		{Text: "I understand how you feel.", SpeakerID: "student_a", SpeakerRole: domain.RoleStudent},
	}

	spans, err := e.ExtractFromTranscript(transcript, sentences, "student_a", domain.SkillEmpathy)
	require.NoError(t, err)
	require.NotEmpty(t, spans)

	t.Run("line citation round trip", func(t *testing.T) {
		for _, span := range spans {
			assert.Equal(t, "line 3", span.Location)
		}
	})

	t.Run("text is the verbatim substring", func(t *testing.T) {
		for _, span := range spans {
			assert.Equal(t, span.Text, transcript[span.StartChar:span.EndChar])
		}
	})

	t.Run("no two spans overlap", func(t *testing.T) {
		for i := range spans {
			for j := i + 1; j < len(spans); j++ {
				assert.False(t, spans[i].Overlaps(spans[j]),
					"span %d and %d overlap", i, j)
			}
		}
	})

	t.Run("ranked by contribution", func(t *testing.T) {
		for i := 1; i < len(spans); i++ {
			assert.GreaterOrEqual(t, spans[i-1].ScoreContribution, spans[i].ScoreContribution)
		}
	})
}

func TestExtractFromTranscript_UnknownSkill(t *testing.T) {
	e := defaultExtractor()

	_, err := e.ExtractFromTranscript("text", nil, "student_a", domain.Skill("grit"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownSkill)
}

func TestExtractFromTranscript_RawLineFallback(t *testing.T) {
	e := defaultExtractor()

	// no sentences carry the student's ID, so the raw lines are scanned
	transcript := "Jordan: I understand your point.\nCasey: fine."
	spans, err := e.ExtractFromTranscript(transcript, nil, "Jordan", domain.SkillEmpathy)
	require.NoError(t, err)
	require.NotEmpty(t, spans)

	assert.Equal(t, "line 1", spans[0].Location)
	assert.Equal(t, spans[0].Text, transcript[spans[0].StartChar:spans[0].EndChar])
}

func TestExtractFromTranscript_OtherStudentsExcluded(t *testing.T) {
	e := defaultExtractor()

	transcript := "Student A: I understand completely.\nStudent B: nothing relevant."
	sentences := []domain.Sentence{
		{Text: "I understand completely.", SpeakerID: "student_a", SpeakerRole: domain.RoleStudent},
		{Text: "nothing relevant.", SpeakerID: "student_b", SpeakerRole: domain.RoleStudent},
	}

	spans, err := e.ExtractFromTranscript(transcript, sentences, "student_b", domain.SkillEmpathy)
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestExtractFromTranscript_DedupesOverlaps(t *testing.T) {
	e := defaultExtractor()

	// "help each other" matches both as a keyword and as a phrase at the
	// same position; only one span may survive
	transcript := "Student A: We help each other."
	sentences := []domain.Sentence{
		{Text: "We help each other.", SpeakerID: "student_a", SpeakerRole: domain.RoleStudent},
	}

	spans, err := e.ExtractFromTranscript(transcript, sentences, "student_a", domain.SkillCollaboration)
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "help each other", spans[0].Text)
}

func TestExtractFromTranscript_ContinuationLines(t *testing.T) {
	e := defaultExtractor()

	transcript := "Teacher: Good morning.\nStudent A: I understand\nhow you feel about it."
	sentences := []domain.Sentence{
		{Text: "Good morning.", SpeakerID: "teacher", SpeakerRole: domain.RoleTeacher},
		{Text: "I understand how you feel about it.", SpeakerID: "student_a", SpeakerRole: domain.RoleStudent},
	}

	spans, err := e.ExtractFromTranscript(transcript, sentences, "student_a", domain.SkillEmpathy)
	require.NoError(t, err)
	require.Len(t, spans, 2)

	for _, span := range spans {
		assert.Regexp(t, `^line \d+$`, span.Location)
		assert.Equal(t, span.Text, transcript[span.StartChar:span.EndChar])
	}
	assert.Equal(t, "I understand", spans[0].Text)
	assert.Equal(t, "line 2", spans[0].Location)
	assert.Equal(t, "feel", spans[1].Text)
	assert.Equal(t, "line 3", spans[1].Location)
}

func TestExtractFromTranscript_CueAcrossLineBreak(t *testing.T) {
	e := defaultExtractor()

	transcript := "Student B: We will work as a\nteam on this."
	sentences := []domain.Sentence{
		{Text: "We will work as a team on this.", SpeakerID: "student_b", SpeakerRole: domain.RoleStudent},
	}

	spans, err := e.ExtractFromTranscript(transcript, sentences, "student_b", domain.SkillCollaboration)
	require.NoError(t, err)

	// The phrase "as a team" straddles the break and cannot be cited
	// verbatim; the keyword inside it still can.
	require.Len(t, spans, 1)
	assert.Equal(t, "team", spans[0].Text)
	assert.Equal(t, "line 2", spans[0].Location)
	assert.Equal(t, "team", transcript[spans[0].StartChar:spans[0].EndChar])
}

func TestExtractFromArtifact(t *testing.T) {
	e := newExtractor(config.EvidenceConfig{
		WordsPerPage:    5,
		ContextChars:    10,
		MaxSpans:        5,
		MaxSpansPerTop:  3,
		MaxPerSkillBulk: 3,
	})

	text := "one two three four five six seven calm eight nine"
	spans, err := e.ExtractFromArtifact(text, domain.SkillSelfRegulation)
	require.NoError(t, err)
	require.NotEmpty(t, spans)

	t.Run("page location from word count", func(t *testing.T) {
		// "calm" is the eighth word, past the five-word first page
		assert.Equal(t, "page 2", spans[0].Location)
	})

	t.Run("context window carries ellipsis markers", func(t *testing.T) {
		assert.Contains(t, spans[0].Context, "calm")
		assert.True(t, len(spans[0].Context) < len(text))
		assert.Contains(t, spans[0].Context, "...")
	})

	t.Run("verbatim substring", func(t *testing.T) {
		assert.Equal(t, spans[0].Text, text[spans[0].StartChar:spans[0].EndChar])
	})
}

func TestExtractFromArtifact_FirstPage(t *testing.T) {
	e := defaultExtractor()

	spans, err := e.ExtractFromArtifact("I stayed calm during the test.", domain.SkillSelfRegulation)
	require.NoError(t, err)
	require.NotEmpty(t, spans)
	assert.Equal(t, "page 1", spans[0].Location)
}

func TestExtractFromArtifact_MaxSpans(t *testing.T) {
	e := newExtractor(config.EvidenceConfig{
		WordsPerPage:    500,
		ContextChars:    100,
		MaxSpans:        2,
		MaxSpansPerTop:  3,
		MaxPerSkillBulk: 3,
	})

	spans, err := e.ExtractFromArtifact(
		"We must change and adapt and adjust and switch and pivot.",
		domain.SkillAdaptability,
	)
	require.NoError(t, err)
	assert.Len(t, spans, 2)
}

func TestBatchExtractEvidence(t *testing.T) {
	e := defaultExtractor()

	transcript := "Student A: I understand how you feel, let's work together and stay calm."
	sentences := []domain.Sentence{
		{Text: "I understand how you feel, let's work together and stay calm.", SpeakerID: "student_a", SpeakerRole: domain.RoleStudent},
	}

	result, err := e.BatchExtractEvidence(transcript, sentences, "student_a")
	require.NoError(t, err)

	// every skill appears, even without matches
	require.Len(t, result, 5)
	for s, spans := range result {
		assert.LessOrEqual(t, len(spans), 3, "skill %s", s)
	}
	assert.NotEmpty(t, result[domain.SkillEmpathy])
	assert.NotEmpty(t, result[domain.SkillCollaboration])
	assert.NotEmpty(t, result[domain.SkillSelfRegulation])
	assert.Empty(t, result[domain.SkillAdaptability])
}
