package speaker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillscope/internal/domain"
	"skillscope/internal/speaker"
)

func TestResolve_Canonicalization(t *testing.T) {
	r := speaker.NewResolver()

	tests := []struct {
		label string
		id    string
		role  domain.SpeakerRole
	}{
		{"Teacher", "teacher", domain.RoleTeacher},
		{"Ms. Instructor Lee", "teacher", domain.RoleTeacher},
		{"Prof. Chen", "teacher", domain.RoleTeacher},
		{"Student A", "student_a", domain.RoleStudent},
		{"student b", "student_b", domain.RoleStudent},
		{"Alice", "alice", domain.RoleUnknown},
		{"", "unknown", domain.RoleUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			profile := r.Resolve(tt.label)
			assert.Equal(t, tt.id, profile.SpeakerID)
			assert.Equal(t, tt.role, profile.Role)
		})
	}
}

func TestResolve_Memoized(t *testing.T) {
	r := speaker.NewResolver()

	first := r.Resolve("Student A")
	second := r.Resolve("  student a  ")
	assert.Equal(t, first, second)
}

func TestAssignRole(t *testing.T) {
	r := speaker.NewResolver()

	t.Run("pinned role overrides classification", func(t *testing.T) {
		require.NoError(t, r.AssignRole("alice", domain.RoleStudent))
		profile := r.Resolve("Alice")
		assert.Equal(t, domain.RoleStudent, profile.Role)
	})

	t.Run("invalid role fails loudly", func(t *testing.T) {
		err := r.AssignRole("bob", "janitor")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidRole)
	})
}

func TestMapSpeakers(t *testing.T) {
	r := speaker.NewResolver()

	sentences := []domain.Sentence{
		{Text: "Welcome.", SpeakerLabel: "Teacher"},
		{Text: "Thanks.", SpeakerLabel: "Student A"},
	}

	got := r.MapSpeakers(sentences, nil)

	require.Len(t, got, 2)
	assert.Equal(t, "teacher", got[0].SpeakerID)
	assert.Equal(t, domain.RoleTeacher, got[0].SpeakerRole)
	assert.Equal(t, "student_a", got[1].SpeakerID)
	assert.Equal(t, domain.RoleStudent, got[1].SpeakerRole)

	// input slice untouched
	assert.Empty(t, sentences[0].SpeakerID)
}

func TestMapSpeakers_Diarization(t *testing.T) {
	r := speaker.NewResolver()

	sentences := []domain.Sentence{
		{Text: "First.", SpeakerLabel: "Speaker 1", Timestamp: "00:10"},
		{Text: "Second.", SpeakerLabel: "Speaker 1", Timestamp: "00:50"},
		{Text: "No timestamp.", SpeakerLabel: "Speaker 1"},
	}
	diarization := []domain.DiarizationRecord{
		{Start: "00:00", End: "00:30", SpeakerID: "student_a", Role: domain.RoleStudent, Confidence: 0.9},
	}

	got := r.MapSpeakers(sentences, diarization)

	// inside the interval: overwritten from the record
	assert.Equal(t, "student_a", got[0].SpeakerID)
	assert.Equal(t, domain.RoleStudent, got[0].SpeakerRole)
	assert.Equal(t, 0.9, got[0].DiarizationConfidence)

	// outside every interval: keeps the label-derived identity
	assert.Equal(t, "speaker_1", got[1].SpeakerID)
	assert.Zero(t, got[1].DiarizationConfidence)

	// no timestamp: never matched against records
	assert.Equal(t, "speaker_1", got[2].SpeakerID)
}

func TestIdentifyStudents(t *testing.T) {
	r := speaker.NewResolver()

	sentences := r.MapSpeakers([]domain.Sentence{
		{Text: "a", SpeakerLabel: "Student B"},
		{Text: "b", SpeakerLabel: "Student A"},
		{Text: "c", SpeakerLabel: "Student A"},
		{Text: "d", SpeakerLabel: "Teacher"},
	}, nil)

	students := r.IdentifyStudents(sentences)
	assert.Equal(t, []string{"student_a", "student_b"}, students)
}

func TestMergeSpeakerTurns(t *testing.T) {
	r := speaker.NewResolver()

	sentences := r.MapSpeakers([]domain.Sentence{
		{Text: "One.", SpeakerLabel: "Student A"},
		{Text: "Two.", SpeakerLabel: "Student A"},
		{Text: "Three.", SpeakerLabel: "Teacher"},
		{Text: "Four.", SpeakerLabel: "Student A"},
	}, nil)

	turns := r.MergeSpeakerTurns(sentences)

	require.Len(t, turns, 3)
	assert.Equal(t, "student_a", turns[0].SpeakerID)
	assert.Equal(t, "One. Two.", turns[0].Text)
	assert.Equal(t, 2, turns[0].SentenceCount)
	assert.Equal(t, []string{"One.", "Two."}, turns[0].Sentences)
	assert.Equal(t, "teacher", turns[1].SpeakerID)
	assert.Equal(t, "student_a", turns[2].SpeakerID)
}

func TestSpeakerStatistics(t *testing.T) {
	r := speaker.NewResolver()

	sentences := r.MapSpeakers([]domain.Sentence{
		{Text: "Good morning class.", SpeakerLabel: "Teacher"},
		{Text: "Morning!", SpeakerLabel: "Student A"},
		{Text: "I finished my homework.", SpeakerLabel: "Student A"},
	}, nil)

	stats := r.SpeakerStatistics(sentences)

	require.Len(t, stats, 2)
	assert.Equal(t, 1, stats["teacher"].SentenceCount)
	assert.Equal(t, 3, stats["teacher"].WordCount)
	assert.Equal(t, 2, stats["student_a"].SentenceCount)
	assert.Equal(t, 5, stats["student_a"].WordCount)
	assert.Equal(t, domain.RoleStudent, stats["student_a"].Role)
}
