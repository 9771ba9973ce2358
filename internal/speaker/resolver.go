// Package speaker normalizes raw speaker labels into canonical speaker IDs,
// classifies speakers as teacher/student/unknown, and merges external
// timestamp-based diarization when supplied.
package speaker

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"

	"skillscope/internal/domain"
)

var teacherKeywords = []string{"teacher", "educator", "instructor", "prof"}

// Resolver canonicalizes speaker labels and classifies roles. It owns its
// label cache: entries are only ever added, never mutated, so a Resolver is
// safe to share across concurrent pipeline runs. Multiple resolvers with
// independent caches can coexist under the caller's control.
type Resolver struct {
	mu       sync.RWMutex
	profiles map[string]domain.SpeakerProfile // lower-trimmed label → profile
	pinned   map[string]domain.SpeakerRole    // speaker ID → manually assigned role
}

// NewResolver creates a Resolver with an empty cache.
func NewResolver() *Resolver {
	return &Resolver{
		profiles: make(map[string]domain.SpeakerProfile),
		pinned:   make(map[string]domain.SpeakerRole),
	}
}

// MapSpeakers attaches a canonical SpeakerID and SpeakerRole to each sentence.
// When diarization records are supplied, a sentence whose timestamp falls
// inside a record's interval takes that record's speaker identity instead;
// sentences with no matching interval keep whatever they already carried.
// A new slice is returned; the input is not mutated.
func (r *Resolver) MapSpeakers(sentencesIn []domain.Sentence, diarization []domain.DiarizationRecord) []domain.Sentence {
	out := make([]domain.Sentence, len(sentencesIn))
	copy(out, sentencesIn)

	for i := range out {
		profile := r.Resolve(out[i].SpeakerLabel)
		out[i].SpeakerID = profile.SpeakerID
		out[i].SpeakerRole = profile.Role
	}

	if len(diarization) == 0 {
		return out
	}

	for i := range out {
		if out[i].Timestamp == "" {
			continue
		}
		record, ok := r.findSpeakerAt(out[i].Timestamp, diarization)
		if !ok {
			continue
		}
		out[i].SpeakerID = record.SpeakerID
		out[i].SpeakerRole = record.Role
		if out[i].SpeakerRole == "" {
			out[i].SpeakerRole = domain.RoleUnknown
		}
		out[i].DiarizationConfidence = record.Confidence
	}
	return out
}

// Resolve canonicalizes a raw label into a speaker profile, memoized per
// label so repeated labels resolve identically within and across runs
// sharing this resolver.
func (r *Resolver) Resolve(label string) domain.SpeakerProfile {
	key := strings.ToLower(strings.TrimSpace(label))
	if key == "" {
		key = "unknown"
	}

	r.mu.RLock()
	profile, ok := r.profiles[key]
	r.mu.RUnlock()
	if ok {
		return r.applyPin(profile)
	}

	profile = domain.SpeakerProfile{
		SpeakerID: canonicalID(key),
		Role:      classifyRole(key),
	}

	r.mu.Lock()
	// Another goroutine may have resolved the same label in the meantime;
	// keep the first entry so the cache never changes under a reader.
	if existing, ok := r.profiles[key]; ok {
		profile = existing
	} else {
		r.profiles[key] = profile
	}
	r.mu.Unlock()

	return r.applyPin(profile)
}

// AssignRole pins a role for a speaker ID, overriding automatic
// classification from then on. An unrecognized role is a programmer error
// and fails immediately.
func (r *Resolver) AssignRole(speakerID string, role domain.SpeakerRole) error {
	if !role.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidRole, role)
	}
	r.mu.Lock()
	r.pinned[strings.ToLower(speakerID)] = role
	r.mu.Unlock()
	log.Printf("speaker.AssignRole: pinned role %q for speaker %q", role, speakerID)
	return nil
}

// IdentifyStudents returns the sorted set of speaker IDs classified as students.
func (r *Resolver) IdentifyStudents(sentencesIn []domain.Sentence) []string {
	seen := make(map[string]struct{})
	for _, s := range sentencesIn {
		if s.SpeakerRole == domain.RoleStudent {
			seen[s.SpeakerID] = struct{}{}
		}
	}
	students := make([]string, 0, len(seen))
	for id := range seen {
		students = append(students, id)
	}
	sort.Strings(students)
	return students
}

// MergeSpeakerTurns folds consecutive sentences sharing a speaker ID into
// turns. Implemented as a fold producing a new slice; the input is untouched.
func (r *Resolver) MergeSpeakerTurns(sentencesIn []domain.Sentence) []domain.Turn {
	var turns []domain.Turn

	for _, s := range sentencesIn {
		id := s.SpeakerID
		if id == "" {
			id = "unknown"
		}
		if n := len(turns); n > 0 && turns[n-1].SpeakerID == id {
			last := &turns[n-1]
			last.Text += " " + s.Text
			last.SentenceCount++
			last.Sentences = append(last.Sentences, s.Text)
			continue
		}
		role := s.SpeakerRole
		if role == "" {
			role = domain.RoleUnknown
		}
		turns = append(turns, domain.Turn{
			SpeakerID:     id,
			SpeakerRole:   role,
			Text:          s.Text,
			SentenceCount: 1,
			Sentences:     []string{s.Text},
		})
	}
	return turns
}

// SpeakerStatistics aggregates utterance and word counts per speaker ID.
func (r *Resolver) SpeakerStatistics(sentencesIn []domain.Sentence) map[string]domain.SpeakerStats {
	stats := make(map[string]domain.SpeakerStats)
	for _, s := range sentencesIn {
		id := s.SpeakerID
		if id == "" {
			id = "unknown"
		}
		entry, ok := stats[id]
		if !ok {
			role := s.SpeakerRole
			if role == "" {
				role = domain.RoleUnknown
			}
			entry = domain.SpeakerStats{Role: role}
		}
		entry.SentenceCount++
		entry.WordCount += s.WordCount()
		entry.Sentences = append(entry.Sentences, s.Text)
		stats[id] = entry
	}
	return stats
}

func (r *Resolver) applyPin(profile domain.SpeakerProfile) domain.SpeakerProfile {
	r.mu.RLock()
	role, ok := r.pinned[profile.SpeakerID]
	r.mu.RUnlock()
	if ok {
		profile.Role = role
	}
	return profile
}

func (r *Resolver) findSpeakerAt(timestamp string, records []domain.DiarizationRecord) (domain.DiarizationRecord, bool) {
	target, err := timestampSeconds(timestamp)
	if err != nil {
		log.Printf("speaker.findSpeakerAt: skipping sentence timestamp %q: %v", timestamp, err)
		return domain.DiarizationRecord{}, false
	}

	for _, rec := range records {
		start, err := timestampSeconds(rec.Start)
		if err != nil {
			log.Printf("speaker.findSpeakerAt: skipping diarization record start %q: %v", rec.Start, err)
			continue
		}
		end, err := timestampSeconds(rec.End)
		if err != nil {
			log.Printf("speaker.findSpeakerAt: skipping diarization record end %q: %v", rec.End, err)
			continue
		}
		if start <= target && target <= end {
			return rec, true
		}
	}
	return domain.DiarizationRecord{}, false
}

// canonicalID maps a lower-trimmed label to its canonical speaker ID: any
// teacher-indicating label collapses to "teacher", everything else keeps the
// label with spaces replaced by underscores.
func canonicalID(key string) string {
	for _, kw := range teacherKeywords {
		if strings.Contains(key, kw) {
			return "teacher"
		}
	}
	return strings.ReplaceAll(key, " ", "_")
}

// classifyRole applies the same keyword test independently of
// canonicalization: a label can canonicalize to something generic and still
// classify as teacher or student.
func classifyRole(key string) domain.SpeakerRole {
	for _, kw := range teacherKeywords {
		if strings.Contains(key, kw) {
			return domain.RoleTeacher
		}
	}
	if strings.Contains(key, "student") {
		return domain.RoleStudent
	}
	return domain.RoleUnknown
}

// timestampSeconds parses HH:MM:SS or MM:SS into seconds.
func timestampSeconds(ts string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(ts), ":")
	switch len(parts) {
	case 3:
		h, err1 := strconv.ParseFloat(parts[0], 64)
		m, err2 := strconv.ParseFloat(parts[1], 64)
		s, err3 := strconv.ParseFloat(parts[2], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return 0, fmt.Errorf("%w: %q", domain.ErrInvalidTimestamp, ts)
		}
		return h*3600 + m*60 + s, nil
	case 2:
		m, err1 := strconv.ParseFloat(parts[0], 64)
		s, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			return 0, fmt.Errorf("%w: %q", domain.ErrInvalidTimestamp, ts)
		}
		return m*60 + s, nil
	default:
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidTimestamp, ts)
	}
}
