package producer

import (
	"context"
	"fmt"

	"skillscope/internal/config"
	"skillscope/internal/domain"
	"skillscope/internal/evidence"
	"skillscope/internal/port"
	"skillscope/internal/skill"
)

func init() {
	RegisterProvider("rules", func(cfg *config.ProducerProviderConfig) (port.EvidenceProducer, error) {
		det, ev, seed := cfg.Detector, cfg.Evidence, cfg.Seed
		if det == (config.DetectorConfig{}) {
			// No coefficients were threaded through; score with the defaults.
			defaults := config.Default()
			det, ev, seed = defaults.Detector, defaults.Evidence, defaults.Seed
		}
		detector := skill.NewDetector(det, seed)
		return NewRules(detector, evidence.NewExtractor(detector, ev)), nil
	})
}

// Rules is the deterministic evidence producer. It composes the vocabulary
// detector and the span extractor; no network, no randomness, scores in [0,1].
type Rules struct {
	detector  *skill.Detector
	extractor *evidence.Extractor
}

// NewRules creates a rule-based producer over the given components.
func NewRules(detector *skill.Detector, extractor *evidence.Extractor) *Rules {
	return &Rules{detector: detector, extractor: extractor}
}

// Produce assesses every requested skill for the student. Transcript sources
// score only the student's own sentences; artifact sources score the whole
// text as student-authored prose.
func (r *Rules) Produce(ctx context.Context, input port.ProduceInput) (map[domain.Skill]port.SkillAssessment, error) {
	skills := input.Skills
	if len(skills) == 0 {
		skills = domain.AllSkills
	}

	var conversation map[domain.Skill]domain.SkillScore
	if input.Source == domain.SourceTranscript {
		conversation = r.detector.ScoreConversation(input.Sentences, []string{input.StudentID})[input.StudentID]
	}

	out := make(map[domain.Skill]port.SkillAssessment, len(skills))
	for _, s := range skills {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.IsValid() {
			return nil, fmt.Errorf("produce evidence for %q: %w", s, domain.ErrUnknownSkill)
		}

		var (
			spans []domain.EvidenceSpan
			err   error
		)
		if input.Source == domain.SourceTranscript {
			spans, err = r.extractor.ExtractFromTranscript(input.Text, input.Sentences, input.StudentID, s)
		} else {
			spans, err = r.extractor.ExtractFromArtifact(input.Text, s)
		}
		if err != nil {
			return nil, err
		}

		assessment := port.SkillAssessment{EvidenceCount: len(spans)}
		if input.Source == domain.SourceTranscript {
			if score, ok := conversation[s]; ok {
				assessment.Score = score.Score
				assessment.Confidence = score.Confidence
			}
		} else {
			det := r.detector.DetectSkills(input.Text, domain.RoleStudent)[s]
			assessment.Score = det.Score
			assessment.Confidence = det.Confidence
		}
		for _, span := range spans {
			assessment.Evidence = append(assessment.Evidence, port.Evidence{
				Quote:             span.Text,
				Rationale:         span.Rationale,
				ScoreContribution: span.ScoreContribution,
				Confidence:        assessment.Confidence,
			})
		}
		out[s] = assessment
	}
	return out, nil
}
