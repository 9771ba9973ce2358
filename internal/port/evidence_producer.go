package port

import (
	"context"

	"skillscope/internal/domain"
)

// ProduceInput carries the data needed for skill evidence production.
type ProduceInput struct {
	Text      string
	StudentID string
	Skills    []domain.Skill
	Sentences []domain.Sentence
	Source    domain.SourceKind
}

// Evidence is one citable excerpt returned by a producer.
type Evidence struct {
	Quote             string
	Rationale         string
	ScoreContribution float64
	Confidence        float64
}

// SkillAssessment is a producer's verdict for one skill.
type SkillAssessment struct {
	Score         float64
	Confidence    float64
	EvidenceCount int
	Evidence      []Evidence
}

// EvidenceProducer abstracts skill assessment over a document, whether backed
// by the rule vocabulary or an external LLM.
type EvidenceProducer interface {
	Produce(ctx context.Context, input ProduceInput) (map[domain.Skill]SkillAssessment, error)
}
