// Package pipeline wires the processing stages together: language
// identification, cleanup, speaker segmentation, sentence splitting, speaker
// resolution, skill scoring and evidence extraction, in that order.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"skillscope/internal/config"
	"skillscope/internal/domain"
	"skillscope/internal/evidence"
	"skillscope/internal/language"
	"skillscope/internal/port"
	"skillscope/internal/producer"
	"skillscope/internal/segment"
	"skillscope/internal/skill"
	"skillscope/internal/speaker"
	"skillscope/internal/textnorm"
)

// Version identifies the processing pipeline revision recorded on every result.
const Version = "1.0.0"

// sampleSentences caps how many sentences a result echoes back for inspection.
const sampleSentences = 10

// Pipeline runs documents end to end. All components are built once in New
// and never mutated afterwards; a Pipeline is safe for concurrent use.
type Pipeline struct {
	cfg       *config.Config
	cleaner   *textnorm.Cleaner
	language  *language.Detector
	segmenter *segment.Segmenter
	detector  *skill.Detector
	extractor *evidence.Extractor
	producer  port.EvidenceProducer
}

// New builds a Pipeline from config. The evidence producer is selected by
// cfg.Producer.Provider through the provider registry.
func New(cfg *config.Config) (*Pipeline, error) {
	segmenter, err := segment.New()
	if err != nil {
		return nil, fmt.Errorf("building segmenter: %w", err)
	}

	detector := skill.NewDetector(cfg.Detector, cfg.Seed)
	extractor := evidence.NewExtractor(detector, cfg.Evidence)

	// The rules producer shares the pipeline's detector and extractor so
	// AssessStudent scores with the same coefficients as ProcessTranscript.
	rules := producer.NewRules(detector, extractor)
	var prod port.EvidenceProducer = rules
	if cfg.Producer.Provider != "rules" {
		external, err := producer.NewProducer(cfg.ProviderConfig())
		if err != nil {
			return nil, fmt.Errorf("building evidence producer: %w", err)
		}
		// External producers degrade to the deterministic rules path when
		// they are down or rate limited.
		prod = producer.NewFallback(
			[]port.EvidenceProducer{external, rules},
			[]string{cfg.Producer.Provider, "rules"},
		)
	}

	return &Pipeline{
		cfg:       cfg,
		cleaner:   textnorm.NewCleaner(),
		language:  language.New(cfg.Language),
		segmenter: segmenter,
		detector:  detector,
		extractor: extractor,
		producer:  prod,
	}, nil
}

// ProcessTranscript runs a multi-speaker transcript through every stage and
// returns per-student skill scores with located evidence. Diarization records
// are optional; when present they override label-derived speaker identities.
func (p *Pipeline) ProcessTranscript(ctx context.Context, text string, diarization []domain.DiarizationRecord, metadata map[string]any) (*domain.ProcessingResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("process transcript: %w", domain.ErrEmptyDocument)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lang := p.language.Detect(text, p.cfg.Language.MinConfidence)
	cleaned := p.cleaner.CleanTranscript(text)

	segments := p.cleaner.ExtractSpeakerSegments(cleaned)
	sentences := p.segmenter.SegmentTranscript(segments)
	if len(sentences) == 0 {
		return nil, fmt.Errorf("process transcript: %w", domain.ErrNoSentences)
	}

	resolver := speaker.NewResolver()
	sentences = resolver.MapSpeakers(sentences, diarization)
	speakerStats := resolver.SpeakerStatistics(sentences)
	students := resolver.IdentifyStudents(sentences)

	scores := p.detector.ScoreConversation(sentences, nil)
	p.attachTranscriptEvidence(cleaned, sentences, scores)

	log.Printf("pipeline.ProcessTranscript: %d sentences, %d speakers, %d students",
		len(sentences), len(speakerStats), len(students))

	return &domain.ProcessingResult{
		RunID:    uuid.New(),
		Metadata: metadata,
		Language: lang,
		Stats: domain.ProcessingStats{
			OriginalLength:  len(text),
			CleanedLength:   len(cleaned),
			SpeakerSegments: len(segments),
			SentenceCount:   len(sentences),
			StudentCount:    len(students),
		},
		SpeakerStats:    speakerStats,
		StudentIDs:      students,
		SkillScores:     scores,
		Sentences:       sample(sentences),
		PipelineVersion: Version,
		Seed:            p.cfg.Seed,
	}, nil
}

// ProcessArtifact scores a single-author document (essay, reflection, project
// writeup) for one student. Every sentence is attributed to the student and
// evidence locations use synthetic page numbers.
func (p *Pipeline) ProcessArtifact(ctx context.Context, text, studentID string, metadata map[string]any) (*domain.ProcessingResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("process artifact: %w", domain.ErrEmptyDocument)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lang := p.language.Detect(text, p.cfg.Language.MinConfidence)
	cleaned := p.cleaner.CleanArtifact(text)

	sentences := p.segmenter.SegmentWithMetadata(cleaned, studentID, "")
	if len(sentences) == 0 {
		return nil, fmt.Errorf("process artifact: %w", domain.ErrNoSentences)
	}
	for i := range sentences {
		sentences[i].SpeakerID = studentID
		sentences[i].SpeakerRole = domain.RoleStudent
	}

	scores := p.detector.ScoreConversation(sentences, []string{studentID})
	if studentScores, ok := scores[studentID]; ok {
		for s, score := range studentScores {
			spans, err := p.extractor.ExtractFromArtifact(cleaned, s)
			if err != nil {
				return nil, err
			}
			score.TopEvidence = top(spans, p.cfg.Evidence.MaxSpansPerTop)
			studentScores[s] = score
		}
	}

	log.Printf("pipeline.ProcessArtifact: %d sentences for student %s", len(sentences), studentID)

	return &domain.ProcessingResult{
		RunID:     uuid.New(),
		StudentID: studentID,
		Metadata:  metadata,
		Language:  lang,
		Stats: domain.ProcessingStats{
			OriginalLength: len(text),
			CleanedLength:  len(cleaned),
			SentenceCount:  len(sentences),
			StudentCount:   1,
		},
		StudentIDs:      []string{studentID},
		SkillScores:     scores,
		Sentences:       sample(sentences),
		PipelineVersion: Version,
		Seed:            p.cfg.Seed,
	}, nil
}

// BatchProcessTranscripts processes transcripts concurrently under the
// configured worker limit. Results come back in input order; a failing or
// panicking item occupies its slot with an error record instead of aborting
// the rest of the batch.
func (p *Pipeline) BatchProcessTranscripts(ctx context.Context, transcripts []string) []domain.BatchItem {
	items := make([]domain.BatchItem, len(transcripts))

	concurrency := p.cfg.Batch.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	log.Printf("pipeline.BatchProcessTranscripts: %d transcripts (concurrency=%d)", len(transcripts), concurrency)

	for i := range transcripts {
		if err := ctx.Err(); err != nil {
			items[i] = domain.BatchItem{Err: err.Error(), TranscriptIndex: i}
			continue
		}
		text := transcripts[i]

		sem <- struct{}{} // acquire
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }() // release
			defer func() {
				if r := recover(); r != nil {
					log.Printf("pipeline.BatchProcessTranscripts: panic on transcript %d: %v", i, r)
					items[i] = domain.BatchItem{Err: fmt.Sprintf("panic: %v", r), TranscriptIndex: i}
				}
			}()

			result, err := p.ProcessTranscript(ctx, text, nil, nil)
			if err != nil {
				items[i] = domain.BatchItem{Err: err.Error(), TranscriptIndex: i}
				return
			}
			items[i] = domain.BatchItem{Result: result, TranscriptIndex: i}
		}(i)
	}

	wg.Wait()
	return items
}

// ExtractEvidenceForStudent returns located evidence for one student and one
// skill from an already-processed transcript's sentences.
func (p *Pipeline) ExtractEvidenceForStudent(text string, sentencesIn []domain.Sentence, studentID string, s domain.Skill) ([]domain.EvidenceSpan, error) {
	cleaned := p.cleaner.CleanTranscript(text)
	return p.extractor.ExtractFromTranscript(cleaned, sentencesIn, studentID, s)
}

// AssessStudent runs the configured evidence producer over a document. With
// the default rules provider this is deterministic; with the openai provider
// it defers to the LLM.
func (p *Pipeline) AssessStudent(ctx context.Context, text, studentID string, source domain.SourceKind) (map[domain.Skill]port.SkillAssessment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("assess student: %w", domain.ErrEmptyDocument)
	}

	var sentences []domain.Sentence
	if source == domain.SourceTranscript {
		cleaned := p.cleaner.CleanTranscript(text)
		segments := p.cleaner.ExtractSpeakerSegments(cleaned)
		sentences = p.segmenter.SegmentTranscript(segments)
		sentences = speaker.NewResolver().MapSpeakers(sentences, nil)
		text = cleaned
	}

	return p.producer.Produce(ctx, port.ProduceInput{
		Text:      text,
		StudentID: studentID,
		Skills:    domain.AllSkills,
		Sentences: sentences,
		Source:    source,
	})
}

// Info describes the pipeline build: version, stage names, supported skills
// and the determinism contract.
func (p *Pipeline) Info() map[string]any {
	skills := make(map[string]string, len(domain.AllSkills))
	for _, s := range domain.AllSkills {
		skills[string(s)] = domain.SkillDescriptions[s]
	}
	return map[string]any{
		"version": Version,
		"components": []string{
			"language_detection",
			"text_cleanup",
			"speaker_segmentation",
			"sentence_segmentation",
			"speaker_resolution",
			"skill_detection",
			"evidence_extraction",
		},
		"skills":        skills,
		"seed":          p.cfg.Seed,
		"deterministic": true,
	}
}

// attachTranscriptEvidence replaces the provisional sentence-local evidence on
// each non-zero score with spans located in the cleaned transcript.
func (p *Pipeline) attachTranscriptEvidence(cleaned string, sentencesIn []domain.Sentence, scores map[string]map[domain.Skill]domain.SkillScore) {
	for studentID, skills := range scores {
		for s, score := range skills {
			if score.DemonstrationCount == 0 {
				continue
			}
			spans, err := p.extractor.ExtractFromTranscript(cleaned, sentencesIn, studentID, s)
			if err != nil {
				log.Printf("pipeline.attachTranscriptEvidence: %s/%s: %v", studentID, s, err)
				continue
			}
			if len(spans) > 0 {
				score.TopEvidence = top(spans, p.cfg.Evidence.MaxSpansPerTop)
				skills[s] = score
			}
		}
	}
}

func top(spans []domain.EvidenceSpan, max int) []domain.EvidenceSpan {
	if max > 0 && len(spans) > max {
		return spans[:max]
	}
	return spans
}

func sample(sentencesIn []domain.Sentence) []domain.Sentence {
	if len(sentencesIn) > sampleSentences {
		return sentencesIn[:sampleSentences]
	}
	return sentencesIn
}
