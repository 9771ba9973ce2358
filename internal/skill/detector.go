// Package skill scores units of text against the five fixed skill
// vocabularies and aggregates per-student scores across a conversation.
//
// Matching is entirely deterministic: fixed tables, no learned weights, no
// randomness. Re-running the same input with the same seed and coefficients
// yields identical scores, which the persisted assessment history depends on.
package skill

import (
	"math"
	"sort"
	"strings"

	"skillscope/internal/config"
	"skillscope/internal/domain"
)

// keywordOrder fixes the scan order of each vocabulary's keyword set so
// evidence lists come out identical run to run.
var keywordOrder = func() map[domain.Skill][]string {
	order := make(map[domain.Skill][]string, len(vocabularies))
	for s, v := range vocabularies {
		list := make([]string, 0, len(v.keywords))
		for k := range v.keywords {
			list = append(list, k)
		}
		sort.Strings(list)
		order[s] = list
	}
	return order
}()

// Detection is the per-skill result for one unit of text.
type Detection struct {
	Detected   bool              `json:"detected"`
	Score      float64           `json:"score"`
	Confidence float64           `json:"confidence"`
	CueCount   int               `json:"cue_count"`
	Evidence   []domain.CueMatch `json:"evidence"`
}

// RawSpan is an unlocated evidence candidate produced by the span-level
// matcher. Offsets index into the text that was scanned.
type RawSpan struct {
	Text      string
	Start     int
	End       int
	Type      domain.MatchType
	Rationale string
}

// Relevance scores a raw span: phrases outweigh keywords, with a small bonus
// for longer matches, capped at 1.
func (s RawSpan) Relevance() float64 {
	base := 0.6
	if s.Type == domain.MatchPhrase {
		base = 0.8
	}
	lengthBonus := math.Min(float64(s.End-s.Start)/50, 0.2)
	return math.Min(base+lengthBonus, 1.0)
}

// Detector detects and scores skill cues. It is stateless apart from its
// coefficients and seed and safe for concurrent use.
type Detector struct {
	cfg  config.DetectorConfig
	seed int64
}

// NewDetector creates a Detector with the given scoring coefficients. The
// seed exists so callers sharing auxiliary random sources across the pipeline
// can thread one value through; cue matching itself has no randomness.
func NewDetector(cfg config.DetectorConfig, seed int64) *Detector {
	return &Detector{cfg: cfg, seed: seed}
}

// Seed returns the seed the detector was built with.
func (d *Detector) Seed() int64 { return d.seed }

// DetectSkills scores text against every skill vocabulary. The result always
// contains all five skills; skills without cues are zero-valued with
// Detected false, never omitted.
func (d *Detector) DetectSkills(text string, role domain.SpeakerRole) map[domain.Skill]Detection {
	lower := strings.ToLower(text)
	tokens := tokenize(lower)

	results := make(map[domain.Skill]Detection, len(domain.AllSkills))
	for _, s := range domain.AllSkills {
		results[s] = d.detectSingle(lower, tokens, s, role)
	}
	return results
}

func (d *Detector) detectSingle(lower string, tokens []token, s domain.Skill, role domain.SpeakerRole) Detection {
	vocab := vocabularies[s]
	var evidence []domain.CueMatch
	cueCount := 0

	for _, tok := range tokens {
		if _, ok := vocab.keywords[tok.text]; !ok {
			continue
		}
		cueCount++
		evidence = append(evidence, domain.CueMatch{
			Skill:     s,
			MatchType: domain.MatchKeyword,
			Text:      tok.text,
			Start:     tok.start,
			End:       tok.end,
		})
	}

	// Keywords spanning multiple words never align with a single token.
	for _, keyword := range keywordOrder[s] {
		if !strings.Contains(keyword, " ") {
			continue
		}
		idx := strings.Index(lower, keyword)
		if idx < 0 {
			continue
		}
		cueCount++
		evidence = append(evidence, domain.CueMatch{
			Skill:     s,
			MatchType: domain.MatchKeyword,
			Text:      keyword,
			Start:     idx,
			End:       idx + len(keyword),
		})
	}

	for _, phrase := range vocab.phrases {
		idx := strings.Index(lower, phrase)
		if idx < 0 {
			continue
		}
		cueCount++
		evidence = append(evidence, domain.CueMatch{
			Skill:     s,
			MatchType: domain.MatchPhrase,
			Text:      phrase,
			Start:     idx,
			End:       idx + len(phrase),
		})
	}

	if cueCount == 0 {
		return Detection{}
	}

	score := math.Min(d.cfg.BaseScore+float64(cueCount)*d.cfg.CueScoreStep, 1.0)
	if role == domain.RoleStudent {
		score = math.Min(score*d.cfg.StudentBoost, 1.0)
	}
	confidence := math.Min(d.cfg.BaseConfidence+float64(cueCount)*d.cfg.CueConfidenceStep, d.cfg.MaxConfidence)

	if len(evidence) > d.cfg.MaxEvidencePerCue {
		evidence = evidence[:d.cfg.MaxEvidencePerCue]
	}

	return Detection{
		Detected:   true,
		Score:      round3(score),
		Confidence: round3(confidence),
		CueCount:   cueCount,
		Evidence:   evidence,
	}
}

// ScoreConversation aggregates skill scores per student across all their
// sentences. Only sentences with a student role contribute; teacher and
// unknown utterances never feed a student score. When studentIDs is non-nil
// it restricts which students are scored. Every scored student gets an entry
// for every skill, zero-valued when nothing matched.
func (d *Detector) ScoreConversation(sentencesIn []domain.Sentence, studentIDs []string) map[string]map[domain.Skill]domain.SkillScore {
	var focus map[string]struct{}
	if studentIDs != nil {
		focus = make(map[string]struct{}, len(studentIDs))
		for _, id := range studentIDs {
			focus[id] = struct{}{}
		}
	}

	type accumulator struct {
		scores   []float64
		evidence []domain.EvidenceSpan
	}
	acc := make(map[string]map[domain.Skill]*accumulator)

	for _, sent := range sentencesIn {
		if sent.SpeakerRole != domain.RoleStudent {
			continue
		}
		id := sent.SpeakerID
		if focus != nil {
			if _, ok := focus[id]; !ok {
				continue
			}
		}
		if acc[id] == nil {
			acc[id] = make(map[domain.Skill]*accumulator, len(domain.AllSkills))
			for _, s := range domain.AllSkills {
				acc[id][s] = &accumulator{}
			}
		}

		detections := d.DetectSkills(sent.Text, sent.SpeakerRole)
		for _, s := range domain.AllSkills {
			det := detections[s]
			if !det.Detected {
				continue
			}
			a := acc[id][s]
			a.scores = append(a.scores, det.Score)
			for _, cue := range det.Evidence {
				a.evidence = append(a.evidence, cueToSpan(cue, sent.Text))
			}
		}
	}

	final := make(map[string]map[domain.Skill]domain.SkillScore, len(acc))
	for id, skills := range acc {
		final[id] = make(map[domain.Skill]domain.SkillScore, len(domain.AllSkills))
		for _, s := range domain.AllSkills {
			a := skills[s]
			if len(a.scores) == 0 {
				final[id][s] = domain.SkillScore{TopEvidence: []domain.EvidenceSpan{}}
				continue
			}

			sum := 0.0
			for _, v := range a.scores {
				sum += v
			}
			n := len(a.scores)
			boosted := math.Min(sum/float64(n)*(1+float64(n)*d.cfg.DemonstrationBoost), 1.0)
			confidence := math.Min(d.cfg.AggConfidenceBase+float64(n)*d.cfg.AggConfidenceStep, d.cfg.MaxConfidence)

			top := a.evidence
			if len(top) > 3 {
				top = top[:3]
			}
			final[id][s] = domain.SkillScore{
				Score:              round3(boosted),
				Confidence:         round3(confidence),
				DemonstrationCount: n,
				EvidenceCount:      len(a.evidence),
				TopEvidence:        top,
			}
		}
	}
	return final
}

// ExtractSpans finds every vocabulary match inside text for one skill and
// returns the raw spans ranked phrase-first, longer-first, truncated to
// maxSpans. Keywords match by substring here so inflected forms still cite.
func (d *Detector) ExtractSpans(text string, s domain.Skill, maxSpans int) []RawSpan {
	vocab, ok := vocabularies[s]
	if !ok {
		return nil
	}
	lower := strings.ToLower(text)
	var spans []RawSpan

	for _, keyword := range keywordOrder[s] {
		idx := strings.Index(lower, keyword)
		if idx < 0 {
			continue
		}
		spans = append(spans, RawSpan{
			Text:      text[idx : idx+len(keyword)],
			Start:     idx,
			End:       idx + len(keyword),
			Type:      domain.MatchKeyword,
			Rationale: keywordRationale(keyword, s),
		})
	}
	for _, phrase := range vocab.phrases {
		idx := strings.Index(lower, phrase)
		if idx < 0 {
			continue
		}
		spans = append(spans, RawSpan{
			Text:      text[idx : idx+len(phrase)],
			Start:     idx,
			End:       idx + len(phrase),
			Type:      domain.MatchPhrase,
			Rationale: phraseRationale(phrase, s),
		})
	}

	sort.SliceStable(spans, func(i, j int) bool {
		pi, pj := spans[i].Type == domain.MatchPhrase, spans[j].Type == domain.MatchPhrase
		if pi != pj {
			return pi
		}
		return spans[i].End-spans[i].Start > spans[j].End-spans[j].Start
	})

	if maxSpans > 0 && len(spans) > maxSpans {
		spans = spans[:maxSpans]
	}
	return spans
}

// SupportedSkills returns the skills this detector scores, in canonical order.
func (d *Detector) SupportedSkills() []domain.Skill {
	out := make([]domain.Skill, len(domain.AllSkills))
	copy(out, domain.AllSkills)
	return out
}

// SkillDescription returns a human-readable description of a skill.
func (d *Detector) SkillDescription(s domain.Skill) string {
	if desc, ok := domain.SkillDescriptions[s]; ok {
		return desc
	}
	return "Unknown skill"
}

func cueToSpan(cue domain.CueMatch, sentence string) domain.EvidenceSpan {
	text := cue.Text
	if cue.Start >= 0 && cue.End <= len(sentence) && cue.Start < cue.End {
		text = sentence[cue.Start:cue.End]
	}
	raw := RawSpan{Text: text, Start: cue.Start, End: cue.End, Type: cue.MatchType}
	rationale := keywordRationale(cue.Text, cue.Skill)
	if cue.MatchType == domain.MatchPhrase {
		rationale = phraseRationale(cue.Text, cue.Skill)
	}
	return domain.EvidenceSpan{
		Text:              text,
		Rationale:         rationale,
		ScoreContribution: round3(raw.Relevance()),
		Skill:             cue.Skill,
		SpanType:          domain.SpanType(cue.MatchType),
		StartChar:         cue.Start,
		EndChar:           cue.End,
		Context:           sentence,
	}
}

func keywordRationale(keyword string, s domain.Skill) string {
	return "Keyword '" + keyword + "' indicates " + string(s)
}

func phraseRationale(phrase string, s domain.Skill) string {
	return "Phrase '" + phrase + "' demonstrates " + string(s)
}

// token is a whitespace-delimited word with surrounding punctuation trimmed,
// carrying its byte offsets in the scanned text.
type token struct {
	text  string
	start int
	end   int
}

func tokenize(lower string) []token {
	var tokens []token
	cursor := 0
	for _, field := range strings.Fields(lower) {
		idx := strings.Index(lower[cursor:], field)
		if idx < 0 {
			continue
		}
		start := cursor + idx
		end := start + len(field)
		cursor = end

		for start < end && !isWordByte(lower[start]) {
			start++
		}
		for end > start && !isWordByte(lower[end-1]) {
			end--
		}
		if start >= end {
			continue
		}
		tokens = append(tokens, token{text: lower[start:end], start: start, end: end})
	}
	return tokens
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b >= 0x80
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
