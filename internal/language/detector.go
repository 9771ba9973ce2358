// Package language identifies the dominant language of a document.
//
// Detection is layered: a statistical language model first, a lightweight
// frequency-profile heuristic second, and a configured default last.
// Transcripts are short, code-switched and noisy, so no single tier is
// reliable enough on its own.
package language

import (
	"log"
	"math"
	"strings"

	"github.com/pemistahl/lingua-go"

	"skillscope/internal/config"
	"skillscope/internal/domain"
)

// Reasons reported when detection falls through to the default language.
const (
	ReasonTextTooShort    = "text_too_short"
	ReasonLowConfidence   = "low_confidence"
	ReasonHeuristicFailed = "heuristic_failed"
)

// Detection methods reported in results.
const (
	MethodStatistical = "statistical"
	MethodHeuristic   = "heuristic"
	MethodDefault     = "default"
)

// heuristicWindow caps how much text the profile heuristic scans.
const heuristicWindow = 1000

// supportedLanguages maps ISO 639-1 codes to display names.
var supportedLanguages = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"zh": "Chinese",
	"ja": "Japanese",
	"ko": "Korean",
	"ar": "Arabic",
	"hi": "Hindi",
	"pt": "Portuguese",
}

var linguaLanguages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Chinese,
	lingua.Japanese,
	lingua.Korean,
	lingua.Arabic,
	lingua.Hindi,
	lingua.Portuguese,
}

// Detector identifies the language of a text. Construction is the expensive
// step (the statistical models are loaded eagerly); build one Detector per
// process before concurrent document processing starts. A warm Detector is
// read-only and safe for concurrent use.
type Detector struct {
	defaultLanguage string
	statistical     lingua.LanguageDetector
	profiles        map[string]map[string]struct{}
}

// New creates a Detector with preloaded statistical models and the embedded
// per-language heuristic profiles.
func New(cfg config.LanguageConfig) *Detector {
	defaultLang := cfg.Default
	if defaultLang == "" {
		defaultLang = "en"
	}

	log.Printf("language.New: loading statistical models for %d languages", len(linguaLanguages))
	statistical := lingua.NewLanguageDetectorBuilder().
		FromLanguages(linguaLanguages...).
		WithPreloadedLanguageModels().
		Build()

	return &Detector{
		defaultLanguage: defaultLang,
		statistical:     statistical,
		profiles:        languageProfiles,
	}
}

// Detect identifies the language of text. The top statistical candidate wins
// when its probability reaches minConfidence; otherwise the frequency-profile
// heuristic is tried; otherwise the configured default is returned with a
// reason explaining why detection was inconclusive.
func (d *Detector) Detect(text string, minConfidence float64) domain.LanguageResult {
	if len(strings.TrimSpace(text)) < 3 {
		return d.defaultResult(ReasonTextTooShort)
	}

	values := d.statistical.ComputeLanguageConfidenceValues(text)
	if len(values) > 0 {
		top := values[0]
		code := isoCode(top.Language())
		if top.Value() >= minConfidence {
			result := domain.LanguageResult{
				Language:     code,
				Name:         languageName(code),
				Confidence:   round3(top.Value()),
				Method:       MethodStatistical,
				Alternatives: []domain.LanguageAlternative{},
			}
			for _, alt := range values[1:] {
				if len(result.Alternatives) == 2 {
					break
				}
				result.Alternatives = append(result.Alternatives, domain.LanguageAlternative{
					Language:   isoCode(alt.Language()),
					Confidence: round3(alt.Value()),
				})
			}
			return result
		}
		log.Printf("language.Detect: low statistical confidence %.2f for %q", top.Value(), code)
	}

	result, reason := d.detectWithProfiles(text)
	if reason == "" {
		return result
	}
	return d.defaultResult(reason)
}

// DetectBatch detects the language of each text independently.
func (d *Detector) DetectBatch(texts []string, minConfidence float64) []domain.LanguageResult {
	results := make([]domain.LanguageResult, len(texts))
	for i, text := range texts {
		results[i] = d.Detect(text, minConfidence)
	}
	return results
}

// IsSupported reports whether code is a supported ISO 639-1 language code.
func (d *Detector) IsSupported(code string) bool {
	_, ok := supportedLanguages[code]
	return ok
}

// detectWithProfiles scores the text against each loaded language profile by
// valid-token ratio over the first heuristicWindow characters. A best score
// above 0.5 is accepted; otherwise the returned reason distinguishes a
// profile match that was too weak (heuristic_failed) from no profile signal
// at all (low_confidence).
func (d *Detector) detectWithProfiles(text string) (domain.LanguageResult, string) {
	window := text
	if len(window) > heuristicWindow {
		window = window[:heuristicWindow]
	}

	tokens := strings.Fields(strings.ToLower(window))
	if len(tokens) == 0 {
		return domain.LanguageResult{}, ReasonLowConfidence
	}

	bestScore := 0.0
	bestLang := ""
	for code, profile := range d.profiles {
		hits := 0
		for _, tok := range tokens {
			tok = strings.Trim(tok, ".,!?;:()[]\"'-")
			if _, ok := profile[tok]; ok {
				hits++
			}
		}
		score := float64(hits) / float64(len(tokens))
		if score > bestScore {
			bestScore = score
			bestLang = code
		}
	}

	if bestLang == "" || bestScore == 0 {
		return domain.LanguageResult{}, ReasonLowConfidence
	}
	if bestScore <= 0.5 {
		return domain.LanguageResult{}, ReasonHeuristicFailed
	}

	return domain.LanguageResult{
		Language:     bestLang,
		Name:         languageName(bestLang),
		Confidence:   round3(bestScore),
		Method:       MethodHeuristic,
		Alternatives: []domain.LanguageAlternative{},
	}, ""
}

func (d *Detector) defaultResult(reason string) domain.LanguageResult {
	return domain.LanguageResult{
		Language:     d.defaultLanguage,
		Name:         languageName(d.defaultLanguage),
		Confidence:   0.5,
		Method:       MethodDefault,
		Reason:       reason,
		Alternatives: []domain.LanguageAlternative{},
	}
}

func languageName(code string) string {
	if name, ok := supportedLanguages[code]; ok {
		return name
	}
	return "Unknown"
}

func isoCode(lang lingua.Language) string {
	return strings.ToLower(lang.IsoCode639_1().String())
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
