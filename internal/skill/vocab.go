package skill

import "skillscope/internal/domain"

// vocabulary is one skill's fixed cue table: a keyword set matched per token
// and a phrase list matched by substring containment. All entries are literal
// and lower-case; matching is case-insensitive.
type vocabulary struct {
	keywords map[string]struct{}
	phrases  []string
}

var vocabularies = map[domain.Skill]vocabulary{
	domain.SkillEmpathy: {
		keywords: keywordSet(
			"understand", "feel", "sorry", "care", "help", "support",
			"sympathy", "compassion", "concern", "comfort", "listen",
		),
		phrases: []string{
			"i understand", "i feel", "must be hard", "can imagine",
			"how do you feel", "sorry to hear", "are you okay",
		},
	},
	domain.SkillAdaptability: {
		keywords: keywordSet(
			"change", "adapt", "adjust", "flexible", "different", "new way",
			"try", "alternative", "modify", "switch", "pivot",
		),
		phrases: []string{
			"let's try", "different approach", "change our plan",
			"adapt to", "adjust our", "be flexible", "new strategy",
		},
	},
	domain.SkillCollaboration: {
		keywords: keywordSet(
			"together", "team", "group", "cooperate", "work with", "help each other",
			"share", "collaborate", "partner", "join", "contribute",
		),
		phrases: []string{
			"let's work together", "as a team", "help each other",
			"work with", "collaborate on", "share ideas", "team effort",
		},
	},
	domain.SkillCommunication: {
		keywords: keywordSet(
			"explain", "clarify", "describe", "tell", "ask", "discuss",
			"share", "express", "articulate", "present", "communicate",
		),
		phrases: []string{
			"let me explain", "can you clarify", "what do you mean",
			"in other words", "to put it simply", "my point is",
		},
	},
	domain.SkillSelfRegulation: {
		keywords: keywordSet(
			"calm", "control", "patient", "wait", "focus", "manage",
			"think", "breathe", "relax", "compose", "steady",
		),
		phrases: []string{
			"need to focus", "stay calm", "take a breath", "control myself",
			"be patient", "think before", "manage my", "keep it together",
		},
	},
}

func keywordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
