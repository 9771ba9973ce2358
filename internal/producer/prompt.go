package producer

import (
	"fmt"
	"strings"

	"skillscope/internal/domain"
)

// SystemPrompt frames the assistant for skill assessment requests.
const SystemPrompt = "You are an expert in Social-Emotional Learning (SEL) assessment. " +
	"You analyze classroom conversations to identify evidence of SEL skills."

// BuildAnalysisPrompt returns the evidence extraction prompt for one student
// over a transcript, restricted to the given skills.
func BuildAnalysisPrompt(transcript, studentID string, skills []domain.Skill) string {
	var defs strings.Builder
	for _, s := range skills {
		fmt.Fprintf(&defs, "- **%s**: %s\n", strings.ToUpper(string(s)), domain.SkillDescriptions[s])
	}

	return fmt.Sprintf(`Analyze the following classroom conversation transcript and identify specific evidence of SEL skills demonstrated by the student %q.

SEL Skills to assess:
%s
TRANSCRIPT:
%s

INSTRUCTIONS:
1. For each SEL skill, identify 2-5 specific quotes where %s demonstrates that skill
2. Provide a clear rationale explaining WHY each quote demonstrates the skill
3. Rate each piece of evidence with a score_contribution (0.0-1.0) indicating how strongly it demonstrates the skill
4. Rate your confidence (0.0-1.0) in each assessment
5. ONLY include quotes that are actually spoken by %s
6. If %s doesn't demonstrate a particular skill, return an empty list for that skill

Return ONLY valid JSON with no markdown formatting, no code fences, no explanation.

Return your response as a JSON object with this structure:
{
  "empathy": [
    {
      "quote": "exact quote from %s",
      "rationale": "explanation of why this demonstrates empathy",
      "score_contribution": 0.85,
      "confidence": 0.90
    }
  ],
  "adaptability": [...],
  "collaboration": [...],
  "communication": [...],
  "self_regulation": [...]
}`, studentID, defs.String(), transcript, studentID, studentID, studentID, studentID)
}
