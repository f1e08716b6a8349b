package prompts

import (
	"fmt"
	"strings"

	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/domain"
)

// SynthesisSystemPrompt defines the analyst role and the strict JSON-only
// output discipline for the brief synthesis call.
const SynthesisSystemPrompt = `You are a research analyst.
You must synthesize across all provided sources.
Compare themes, highlight contrasts, and identify trade-offs.
If multiple sources exist, the summary must integrate them into a comparative analysis.
Conflicting claims must be generated when one source asserts a claim and another disputes, rejects, or contradicts it.
Example: If Source A states 'Human activity causes climate change' and Source B disputes this, it MUST be a conflicting claim.
Focus on identifying statements that cannot both be true simultaneously.
Do not treat neutral differences as conflict.
You must return ONLY valid JSON.
No markdown, no emojis, no headings, no explanations.
Return raw JSON only.`

// synthesisFormat is the response contract appended to every synthesis request.
const synthesisFormat = `Return the research brief in EXACTLY this JSON format:

{
  "summary": "",
  "key_points": [
    {
      "text": "",
      "source_url": "",
      "source_snippet": ""
    }
  ],
  "conflicting_claims": [
    {
      "claim": "",
      "sources": []
    }
  ],
  "verification_checklist": []
}

Instructions:
- Compare core claims of each source.
- Identify agreements and shared evidence.
- Identify statements that cannot both be true simultaneously.
- Highlight trade-offs and opposing argumentative viewpoints.
- Every source_url must be one of the URLs listed above, verbatim.
- All source_snippet values must be exact excerpts from the provided content.

Rules:
- Do not include any text outside the JSON.
- Do not wrap in backticks.
- Do not add formatting.
- Populate 'conflicting_claims' when sources make clearly contradictory factual or argumentative statements.
- If one source asserts a claim and another disputes, rejects, or contradicts it, this MUST appear in 'conflicting_claims'.
- If no direct contradiction exists, 'conflicting_claims' must be an empty array [].
- Summary must synthesize across ALL sources.`

// BuildSynthesisPrompt combines the extracted articles into one labeled user
// prompt. Each source is numbered and carries its URL so the model can cite
// key points back to specific inputs.
func BuildSynthesisPrompt(articles []domain.ArticleExtraction) string {
	var b strings.Builder
	for i, article := range articles {
		fmt.Fprintf(&b, "SOURCE %d:\n", i+1)
		fmt.Fprintf(&b, "URL: %s\n", article.SourceURL)
		fmt.Fprintf(&b, "TITLE: %s\n", article.Title)
		fmt.Fprintf(&b, "CONTENT:\n%s\n\n", article.BodyText)
	}
	b.WriteString(synthesisFormat)
	return b.String()
}
