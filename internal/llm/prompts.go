package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/knet/internal/domain"
)

const theoryPrompt = `You are helping someone grow a personal knowledge network of axioms, theories and conclusions.

Given the source statements below, propose ONE new theory that follows from them taken together.
The theory must be a single clear sentence that is supported by every source.

Each source is tagged with its type and, when known, its confidence:
- [AXIOM] = taken as foundational
- [THEORY] = derived from other statements
- [CONCLUSION] = a drawn conclusion

Respond ONLY with a JSON object. No markdown, no explanation. Example:
{"content":"...","suggested_tags":["tag"],"suggested_confidence":0.7,"reasoning":"..."}

suggested_confidence must be between 0 and 1 and should not exceed the weakest source.

Sources:
%s`

func formatSources(sources []domain.Statement) string {
	var sb strings.Builder
	for i, s := range sources {
		sb.WriteString(fmt.Sprintf("%d. [%s]", i+1, strings.ToUpper(string(s.Kind))))
		if s.Confidence != nil {
			sb.WriteString(fmt.Sprintf("[%.2f]", *s.Confidence))
		}
		sb.WriteString(" ")
		sb.WriteString(s.Content)
		if len(s.Tags) > 0 {
			sb.WriteString(" (tags: ")
			sb.WriteString(strings.Join(s.Tags, ", "))
			sb.WriteString(")")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func buildTheoryPrompt(req domain.TheoryRequest) string {
	return fmt.Sprintf(theoryPrompt, formatSources(req.SourceStatements))
}

// parseDraft decodes a model reply, tolerating markdown fences around the
// JSON object.
func parseDraft(raw string) (*domain.TheoryDraft, error) {
	result := strings.TrimSpace(raw)
	result = strings.TrimPrefix(result, "```json")
	result = strings.TrimPrefix(result, "```")
	result = strings.TrimSuffix(result, "```")
	result = strings.TrimSpace(result)

	var draft domain.TheoryDraft
	if err := json.Unmarshal([]byte(result), &draft); err != nil {
		return nil, fmt.Errorf("parse theory draft: %w (raw: %s)", err, result)
	}
	draft.Content = strings.TrimSpace(draft.Content)
	if draft.Content == "" {
		return nil, fmt.Errorf("parse theory draft: empty content (raw: %s)", result)
	}
	return &draft, nil
}
