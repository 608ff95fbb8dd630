package translator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lingoflow/backend/internal/model"
)

// buildMessages renders the batch into an OpenAI-style message pair. The
// system prompt carries the merged template instructions, the target
// languages, the glossary block and the response contract; the user message
// is the item list as JSON.
func buildMessages(req BatchRequest) ([]chatMessage, error) {
	var sb strings.Builder
	sb.WriteString(req.Prompt)
	sb.WriteString("\n\nTarget languages: ")
	sb.WriteString(strings.Join(req.Languages, ", "))
	sb.WriteString("\n")

	if len(req.Glossary) > 0 {
		sb.WriteString("\nUse these approved glossary translations verbatim whenever the source term appears:\n")
		for _, entry := range req.Glossary {
			sb.WriteString("- ")
			sb.WriteString(entry.Source)
			for lang, text := range entry.Translations {
				fmt.Fprintf(&sb, " | %s: %s", lang, text)
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\nRespond with a JSON array only, no prose. Each element: ")
	sb.WriteString(`{"id": "<item id>", "translations": {"<lang>": {"text": "<translation>"}}}. `)
	sb.WriteString("Include every item id from the input exactly once.")

	items, err := json.Marshal(req.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch items: %w", err)
	}

	return []chatMessage{
		{Role: "system", Content: sb.String()},
		{Role: "user", Content: string(items)},
	}, nil
}

// parseBatchContent decodes the model's reply into per-item results. Items
// the model skipped come back with a per-item error instead of failing the
// whole batch.
func parseBatchContent(content string, req BatchRequest) ([]BatchResult, error) {
	cleaned := extractJSONArray(content)

	var decoded []BatchResult
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return nil, fmt.Errorf("failed to parse batch response: %w", err)
	}

	byID := make(map[string]BatchResult, len(decoded))
	for _, res := range decoded {
		byID[res.ID] = res
	}

	results := make([]BatchResult, 0, len(req.Items))
	for _, item := range req.Items {
		res, ok := byID[item.ID]
		if !ok {
			results = append(results, BatchResult{
				ID:  item.ID,
				Err: "missing from provider response",
			})
			continue
		}
		for lang, cell := range res.Translations {
			if cell.Status == "" {
				cell.Status = model.StatusDraft
				res.Translations[lang] = cell
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// extractJSONArray pulls the first balanced JSON array out of the content,
// tolerating code fences and surrounding prose.
func extractJSONArray(content string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, ch := range content {
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '[':
			if depth == 0 {
				start = i
			}
			depth++
		case ']':
			depth--
			if depth == 0 && start != -1 {
				return content[start : i+1]
			}
		}
	}
	return content
}
