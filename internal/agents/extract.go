package agents

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencedBlockRe = regexp.MustCompile("(?is)```([a-zA-Z0-9_-]*)[ \t]*\r?\n(.*?)```")
	fenceMarkerRe = regexp.MustCompile("(?i)```[a-zA-Z0-9_-]*")
)

// extractFencedBlock returns the contents of the first fenced code block with
// the given language tag, or "" if none exists.
func extractFencedBlock(text, lang string) string {
	for _, m := range fencedBlockRe.FindAllStringSubmatch(text, -1) {
		if strings.EqualFold(m[1], lang) {
			return strings.TrimSpace(m[2])
		}
	}
	return ""
}

// cleanJSONPayload strips markdown fences and surrounding prose from a model
// response that is supposed to be a JSON value, and repairs a truncated
// trailing array. Models routinely wrap JSON in ```json fences or prepend
// commentary.
func cleanJSONPayload(s string) string {
	cleaned := fenceMarkerRe.ReplaceAllString(s, "")

	// Drop everything before the first bracket and after the last one.
	start := strings.IndexAny(cleaned, "[{")
	if start >= 0 {
		cleaned = cleaned[start:]
	}
	end := strings.LastIndexAny(cleaned, "]}")
	if end >= 0 {
		cleaned = cleaned[:end+1]
	}
	cleaned = strings.TrimSpace(cleaned)

	// Truncated array: close it rather than fail the whole parse.
	if strings.HasPrefix(cleaned, "[") && !strings.HasSuffix(cleaned, "]") {
		cleaned = strings.TrimRight(cleaned, ",") + "]"
	}

	return cleaned
}

// parseTaskList decodes an ordered list of task descriptions from a model
// response. Blank entries are dropped, order is preserved.
func parseTaskList(raw string) ([]string, error) {
	var tasks []string
	if err := json.Unmarshal([]byte(cleanJSONPayload(raw)), &tasks); err != nil {
		return nil, err
	}

	out := tasks[:0]
	for _, t := range tasks {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

// parseCostJSON decodes the structured cost breakdown. The bool result is
// false when the payload is malformed; callers degrade to an empty object
// instead of failing the bundle.
func parseCostJSON(raw string) (map[string]any, bool) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, false
	}

	var cost map[string]any
	if err := json.Unmarshal([]byte(cleanJSONPayload(raw)), &cost); err != nil {
		return map[string]any{}, false
	}
	if cost == nil {
		cost = map[string]any{}
	}
	return cost, true
}

// extractMarkdownTable returns the first contiguous run of markdown table
// rows in the text, or "" if there is none.
func extractMarkdownTable(text string) string {
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") {
			rows = append(rows, trimmed)
		} else if len(rows) > 0 {
			break
		}
	}
	if len(rows) < 2 {
		return ""
	}
	return strings.Join(rows, "\n")
}
