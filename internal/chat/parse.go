package chat

import (
	"encoding/json"
	"regexp"
	"strings"
)

// toolCall is one parsed tool invocation request from the model.
type toolCall struct {
	Name string
	Args json.RawMessage
}

var (
	toolPattern = regexp.MustCompile(`(?i)TOOL:\s*(\w+)`)
	argsPattern = regexp.MustCompile(`(?is)ARGS:\s*(\{.*?\})`)

	toolLinePattern = regexp.MustCompile(`(?i)^\s*TOOL:\s*`)
	argsLinePattern = regexp.MustCompile(`(?i)^\s*ARGS:\s*`)
)

// parseToolCall extracts at most one TOOL:/ARGS: call from a model
// response. Models sometimes emit single-quoted pseudo-JSON; that gets a
// best-effort repair before giving up on the arguments.
func parseToolCall(response string) (toolCall, bool) {
	m := toolPattern.FindStringSubmatch(response)
	if m == nil {
		return toolCall{}, false
	}
	call := toolCall{Name: strings.TrimSpace(m[1])}

	if am := argsPattern.FindStringSubmatch(response); am != nil {
		raw := am[1]
		if !json.Valid([]byte(raw)) {
			raw = strings.ReplaceAll(raw, "'", `"`)
		}
		if json.Valid([]byte(raw)) {
			call.Args = json.RawMessage(raw)
		}
	}
	return call, true
}

// cleanResponse strips tool call syntax from a final answer, including a
// dangling argument object on the line after a TOOL: line.
func cleanResponse(response string) string {
	lines := strings.Split(response, "\n")
	cleaned := make([]string, 0, len(lines))
	skipJSON := false
	for _, line := range lines {
		switch {
		case toolLinePattern.MatchString(line):
			skipJSON = true
			continue
		case argsLinePattern.MatchString(line):
			continue
		case skipJSON && strings.HasPrefix(strings.TrimSpace(line), "{"):
			skipJSON = false
			continue
		}
		skipJSON = false
		cleaned = append(cleaned, line)
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}
