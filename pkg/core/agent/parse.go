package agent

import (
	"regexp"
	"strings"
)

// Parsed is the result of reading one model turn. It is exactly one of
// ToolCall, FinalAnswer or Unparseable.
type Parsed interface {
	isParsed()
}

// ToolCall is a request to run a named tool.
type ToolCall struct {
	Thought string
	Action  string
	Input   string
}

// FinalAnswer ends the loop with the model output as the report body.
type FinalAnswer struct {
	Text string
}

// Unparseable is model output the loop cannot act on: empty text or an
// Action line without a tool name.
type Unparseable struct {
	Raw    string
	Reason string
}

func (ToolCall) isParsed()    {}
func (FinalAnswer) isParsed() {}
func (Unparseable) isParsed() {}

var (
	actionLine      = regexp.MustCompile(`^\s*Action:(.*)$`)
	actionInputLine = regexp.MustCompile(`^\s*Action Input:(.*)$`)
	markerLine      = regexp.MustCompile(`^\s*(Thought|Action|Action Input|Observation|Final Answer):`)
	thoughtLabel    = regexp.MustCompile(`(?i)^\s*thought:\s*`)
)

// ParseStep reads free model text. The first line starting with "Action:"
// wins and is a tool call only when the next non-blank line carries
// "Action Input:". Any other output is a final answer in its entirety.
func ParseStep(output string) Parsed {
	if strings.TrimSpace(output) == "" {
		return Unparseable{Raw: output, Reason: "empty model output"}
	}

	lines := strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n")

	actionIdx := -1
	var action string
	for i, line := range lines {
		if m := actionLine.FindStringSubmatch(line); m != nil {
			actionIdx = i
			action = strings.TrimSpace(m[1])
			break
		}
	}
	if actionIdx < 0 {
		return FinalAnswer{Text: output}
	}

	thought := strings.TrimSpace(strings.Join(lines[:actionIdx], "\n"))
	thought = strings.TrimSpace(thoughtLabel.ReplaceAllString(thought, ""))

	if action == "" {
		return Unparseable{Raw: output, Reason: "Action line has no tool name"}
	}

	inputIdx := actionIdx + 1
	for inputIdx < len(lines) && strings.TrimSpace(lines[inputIdx]) == "" {
		inputIdx++
	}
	if inputIdx >= len(lines) {
		return FinalAnswer{Text: output}
	}
	m := actionInputLine.FindStringSubmatch(lines[inputIdx])
	if m == nil {
		return FinalAnswer{Text: output}
	}

	input := strings.TrimSpace(m[1])
	if input == "" {
		// Multi-line input: collect until a blank line or the next marker.
		var block []string
		for _, line := range lines[inputIdx+1:] {
			if strings.TrimSpace(line) == "" || markerLine.MatchString(line) {
				if len(block) > 0 || markerLine.MatchString(line) {
					break
				}
				continue
			}
			block = append(block, line)
		}
		input = strings.TrimSpace(strings.Join(block, "\n"))
	}

	return ToolCall{Thought: thought, Action: action, Input: input}
}
