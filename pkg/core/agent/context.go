package agent

import (
	"fmt"
	"strings"
)

const continuationCue = "\nContinue. Either request exactly one more tool with the Action / Action Input format, or write the complete final report now.\n"

// Budget bounds the text sent to the model on each turn.
type Budget struct {
	MaxContextChars     int
	MaxObservationChars int
}

// BuildContext renders the prompt followed by the steps so far. Every
// observation, the latest included, is capped at MaxObservationChars. When
// the result would still exceed the budget, observations before the latest
// step are compressed oldest first, then the oldest steps are dropped. The
// prompt is never altered.
func BuildContext(prompt string, steps []Step, budget Budget) string {
	if len(steps) == 0 {
		return prompt
	}

	rendered := make([]string, len(steps))
	for i, s := range steps {
		s.Observation = capObservation(s.Observation, budget.MaxObservationChars)
		rendered[i] = renderStep(s)
	}

	head := prompt
	if !strings.HasSuffix(head, "\n") {
		head += "\n"
	}

	total := func(from int, omitted int) int {
		n := len(head) + len(continuationCue)
		if omitted > 0 {
			n += len(omittedNote(omitted))
		}
		for _, r := range rendered[from:] {
			n += len(r)
		}
		return n
	}

	limit := budget.MaxContextChars
	last := len(steps) - 1

	// Pass 1: compress observations, oldest first, never the last step.
	for i := 0; i < last && limit > 0 && total(0, 0) > limit; i++ {
		if steps[i].Observation == "" {
			continue
		}
		s := steps[i]
		placeholder := fmt.Sprintf("[observation from %s truncated: %d chars omitted]", s.Action, len(s.Observation))
		if len(placeholder) >= len(s.Observation) {
			continue
		}
		s.Observation = placeholder
		rendered[i] = renderStep(s)
	}

	// Pass 2: drop the oldest steps entirely.
	from := 0
	for from < last && limit > 0 && total(from, from) > limit {
		from++
	}

	var sb strings.Builder
	sb.WriteString(head)
	if from > 0 {
		sb.WriteString(omittedNote(from))
	}
	for _, r := range rendered[from:] {
		sb.WriteString(r)
	}
	sb.WriteString(continuationCue)
	return sb.String()
}

func renderStep(s Step) string {
	var sb strings.Builder
	sb.WriteString("\n")
	if s.Thought != "" {
		sb.WriteString("Thought: ")
		sb.WriteString(s.Thought)
		sb.WriteString("\n")
	}
	if s.Action == invalidFormatAction {
		sb.WriteString("Observation: ")
		sb.WriteString(s.Observation)
		sb.WriteString("\n")
		return sb.String()
	}
	if s.Action != "" {
		sb.WriteString("Action: ")
		sb.WriteString(s.Action)
		sb.WriteString("\nAction Input: ")
		sb.WriteString(s.ActionInput)
		sb.WriteString("\nObservation: ")
		sb.WriteString(s.Observation)
		sb.WriteString("\n")
	}
	return sb.String()
}

func omittedNote(n int) string {
	return fmt.Sprintf("\n[%d earlier steps omitted]\n", n)
}

func capObservation(obs string, max int) string {
	if max <= 0 || len(obs) <= max {
		return obs
	}
	cut := max
	// Avoid splitting a multi-byte rune.
	for cut > 0 && !isRuneStart(obs[cut]) {
		cut--
	}
	return obs[:cut] + fmt.Sprintf("\n... (truncated, %d chars omitted)", len(obs)-cut)
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
