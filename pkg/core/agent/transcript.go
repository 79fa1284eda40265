package agent

// Step is one parsed model turn plus, for tool turns, the observation fed back.
// Exactly one of Action and FinalAnswer is set.
type Step struct {
	Thought     string `json:"thought,omitempty"`
	Action      string `json:"action,omitempty"`
	ActionInput string `json:"action_input,omitempty"`
	Observation string `json:"observation,omitempty"`
	FinalAnswer string `json:"final_answer,omitempty"`
}

// IsToolStep reports whether the step requested an action.
func (s Step) IsToolStep() bool {
	return s.Action != ""
}

// Transcript is the append-only step history of a single run. It is owned by
// one Runner.Run call and never shared.
type Transcript struct {
	steps []Step
}

func (t *Transcript) Append(s Step) {
	t.steps = append(t.steps, s)
}

// Steps returns a copy of the recorded steps.
func (t *Transcript) Steps() []Step {
	return append([]Step(nil), t.steps...)
}

// Last returns the most recent step.
func (t *Transcript) Last() (Step, bool) {
	if len(t.steps) == 0 {
		return Step{}, false
	}
	return t.steps[len(t.steps)-1], true
}
