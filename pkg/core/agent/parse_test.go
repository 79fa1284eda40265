package agent

import "testing"

func TestParseStep_ToolCall(t *testing.T) {
	tests := []struct {
		name        string
		output      string
		wantAction  string
		wantInput   string
		wantThought string
	}{
		{
			name:       "bare pair",
			output:     "Action: StockPriceTool\nAction Input: AAPL",
			wantAction: "StockPriceTool",
			wantInput:  "AAPL",
		},
		{
			name:        "thought label and surrounding whitespace",
			output:      "Thought: I need the price first.\nAction:   StockPriceTool  \nAction Input:    AAPL   \n",
			wantAction:  "StockPriceTool",
			wantInput:   "AAPL",
			wantThought: "I need the price first.",
		},
		{
			name:        "prose before and after the marker block",
			output:      "Let me look this up.\n\nAction: TavilySearch\nAction Input: Fed rate decision September\n\nObservation: (the model hallucinated this)\nFinal report...",
			wantAction:  "TavilySearch",
			wantInput:   "Fed rate decision September",
			wantThought: "Let me look this up.",
		},
		{
			name:       "first marker wins",
			output:     "Action: StockFundamentalsTool\nAction Input: MSFT\nAction: StockPriceTool\nAction Input: MSFT",
			wantAction: "StockFundamentalsTool",
			wantInput:  "MSFT",
		},
		{
			name:       "blank line between action and input",
			output:     "Action: ArticleSummarizer\n\nAction Input: https://example.com/a",
			wantAction: "ArticleSummarizer",
			wantInput:  "https://example.com/a",
		},
		{
			name:       "input on following lines",
			output:     "Action: TavilySearch\nAction Input:\nApple earnings guidance\n\nmore prose",
			wantAction: "TavilySearch",
			wantInput:  "Apple earnings guidance",
		},
		{
			name:       "windows line endings",
			output:     "Action: StockPriceTool\r\nAction Input: TSLA\r\n",
			wantAction: "StockPriceTool",
			wantInput:  "TSLA",
		},
		{
			name:       "unknown tool name is still a tool call",
			output:     "Action: StockNewsTool\nAction Input: AAPL",
			wantAction: "StockNewsTool",
			wantInput:  "AAPL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, ok := ParseStep(tt.output).(ToolCall)
			if !ok {
				t.Fatalf("Expected ToolCall, got %#v", ParseStep(tt.output))
			}
			if call.Action != tt.wantAction {
				t.Errorf("Expected action %q, got %q", tt.wantAction, call.Action)
			}
			if call.Input != tt.wantInput {
				t.Errorf("Expected input %q, got %q", tt.wantInput, call.Input)
			}
			if call.Thought != tt.wantThought {
				t.Errorf("Expected thought %q, got %q", tt.wantThought, call.Thought)
			}
		})
	}
}

func TestParseStep_FinalAnswer(t *testing.T) {
	outputs := []string{
		"## Stock Analysis Report\n\n## Executive Summary\nApple is fine.",
		"No data was available, so this is qualitative only.",
		// Lower-case or inline mentions are not markers.
		"The next action: wait for earnings.\nWe discussed the Action Input: format earlier.",
		"Final Answer: the report",
		// An Action line without an Action Input pair is report prose.
		"## Recommendation\nAction: Hold the position until earnings.\nRisks remain elevated.",
		"Thought: hmm\nAction: StockPriceTool",
	}

	for _, out := range outputs {
		got, ok := ParseStep(out).(FinalAnswer)
		if !ok {
			t.Errorf("Expected FinalAnswer for %q, got %#v", out, ParseStep(out))
			continue
		}
		if got.Text != out {
			t.Errorf("Expected the entire output as final answer, got %q", got.Text)
		}
	}
}

func TestParseStep_Unparseable(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"empty", ""},
		{"whitespace", "  \n\t "},
		{"empty action name", "Action:\nAction Input: AAPL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseStep(tt.output).(Unparseable)
			if !ok {
				t.Fatalf("Expected Unparseable, got %#v", ParseStep(tt.output))
			}
			if got.Reason == "" {
				t.Error("Expected a reason")
			}
		})
	}
}
