package prompt

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Prompt IDs for the two research kinds.
const (
	StockAnalysisID = "stock.analysis"
	NewsResearchID  = "news.research"
)

// Built is a rendered prompt pair.
type Built struct {
	System string
	User   string
}

// Build renders prompt id for subject. It never fails: when the template is
// missing or cannot be executed a plain rendering with the same required
// elements is returned.
func (r *Registry) Build(id, subject string, now time.Time, tools []Tool) Built {
	ctx := NewContext().
		Set("Subject", subject).
		Set("Date", now.Format("2006-01-02")).
		Set("Time", now.Format("15:04:05")).
		Set("Tools", tools).
		Set("ExampleTool", exampleTool(id, tools)).
		Set("ExampleInput", exampleInput(id, subject))

	pt, err := r.GetPrompt(id)
	if err == nil {
		user, rerr := RenderUserPrompt(pt, ctx)
		if rerr == nil && strings.TrimSpace(user) != "" {
			return Built{System: pt.SystemPrompt, User: user}
		}
		err = rerr
	}
	fmt.Fprintf(os.Stderr, "[prompt] Warning: falling back to plain prompt for %s: %v\n", id, err)
	return Built{User: fallback(id, subject, now, tools)}
}

// StockAnalysis builds the stock report prompt from the embedded templates.
func StockAnalysis(ticker string, now time.Time, tools []Tool) Built {
	return buildDefault(StockAnalysisID, ticker, now, tools)
}

// NewsResearch builds the news research prompt from the embedded templates.
func NewsResearch(topic string, now time.Time, tools []Tool) Built {
	return buildDefault(NewsResearchID, topic, now, tools)
}

func buildDefault(id, subject string, now time.Time, tools []Tool) Built {
	r, err := Default()
	if err != nil {
		r = NewRegistry()
	}
	return r.Build(id, subject, now, tools)
}

func exampleTool(id string, tools []Tool) string {
	want := "StockPriceTool"
	if id == NewsResearchID {
		want = "TavilySearch"
	}
	for _, t := range tools {
		if t.Name == want {
			return want
		}
	}
	if len(tools) > 0 {
		return tools[0].Name
	}
	return want
}

func exampleInput(id, subject string) string {
	if id == NewsResearchID {
		return subject + " latest news"
	}
	return subject
}

func fallback(id, subject string, now time.Time, tools []Tool) string {
	var sb strings.Builder
	if id == NewsResearchID {
		fmt.Fprintf(&sb, "Research the financial news topic: %q\n", subject)
	} else {
		fmt.Fprintf(&sb, "Write a structured stock analysis report for the ticker: %s\n", subject)
	}
	fmt.Fprintf(&sb, "Date: %s\nTime: %s\n\n", now.Format("2006-01-02"), now.Format("15:04:05"))

	sb.WriteString("You have access to the following tools. Use them exactly as named:\n")
	for _, t := range tools {
		fmt.Fprintf(&sb, "- %s: %s\n", t.Name, t.Description)
	}
	sb.WriteString("\nTo use a tool, reply with exactly:\n\nAction: <ToolName>\nAction Input: <input for the tool>\n\n")
	fmt.Fprintf(&sb, "For example:\n\nAction: %s\nAction Input: %s\n\n", exampleTool(id, tools), exampleInput(id, subject))
	sb.WriteString("Produce the entire report in one response without asking for confirmation or pausing.\n")
	sb.WriteString("Do not invent numbers. If data is not found through tools, say so.\n")
	return sb.String()
}
