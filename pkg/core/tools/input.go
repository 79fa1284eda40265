package tools

import (
	"encoding/json"
	"regexp"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.\-^=]{1,12}$`)

// NormalizeInput cleans a raw Action Input. Models sometimes wrap the value in
// quotes or backticks, or send a one-field object like {"ticker": "AAPL"};
// in those cases the bare value is returned.
func NormalizeInput(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.Trim(s, "`"))

	if strings.HasPrefix(s, "{") {
		if v, ok := singleValue(s); ok {
			return v
		}
	}
	return unquote(s)
}

func unquote(s string) string {
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return s
}

// singleValue extracts the only string value of a JSON-ish object.
func singleValue(s string) (string, bool) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		obj = nil
		if repaired, rerr := jsonrepair.RepairJSON(s); rerr == nil {
			if json.Unmarshal([]byte(repaired), &obj) != nil {
				obj = nil
			}
		}
		if obj == nil && hjson.Unmarshal([]byte(s), &obj) != nil {
			return "", false
		}
	}
	if len(obj) != 1 {
		return "", false
	}
	for _, v := range obj {
		if str, ok := v.(string); ok {
			return strings.TrimSpace(str), true
		}
	}
	return "", false
}

// NormalizeTicker upper-cases a symbol and reports whether it is well formed.
func NormalizeTicker(input string) (string, bool) {
	t := strings.ToUpper(strings.TrimSpace(input))
	t = strings.TrimPrefix(t, "$")
	return t, tickerPattern.MatchString(t)
}
