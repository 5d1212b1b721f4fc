package trigger

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"StockAlert/internal/model"
)

// InvalidConditionError is returned for text that does not match
// "<kind> <op> <number>".
type InvalidConditionError struct {
	Text       string
	ValidKinds []string
}

func (e *InvalidConditionError) Error() string {
	return fmt.Sprintf("invalid condition %q: expected '<kind> >=|<= <number>' with kind one of: %s",
		e.Text, strings.Join(e.ValidKinds, ", "))
}

var conditionRE = buildConditionRE()

func buildConditionRE() *regexp.Regexp {
	kinds := validKinds()
	// Longest first so a kind that prefixes another never shadows it.
	sort.Slice(kinds, func(i, j int) bool { return len(kinds[i]) > len(kinds[j]) })
	quoted := make([]string, len(kinds))
	for i, k := range kinds {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`(?i)^(` + strings.Join(quoted, "|") + `)\s*(>=|<=)\s*([+-]?(?:\d+(?:\.\d*)?|\.\d+))$`)
}

func validKinds() []string {
	out := make([]string, len(model.AlertKinds))
	for i, k := range model.AlertKinds {
		out[i] = string(k)
	}
	return out
}

// ParseCondition turns text such as "price_value >= 200" into its parts.
// Matching is case-insensitive and whitespace between tokens is optional.
func ParseCondition(text string) (model.AlertKind, model.Operator, float64, error) {
	m := conditionRE.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", "", 0, &InvalidConditionError{Text: text, ValidKinds: validKinds()}
	}
	value, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return "", "", 0, &InvalidConditionError{Text: text, ValidKinds: validKinds()}
	}
	return model.AlertKind(strings.ToLower(m[1])), model.Operator(m[2]), value, nil
}
