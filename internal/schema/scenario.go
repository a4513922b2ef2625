package schema

import (
	"fmt"
	"strings"
)

// Scenario selects a schema document, a few-shot example file and a database
// connection profile. The set is fixed at startup.
type Scenario string

const (
	Scenario13 Scenario = "scenario_1_3"
	Scenario45 Scenario = "scenario_4_5"
)

// topicAliases maps the business topics accepted by the query API onto the
// two backing scenarios.
var topicAliases = map[string]Scenario{
	"data_insight":  Scenario13,
	"regional":      Scenario13,
	"industry":      Scenario13,
	"investment":    Scenario45,
	"due_diligence": Scenario45,
}

// Parse resolves a raw scenario or topic string. An empty value defaults to
// scenario_1_3, matching the API's historic default topic.
func Parse(raw string) (Scenario, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return Scenario13, nil
	}
	switch Scenario(normalized) {
	case Scenario13, Scenario45:
		return Scenario(normalized), nil
	}
	if scenario, ok := topicAliases[normalized]; ok {
		return scenario, nil
	}
	return "", fmt.Errorf("unknown scenario %q", raw)
}

func (s Scenario) Valid() bool {
	return s == Scenario13 || s == Scenario45
}

// All returns the fixed scenario set in a stable order.
func All() []Scenario {
	return []Scenario{Scenario13, Scenario45}
}
