package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PriorityRule is one row of the declarative classification table. Rules are
// evaluated in declared order; the first match wins.
type PriorityRule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Fields   []string `yaml:"fields"`
	Level    string   `yaml:"level"`
}

type ApprovalLimits struct {
	DepartmentManager float64 `yaml:"department_manager"`
	Director          float64 `yaml:"director"`
	VP                float64 `yaml:"vp"`
	CFO               float64 `yaml:"cfo"`
	CEO               float64 `yaml:"ceo"`
	Board             float64 `yaml:"board"`
}

type ProcurementBudget struct {
	AnnualBudget float64 `yaml:"annual_budget"`
	SpentYTD     float64 `yaml:"spent_ytd"`
}

func (b ProcurementBudget) Remaining() float64 {
	return b.AnnualBudget - b.SpentYTD
}

type Rules struct {
	PriorityRules     []PriorityRule    `yaml:"priority_rules"`
	ApprovalLimits    ApprovalLimits    `yaml:"approval_limits"`
	ProcurementBudget ProcurementBudget `yaml:"procurement_budget"`
}

// LoadRules reads the YAML rule table, falling back to compiled-in defaults
// when the file is absent.
func LoadRules(path string) (Rules, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRules(), nil
		}
		return Rules{}, err
	}

	rules := DefaultRules()
	if err := yaml.Unmarshal(blob, &rules); err != nil {
		return Rules{}, fmt.Errorf("parse rules %s: %w", path, err)
	}
	return rules, nil
}

func DefaultRules() Rules {
	return Rules{
		PriorityRules: []PriorityRule{
			{Name: "urgent-keyword", Keywords: []string{"urgent", "asap", "immediate", "rush", "expedite", "critical"}, Fields: []string{"subject", "body"}, Level: "high"},
			{Name: "deadline-keyword", Keywords: []string{"deadline", "overdue", "expedited delivery"}, Fields: []string{"subject"}, Level: "high"},
			{Name: "routine-keyword", Keywords: []string{"no rush", "whenever convenient", "standing order"}, Fields: []string{"subject", "body"}, Level: "low"},
		},
		ApprovalLimits: ApprovalLimits{
			DepartmentManager: 25000,
			Director:          100000,
			VP:                250000,
			CFO:               500000,
			CEO:               1000000,
			Board:             5000000,
		},
		ProcurementBudget: ProcurementBudget{
			AnnualBudget: 2000000,
			SpentYTD:     1100000,
		},
	}
}

// ClassifyPriority evaluates the rule table against the subject and body.
// No match yields medium.
func (r Rules) ClassifyPriority(subject, body string) (string, string) {
	subject = strings.ToLower(subject)
	body = strings.ToLower(body)

	for _, rule := range r.PriorityRules {
		for _, field := range rule.Fields {
			haystack := ""
			switch field {
			case "subject":
				haystack = subject
			case "body":
				haystack = body
			default:
				continue
			}
			for _, kw := range rule.Keywords {
				if strings.Contains(haystack, strings.ToLower(kw)) {
					return rule.Level, rule.Name
				}
			}
		}
	}
	return "medium", ""
}

// ApprovalLevelFor maps an amount to the first rung of the approval ladder
// that can sign off on it.
func (l ApprovalLimits) ApprovalLevelFor(amount float64) string {
	switch {
	case amount <= l.DepartmentManager:
		return "Department Manager"
	case amount <= l.Director:
		return "Director"
	case amount <= l.VP:
		return "VP"
	case amount <= l.CFO:
		return "CFO"
	case amount <= l.CEO:
		return "CEO"
	default:
		return "Board of Directors"
	}
}
