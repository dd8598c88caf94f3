package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/tidwall/gjson"
)

// MappingRules turn one raw external record into a task. Field rules are
// dot-paths into the record; the XP rule is either an integer literal or a
// small arithmetic/ternary expression over the record's fields.
type MappingRules struct {
	ExternalIDField    string   `json:"externalIdField"`
	TitleField         string   `json:"titleField"`
	DescriptionField   string   `json:"descriptionField"`
	DueDateField       string   `json:"dueDateField"`
	EstimatedXPFormula string   `json:"estimatedXpFormula"`
	DefaultStats       []string `json:"defaultStats"`
}

func ParseMappingRules(raw string) (*MappingRules, error) {
	var rules MappingRules
	if err := json.Unmarshal([]byte(raw), &rules); err != nil {
		return nil, fmt.Errorf("parse mapping rules: %w", err)
	}
	if rules.TitleField == "" {
		return nil, ValidationError{Field: "mappingRules.titleField", Reason: "is required"}
	}
	if rules.ExternalIDField == "" {
		rules.ExternalIDField = "id"
	}
	return &rules, nil
}

// resolvePath extracts a dot-path value from a raw JSON record. Absent paths
// yield ok=false, never an error; only traversal is supported.
func resolvePath(record json.RawMessage, path string) (gjson.Result, bool) {
	if path == "" {
		return gjson.Result{}, false
	}
	v := gjson.GetBytes(record, path)
	return v, v.Exists()
}

// mappedTask is the field set extracted from one record.
type mappedTask struct {
	ExternalID  string
	Title       string
	Description *string
	DueDate     *time.Time
	EstimatedXP int
}

// extractTask applies the rules to one raw record. A missing title (or a
// record that is not a JSON object) is the only hard failure.
func (r *MappingRules) extractTask(record json.RawMessage) (*mappedTask, error) {
	if len(record) == 0 || !gjson.ValidBytes(record) || !gjson.ParseBytes(record).IsObject() {
		return nil, ValidationError{Field: "record", Reason: "not a JSON object"}
	}

	extID, ok := resolvePath(record, r.ExternalIDField)
	if !ok || strings.TrimSpace(extID.String()) == "" {
		return nil, ValidationError{Field: r.ExternalIDField, Reason: "external id is missing"}
	}

	title, ok := resolvePath(record, r.TitleField)
	if !ok || strings.TrimSpace(title.String()) == "" {
		return nil, ValidationError{Field: r.TitleField, Reason: "title is missing"}
	}

	out := &mappedTask{
		ExternalID: extID.String(),
		Title:      strings.TrimSpace(title.String()),
	}

	if desc, ok := resolvePath(record, r.DescriptionField); ok && desc.String() != "" {
		v := desc.String()
		out.Description = &v
	}
	if due, ok := resolvePath(record, r.DueDateField); ok {
		if t, ok := parseDueDate(due.String()); ok {
			out.DueDate = &t
		}
	}

	xp, err := r.evaluateXP(record)
	if err != nil {
		return nil, err
	}
	out.EstimatedXP = xp
	return out, nil
}

// evaluateXP computes estimatedXp for a record. Integer literals short-circuit;
// anything else runs as a sandboxed expression with the record's top-level
// fields as the only environment. No calls, no side effects.
func (r *MappingRules) evaluateXP(record json.RawMessage) (int, error) {
	formula := strings.TrimSpace(r.EstimatedXPFormula)
	if formula == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(formula); err == nil {
		if n < 0 {
			return 0, nil
		}
		return n, nil
	}

	var env map[string]any
	if err := json.Unmarshal(record, &env); err != nil {
		return 0, ValidationError{Field: "estimatedXpFormula", Reason: "record is not an object"}
	}

	program, err := expr.Compile(formula, expr.Env(env), expr.AllowUndefinedVariables())
	if err != nil {
		return 0, ValidationError{Field: "estimatedXpFormula", Reason: err.Error()}
	}
	value, err := expr.Run(program, env)
	if err != nil {
		return 0, ValidationError{Field: "estimatedXpFormula", Reason: err.Error()}
	}

	xp, ok := toInt(value)
	if !ok {
		return 0, ValidationError{Field: "estimatedXpFormula", Reason: fmt.Sprintf("result %v is not a number", value)}
	}
	if xp < 0 {
		xp = 0
	}
	return xp, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(math.Round(n)), true
	default:
		return 0, false
	}
}

// parseDueDate accepts the timestamp shapes calendars and project tools
// commonly emit.
func parseDueDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
