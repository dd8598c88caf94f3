package engine

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseMappingRules(t *testing.T) {
	rules, err := ParseMappingRules(`{"titleField":"summary"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rules.ExternalIDField != "id" {
		t.Fatalf("externalIdField = %q, want default id", rules.ExternalIDField)
	}

	if _, err := ParseMappingRules(`{"externalIdField":"key"}`); err == nil {
		t.Fatal("expected error for missing titleField")
	}
	if _, err := ParseMappingRules(`not json`); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestExtractTaskNestedPaths(t *testing.T) {
	rules := &MappingRules{
		ExternalIDField:  "key",
		TitleField:       "fields.summary",
		DescriptionField: "fields.description",
		DueDateField:     "fields.duedate",
	}

	record := json.RawMessage(`{
		"key": "PROJ-7",
		"fields": {
			"summary": "  Fix the login flow  ",
			"description": "Users bounce on step two",
			"duedate": "2025-07-01T09:00:00Z"
		}
	}`)

	mapped, err := rules.extractTask(record)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if mapped.ExternalID != "PROJ-7" {
		t.Fatalf("externalId = %q", mapped.ExternalID)
	}
	if mapped.Title != "Fix the login flow" {
		t.Fatalf("title = %q, want trimmed", mapped.Title)
	}
	if mapped.Description == nil || *mapped.Description != "Users bounce on step two" {
		t.Fatalf("description = %v", mapped.Description)
	}
	want := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	if mapped.DueDate == nil || !mapped.DueDate.Equal(want) {
		t.Fatalf("dueDate = %v, want %v", mapped.DueDate, want)
	}
}

func TestExtractTaskFailures(t *testing.T) {
	rules := &MappingRules{ExternalIDField: "id", TitleField: "title"}

	cases := []struct {
		name   string
		record string
	}{
		{"missing title", `{"id":"a"}`},
		{"blank title", `{"id":"a","title":"   "}`},
		{"missing external id", `{"title":"x"}`},
		{"not an object", `["x"]`},
		{"not json", `{{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := rules.extractTask(json.RawMessage(tc.record)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestEvaluateXP(t *testing.T) {
	record := json.RawMessage(`{"points": 4, "priority": "high"}`)

	cases := []struct {
		formula string
		want    int
	}{
		{"", 0},
		{"25", 25},
		{"-5", 0},
		{"points * 10", 40},
		{`priority == "high" ? 100 : 50`, 100},
		{`priority == "low" ? 100 : 50`, 50},
		{"points * 10 - 1000", 0},
	}
	for _, tc := range cases {
		rules := &MappingRules{TitleField: "t", EstimatedXPFormula: tc.formula}
		got, err := rules.evaluateXP(record)
		if err != nil {
			t.Fatalf("evaluate %q: %v", tc.formula, err)
		}
		if got != tc.want {
			t.Fatalf("evaluate %q = %d, want %d", tc.formula, got, tc.want)
		}
	}
}

func TestEvaluateXPRejectsNonNumericResult(t *testing.T) {
	rules := &MappingRules{TitleField: "t", EstimatedXPFormula: `priority`}
	_, err := rules.evaluateXP(json.RawMessage(`{"priority":"high"}`))
	if err == nil {
		t.Fatal("expected error for string result")
	}
}

func TestParseDueDateLayouts(t *testing.T) {
	cases := map[string]bool{
		"2025-07-01":           true,
		"2025-07-01T09:00:00":  true,
		"2025-07-01T09:00:00Z": true,
		"July 1st":             false,
		"":                     false,
	}
	for in, want := range cases {
		if _, ok := parseDueDate(in); ok != want {
			t.Fatalf("parseDueDate(%q) ok = %v, want %v", in, ok, want)
		}
	}
}
