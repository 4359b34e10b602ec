package mapping

import (
	"strings"
	"testing"
)

func TestBuiltinTablesValidate(t *testing.T) {
	for _, name := range []string{"snomed", "stix"} {
		table, err := ForDomain(name)
		if err != nil {
			t.Fatalf("ForDomain(%q): %v", name, err)
		}
		if err := table.Validate(); err != nil {
			t.Fatalf("Validate(%q): %v", name, err)
		}
		if table.Domain != name {
			t.Fatalf("domain = %q, want %q", table.Domain, name)
		}
	}
}

func TestForDomainAliases(t *testing.T) {
	table, err := ForDomain("Medical")
	if err != nil {
		t.Fatalf("ForDomain(Medical): %v", err)
	}
	if table.Domain != "snomed" {
		t.Fatalf("domain = %q, want snomed", table.Domain)
	}
	if _, err := ForDomain("unknown"); err == nil {
		t.Fatalf("expected error for unknown domain")
	}
}

func TestResolveRelation(t *testing.T) {
	table := SnomedTable()
	rel, ok := table.ResolveRelation("116680003")
	if !ok || rel != "IS_A" {
		t.Fatalf("ResolveRelation(116680003) = %q, %v", rel, ok)
	}
	if _, ok := table.ResolveRelation("999999999"); ok {
		t.Fatalf("expected unknown type id outside vocabulary")
	}
}

func TestRelationTypesClosedVocabulary(t *testing.T) {
	table := StixTable()
	vocab := table.RelationTypes()
	for _, rel := range []string{"USES", "TARGETS", "MITIGATES", "ATTRIBUTED_TO"} {
		if !vocab[rel] {
			t.Fatalf("vocabulary missing %s", rel)
		}
	}
	for rel := range vocab {
		if !ValidIdentifier(rel) {
			t.Fatalf("vocabulary entry %q is not a safe identifier", rel)
		}
	}
}

func TestValidateRejectsBadTables(t *testing.T) {
	cases := []struct {
		name  string
		table Table
	}{
		{
			name:  "missing domain",
			table: Table{Records: map[string]RecordRule{"x": {NodeLabels: []string{"X"}, IDField: "id"}}},
		},
		{
			name:  "no records",
			table: Table{Domain: "d"},
		},
		{
			name: "node without id field",
			table: Table{Domain: "d", Records: map[string]RecordRule{
				"x": {NodeLabels: []string{"X"}},
			}},
		},
		{
			name: "unsafe label",
			table: Table{Domain: "d", Records: map[string]RecordRule{
				"x": {NodeLabels: []string{"X) DETACH DELETE"}, IDField: "id"},
			}},
		},
		{
			name: "edge without target",
			table: Table{Domain: "d", Records: map[string]RecordRule{
				"x": {Edges: []EdgeRule{{SourceField: "a", RelType: "REL"}}},
			}},
		},
		{
			name: "edge without type",
			table: Table{Domain: "d", Records: map[string]RecordRule{
				"x": {Edges: []EdgeRule{{SourceField: "a", TargetField: "b"}}},
			}},
		},
		{
			name: "relationship record without source",
			table: Table{Domain: "d", Records: map[string]RecordRule{
				"x": {Edges: []EdgeRule{{TargetField: "b", RelType: "REL"}}},
			}},
		},
		{
			name: "unsafe relation term",
			table: Table{
				Domain:        "d",
				Records:       map[string]RecordRule{"x": {NodeLabels: []string{"X"}, IDField: "id"}},
				RelationTerms: map[string]string{"t": "BAD TYPE"},
			},
		},
	}
	for _, tc := range cases {
		if err := tc.table.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadYAML(t *testing.T) {
	src := `
domain: demo
records:
  person:
    node_labels: [Person]
    id_field: id
    term_field: name
    property_fields: [name, born]
    edges:
      - target_field: employer_id
        relation_type: WORKS_FOR
  link:
    edges:
      - source_field: from
        target_field: to
        type_field: kind
relation_terms:
  friend-of: FRIEND_OF
`
	table, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rule, ok := table.Records["person"]
	if !ok || !rule.EmitsNode() || rule.IDField != "id" {
		t.Fatalf("unexpected person rule: %+v", rule)
	}
	if rel, ok := table.ResolveRelation("friend-of"); !ok || rel != "FRIEND_OF" {
		t.Fatalf("ResolveRelation(friend-of) = %q, %v", rel, ok)
	}
	if !table.RelationTypes()["WORKS_FOR"] {
		t.Fatalf("fixed relation type missing from vocabulary")
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	if _, err := Load(strings.NewReader("domain: [")); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := Load(strings.NewReader("domain: d\n")); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestRelTypeFromTerm(t *testing.T) {
	cases := map[string]string{
		"Is a":            "IS_A",
		"Finding site":    "FINDING_SITE",
		"attributed-to":   "ATTRIBUTED_TO",
		"  Due to  ":      "DUE_TO",
		"Occurs in":       "OCCURS_IN",
		"variant_of":      "VARIANT_OF",
		"Pathological  process": "PATHOLOGICAL_PROCESS",
	}
	for in, want := range cases {
		if got := RelTypeFromTerm(in); got != want {
			t.Fatalf("RelTypeFromTerm(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNodeLabels(t *testing.T) {
	labels := StixTable().NodeLabels()
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if seen[l] {
			t.Fatalf("duplicate label %s", l)
		}
		seen[l] = true
	}
	for _, want := range []string{"StixObject", "Malware", "ThreatActor", "Vulnerability"} {
		if !seen[want] {
			t.Fatalf("labels missing %s", want)
		}
	}
}
