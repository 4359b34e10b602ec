package mapping

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// EdgeRule describes how a record encodes a relationship.
//
// On a node record, SourceField is empty and the node's own id is the edge
// source. On a pure relationship record (e.g. an ontology relationship row)
// SourceField and TargetField both name foreign identifiers.
//
// The relation type is either fixed (RelType) or resolved from a field value
// (TypeField) through the table's RelationTerms vocabulary.
type EdgeRule struct {
	SourceField string `yaml:"source_field,omitempty"`
	TargetField string `yaml:"target_field"`
	RelType     string `yaml:"relation_type,omitempty"`
	TypeField   string `yaml:"type_field,omitempty"`
}

// RecordRule maps one source record type into a node and/or edges.
type RecordRule struct {
	NodeLabels     []string   `yaml:"node_labels,omitempty"`
	IDField        string     `yaml:"id_field,omitempty"`
	TermField      string     `yaml:"term_field,omitempty"`
	PropertyFields []string   `yaml:"property_fields,omitempty"`
	Edges          []EdgeRule `yaml:"edges,omitempty"`
}

func (r RecordRule) EmitsNode() bool { return len(r.NodeLabels) > 0 }

// Table is the declarative per-domain mapping: record rules keyed by record
// type plus the closed relation-type vocabulary. Domain vocabulary lives
// here as data, never as code branches.
type Table struct {
	Domain string `yaml:"domain"`
	// Records maps record_type to its rule. Record types absent from the
	// table are skipped at normalization time.
	Records map[string]RecordRule `yaml:"records"`
	// RelationTerms maps raw source relation identifiers or terms (SNOMED
	// type ids, STIX relationship_type values) to canonical relation types.
	RelationTerms map[string]string `yaml:"relation_terms,omitempty"`
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether s is safe to interpolate as a Cypher
// label or relationship type.
func ValidIdentifier(s string) bool { return identRe.MatchString(s) }

// RelationTypes returns the table's closed vocabulary, deduplicated.
func (t *Table) RelationTypes() map[string]bool {
	vocab := make(map[string]bool)
	for _, rel := range t.RelationTerms {
		vocab[rel] = true
	}
	for _, rule := range t.Records {
		for _, e := range rule.Edges {
			if e.RelType != "" {
				vocab[e.RelType] = true
			}
		}
	}
	return vocab
}

// NodeLabels returns every label any record rule can emit, sorted input not
// required; used for schema setup.
func (t *Table) NodeLabels() []string {
	seen := make(map[string]bool)
	var labels []string
	for _, rule := range t.Records {
		for _, l := range rule.NodeLabels {
			if !seen[l] {
				seen[l] = true
				labels = append(labels, l)
			}
		}
	}
	return labels
}

// ResolveRelation maps a raw relation identifier/term to its canonical
// relation type. ok is false when the term is outside the vocabulary.
func (t *Table) ResolveRelation(raw string) (string, bool) {
	rel, ok := t.RelationTerms[raw]
	return rel, ok
}

// Validate checks the table is internally consistent: every emitted label
// and relation type must be a safe identifier, and node rules need an id
// field.
func (t *Table) Validate() error {
	if t.Domain == "" {
		return fmt.Errorf("mapping: table missing domain")
	}
	if len(t.Records) == 0 {
		return fmt.Errorf("mapping: table %q has no record rules", t.Domain)
	}
	for recordType, rule := range t.Records {
		if rule.EmitsNode() && rule.IDField == "" {
			return fmt.Errorf("mapping: record type %q emits a node but has no id_field", recordType)
		}
		for _, l := range rule.NodeLabels {
			if !ValidIdentifier(l) {
				return fmt.Errorf("mapping: record type %q has invalid label %q", recordType, l)
			}
		}
		for i, e := range rule.Edges {
			if e.TargetField == "" {
				return fmt.Errorf("mapping: record type %q edge %d missing target_field", recordType, i)
			}
			if e.RelType == "" && e.TypeField == "" {
				return fmt.Errorf("mapping: record type %q edge %d needs relation_type or type_field", recordType, i)
			}
			if e.RelType != "" && !ValidIdentifier(e.RelType) {
				return fmt.Errorf("mapping: record type %q edge %d invalid relation type %q", recordType, i, e.RelType)
			}
			if !rule.EmitsNode() && e.SourceField == "" {
				return fmt.Errorf("mapping: record type %q edge %d needs source_field on a non-node record", recordType, i)
			}
		}
	}
	for raw, rel := range t.RelationTerms {
		if !ValidIdentifier(rel) {
			return fmt.Errorf("mapping: relation term %q maps to invalid type %q", raw, rel)
		}
	}
	return nil
}

// Load reads a mapping table from YAML.
func Load(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("mapping: read: %w", err)
	}
	var t Table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("mapping: parse: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadFile reads a mapping table from a YAML file.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mapping: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// ForDomain returns a built-in table by domain name.
func ForDomain(name string) (*Table, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "snomed", "medical":
		return SnomedTable(), nil
	case "stix", "threat":
		return StixTable(), nil
	default:
		return nil, fmt.Errorf("mapping: unknown domain %q", name)
	}
}

// RelTypeFromTerm converts a human relation term to a canonical relation
// type: "Is a" -> IS_A, "Finding site" -> FINDING_SITE.
func RelTypeFromTerm(term string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToUpper(strings.TrimSpace(term)) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case r == ' ', r == '-', r == '_':
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
