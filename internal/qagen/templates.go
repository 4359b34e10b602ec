package qagen

import (
	"fmt"
	"strings"

	"github.com/yungbote/kgforge-backend/internal/domain"
)

// Template renders an easy-tier question/answer pair from one direct
// relationship. {term} is the source node's display term, {target} the
// neighbor's.
type Template struct {
	Question string
	Answer   string
}

func (t Template) Render(term, target string) (string, string) {
	r := strings.NewReplacer("{term}", term, "{target}", target)
	return r.Replace(t.Question), r.Replace(t.Answer)
}

// ConstraintPair drives one family of multi-constraint (hard/complex)
// records: nodes holding both relations at once.
type ConstraintPair struct {
	RelA string
	RelB string
}

// Library is the per-domain template lookup: a flat table keyed by
// relation type. A relation type with no entry is skipped, never guessed.
type Library struct {
	Domain          string
	Relations       map[string]Template
	ConstraintPairs []ConstraintPair
}

func (l *Library) Relation(relType string) (Template, bool) {
	t, ok := l.Relations[relType]
	return t, ok
}

// relationPhrase renders a relation type for use inside chained sentences:
// IS_A -> "is a", FINDING_SITE -> "finding site".
func relationPhrase(relType string) string {
	return strings.ToLower(strings.ReplaceAll(relType, "_", " "))
}

// chainAnswer names every hop of a path, preserving the multi-hop
// reasoning signal: "The is a of A is B, and the finding site of B is C."
func chainAnswer(p domain.Path) string {
	var parts []string
	term := p.Start.Term()
	for _, step := range p.Steps {
		parts = append(parts, fmt.Sprintf("the %s of %s is %s", relationPhrase(step.RelType), term, step.Node.Term()))
		term = step.Node.Term()
	}
	if len(parts) == 1 {
		return upperFirst(parts[0]) + "."
	}
	return upperFirst(strings.Join(parts[:len(parts)-1], ", ")) + ", and " + parts[len(parts)-1] + "."
}

func chainQuestion(p domain.Path) string {
	rels := make([]string, 0, len(p.Steps))
	for _, step := range p.Steps {
		rels = append(rels, relationPhrase(step.RelType))
	}
	return fmt.Sprintf("Starting from %s, which concept is reached by following %s?",
		p.Start.Term(), strings.Join(rels, ", then "))
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// MedicalLibrary covers the ontology relation vocabulary of the medical
// domain.
func MedicalLibrary() *Library {
	return &Library{
		Domain: "snomed",
		Relations: map[string]Template{
			"IS_A": {
				Question: "What kind of concept is {term}?",
				Answer:   "{term} is a subtype of {target}.",
			},
			"FINDING_SITE": {
				Question: "Where in the body does {term} occur?",
				Answer:   "{term} occurs at the {target}.",
			},
			"CAUSATIVE_AGENT": {
				Question: "What causes {term}?",
				Answer:   "The primary cause of {term} is {target}.",
			},
			"PATHOLOGICAL_PROCESS": {
				Question: "What pathological process underlies {term}?",
				Answer:   "The pathological process underlying {term} is {target}.",
			},
			"ASSOCIATED_MORPHOLOGY": {
				Question: "What morphological change is seen in {term}?",
				Answer:   "{term} shows the morphological change {target}.",
			},
			"CLINICAL_COURSE": {
				Question: "What is the clinical course of {term}?",
				Answer:   "{term} follows a {target} clinical course.",
			},
			"DUE_TO": {
				Question: "What is {term} due to?",
				Answer:   "{term} arises due to {target}.",
			},
			"OCCURS_IN": {
				Question: "In what context does {term} occur?",
				Answer:   "{term} occurs in {target}.",
			},
			"ASSOCIATED_WITH": {
				Question: "What is {term} associated with?",
				Answer:   "{term} is associated with {target}.",
			},
		},
		ConstraintPairs: []ConstraintPair{
			{RelA: "CAUSATIVE_AGENT", RelB: "FINDING_SITE"},
			{RelA: "CAUSATIVE_AGENT", RelB: "ASSOCIATED_MORPHOLOGY"},
		},
	}
}

// ThreatLibrary covers the threat-intel relation vocabulary.
func ThreatLibrary() *Library {
	return &Library{
		Domain: "stix",
		Relations: map[string]Template{
			"USES": {
				Question: "What does {term} use?",
				Answer:   "{term} uses {target}.",
			},
			"TARGETS": {
				Question: "What does {term} target?",
				Answer:   "{term} targets {target}.",
			},
			"MITIGATES": {
				Question: "What does {term} mitigate?",
				Answer:   "{term} mitigates {target}.",
			},
			"ATTRIBUTED_TO": {
				Question: "Who is {term} attributed to?",
				Answer:   "{term} is attributed to {target}.",
			},
			"EXPLOITS": {
				Question: "What vulnerability does {term} exploit?",
				Answer:   "{term} exploits {target}.",
			},
			"DELIVERS": {
				Question: "What payload does {term} deliver?",
				Answer:   "{term} delivers {target}.",
			},
			"VARIANT_OF": {
				Question: "What is {term} a variant of?",
				Answer:   "{term} is a variant of {target}.",
			},
			"COMPROMISES": {
				Question: "What does {term} compromise?",
				Answer:   "{term} compromises {target}.",
			},
			"RELATED_TO": {
				Question: "What is {term} related to?",
				Answer:   "{term} is related to {target}.",
			},
		},
		ConstraintPairs: []ConstraintPair{
			{RelA: "USES", RelB: "TARGETS"},
			{RelA: "USES", RelB: "ATTRIBUTED_TO"},
		},
	}
}

// LibraryForDomain returns the built-in template library by domain name.
func LibraryForDomain(name string) (*Library, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "snomed", "medical":
		return MedicalLibrary(), nil
	case "stix", "threat":
		return ThreatLibrary(), nil
	default:
		return nil, fmt.Errorf("qagen: no template library for domain %q", name)
	}
}
