package mapping

// SNOMED CT release subset. Concept rows become Concept nodes; relationship
// rows become edges whose type id resolves through the vocabulary below.
// Type ids and their terms come from the International release.
func SnomedTable() *Table {
	return &Table{
		Domain: "snomed",
		Records: map[string]RecordRule{
			"concept": {
				NodeLabels:     []string{"Concept"},
				IDField:        "conceptId",
				TermField:      "term",
				PropertyFields: []string{"term", "effectiveTime", "moduleId", "definitionStatusId"},
			},
			"relationship": {
				Edges: []EdgeRule{
					{
						SourceField: "sourceId",
						TargetField: "destinationId",
						TypeField:   "typeId",
					},
				},
			},
		},
		RelationTerms: map[string]string{
			"116680003": "IS_A",
			"363698007": "FINDING_SITE",
			"246075003": "CAUSATIVE_AGENT",
			"116676008": "ASSOCIATED_MORPHOLOGY",
			"370135005": "PATHOLOGICAL_PROCESS",
			"370131001": "PATHOPHYSIOLOGY",
			"47429007":  "ASSOCIATED_FINDING",
			"363589002": "ASSOCIATED_PROCEDURE",
			"255234002": "OCCURS_IN",
			"246454002": "ASSOCIATED_WITH",
			"260870009": "METHOD",
			"42752001":  "DUE_TO",
			"263502005": "CLINICAL_COURSE",
		},
	}
}
