package mapping

// STIX 2.x bundle objects mapped onto UCO-style label stacks. Relationship
// objects become edges whose relationship_type resolves through the
// vocabulary below.
func StixTable() *Table {
	object := func(labels ...string) RecordRule {
		return RecordRule{
			NodeLabels:     append([]string{"StixObject"}, labels...),
			IDField:        "id",
			TermField:      "name",
			PropertyFields: []string{"name", "description", "created", "modified"},
		}
	}
	return &Table{
		Domain: "stix",
		Records: map[string]RecordRule{
			"attack-pattern":   object("Action", "AttackPattern"),
			"campaign":         object("Action", "Campaign"),
			"course-of-action": object("Mitigation", "CourseOfAction"),
			"identity":         object("Identity"),
			"indicator":        object("Observable", "Indicator"),
			"intrusion-set":    object("Identity", "IntrusionSet"),
			"malware":          object("Action", "Malware"),
			"threat-actor":     object("Identity", "ThreatActor"),
			"tool":             object("Action", "Tool"),
			"vulnerability":    object("Observable", "Vulnerability"),
			"relationship": {
				Edges: []EdgeRule{
					{
						SourceField: "source_ref",
						TargetField: "target_ref",
						TypeField:   "relationship_type",
					},
				},
			},
		},
		RelationTerms: map[string]string{
			"uses":              "USES",
			"indicates":         "INDICATES",
			"mitigates":         "MITIGATES",
			"targets":           "TARGETS",
			"attributed-to":     "ATTRIBUTED_TO",
			"related-to":        "RELATED_TO",
			"variant-of":        "VARIANT_OF",
			"impersonates":      "IMPERSONATES",
			"derived-from":      "DERIVED_FROM",
			"duplicate-of":      "DUPLICATE_OF",
			"based-on":          "BASED_ON",
			"exploits":          "EXPLOITS",
			"delivers":          "DELIVERS",
			"compromises":       "COMPROMISES",
			"hosts":             "HOSTS",
			"owns":              "OWNS",
			"authored-by":       "AUTHORED_BY",
			"beacons-to":        "BEACONS_TO",
			"exfiltrates-to":    "EXFILTRATES_TO",
			"downloads":         "DOWNLOADS",
			"drops":             "DROPS",
			"communicates-with": "COMMUNICATES_WITH",
		},
	}
}
