package domain

// Difficulty is the tier a QA record belongs to. The hop-count band is
// implied: easy is exactly 1 hop, medium 2-3, hard 4+ or multi-constraint.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// QARecord is one generated question/answer pair. Records are immutable
// once emitted; SourcePath carries provenance back to the graph.
type QARecord struct {
	ID           string            `json:"id"`
	Question     string            `json:"question"`
	Answer       string            `json:"answer"`
	Difficulty   Difficulty        `json:"difficulty"`
	HopCount     int               `json:"hop_count"`
	RelationPath []string          `json:"relation_path"`
	SourcePath   []string          `json:"source_path"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// GenerationTargets are the requested record counts per difficulty tier.
type GenerationTargets struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

func (t GenerationTargets) Total() int { return t.Easy + t.Medium + t.Hard }

// TierStats reports achieved counts against a tier target. A shortfall is
// data, not a failure: source-graph sparsity can make a target unreachable.
type TierStats struct {
	Target    int     `json:"target"`
	Achieved  int     `json:"achieved"`
	Shortfall int     `json:"shortfall"`
	Share     float64 `json:"share"`
}

// DatasetStats is the companion summary emitted next to the dataset.
type DatasetStats struct {
	Total              int                      `json:"total"`
	ByDifficulty       map[Difficulty]TierStats `json:"by_difficulty"`
	EasyRelationCounts map[string]int           `json:"easy_relation_counts"`
	AvgQuestionLen     float64                  `json:"avg_question_len"`
	AvgAnswerLen       float64                  `json:"avg_answer_len"`
	Seed               int64                    `json:"seed"`
}

// Dataset is the generation output: ordered records plus the stats summary.
type Dataset struct {
	Records []QARecord   `json:"records"`
	Stats   DatasetStats `json:"stats"`
}
