package qagen

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/kgforge-backend/internal/domain"
	"github.com/yungbote/kgforge-backend/internal/platform/logger"
	"github.com/yungbote/kgforge-backend/internal/traverse"
)

const (
	defaultMaxDepth = 5

	saltEasy    = 0x51
	saltMedium  = 0x52
	saltDeep    = 0x53
	saltComplex = 0x54
)

// Generator synthesizes the stratified QA dataset from traversal results.
// All selection is seed-reproducible: regenerating from an unchanged
// snapshot with the same seed yields the identical dataset.
type Generator struct {
	engine   *traverse.Engine
	lib      *Library
	log      *logger.Logger
	seed     int64
	maxDepth int
}

type GeneratorOption func(*Generator)

// WithMaxDepth bounds the deep-path tier's hop ceiling.
func WithMaxDepth(n int) GeneratorOption {
	return func(g *Generator) {
		if n >= 4 {
			g.maxDepth = n
		}
	}
}

func NewGenerator(engine *traverse.Engine, lib *Library, log *logger.Logger, seed int64, opts ...GeneratorOption) *Generator {
	g := &Generator{
		engine:   engine,
		lib:      lib,
		log:      log.With("component", "QAGenerator"),
		seed:     seed,
		maxDepth: defaultMaxDepth,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type candidate struct {
	key string
	rec domain.QARecord
}

// Generate samples each difficulty tier independently and merges the
// result. Tiers share no mutable state, so they run in parallel; the
// per-tier selection itself stays deterministic.
func (g *Generator) Generate(ctx context.Context, targets domain.GenerationTargets) (*domain.Dataset, error) {
	var easy, medium, deep, complexRecs []candidate

	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		cands, err := g.easyCandidates(gctx)
		if err != nil {
			return err
		}
		easy = sampleCandidates(cands, targets.Easy, g.rng(saltEasy))
		return nil
	})
	eg.Go(func() error {
		cands, err := g.pathCandidates(gctx, 2, 3, domain.DifficultyMedium)
		if err != nil {
			return err
		}
		medium = sampleCandidates(cands, targets.Medium, g.rng(saltMedium))
		return nil
	})
	eg.Go(func() error {
		deepCands, err := g.pathCandidates(gctx, 4, g.maxDepth, domain.DifficultyHard)
		if err != nil {
			return err
		}
		complexCands, err := g.complexCandidates(gctx)
		if err != nil {
			return err
		}
		// Hard splits between deep paths and multi-constraint records; when
		// the graph is too shallow for deep paths the complex pool fills
		// the remainder.
		deepTarget := (targets.Hard + 1) / 2
		deep = sampleCandidates(deepCands, deepTarget, g.rng(saltDeep))
		complexRecs = sampleCandidates(complexCands, targets.Hard-len(deep), g.rng(saltComplex))
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	ds := &domain.Dataset{}
	appendTier := func(prefix string, cands []candidate) {
		for i, c := range cands {
			c.rec.ID = fmt.Sprintf("%s_%04d", prefix, i)
			ds.Records = append(ds.Records, c.rec)
		}
	}
	appendTier("L1", easy)
	appendTier("L2", medium)
	appendTier("L3", deep)
	appendTier("LC", complexRecs)

	ds.Stats = g.buildStats(ds.Records, targets)
	for diff, tier := range ds.Stats.ByDifficulty {
		if tier.Shortfall > 0 {
			g.log.Warn("difficulty target unreachable",
				"difficulty", diff,
				"target", tier.Target,
				"achieved", tier.Achieved,
			)
		}
	}
	return ds, nil
}

func (g *Generator) easyCandidates(ctx context.Context) ([]candidate, error) {
	snap := g.engine.Snapshot()
	seen := map[string]bool{}
	var cands []candidate
	for _, id := range snap.NodeIDs() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		node, ok := snap.Node(id)
		if !ok {
			continue
		}
		for _, nb := range g.engine.Neighbors(id, nil) {
			tmpl, ok := g.lib.Relation(nb.RelType)
			if !ok {
				continue
			}
			key := nb.RelType + "|" + id + "|" + nb.Node.ID
			if seen[key] {
				continue
			}
			seen[key] = true
			question, answer := tmpl.Render(node.Term(), nb.Node.Term())
			cands = append(cands, candidate{
				key: key,
				rec: domain.QARecord{
					Question:     question,
					Answer:       answer,
					Difficulty:   domain.DifficultyEasy,
					HopCount:     1,
					RelationPath: []string{nb.RelType},
					SourcePath:   []string{id, nb.Node.ID},
					Metadata:     map[string]string{"relation": nb.RelType},
				},
			})
		}
	}
	return cands, nil
}

func (g *Generator) pathCandidates(ctx context.Context, minHops, maxHops int, diff domain.Difficulty) ([]candidate, error) {
	snap := g.engine.Snapshot()
	seen := map[string]bool{}
	var cands []candidate
	for _, id := range snap.NodeIDs() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		paths, err := g.engine.PathsWithin(id, minHops, maxHops, nil)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			key := strings.Join(p.RelTypes(), ",") + "|" + p.Signature()
			if seen[key] {
				continue
			}
			seen[key] = true
			terms := make([]string, 0, p.Hops()+1)
			terms = append(terms, p.Start.Term())
			for _, step := range p.Steps {
				terms = append(terms, step.Node.Term())
			}
			cands = append(cands, candidate{
				key: key,
				rec: domain.QARecord{
					Question:     chainQuestion(p),
					Answer:       chainAnswer(p),
					Difficulty:   diff,
					HopCount:     p.Hops(),
					RelationPath: p.RelTypes(),
					SourcePath:   p.NodeIDs(),
					Metadata:     map[string]string{"path": strings.Join(terms, " -> ")},
				},
			})
		}
	}
	return cands, nil
}

func (g *Generator) complexCandidates(ctx context.Context) ([]candidate, error) {
	snap := g.engine.Snapshot()
	seen := map[string]bool{}
	var cands []candidate
	for _, pair := range g.lib.ConstraintPairs {
		for _, id := range snap.NodeIDs() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			targetsA := g.engine.Neighbors(id, []string{pair.RelA})
			if len(targetsA) == 0 {
				continue
			}
			targetsB := g.engine.Neighbors(id, []string{pair.RelB})
			if len(targetsB) == 0 {
				continue
			}
			for _, ta := range targetsA {
				for _, tb := range targetsB {
					key := pair.RelA + "=" + ta.Node.ID + "&" + pair.RelB + "=" + tb.Node.ID
					if seen[key] {
						continue
					}
					seen[key] = true
					matches := g.engine.NodesMatching([]traverse.Constraint{
						{RelType: pair.RelA, TargetID: ta.Node.ID},
						{RelType: pair.RelB, TargetID: tb.Node.ID},
					})
					if len(matches) == 0 {
						continue
					}
					names := make([]string, 0, len(matches))
					sourcePath := make([]string, 0, len(matches)+2)
					for _, m := range matches {
						names = append(names, m.Term())
						sourcePath = append(sourcePath, m.ID)
					}
					sourcePath = append(sourcePath, ta.Node.ID, tb.Node.ID)
					question := fmt.Sprintf("Which concept is linked to %s through %s and to %s through %s?",
						ta.Node.Term(), relationPhrase(pair.RelA), tb.Node.Term(), relationPhrase(pair.RelB))
					answer := fmt.Sprintf("%s is linked to %s through %s and to %s through %s.",
						strings.Join(names, ", "),
						ta.Node.Term(), relationPhrase(pair.RelA), tb.Node.Term(), relationPhrase(pair.RelB))
					cands = append(cands, candidate{
						key: key,
						rec: domain.QARecord{
							Question:     question,
							Answer:       answer,
							Difficulty:   domain.DifficultyHard,
							HopCount:     2,
							RelationPath: []string{pair.RelA, pair.RelB},
							SourcePath:   sourcePath,
							Metadata: map[string]string{
								"type":       "complex",
								"query_type": "multi_constraint",
							},
						},
					})
				}
			}
		}
	}
	return cands, nil
}

// sampleCandidates selects a deterministic, seed-reproducible subset when
// more candidates exist than the target asks for. Candidates are put in a
// stable order first so selection never depends on discovery order.
func sampleCandidates(cands []candidate, target int, rng *rand.Rand) []candidate {
	sort.Slice(cands, func(i, j int) bool { return cands[i].key < cands[j].key })
	if target <= 0 {
		return nil
	}
	if len(cands) <= target {
		return cands
	}
	rng.Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })
	sel := cands[:target]
	sort.Slice(sel, func(i, j int) bool { return sel[i].key < sel[j].key })
	return sel
}

func (g *Generator) rng(salt int64) *rand.Rand {
	return rand.New(rand.NewSource(g.seed + salt))
}

func (g *Generator) buildStats(records []domain.QARecord, targets domain.GenerationTargets) domain.DatasetStats {
	stats := domain.DatasetStats{
		Total:              len(records),
		ByDifficulty:       map[domain.Difficulty]domain.TierStats{},
		EasyRelationCounts: map[string]int{},
		Seed:               g.seed,
	}
	achieved := map[domain.Difficulty]int{}
	var qLen, aLen int
	for _, rec := range records {
		achieved[rec.Difficulty]++
		qLen += utf8.RuneCountInString(rec.Question)
		aLen += utf8.RuneCountInString(rec.Answer)
		if rec.Difficulty == domain.DifficultyEasy {
			stats.EasyRelationCounts[rec.Metadata["relation"]]++
		}
	}
	targetOf := map[domain.Difficulty]int{
		domain.DifficultyEasy:   targets.Easy,
		domain.DifficultyMedium: targets.Medium,
		domain.DifficultyHard:   targets.Hard,
	}
	for diff, target := range targetOf {
		got := achieved[diff]
		tier := domain.TierStats{Target: target, Achieved: got}
		if target > got {
			tier.Shortfall = target - got
		}
		if len(records) > 0 {
			tier.Share = float64(got) / float64(len(records))
		}
		stats.ByDifficulty[diff] = tier
	}
	if len(records) > 0 {
		stats.AvgQuestionLen = float64(qLen) / float64(len(records))
		stats.AvgAnswerLen = float64(aLen) / float64(len(records))
	}
	return stats
}
