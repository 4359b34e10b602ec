package qagen

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yungbote/kgforge-backend/internal/domain"
	"github.com/yungbote/kgforge-backend/internal/platform/logger"
)

// WriteDataset serializes the dataset under dir: one JSONL file per
// difficulty, the combined qa_all.jsonl, and the companion qa_stats.json.
func WriteDataset(ds *domain.Dataset, dir string, log *logger.Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("write dataset: mkdir %s: %w", dir, err)
	}

	byDifficulty := map[domain.Difficulty][]domain.QARecord{}
	for _, rec := range ds.Records {
		byDifficulty[rec.Difficulty] = append(byDifficulty[rec.Difficulty], rec)
	}
	for _, diff := range []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard} {
		path := filepath.Join(dir, fmt.Sprintf("qa_%s.jsonl", diff))
		if err := WriteJSONL(byDifficulty[diff], path); err != nil {
			return err
		}
		log.Info("wrote tier file", "path", path, "records", len(byDifficulty[diff]))
	}

	allPath := filepath.Join(dir, "qa_all.jsonl")
	if err := WriteJSONL(ds.Records, allPath); err != nil {
		return err
	}

	statsPath := filepath.Join(dir, "qa_stats.json")
	raw, err := json.MarshalIndent(ds.Stats, "", "  ")
	if err != nil {
		return fmt.Errorf("write dataset: marshal stats: %w", err)
	}
	if err := os.WriteFile(statsPath, raw, 0o644); err != nil {
		return fmt.Errorf("write dataset: write %s: %w", statsPath, err)
	}

	log.Info("dataset written", "dir", dir, "total", ds.Stats.Total)
	return nil
}

// WriteJSONL writes records one JSON document per line.
func WriteJSONL(records []domain.QARecord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write jsonl: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("write jsonl: encode %s: %w", rec.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write jsonl: flush %s: %w", path, err)
	}
	return nil
}
