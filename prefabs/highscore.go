package prefabs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type highScoreFile struct {
	HighScore int `yaml:"high_score"`
}

// FileHighScore persists the high score as a small YAML document.
type FileHighScore struct {
	Path string
}

// LoadHighScore returns os.ErrNotExist (wrapped) when nothing was saved yet.
func (f FileHighScore) LoadHighScore() (int, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return 0, fmt.Errorf("prefabs: read high score: %w", err)
	}
	var doc highScoreFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("prefabs: unmarshal high score: %w", err)
	}
	return doc.HighScore, nil
}

func (f FileHighScore) SaveHighScore(score int) error {
	data, err := yaml.Marshal(highScoreFile{HighScore: score})
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("prefabs: create %s: %w", dir, err)
		}
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("prefabs: write high score: %w", err)
	}
	return os.Rename(tmp, f.Path)
}

// MemoryHighScore keeps the high score in memory.
type MemoryHighScore struct {
	Score int
	Saved bool
	Saves int
}

func (m *MemoryHighScore) LoadHighScore() (int, error) {
	if !m.Saved {
		return 0, os.ErrNotExist
	}
	return m.Score, nil
}

func (m *MemoryHighScore) SaveHighScore(score int) error {
	m.Score = score
	m.Saved = true
	m.Saves++
	return nil
}

// IsNotSaved reports whether err means no high score was persisted yet.
func IsNotSaved(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
