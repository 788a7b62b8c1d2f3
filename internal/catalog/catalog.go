// Package catalog reads challenge definitions from YAML and loads them into a
// ChallengeRepository.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"challenge-portal/internal/domain"
	"challenge-portal/internal/repository"
)

// File is the on-disk layout:
//
//	challenges:
//	  - id: 1
//	    title: Hello World
//	    difficulty: easy
type File struct {
	Challenges []Entry `yaml:"challenges"`
}

type Entry struct {
	ID         int64  `yaml:"id"`
	Title      string `yaml:"title"`
	Difficulty string `yaml:"difficulty"`
}

// Parse decodes a catalog document. Unknown keys, duplicate ids and entries
// without a positive id or a title are rejected.
func Parse(r io.Reader) ([]domain.Challenge, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[int64]struct{}, len(file.Challenges))
	challenges := make([]domain.Challenge, 0, len(file.Challenges))
	for i, entry := range file.Challenges {
		if entry.ID <= 0 {
			return nil, fmt.Errorf("catalog entry %d: id must be positive", i)
		}
		if _, dup := seen[entry.ID]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate id %d", i, entry.ID)
		}
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			return nil, fmt.Errorf("catalog entry %d: title is required", i)
		}
		seen[entry.ID] = struct{}{}
		challenges = append(challenges, domain.Challenge{
			ID:         entry.ID,
			Title:      title,
			Difficulty: strings.TrimSpace(entry.Difficulty),
		})
	}
	return challenges, nil
}

func LoadFile(path string) ([]domain.Challenge, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(bytes.NewReader(raw))
}

// Import upserts every challenge and returns how many were written.
func Import(ctx context.Context, repo repository.ChallengeRepository, challenges []domain.Challenge) (int, error) {
	for i := range challenges {
		if err := repo.Upsert(ctx, &challenges[i]); err != nil {
			return i, fmt.Errorf("import challenge %d: %w", challenges[i].ID, err)
		}
	}
	return len(challenges), nil
}

// Export renders challenges in the layout Parse accepts.
func Export(w io.Writer, challenges []domain.Challenge) error {
	file := File{Challenges: make([]Entry, len(challenges))}
	for i, c := range challenges {
		file.Challenges[i] = Entry{ID: c.ID, Title: c.Title, Difficulty: c.Difficulty}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return enc.Close()
}
