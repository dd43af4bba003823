package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quyk67uet/ai-assistant-workflow/internal/logging"
	"github.com/quyk67uet/ai-assistant-workflow/internal/store"
)

// rosterFile is the YAML shape accepted by the seed command.
type rosterFile struct {
	Students        []store.Student        `yaml:"students"`
	LearningObjects []store.LearningObject `yaml:"learning_objects"`
	Submissions     []store.Submission     `yaml:"submissions"`
}

// Run seeds the record store from a YAML roster file.
func (s *SeedCmd) Run() error {
	cfg, err := loadConfig(s.Config)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	data, err := os.ReadFile(s.File)
	if err != nil {
		return fmt.Errorf("read roster file: %w", err)
	}
	var roster rosterFile
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return fmt.Errorf("parse roster file: %w", err)
	}
	if len(roster.Students) == 0 {
		return fmt.Errorf("roster file %s declares no students", s.File)
	}
	for _, sub := range roster.Submissions {
		if sub.Status == "" {
			return fmt.Errorf("submission %s has no status", sub.ID)
		}
	}

	st, err := store.Open(cfg.Store.Dir, logger)
	if err != nil {
		return err
	}
	if err := st.Seed(roster.Students, roster.LearningObjects, roster.Submissions); err != nil {
		return err
	}

	fmt.Printf("Seeded %s: %d student(s), %d learning object(s), %d submission(s)\n",
		cfg.Store.Dir, len(roster.Students), len(roster.LearningObjects), len(roster.Submissions))
	return nil
}
