// Package catalog loads the static data shipped with the binary: tasks,
// missions, features, rewards, learning-game levels, the glossary and the
// dashboard warning lights.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
	"github.com/ramiqadoumi/go-drive-quest/internal/hotspot"
)

//go:embed data/*.json data/*.yaml
var dataFS embed.FS

const (
	tasksFile      = "tasks.json"
	levelsFile     = "levels.yaml"
	rewardsFile    = "rewards.yaml"
	featuresFile   = "features.yaml"
	gameLevelsFile = "game_levels.yaml"
	glossaryFile   = "glossary.yaml"
	warningsFile   = "warnings.yaml"
)

// Catalog is read-only after Load; every accessor returns copies.
type Catalog struct {
	tasks      []domain.Task
	levels     []domain.Level
	missions   []domain.Mission
	rewards    []domain.Reward
	features   []domain.Feature
	gameLevels []hotspot.Level
	glossary   []domain.GlossaryTerm
	warnings   []domain.WarningLight
}

type taskFile struct {
	AllTasks []domain.Task `json:"allTasks"`
}

type levelFile struct {
	Levels   []domain.Level   `yaml:"levels"`
	Missions []domain.Mission `yaml:"missions"`
}

type rewardFile struct {
	Rewards []domain.Reward `yaml:"rewards"`
}

type featureFile struct {
	Features []domain.Feature `yaml:"features"`
}

type gameLevelFile struct {
	Levels []hotspot.Level `yaml:"levels"`
}

type glossaryFileData struct {
	Terms []domain.GlossaryTerm `yaml:"terms"`
}

type warningFile struct {
	Warnings []domain.WarningLight `yaml:"warnings"`
}

// Load parses and validates the embedded data set.
func Load() (*Catalog, error) {
	sub, err := fs.Sub(dataFS, "data")
	if err != nil {
		return nil, fmt.Errorf("open embedded catalog: %w", err)
	}
	return LoadFS(sub)
}

// LoadFS parses and validates a catalog from fsys. Every data file must exist
// at its root.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	var (
		tf taskFile
		lf levelFile
		rf rewardFile
		ff featureFile
		gf gameLevelFile
		gl glossaryFileData
		wf warningFile
	)
	if err := decodeJSON(fsys, tasksFile, &tf); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		name string
		dst  any
	}{
		{levelsFile, &lf},
		{rewardsFile, &rf},
		{featuresFile, &ff},
		{gameLevelsFile, &gf},
		{glossaryFile, &gl},
		{warningsFile, &wf},
	} {
		if err := decodeYAML(fsys, f.name, f.dst); err != nil {
			return nil, err
		}
	}

	c := &Catalog{
		tasks:      tf.AllTasks,
		levels:     lf.Levels,
		missions:   lf.Missions,
		rewards:    rf.Rewards,
		features:   ff.Features,
		gameLevels: gf.Levels,
		glossary:   gl.Terms,
		warnings:   wf.Warnings,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func decodeJSON(fsys fs.FS, name string, dst any) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func decodeYAML(fsys fs.FS, name string, dst any) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func (c *Catalog) validate() error {
	taskIDs := make(map[int]bool, len(c.tasks))
	for i := range c.tasks {
		t := &c.tasks[i]
		if taskIDs[t.ID] {
			return fmt.Errorf("%s: duplicate task id %d", tasksFile, t.ID)
		}
		taskIDs[t.ID] = true
		if t.Points < 0 {
			return fmt.Errorf("%s: task %d: negative points %d", tasksFile, t.ID, t.Points)
		}
		if t.Day < 1 || t.Day > 7 {
			return fmt.Errorf("%s: task %d: day %d outside 1..7", tasksFile, t.ID, t.Day)
		}
		if t.Level == 0 {
			t.Level = 1
		}
		if strings.TrimSpace(t.Icon) == "" {
			t.Icon = domain.DefaultTaskIcon
		}
		// Catalog entries are templates; completion is per user.
		t.Completed = false
	}

	levelIDs := make(map[int]bool, len(c.levels))
	for _, l := range c.levels {
		if levelIDs[l.ID] {
			return fmt.Errorf("%s: duplicate level id %d", levelsFile, l.ID)
		}
		levelIDs[l.ID] = true
	}
	type missionKey struct{ level, mission int }
	seen := make(map[missionKey]bool, len(c.missions))
	for _, m := range c.missions {
		if !levelIDs[m.LevelID] {
			return fmt.Errorf("%s: mission %d/%d: unknown level", levelsFile, m.LevelID, m.MissionID)
		}
		k := missionKey{m.LevelID, m.MissionID}
		if seen[k] {
			return fmt.Errorf("%s: duplicate mission %d/%d", levelsFile, m.LevelID, m.MissionID)
		}
		seen[k] = true
		if m.Points < 0 {
			return fmt.Errorf("%s: mission %d/%d: negative points", levelsFile, m.LevelID, m.MissionID)
		}
	}
	sort.SliceStable(c.missions, func(i, j int) bool {
		if c.missions[i].LevelID != c.missions[j].LevelID {
			return c.missions[i].LevelID < c.missions[j].LevelID
		}
		return c.missions[i].MissionID < c.missions[j].MissionID
	})

	rewardIDs := make(map[string]bool, len(c.rewards))
	for _, r := range c.rewards {
		if r.ID == "" || rewardIDs[r.ID] {
			return fmt.Errorf("%s: missing or duplicate reward id %q", rewardsFile, r.ID)
		}
		rewardIDs[r.ID] = true
		if r.XPRequired < 0 {
			return fmt.Errorf("%s: reward %s: negative xp_required", rewardsFile, r.ID)
		}
	}

	featureIDs := make(map[string]bool, len(c.features))
	for _, f := range c.features {
		if f.ID == "" || featureIDs[f.ID] {
			return fmt.Errorf("%s: missing or duplicate feature id %q", featuresFile, f.ID)
		}
		featureIDs[f.ID] = true
	}

	if len(c.gameLevels) == 0 {
		return fmt.Errorf("%s: no levels", gameLevelsFile)
	}
	for _, l := range c.gameLevels {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("%s: %w", gameLevelsFile, err)
		}
	}

	if err := c.validateGlossary(); err != nil {
		return err
	}
	return c.validateWarnings()
}

func (c *Catalog) validateGlossary() error {
	ids := make(map[string]bool, len(c.glossary))
	for _, g := range c.glossary {
		if g.ID == "" || ids[g.ID] {
			return fmt.Errorf("%s: missing or duplicate term id %q", glossaryFile, g.ID)
		}
		ids[g.ID] = true
		if strings.TrimSpace(g.Term) == "" || strings.TrimSpace(g.Definition) == "" {
			return fmt.Errorf("%s: term %s: term and definition are required", glossaryFile, g.ID)
		}
	}
	for _, g := range c.glossary {
		for _, rel := range g.RelatedTerms {
			if !ids[rel] {
				return fmt.Errorf("%s: term %s: unknown related term %q", glossaryFile, g.ID, rel)
			}
		}
	}
	return nil
}

func (c *Catalog) validateWarnings() error {
	ids := make(map[string]bool, len(c.warnings))
	for _, w := range c.warnings {
		if w.ID == "" || ids[w.ID] {
			return fmt.Errorf("%s: missing or duplicate warning id %q", warningsFile, w.ID)
		}
		ids[w.ID] = true
		switch w.Color {
		case domain.WarningRed, domain.WarningAmber, domain.WarningGreen:
		default:
			return fmt.Errorf("%s: warning %s: unknown color %q", warningsFile, w.ID, w.Color)
		}
		switch w.Severity {
		case domain.SeverityHigh, domain.SeverityMedium, domain.SeverityLow:
		default:
			return fmt.Errorf("%s: warning %s: unknown severity %q", warningsFile, w.ID, w.Severity)
		}
	}
	return nil
}

// Tasks returns a fresh copy of the task catalog with nothing completed.
func (c *Catalog) Tasks() []domain.Task {
	return append([]domain.Task(nil), c.tasks...)
}

// Task looks up a task template by id.
func (c *Catalog) Task(id int) (domain.Task, error) {
	for _, t := range c.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Task{}, &domain.TaskNotFoundError{TaskID: id}
}

func (c *Catalog) Levels() []domain.Level {
	return append([]domain.Level(nil), c.levels...)
}

func (c *Catalog) Missions() []domain.Mission {
	return append([]domain.Mission(nil), c.missions...)
}

func (c *Catalog) Rewards() []domain.Reward {
	return append([]domain.Reward(nil), c.rewards...)
}

// Reward looks up a reward by id.
func (c *Catalog) Reward(id string) (domain.Reward, error) {
	for _, r := range c.rewards {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Reward{}, &domain.RewardNotFoundError{RewardID: id}
}

func (c *Catalog) Features() []domain.Feature {
	return append([]domain.Feature(nil), c.features...)
}

// Feature looks up a feature by id.
func (c *Catalog) Feature(id string) (domain.Feature, error) {
	for _, f := range c.features {
		if f.ID == id {
			return f, nil
		}
	}
	return domain.Feature{}, &domain.FeatureNotFoundError{FeatureID: id}
}

// FeaturedFeatures returns features flagged for the home screen.
func (c *Catalog) FeaturedFeatures() []domain.Feature {
	var out []domain.Feature
	for _, f := range c.features {
		if f.Featured {
			out = append(out, f)
		}
	}
	return out
}

// FeaturesByCategory matches category case-insensitively.
func (c *Catalog) FeaturesByCategory(category string) []domain.Feature {
	var out []domain.Feature
	for _, f := range c.features {
		if strings.EqualFold(f.Category, category) {
			out = append(out, f)
		}
	}
	return out
}

func (c *Catalog) GameLevels() []hotspot.Level {
	return append([]hotspot.Level(nil), c.gameLevels...)
}

// SearchGlossary returns the terms whose term, definition or category
// contains query, ignoring case. An empty query returns every term.
func (c *Catalog) SearchGlossary(query string) []domain.GlossaryTerm {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]domain.GlossaryTerm(nil), c.glossary...)
	}
	var out []domain.GlossaryTerm
	for _, g := range c.glossary {
		if strings.Contains(strings.ToLower(g.Term), q) ||
			strings.Contains(strings.ToLower(g.Definition), q) ||
			strings.Contains(strings.ToLower(g.Category), q) {
			out = append(out, g)
		}
	}
	return out
}

// GlossaryTerm looks up a glossary entry by id.
func (c *Catalog) GlossaryTerm(id string) (domain.GlossaryTerm, error) {
	for _, g := range c.glossary {
		if g.ID == id {
			return g, nil
		}
	}
	return domain.GlossaryTerm{}, &domain.GlossaryTermNotFoundError{TermID: id}
}

// Warnings returns the warning lights, optionally only those of severity.
func (c *Catalog) Warnings(severity string) []domain.WarningLight {
	if severity == "" {
		return append([]domain.WarningLight(nil), c.warnings...)
	}
	var out []domain.WarningLight
	for _, w := range c.warnings {
		if strings.EqualFold(w.Severity, severity) {
			out = append(out, w)
		}
	}
	return out
}

// Warning looks up a warning light by id.
func (c *Catalog) Warning(id string) (domain.WarningLight, error) {
	for _, w := range c.warnings {
		if w.ID == id {
			return w, nil
		}
	}
	return domain.WarningLight{}, &domain.WarningNotFoundError{WarningID: id}
}
