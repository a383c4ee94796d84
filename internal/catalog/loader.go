package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/darasahq/darasa/internal/domain"
)

// UnitFile is the YAML structure for one curriculum unit.
type UnitFile struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Lessons []struct {
		ID   string   `yaml:"id"`
		Name string   `yaml:"name"`
		Tags []string `yaml:"tags"`
	} `yaml:"lessons"`
	Exercises []struct {
		ID       string   `yaml:"id"`
		Name     string   `yaml:"name"`
		Tags     []string `yaml:"tags"`
		MaxScore int      `yaml:"max_score"`
		Theme    string   `yaml:"theme"`
	} `yaml:"exercises"`
	VariantGroups []struct {
		BaseID   string `yaml:"base_id"`
		Variants []struct {
			ExerciseID string `yaml:"exercise_id"`
			Theme      string `yaml:"theme"`
		} `yaml:"variants"`
	} `yaml:"variant_groups"`
}

// Loader handles loading units from YAML files.
type Loader struct {
	basePath string
}

// NewLoader creates a new unit loader.
func NewLoader(basePath string) *Loader {
	return &Loader{basePath: basePath}
}

// LoadUnit loads a single unit file.
func (l *Loader) LoadUnit(path string) (*domain.Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read unit file: %w", err)
	}

	var file UnitFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse unit file %s: %w", filepath.Base(path), err)
	}
	return file.toDomain(filepath.Base(path))
}

// LoadAll loads every unit file under the base path into a registry.
func (l *Loader) LoadAll() (*Registry, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, fmt.Errorf("read units dir: %w", err)
	}

	registry := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		unit, err := l.LoadUnit(filepath.Join(l.basePath, e.Name()))
		if err != nil {
			return nil, err
		}
		registry.Add(unit)
	}
	return registry, nil
}

func (f *UnitFile) toDomain(source string) (*domain.Unit, error) {
	if f.ID == "" {
		return nil, fmt.Errorf("unit file %s: missing id", source)
	}

	unit := &domain.Unit{
		ID:   f.ID,
		Name: f.Name,
	}
	for _, l := range f.Lessons {
		if l.ID == "" {
			return nil, fmt.Errorf("unit %s: lesson without id", f.ID)
		}
		unit.Lessons = append(unit.Lessons, domain.Lesson{
			ID:   l.ID,
			Name: l.Name,
			Tags: l.Tags,
		})
	}
	for _, e := range f.Exercises {
		if e.ID == "" {
			return nil, fmt.Errorf("unit %s: exercise without id", f.ID)
		}
		if e.MaxScore <= 0 {
			return nil, fmt.Errorf("unit %s: exercise %s needs a positive max_score", f.ID, e.ID)
		}
		unit.Exercises = append(unit.Exercises, domain.Exercise{
			ID:       e.ID,
			Name:     e.Name,
			Tags:     e.Tags,
			MaxScore: e.MaxScore,
			Theme:    e.Theme,
		})
	}
	for _, g := range f.VariantGroups {
		group := domain.VariantGroup{BaseID: g.BaseID}
		for _, v := range g.Variants {
			if _, ok := unit.ExerciseByID(v.ExerciseID); !ok {
				return nil, fmt.Errorf("unit %s: variant %s references unknown exercise", f.ID, v.ExerciseID)
			}
			group.Variants = append(group.Variants, domain.VariantRef{
				ExerciseID: v.ExerciseID,
				Theme:      v.Theme,
			})
		}
		unit.VariantGroups = append(unit.VariantGroups, group)
	}
	return unit, nil
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
