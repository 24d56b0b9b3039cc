package file

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/7and1/difyrun/internal/core/domain"
)

// sourcesFile is the TOML document shape of a sources file.
type sourcesFile struct {
	Sources []sourceEntry `toml:"sources"`
}

// sourceEntry is one [[sources]] table.
type sourceEntry struct {
	ID           string   `toml:"id"`
	Name         string   `toml:"name"`
	Description  string   `toml:"description"`
	Owner        string   `toml:"owner"`
	Repo         string   `toml:"repo"`
	Branch       string   `toml:"branch"`
	RootPath     string   `toml:"root_path"`
	ExcludePaths []string `toml:"exclude_paths"`
	DefaultTags  []string `toml:"default_tags"`
	Weight       int      `toml:"weight"`
	Featured     bool     `toml:"featured"`
	Active       bool     `toml:"active"`
	Prune        bool     `toml:"prune"`
}

// LoadSources reads declarative source definitions from a TOML file.
func LoadSources(path string) ([]domain.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources file: %w", err)
	}

	var doc sourcesFile
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing sources file: %w", err)
	}

	sources := make([]domain.Source, 0, len(doc.Sources))
	for _, entry := range doc.Sources {
		source := domain.Source{
			ID:           entry.ID,
			Name:         entry.Name,
			Description:  entry.Description,
			Owner:        entry.Owner,
			Repo:         entry.Repo,
			Branch:       entry.Branch,
			RootPath:     entry.RootPath,
			ExcludePaths: entry.ExcludePaths,
			DefaultTags:  entry.DefaultTags,
			Weight:       entry.Weight,
			Featured:     entry.Featured,
			Active:       entry.Active,
			Prune:        entry.Prune,
		}
		if err := source.Validate(); err != nil {
			return nil, fmt.Errorf("sources file: %w", err)
		}
		sources = append(sources, source)
	}
	return sources, nil
}

// WriteSources persists source definitions as a TOML sources file.
func WriteSources(path string, sources []domain.Source) error {
	doc := sourcesFile{Sources: make([]sourceEntry, 0, len(sources))}
	for _, s := range sources {
		doc.Sources = append(doc.Sources, sourceEntry{
			ID:           s.ID,
			Name:         s.Name,
			Description:  s.Description,
			Owner:        s.Owner,
			Repo:         s.Repo,
			Branch:       s.Branch,
			RootPath:     s.RootPath,
			ExcludePaths: s.ExcludePaths,
			DefaultTags:  s.DefaultTags,
			Weight:       s.Weight,
			Featured:     s.Featured,
			Active:       s.Active,
			Prune:        s.Prune,
		})
	}

	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshalling sources file: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// DefaultSources returns the curated starter set of community DSL
// repositories, in weight order.
func DefaultSources() []domain.Source {
	return []domain.Source{
		{
			ID:           "svcvit-main",
			Name:         "Awesome Dify Workflow",
			Description:  "The most comprehensive community collection - 3000+ stars",
			Owner:        "svcvit",
			Repo:         "Awesome-Dify-Workflow",
			Branch:       "main",
			RootPath:     "DSL",
			ExcludePaths: []string{"README.md", "LICENSE", ".github", "docs"},
			DefaultTags:  []string{"Community Pick", "Most Popular"},
			Weight:       100,
			Featured:     true,
			Active:       true,
		},
		{
			ID:           "zhouhui",
			Name:         "Dify for DSL",
			Description:  "Sora, TTS, RSS, and specialized workflows",
			Owner:        "wwwzhouhui",
			Repo:         "dify-for-dsl",
			Branch:       "master",
			ExcludePaths: []string{"README.md", "LICENSE"},
			DefaultTags:  []string{"Advanced", "Video AI", "TTS"},
			Weight:       85,
			Featured:     true,
			Active:       true,
		},
		{
			ID:          "shamspias",
			Name:        "Awesome Dify Agents",
			Description: "Curated chatflows, agents, and RAG templates",
			Owner:       "shamspias",
			Repo:        "awesome-dify-agents",
			Branch:      "main",
			RootPath:    "flows",
			DefaultTags: []string{"Agents", "RAG", "Chatbots"},
			Weight:      80,
			Active:      true,
		},
		{
			ID:          "bannylon",
			Name:        "DifyAIA",
			Description: "Beginner-friendly workflows from Bilibili creator",
			Owner:       "BannyLon",
			Repo:        "DifyAIA",
			Branch:      "main",
			DefaultTags: []string{"Beginner", "Chinese Content", "Bilibili"},
			Weight:      75,
			Active:      true,
		},
		{
			ID:          "winson",
			Name:        "Dify DSL Collection",
			Description: "Document query and utility workflows",
			Owner:       "Winson-030",
			Repo:        "dify-DSL",
			Branch:      "main",
			DefaultTags: []string{"Utilities", "Documents"},
			Weight:      70,
			Active:      true,
		},
		{
			ID:          "pgshen",
			Name:        "PGshen Templates",
			Description: "High-quality application templates",
			Owner:       "PGshen",
			Repo:        "dify-app-template",
			Branch:      "main",
			DefaultTags: []string{"Apps", "Production Ready"},
			Weight:      65,
			Active:      true,
		},
		{
			ID:          "tomatio",
			Name:        "Workflow Generator",
			Description: "Meta-prompts for generating Dify workflows",
			Owner:       "Tomatio13",
			Repo:        "DifyWorkFlowGenerator",
			Branch:      "main",
			DefaultTags: []string{"Meta", "Generator", "Japanese"},
			Weight:      60,
			Active:      true,
		},
	}
}

// EnsureSourcesFile writes the default sources file if none exists,
// returning the loaded definitions either way.
func EnsureSourcesFile(path string) ([]domain.Source, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := WriteSources(path, DefaultSources()); err != nil {
			return nil, err
		}
	}
	return LoadSources(path)
}
