package rules

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileRules is the YAML layout of a rules file:
//
//	rules:
//	  - [アダルト, keyword, エロ, ""]
//	  - [アダルト, pattern, "*xxx*", ""]
//	  - ["", jpdomain, .jp, ""]
type fileRules struct {
	Rules [][]string `yaml:"rules"`
}

// FileSource reads rule rows from a YAML file. Rows follow the same
// column layout as the sheet, without a header row.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading the given YAML file
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name identifies the source in logs
func (s *FileSource) Name() string {
	return "file:" + s.path
}

// Rows parses the file
func (s *FileSource) Rows(ctx context.Context) ([][]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var parsed fileRules
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", s.path, err)
	}
	return parsed.Rules, nil
}
