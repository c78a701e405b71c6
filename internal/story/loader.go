package story

import (
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"lovevirus/assets"
)

// Default returns the story compiled into the binary.
func Default() (Story, error) {
	return loadFS(assets.FS, assets.StoryFile)
}

// Load reads a story file from disk. An empty path yields the default story.
func Load(path string) (Story, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Story{}, err
	}
	s, err := parse(b, path)
	if err != nil {
		return Story{}, err
	}
	s.Path = path
	return s, nil
}

func loadFS(fsys fs.FS, name string) (Story, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Story{}, err
	}
	return parse(b, name)
}

func parse(b []byte, name string) (Story, error) {
	var s Story
	if err := yaml.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("parse %s: %w", name, err)
	}
	applyDefaults(&s)
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("validate %s: %w", name, err)
	}
	return s, nil
}

func applyDefaults(s *Story) {
	if s.Prompt.Dir == "" {
		s.Prompt.Dir = "~"
	}
	if s.Prompt.Decision == "" {
		s.Prompt.Decision = "> "
	}
	if s.Script.Elevate == "" {
		s.Script.Elevate = "sudo"
	}
	if s.Script.Invocation == "" && s.Script.File != "" {
		s.Script.Invocation = "./" + s.Script.File
	}
	if s.Image == "" {
		s.Image = assets.ImageFile
	}
	for i := range s.Decision.Yes {
		if s.Decision.Yes[i].Style == "" {
			s.Decision.Yes[i].Style = "message"
		}
	}
	for i := range s.Decision.No {
		if s.Decision.No[i].Style == "" {
			s.Decision.No[i].Style = "message"
		}
	}
}
