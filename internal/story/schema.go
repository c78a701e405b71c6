package story

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	StoryKind              = "story"
	SupportedSchemaVersion = 1
)

var userPattern = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)

type Story struct {
	Kind              string       `yaml:"kind"`
	SchemaVersion     int          `yaml:"schema_version"`
	Title             string       `yaml:"title"`
	Prompt            PromptSpec   `yaml:"prompt"`
	Owner             string       `yaml:"owner"`
	Group             string       `yaml:"group"`
	Readme            string       `yaml:"readme"`
	VirusLog          string       `yaml:"virus_log"`
	DecisionThreshold int          `yaml:"decision_threshold"`
	Script            ScriptSpec   `yaml:"script"`
	Image             string       `yaml:"image"`
	Intro             []string     `yaml:"intro"`
	Files             []FileSpec   `yaml:"files"`
	Decision          DecisionSpec `yaml:"decision"`
	Finale            string       `yaml:"finale"`
	Messages          Messages     `yaml:"messages"`

	Path string `yaml:"-"`
}

type PromptSpec struct {
	User     string `yaml:"user"`
	Host     string `yaml:"host"`
	Dir      string `yaml:"dir"`
	Decision string `yaml:"decision"`
}

type ScriptSpec struct {
	File       string `yaml:"file"`
	Invocation string `yaml:"invocation"`
	Elevate    string `yaml:"elevate"`
}

type FileSpec struct {
	Name        string `yaml:"name"`
	Permissions string `yaml:"permissions"`
	Content     string `yaml:"content"`
}

type DecisionSpec struct {
	Question string       `yaml:"question"`
	Yes      []StyledLine `yaml:"yes"`
	No       []StyledLine `yaml:"no"`
}

// StyledLine is a narrative line with a display style: message, warning,
// error or system.
type StyledLine struct {
	Style string `yaml:"style"`
	Text  string `yaml:"text"`
}

// Messages are templates; {arg} and {readme} are substituted at use.
type Messages struct {
	FileNotFound     string `yaml:"file_not_found"`
	NoFileSpecified  string `yaml:"no_file_specified"`
	ElevateNotFound  string `yaml:"elevate_not_found"`
	PermissionDenied string `yaml:"permission_denied"`
	PermissionHint   string `yaml:"permission_hint"`
	UnknownCommand   string `yaml:"unknown_command"`
	DidYouMean       string `yaml:"did_you_mean"`
}

func (s Story) Validate() error {
	if s.Kind != StoryKind {
		return fmt.Errorf("kind must be %q", StoryKind)
	}
	if s.SchemaVersion != SupportedSchemaVersion {
		return fmt.Errorf("unsupported schema_version %d", s.SchemaVersion)
	}
	if !userPattern.MatchString(s.Prompt.User) {
		return fmt.Errorf("invalid prompt.user %q", s.Prompt.User)
	}
	if strings.TrimSpace(s.Prompt.Host) == "" || strings.TrimSpace(s.Prompt.Dir) == "" {
		return fmt.Errorf("prompt.host and prompt.dir are required")
	}
	if s.Owner == "" || s.Group == "" {
		return fmt.Errorf("owner and group are required")
	}
	if s.DecisionThreshold < 0 {
		return fmt.Errorf("decision_threshold must be >= 0")
	}
	if len(s.Files) == 0 {
		return fmt.Errorf("at least one file is required")
	}

	seen := map[string]bool{}
	for i, f := range s.Files {
		if f.Name == "" {
			return fmt.Errorf("files[%d].name is required", i)
		}
		if f.Name == "." || f.Name == ".." || strings.ContainsAny(f.Name, "/ \t") {
			return fmt.Errorf("files[%d].name %q is not a plain file name", i, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate file %q", f.Name)
		}
		if len(f.Permissions) != 10 || f.Permissions[0] != '-' {
			return fmt.Errorf("files[%d].permissions %q must look like -rw-r--r--", i, f.Permissions)
		}
		seen[f.Name] = true
	}

	for _, ref := range []struct{ field, name string }{
		{"readme", s.Readme},
		{"virus_log", s.VirusLog},
		{"script.file", s.Script.File},
	} {
		if ref.name == "" {
			return fmt.Errorf("%s is required", ref.field)
		}
		if !seen[ref.name] {
			return fmt.Errorf("%s references missing file %q", ref.field, ref.name)
		}
	}
	if s.Script.Invocation == "" || strings.ContainsAny(s.Script.Invocation, " \t") {
		return fmt.Errorf("script.invocation must be a single token")
	}
	if s.Script.Elevate == "" {
		return fmt.Errorf("script.elevate is required")
	}

	if s.Decision.Question == "" || len(s.Decision.Yes) == 0 || len(s.Decision.No) == 0 {
		return fmt.Errorf("decision requires a question and both branches")
	}
	for _, l := range append(append([]StyledLine(nil), s.Decision.Yes...), s.Decision.No...) {
		if !validStyle(l.Style) {
			return fmt.Errorf("invalid line style %q", l.Style)
		}
	}
	if strings.TrimSpace(s.Finale) == "" {
		return fmt.Errorf("finale is required")
	}
	return s.Messages.validate()
}

func (m Messages) validate() error {
	fields := map[string]string{
		"file_not_found":    m.FileNotFound,
		"no_file_specified": m.NoFileSpecified,
		"elevate_not_found": m.ElevateNotFound,
		"permission_denied": m.PermissionDenied,
		"permission_hint":   m.PermissionHint,
		"unknown_command":   m.UnknownCommand,
	}
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("messages.%s is required", name)
		}
	}
	return nil
}

func validStyle(s string) bool {
	switch s {
	case "", "message", "warning", "error", "system":
		return true
	}
	return false
}

// Expand substitutes {arg} and {readme} in a message template.
func (s Story) Expand(tmpl, arg string) string {
	return strings.NewReplacer("{arg}", arg, "{readme}", s.Readme).Replace(tmpl)
}

// ReferencedFiles lists every file name a narrative branch depends on.
func (s Story) ReferencedFiles() []string {
	return []string{s.Readme, s.VirusLog, s.Script.File}
}
