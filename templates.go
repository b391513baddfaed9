package mopage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Template is a reusable page layout: an ordered block plan that gets
// fresh IDs every time it is instantiated, so two pages started from the
// same template never share block identity.
type Template struct {
	Name   string          `yaml:"name"`
	Label  string          `yaml:"label"`
	Blocks []TemplateBlock `yaml:"blocks"`
}

// TemplateBlock is one planned block. Content overrides the variant
// default when set; style is optional.
type TemplateBlock struct {
	Type    BlockType `yaml:"type"`
	Content string    `yaml:"content,omitempty"`
	Style   Style     `yaml:"style,omitempty"`
}

// Instantiate materializes the plan into blocks with fresh IDs.
func (t Template) Instantiate() []*Block {
	blocks := make([]*Block, 0, len(t.Blocks))
	for _, tb := range t.Blocks {
		b := NewBlock(tb.Type)
		if tb.Content != "" {
			if acc, ok := lookupAccessor(tb.Type, "content"); ok {
				acc.set(b, tb.Content)
			}
		}
		b.Style = tb.Style
		blocks = append(blocks, b)
	}
	return blocks
}

// builtinTemplates ship with the binary and are always available even
// when no template directory is configured.
var builtinTemplates = []Template{
	{
		Name:  "newsletter",
		Label: "Newsletter",
		Blocks: []TemplateBlock{
			{Type: BlockImage},
			{Type: BlockHeader, Content: "This month's news"},
			{Type: BlockText, Content: "Write your update here."},
		},
	},
	{
		Name:  "promotion",
		Label: "Promotion",
		Blocks: []TemplateBlock{
			{Type: BlockImage},
			{Type: BlockText, Content: "Don't miss this event!"},
			{Type: BlockSchedule},
		},
	},
	{
		Name:  "invitation",
		Label: "Invitation",
		Blocks: []TemplateBlock{
			{Type: BlockHeader, Content: "You're invited"},
			{Type: BlockImage},
			{Type: BlockText, Content: "We'd love to see you there."},
		},
	},
}

// TemplateRegistry holds the available templates. File-backed definitions
// layer over the builtins by name and can be reloaded at runtime (the
// server wires this to a directory watcher).
type TemplateRegistry struct {
	mu     sync.RWMutex
	byName map[string]Template
}

// NewTemplateRegistry returns a registry seeded with the builtins.
func NewTemplateRegistry() *TemplateRegistry {
	r := &TemplateRegistry{byName: make(map[string]Template)}
	for _, t := range builtinTemplates {
		r.byName[t.Name] = t
	}
	return r
}

// Get returns the template with the given name.
func (r *TemplateRegistry) Get(name string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// List returns all templates sorted by name.
func (r *TemplateRegistry) List() []Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Template, 0, len(r.byName))
	for _, t := range r.byName {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LoadDir reads every .yaml/.yml file in dir as a template definition and
// layers it over the builtins. Files that fail to parse are skipped with
// an error in the returned slice; one bad file must not block a reload.
func (r *TemplateRegistry) LoadDir(dir string) []error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []error{fmt.Errorf("read template dir %s: %w", dir, err)}
	}
	var errs []error
	loaded := make(map[string]Template)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		path := filepath.Join(dir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("read template %s: %w", path, err))
			continue
		}
		var t Template
		if err := yaml.Unmarshal(raw, &t); err != nil {
			errs = append(errs, fmt.Errorf("parse template %s: %w", path, err))
			continue
		}
		if t.Name == "" {
			t.Name = strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml")
		}
		if t.Label == "" {
			t.Label = t.Name
		}
		loaded[t.Name] = t
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName = make(map[string]Template)
	for _, t := range builtinTemplates {
		r.byName[t.Name] = t
	}
	for name, t := range loaded {
		r.byName[name] = t
	}
	return errs
}

// FromTemplate builds a fresh document from a named template.
func FromTemplate(t Template, title, author string, category Category, credential string) *Document {
	d := NewDocument(title, author, category, credential)
	d.Blocks = t.Instantiate()
	return d
}
