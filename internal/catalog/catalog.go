// Package catalog holds the fixed lookup tables used to compose networking
// messages: the field vocabulary, per-type prompt clauses, fallback template
// pools and the allowed greeting tokens.
//
// The tables are embedded YAML. A Catalog is immutable once parsed; every
// accessor returns a copy.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"cold-message/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// SkillsPerRequest is the exact number of skills a request must carry.
const SkillsPerRequest = 3

// Field is a professional domain with its fixed skill vocabulary.
type Field struct {
	Name   string   `yaml:"name"`
	Skills []string `yaml:"skills"`
}

// PromptTemplates are the sections assembled into a model prompt.
type PromptTemplates struct {
	Opening      string                        `yaml:"opening"`
	Company      string                        `yaml:"company"`
	Job          string                        `yaml:"job"`
	Closing      string                        `yaml:"closing"`
	MessageTypes map[domain.MessageType]string `yaml:"message_types"`
}

// FallbackTemplates are the pools used by the template-based composer.
type FallbackTemplates struct {
	Intros        []string            `yaml:"intros"`
	CompanySuffix string              `yaml:"company_suffix"`
	JobFragment   string              `yaml:"job_fragment"`
	JobMaxLength  int                 `yaml:"job_max_length"`
	Bodies        map[string][]string `yaml:"bodies"`
	Closings      map[string][]string `yaml:"closings"`
}

type document struct {
	Fields    []Field           `yaml:"fields"`
	Greetings []string          `yaml:"greetings"`
	Prompt    PromptTemplates   `yaml:"prompt"`
	Fallback  FallbackTemplates `yaml:"fallback"`
}

const defaultPool = "default"

// Catalog is the parsed, validated set of lookup tables.
type Catalog struct {
	doc     document
	byField map[string]int
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(defaultCatalogYAML)
		if err != nil {
			panic("catalog: invalid embedded catalog.yaml: " + err.Error())
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	c := &Catalog{doc: doc, byField: make(map[string]int, len(doc.Fields))}
	if err := c.check(); err != nil {
		return nil, err
	}
	for i, f := range doc.Fields {
		c.byField[strings.ToLower(f.Name)] = i
	}
	return c, nil
}

func (c *Catalog) check() error {
	if len(c.doc.Fields) == 0 {
		return errors.New("catalog: no fields defined")
	}
	seen := make(map[string]bool, len(c.doc.Fields))
	for _, f := range c.doc.Fields {
		key := strings.ToLower(strings.TrimSpace(f.Name))
		if key == "" {
			return errors.New("catalog: field with empty name")
		}
		if seen[key] {
			return fmt.Errorf("catalog: duplicate field %q", f.Name)
		}
		seen[key] = true
		if len(f.Skills) < SkillsPerRequest {
			return fmt.Errorf("catalog: field %q needs at least %d skills", f.Name, SkillsPerRequest)
		}
	}
	if len(c.doc.Greetings) == 0 {
		return errors.New("catalog: no greetings defined")
	}
	if strings.TrimSpace(c.doc.Prompt.Opening) == "" || strings.TrimSpace(c.doc.Prompt.Closing) == "" {
		return errors.New("catalog: prompt opening and closing are required")
	}
	fb := c.doc.Fallback
	if len(fb.Intros) == 0 {
		return errors.New("catalog: no fallback intros defined")
	}
	for _, intro := range fb.Intros {
		if !c.HasGreeting(intro) {
			return fmt.Errorf("catalog: fallback intro %q does not start with a greeting", intro)
		}
	}
	if len(fb.Bodies[defaultPool]) == 0 || len(fb.Closings[defaultPool]) == 0 {
		return errors.New("catalog: default fallback bodies and closings are required")
	}
	if fb.JobMaxLength <= 0 {
		return errors.New("catalog: fallback job_max_length must be positive")
	}
	return nil
}

// Fields returns the professional fields in catalog order.
func (c *Catalog) Fields() []Field {
	out := make([]Field, len(c.doc.Fields))
	for i, f := range c.doc.Fields {
		out[i] = Field{Name: f.Name, Skills: append([]string(nil), f.Skills...)}
	}
	return out
}

// LookupField finds a field by name, ignoring case and surrounding space.
func (c *Catalog) LookupField(name string) (Field, bool) {
	i, ok := c.byField[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Field{}, false
	}
	f := c.doc.Fields[i]
	return Field{Name: f.Name, Skills: append([]string(nil), f.Skills...)}, true
}

// Skill returns the canonical spelling of skill within the field's vocabulary.
func (f Field) Skill(skill string) (string, bool) {
	skill = strings.TrimSpace(skill)
	for _, s := range f.Skills {
		if strings.EqualFold(s, skill) {
			return s, true
		}
	}
	return "", false
}

// Greetings returns the allowed lower-case greeting tokens.
func (c *Catalog) Greetings() []string {
	return append([]string(nil), c.doc.Greetings...)
}

// HasGreeting reports whether text, trimmed and lower-cased, starts with an
// allowed greeting token.
func (c *Catalog) HasGreeting(text string) bool {
	probe := strings.ToLower(strings.TrimSpace(text))
	for _, g := range c.doc.Greetings {
		if strings.HasPrefix(probe, g) {
			return true
		}
	}
	return false
}

// Prompt returns the prompt section templates.
func (c *Catalog) Prompt() PromptTemplates {
	p := c.doc.Prompt
	clauses := make(map[domain.MessageType]string, len(p.MessageTypes))
	for k, v := range p.MessageTypes {
		clauses[k] = v
	}
	p.MessageTypes = clauses
	return p
}

// Clause returns the instruction clause for an exact message type match.
func (c *Catalog) Clause(t domain.MessageType) (string, bool) {
	clause, ok := c.doc.Prompt.MessageTypes[t]
	return clause, ok
}

// KnownMessageType reports whether t has a prompt clause.
func (c *Catalog) KnownMessageType(t domain.MessageType) bool {
	_, ok := c.doc.Prompt.MessageTypes[t]
	return ok
}

// Intros returns the fallback intro templates.
func (c *Catalog) Intros() []string {
	return append([]string(nil), c.doc.Fallback.Intros...)
}

// Bodies returns the fallback body pool for a message type, or the default
// pool when the type has none of its own.
func (c *Catalog) Bodies(t domain.MessageType) []string {
	return pool(c.doc.Fallback.Bodies, t)
}

// Closings returns the fallback closing pool for a message type, or the
// default pool when the type has none of its own.
func (c *Catalog) Closings(t domain.MessageType) []string {
	return pool(c.doc.Fallback.Closings, t)
}

// CompanySuffix returns the intro suffix template used when a company is given.
func (c *Catalog) CompanySuffix() string { return c.doc.Fallback.CompanySuffix }

// JobFragment returns the intro fragment template used when a job description is given.
func (c *Catalog) JobFragment() string { return c.doc.Fallback.JobFragment }

// JobMaxLength is the number of characters of a job description quoted in a fallback intro.
func (c *Catalog) JobMaxLength() int { return c.doc.Fallback.JobMaxLength }

func pool(pools map[string][]string, t domain.MessageType) []string {
	if p, ok := pools[string(t)]; ok && len(p) > 0 {
		return append([]string(nil), p...)
	}
	return append([]string(nil), pools[defaultPool]...)
}
