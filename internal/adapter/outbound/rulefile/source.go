// Package rulefile loads raw rule definitions from YAML or JSON files.
package rulefile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/checkngn/checkngn/internal/domain/rule"
)

// StdinPath makes FileSource read from standard input.
const StdinPath = "-"

// ErrMissingActions is returned for a rule entry without an actions key.
var ErrMissingActions = errors.New("rule has no actions")

// ruleEntry is the on-disk form of a single rule.
type ruleEntry struct {
	Name       string      `yaml:"name"`
	Conditions interface{} `yaml:"conditions"`
	Actions    interface{} `yaml:"actions"`
}

// FileSource implements rule.RuleSource for a rule file on disk.
type FileSource struct {
	path  string
	stdin io.Reader
}

// Compile-time check that FileSource implements rule.RuleSource.
var _ rule.RuleSource = (*FileSource)(nil)

// FileSourceOption configures FileSource.
type FileSourceOption func(*FileSource)

// WithStdin replaces os.Stdin as the reader used for StdinPath.
func WithStdin(r io.Reader) FileSourceOption {
	return func(s *FileSource) {
		s.stdin = r
	}
}

// NewFileSource creates a FileSource for path. StdinPath reads os.Stdin.
func NewFileSource(path string, opts ...FileSourceOption) *FileSource {
	s := &FileSource{path: path, stdin: os.Stdin}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the configured file path.
func (s *FileSource) Path() string {
	return s.path
}

// LoadRules reads and decodes the rule file.
func (s *FileSource) LoadRules(ctx context.Context) ([]rule.Rule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		data []byte
		err  error
	)
	if s.path == StdinPath {
		data, err = io.ReadAll(s.stdin)
	} else {
		data, err = os.ReadFile(s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file %s: %w", s.path, err)
	}

	rules, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return rules, nil
}

// Decode parses a rule document. The document is either a list of rules or a
// mapping whose "rules" key holds that list. JSON documents are accepted as
// YAML. An empty document yields no rules.
func Decode(data []byte) ([]rule.Rule, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rule document: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return []rule.Rule{}, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		return decodeRuleList(root)
	case yaml.MappingNode:
		list := mappingValue(root, "rules")
		if list == nil {
			return nil, errors.New(`rule document mapping has no "rules" key`)
		}
		if list.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf(`line %d: "rules" must be a list`, list.Line)
		}
		return decodeRuleList(list)
	default:
		return nil, fmt.Errorf("line %d: rule document must be a list or a mapping", root.Line)
	}
}

func decodeRuleList(list *yaml.Node) ([]rule.Rule, error) {
	rules := make([]rule.Rule, 0, len(list.Content))
	for i, item := range list.Content {
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("rule %d (line %d): expected a mapping", i, item.Line)
		}

		var entry ruleEntry
		if err := item.Decode(&entry); err != nil {
			return nil, fmt.Errorf("rule %d (line %d): %w", i, item.Line, err)
		}
		if entry.Name == "" {
			entry.Name = fmt.Sprintf("rule-%d", i)
		}
		if mappingValue(item, "actions") == nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, entry.Name, ErrMissingActions)
		}

		rules = append(rules, rule.Rule{
			Name:       entry.Name,
			Conditions: entry.Conditions,
			Actions:    entry.Actions,
		})
	}
	return rules, nil
}

// mappingValue returns the value node for key in a mapping node, or nil.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}
