package fixture

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Body keys recognized by the fixture schema.
const (
	keyPassStr = "pass_str"
	keyFailStr = "fail_str"
	keyFixStr  = "fix_str"
	keyConfigs = "configs"
)

// Load reads and parses a fixture file.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes fixture data into a Suite, preserving declaration order.
// It fails with a MalformedFixtureError on the first schema violation.
//
// Decoding walks the yaml.Node tree directly because unmarshalling into a
// Go map would lose the top-level key order, and reported results must
// follow declaration order.
func Parse(data []byte, source string) (*Suite, error) {
	doc, err := parseDocument(data, source)
	if err != nil {
		return nil, err
	}

	suite := &Suite{Source: source}
	if doc == nil {
		return suite, nil
	}

	seen := make(map[string]bool)
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, body := doc.Content[i], doc.Content[i+1]
		name := key.Value
		if seen[name] {
			return nil, &MalformedFixtureError{Source: source, Case: name, Reason: "duplicate case name"}
		}
		seen[name] = true

		c, err := decodeCase(source, name, body)
		if err != nil {
			return nil, err
		}
		suite.Cases = append(suite.Cases, c)
	}
	return suite, nil
}

// Check runs the same schema validation as Parse but collects every
// problem instead of stopping at the first. Used by `rulebench validate`.
func Check(data []byte, source string) []error {
	doc, err := parseDocument(data, source)
	if err != nil {
		return []error{err}
	}
	if doc == nil {
		return nil
	}

	var problems []error
	seen := make(map[string]bool)
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, body := doc.Content[i], doc.Content[i+1]
		name := key.Value
		if seen[name] {
			problems = append(problems, &MalformedFixtureError{Source: source, Case: name, Reason: "duplicate case name"})
			continue
		}
		seen[name] = true

		if _, err := decodeCase(source, name, body); err != nil {
			problems = append(problems, err)
		}
	}
	return problems
}

// parseDocument unmarshals raw YAML and returns the top-level mapping
// node, or nil for an empty document.
func parseDocument(data []byte, source string) (*yaml.Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", source, err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, &MalformedFixtureError{Source: source, Reason: "top level must be a mapping of case names to case bodies"}
	}
	return doc, nil
}

func decodeCase(source, name string, body *yaml.Node) (Case, error) {
	if body.Kind != yaml.MappingNode {
		return Case{}, &MalformedFixtureError{Source: source, Case: name, Reason: "case body must be a mapping"}
	}

	var (
		passStr, failStr, fixStr *string
		overrides                map[string]any
	)

	for i := 0; i+1 < len(body.Content); i += 2 {
		key, value := body.Content[i], body.Content[i+1]
		switch key.Value {
		case keyPassStr:
			s, err := decodeString(source, name, key.Value, value)
			if err != nil {
				return Case{}, err
			}
			passStr = &s
		case keyFailStr:
			s, err := decodeString(source, name, key.Value, value)
			if err != nil {
				return Case{}, err
			}
			failStr = &s
		case keyFixStr:
			s, err := decodeString(source, name, key.Value, value)
			if err != nil {
				return Case{}, err
			}
			fixStr = &s
		case keyConfigs:
			var raw map[string]any
			if err := value.Decode(&raw); err != nil {
				return Case{}, &MalformedFixtureError{Source: source, Case: name, Reason: "configs must be a mapping"}
			}
			overrides = Flatten(raw)
		default:
			return Case{}, &MalformedFixtureError{Source: source, Case: name, Reason: fmt.Sprintf("unknown key %q", key.Value)}
		}
	}

	switch {
	case passStr != nil && failStr != nil:
		return Case{}, &MalformedFixtureError{Source: source, Case: name, Reason: "both pass_str and fail_str set; exactly one is required"}
	case passStr == nil && failStr == nil:
		return Case{}, &MalformedFixtureError{Source: source, Case: name, Reason: "neither pass_str nor fail_str set; exactly one is required"}
	case fixStr != nil && passStr != nil:
		return Case{}, &MalformedFixtureError{Source: source, Case: name, Reason: "fix_str is only valid with fail_str"}
	}

	var expect Expectation
	switch {
	case passStr != nil:
		if strings.TrimSpace(*passStr) == "" {
			return Case{}, &MalformedFixtureError{Source: source, Case: name, Reason: "pass_str must not be empty"}
		}
		expect = Pass(*passStr)
	case fixStr != nil:
		if strings.TrimSpace(*failStr) == "" {
			return Case{}, &MalformedFixtureError{Source: source, Case: name, Reason: "fail_str must not be empty"}
		}
		expect = FailWithFix(*failStr, *fixStr)
	default:
		if strings.TrimSpace(*failStr) == "" {
			return Case{}, &MalformedFixtureError{Source: source, Case: name, Reason: "fail_str must not be empty"}
		}
		expect = Fail(*failStr)
	}

	return Case{Name: name, Expect: expect, Overrides: overrides}, nil
}

func decodeString(source, name, key string, value *yaml.Node) (string, error) {
	var s string
	if value.Kind != yaml.ScalarNode || value.Decode(&s) != nil {
		return "", &MalformedFixtureError{Source: source, Case: name, Reason: fmt.Sprintf("%s must be a string", key)}
	}
	return s, nil
}

// Flatten collapses nested config mappings to dotted keys, so that
// {core: {dialect: bigquery}} becomes {"core.dialect": "bigquery"}.
// Already-dotted keys pass through untouched.
func Flatten(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any)
	flatten("", in, out)
	return out
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		full := k
		if prefix != "" {
			full = prefix + "." + k
		}
		if nested, ok := in[k].(map[string]any); ok {
			flatten(full, nested, out)
			continue
		}
		out[full] = in[k]
	}
}
