package types

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// SuiteSpec is the declarative description of one benchmark suite run.
// All top-level fields except FileSystem and BinaryDir are required;
// Vol must be present in the document but may be null.
type SuiteSpec struct {
	MPI        LaunchSpec      `yaml:"mpi"`
	Vol        *VolSpec        `yaml:"vol"`
	Directory  string          `yaml:"directory"`
	FileSystem *FileSystemSpec `yaml:"file-system,omitempty"`
	BinaryDir  string          `yaml:"binary-dir,omitempty"`
	Benchmarks []*Step         `yaml:"benchmarks"`
}

// LaunchSpec selects the parallel launcher every backend runs under.
// If Configuration is set it is used verbatim as the launcher argument
// string; otherwise Ranks is mapped onto the launcher's rank flag.
type LaunchSpec struct {
	Command       string `yaml:"command"`
	Ranks         int    `yaml:"ranks"`
	Configuration string `yaml:"configuration,omitempty"`
}

// VolSpec configures the optional asynchronous VOL acceleration layer.
type VolSpec struct {
	Library   string `yaml:"library"`
	Path      string `yaml:"path"`
	Connector string `yaml:"connector"`
}

type FileSystemSpec struct {
	Lustre *LustreSpec `yaml:"lustre,omitempty"`
}

// LustreSpec requests striping on the suite directory. Striping is a
// performance hint; failures applying it never fail the run.
type LustreSpec struct {
	StripeSize  string `yaml:"stripe-size,omitempty"`
	StripeCount int    `yaml:"stripe-count,omitempty"`
}

// Step is one declared backend invocation. Steps are immutable once
// loaded and are executed in declared order.
type Step struct {
	Benchmark     string    `yaml:"benchmark"`
	File          string    `yaml:"file,omitempty"`
	Configuration ConfigMap `yaml:"configuration"`
}

// ConfigEntry is a single key/value pair of a step configuration.
type ConfigEntry struct {
	Key   string
	Value string
}

// ConfigMap is an order-preserving string mapping. Several backend
// config dialects are sensitive to key order, so the YAML mapping
// order is retained instead of decoding into a Go map.
type ConfigMap struct {
	entries []ConfigEntry
}

func (m *ConfigMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("configuration must be a mapping (line %d)", node.Line)
	}

	m.entries = m.entries[:0]
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valNode := node.Content[i+1]

		if valNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("configuration value for %q must be a scalar (line %d)", keyNode.Value, valNode.Line)
		}
		m.entries = append(m.entries, ConfigEntry{Key: keyNode.Value, Value: valNode.Value})
	}
	return nil
}

func (m ConfigMap) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range m.entries {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: e.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: e.Value},
		)
	}
	return node, nil
}

// Entries returns the pairs in declared order.
func (m ConfigMap) Entries() []ConfigEntry {
	return m.entries
}

func (m ConfigMap) Len() int {
	return len(m.entries)
}

// Get returns the value for key and whether it was declared.
func (m ConfigMap) Get(key string) (string, bool) {
	for _, e := range m.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Set replaces the value of an existing key or appends a new pair.
func (m *ConfigMap) Set(key, value string) {
	for i, e := range m.entries {
		if e.Key == key {
			m.entries[i].Value = value
			return
		}
	}
	m.entries = append(m.entries, ConfigEntry{Key: key, Value: value})
}

// ToMap flattens the pairs into a plain map for loose decoding into
// typed option structs. Order is lost; use Entries for emission.
func (m ConfigMap) ToMap() map[string]any {
	out := make(map[string]any, len(m.entries))
	for _, e := range m.entries {
		out[e.Key] = e.Value
	}
	return out
}
