package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lamarrr/tensorflow/internal/builder"
	"github.com/lamarrr/tensorflow/internal/diag"
)

// Scenario defines a verification scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Specs lists descriptor directories, each holding one CUE package.
	// Paths are relative to the scenario file location.
	Specs []string `yaml:"specs"`

	// DialectVersion overrides the version in the dialect header.
	DialectVersion string `yaml:"dialect_version,omitempty"`

	// Instances are built and verified in order.
	Instances []Instance `yaml:"instances"`
}

// Instance describes one operation instance.
type Instance struct {
	// Kind is the operation kind name, e.g. "tf.AddV2".
	Kind string `yaml:"kind"`

	// Location identifies the instance; it must be unique within the scenario.
	Location string `yaml:"location"`

	// Operands maps operand slot names to the types of their values.
	Operands map[string][]string `yaml:"operands,omitempty"`

	// Results maps result slot names to the types of their values.
	// Must be empty when Build is set.
	Results map[string][]string `yaml:"results,omitempty"`

	// Build names a result-type inference (broadcast_binary or
	// broadcast_compare). The single result is inferred from the operands.
	Build string `yaml:"build,omitempty"`

	// Attrs holds explicit attribute values.
	Attrs map[string]any `yaml:"attrs,omitempty"`

	// Expect is checked against the outcome. If nil, nothing is checked.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of one instance.
type Expect struct {
	// Diagnostics is the expected multiset of diagnostics.
	// Nil leaves diagnostics unchecked; an empty list requires a clean instance.
	Diagnostics []ExpectedDiagnostic `yaml:"diagnostics"`

	// Derived holds expected derived attribute values (subset match).
	Derived map[string]string `yaml:"derived,omitempty"`

	// BuildError is the expected diagnostic kind of a failed inference.
	BuildError string `yaml:"build_error,omitempty"`
}

// ExpectedDiagnostic matches one diagnostic.
type ExpectedDiagnostic struct {
	Kind  string   `yaml:"kind"`
	Slots []string `yaml:"slots,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file, resolving spec paths
// against the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving spec paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, basePath)
}

// ParseScenario decodes scenario YAML. Unknown fields are rejected.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve spec paths BEFORE validation
	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}
	if len(s.Instances) == 0 {
		return fmt.Errorf("instances list is required and must be non-empty")
	}

	for _, specPath := range s.Specs {
		info, err := os.Stat(specPath)
		if err != nil {
			return fmt.Errorf("spec directory not found: %s", specPath)
		}
		if !info.IsDir() {
			return fmt.Errorf("spec path is not a directory: %s", specPath)
		}
	}

	locations := make(map[string]bool, len(s.Instances))
	for i, inst := range s.Instances {
		if err := validateInstance(i, &inst); err != nil {
			return err
		}
		if locations[inst.Location] {
			return fmt.Errorf("instances[%d]: duplicate location %q", i, inst.Location)
		}
		locations[inst.Location] = true
	}
	return nil
}

func validateInstance(index int, inst *Instance) error {
	if inst.Kind == "" {
		return fmt.Errorf("instances[%d]: kind is required", index)
	}
	if inst.Location == "" {
		return fmt.Errorf("instances[%d]: location is required", index)
	}
	if inst.Build != "" {
		if _, ok := builder.Lookup(inst.Build); !ok {
			return fmt.Errorf("instances[%d]: unknown build %q", index, inst.Build)
		}
		if len(inst.Results) > 0 {
			return fmt.Errorf("instances[%d]: results must be omitted when build is set", index)
		}
	}
	if inst.Expect == nil {
		return nil
	}
	for j, d := range inst.Expect.Diagnostics {
		if _, err := diag.ParseKind(d.Kind); err != nil {
			return fmt.Errorf("instances[%d].expect.diagnostics[%d]: %w", index, j, err)
		}
	}
	if inst.Expect.BuildError != "" {
		if inst.Build == "" {
			return fmt.Errorf("instances[%d].expect: build_error requires build", index)
		}
		if _, err := diag.ParseKind(inst.Expect.BuildError); err != nil {
			return fmt.Errorf("instances[%d].expect.build_error: %w", index, err)
		}
	}
	return nil
}
