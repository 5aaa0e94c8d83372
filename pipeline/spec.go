package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ThisDir is replaced in stage arguments by the spec file's directory.
const ThisDir = "{thisdir}"

// StageSpec names one stage and the flag tokens it is started with.
type StageSpec struct {
	Name string
	Args []string
}

func (s StageSpec) String() string {
	return strings.Join(append([]string{s.Name}, s.Args...), " ")
}

// Spec is an ordered chain of stages.
type Spec struct {
	Name   string
	Stages []StageSpec
}

// SpecSet holds every pipeline declared in one file, in declared order.
type SpecSet struct {
	Dir   string
	specs []Spec
}

// Names lists the pipelines in declared order.
func (s *SpecSet) Names() []string {
	names := make([]string, len(s.specs))
	for i, sp := range s.specs {
		names[i] = sp.Name
	}
	return names
}

// Get returns the pipeline called name.
func (s *SpecSet) Get(name string) (Spec, error) {
	for _, sp := range s.specs {
		if sp.Name == name {
			return sp, nil
		}
	}
	return Spec{}, fmt.Errorf("pipeline %q not declared (have %s)", name, strings.Join(s.Names(), ", "))
}

// All returns every pipeline in declared order.
func (s *SpecSet) All() []Spec {
	return append([]Spec(nil), s.specs...)
}

// LoadSpecFile reads a pipelines file: a mapping of pipeline name to a list
// of "stage --flag value ..." strings.
func LoadSpecFile(path string) (*SpecSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pipeline spec: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving pipeline spec path: %w", err)
	}
	set, err := ParseSpecs(data, filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// ParseSpecs decodes a pipelines document, expanding ThisDir to dir.
func ParseSpecs(data []byte, dir string) (*SpecSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing pipeline spec: %w", err)
	}
	set := &SpecSet{Dir: dir}
	if len(doc.Content) == 0 {
		return set, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: pipeline spec must be a mapping of name to stage list", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		var lines []string
		if err := value.Decode(&lines); err != nil {
			return nil, fmt.Errorf("line %d: pipeline %q: %w", value.Line, key.Value, err)
		}
		spec := Spec{Name: key.Value}
		for _, line := range lines {
			st, err := ParseStage(line, dir)
			if err != nil {
				return nil, fmt.Errorf("pipeline %q: %w", key.Value, err)
			}
			spec.Stages = append(spec.Stages, st)
		}
		set.specs = append(set.specs, spec)
	}
	return set, nil
}

// ParseStage splits one stage string into name and flag tokens.
func ParseStage(line, dir string) (StageSpec, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return StageSpec{}, fmt.Errorf("empty stage definition")
	}
	st := StageSpec{Name: fields[0]}
	for _, f := range fields[1:] {
		st.Args = append(st.Args, strings.ReplaceAll(f, ThisDir, dir))
	}
	return st, nil
}

// WithExtraArgs returns a copy of s with "stage.flag" entries appended to
// the matching stages as "--flag=value".
func (s Spec) WithExtraArgs(extra map[string]string) (Spec, error) {
	out := Spec{Name: s.Name, Stages: make([]StageSpec, len(s.Stages))}
	for i, st := range s.Stages {
		out.Stages[i] = StageSpec{Name: st.Name, Args: append([]string(nil), st.Args...)}
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		stageName, flag, ok := strings.Cut(key, ".")
		if !ok || stageName == "" || flag == "" {
			return Spec{}, fmt.Errorf("extra argument %q must look like stage.flag", key)
		}
		matched := false
		for i := range out.Stages {
			if out.Stages[i].Name == stageName {
				out.Stages[i].Args = append(out.Stages[i].Args, "--"+flag+"="+extra[key])
				matched = true
			}
		}
		if !matched {
			return Spec{}, fmt.Errorf("extra argument %q: pipeline %q has no stage %q", key, s.Name, stageName)
		}
	}
	return out, nil
}
