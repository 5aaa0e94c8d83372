package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const pipelinesYAML = `
parse_plaintext:
  - tokenize --token-range
  - exec --cmd {thisdir}/bin/tagger --arg {thisdir}/models/fi.bin
parse_conllu:
  - identity
`

func TestLoadSpecFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipelines.yaml")
	if err := os.WriteFile(path, []byte(pipelinesYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	set, err := LoadSpecFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(set.Names(), ","); got != "parse_plaintext,parse_conllu" {
		t.Errorf("pipelines not in declared order: %s", got)
	}

	spec, err := set.Get("parse_plaintext")
	if err != nil {
		t.Fatal(err)
	}
	if len(spec.Stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(spec.Stages))
	}
	execStage := spec.Stages[1]
	want := []string{"--cmd", dir + "/bin/tagger", "--arg", dir + "/models/fi.bin"}
	if execStage.Name != "exec" || strings.Join(execStage.Args, " ") != strings.Join(want, " ") {
		t.Errorf("unexpected stage %+v", execStage)
	}

	if _, err := set.Get("missing"); err == nil {
		t.Error("expected error for undeclared pipeline")
	}
}

func TestLoadSpecFile_Errors(t *testing.T) {
	if _, err := LoadSpecFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	tests := map[string]string{
		"not a mapping":  "- tokenize\n",
		"not a list":     "parse: tokenize\n",
		"empty stage":    "parse:\n  - \"  \"\n",
		"malformed yaml": "parse: [\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseSpecs([]byte(doc), "/tmp"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseSpecs_Empty(t *testing.T) {
	set, err := ParseSpecs(nil, "/tmp")
	if err != nil {
		t.Fatal(err)
	}
	if len(set.All()) != 0 {
		t.Error("expected no pipelines")
	}
}

func TestWithExtraArgs(t *testing.T) {
	spec := Spec{Name: "p", Stages: []StageSpec{
		{Name: "tokenize", Args: []string{"--token-range"}},
		{Name: "exec", Args: []string{"--cmd", "tagger"}},
	}}

	got, err := spec.WithExtraArgs(map[string]string{
		"tokenize.lemma": "true",
		"exec.timeout":   "30s",
	})
	if err != nil {
		t.Fatal(err)
	}
	if s := got.Stages[0].String(); s != "tokenize --token-range --lemma=true" {
		t.Errorf("unexpected %q", s)
	}
	if s := got.Stages[1].String(); s != "exec --cmd tagger --timeout=30s" {
		t.Errorf("unexpected %q", s)
	}
	if len(spec.Stages[0].Args) != 1 {
		t.Error("original spec must not be modified")
	}

	if _, err := spec.WithExtraArgs(map[string]string{"lemma": "true"}); err == nil {
		t.Error("expected error for key without stage")
	}
	if _, err := spec.WithExtraArgs(map[string]string{"parser.beam": "4"}); err == nil {
		t.Error("expected error for unknown stage")
	}
}
