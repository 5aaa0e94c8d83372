package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/annotpipe/annotator"
	"github.com/kbukum/annotpipe/config"
	"github.com/kbukum/annotpipe/pipeline"
)

const testPipelines = `parse_plaintext:
  - tokenize --token-range
  - identity
lemmatize:
  - tokenize --lemma
`

func writePipelines(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipelines.yaml")
	if err := os.WriteFile(path, []byte(testPipelines), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func testAppConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	cfg := &config.AppConfig{}
	cfg.Pipeline.SpecFile = writePipelines(t)
	cfg.Logging.Level = "error"
	return cfg
}

func decodeResult(t *testing.T, out []byte) annotator.Result {
	t.Helper()
	var res annotator.Result
	if err := json.Unmarshal(out, &res); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
	return res
}

func TestRunParseSmall(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := runParse(context.Background(), testAppConfig(t), "The Cat sat.", parseOptions{summary: true}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("runParse: %v", err)
	}

	res := decodeResult(t, stdout.Bytes())
	if res.Annotations == nil || len(res.Annotations.Tokens) != 4 {
		t.Fatalf("expected 4 tokens, got %s", stdout.String())
	}
	cat := res.Annotations.Tokens[1]
	if cat.Start != 4 || cat.End != 7 || cat.Features.Words[0].Form != "Cat" {
		t.Fatalf("unexpected token %+v", cat)
	}
	if !strings.Contains(stderr.String(), "Sentences") {
		t.Fatalf("summary not printed: %s", stderr.String())
	}
}

func TestRunParseLargeInputIsChunkedAndMerged(t *testing.T) {
	cfg := testAppConfig(t)
	cfg.Pipeline.MaxChar = 24
	text := "One small cat. Two big dogs. Three red birds. Four old fish."

	var stdout, stderr bytes.Buffer
	if err := runParse(context.Background(), cfg, text, parseOptions{summary: true}, &stdout, &stderr); err != nil {
		t.Fatalf("runParse: %v", err)
	}

	res := decodeResult(t, stdout.Bytes())
	if res.Annotations == nil {
		t.Fatalf("expected merged annotations, got %s", stdout.String())
	}
	if res.Features == nil || res.Features.Counts == nil || len(res.Features.Counts.Tokens) < 2 {
		t.Fatalf("expected per-chunk counts, got %s", stdout.String())
	}
	if got := len(res.Annotations.Tokens); got != 16 {
		t.Fatalf("expected 16 tokens, got %d", got)
	}
	for _, tok := range res.Annotations.Tokens {
		if form := tok.Features.Words[0].Form; text[tok.Start:tok.End] != form {
			t.Fatalf("token %q does not match text at [%d,%d)", form, tok.Start, tok.End)
		}
	}
}

func TestRunParseMissingSpec(t *testing.T) {
	cfg := testAppConfig(t)
	cfg.Pipeline.SpecFile = filepath.Join(t.TempDir(), "missing.yaml")
	var stdout, stderr bytes.Buffer
	if err := runParse(context.Background(), cfg, "text", parseOptions{}, &stdout, &stderr); err == nil {
		t.Fatal("expected error for missing pipelines file")
	}
}

func TestReadInput(t *testing.T) {
	got, err := readInput(strings.NewReader("from stdin"), nil)
	if err != nil || got != "from stdin" {
		t.Fatalf("stdin: %q %v", got, err)
	}
	got, err = readInput(strings.NewReader("dash"), []string{"-"})
	if err != nil || got != "dash" {
		t.Fatalf("dash: %q %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "in.txt")
	if err := os.WriteFile(path, []byte("from file"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = readInput(nil, []string{path})
	if err != nil || got != "from file" {
		t.Fatalf("file: %q %v", got, err)
	}
	if _, err := readInput(nil, []string{path + ".nope"}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPipelinesCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"pipelines", "--spec", writePipelines(t)})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("pipelines: %v", err)
	}
	for _, want := range []string{"parse_plaintext", "lemmatize", "tokenize", "--token-range", "identity"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("missing %q in:\n%s", want, out.String())
		}
	}
}

func TestRenderPipelines(t *testing.T) {
	set, err := pipeline.ParseSpecs([]byte(testPipelines), "/srv")
	if err != nil {
		t.Fatal(err)
	}
	table := renderPipelines(set.All())
	if strings.Count(table, "parse_plaintext") != 1 {
		t.Errorf("pipeline name should appear once:\n%s", table)
	}
	if !strings.Contains(table, "--lemma") {
		t.Errorf("arguments missing:\n%s", table)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "annotpipe ") {
		t.Fatalf("unexpected output %q", out.String())
	}

	out.Reset()
	cmd = newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--json"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	var info map[string]any
	if err := json.Unmarshal(out.Bytes(), &info); err != nil || info["version"] == nil {
		t.Fatalf("invalid JSON %q: %v", out.String(), err)
	}
}

func TestMissingConfigFile(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"parse", "--config", filepath.Join(t.TempDir(), "nope.yml")})
	cmd.SetIn(strings.NewReader("text"))
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestHostLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotpipe.lock")
	first := newHostLock(path)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if h := first.Health(context.Background()); h.Status != "healthy" {
		t.Fatalf("expected healthy lock, got %s", h.Status)
	}

	second := newHostLock(path)
	if err := second.Start(context.Background()); err == nil {
		t.Fatal("second instance should not acquire the lock")
	}

	if err := first.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("lock should be free after release: %v", err)
	}
	_ = second.Stop(context.Background())
}
