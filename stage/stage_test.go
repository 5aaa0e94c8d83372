package stage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/annotpipe/queue"
)

func runStage(t *testing.T, s Stage, payloads ...string) []queue.Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	in := queue.New("in", len(payloads)+1)
	out := queue.New("out", len(payloads)+1)
	for i, p := range payloads {
		if err := in.Put(ctx, queue.Message{ID: fmt.Sprintf("job-%d", i), Payload: p}); err != nil {
			t.Fatal(err)
		}
	}
	if err := in.Put(ctx, queue.Final()); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(ctx, in, out); err != nil {
		t.Fatalf("stage returned error: %v", err)
	}

	var msgs []queue.Message
	for out.Len() > 0 {
		m, _ := out.TryGet()
		msgs = append(msgs, m)
	}
	return msgs
}

func TestLoop_PreservesOrderAndForwardsFinal(t *testing.T) {
	upper := Func(func(_ context.Context, p string) (string, error) {
		return strings.ToUpper(p), nil
	})
	msgs := runStage(t, upper, "a", "b", "c")
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	for i, want := range []string{"A", "B", "C"} {
		if msgs[i].ID != fmt.Sprintf("job-%d", i) || msgs[i].Payload != want {
			t.Errorf("message %d = %+v", i, msgs[i])
		}
	}
	if !msgs[3].IsFinal() {
		t.Error("expected final marker last")
	}
}

func TestLoop_TransformError(t *testing.T) {
	boom := errors.New("boom")
	in := queue.New("in", 2)
	out := queue.New("out", 2)
	_ = in.TryPut(queue.Message{ID: "x", Payload: "p"})

	err := Loop(context.Background(), in, out, func(context.Context, string) (string, error) {
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if out.Len() != 0 {
		t.Error("failed job must not produce output")
	}
}

func TestLoop_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Loop(ctx, queue.New("in", 1), queue.New("out", 1), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := Builtins()
	if got := strings.Join(r.Names(), ","); got != "exec,identity,tokenize" {
		t.Errorf("unexpected names %s", got)
	}

	if _, err := r.New("parser", nil); !errors.Is(err, ErrUnknownStage) {
		t.Errorf("expected ErrUnknownStage, got %v", err)
	}
	if err := r.Register("identity", NewIdentity); err == nil {
		t.Error("expected duplicate registration error")
	}
	if err := r.Register("", NewIdentity); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := r.New("identity", []string{"--bogus"}); err == nil {
		t.Error("expected flag error")
	}
	if _, err := r.New("identity", []string{"stray"}); err == nil {
		t.Error("expected error for positional argument")
	}
}

func TestIdentity(t *testing.T) {
	s, err := NewIdentity(nil)
	if err != nil {
		t.Fatal(err)
	}
	msgs := runStage(t, s, "unchanged")
	if msgs[0].Payload != "unchanged" {
		t.Errorf("got %q", msgs[0].Payload)
	}
}

func TestTokenizer(t *testing.T) {
	s, err := NewTokenizer([]string{"--lemma", "--token-range"})
	if err != nil {
		t.Fatal(err)
	}
	got := s.(*Tokenizer).Tokenize("Dog barks.")
	want := "# newdoc\n# newpar\n# sent_id = 1\n# text = Dog barks.\n" +
		"1\tDog\tdog\t_\t_\t_\t_\t_\t_\tTokenRange=0:3\n" +
		"2\tbarks\tbarks\t_\t_\t_\t_\t_\t_\tTokenRange=4:9|SpaceAfter=No\n" +
		"3\t.\t.\tPUNCT\t_\t_\t_\t_\t_\tTokenRange=9:10\n\n"
	if got != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestTokenizer_ParagraphsAndSentences(t *testing.T) {
	tok := &Tokenizer{}
	got := tok.Tokenize("One two. Three?!\n\n  \nFour 42")

	if n := strings.Count(got, "# newdoc"); n != 1 {
		t.Errorf("expected 1 newdoc, got %d", n)
	}
	if n := strings.Count(got, "# newpar"); n != 2 {
		t.Errorf("expected 2 newpar, got %d", n)
	}
	for _, want := range []string{
		"# sent_id = 1\n# text = One two.\n",
		"# sent_id = 2\n# text = Three?!\n",
		"# sent_id = 3\n# text = Four 42\n",
		"2\t42\t_\tNUM\t",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestTokenizer_Empty(t *testing.T) {
	if got := (&Tokenizer{}).Tokenize(" \n\n "); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}

func TestTokenizer_NFC(t *testing.T) {
	tok := &Tokenizer{nfc: true, tokenRange: true}
	got := tok.Tokenize("Cafe\u0301")
	if !strings.Contains(got, "1\tCaf\u00e9\t") {
		t.Errorf("expected composed form:\n%s", got)
	}
	if !strings.Contains(got, "TokenRange=0:5") {
		t.Errorf("expected byte range of composed form:\n%s", got)
	}
}

func TestExec(t *testing.T) {
	s, err := NewExec([]string{"--cmd", "tr", "--arg", "a-z", "--arg", "A-Z"})
	if err != nil {
		t.Fatal(err)
	}
	msgs := runStage(t, s, "dog", "cat")
	if msgs[0].Payload != "DOG" || msgs[1].Payload != "CAT" {
		t.Errorf("unexpected payloads %+v", msgs)
	}
}

func TestExec_RequiresCmd(t *testing.T) {
	if _, err := NewExec(nil); err == nil {
		t.Fatal("expected error without --cmd")
	}
}

func TestExec_ToolFailure(t *testing.T) {
	s, err := NewExec([]string{"--cmd", "sh", "--arg=-c", "--arg", "echo broken >&2; exit 3"})
	if err != nil {
		t.Fatal(err)
	}
	in := queue.New("in", 2)
	out := queue.New("out", 2)
	_ = in.TryPut(queue.Message{ID: "j", Payload: "x"})
	err = s.Run(context.Background(), in, out)
	if err == nil {
		t.Fatal("expected stage failure")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("expected stderr in error, got %v", err)
	}
}
