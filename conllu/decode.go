package conllu

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformed is wrapped by every decoding failure.
var ErrMalformed = errors.New("conllu: malformed input")

const columns = 10

var (
	rangeID    = regexp.MustCompile(`^(\d+)-(\d+)$`)
	tokenRange = regexp.MustCompile(`TokenRange=(\d+):(\d+)`)
)

type decoder struct {
	ann *Annotations

	// sentence text still to be searched and its absolute start offset
	text   string
	offset int

	docStart, parStart, sentStart int
	lastEnd                       int
	docs, pars, sents             int
	sentMarked                    bool
	mwtLeft                       int
}

// Decode converts CoNLL-U text into annotations. includeRaw adds a
// tnpp/conllu span holding text verbatim.
func Decode(text string, includeRaw bool) (*Annotations, error) {
	d := &decoder{ann: Empty(), docStart: -1, parStart: -1, sentStart: -1}
	for i, line := range strings.Split(text, "\n") {
		if err := d.line(strings.TrimRight(line, "\r")); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, i+1, err)
		}
	}
	if d.mwtLeft > 0 {
		return nil, fmt.Errorf("%w: input ends inside a multi-word token (%d words missing)", ErrMalformed, d.mwtLeft)
	}
	d.closeDoc()

	if includeRaw {
		d.ann.Conllu = []Span[RawFeatures]{{Start: 0, End: d.lastEnd, Features: RawFeatures{ConlluFormat: text}}}
	}
	return d.ann, nil
}

func (d *decoder) line(line string) error {
	if d.mwtLeft > 0 {
		return d.mwtWord(line)
	}
	switch {
	case strings.HasPrefix(line, "#"):
		d.comment(line)
		return nil
	case line == "":
		if d.sentStart >= 0 {
			d.closeSentence()
			d.offset++
		}
		return nil
	}

	cols := strings.Split(line, "\t")
	if len(cols) != columns {
		return fmt.Errorf("expected %d columns, got %d", columns, len(cols))
	}
	// enhanced graph empty node
	if strings.Contains(cols[0], ".") {
		return nil
	}

	words := 1
	if m := rangeID.FindStringSubmatch(cols[0]); m != nil {
		first, _ := strconv.Atoi(m[1])
		last, _ := strconv.Atoi(m[2])
		if last <= first {
			return fmt.Errorf("invalid multi-word range %q", cols[0])
		}
		words = last - first + 1
	} else if !isDigits(cols[0]) {
		return fmt.Errorf("invalid id %q", cols[0])
	}

	start, end := d.locate(cols)
	if d.docStart < 0 {
		d.docStart = start
	}
	if d.parStart < 0 {
		d.parStart = start
	}
	if d.sentStart < 0 {
		d.sentStart = start
	}
	d.lastEnd = end

	tok := Span[TokenFeatures]{Start: start, End: end, Features: TokenFeatures{Words: []Word{}}}
	if words == 1 {
		w, err := parseWord(cols)
		if err != nil {
			return err
		}
		tok.Features.Words = append(tok.Features.Words, w)
	} else {
		d.mwtLeft = words
	}
	d.ann.Tokens = append(d.ann.Tokens, tok)
	return nil
}

func (d *decoder) mwtWord(line string) error {
	cols := strings.Split(line, "\t")
	if len(cols) != columns || !isDigits(cols[0]) {
		return fmt.Errorf("expected a word row inside multi-word token, got %q", line)
	}
	w, err := parseWord(cols)
	if err != nil {
		return err
	}
	last := &d.ann.Tokens[len(d.ann.Tokens)-1]
	last.Features.Words = append(last.Features.Words, w)
	d.mwtLeft--
	return nil
}

// comment handles the newdoc, newpar, sent_id and text markers; other
// comments are ignored.
func (d *decoder) comment(line string) {
	body := strings.TrimSpace(strings.TrimPrefix(line, "#"))
	key, value, _ := strings.Cut(body, "=")
	fields := strings.Fields(key)
	if len(fields) == 0 {
		return
	}
	switch fields[0] {
	case "newdoc":
		d.closeDoc()
	case "newpar":
		d.closePar()
	case "sent_id":
		d.sents++
		d.sentMarked = true
	case "text":
		if len(fields) == 1 {
			d.text = strings.TrimSpace(value)
		}
	}
}

// locate returns the token's offsets, from TokenRange when present, else by
// finding the form in the remaining sentence text.
func (d *decoder) locate(cols []string) (int, int) {
	if m := tokenRange.FindStringSubmatch(cols[9]); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		return start, end
	}

	form := cols[1]
	idx := strings.Index(d.text, form)
	consumed := idx + len(form)
	if idx < 0 {
		idx = 0
		consumed = min(len(form), len(d.text))
	}
	start := d.offset + idx
	end := start + len(form)
	d.text = d.text[consumed:]
	d.offset = end
	return start, end
}

func (d *decoder) closeSentence() {
	if d.sentStart < 0 {
		return
	}
	if !d.sentMarked {
		d.sents++
	}
	d.ann.Sentences = append(d.ann.Sentences, Span[SentFeatures]{
		Start: d.sentStart, End: d.lastEnd, Features: SentFeatures{SentID: d.sents},
	})
	d.sentStart = -1
	d.sentMarked = false
}

func (d *decoder) closePar() {
	d.closeSentence()
	if d.parStart < 0 {
		return
	}
	d.pars++
	d.ann.Paragraphs = append(d.ann.Paragraphs, Span[ParFeatures]{
		Start: d.parStart, End: d.lastEnd, Features: ParFeatures{ParID: d.pars},
	})
	d.parStart = -1
}

func (d *decoder) closeDoc() {
	d.closePar()
	if d.docStart < 0 {
		return
	}
	d.docs++
	d.ann.Docs = append(d.ann.Docs, Span[DocFeatures]{
		Start: d.docStart, End: d.lastEnd, Features: DocFeatures{DocID: d.docs},
	})
	d.docStart = -1
}

func parseWord(cols []string) (Word, error) {
	w := Word{ID: cols[0], Form: cols[1]}
	if cols[2] != "_" || cols[1] == "_" {
		w.Lemma = cols[2]
	}
	w.UPOS = column(cols[3])
	w.XPOS = column(cols[4])
	w.Feats = column(cols[5])
	if cols[6] != "_" {
		head, err := strconv.Atoi(cols[6])
		if err != nil {
			return Word{}, fmt.Errorf("invalid head %q", cols[6])
		}
		w.Head = &head
	}
	w.Deprel = column(cols[7])
	w.Deps = column(cols[8])
	w.Misc = column(cols[9])
	return w, nil
}

func column(v string) string {
	if v == "_" {
		return ""
	}
	return v
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
