package stage

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/kbukum/annotpipe/queue"
)

const sentenceTerminators = ".!?"

// Tokenizer turns plain text into CoNLL-U: one document, a paragraph per
// blank-line separated block, sentences split after terminal punctuation.
// Offsets are byte offsets into the (optionally NFC-normalised) payload.
type Tokenizer struct {
	lemma      bool
	tokenRange bool
	nfc        bool
}

// NewTokenizer builds a tokenize stage. Flags: --lemma, --token-range, --nfc.
func NewTokenizer(args []string) (Stage, error) {
	t := &Tokenizer{}
	fs := newFlagSet("tokenize")
	fs.BoolVar(&t.lemma, "lemma", false, "fill LEMMA with the lowercased form")
	fs.BoolVar(&t.tokenRange, "token-range", false, "record TokenRange=start:end in MISC")
	fs.BoolVar(&t.nfc, "nfc", false, "normalise the payload to NFC before tokenizing")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	return t, nil
}

// Run implements Stage.
func (t *Tokenizer) Run(ctx context.Context, in, out *queue.Bus) error {
	return Loop(ctx, in, out, func(_ context.Context, payload string) (string, error) {
		return t.Tokenize(payload), nil
	})
}

type span struct {
	start, end int
}

type token struct {
	span
	form  string
	punct bool
}

// Tokenize renders text as CoNLL-U. Empty or blank input yields "".
func (t *Tokenizer) Tokenize(text string) string {
	if t.nfc {
		text = norm.NFC.String(text)
	}

	var b strings.Builder
	sentID := 0
	for _, par := range splitParagraphs(text) {
		toks := scanTokens(text, par)
		if len(toks) == 0 {
			continue
		}
		if sentID == 0 {
			b.WriteString("# newdoc\n")
		}
		b.WriteString("# newpar\n")
		for _, sent := range splitSentences(toks) {
			sentID++
			fmt.Fprintf(&b, "# sent_id = %d\n", sentID)
			fmt.Fprintf(&b, "# text = %s\n", strings.Join(strings.Fields(text[sent[0].start:sent[len(sent)-1].end]), " "))
			for i, tok := range sent {
				t.writeRow(&b, i, sent, tok)
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (t *Tokenizer) writeRow(b *strings.Builder, i int, sent []token, tok token) {
	lemma := "_"
	if t.lemma {
		lemma = strings.ToLower(tok.form)
	}
	upos := "_"
	switch {
	case tok.punct:
		upos = "PUNCT"
	case isNumber(tok.form):
		upos = "NUM"
	}

	var misc []string
	if t.tokenRange {
		misc = append(misc, fmt.Sprintf("TokenRange=%d:%d", tok.start, tok.end))
	}
	if i+1 < len(sent) && sent[i+1].start == tok.end {
		misc = append(misc, "SpaceAfter=No")
	}
	miscCol := "_"
	if len(misc) > 0 {
		miscCol = strings.Join(misc, "|")
	}

	fmt.Fprintf(b, "%d\t%s\t%s\t%s\t_\t_\t_\t_\t_\t%s\n", i+1, tok.form, lemma, upos, miscCol)
}

// splitParagraphs returns the byte spans of blocks separated by blank lines.
func splitParagraphs(text string) []span {
	var spans []span
	start := -1
	pos := 0
	for {
		nl := strings.IndexByte(text[pos:], '\n')
		lineEnd := len(text)
		if nl >= 0 {
			lineEnd = pos + nl
		}
		if strings.TrimSpace(text[pos:lineEnd]) == "" {
			if start >= 0 {
				spans = append(spans, span{start, pos})
				start = -1
			}
		} else if start < 0 {
			start = pos
		}
		if nl < 0 {
			break
		}
		pos = lineEnd + 1
	}
	if start >= 0 {
		spans = append(spans, span{start, len(text)})
	}
	return spans
}

// scanTokens splits a paragraph into word runs and runs of one repeated
// punctuation rune.
func scanTokens(text string, par span) []token {
	var toks []token
	for i := par.start; i < par.end; {
		r, size := utf8.DecodeRuneInString(text[i:par.end])
		if unicode.IsSpace(r) {
			i += size
			continue
		}
		j := i + size
		word := isWordRune(r)
		for j < par.end {
			next, n := utf8.DecodeRuneInString(text[j:par.end])
			if word && !isWordRune(next) || !word && next != r {
				break
			}
			j += n
		}
		toks = append(toks, token{span: span{i, j}, form: text[i:j], punct: !word})
		i = j
	}
	return toks
}

func splitSentences(toks []token) [][]token {
	var sents [][]token
	start := 0
	for i, tok := range toks {
		if !isTerminator(tok) {
			continue
		}
		if i+1 < len(toks) && isTerminator(toks[i+1]) {
			continue
		}
		sents = append(sents, toks[start:i+1])
		start = i + 1
	}
	if start < len(toks) {
		sents = append(sents, toks[start:])
	}
	return sents
}

func isTerminator(tok token) bool {
	return tok.punct && strings.ContainsAny(tok.form[:1], sentenceTerminators)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
