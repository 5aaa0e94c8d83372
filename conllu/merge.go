package conllu

// Part is one chunk's annotations and the chunk's byte offset in the full
// input.
type Part struct {
	Offset      int
	Annotations *Annotations
}

// Counts records how many entries of each kind every chunk contributed.
type Counts struct {
	Docs       []int `json:"tnpp/docs"`
	Paragraphs []int `json:"tnpp/paragraphs"`
	Sentences  []int `json:"tnpp/sentences"`
	Tokens     []int `json:"tnpp/tokens"`
	Conllu     []int `json:"tnpp/conllu"`
}

// Merge concatenates chunk annotations in order. Spans are shifted by the
// chunk offset and ids continue the numbering of earlier chunks.
func Merge(parts []Part) (*Annotations, *Counts) {
	out := Empty()
	counts := &Counts{}
	for _, p := range parts {
		a := p.Annotations
		if a == nil {
			a = Empty()
		}
		docBase, parBase, sentBase := len(out.Docs), len(out.Paragraphs), len(out.Sentences)

		for _, s := range a.Docs {
			s.Features.DocID += docBase
			out.Docs = append(out.Docs, shift(s, p.Offset))
		}
		for _, s := range a.Paragraphs {
			s.Features.ParID += parBase
			out.Paragraphs = append(out.Paragraphs, shift(s, p.Offset))
		}
		for _, s := range a.Sentences {
			s.Features.SentID += sentBase
			out.Sentences = append(out.Sentences, shift(s, p.Offset))
		}
		for _, s := range a.Tokens {
			out.Tokens = append(out.Tokens, shift(s, p.Offset))
		}
		for _, s := range a.Conllu {
			out.Conllu = append(out.Conllu, shift(s, p.Offset))
		}

		counts.Docs = append(counts.Docs, len(a.Docs))
		counts.Paragraphs = append(counts.Paragraphs, len(a.Paragraphs))
		counts.Sentences = append(counts.Sentences, len(a.Sentences))
		counts.Tokens = append(counts.Tokens, len(a.Tokens))
		counts.Conllu = append(counts.Conllu, len(a.Conllu))
	}
	return out, counts
}

func shift[F any](s Span[F], by int) Span[F] {
	s.Start += by
	s.End += by
	return s
}
