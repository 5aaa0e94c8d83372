package conllu

// Keys of the annotation document.
const (
	KeyDocs       = "tnpp/docs"
	KeyParagraphs = "tnpp/paragraphs"
	KeySentences  = "tnpp/sentences"
	KeyTokens     = "tnpp/tokens"
	KeyConllu     = "tnpp/conllu"
)

// Span is a [Start, End) byte range with typed features.
type Span[F any] struct {
	Start    int `json:"start"`
	End      int `json:"end"`
	Features F   `json:"features"`
}

type DocFeatures struct {
	DocID int `json:"doc_id"`
}

type ParFeatures struct {
	ParID int `json:"par_id"`
}

type SentFeatures struct {
	SentID int `json:"sent_id"`
}

type TokenFeatures struct {
	Words []Word `json:"words"`
}

// RawFeatures carries the decoded text verbatim.
type RawFeatures struct {
	ConlluFormat string `json:"conllu_format"`
}

// Word is one elementary word record. Underscore columns are omitted.
type Word struct {
	ID     string `json:"id"`
	Form   string `json:"form"`
	Lemma  string `json:"lemma,omitempty"`
	UPOS   string `json:"upos,omitempty"`
	XPOS   string `json:"xpos,omitempty"`
	Feats  string `json:"feats,omitempty"`
	Head   *int   `json:"head,omitempty"`
	Deprel string `json:"deprel,omitempty"`
	Deps   string `json:"deps,omitempty"`
	Misc   string `json:"misc,omitempty"`
}

// Annotations is the decoded document.
type Annotations struct {
	Docs       []Span[DocFeatures]   `json:"tnpp/docs"`
	Paragraphs []Span[ParFeatures]   `json:"tnpp/paragraphs"`
	Sentences  []Span[SentFeatures]  `json:"tnpp/sentences"`
	Tokens     []Span[TokenFeatures] `json:"tnpp/tokens"`
	Conllu     []Span[RawFeatures]   `json:"tnpp/conllu,omitempty"`
}

// Empty returns a document with no spans whose collections encode as [].
func Empty() *Annotations {
	return &Annotations{
		Docs:       []Span[DocFeatures]{},
		Paragraphs: []Span[ParFeatures]{},
		Sentences:  []Span[SentFeatures]{},
		Tokens:     []Span[TokenFeatures]{},
	}
}
