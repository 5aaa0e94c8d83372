// Package conllu decodes the line-oriented CoNLL-U output of a pipeline
// into offset-indexed span annotations: documents, paragraphs, sentences and
// tokens, each token carrying its word records.
//
// Offsets are byte offsets. When a row carries TokenRange=start:end in its
// MISC column those offsets are used as is; otherwise each form is located
// greedily in the sentence text captured from the "# text =" comment.
//
// Decoding is all or nothing: any malformed row fails the whole input with an
// error wrapping ErrMalformed.
package conllu
