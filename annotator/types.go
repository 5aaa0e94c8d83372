package annotator

import "github.com/kbukum/annotpipe/conllu"

// Request is one annotation call.
type Request struct {
	Content string `json:"content"`
	// IncludeConllu adds the raw stage output under tnpp/conllu.
	IncludeConllu bool `json:"include_conllu"`
}

// Result carries annotations, or job information for large inputs.
type Result struct {
	Annotations *conllu.Annotations `json:"annotations,omitempty"`
	Features    *Features           `json:"features,omitempty"`
}

// Features describe a large job: its id after submission, its progress while
// running, and per-chunk entry counts once merged.
type Features struct {
	JobID          string         `json:"job_id,omitempty"`
	Progress       *int           `json:"progress,omitempty"`
	ProgressReport string         `json:"progress_report,omitempty"`
	Counts         *conllu.Counts `json:"chunk_counts,omitempty"`
}
