package common

// Document represents a single unit of source text produced by a loader.
// A loader may yield several Documents for one file (one per page or
// section); Section records that position. Documents are immutable for
// the duration of a pipeline run.
type Document struct {
	Text    string `json:"text"`
	Source  string `json:"source"`
	Section int    `json:"section"`
}

// Chunk is a token-bounded slice of a Document's text, possibly
// overlapping its predecessor. Chunks are the smallest unit handed to the
// reasoning service and serve as provenance anchors for everything
// extracted from them.
//
// SequenceIndex is monotonically increasing within a document, starting
// at 0. OverlapWithPrev is the number of tokens shared with the previous
// chunk (0 for the first chunk of a document).
type Chunk struct {
	ID              string `json:"id"`
	Text            string `json:"text"`
	TokenCount      int    `json:"token_count"`
	Source          string `json:"source"`
	SequenceIndex   int    `json:"sequence_index"`
	OverlapWithPrev int    `json:"overlap_with_prev"`
}

// Entity is a candidate graph node extracted from a single chunk.
// Key is the natural key (name or title) used for merging; Kind is the
// entity label. Two chunks independently producing the same (Kind, Key)
// pair yield two Entity values that the writer merges into one node.
type Entity struct {
	Key        string            `json:"key"`
	Kind       string            `json:"kind"`
	Properties map[string]string `json:"properties,omitempty"`
	ChunkID    string            `json:"chunk_id"`
}

// Relationship is a candidate directed edge between two entities
// extracted from the same chunk.
type Relationship struct {
	Type    string  `json:"type"`
	Source  *Entity `json:"source"`
	Target  *Entity `json:"target"`
	ChunkID string  `json:"chunk_id"`
}

// WriteSummary reports what a store write actually did. Summaries are
// additive so per-batch results roll up into a run total.
type WriteSummary struct {
	NodesCreated int `json:"nodes_created"`
	NodesMerged  int `json:"nodes_merged"`
	EdgesCreated int `json:"edges_created"`
	EdgesMerged  int `json:"edges_merged"`
}

// Add accumulates another summary into s.
func (s *WriteSummary) Add(other WriteSummary) {
	s.NodesCreated += other.NodesCreated
	s.NodesMerged += other.NodesMerged
	s.EdgesCreated += other.EdgesCreated
	s.EdgesMerged += other.EdgesMerged
}

// SkippedChunk records a chunk that was dropped after extraction failed
// validation or transport retries. The pipeline continues; the skip is
// surfaced in the run summary.
type SkippedChunk struct {
	Source        string `json:"source"`
	SequenceIndex int    `json:"sequence_index"`
	Reason        string `json:"reason"`
}

// LoadFailure records a source file that could not be read. The file is
// skipped and the failure aggregated at the end of the run.
type LoadFailure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// RunSummary is the result of a full pipeline run. Recoverable per-unit
// failures (bad files, bad chunks) are collected here instead of aborting
// the run.
type RunSummary struct {
	FilesProcessed  int            `json:"files_processed"`
	FilesSkipped    int            `json:"files_skipped"`
	ChunksProcessed int            `json:"chunks_processed"`
	SkippedChunks   []SkippedChunk `json:"skipped_chunks,omitempty"`
	LoadFailures    []LoadFailure  `json:"load_failures,omitempty"`
	Writes          WriteSummary   `json:"writes"`
}
