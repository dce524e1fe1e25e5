package models

// Document is one raw text file from the Murli corpus.
type Document struct {
	Source  string
	Content string
}

// Segment is a bounded slice of a Document produced by the chunker.
// Segments from the same document are ordered by Index.
type Segment struct {
	Source string
	Index  int
	Text   string
}

// IndexEntry pairs a segment with its embedding vector.
type IndexEntry struct {
	Segment   Segment
	Embedding []float32
}

// SearchResult is a segment matched by a similarity search.
type SearchResult struct {
	Segment Segment
	Score   float64
}

// Exchange is one prior (question, answer) turn of a conversation.
type Exchange struct {
	Question string
	Answer   string
}

// Answer is the generated response together with the context it was
// grounded on.
type Answer struct {
	Text     string
	Sources  []string
	Segments []Segment
}
