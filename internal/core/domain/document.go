package domain

import "time"

// Document represents an uploaded document after extraction and indexing.
// It is the unit of ownership for chunks and index entries.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SessionID scopes the document to the session that uploaded it.
	SessionID string

	// Filename is the original upload filename.
	Filename string

	// ChunkCount is the number of chunks produced at indexing time.
	// It must always equal the number of index entries owned by this document.
	ChunkCount int

	// ByteSize is the size of the original upload in bytes.
	ByteSize int64

	// Active controls whether the document participates in retrieval.
	// Inactive documents keep their index entries but are filtered at query time.
	Active bool

	// CreatedAt is when the document was uploaded and indexed.
	CreatedAt time.Time

	// UpdatedAt is when the document was last modified (active toggle).
	UpdatedAt time.Time
}

// Chunk represents a bounded slice of a document's extracted text.
// It is the unit of embedding and retrieval. Chunks are immutable once
// created and are destroyed only alongside their owning document.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Position is the ordinal position within the document.
	Position int

	// Content is the chunk text, bounded by the chunker's word limit.
	Content string

	// Embedding is the vector representation for similarity search.
	// Every chunk in a session shares the same dimensionality.
	Embedding []float32
}
