package types

// Chunk is a bounded, overlapping segment of extracted document text.
type Chunk struct {
	Text  string // The actual text content
	Index int    // Position in the chunk sequence
	Start int    // Byte offset of the chunk in the source text
	Page  int    // Page number containing the chunk start (1-based)
}

// ChunkerConfig contains configuration options for text splitting
type ChunkerConfig struct {
	ChunkSize    int // Maximum size for text chunks
	ChunkOverlap int // Size of overlap between consecutive chunks
}

// IngestResult is what a successful ingestion reports back to the caller.
type IngestResult struct {
	Namespace  string `json:"namespace"`
	ChunkCount int    `json:"chunk_count"`
	PageCount  int    `json:"page_count"`
}

type UploadMetadata struct {
	Title  string `json:"title"`
	Source string `json:"source"`
}

// DocumentRecord is the ingestion ledger entry for one uploaded
// document, keyed by the namespace minted for it.
type DocumentRecord struct {
	Namespace  string `bson:"_id" json:"namespace"`
	Title      string `bson:"title" json:"title"`
	Source     string `bson:"source" json:"source"`
	PageCount  int    `bson:"page_count" json:"page_count"`
	ChunkCount int    `bson:"chunk_count" json:"chunk_count"`
	CreatedAt  int64  `bson:"created_at" json:"created_at"`
}
