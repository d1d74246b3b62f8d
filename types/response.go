package types

type UploadResponse struct {
	Message    string `json:"message"`
	Namespace  string `json:"namespace"`
	ChunkCount int    `json:"chunk_count"`
	PageCount  int    `json:"page_count"`
}

// SourceChunk is one retrieved chunk returned alongside an answer.
type SourceChunk struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Score    float32           `json:"score"`
}

type QueryResponse struct {
	Answer  string        `json:"answer"`
	Sources []SourceChunk `json:"sources"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
