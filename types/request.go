package types

type QueryRequest struct {
	Question  string `json:"question"`
	Namespace string `json:"namespace"`
	TopK      int    `json:"top_k,omitempty"`
}

type ListDocumentsRequest struct {
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
}
