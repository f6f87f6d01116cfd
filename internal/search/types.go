package search

// Citation identifies one external source backing an answer.
type Citation struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Response is the result of one orchestration run.
type Response struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// HistoryRecord captures one completed search for durable storage.
type HistoryRecord struct {
	Query        string
	Answer       string
	CitationURLs []string
}
