package types

// ResolvedAudio is the conversion service's answer for one source URL.
type ResolvedAudio struct {
	DirectURL string `json:"directUrl"`
	Title     string `json:"title"`
}

// Summary is the pipeline output returned to the caller.
type Summary struct {
	JobID   string `json:"jobId,omitempty"`
	Summary string `json:"summary"`
	Title   string `json:"title"`
}

type SummarizeRequest struct {
	URL   string `json:"url"`
	JobID string `json:"jobId,omitempty"`
}

type ProgressResponse struct {
	Progress int `json:"progress"`
}

type ChatRequest struct {
	Message string `json:"message"`
	Summary string `json:"summary"`
}

type TranslateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
}

type TranslateResponse struct {
	Translation string `json:"translation"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
