package rpc

// CompileRequest is a message from the live editor: POST /_compile or one
// frame on the /_compile/ws socket.
type CompileRequest struct {
	Source    string `json:"source"`
	MessageID int    `json:"messageId"`
}

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// CompileResult answers exactly one CompileRequest, echoing its MessageID.
type CompileResult struct {
	Type      string       `json:"type"` // "success" or "error"
	Code      string       `json:"code,omitempty"`
	Error     string       `json:"error,omitempty"`
	MessageID int          `json:"messageId"`
	Meta      *CompileMeta `json:"meta,omitempty"`
}

// CompileMeta locates a compilation error in the user's source. Line is
// 1-based.
type CompileMeta struct {
	Type string `json:"type"` // always "compilationError"
	Line int    `json:"line"`
}

// SearchResponse is the response body for GET /_search.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

type SearchResult struct {
	Slug    string  `json:"slug"`
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Heading string  `json:"heading,omitempty"`
	Kind    string  `json:"kind"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

// ReloadMessage is pushed to /_livereload clients after every build.
type ReloadMessage struct {
	Type    string `json:"type"` // "reload" or "error"
	BuildID string `json:"buildId"`
	Error   string `json:"error,omitempty"`
}

// StatusResponse is the response body for GET /_status.
type StatusResponse struct {
	BuildID    string `json:"buildId"`
	Pages      int    `json:"pages"`
	Components int    `json:"components"`
	LastError  string `json:"lastError,omitempty"`
}
