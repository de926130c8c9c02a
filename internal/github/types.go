package github

// RepoInfo is the subset of repository metadata the session bootstrap needs.
type RepoInfo struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	DefaultBranch string `json:"default_branch"`
	Description   string `json:"description"`
	Private       bool   `json:"private"`
}

// BranchInfo carries the commit tree SHA used for the recursive listing.
type BranchInfo struct {
	Name   string `json:"name"`
	Commit struct {
		SHA    string `json:"sha"`
		Commit struct {
			Tree struct {
				SHA string `json:"sha"`
			} `json:"tree"`
		} `json:"commit"`
	} `json:"commit"`
}

// TreeListing is the flat recursive listing of one tree object.
type TreeListing struct {
	SHA       string      `json:"sha"`
	Truncated bool        `json:"truncated"`
	Entries   []TreeEntry `json:"tree"`
}

// TreeEntry is one row of the flat listing.
type TreeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int64  `json:"size"`
}

// FileContent is a fetched file. Raw fetches fill Data and ContentType; edit
// fetches additionally carry the blob SHA the Contents API requires as the
// write precondition.
type FileContent struct {
	Path        string
	Data        []byte
	ContentType string
	SHA         string
}

// contentMetadata mirrors the JSON Contents API response for a single file.
type contentMetadata struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// UpdateRequest is the body of a Contents API PUT.
type UpdateRequest struct {
	Message string `json:"message"`
	Content string `json:"content"` // base64 of the new bytes
	SHA     string `json:"sha"`
	Branch  string `json:"branch"`
}

// UpdateResult is the write response subset callers care about.
type UpdateResult struct {
	Content struct {
		Path string `json:"path"`
		SHA  string `json:"sha"`
	} `json:"content"`
	Commit struct {
		SHA     string `json:"sha"`
		Message string `json:"message"`
	} `json:"commit"`
}
