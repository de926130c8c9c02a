// Package classify decides how a fetched blob should be presented: as an
// image, as text, or as an undecodable binary. The decision is a three-step
// fallback chain and never fails; bytes that cannot be confirmed as text are
// conservatively treated as binary.
package classify

import (
	"path"
	"strings"
	"unicode/utf8"
)

// Kind tags the presentation category of a blob.
type Kind int

const (
	KindText Kind = iota
	KindImage
	KindBinary
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Result carries the classification and, for images, the MIME type derived
// from the file extension.
type Result struct {
	Kind Kind
	MIME string
}

// imageMIME maps known image extensions to their MIME type.
var imageMIME = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".bmp":  "image/bmp",
	".ico":  "image/x-icon",
	".avif": "image/avif",
}

// textExtensions are treated as text regardless of what the response declares.
var textExtensions = map[string]bool{
	".md": true, ".markdown": true, ".txt": true, ".text": true,
	".go": true, ".py": true, ".rb": true, ".rs": true, ".c": true,
	".h": true, ".cpp": true, ".hpp": true, ".java": true, ".kt": true,
	".js": true, ".jsx": true, ".ts": true, ".tsx": true, ".css": true,
	".scss": true, ".html": true, ".htm": true, ".xml": true, ".svg": false,
	".json": true, ".yaml": true, ".yml": true, ".toml": true, ".ini": true,
	".cfg": true, ".conf": true, ".sh": true, ".bash": true, ".zsh": true,
	".fish": true, ".ps1": true, ".bat": true, ".sql": true, ".proto": true,
	".graphql": true, ".tf": true, ".mod": true, ".sum": true, ".lock": true,
	".gitignore": true, ".gitattributes": true, ".editorconfig": true,
	".env": true, ".csv": true, ".tsv": true, ".log": true, ".rst": true,
	".adoc": true, ".tex": true, ".vim": true, ".lua": true, ".pl": true,
	".php": true, ".swift": true, ".scala": true, ".clj": true, ".ex": true,
	".exs": true, ".erl": true, ".hs": true, ".ml": true, ".zig": true,
}

// Detect classifies a blob fetched from the repository.
//
// The chain: a known image extension wins immediately and carries its MIME
// type; otherwise a text-ish declared content type or a known text extension
// resolves to text; otherwise the raw bytes are put through a strict UTF-8
// decode, text on success and binary on failure. contentType may be empty
// when the response declared none.
func Detect(filename, contentType string, data []byte) Result {
	ext := strings.ToLower(path.Ext(filename))

	if mime, ok := imageMIME[ext]; ok {
		return Result{Kind: KindImage, MIME: mime}
	}

	if isTextContentType(contentType) || textExtensions[ext] {
		return Result{Kind: KindText}
	}

	if utf8.Valid(data) {
		return Result{Kind: KindText}
	}
	return Result{Kind: KindBinary}
}

// isTextContentType reports whether a declared content type promises text.
func isTextContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	ct := strings.ToLower(contentType)
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.TrimSpace(ct)

	if strings.HasPrefix(ct, "text/") {
		return true
	}
	switch ct {
	case "application/json", "application/xml", "application/yaml",
		"application/x-yaml", "application/javascript", "application/toml":
		return true
	}
	return strings.HasSuffix(ct, "+json") || strings.HasSuffix(ct, "+xml")
}
