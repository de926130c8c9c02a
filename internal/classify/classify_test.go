package classify

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
		wantKind    Kind
		wantMIME    string
	}{
		{
			name:     "png by extension",
			filename: "logo.png",
			data:     []byte{0x89, 0x50, 0x4e, 0x47},
			wantKind: KindImage,
			wantMIME: "image/png",
		},
		{
			name:     "jpeg extension uppercase",
			filename: "photo.JPEG",
			wantKind: KindImage,
			wantMIME: "image/jpeg",
		},
		{
			name:     "svg classified as image, not text",
			filename: "icon.svg",
			data:     []byte("<svg></svg>"),
			wantKind: KindImage,
			wantMIME: "image/svg+xml",
		},
		{
			name:        "declared text content type wins over unknown extension",
			filename:    "LICENSE",
			contentType: "text/plain; charset=utf-8",
			data:        []byte("MIT License"),
			wantKind:    KindText,
		},
		{
			name:     "markdown extension",
			filename: "README.md",
			data:     []byte("# hello"),
			wantKind: KindText,
		},
		{
			name:        "json content type",
			filename:    "data",
			contentType: "application/json",
			wantKind:    KindText,
		},
		{
			name:        "vendored json suffix",
			filename:    "data",
			contentType: "application/vnd.github+json",
			wantKind:    KindText,
		},
		{
			name:     "unknown extension but valid utf-8 decodes as text",
			filename: "Makefile.custom",
			data:     []byte("all:\n\techo hi\n"),
			wantKind: KindText,
		},
		{
			name:     "undecodable bytes fall back to binary",
			filename: "blob.bin",
			data:     []byte{0xff, 0xfe, 0x00, 0x81, 0xc0},
			wantKind: KindBinary,
		},
		{
			name:        "octet-stream with invalid utf-8 is binary",
			filename:    "artifact",
			contentType: "application/octet-stream",
			data:        []byte{0x00, 0xff, 0x91},
			wantKind:    KindBinary,
		},
		{
			name:     "empty data with no hints is text",
			filename: "empty",
			data:     nil,
			wantKind: KindText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.filename, tt.contentType, tt.data)
			if got.Kind != tt.wantKind {
				t.Errorf("Detect(%q) kind = %v, want %v", tt.filename, got.Kind, tt.wantKind)
			}
			if got.MIME != tt.wantMIME {
				t.Errorf("Detect(%q) mime = %q, want %q", tt.filename, got.MIME, tt.wantMIME)
			}
		})
	}
}

func TestDetectIdempotent(t *testing.T) {
	data := []byte("# Title\n\nSome content.\n")

	first := Detect("doc.md", "text/plain", data)
	second := Detect("doc.md", "text/plain", data)

	if first != second {
		t.Errorf("Expected identical results for identical input, got %v then %v", first, second)
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindText, "text"},
		{KindImage, "image"},
		{KindBinary, "binary"},
		{Kind(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
