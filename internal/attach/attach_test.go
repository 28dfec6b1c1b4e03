package attach

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []Attachment
	}{
		{
			name: "no urls",
			body: "plain text without any links",
			want: nil,
		},
		{
			name: "image by extension",
			body: "hello https://x.com/img.png",
			want: []Attachment{{URL: "https://x.com/img.png", Type: TypeImage, Filename: "img.png"}},
		},
		{
			name: "plain link",
			body: "verify at https://example.com/confirm/abc123",
			want: []Attachment{{URL: "https://example.com/confirm/abc123", Type: TypeLink, Filename: "abc123"}},
		},
		{
			name: "bare host falls back to literal filename",
			body: "visit http://example.com",
			want: []Attachment{{URL: "http://example.com", Type: TypeLink, Filename: "attachment"}},
		},
		{
			name: "query string ignored for classification",
			body: "https://cdn.example.com/photo.JPG?size=large",
			want: []Attachment{{URL: "https://cdn.example.com/photo.JPG?size=large", Type: TypeImage, Filename: "photo.JPG"}},
		},
		{
			name: "trailing punctuation stripped",
			body: "see https://x.com/a.gif.",
			want: []Attachment{{URL: "https://x.com/a.gif", Type: TypeImage, Filename: "a.gif"}},
		},
		{
			name: "multiple in order",
			body: "https://a.com/1.png then https://b.com/doc",
			want: []Attachment{
				{URL: "https://a.com/1.png", Type: TypeImage, Filename: "1.png"},
				{URL: "https://b.com/doc", Type: TypeLink, Filename: "doc"},
			},
		},
		{
			name: "ftp not recognized",
			body: "ftp://files.example.com/a.png",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.body)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Detect() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDetectIsPure(t *testing.T) {
	body := "https://x.com/img.png and https://y.com/page"
	first := Detect(body)
	second := Detect(body)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated Detect() calls differ (-first +second):\n%s", diff)
	}
}
