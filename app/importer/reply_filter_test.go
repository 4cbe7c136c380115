package importer

import (
	"testing"

	"github.com/lysyi3m/feed-ingest/app/feed"
)

func TestReplyFilter(t *testing.T) {
	filter := NewReplyFilter(DefaultRules())

	tests := []struct {
		name     string
		entry    feed.Entry
		expected bool
	}{
		{
			name: "reply from known host with no categories",
			entry: feed.Entry{
				Title:   "I completely agree with this",
				Link:    "https://medium.com/@user/i-completely-agree-with-this-abc123",
				Content: "<p>I completely agree with this and would add one thing.</p>",
			},
			expected: true,
		},
		{
			name: "same entry with a category is kept",
			entry: feed.Entry{
				Title:      "I completely agree with this",
				Link:       "https://medium.com/@user/i-completely-agree-with-this-abc123",
				Content:    "<p>I completely agree with this and would add one thing.</p>",
				Categories: []string{"programming"},
			},
			expected: false,
		},
		{
			name: "body not repeating the title is kept",
			entry: feed.Entry{
				Title:   "A real original post",
				Link:    "https://medium.com/@user/a-real-original-post-abc123",
				Content: "<p>Something else entirely.</p>",
			},
			expected: false,
		},
		{
			name: "other host is kept",
			entry: feed.Entry{
				Title:   "I completely agree with this",
				Link:    "https://blog.example.com/post",
				Content: "I completely agree with this and more.",
			},
			expected: false,
		},
		{
			name: "www prefix is stripped before the host check",
			entry: feed.Entry{
				Title:   "Short reply",
				Link:    "https://www.medium.com/@user/short-reply",
				Content: "Short reply indeed.",
			},
			expected: true,
		},
		{
			name: "em-dash in title is stripped before matching",
			entry: feed.Entry{
				Title:   "Good — point",
				Link:    "https://medium.com/@user/good-point",
				Content: "Good point, well made.",
			},
			expected: true,
		},
		{
			name: "whitespace is collapsed before matching",
			entry: feed.Entry{
				Title:   "Agreed   entirely",
				Link:    "https://medium.com/@user/agreed",
				Content: "Agreed\n\tentirely, nothing to add.",
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filter.Run(tt.entry); got != tt.expected {
				t.Errorf("Expected %v, got: %v", tt.expected, got)
			}
		})
	}
}
