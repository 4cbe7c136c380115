package feed

import (
	"testing"
	"time"

	"github.com/lysyi3m/feed-ingest/app/cfg"
	"github.com/lysyi3m/feed-ingest/app/metrics"
)

type recordingReporter struct {
	reports []map[string]interface{}
}

func (r *recordingReporter) Report(err error, context map[string]interface{}) {
	r.reports = append(r.reports, context)
}

func newTestParser() (*Parser, *recordingReporter) {
	cfg.Set(&cfg.Cfg{ParseWorkers: 4})
	reporter := &recordingReporter{}
	return NewParser(reporter, metrics.Noop{}), reporter
}

func TestParseRSS2(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <item>
      <title>Test Item 1</title>
      <link>https://example.com/item1</link>
      <description>Test Item 1 Description</description>
      <guid>item-1</guid>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
      <category>Technology</category>
      <category>Programming</category>
    </item>
    <item>
      <title>Test Item 2</title>
      <link>https://example.com/item2</link>
      <description>Test Item 2 Description</description>
      <guid>item-2</guid>
      <pubDate>Mon, 03 Jul 2023 11:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

	parser, _ := newTestParser()
	parsed, err := parser.parse([]byte(rssData))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if parsed.Metadata.Title != "Test Feed" {
		t.Errorf("Expected title 'Test Feed', got: %s", parsed.Metadata.Title)
	}
	if parsed.Metadata.Link != "https://example.com" {
		t.Errorf("Expected link 'https://example.com', got: %s", parsed.Metadata.Link)
	}

	if len(parsed.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got: %d", len(parsed.Entries))
	}

	first := parsed.Entries[0]
	if first.Title != "Test Item 1" {
		t.Errorf("Expected title 'Test Item 1', got: %s", first.Title)
	}
	if first.Link != "https://example.com/item1" {
		t.Errorf("Expected link 'https://example.com/item1', got: %s", first.Link)
	}
	if len(first.Categories) != 2 {
		t.Errorf("Expected 2 categories, got: %d", len(first.Categories))
	}

	expected := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)
	if !first.PublishedAt.Equal(expected) {
		t.Errorf("Expected published at %v, got: %v", expected, first.PublishedAt)
	}
}

func TestParseAtomRecoversSummary(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <link href="https://example.org/"/>
  <updated>2023-07-03T12:00:00Z</updated>
  <id>urn:uuid:test-feed</id>
  <entry>
    <title>Atom Entry</title>
    <link href="https://example.org/entry1"/>
    <id>urn:uuid:entry-1</id>
    <updated>2023-07-03T10:00:00Z</updated>
    <summary>Entry summary text</summary>
  </entry>
</feed>`

	parser, _ := newTestParser()
	parsed, err := parser.parse([]byte(atomData))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(parsed.Entries) != 1 {
		t.Fatalf("Expected 1 entry, got: %d", len(parsed.Entries))
	}

	if parsed.Entries[0].Summary != "Entry summary text" {
		t.Errorf("Expected summary 'Entry summary text', got: %s", parsed.Entries[0].Summary)
	}
}

func TestParseUnsupportedFormat(t *testing.T) {
	parser, _ := newTestParser()
	_, err := parser.parse([]byte("this is not a feed at all"))

	if err == nil {
		t.Fatal("Expected an error for an unparseable payload")
	}
}

func TestRunExcludesUnparseable(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Good Feed</title>
    <item>
      <title>Item</title>
      <link>https://example.com/item</link>
    </item>
  </channel>
</rss>`

	parser, reporter := newTestParser()
	results := parser.Run(t.Context(), map[int64][]byte{
		1: []byte(rssData),
		2: []byte("garbage"),
	})

	if len(results) != 1 {
		t.Fatalf("Expected 1 parsed feed, got: %d", len(results))
	}
	if _, ok := results[1]; !ok {
		t.Error("Expected user 1 to be present in results")
	}
	if len(reporter.reports) != 1 {
		t.Errorf("Expected 1 error report, got: %d", len(reporter.reports))
	}
}

func TestOldestFirstIteration(t *testing.T) {
	parsed := &Parsed{
		Entries: []Entry{
			{Title: "newest"},
			{Title: "middle"},
			{Title: "oldest"},
		},
	}

	var order []string
	for entry := range parsed.OldestFirst() {
		order = append(order, entry.Title)
	}

	expected := []string{"oldest", "middle", "newest"}
	for i, title := range expected {
		if order[i] != title {
			t.Errorf("Expected position %d to be %s, got: %s", i, title, order[i])
		}
	}
}

func TestEntryBodyPriority(t *testing.T) {
	tests := []struct {
		name     string
		entry    Entry
		expected string
	}{
		{"content wins", Entry{Content: "content", Summary: "summary", Description: "description"}, "content"},
		{"summary next", Entry{Summary: "summary", Description: "description"}, "summary"},
		{"description last", Entry{Description: "description"}, "description"},
		{"blank content skipped", Entry{Content: "   ", Summary: "summary"}, "summary"},
		{"all empty", Entry{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.Body(); got != tt.expected {
				t.Errorf("Expected body %q, got: %q", tt.expected, got)
			}
		})
	}
}
