package feed

import (
	"bytes"
	"fmt"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
	"github.com/mmcdole/gofeed/json"
	"github.com/mmcdole/gofeed/rss"
)

// FormatParser is one entry of the format registry: a concrete
// RSS/Atom/JSON strategy selected by the detect step.
type FormatParser interface {
	Name() string
	Matches(feedType gofeed.FeedType) bool
	Parse(data []byte) (*Parsed, error)
}

var _ FormatParser = (*rssFormat)(nil)
var _ FormatParser = (*atomFormat)(nil)
var _ FormatParser = (*jsonFormat)(nil)

type rssFormat struct {
	parser     *rss.Parser
	translator *gofeed.DefaultRSSTranslator
}

func newRSSFormat() *rssFormat {
	return &rssFormat{
		parser:     &rss.Parser{},
		translator: &gofeed.DefaultRSSTranslator{},
	}
}

func (f *rssFormat) Name() string { return "rss" }

func (f *rssFormat) Matches(feedType gofeed.FeedType) bool {
	return feedType == gofeed.FeedTypeRSS
}

func (f *rssFormat) Parse(data []byte) (*Parsed, error) {
	rawFeed, err := f.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rss feed: %w", err)
	}

	translated, err := f.translator.Translate(rawFeed)
	if err != nil {
		return nil, fmt.Errorf("failed to translate rss feed: %w", err)
	}

	return normalizeFeed(translated), nil
}

type atomFormat struct {
	parser     *atom.Parser
	translator *gofeed.DefaultAtomTranslator
}

func newAtomFormat() *atomFormat {
	return &atomFormat{
		parser:     &atom.Parser{},
		translator: &gofeed.DefaultAtomTranslator{},
	}
}

func (f *atomFormat) Name() string { return "atom" }

func (f *atomFormat) Matches(feedType gofeed.FeedType) bool {
	return feedType == gofeed.FeedTypeAtom
}

func (f *atomFormat) Parse(data []byte) (*Parsed, error) {
	rawFeed, err := f.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse atom feed: %w", err)
	}

	translated, err := f.translator.Translate(rawFeed)
	if err != nil {
		return nil, fmt.Errorf("failed to translate atom feed: %w", err)
	}

	parsed := normalizeFeed(translated)

	// The translator folds <summary> into Description; recover it from
	// the raw entries so the content > summary > description priority
	// stays observable. Entries translate 1:1 in order.
	if len(rawFeed.Entries) == len(parsed.Entries) {
		for i, entry := range rawFeed.Entries {
			if entry != nil {
				parsed.Entries[i].Summary = entry.Summary
			}
		}
	}

	return parsed, nil
}

type jsonFormat struct {
	parser     *json.Parser
	translator *gofeed.DefaultJSONTranslator
}

func newJSONFormat() *jsonFormat {
	return &jsonFormat{
		parser:     &json.Parser{},
		translator: &gofeed.DefaultJSONTranslator{},
	}
}

func (f *jsonFormat) Name() string { return "json" }

func (f *jsonFormat) Matches(feedType gofeed.FeedType) bool {
	return feedType == gofeed.FeedTypeJSON
}

func (f *jsonFormat) Parse(data []byte) (*Parsed, error) {
	rawFeed, err := f.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse json feed: %w", err)
	}

	translated, err := f.translator.Translate(rawFeed)
	if err != nil {
		return nil, fmt.Errorf("failed to translate json feed: %w", err)
	}

	return normalizeFeed(translated), nil
}

func normalizeFeed(raw *gofeed.Feed) *Parsed {
	parsed := &Parsed{
		Metadata: Metadata{
			Title: raw.Title,
			Link:  raw.Link,
		},
		Entries: make([]Entry, 0, len(raw.Items)),
	}

	for _, item := range raw.Items {
		if item == nil {
			continue
		}

		entry := Entry{
			Title:       item.Title,
			Link:        item.Link,
			Content:     item.Content,
			Description: item.Description,
		}

		if item.PublishedParsed != nil {
			entry.PublishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			entry.PublishedAt = *item.UpdatedParsed
		}

		if item.Categories != nil {
			entry.Categories = item.Categories
		}

		parsed.Entries = append(parsed.Entries, entry)
	}

	return parsed
}
