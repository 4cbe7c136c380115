package importer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/lysyi3m/feed-ingest/app/database"
	"github.com/lysyi3m/feed-ingest/app/feed"
)

const (
	titleLimit = 128
	tagLimit   = 4
	tagMaxLen  = 20
)

var (
	shortTagRe = regexp.MustCompile(`\{%[^%]+%\}`)

	// The converter emits an empty fenced block for code elements with
	// no text content.
	emptyFenceArtifact = "```\n\n```"

	// Non-breaking space variants collapsed to a plain space after
	// conversion.
	nbspNormalizer = runes.Map(func(r rune) rune {
		switch r {
		case '\u00a0', '\u2007', '\u202f':
			return ' '
		}
		return r
	})
)

// Assembler combines title, front matter, tags and the rewritten body
// into one persistable document.
type Assembler struct {
	rewriter  *Rewriter
	converter *md.Converter
}

func NewAssembler(rewriter *Rewriter) *Assembler {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	return &Assembler{
		rewriter:  rewriter,
		converter: converter,
	}
}

// Run builds the document for one entry. body is the selected body
// content (the entry's own, or the extracted fallback). A rewrite
// abort propagates so the caller treats this entry's import as failed.
func (a *Assembler) Run(ctx context.Context, entry feed.Entry, user database.User, meta feed.Metadata, feedURL, body string) (*Document, error) {
	title := truncateTitle(entry.Title)
	sourceURL := normalizeSourceURL(entry.Link)

	rewritten, err := a.rewriter.Run(ctx, body, user, meta.Link, feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to rewrite entry HTML: %w", err)
	}

	markdown, err := a.converter.ConvertString(rewritten)
	if err != nil {
		return nil, fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}

	markdown = strings.ReplaceAll(markdown, emptyFenceArtifact, "")
	if normalized, _, err := transform.String(nbspNormalizer, markdown); err == nil {
		markdown = normalized
	}
	markdown = unescapeShortTags(markdown)

	frontMatter := a.buildFrontMatter(title, sourceURL, entry, user)

	return &Document{
		Title:         title,
		BodyMarkdown:  strings.TrimSpace(frontMatter + "\n" + markdown),
		FeedSourceURL: sourceURL,
		PublishedAt:   entry.PublishedAt,
	}, nil
}

func (a *Assembler) buildFrontMatter(title, sourceURL string, entry feed.Entry, user database.User) string {
	var b strings.Builder

	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %s\n", strings.ReplaceAll(title, `"`, `\"`))
	b.WriteString("published: false\n")
	if !entry.PublishedAt.IsZero() {
		fmt.Fprintf(&b, "date: %s\n", entry.PublishedAt.UTC().Format(time.RFC3339))
	}
	if tagLine := buildTagLine(entry.Categories); tagLine != "" {
		fmt.Fprintf(&b, "tags: %s\n", tagLine)
	}
	if user.FeedMarkCanonical {
		fmt.Fprintf(&b, "canonical_url: %s\n", sourceURL)
	}
	b.WriteString("---\n")

	return b.String()
}

// truncateTitle cuts the title to the limit at a word boundary, ending
// with an ellipsis marker.
func truncateTitle(title string) string {
	title = strings.TrimSpace(title)
	titleRunes := []rune(title)
	if len(titleRunes) <= titleLimit {
		return title
	}

	const omission = "..."
	cut := string(titleRunes[:titleLimit-len(omission)])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}

	return strings.TrimRight(cut, " ") + omission
}

// buildTagLine sanitizes up to the first four categories into the
// front-matter tag line.
func buildTagLine(categories []string) string {
	limit := len(categories)
	if limit > tagLimit {
		limit = tagLimit
	}

	tags := make([]string, 0, limit)
	for _, category := range categories[:limit] {
		if tag := sanitizeTag(category); tag != "" {
			tags = append(tags, tag)
		}
	}

	return strings.Join(tags, ",")
}

// sanitizeTag strips whitespace and non-alphanumerics and caps the
// length.
func sanitizeTag(category string) string {
	var b strings.Builder
	count := 0
	for _, r := range category {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(r)
		count++
		if count == tagMaxLen {
			break
		}
	}
	return b.String()
}

// unescapeShortTags undoes the underscore escaping the markdown
// conversion applies inside embed short-tags.
func unescapeShortTags(markdown string) string {
	return shortTagRe.ReplaceAllStringFunc(markdown, func(tag string) string {
		return strings.ReplaceAll(tag, `\_`, "_")
	})
}
