package importer

import (
	"net/url"
	"strings"

	"github.com/lysyi3m/feed-ingest/app/feed"
)

// ReplyFilter detects feed entries that are the user's own comment
// replies on a third-party host rather than original posts. Some hosts
// emit both through the same feed; replies carry no categories and
// their body repeats the (truncated) title verbatim.
type ReplyFilter struct {
	hosts map[string]struct{}
}

func NewReplyFilter(rules *Rules) *ReplyFilter {
	hosts := make(map[string]struct{}, len(rules.ReplyHosts))
	for _, host := range rules.ReplyHosts {
		hosts[host] = struct{}{}
	}
	return &ReplyFilter{hosts: hosts}
}

// Run returns true when the entry should be skipped as a reply. All
// three conditions must hold; absence of any one means the entry is a
// regular post.
func (f *ReplyFilter) Run(entry feed.Entry) bool {
	link, err := url.Parse(entry.Link)
	if err != nil {
		return false
	}

	host := strings.TrimPrefix(link.Hostname(), "www.")
	if _, ok := f.hosts[host]; !ok {
		return false
	}

	if len(entry.Categories) > 0 {
		return false
	}

	title := normalizeWhitespace(strings.ReplaceAll(entry.Title, "—", ""))
	if title == "" {
		return false
	}

	body := normalizeWhitespace(entry.Body())

	return strings.Contains(body, title)
}

// normalizeWhitespace collapses all Unicode whitespace runs to single
// spaces and trims the ends.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
