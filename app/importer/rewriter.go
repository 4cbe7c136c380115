package importer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/lysyi3m/feed-ingest/app/database"
)

// ErrUnrecognizedEmbed marks a document whose embed shape could not be
// resolved. The whole rewrite aborts: the content is not salvageable
// as a recognized embed and must not be imported half-translated.
var ErrUnrecognizedEmbed = errors.New("unrecognized embed")

var (
	youtubeEmbedRe  = regexp.MustCompile(`embed%2F([a-zA-Z0-9_-]+)`)
	templateExprRe  = regexp.MustCompile(`\{\{[^{}]*\}\}`)
	statusSegmentRe = regexp.MustCompile(`/status/([^/?#]+)`)
)

// Rewriter transforms raw feed-item HTML into the editor's dialect:
// tracking artifacts removed, unsupported markup flattened, known
// embeds translated into short-tags, relative paths resolved.
type Rewriter struct {
	articles   database.ArticleRepository
	httpClient *http.Client
	rules      *Rules
	baseUrl    string
}

func NewRewriter(articles database.ArticleRepository, httpClient *http.Client, rules *Rules, baseUrl string) *Rewriter {
	return &Rewriter{
		articles:   articles,
		httpClient: httpClient,
		rules:      rules,
		baseUrl:    strings.TrimSuffix(baseUrl, "/"),
	}
}

// Run rewrites rawHTML for the given user. pageLink is the feed's
// homepage link (used to resolve root-relative paths); feedURL is the
// originating feed URL. Returns the rewritten HTML, never mutating the
// input.
func (r *Rewriter) Run(ctx context.Context, rawHTML string, user database.User, pageLink, feedURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	r.removeTrackingPixels(doc)
	r.removeBoilerplate(doc)
	r.flattenFigures(doc)

	doc.Find("*").RemoveAttr("class")

	if user.FeedReferentialLinks {
		r.rewriteReferentialLinks(doc, user)
	}

	r.collapsePictures(doc)

	if r.isEmbedOrigin(feedURL) {
		if err := r.rewriteGistEmbeds(ctx, doc); err != nil {
			return "", err
		}
		doc.Find("style, script").Remove()
		r.rewriteSocialEmbeds(doc)
		r.rewriteVideoEmbeds(doc)
		r.guardTemplateSyntax(doc)
	} else {
		r.absolutizeImageSources(doc, pageLink, feedURL)
	}

	rewritten, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("failed to serialize HTML: %w", err)
	}

	return rewritten, nil
}

func (r *Rewriter) removeTrackingPixels(doc *goquery.Document) {
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		for _, marker := range r.rules.TrackingPixelMarkers {
			if strings.Contains(src, marker) {
				s.Remove()
				return
			}
		}
	})
}

func (r *Rewriter) removeBoilerplate(doc *goquery.Document) {
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		for _, phrase := range r.rules.BoilerplatePhrases {
			if strings.Contains(text, phrase) {
				s.Remove()
				return
			}
		}
	})
}

// flattenFigures renames figure elements to p; the editor has no
// figure semantics.
func (r *Rewriter) flattenFigures(doc *goquery.Document) {
	doc.Find("figure").Each(func(_ int, s *goquery.Selection) {
		s.Get(0).Data = "p"
	})
}

// rewriteReferentialLinks repoints links at posts the user has already
// imported to their canonical internal URL.
func (r *Rewriter) rewriteReferentialLinks(doc *goquery.Document, user database.User) {
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" {
			return
		}
		article, err := r.articles.GetArticleBySourceURL(user.ID, href)
		if err != nil || article == nil {
			return
		}
		s.SetAttr("href", fmt.Sprintf("%s/articles/%d", r.baseUrl, article.ID))
	})
}

// collapsePictures replaces picture elements with their first
// descendant img; srcset is unsupported by the editor and the image
// proxy provides responsive behavior.
func (r *Rewriter) collapsePictures(doc *goquery.Document) {
	doc.Find("picture").Each(func(_ int, s *goquery.Selection) {
		img := s.Find("img").First()
		if img.Length() > 0 {
			s.ReplaceWithSelection(img)
		} else {
			s.Remove()
		}
	})
}

func (r *Rewriter) isEmbedOrigin(feedURL string) bool {
	parsed, err := url.Parse(feedURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(parsed.Hostname(), "www.")
	for _, origin := range r.rules.EmbedOriginHosts {
		if host == origin || strings.HasSuffix(host, "."+origin) {
			return true
		}
	}
	return false
}

// rewriteGistEmbeds resolves the origin's embed-redirect iframes into
// gist short-tags. The redirect target must land on the expected gist
// host; anything else means the content shape is not a recognized
// embed and the whole rewrite aborts.
func (r *Rewriter) rewriteGistEmbeds(ctx context.Context, doc *goquery.Document) error {
	var abortErr error

	doc.Find("iframe").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if !r.isEmbedRedirect(src) {
			return true
		}

		resolved, err := r.resolveRedirect(ctx, src)
		if err != nil {
			abortErr = fmt.Errorf("%w: %v", ErrUnrecognizedEmbed, err)
			return false
		}

		if strings.TrimPrefix(resolved.Hostname(), "www.") != r.rules.GistHost {
			abortErr = fmt.Errorf("%w: redirect resolved to %s", ErrUnrecognizedEmbed, resolved.Hostname())
			return false
		}

		s.ReplaceWithHtml(fmt.Sprintf("<p>{%% gist %s %%}</p>", resolved.String()))
		return true
	})

	return abortErr
}

func (r *Rewriter) isEmbedRedirect(src string) bool {
	if src == "" {
		return false
	}
	parsed, err := url.Parse(src)
	if err != nil {
		return false
	}
	if !r.isEmbedOrigin(src) {
		return false
	}
	return strings.HasPrefix(parsed.Path, r.rules.EmbedRedirectPathPrefix)
}

func (r *Rewriter) resolveRedirect(ctx context.Context, src string) (*url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, "HEAD", src, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve redirect: %w", err)
	}
	defer resp.Body.Close()

	return resp.Request.URL, nil
}

// rewriteSocialEmbeds turns blockquotes quoting a social post into a
// tweet short-tag using the id after /status/.
func (r *Rewriter) rewriteSocialEmbeds(doc *goquery.Document) {
	doc.Find("blockquote").Each(func(_ int, s *goquery.Selection) {
		var id string
		s.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
			href, _ := link.Attr("href")
			parsed, err := url.Parse(href)
			if err != nil {
				return true
			}
			if strings.TrimPrefix(parsed.Hostname(), "www.") != r.rules.SocialPostHost {
				return true
			}
			if m := statusSegmentRe.FindStringSubmatch(parsed.Path); m != nil {
				id = m[1]
				return false
			}
			return true
		})

		if id != "" {
			s.ReplaceWithHtml(fmt.Sprintf("<p>{%% tweet %s %%}</p>", id))
		}
	})
}

func (r *Rewriter) rewriteVideoEmbeds(doc *goquery.Document) {
	doc.Find("iframe").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if !strings.Contains(src, r.rules.VideoHostMarker) {
			return
		}
		if m := youtubeEmbedRe.FindStringSubmatch(src); m != nil {
			s.ReplaceWithHtml(fmt.Sprintf("<p>{%% youtube %s %%}</p>", m[1]))
		}
	})
}

// guardTemplateSyntax wraps {{ ... }} occurrences outside pre/code in
// backticks so the downstream template engine treats them as literal
// text.
func (r *Rewriter) guardTemplateSyntax(doc *goquery.Document) {
	root := doc.Get(0)

	var walk func(n *html.Node, inCode bool)
	walk = func(n *html.Node, inCode bool) {
		if n.Type == html.ElementNode && (n.Data == "pre" || n.Data == "code") {
			inCode = true
		}
		if n.Type == html.TextNode && !inCode {
			n.Data = templateExprRe.ReplaceAllString(n.Data, "`${0}`")
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child, inCode)
		}
	}

	walk(root, false)
}

// absolutizeImageSources resolves relative image paths: root-relative
// paths against the feed's homepage, others against the feed URL.
func (r *Rewriter) absolutizeImageSources(doc *goquery.Document, pageLink, feedURL string) {
	doc.Find("img, [data-src]").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"src", "data-src"} {
			val, ok := s.Attr(attr)
			if !ok || val == "" {
				continue
			}
			if abs := absolutize(val, pageLink, feedURL); abs != val {
				s.SetAttr(attr, abs)
			}
		}
	})
}

func absolutize(val, pageLink, feedURL string) string {
	parsed, err := url.Parse(val)
	if err != nil || parsed.IsAbs() || strings.HasPrefix(val, "//") {
		return val
	}

	base := feedURL
	if strings.HasPrefix(val, "/") && pageLink != "" {
		base = pageLink
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return val
	}

	return baseURL.ResolveReference(parsed).String()
}
