package importer

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lysyi3m/feed-ingest/app/database"
)

func newTestRewriter(articles database.ArticleRepository, rules *Rules) *Rewriter {
	if articles == nil {
		articles = newFakeArticleRepo()
	}
	if rules == nil {
		rules = DefaultRules()
	}
	return NewRewriter(articles, &http.Client{}, rules, "http://localhost:8080")
}

func TestRewriterRemovesTrackingPixels(t *testing.T) {
	rewriter := newTestRewriter(nil, nil)

	input := `<p>Hello</p>` +
		`<img src="https://medium.com/_/stat?event=post.clientViewed">` +
		`<img src="https://cdn.example.com/photo.png">`

	out, err := rewriter.Run(t.Context(), input, database.User{ID: 1}, "https://blog.example.com", "https://blog.example.com/feed")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if strings.Contains(out, "_/stat") {
		t.Errorf("Expected tracking pixel to be removed, got: %s", out)
	}
	if !strings.Contains(out, "photo.png") {
		t.Errorf("Expected regular image to be preserved, got: %s", out)
	}
}

func TestRewriterRemovesBoilerplateParagraphs(t *testing.T) {
	rewriter := newTestRewriter(nil, nil)

	input := `<p>Real content.</p><p>Continue reading on Example Site »</p>`

	out, err := rewriter.Run(t.Context(), input, database.User{ID: 1}, "", "https://blog.example.com/feed")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if strings.Contains(out, "Continue reading") {
		t.Errorf("Expected boilerplate paragraph to be removed, got: %s", out)
	}
	if !strings.Contains(out, "Real content.") {
		t.Errorf("Expected real content to survive, got: %s", out)
	}
}

func TestRewriterFlattensFiguresAndStripsClasses(t *testing.T) {
	rewriter := newTestRewriter(nil, nil)

	input := `<figure class="wide"><img src="https://cdn.example.com/a.png" class="lazy"></figure>`

	out, err := rewriter.Run(t.Context(), input, database.User{ID: 1}, "", "https://blog.example.com/feed")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if strings.Contains(out, "<figure") {
		t.Errorf("Expected figure to be flattened to p, got: %s", out)
	}
	if !strings.Contains(out, "<p") {
		t.Errorf("Expected a p element in place of figure, got: %s", out)
	}
	if strings.Contains(out, "class=") {
		t.Errorf("Expected class attributes to be stripped, got: %s", out)
	}
}

func TestRewriterCollapsesPictures(t *testing.T) {
	rewriter := newTestRewriter(nil, nil)

	input := `<picture>` +
		`<source srcset="https://cdn.example.com/a.webp" type="image/webp">` +
		`<img src="https://cdn.example.com/a.png">` +
		`</picture>`

	out, err := rewriter.Run(t.Context(), input, database.User{ID: 1}, "", "https://blog.example.com/feed")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if strings.Contains(out, "<picture") || strings.Contains(out, "<source") {
		t.Errorf("Expected picture element to collapse, got: %s", out)
	}
	if !strings.Contains(out, `src="https://cdn.example.com/a.png"`) {
		t.Errorf("Expected the inner img to survive, got: %s", out)
	}
}

func TestRewriterRewritesReferentialLinks(t *testing.T) {
	articles := newFakeArticleRepo()
	articles.seed(database.Article{
		UserID:        1,
		Title:         "Earlier Post",
		FeedSourceURL: "https://blog.example.com/earlier",
	})

	rewriter := newTestRewriter(articles, nil)
	user := database.User{ID: 1, FeedReferentialLinks: true}

	input := `<p><a href="https://blog.example.com/earlier">see my earlier post</a>` +
		` and <a href="https://other.example.com/post">someone else's</a></p>`

	out, err := rewriter.Run(t.Context(), input, user, "", "https://blog.example.com/feed")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(out, `href="http://localhost:8080/articles/1"`) {
		t.Errorf("Expected the known link to point at the internal article, got: %s", out)
	}
	if !strings.Contains(out, `href="https://other.example.com/post"`) {
		t.Errorf("Expected the unknown link to be untouched, got: %s", out)
	}
}

func TestRewriterVideoAndSocialEmbeds(t *testing.T) {
	rewriter := newTestRewriter(nil, nil)

	input := `<iframe src="https://medium.com/embed?url=https%3A%2F%2Fwww.youtube.com%2Fembed%2FdQw4w9WgXcQ"></iframe>` +
		`<blockquote><p>Great take</p><a href="https://twitter.com/someone/status/123456789">link</a></blockquote>` +
		`<style>.hidden{display:none}</style>`

	out, err := rewriter.Run(t.Context(), input, database.User{ID: 1}, "", "https://medium.com/feed/@user")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(out, "{% youtube dQw4w9WgXcQ %}") {
		t.Errorf("Expected a youtube short-tag, got: %s", out)
	}
	if !strings.Contains(out, "{% tweet 123456789 %}") {
		t.Errorf("Expected a tweet short-tag, got: %s", out)
	}
	if strings.Contains(out, "<style") {
		t.Errorf("Expected style elements to be stripped, got: %s", out)
	}
}

func TestRewriterGuardsTemplateSyntax(t *testing.T) {
	rewriter := newTestRewriter(nil, nil)

	input := `<p>Use {{ user.name }} in templates.</p>` +
		`<pre><code>{{ raw.example }}</code></pre>`

	out, err := rewriter.Run(t.Context(), input, database.User{ID: 1}, "", "https://medium.com/feed/@user")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(out, "`{{ user.name }}`") {
		t.Errorf("Expected template syntax outside code to be guarded, got: %s", out)
	}
	if strings.Contains(out, "`{{ raw.example }}`") {
		t.Errorf("Expected template syntax inside code to be left alone, got: %s", out)
	}
}

func TestRewriterResolvesGistEmbeds(t *testing.T) {
	var target string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/media/") {
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	target = server.URL + "/someone/abc123"

	rules := DefaultRules()
	rules.EmbedOriginHosts = []string{"127.0.0.1"}
	rules.GistHost = "127.0.0.1"

	rewriter := newTestRewriter(nil, rules)

	input := fmt.Sprintf(`<iframe src="%s/media/deadbeef"></iframe>`, server.URL)

	out, err := rewriter.Run(t.Context(), input, database.User{ID: 1}, "", server.URL+"/feed")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	expected := fmt.Sprintf("{%% gist %s %%}", target)
	if !strings.Contains(out, expected) {
		t.Errorf("Expected gist short-tag %q, got: %s", expected, out)
	}
	if strings.Contains(out, "<iframe") {
		t.Errorf("Expected the iframe to be replaced, got: %s", out)
	}
}

func TestRewriterAbortsOnUnrecognizedEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No redirect: the request resolves to this server, which is not
		// the expected gist host.
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	rules := DefaultRules()
	rules.EmbedOriginHosts = []string{"127.0.0.1"}

	rewriter := newTestRewriter(nil, rules)

	input := fmt.Sprintf(`<iframe src="%s/media/deadbeef"></iframe>`, server.URL)

	_, err := rewriter.Run(t.Context(), input, database.User{ID: 1}, "", server.URL+"/feed")
	if !errors.Is(err, ErrUnrecognizedEmbed) {
		t.Fatalf("Expected ErrUnrecognizedEmbed, got: %v", err)
	}
}

func TestRewriterAbsolutizesImageSources(t *testing.T) {
	rewriter := newTestRewriter(nil, nil)

	input := `<img src="/images/root.png">` +
		`<img src="relative.png">` +
		`<img src="https://cdn.example.com/abs.png">` +
		`<img data-src="/images/lazy.png" src="/images/lazy-fallback.png">`

	out, err := rewriter.Run(t.Context(), input, database.User{ID: 1},
		"https://blog.example.com", "https://feeds.example.net/user/rss")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(out, `src="https://blog.example.com/images/root.png"`) {
		t.Errorf("Expected root-relative src resolved against the homepage, got: %s", out)
	}
	if !strings.Contains(out, `src="https://feeds.example.net/user/relative.png"`) {
		t.Errorf("Expected relative src resolved against the feed URL, got: %s", out)
	}
	if !strings.Contains(out, `src="https://cdn.example.com/abs.png"`) {
		t.Errorf("Expected absolute src untouched, got: %s", out)
	}
	if !strings.Contains(out, `data-src="https://blog.example.com/images/lazy.png"`) {
		t.Errorf("Expected data-src resolved as well, got: %s", out)
	}
}
