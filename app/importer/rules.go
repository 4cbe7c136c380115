package importer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules holds the per-domain constants the reply filter and the HTML
// rewriter key on. The defaults cover the one origin that needs all of
// them today; a rules file can extend or override any field.
type Rules struct {
	// Hosts whose feeds interleave the user's own comment replies with
	// original posts.
	ReplyHosts []string `yaml:"reply_hosts"`

	// Origins whose embeds need short-tag rewriting.
	EmbedOriginHosts []string `yaml:"embed_origin_hosts"`

	// Substring identifying tracking-pixel image sources.
	TrackingPixelMarkers []string `yaml:"tracking_pixel_markers"`

	// Boilerplate phrases whose paragraphs are dropped.
	BoilerplatePhrases []string `yaml:"boilerplate_phrases"`

	// Host a resolved embed redirect must land on to be accepted as a
	// gist embed.
	GistHost string `yaml:"gist_host"`

	// Path prefix of the origin's embed-redirect iframes.
	EmbedRedirectPathPrefix string `yaml:"embed_redirect_path_prefix"`

	// Host of social posts quoted in blockquotes.
	SocialPostHost string `yaml:"social_post_host"`

	// Substring identifying video-host iframes.
	VideoHostMarker string `yaml:"video_host_marker"`
}

func DefaultRules() *Rules {
	return &Rules{
		ReplyHosts:              []string{"medium.com"},
		EmbedOriginHosts:        []string{"medium.com"},
		TrackingPixelMarkers:    []string{"medium.com/_/stat"},
		BoilerplatePhrases:      []string{"Continue reading on"},
		GistHost:                "gist.github.com",
		EmbedRedirectPathPrefix: "/media/",
		SocialPostHost:          "twitter.com",
		VideoHostMarker:         "youtube.com",
	}
}

// LoadRules reads the rules file when a path is given, filling any
// omitted field from the defaults. An empty path returns the defaults.
func LoadRules(path string) (*Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var loaded Rules
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	if len(loaded.ReplyHosts) > 0 {
		rules.ReplyHosts = loaded.ReplyHosts
	}
	if len(loaded.EmbedOriginHosts) > 0 {
		rules.EmbedOriginHosts = loaded.EmbedOriginHosts
	}
	if len(loaded.TrackingPixelMarkers) > 0 {
		rules.TrackingPixelMarkers = loaded.TrackingPixelMarkers
	}
	if len(loaded.BoilerplatePhrases) > 0 {
		rules.BoilerplatePhrases = loaded.BoilerplatePhrases
	}
	if loaded.GistHost != "" {
		rules.GistHost = loaded.GistHost
	}
	if loaded.EmbedRedirectPathPrefix != "" {
		rules.EmbedRedirectPathPrefix = loaded.EmbedRedirectPathPrefix
	}
	if loaded.SocialPostHost != "" {
		rules.SocialPostHost = loaded.SocialPostHost
	}
	if loaded.VideoHostMarker != "" {
		rules.VideoHostMarker = loaded.VideoHostMarker
	}

	return rules, nil
}
