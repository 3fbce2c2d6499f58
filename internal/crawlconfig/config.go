package crawlconfig

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"
)

// Config is the immutable set of parameters that governs one crawl run.
// It is read once at startup and never mutated during a run.
type Config struct {
	//===============
	// Crawl scope
	//===============
	seedURLs                 []url.URL
	sameRegistrableDomainOnly bool
	allowedSchemes            map[string]struct{}
	blockedExtensions         map[string]struct{}

	//===============
	// Limits
	//===============
	maxDepth int
	maxPages int

	//===============
	// Politeness
	//===============
	concurrency  int
	perHostRate  float64
	requestTimeout time.Duration
	maxRedirects int
	robotsTTL    time.Duration

	//===============
	// Fetch
	//===============
	userAgent string

	//===============
	// URL canonicalization
	//===============
	trackingParams    map[string]struct{}
	trackingPrefixes  []string
	stripTrailingSlash bool

	//===============
	// Output
	//===============
	saveContent bool
	contentDir  string
	textOnly    bool
}

type configDTO struct {
	SeedURLs                  []string `json:"seedUrls"`
	SameRegistrableDomainOnly bool     `json:"sameRegistrableDomainOnly,omitempty"`
	AllowedSchemes            []string `json:"allowedSchemes,omitempty"`
	BlockedExtensions         []string `json:"blockedExtensions,omitempty"`
	MaxDepth                  int      `json:"maxDepth,omitempty"`
	MaxPages                  int      `json:"maxPages,omitempty"`
	Concurrency               int      `json:"concurrency,omitempty"`
	PerHostRate               float64  `json:"perHostRate,omitempty"`
	RequestTimeoutMs          int      `json:"requestTimeoutMs,omitempty"`
	MaxRedirects              int      `json:"maxRedirects,omitempty"`
	RobotsTTLSeconds          int      `json:"robotsTtlSeconds,omitempty"`
	UserAgent                 string   `json:"userAgent,omitempty"`
	TrackingParams            []string `json:"trackingParams,omitempty"`
	TrackingPrefixes          []string `json:"trackingPrefixes,omitempty"`
	StripTrailingSlash        bool     `json:"stripTrailingSlash,omitempty"`
	SaveContent               bool     `json:"saveContent,omitempty"`
	ContentDir                string   `json:"contentDir,omitempty"`
	TextOnly                  bool     `json:"textOnly,omitempty"`
}

// WithConfigFile reads a Config from a JSON file on disk.
func WithConfigFile(path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	var dto configDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	seeds := make([]url.URL, 0, len(dto.SeedURLs))
	for _, s := range dto.SeedURLs {
		u, err := url.Parse(s)
		if err != nil {
			return Config{}, fmt.Errorf("%w: bad seed url %q: %v", ErrInvalidConfig, s, err)
		}
		seeds = append(seeds, *u)
	}

	builder := WithDefault(seeds)
	if dto.SameRegistrableDomainOnly {
		builder = builder.WithSameRegistrableDomainOnly(true)
	}
	if len(dto.AllowedSchemes) > 0 {
		builder = builder.WithAllowedSchemes(toSet(dto.AllowedSchemes))
	}
	if len(dto.BlockedExtensions) > 0 {
		builder = builder.WithBlockedExtensions(toSet(dto.BlockedExtensions))
	}
	if dto.MaxDepth != 0 {
		builder = builder.WithMaxDepth(dto.MaxDepth)
	}
	if dto.MaxPages != 0 {
		builder = builder.WithMaxPages(dto.MaxPages)
	}
	if dto.Concurrency != 0 {
		builder = builder.WithConcurrency(dto.Concurrency)
	}
	if dto.PerHostRate != 0 {
		builder = builder.WithPerHostRate(dto.PerHostRate)
	}
	if dto.RequestTimeoutMs != 0 {
		builder = builder.WithRequestTimeout(time.Duration(dto.RequestTimeoutMs) * time.Millisecond)
	}
	if dto.MaxRedirects != 0 {
		builder = builder.WithMaxRedirects(dto.MaxRedirects)
	}
	if dto.RobotsTTLSeconds != 0 {
		builder = builder.WithRobotsTTL(time.Duration(dto.RobotsTTLSeconds) * time.Second)
	}
	if dto.UserAgent != "" {
		builder = builder.WithUserAgent(dto.UserAgent)
	}
	if len(dto.TrackingParams) > 0 {
		builder = builder.WithTrackingParams(toSet(dto.TrackingParams))
	}
	if len(dto.TrackingPrefixes) > 0 {
		builder = builder.WithTrackingPrefixes(dto.TrackingPrefixes)
	}
	builder = builder.WithStripTrailingSlash(dto.StripTrailingSlash)
	builder = builder.WithSaveContent(dto.SaveContent)
	if dto.ContentDir != "" {
		builder = builder.WithContentDir(dto.ContentDir)
	}
	builder = builder.WithTextOnly(dto.TextOnly)

	return builder.Build()
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item != "" {
			set[item] = struct{}{}
		}
	}
	return set
}

// WithDefault creates a new Config builder seeded with the given seed URLs
// and the default values for every other field. seedUrls must be non-empty
// by the time Build is called.
func WithDefault(seedUrls []url.URL) *Config {
	return &Config{
		seedURLs:                  seedUrls,
		sameRegistrableDomainOnly:  true,
		allowedSchemes:             toSet([]string{"http", "https"}),
		blockedExtensions:          toSet(defaultBlockedExtensions),
		maxDepth:                   3,
		maxPages:                   100,
		concurrency:                10,
		perHostRate:                1.0,
		requestTimeout:             10 * time.Second,
		maxRedirects:               10,
		robotsTTL:                  1 * time.Hour,
		userAgent:                  "crawlctl/1.0",
		trackingParams:             toSet(defaultTrackingParams),
		trackingPrefixes:           append([]string(nil), defaultTrackingPrefixes...),
		stripTrailingSlash:         true,
		saveContent:                false,
		contentDir:                 "content",
		textOnly:                   false,
	}
}

var defaultBlockedExtensions = []string{
	"jpg", "jpeg", "png", "gif", "bmp", "svg", "ico", "webp",
	"css", "js", "mjs",
	"pdf", "zip", "gz", "tar", "rar", "7z",
	"mp3", "mp4", "avi", "mov", "wav", "ogg", "webm",
	"woff", "woff2", "ttf", "eot",
	"xml", "rss", "atom",
}

var defaultTrackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"gclid", "fbclid", "msclkid", "mc_cid", "mc_eid", "ref", "ref_src",
}

var defaultTrackingPrefixes = []string{"utm_"}

func (c *Config) WithSeedURLs(urls []url.URL) *Config {
	c.seedURLs = urls
	return c
}

func (c *Config) WithSameRegistrableDomainOnly(v bool) *Config {
	c.sameRegistrableDomainOnly = v
	return c
}

func (c *Config) WithAllowedSchemes(schemes map[string]struct{}) *Config {
	c.allowedSchemes = schemes
	return c
}

func (c *Config) WithBlockedExtensions(exts map[string]struct{}) *Config {
	c.blockedExtensions = exts
	return c
}

func (c *Config) WithMaxDepth(d int) *Config {
	c.maxDepth = d
	return c
}

func (c *Config) WithMaxPages(p int) *Config {
	c.maxPages = p
	return c
}

func (c *Config) WithConcurrency(n int) *Config {
	c.concurrency = n
	return c
}

func (c *Config) WithPerHostRate(rps float64) *Config {
	c.perHostRate = rps
	return c
}

func (c *Config) WithRequestTimeout(d time.Duration) *Config {
	c.requestTimeout = d
	return c
}

func (c *Config) WithMaxRedirects(n int) *Config {
	c.maxRedirects = n
	return c
}

func (c *Config) WithRobotsTTL(d time.Duration) *Config {
	c.robotsTTL = d
	return c
}

func (c *Config) WithUserAgent(ua string) *Config {
	c.userAgent = ua
	return c
}

func (c *Config) WithTrackingParams(set map[string]struct{}) *Config {
	c.trackingParams = set
	return c
}

func (c *Config) WithTrackingPrefixes(prefixes []string) *Config {
	c.trackingPrefixes = prefixes
	return c
}

func (c *Config) WithStripTrailingSlash(v bool) *Config {
	c.stripTrailingSlash = v
	return c
}

func (c *Config) WithSaveContent(v bool) *Config {
	c.saveContent = v
	return c
}

func (c *Config) WithContentDir(dir string) *Config {
	c.contentDir = dir
	return c
}

func (c *Config) WithTextOnly(v bool) *Config {
	c.textOnly = v
	return c
}

// Build validates the accumulated fields and returns the finished Config.
func (c *Config) Build() (Config, error) {
	if len(c.seedURLs) == 0 {
		return Config{}, fmt.Errorf("%w: seed URLs cannot be empty", ErrInvalidConfig)
	}
	if c.concurrency < 1 {
		return Config{}, fmt.Errorf("%w: concurrency must be >= 1", ErrInvalidConfig)
	}
	if c.maxPages < 1 {
		return Config{}, fmt.Errorf("%w: maxPages must be >= 1", ErrInvalidConfig)
	}
	if c.perHostRate <= 0 {
		return Config{}, fmt.Errorf("%w: perHostRate must be > 0", ErrInvalidConfig)
	}
	return *c, nil
}

func (c Config) SeedURLs() []url.URL {
	out := make([]url.URL, len(c.seedURLs))
	copy(out, c.seedURLs)
	return out
}

func (c Config) SameRegistrableDomainOnly() bool { return c.sameRegistrableDomainOnly }

func (c Config) AllowedSchemes() map[string]struct{} {
	out := make(map[string]struct{}, len(c.allowedSchemes))
	for k, v := range c.allowedSchemes {
		out[k] = v
	}
	return out
}

func (c Config) BlockedExtensions() map[string]struct{} {
	out := make(map[string]struct{}, len(c.blockedExtensions))
	for k, v := range c.blockedExtensions {
		out[k] = v
	}
	return out
}

func (c Config) MaxDepth() int             { return c.maxDepth }
func (c Config) MaxPages() int             { return c.maxPages }
func (c Config) Concurrency() int          { return c.concurrency }
func (c Config) PerHostRate() float64      { return c.perHostRate }
func (c Config) RequestTimeout() time.Duration { return c.requestTimeout }
func (c Config) MaxRedirects() int         { return c.maxRedirects }
func (c Config) RobotsTTL() time.Duration  { return c.robotsTTL }
func (c Config) UserAgent() string         { return c.userAgent }

func (c Config) TrackingParams() map[string]struct{} {
	out := make(map[string]struct{}, len(c.trackingParams))
	for k, v := range c.trackingParams {
		out[k] = v
	}
	return out
}

func (c Config) TrackingPrefixes() []string {
	out := make([]string, len(c.trackingPrefixes))
	copy(out, c.trackingPrefixes)
	return out
}

func (c Config) StripTrailingSlash() bool { return c.stripTrailingSlash }
func (c Config) SaveContent() bool        { return c.saveContent }
func (c Config) ContentDir() string       { return c.contentDir }
func (c Config) TextOnly() bool           { return c.textOnly }
