package github

import (
	"time"
	"vigil-backend/internal/components/telemetry"
	"vigil-backend/lib/restyutil"
)

// Config is the scraper section of a config file.
type Config struct {
	TimeoutSeconds    int     `json:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	CloudflareBypass  bool    `json:"cloudflare_bypass"`
	// GithubToken enables the contributions fallback through the GraphQL api when set.
	GithubToken     string `json:"github_token"`
	GraphqlEndpoint string `json:"graphql_endpoint"`
}

// NewScraper builds a Scraper from the config, `dump` can be nil.
func (c Config) NewScraper(tel telemetry.API, dump restyutil.InstrumentOutput) Scraper {
	fetcher := NewHttpFetcher(FetcherOptions{
		Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
		RequestsPerSecond: c.RequestsPerSecond,
		CloudflareBypass:  c.CloudflareBypass,
		Dump:              dump,
	}, tel)

	var contributions ContributionsSource
	if c.GithubToken != "" {
		contributions = NewContributionsClient(c.GraphqlEndpoint, c.GithubToken, tel)
	}
	return NewScraper(fetcher, contributions, tel)
}
