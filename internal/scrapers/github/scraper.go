package github

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"vigil-backend/internal/components/assert"
	"vigil-backend/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_scraper_scrape        = "scraper.scrape"
	report_scraper_contributions = "scraper.contributions"
)

// Snapshot is the public statistics of a profile at the time it was scraped.
// Empty strings mean the field could not be found.
type Snapshot struct {
	GithubUsername        string
	FollowersCount        int
	FollowingCount        int
	StarsCount            int
	ContributionsLastYear int
	AvatarUrl             string
	Organization          string
	Location              string
}

// ScrapeError is the only error returned by Scraper.Scrape.
type ScrapeError struct {
	Message string
	Err     error
}

func (e *ScrapeError) Error() string {
	return e.Message
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// ContributionsSource provides the yearly contribution count for a username, it is consulted
// when the profile page does not show it.
type ContributionsSource interface {
	TotalContributions(ctx context.Context, username string) (int, error)
}

type Scraper struct {
	fetcher       Fetcher
	contributions ContributionsSource
	tel           telemetry.API
}

// NewScraper creates a Scraper, `contributions` can be nil.
func NewScraper(fetcher Fetcher, contributions ContributionsSource, tel telemetry.API) Scraper {
	assert.NotNil(fetcher)
	assert.NotNil(tel)

	return Scraper{
		fetcher:       fetcher,
		contributions: contributions,
		tel:           telemetry.NewScopedAPI("github", tel),
	}
}

// Scrape fetches the profile page at url and extracts a Snapshot from it. Fields that cannot be
// found are left zeroed, only a failed fetch (or a bug in the pipeline) produces an error.
func (s Scraper) Scrape(ctx context.Context, url string) (snapshot Snapshot, err error) {
	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		snapshot = Snapshot{}
		err = &ScrapeError{Message: fmt.Sprint(recovered)}
		s.tel.ReportBroken(report_scraper_scrape, url, err)
	}()

	html, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		s.tel.ReportWarning(report_scraper_scrape, url, err)
		return Snapshot{}, wrapScrapeError(err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		s.tel.ReportBroken(report_scraper_scrape, url, fmt.Errorf("parse html: %w", err))
		return Snapshot{}, wrapScrapeError(err)
	}

	snapshot = ParseProfile(doc)
	if snapshot.ContributionsLastYear == 0 && snapshot.GithubUsername != "" && s.contributions != nil {
		total, err := s.contributions.TotalContributions(ctx, snapshot.GithubUsername)
		if err != nil {
			s.tel.ReportWarning(report_scraper_contributions, snapshot.GithubUsername, err)
		} else {
			snapshot.ContributionsLastYear = total
		}
	}

	s.tel.ReportDebug(
		"scraped profile",
		url,
		snapshot.GithubUsername,
		snapshot.FollowersCount,
	)
	return snapshot, nil
}

// ParseProfile runs every field extractor over doc.
func ParseProfile(doc *goquery.Document) Snapshot {
	return Snapshot{
		GithubUsername:        ExtractUsername(doc),
		FollowersCount:        ExtractCounter(doc, followersSelector),
		FollowingCount:        ExtractCounter(doc, followingSelector),
		StarsCount:            ExtractStars(doc),
		ContributionsLastYear: ExtractContributions(doc),
		AvatarUrl:             ExtractAvatar(doc),
		Organization:          ExtractOptionalText(doc, organizationSelector),
		Location:              ExtractOptionalText(doc, locationSelector),
	}
}

func wrapScrapeError(err error) error {
	var scrapeErr *ScrapeError
	if errors.As(err, &scrapeErr) {
		return err
	}
	return &ScrapeError{Message: err.Error(), Err: err}
}
