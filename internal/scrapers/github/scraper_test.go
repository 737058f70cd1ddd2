package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"vigil-backend/internal/components/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func serveFixture(t testing.TB, name string) *httptest.Server {
	contents := readFixture(t, name)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html; charset=utf-8")
		w.Write(contents)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestScraper(contributions ContributionsSource) (Scraper, *telemetry.RecordingAPI) {
	tel := &telemetry.RecordingAPI{}
	fetcher := NewHttpFetcher(FetcherOptions{RequestsPerSecond: 100}, tel)
	return NewScraper(fetcher, contributions, tel), tel
}

type fakeContributions struct {
	total int
	err   error
	calls []string
}

func (f *fakeContributions) TotalContributions(ctx context.Context, username string) (int, error) {
	f.calls = append(f.calls, username)
	return f.total, f.err
}

type panickingFetcher struct{}

func (panickingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	panic("fetcher exploded")
}

func TestScrapeProfile(t *testing.T) {
	server := serveFixture(t, "octocat.html")
	scraper, _ := newTestScraper(nil)

	snapshot, err := scraper.Scrape(context.Background(), server.URL+"/octocat")
	require.NoError(t, err)

	expected := Snapshot{
		GithubUsername: "octocat",
		FollowersCount: 100,
		StarsCount:     42,
		AvatarUrl:      "https://x/y.png",
		Organization:   "Acme",
	}
	if diff := cmp.Diff(expected, snapshot); diff != "" {
		t.Fatal("snapshot mismatch (-expected +got):\n", diff)
	}
}

func TestScrapeEmptyPage(t *testing.T) {
	server := serveFixture(t, "empty.html")
	contributions := &fakeContributions{total: 10}
	scraper, _ := newTestScraper(contributions)

	snapshot, err := scraper.Scrape(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, Snapshot{}, snapshot)
	// no username means there is nobody to ask about
	require.Empty(t, contributions.calls)
}

func TestScrapeNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	scraper, tel := newTestScraper(nil)
	snapshot, err := scraper.Scrape(context.Background(), server.URL+"/ghost")
	require.Equal(t, Snapshot{}, snapshot)

	var scrapeErr *ScrapeError
	require.ErrorAs(t, err, &scrapeErr)
	require.Contains(t, scrapeErr.Error(), "404")

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, http.StatusNotFound, fetchErr.StatusCode)

	require.NotEmpty(t, tel.Reports("warning"))
	require.Empty(t, tel.Reports("broken"))
}

func TestScrapeUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	scraper, _ := newTestScraper(nil)
	_, err := scraper.Scrape(context.Background(), url)

	var scrapeErr *ScrapeError
	require.ErrorAs(t, err, &scrapeErr)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, 0, fetchErr.StatusCode)
}

func TestScrapeRecoversPanic(t *testing.T) {
	tel := &telemetry.RecordingAPI{}
	scraper := NewScraper(panickingFetcher{}, nil, tel)

	snapshot, err := scraper.Scrape(context.Background(), "https://github.com/octocat")
	require.Equal(t, Snapshot{}, snapshot)

	var scrapeErr *ScrapeError
	require.ErrorAs(t, err, &scrapeErr)
	require.Contains(t, scrapeErr.Message, "fetcher exploded")
	require.Len(t, tel.Reports("broken"), 1)
}

func TestScrapeContributionsFallback(t *testing.T) {
	server := serveFixture(t, "octocat.html")

	t.Run("used when the page has none", func(t *testing.T) {
		contributions := &fakeContributions{total: 321}
		scraper, _ := newTestScraper(contributions)

		snapshot, err := scraper.Scrape(context.Background(), server.URL)
		require.NoError(t, err)
		require.Equal(t, 321, snapshot.ContributionsLastYear)
		require.Equal(t, []string{"octocat"}, contributions.calls)
	})

	t.Run("errors leave the count at zero", func(t *testing.T) {
		contributions := &fakeContributions{err: errors.New("rate limited")}
		scraper, tel := newTestScraper(contributions)

		snapshot, err := scraper.Scrape(context.Background(), server.URL)
		require.NoError(t, err)
		require.Equal(t, 0, snapshot.ContributionsLastYear)
		require.Equal(t, "octocat", snapshot.GithubUsername)

		warnings := tel.Reports("warning")
		require.Len(t, warnings, 1)
		require.Equal(t, "github:"+report_scraper_contributions, warnings[0].ID)
	})

	t.Run("skipped when the page has a count", func(t *testing.T) {
		profile := serveFixture(t, "profile.html")
		contributions := &fakeContributions{total: 1}
		scraper, _ := newTestScraper(contributions)

		snapshot, err := scraper.Scrape(context.Background(), profile.URL)
		require.NoError(t, err)
		require.Equal(t, 1463, snapshot.ContributionsLastYear)
		require.Empty(t, contributions.calls)
	})
}

func TestConfigNewScraper(t *testing.T) {
	page := serveFixture(t, "octocat.html")
	graphql, received, _ := serveGraphql(t, http.StatusOK, `{
		"data": {"user": {"contributionsCollection": {"contributionCalendar": {"totalContributions": 12}}}}
	}`)

	scraper := Config{
		RequestsPerSecond: 50,
		GithubToken:       "secret",
		GraphqlEndpoint:   graphql.URL,
	}.NewScraper(&telemetry.RecordingAPI{}, nil)

	snapshot, err := scraper.Scrape(context.Background(), page.URL)
	require.NoError(t, err)
	require.Equal(t, 12, snapshot.ContributionsLastYear)
	require.Equal(t, "octocat", received.Variables["login"])

	// without a token the page is the only source
	scraper = Config{}.NewScraper(&telemetry.RecordingAPI{}, nil)
	snapshot, err = scraper.Scrape(context.Background(), page.URL)
	require.NoError(t, err)
	require.Equal(t, 0, snapshot.ContributionsLastYear)
}
