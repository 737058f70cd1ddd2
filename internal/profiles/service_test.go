package profiles

import (
	"context"
	"database/sql"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"
	"vigil-backend/internal/components/chrono"
	"vigil-backend/internal/components/telemetry"
	"vigil-backend/internal/db"
	"vigil-backend/internal/scrapers/github"
	"vigil-backend/internal/shortcode"
	"vigil-backend/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type fakeScraper struct {
	mutex     sync.Mutex
	snapshots map[string]github.Snapshot
	failures  map[string]error
	calls     []string
}

func newFakeScraper() *fakeScraper {
	return &fakeScraper{
		snapshots: map[string]github.Snapshot{},
		failures:  map[string]error{},
	}
}

func (f *fakeScraper) Scrape(ctx context.Context, url string) (github.Snapshot, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.calls = append(f.calls, url)
	if err, ok := f.failures[url]; ok {
		return github.Snapshot{}, err
	}
	if snapshot, ok := f.snapshots[url]; ok {
		return snapshot, nil
	}
	return github.Snapshot{GithubUsername: url[strings.LastIndex(url, "/")+1:]}, nil
}

func (f *fakeScraper) fail(url, message string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.failures[url] = &github.ScrapeError{Message: message}
}

func (f *fakeScraper) heal(url string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	delete(f.failures, url)
}

// prefixSource replays prefix and then falls back to a seeded math/rand.
type prefixSource struct {
	prefix  []int
	drawn   int
	fallback *rand.Rand
}

func (s *prefixSource) Intn(n int) int {
	defer func() { s.drawn++ }()
	if s.drawn < len(s.prefix) {
		return s.prefix[s.drawn] % n
	}
	return s.fallback.Intn(n)
}

func repeat(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

type fixture struct {
	service *Service
	scraper *fakeScraper
	clock   *chrono.FixedImpl
	tel     *telemetry.RecordingAPI
	qry     *db.Queries
}

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func setupWithSource(t *testing.T, source shortcode.RandSource) fixture {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "internal/profiles",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)

	scraper := newFakeScraper()
	clock := &chrono.FixedImpl{Time: epoch}
	tel := &telemetry.RecordingAPI{}
	service := NewService(setup.DB, scraper, shortcode.NewGenerator(source), clock, tel, Options{})

	return fixture{
		service: service,
		scraper: scraper,
		clock:   clock,
		tel:     tel,
		qry:     db.New(setup.DB),
	}
}

func setup(t *testing.T) fixture {
	return setupWithSource(t, rand.New(rand.NewSource(42)))
}

func TestCreate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.scraper.snapshots["https://github.com/octocat"] = github.Snapshot{
		GithubUsername: "octocat",
		FollowersCount: 100,
		StarsCount:     42,
		AvatarUrl:      "https://x/y.png",
		Organization:   "Acme",
	}

	result, err := f.service.Create(ctx, Input{Name: "  The Octocat ", GithubUrl: "https://github.com/octocat"})
	require.NoError(t, err)
	require.True(t, result.ScrapeSuccess())
	require.Equal(t, "", result.ScrapeMessage())

	profile := result.Profile
	require.Equal(t, "The Octocat", profile.Name)
	require.Len(t, profile.ShortCode, shortcode.Length)
	require.Equal(t, epoch, profile.LastScannedAt)
	require.Equal(t, 42, profile.StarsCount)

	stored, err := f.service.Find(ctx, profile.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(profile, stored); diff != "" {
		t.Fatal("stored profile mismatch (-returned +stored):\n", diff)
	}
}

func TestCreateValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	table := []struct {
		input  Input
		fields []FieldError
	}{
		{
			input: Input{Name: " ", GithubUrl: ""},
			fields: []FieldError{
				{Field: "name", Message: "can't be blank"},
				{Field: "github_url", Message: "can't be blank"},
			},
		},
		{
			input:  Input{Name: "x", GithubUrl: "https://gitlab.com/octocat"},
			fields: []FieldError{{Field: "github_url", Message: "is invalid"}},
		},
		{
			input:  Input{Name: "x", GithubUrl: "ftp://github.com/octocat"},
			fields: []FieldError{{Field: "github_url", Message: "is invalid"}},
		},
	}
	for _, row := range table {
		_, err := f.service.Create(ctx, row.input)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Equal(t, row.fields, validationErr.Fields)
	}

	for _, url := range []string{"http://github.com/a", "https://www.github.com/a", "HTTPS://GitHub.com/a"} {
		require.NoError(t, Input{Name: "x", GithubUrl: url}.Validate(), url)
	}

	count, err := f.qry.CountProfiles(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), count)
	require.Empty(t, f.scraper.calls)
}

func TestCreateScrapeFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.scraper.fail("https://github.com/ghost", "status code 404")

	result, err := f.service.Create(ctx, Input{Name: "Ghost", GithubUrl: "https://github.com/ghost"})
	require.NoError(t, err)
	require.False(t, result.ScrapeSuccess())
	require.Equal(t, "status code 404", result.ScrapeMessage())
	require.True(t, result.Profile.LastScannedAt.IsZero())

	stored, err := f.service.Find(ctx, result.Profile.ID)
	require.NoError(t, err)
	require.Equal(t, "Ghost", stored.Name)
	require.Len(t, stored.ShortCode, shortcode.Length)
	require.True(t, stored.LastScannedAt.IsZero())
	require.Len(t, f.tel.Reports("warning"), 1)
}

func TestCreateRetriesShortCodeCollision(t *testing.T) {
	source := &prefixSource{prefix: repeat(0, shortcode.Length), fallback: rand.New(rand.NewSource(1))}
	f := setupWithSource(t, source)
	ctx := context.Background()

	_, err := f.qry.CreateProfile(ctx, db.CreateProfileParams{
		Name:      "first",
		GithubUrl: "https://github.com/first",
		ShortCode: sql.NullString{String: "aaaaaaaa", Valid: true},
	})
	require.NoError(t, err)

	// pretend the code was claimed between the existence check and the insert
	f.service.codeTaken = func(ctx context.Context, code string) (bool, error) {
		return false, nil
	}

	result, err := f.service.Create(ctx, Input{Name: "second", GithubUrl: "https://github.com/second"})
	require.NoError(t, err)
	require.NotEqual(t, "aaaaaaaa", result.Profile.ShortCode)
	require.Len(t, result.Profile.ShortCode, shortcode.Length)

	warnings := f.tel.Reports("warning")
	require.Len(t, warnings, 1)
	require.Equal(t, "profiles:"+report_service_create, warnings[0].ID)
}

func TestCreateGivesUpOnCollisions(t *testing.T) {
	f := setupWithSource(t, &prefixSource{prefix: repeat(0, 1000)})
	ctx := context.Background()

	_, err := f.qry.CreateProfile(ctx, db.CreateProfileParams{
		Name:      "first",
		GithubUrl: "https://github.com/first",
		ShortCode: sql.NullString{String: "aaaaaaaa", Valid: true},
	})
	require.NoError(t, err)
	f.service.codeTaken = func(ctx context.Context, code string) (bool, error) {
		return false, nil
	}

	_, err = f.service.Create(ctx, Input{Name: "second", GithubUrl: "https://github.com/second"})
	require.Error(t, err)
	require.True(t, db.IsUniqueViolation(err, "profile.short_code"))
	require.Len(t, f.tel.Reports("warning"), maxInsertAttempts-1)
	require.Len(t, f.tel.Reports("broken"), 1)
}

func TestCreateGenerationExhausted(t *testing.T) {
	f := setup(t)
	f.service.codes.MaxAttempts = 3
	f.service.codeTaken = func(ctx context.Context, code string) (bool, error) {
		return true, nil
	}

	_, err := f.service.Create(context.Background(), Input{Name: "x", GithubUrl: "https://github.com/x"})
	var genErr *shortcode.GenerationError
	require.ErrorAs(t, err, &genErr)
	require.Equal(t, 3, genErr.Attempts)
}

func TestUpdate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, Input{Name: "octo", GithubUrl: "https://github.com/octocat"})
	require.NoError(t, err)
	code := created.Profile.ShortCode

	f.clock.Advance(time.Hour)
	f.scraper.snapshots["https://github.com/hubot"] = github.Snapshot{GithubUsername: "hubot", FollowersCount: 7}

	updated, err := f.service.Update(ctx, created.Profile.ID, Input{Name: "Hubot", GithubUrl: "https://github.com/hubot"})
	require.NoError(t, err)
	require.True(t, updated.ScrapeSuccess())
	require.Equal(t, code, updated.Profile.ShortCode)
	require.Equal(t, "Hubot", updated.Profile.Name)
	require.Equal(t, 7, updated.Profile.FollowersCount)
	require.Equal(t, epoch.Add(time.Hour), updated.Profile.LastScannedAt)

	url, err := f.service.ResolveShortCode(ctx, code)
	require.NoError(t, err)
	require.Equal(t, "https://github.com/hubot", url)

	_, err = f.service.Update(ctx, 9999, Input{Name: "x", GithubUrl: "https://github.com/x"})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.service.Update(ctx, created.Profile.ID, Input{Name: "", GithubUrl: "https://github.com/x"})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestUpdateAssignsMissingShortCode(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	row, err := f.qry.CreateProfile(ctx, db.CreateProfileParams{
		Name:      "legacy",
		GithubUrl: "https://github.com/legacy",
	})
	require.NoError(t, err)

	result, err := f.service.Update(ctx, row.ID, Input{Name: "legacy", GithubUrl: "https://github.com/legacy"})
	require.NoError(t, err)
	require.Len(t, result.Profile.ShortCode, shortcode.Length)
}

func TestUpdateScrapeFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, Input{Name: "octo", GithubUrl: "https://github.com/octocat"})
	require.NoError(t, err)

	f.scraper.fail("https://github.com/gone", "status code 404")
	result, err := f.service.Update(ctx, created.Profile.ID, Input{Name: "gone", GithubUrl: "https://github.com/gone"})
	require.NoError(t, err)
	require.False(t, result.ScrapeSuccess())
	require.Equal(t, "gone", result.Profile.Name)
	// statistics of the previous scrape are kept
	require.Equal(t, "octocat", result.Profile.GithubUsername)
}

func TestRescan(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, Input{Name: "octo", GithubUrl: "https://github.com/octocat"})
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	f.scraper.snapshots["https://github.com/octocat"] = github.Snapshot{GithubUsername: "octocat", StarsCount: 5}
	res, err := f.service.Rescan(ctx, created.Profile.ID)
	require.NoError(t, err)
	require.Equal(t, RescanResult{Success: true, Message: "profile rescanned successfully."}, res)

	stored, err := f.service.Find(ctx, created.Profile.ID)
	require.NoError(t, err)
	require.Equal(t, 5, stored.StarsCount)
	require.Equal(t, epoch.Add(time.Minute), stored.LastScannedAt)

	f.clock.Advance(time.Minute)
	f.scraper.fail("https://github.com/octocat", "status code 503")
	res, err = f.service.Rescan(ctx, created.Profile.ID)
	require.NoError(t, err)
	require.Equal(t, RescanResult{Success: false, Message: "status code 503"}, res)

	unchanged, err := f.service.Find(ctx, created.Profile.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(stored, unchanged); diff != "" {
		t.Fatal("failed rescan modified the profile:\n", diff)
	}

	_, err = f.service.Rescan(ctx, 9999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDestroy(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, Input{Name: "octo", GithubUrl: "https://github.com/octocat"})
	require.NoError(t, err)
	code := created.Profile.ShortCode

	_, err = f.service.ResolveShortCode(ctx, code)
	require.NoError(t, err)

	name, err := f.service.Destroy(ctx, created.Profile.ID)
	require.NoError(t, err)
	require.Equal(t, "octo", name)

	_, err = f.service.Find(ctx, created.Profile.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = f.service.ResolveShortCode(ctx, code)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.service.Destroy(ctx, created.Profile.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.Empty(t, f.tel.Reports("broken"))
}

func TestResolveShortCode(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, Input{Name: "octo", GithubUrl: "https://github.com/octocat"})
	require.NoError(t, err)

	url, err := f.service.ResolveShortCode(ctx, created.Profile.ShortCode)
	require.NoError(t, err)
	require.Equal(t, "https://github.com/octocat", url)

	// served from the cache once resolved
	_, err = f.qry.DeleteProfile(ctx, created.Profile.ID)
	require.NoError(t, err)
	url, err = f.service.ResolveShortCode(ctx, created.Profile.ShortCode)
	require.NoError(t, err)
	require.Equal(t, "https://github.com/octocat", url)

	_, err = f.service.ResolveShortCode(ctx, "missing0")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = f.service.ResolveShortCode(ctx, "  ")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestApiTokens(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	token, err := f.service.IssueApiToken(ctx, "ci")
	require.NoError(t, err)
	require.Len(t, token, shortcode.TokenLength)

	ok, err := f.service.VerifyApiToken(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = f.service.VerifyApiToken(ctx, "forged")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = f.service.VerifyApiToken(ctx, "")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = f.service.IssueApiToken(ctx, " ")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}
