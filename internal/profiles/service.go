package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"vigil-backend/internal/components/assert"
	"vigil-backend/internal/components/chrono"
	"vigil-backend/internal/components/telemetry"
	"vigil-backend/internal/db"
	"vigil-backend/internal/scrapers/github"
	"vigil-backend/internal/shortcode"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("internal/profiles")

const (
	report_service_create            = "service.create"
	report_service_update            = "service.update"
	report_service_scrape_and_update = "service.scrape-and-update"
	report_service_destroy           = "service.destroy"
)

// maxInsertAttempts bounds how many times a profile insert is retried after losing a short code
// race to a concurrent insert.
const maxInsertAttempts = 5

const rescanSuccessMessage = "profile rescanned successfully."

// Scraper fetches the current statistics of a profile.
type Scraper interface {
	Scrape(ctx context.Context, url string) (github.Snapshot, error)
}

type Options struct {
	// RedirectCacheSize is the number of short codes kept in memory, defaults to 1024.
	RedirectCacheSize int
	// RedirectCacheTTL defaults to 10 minutes.
	RedirectCacheTTL time.Duration
}

type Service struct {
	db        *sql.DB
	qry       *db.Queries
	scraper   Scraper
	codes     *shortcode.Generator
	codeTaken shortcode.UniquenessCheck
	tokens    shortcode.TokenGenerator
	time      chrono.API
	tel       telemetry.API
	redirects *expirable.LRU[string, string]
}

func NewService(
	database *sql.DB,
	scraper Scraper,
	codes *shortcode.Generator,
	clock chrono.API,
	tel telemetry.API,
	opts Options,
) *Service {
	assert.NotNil(database)
	assert.NotNil(scraper)
	assert.NotNil(codes)
	assert.NotNil(clock)
	assert.NotNil(tel)

	if opts.RedirectCacheSize <= 0 {
		opts.RedirectCacheSize = 1024
	}
	if opts.RedirectCacheTTL <= 0 {
		opts.RedirectCacheTTL = 10 * time.Minute
	}

	qry := db.New(database)
	return &Service{
		db:        database,
		qry:       qry,
		scraper:   scraper,
		codes:     codes,
		codeTaken: qry.ShortCodeExists,
		time:      clock,
		tel:       telemetry.NewScopedAPI("profiles", tel),
		redirects: expirable.NewLRU[string, string](opts.RedirectCacheSize, nil, opts.RedirectCacheTTL),
	}
}

// SaveResult is the outcome of a create or update. The profile is always persisted, ScrapeErr
// is set when fetching its statistics failed.
type SaveResult struct {
	Profile   Profile
	ScrapeErr error
}

func (r SaveResult) ScrapeSuccess() bool {
	return r.ScrapeErr == nil
}

func (r SaveResult) ScrapeMessage() string {
	if r.ScrapeErr == nil {
		return ""
	}
	return r.ScrapeErr.Error()
}

func (s *Service) now() int64 {
	return s.time.Now().Unix()
}

func (s *Service) Create(ctx context.Context, input Input) (SaveResult, error) {
	ctx, span := tracer.Start(ctx, "Create")
	defer span.End()

	input = input.normalized()
	err := input.Validate()
	if err != nil {
		return SaveResult{}, err
	}

	var row db.Profile
	for attempt := 1; ; attempt++ {
		code, err := s.codes.GenerateIfAbsent(ctx, "", s.codeTaken)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to generate short code")
			s.tel.ReportBroken(report_service_create, err)
			return SaveResult{}, fmt.Errorf("generate short code: %w", err)
		}

		now := s.now()
		row, err = s.qry.CreateProfile(ctx, db.CreateProfileParams{
			Name:      input.Name,
			GithubUrl: input.GithubUrl,
			ShortCode: nullableString(code),
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err == nil {
			break
		}
		if db.IsUniqueViolation(err, "profile.short_code") && attempt < maxInsertAttempts {
			s.tel.ReportWarning(report_service_create, "short code collision on insert", code, attempt)
			continue
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to insert profile row")
		s.tel.ReportBroken(report_service_create, err)
		return SaveResult{}, fmt.Errorf("insert profile: %w", err)
	}

	profile := fromRow(row, s.time.Location())
	span.SetAttributes(attribute.Int64("profile_id", profile.ID))

	scraped, scrapeErr := s.ScrapeAndUpdate(ctx, profile)
	return SaveResult{Profile: scraped, ScrapeErr: scrapeErr}, nil
}

func (s *Service) Update(ctx context.Context, id int64, input Input) (SaveResult, error) {
	ctx, span := tracer.Start(ctx, "Update")
	defer span.End()
	span.SetAttributes(attribute.Int64("profile_id", id))

	input = input.normalized()
	err := input.Validate()
	if err != nil {
		return SaveResult{}, err
	}

	existing, err := s.Find(ctx, id)
	if err != nil {
		return SaveResult{}, err
	}

	affected, err := s.qry.UpdateProfileDetails(ctx, db.UpdateProfileDetailsParams{
		Name:      input.Name,
		GithubUrl: input.GithubUrl,
		UpdatedAt: s.now(),
		ID:        id,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update profile row")
		s.tel.ReportBroken(report_service_update, err)
		return SaveResult{}, fmt.Errorf("update profile: %w", err)
	}
	if affected == 0 {
		return SaveResult{}, ErrNotFound
	}
	if existing.ShortCode != "" {
		s.redirects.Remove(existing.ShortCode)
	}

	err = s.ensureShortCode(ctx, existing)
	if err != nil {
		span.RecordError(err)
		s.tel.ReportBroken(report_service_update, err)
		return SaveResult{}, err
	}

	profile, err := s.Find(ctx, id)
	if err != nil {
		return SaveResult{}, err
	}
	scraped, scrapeErr := s.ScrapeAndUpdate(ctx, profile)
	return SaveResult{Profile: scraped, ScrapeErr: scrapeErr}, nil
}

// ensureShortCode assigns a short code to profiles that were stored without one.
func (s *Service) ensureShortCode(ctx context.Context, profile Profile) error {
	for attempt := 1; attempt <= maxInsertAttempts; attempt++ {
		code, err := s.codes.GenerateIfAbsent(ctx, profile.ShortCode, s.codeTaken)
		if err != nil {
			return fmt.Errorf("generate short code: %w", err)
		}
		if code == profile.ShortCode {
			return nil
		}

		_, err = s.qry.SetProfileShortCode(ctx, db.SetProfileShortCodeParams{
			ShortCode: code,
			UpdatedAt: s.now(),
			ID:        profile.ID,
		})
		if db.IsUniqueViolation(err, "profile.short_code") {
			continue
		}
		if err != nil {
			return fmt.Errorf("set short code: %w", err)
		}
		return nil
	}
	return &shortcode.GenerationError{Attempts: maxInsertAttempts}
}

// ScrapeAndUpdate scrapes the profile and stores the new statistics. On failure the stored row is
// left untouched and the given profile is returned as is along with the error.
func (s *Service) ScrapeAndUpdate(ctx context.Context, profile Profile) (Profile, error) {
	ctx, span := tracer.Start(ctx, "ScrapeAndUpdate")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("profile_id", profile.ID),
		attribute.String("github_url", profile.GithubUrl),
	)

	snapshot, err := s.scraper.Scrape(ctx, profile.GithubUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scrape profile")
		s.tel.ReportWarning(report_service_scrape_and_update, profile.GithubUrl, err)
		return profile, err
	}

	now := s.now()
	err = s.qry.UpdateProfileScrape(ctx, db.UpdateProfileScrapeParams{
		GithubUsername:        nullableString(snapshot.GithubUsername),
		FollowersCount:        int64(snapshot.FollowersCount),
		FollowingCount:        int64(snapshot.FollowingCount),
		StarsCount:            int64(snapshot.StarsCount),
		ContributionsLastYear: int64(snapshot.ContributionsLastYear),
		AvatarUrl:             nullableString(snapshot.AvatarUrl),
		Organization:          nullableString(snapshot.Organization),
		Location:              nullableString(snapshot.Location),
		LastScannedAt:         now,
		UpdatedAt:             now,
		ID:                    profile.ID,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store scrape")
		s.tel.ReportBroken(report_service_scrape_and_update, err)
		return profile, fmt.Errorf("store scrape: %w", err)
	}

	profile.Snapshot = snapshot
	profile.LastScannedAt = time.Unix(now, 0).In(s.time.Location())
	profile.UpdatedAt = profile.LastScannedAt
	return profile, nil
}

type RescanResult struct {
	Success bool
	Message string
}

// Rescan scrapes a stored profile again. Scrape failures are reported in the result, only a
// missing profile or a storage failure produce an error.
func (s *Service) Rescan(ctx context.Context, id int64) (RescanResult, error) {
	profile, err := s.Find(ctx, id)
	if err != nil {
		return RescanResult{}, err
	}

	_, err = s.ScrapeAndUpdate(ctx, profile)
	var scrapeErr *github.ScrapeError
	switch {
	case err == nil:
		return RescanResult{Success: true, Message: rescanSuccessMessage}, nil
	case errors.As(err, &scrapeErr):
		return RescanResult{Success: false, Message: scrapeErr.Error()}, nil
	default:
		return RescanResult{}, err
	}
}

func (s *Service) Find(ctx context.Context, id int64) (Profile, error) {
	row, err := s.qry.GetProfile(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return fromRow(row, s.time.Location()), nil
}

// Destroy deletes a profile and returns the name it had.
func (s *Service) Destroy(ctx context.Context, id int64) (string, error) {
	ctx, span := tracer.Start(ctx, "Destroy")
	defer span.End()
	span.SetAttributes(attribute.Int64("profile_id", id))

	var removed db.Profile
	err := db.RunTx(ctx, s.db, func(txqry *db.Queries) error {
		row, err := txqry.GetProfile(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		_, err = txqry.DeleteProfile(ctx, id)
		if err != nil {
			return err
		}
		removed = row
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return "", err
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete profile")
		s.tel.ReportBroken(report_service_destroy, err)
		return "", fmt.Errorf("delete profile: %w", err)
	}

	if removed.ShortCode.Valid {
		s.redirects.Remove(removed.ShortCode.String)
	}
	return removed.Name, nil
}
