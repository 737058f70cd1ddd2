package profiles

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"
	"vigil-backend/internal/db"
	"vigil-backend/internal/scrapers/github"
)

// Profile is a tracked GitHub profile along with the statistics of its last successful scrape.
type Profile struct {
	ID        int64
	Name      string
	GithubUrl string
	// ShortCode is empty only for profiles created before codes were assigned.
	ShortCode string
	github.Snapshot
	// LastScannedAt is the zero time when the profile has never been scraped successfully.
	LastScannedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func fromRow(row db.Profile, location *time.Location) Profile {
	p := Profile{
		ID:        row.ID,
		Name:      row.Name,
		GithubUrl: row.GithubUrl,
		ShortCode: row.ShortCode.String,
		Snapshot: github.Snapshot{
			GithubUsername:        row.GithubUsername.String,
			FollowersCount:        int(row.FollowersCount),
			FollowingCount:        int(row.FollowingCount),
			StarsCount:            int(row.StarsCount),
			ContributionsLastYear: int(row.ContributionsLastYear),
			AvatarUrl:             row.AvatarUrl.String,
			Organization:          row.Organization.String,
			Location:              row.Location.String,
		},
		CreatedAt: time.Unix(row.CreatedAt, 0).In(location),
		UpdatedAt: time.Unix(row.UpdatedAt, 0).In(location),
	}
	if row.LastScannedAt.Valid {
		p.LastScannedAt = time.Unix(row.LastScannedAt.Int64, 0).In(location)
	}
	return p
}

// Input is the user editable part of a profile.
type Input struct {
	Name      string
	GithubUrl string
}

var githubUrlRegex = regexp.MustCompile(`(?i)^https?://(www\.)?github\.com/`)

func (i Input) normalized() Input {
	return Input{
		Name:      strings.TrimSpace(i.Name),
		GithubUrl: strings.TrimSpace(i.GithubUrl),
	}
}

// Validate returns a *ValidationError describing every invalid field.
func (i Input) Validate() error {
	var fields []FieldError
	if strings.TrimSpace(i.Name) == "" {
		fields = append(fields, FieldError{Field: "name", Message: "can't be blank"})
	}
	url := strings.TrimSpace(i.GithubUrl)
	if url == "" {
		fields = append(fields, FieldError{Field: "github_url", Message: "can't be blank"})
	} else if !githubUrlRegex.MatchString(url) {
		fields = append(fields, FieldError{Field: "github_url", Message: "is invalid"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

type FieldError struct {
	Field   string
	Message string
}

// ValidationError is returned when Input does not describe a valid profile.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s %s", f.Field, f.Message)
	}
	return strings.Join(parts, ", ")
}
