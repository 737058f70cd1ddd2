package db

import (
	"context"
	"database/sql"
)

const profileColumns = `id, name, github_url, short_code, github_username, followers_count, following_count,
stars_count, contributions_last_year, avatar_url, organization, location, last_scanned_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (Profile, error) {
	var i Profile
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.GithubUrl,
		&i.ShortCode,
		&i.GithubUsername,
		&i.FollowersCount,
		&i.FollowingCount,
		&i.StarsCount,
		&i.ContributionsLastYear,
		&i.AvatarUrl,
		&i.Organization,
		&i.Location,
		&i.LastScannedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanProfiles(rows *sql.Rows) ([]Profile, error) {
	defer rows.Close()
	var items []Profile
	for rows.Next() {
		i, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createProfile = `-- name: CreateProfile :one
insert into profile (name, github_url, short_code, created_at, updated_at)
values (?, ?, ?, ?, ?)
returning ` + profileColumns

type CreateProfileParams struct {
	Name      string
	GithubUrl string
	ShortCode sql.NullString
	CreatedAt int64
	UpdatedAt int64
}

func (q *Queries) CreateProfile(ctx context.Context, arg CreateProfileParams) (Profile, error) {
	row := q.db.QueryRowContext(ctx, createProfile,
		arg.Name,
		arg.GithubUrl,
		arg.ShortCode,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanProfile(row)
}

const getProfile = `-- name: GetProfile :one
select ` + profileColumns + ` from profile
where id = ?`

func (q *Queries) GetProfile(ctx context.Context, id int64) (Profile, error) {
	row := q.db.QueryRowContext(ctx, getProfile, id)
	return scanProfile(row)
}

const getProfileByShortCode = `-- name: GetProfileByShortCode :one
select ` + profileColumns + ` from profile
where short_code = ?`

func (q *Queries) GetProfileByShortCode(ctx context.Context, shortCode string) (Profile, error) {
	row := q.db.QueryRowContext(ctx, getProfileByShortCode, shortCode)
	return scanProfile(row)
}

const shortCodeExists = `-- name: ShortCodeExists :one
select count(*) from profile
where short_code = ?`

func (q *Queries) ShortCodeExists(ctx context.Context, shortCode string) (bool, error) {
	row := q.db.QueryRowContext(ctx, shortCodeExists, shortCode)
	var count int64
	err := row.Scan(&count)
	return count > 0, err
}

const setProfileShortCode = `-- name: SetProfileShortCode :execrows
update profile set short_code = ?, updated_at = ?
where id = ? and short_code is null`

type SetProfileShortCodeParams struct {
	ShortCode string
	UpdatedAt int64
	ID        int64
}

// SetProfileShortCode only assigns a code to profiles that do not have one yet.
func (q *Queries) SetProfileShortCode(ctx context.Context, arg SetProfileShortCodeParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setProfileShortCode, arg.ShortCode, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateProfileDetails = `-- name: UpdateProfileDetails :execrows
update profile set name = ?, github_url = ?, updated_at = ?
where id = ?`

type UpdateProfileDetailsParams struct {
	Name      string
	GithubUrl string
	UpdatedAt int64
	ID        int64
}

func (q *Queries) UpdateProfileDetails(ctx context.Context, arg UpdateProfileDetailsParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateProfileDetails,
		arg.Name,
		arg.GithubUrl,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateProfileScrape = `-- name: UpdateProfileScrape :exec
update profile set
    github_username = ?,
    followers_count = ?,
    following_count = ?,
    stars_count = ?,
    contributions_last_year = ?,
    avatar_url = ?,
    organization = ?,
    location = ?,
    last_scanned_at = ?,
    updated_at = ?
where id = ?`

type UpdateProfileScrapeParams struct {
	GithubUsername        sql.NullString
	FollowersCount        int64
	FollowingCount        int64
	StarsCount            int64
	ContributionsLastYear int64
	AvatarUrl             sql.NullString
	Organization          sql.NullString
	Location              sql.NullString
	LastScannedAt         int64
	UpdatedAt             int64
	ID                    int64
}

func (q *Queries) UpdateProfileScrape(ctx context.Context, arg UpdateProfileScrapeParams) error {
	_, err := q.db.ExecContext(ctx, updateProfileScrape,
		arg.GithubUsername,
		arg.FollowersCount,
		arg.FollowingCount,
		arg.StarsCount,
		arg.ContributionsLastYear,
		arg.AvatarUrl,
		arg.Organization,
		arg.Location,
		arg.LastScannedAt,
		arg.UpdatedAt,
		arg.ID,
	)
	return err
}

const deleteProfile = `-- name: DeleteProfile :execrows
delete from profile
where id = ?`

func (q *Queries) DeleteProfile(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteProfile, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listProfiles = `-- name: ListProfiles :many
select ` + profileColumns + ` from profile
order by created_at desc, id desc
limit ? offset ?`

type ListProfilesParams struct {
	Limit  int64
	Offset int64
}

func (q *Queries) ListProfiles(ctx context.Context, arg ListProfilesParams) ([]Profile, error) {
	rows, err := q.db.QueryContext(ctx, listProfiles, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanProfiles(rows)
}

const countProfiles = `-- name: CountProfiles :one
select count(*) from profile`

func (q *Queries) CountProfiles(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countProfiles)
	var count int64
	err := row.Scan(&count)
	return count, err
}

// searchFilter matches Pattern (a LIKE pattern escaped with '\') against the text columns, and,
// when Number is positive, Number against the counters.
const searchFilter = `
where name like ? escape '\'
    or github_url like ? escape '\'
    or coalesce(github_username, '') like ? escape '\'
    or coalesce(organization, '') like ? escape '\'
    or coalesce(location, '') like ? escape '\'
    or coalesce(short_code, '') like ? escape '\'
    or (? > 0 and (
        followers_count = ?
        or following_count = ?
        or stars_count = ?
        or contributions_last_year = ?
    ))`

func searchArgs(pattern string, number int64) []any {
	return []any{
		pattern, pattern, pattern, pattern, pattern, pattern,
		number, number, number, number, number,
	}
}

const searchProfiles = `-- name: SearchProfiles :many
select ` + profileColumns + ` from profile` + searchFilter + `
order by created_at desc, id desc
limit ? offset ?`

type SearchProfilesParams struct {
	Pattern string
	Number  int64
	Limit   int64
	Offset  int64
}

func (q *Queries) SearchProfiles(ctx context.Context, arg SearchProfilesParams) ([]Profile, error) {
	args := append(searchArgs(arg.Pattern, arg.Number), arg.Limit, arg.Offset)
	rows, err := q.db.QueryContext(ctx, searchProfiles, args...)
	if err != nil {
		return nil, err
	}
	return scanProfiles(rows)
}

const countSearchProfiles = `-- name: CountSearchProfiles :one
select count(*) from profile` + searchFilter

type CountSearchProfilesParams struct {
	Pattern string
	Number  int64
}

func (q *Queries) CountSearchProfiles(ctx context.Context, arg CountSearchProfilesParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countSearchProfiles, searchArgs(arg.Pattern, arg.Number)...)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listProfilesScannedBefore = `-- name: ListProfilesScannedBefore :many
select ` + profileColumns + ` from profile
where last_scanned_at is null or last_scanned_at < ?
order by id`

func (q *Queries) ListProfilesScannedBefore(ctx context.Context, before int64) ([]Profile, error) {
	rows, err := q.db.QueryContext(ctx, listProfilesScannedBefore, before)
	if err != nil {
		return nil, err
	}
	return scanProfiles(rows)
}

const createApiToken = `-- name: CreateApiToken :exec
insert into api_token (token, label, created_at)
values (?, ?, ?)`

type CreateApiTokenParams struct {
	Token     string
	Label     string
	CreatedAt int64
}

func (q *Queries) CreateApiToken(ctx context.Context, arg CreateApiTokenParams) error {
	_, err := q.db.ExecContext(ctx, createApiToken, arg.Token, arg.Label, arg.CreatedAt)
	return err
}

const apiTokenExists = `-- name: ApiTokenExists :one
select count(*) from api_token
where token = ?`

func (q *Queries) ApiTokenExists(ctx context.Context, token string) (bool, error) {
	row := q.db.QueryRowContext(ctx, apiTokenExists, token)
	var count int64
	err := row.Scan(&count)
	return count > 0, err
}
