package db

import (
	"database/sql"
)

type ApiToken struct {
	Token     string
	Label     string
	CreatedAt int64
}

type Profile struct {
	ID                    int64
	Name                  string
	GithubUrl             string
	ShortCode             sql.NullString
	GithubUsername        sql.NullString
	FollowersCount        int64
	FollowingCount        int64
	StarsCount            int64
	ContributionsLastYear int64
	AvatarUrl             sql.NullString
	Organization          sql.NullString
	Location              sql.NullString
	LastScannedAt         sql.NullInt64
	CreatedAt             int64
	UpdatedAt             int64
}
