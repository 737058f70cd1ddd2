package profiles

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"vigil-backend/internal/db"
)

const (
	DefaultPerPage = 10
	// DashboardMaxPerPage is the page size limit for listings meant for humans.
	DashboardMaxPerPage = 50
	// ApiMaxPerPage is the page size limit for the json api.
	ApiMaxPerPage = 100
)

type ListInput struct {
	Query   string
	Page    int
	PerPage int
}

type Meta struct {
	CurrentPage int
	PerPage     int
	TotalPages  int
	TotalCount  int
}

type ListResult struct {
	Profiles []Profile
	Meta     Meta
	// Query is the trimmed query that was applied, empty if none.
	Query string
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func normalizePaging(page, perPage, maxPerPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

// List returns a page of profiles, newest first. A non-blank query filters profiles whose text
// fields contain it (case-insensitive) or, for positive integer queries, whose counters equal it.
func (s *Service) List(ctx context.Context, input ListInput, maxPerPage int) (ListResult, error) {
	ctx, span := tracer.Start(ctx, "List")
	defer span.End()

	page, perPage := normalizePaging(input.Page, input.PerPage, maxPerPage)
	query := strings.TrimSpace(input.Query)
	limit := int64(perPage)
	offset := int64(page-1) * limit

	var rows []db.Profile
	var total int64
	var err error
	if query == "" {
		rows, err = s.qry.ListProfiles(ctx, db.ListProfilesParams{Limit: limit, Offset: offset})
		if err == nil {
			total, err = s.qry.CountProfiles(ctx)
		}
	} else {
		pattern := "%" + likeEscaper.Replace(query) + "%"
		var number int64
		if n, convErr := strconv.ParseInt(query, 10, 64); convErr == nil && n > 0 {
			number = n
		}
		rows, err = s.qry.SearchProfiles(ctx, db.SearchProfilesParams{
			Pattern: pattern,
			Number:  number,
			Limit:   limit,
			Offset:  offset,
		})
		if err == nil {
			total, err = s.qry.CountSearchProfiles(ctx, db.CountSearchProfilesParams{
				Pattern: pattern,
				Number:  number,
			})
		}
	}
	if err != nil {
		span.RecordError(err)
		return ListResult{}, fmt.Errorf("list profiles: %w", err)
	}

	profiles := make([]Profile, len(rows))
	for i, row := range rows {
		profiles[i] = fromRow(row, s.time.Location())
	}

	return ListResult{
		Profiles: profiles,
		Query:    query,
		Meta: Meta{
			CurrentPage: page,
			PerPage:     perPage,
			TotalPages:  int((total + limit - 1) / limit),
			TotalCount:  int(total),
		},
	}, nil
}
