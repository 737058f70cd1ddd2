package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ResolveShortCode returns the GitHub url a short code points to.
func (s *Service) ResolveShortCode(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrNotFound
	}
	if url, ok := s.redirects.Get(code); ok {
		return url, nil
	}

	row, err := s.qry.GetProfileByShortCode(ctx, code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get profile by short code: %w", err)
	}

	s.redirects.Add(code, row.GithubUrl)
	return row.GithubUrl, nil
}
