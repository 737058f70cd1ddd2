package profiles

import (
	"context"
	"fmt"
	"strings"
	"vigil-backend/internal/db"
)

// IssueApiToken creates a new api token labelled with label.
func (s *Service) IssueApiToken(ctx context.Context, label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", &ValidationError{Fields: []FieldError{{Field: "label", Message: "can't be blank"}}}
	}

	token, err := s.tokens.Generate(ctx, s.qry.ApiTokenExists)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	err = s.qry.CreateApiToken(ctx, db.CreateApiTokenParams{
		Token:     token,
		Label:     label,
		CreatedAt: s.now(),
	})
	if err != nil {
		return "", fmt.Errorf("insert token: %w", err)
	}
	return token, nil
}

// VerifyApiToken reports whether token was issued by IssueApiToken.
func (s *Service) VerifyApiToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	return s.qry.ApiTokenExists(ctx, token)
}
