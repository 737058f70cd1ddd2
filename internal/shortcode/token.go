package shortcode

import (
	"context"

	"github.com/mazen160/go-random"
)

const TokenLength = 64

// TokenGenerator produces opaque api tokens, retrying on the (unlikely) event of a collision.
type TokenGenerator struct {
	MaxAttempts int
}

func (g TokenGenerator) Generate(ctx context.Context, exists UniquenessCheck) (string, error) {
	return GenerateUntil(
		ctx,
		func() (string, error) {
			return random.String(TokenLength)
		},
		func(ctx context.Context, token string) (bool, error) {
			taken, err := exists(ctx, token)
			return !taken, err
		},
		g.MaxAttempts,
	)
}
