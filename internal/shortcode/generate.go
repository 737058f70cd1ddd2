package shortcode

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	Length   = 8

	DefaultMaxAttempts = 1000
)

// RandSource returns a uniformly distributed integer in [0, n). *math/rand.Rand satisfies it.
type RandSource interface {
	Intn(n int) int
}

// CryptoSource is a RandSource backed by crypto/rand.
type CryptoSource struct{}

func (CryptoSource) Intn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	return int(v.Int64())
}

// GenerationError means every attempt produced a value that was already taken.
type GenerationError struct {
	Attempts int
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("no unused value after %d attempts", e.Attempts)
}

// GenerateUntil draws candidates until accept returns true, at most maxAttempts times.
// Errors from either callback abort immediately.
func GenerateUntil[T any](
	ctx context.Context,
	candidate func() (T, error),
	accept func(ctx context.Context, value T) (bool, error),
	maxAttempts int,
) (T, error) {
	var zero T
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		value, err := candidate()
		if err != nil {
			return zero, fmt.Errorf("generate candidate: %w", err)
		}
		ok, err := accept(ctx, value)
		if err != nil {
			return zero, fmt.Errorf("check candidate: %w", err)
		}
		if ok {
			return value, nil
		}
	}
	return zero, &GenerationError{Attempts: maxAttempts}
}

// UniquenessCheck reports whether code is already assigned to something.
type UniquenessCheck func(ctx context.Context, code string) (bool, error)

type Generator struct {
	rand RandSource
	// MaxAttempts bounds the number of collisions tolerated by GenerateIfAbsent.
	MaxAttempts int
}

// NewGenerator creates a Generator drawing from source, nil means CryptoSource.
func NewGenerator(source RandSource) *Generator {
	if source == nil {
		source = CryptoSource{}
	}
	return &Generator{rand: source, MaxAttempts: DefaultMaxAttempts}
}

// Random returns a fresh code, it does not check for uniqueness.
func (g *Generator) Random() string {
	var sb strings.Builder
	sb.Grow(Length)
	for i := 0; i < Length; i++ {
		sb.WriteByte(Alphabet[g.rand.Intn(len(Alphabet))])
	}
	return sb.String()
}

// GenerateIfAbsent returns existing when it is not blank, otherwise it returns a new code
// for which exists reports false.
func (g *Generator) GenerateIfAbsent(ctx context.Context, existing string, exists UniquenessCheck) (string, error) {
	if strings.TrimSpace(existing) != "" {
		return existing, nil
	}
	return GenerateUntil(
		ctx,
		func() (string, error) {
			return g.Random(), nil
		},
		func(ctx context.Context, code string) (bool, error) {
			taken, err := exists(ctx, code)
			return !taken, err
		},
		g.MaxAttempts,
	)
}
