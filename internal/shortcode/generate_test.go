package shortcode

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedSource replays a fixed sequence of values, wrapping around at the end.
type scriptedSource struct {
	values []int
	draws  int
}

func (s *scriptedSource) Intn(n int) int {
	v := s.values[s.draws%len(s.values)] % n
	s.draws++
	return v
}

func requireValidCode(t testing.TB, code string) {
	require.Len(t, code, Length)
	for _, c := range code {
		require.True(t, strings.ContainsRune(Alphabet, c), "unexpected character %q in %q", c, code)
	}
}

func never(ctx context.Context, code string) (bool, error) {
	return false, nil
}

func TestGenerateIfAbsentKeepsExisting(t *testing.T) {
	source := &scriptedSource{values: []int{0}}
	generator := NewGenerator(source)

	called := false
	code, err := generator.GenerateIfAbsent(context.Background(), "abc12345", func(ctx context.Context, code string) (bool, error) {
		called = true
		return false, nil
	})
	require.NoError(t, err)
	require.Equal(t, "abc12345", code)
	require.False(t, called)
	require.Equal(t, 0, source.draws)

	// surrounding whitespace only matters for the blank test
	code, err = generator.GenerateIfAbsent(context.Background(), " x ", never)
	require.NoError(t, err)
	require.Equal(t, " x ", code)
}

func TestGenerateIfAbsentBlank(t *testing.T) {
	generator := NewGenerator(rand.New(rand.NewSource(7)))

	for _, existing := range []string{"", "   ", "\t\n"} {
		code, err := generator.GenerateIfAbsent(context.Background(), existing, never)
		require.NoError(t, err)
		requireValidCode(t, code)
	}
}

func TestRandomUsesWholeAlphabet(t *testing.T) {
	values := make([]int, len(Alphabet))
	for i := range values {
		values[i] = i
	}
	generator := NewGenerator(&scriptedSource{values: values})

	var all strings.Builder
	for i := 0; i < len(Alphabet)/Length+1; i++ {
		all.WriteString(generator.Random())
	}
	require.True(t, strings.HasPrefix(all.String(), Alphabet))
}

func TestGenerateIfAbsentCollisions(t *testing.T) {
	source := &scriptedSource{values: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}}
	generator := NewGenerator(source)

	const collisions = 3
	var checked []string
	code, err := generator.GenerateIfAbsent(context.Background(), "", func(ctx context.Context, code string) (bool, error) {
		checked = append(checked, code)
		return len(checked) <= collisions, nil
	})
	require.NoError(t, err)
	require.Len(t, checked, collisions+1)
	require.Equal(t, checked[collisions], code)
	require.Equal(t, (collisions+1)*Length, source.draws)
	requireValidCode(t, code)
}

func TestGenerateIfAbsentExhausted(t *testing.T) {
	generator := NewGenerator(rand.New(rand.NewSource(1)))
	generator.MaxAttempts = 25

	calls := 0
	_, err := generator.GenerateIfAbsent(context.Background(), "", func(ctx context.Context, code string) (bool, error) {
		calls++
		return true, nil
	})

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	require.Equal(t, 25, genErr.Attempts)
	require.Equal(t, 25, calls)
}

func TestGenerateIfAbsentOracleError(t *testing.T) {
	generator := NewGenerator(rand.New(rand.NewSource(1)))
	failure := errors.New("database is locked")

	calls := 0
	_, err := generator.GenerateIfAbsent(context.Background(), "", func(ctx context.Context, code string) (bool, error) {
		calls++
		return false, failure
	})
	require.ErrorIs(t, err, failure)
	require.Equal(t, 1, calls)
}

func TestGenerateUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := GenerateUntil(
		ctx,
		func() (int, error) { return 1, nil },
		func(ctx context.Context, v int) (bool, error) { return true, nil },
		10,
	)
	require.ErrorIs(t, err, context.Canceled)
}

func TestGenerateUntilCandidateError(t *testing.T) {
	failure := errors.New("entropy ran out")
	_, err := GenerateUntil(
		context.Background(),
		func() (string, error) { return "", failure },
		func(ctx context.Context, v string) (bool, error) { return true, nil },
		0,
	)
	require.ErrorIs(t, err, failure)
}

func TestCryptoSource(t *testing.T) {
	generator := NewGenerator(nil)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code := generator.Random()
		requireValidCode(t, code)
		seen[code] = true
	}
	require.Len(t, seen, 100)
}
