package puzzle

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"puzzle-gateway/internal/metrics"
	"puzzle-gateway/internal/retry"
	"puzzle-gateway/middleware/ratelimit/application"
	"puzzle-gateway/middleware/ratelimit/infra"
)

type fakeGenerator struct {
	puzzle Puzzle
	err    error
	calls  int
	types  []Type
}

func (g *fakeGenerator) Generate(_ context.Context, t Type, _ string) (Puzzle, error) {
	g.calls++
	g.types = append(g.types, t)
	if g.err != nil {
		return Puzzle{}, g.err
	}
	p := g.puzzle
	if p.Type == "" {
		p.Type = t
	}
	return p, nil
}

type fakeJudge struct {
	judgement Judgement
	err       error
}

func (j fakeJudge) Judge(context.Context, Puzzle, string) (Judgement, error) {
	return j.judgement, j.err
}

type memRepo struct {
	mu        sync.Mutex
	puzzles   []Puzzle
	saveErrs  int
	saveCalls int
	readErr   error
}

func (r *memRepo) RandomPuzzle(_ context.Context, exclude []string) (Puzzle, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return Puzzle{}, false, r.readErr
	}
	for _, p := range r.puzzles {
		if !slices.Contains(exclude, p.ID) {
			return p, true, nil
		}
	}
	return Puzzle{}, false, nil
}

func (r *memRepo) PuzzleByID(_ context.Context, id string) (Puzzle, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return Puzzle{}, false, r.readErr
	}
	for _, p := range r.puzzles {
		if p.ID == id {
			return p, true, nil
		}
	}
	return Puzzle{}, false, nil
}

func (r *memRepo) SavePuzzle(_ context.Context, p Puzzle) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveCalls++
	if r.saveErrs > 0 {
		r.saveErrs--
		return false, errors.New("database is locked")
	}
	r.puzzles = append(r.puzzles, p)
	return true, nil
}

var fastRetry = retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffMultiplier: 1}

func newTestService(cfg Config) *Service {
	if cfg.SaveRetry.MaxAttempts == 0 {
		cfg.SaveRetry = fastRetry
	}
	s := New(cfg)
	s.intn = func(int) int { return 0 }
	return s
}

func TestNextFallsBackToLocalList(t *testing.T) {
	s := newTestService(Config{})

	p, src, err := s.Next(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, SourceLocal, src)
	require.Equal(t, "p1", p.ID)

	p, _, err = s.Next(context.Background(), Request{ExcludeIDs: []string{"p1"}})
	require.NoError(t, err)
	require.Equal(t, "p2", p.ID)

	// tudo excluído: repete em vez de falhar
	p, _, err = s.Next(context.Background(), Request{ExcludeIDs: []string{"p1", "p2", "p3"}})
	require.NoError(t, err)
	require.Equal(t, "p1", p.ID)
}

func TestNextRejectsUnknownType(t *testing.T) {
	s := newTestService(Config{})
	_, _, err := s.Next(context.Background(), Request{Type: "poem"})
	require.ErrorIs(t, err, ErrInvalidType)
}

func TestNextUsesGeneratorAndSaves(t *testing.T) {
	gen := &fakeGenerator{puzzle: Puzzle{Question: "  What has keys but no locks? ", Answer: "A piano"}}
	repo := &memRepo{saveErrs: 1}
	m := metrics.New(nil, 0)
	s := newTestService(Config{Generator: gen, Repo: repo, Metrics: m})

	p, src, err := s.Next(context.Background(), Request{Type: TypeRiddle})
	require.NoError(t, err)
	require.Equal(t, SourceAI, src)
	require.NotEmpty(t, p.ID)
	require.Equal(t, TypeRiddle, p.Type)
	require.Equal(t, "What has keys but no locks?", p.Question)

	// primeira tentativa falha, o retry salva
	require.Equal(t, 2, repo.saveCalls)
	require.Len(t, repo.puzzles, 1)
	require.Equal(t, p.ID, repo.puzzles[0].ID)

	snap := m.Snapshot()
	require.EqualValues(t, 1, snap.Counters["generation.ai.calls"])
	require.Positive(t, snap.Counters["generation.ai.tokens"])
}

func TestNextServesPuzzleWhenSaveKeepsFailing(t *testing.T) {
	gen := &fakeGenerator{puzzle: Puzzle{Question: "q", Answer: "a"}}
	repo := &memRepo{saveErrs: 10}
	s := newTestService(Config{Generator: gen, Repo: repo})

	_, src, err := s.Next(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, SourceAI, src)
	require.Equal(t, fastRetry.MaxAttempts, repo.saveCalls)
	require.Equal(t, []Type{TypeRiddle}, gen.types)
}

func TestNextFallsBackWhenGeneratorFails(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream 500")}
	repo := &memRepo{puzzles: []Puzzle{{ID: "db-1", Type: TypeMath, Question: "1+1?", Answer: "2"}}}
	m := metrics.New(nil, 0)
	s := newTestService(Config{Generator: gen, Repo: repo, Metrics: m})

	p, src, err := s.Next(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, SourceDB, src)
	require.Equal(t, "db-1", p.ID)
	require.EqualValues(t, 1, m.Snapshot().Counters["generation.ai.calls"])

	p, src, err = s.Next(context.Background(), Request{ExcludeIDs: []string{"db-1"}})
	require.NoError(t, err)
	require.Equal(t, SourceLocal, src)
	require.Equal(t, "p1", p.ID)
}

func TestNextRejectsIncompleteGeneratedPuzzle(t *testing.T) {
	gen := &fakeGenerator{puzzle: Puzzle{Question: "no answer"}}
	s := newTestService(Config{Generator: gen})

	_, src, err := s.Next(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, SourceLocal, src)
}

func TestNextWithoutSlotFallsBack(t *testing.T) {
	pool := infra.NewChanPool(1)
	release, ok := pool.Acquire(context.Background())
	require.True(t, ok)
	defer release()

	gen := &fakeGenerator{puzzle: Puzzle{Question: "q", Answer: "a"}}
	s := newTestService(Config{
		Generator: gen,
		Slots:     application.ConcurrencyService{Pool: pool, AcquireTimeout: 10 * time.Millisecond},
	})

	_, src, err := s.Next(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, SourceLocal, src)
	require.Zero(t, gen.calls)
}

func TestCheck(t *testing.T) {
	repo := &memRepo{puzzles: []Puzzle{{ID: "db-1", Type: TypeRiddle, Question: "q", Answer: "Señor Piano"}}}
	m := metrics.New(nil, 0)
	s := newTestService(Config{Repo: repo, Metrics: m})

	v, err := s.Check(context.Background(), "p3", " 42 ")
	require.NoError(t, err)
	require.Equal(t, Verdict{Correct: true, Method: MethodLocal, Confidence: 1}, v)

	v, err = s.Check(context.Background(), "db-1", "senor piano!")
	require.NoError(t, err)
	require.True(t, v.Correct)

	v, err = s.Check(context.Background(), "p1", "a parrot")
	require.NoError(t, err)
	require.False(t, v.Correct)
	require.Equal(t, MethodAIUnavailable, v.Method)

	_, err = s.Check(context.Background(), "nope", "x")
	require.ErrorIs(t, err, ErrNotFound)

	require.EqualValues(t, 3, m.Snapshot().Counters["validation.local.calls"])
}

func TestCheckAsksJudge(t *testing.T) {
	s := newTestService(Config{Judge: fakeJudge{judgement: Judgement{Correct: true, Confidence: 0.8, Explanation: "synonym"}}})
	v, err := s.Check(context.Background(), "p1", "an echo sound")
	require.NoError(t, err)
	require.Equal(t, Verdict{Correct: true, Method: MethodAI, Confidence: 0.8, Explanation: "synonym"}, v)

	s = newTestService(Config{Judge: fakeJudge{err: errors.New("timeout")}})
	v, err = s.Check(context.Background(), "p1", "an echo sound")
	require.NoError(t, err)
	require.False(t, v.Correct)
	require.Equal(t, MethodAIUnavailable, v.Method)
}

func TestCheckRepoErrorUsesFallback(t *testing.T) {
	s := newTestService(Config{Repo: &memRepo{readErr: errors.New("disk I/O error")}})
	v, err := s.Check(context.Background(), "p2", "HELLO")
	require.NoError(t, err)
	require.True(t, v.Correct)
}
