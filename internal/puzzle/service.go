package puzzle

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"puzzle-gateway/internal/metrics"
	"puzzle-gateway/internal/retry"
	"puzzle-gateway/middleware/ratelimit/application"
)

// Generator cria puzzles novos (normalmente via LLM).
type Generator interface {
	Generate(ctx context.Context, t Type, topic string) (Puzzle, error)
}

// Judgement é a opinião do LLM sobre uma resposta que não bateu localmente.
type Judgement struct {
	Correct     bool
	Confidence  float64
	Explanation string
}

type Judge interface {
	Judge(ctx context.Context, p Puzzle, answer string) (Judgement, error)
}

// Repository guarda puzzles gerados.
type Repository interface {
	RandomPuzzle(ctx context.Context, excludeIDs []string) (Puzzle, bool, error)
	PuzzleByID(ctx context.Context, id string) (Puzzle, bool, error)
	// SavePuzzle devolve false quando a pergunta já existe.
	SavePuzzle(ctx context.Context, p Puzzle) (bool, error)
}

type Source string

const (
	SourceAI    Source = "ai"
	SourceDB    Source = "db"
	SourceLocal Source = "local"
)

type Method string

const (
	MethodLocal         Method = "local"
	MethodAI            Method = "ai"
	MethodAIUnavailable Method = "ai_unavailable"
)

type Verdict struct {
	Correct     bool    `json:"correct"`
	Method      Method  `json:"method"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation,omitempty"`
}

type Request struct {
	Type       Type
	Topic      string
	ExcludeIDs []string
}

type Config struct {
	Repo      Repository
	Generator Generator
	Judge     Judge
	Slots     application.ConcurrencyService
	Metrics   *metrics.Collector
	SaveRetry retry.Config
	Logger    *zap.Logger
}

type Service struct {
	repo      Repository
	generator Generator
	judge     Judge
	slots     application.ConcurrencyService
	metrics   *metrics.Collector
	saveRetry retry.Config
	logger    *zap.Logger

	intn func(n int) int
	now  func() time.Time
}

func New(cfg Config) *Service {
	s := &Service{
		repo:      cfg.Repo,
		generator: cfg.Generator,
		judge:     cfg.Judge,
		slots:     cfg.Slots,
		metrics:   cfg.Metrics,
		saveRetry: cfg.SaveRetry,
		logger:    cfg.Logger,
		intn:      rand.IntN,
		now:       time.Now,
	}
	if s.metrics == nil {
		s.metrics = metrics.New(nil, 0)
	}
	if s.saveRetry.MaxAttempts == 0 {
		s.saveRetry = retry.StorageConfig
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Next devolve um puzzle novo e de onde ele veio.
func (s *Service) Next(ctx context.Context, req Request) (Puzzle, Source, error) {
	if req.Type != "" && !req.Type.Valid() {
		return Puzzle{}, "", fmt.Errorf("%w: %s", ErrInvalidType, req.Type)
	}

	if s.generator != nil {
		p, err := s.generate(ctx, req)
		if err == nil {
			return p, SourceAI, nil
		}
		s.logger.Warn("puzzle generation failed, falling back", zap.Error(err))
	}

	if s.repo != nil {
		p, ok, err := s.repo.RandomPuzzle(ctx, req.ExcludeIDs)
		switch {
		case err != nil:
			s.logger.Warn("random puzzle lookup failed", zap.Error(err))
		case ok:
			return p, SourceDB, nil
		}
	}

	start := s.now()
	p := s.pickFallback(req.ExcludeIDs)
	s.metrics.Record(metrics.Call{Kind: metrics.KindGeneration, Duration: s.now().Sub(start)})
	return p, SourceLocal, nil
}

func (s *Service) generate(ctx context.Context, req Request) (Puzzle, error) {
	t := req.Type
	if t == "" {
		t = Types[s.intn(len(Types))]
	}

	var p Puzzle
	start := s.now()
	err := s.slots.Run(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.generator.Generate(ctx, t, req.Topic)
		return err
	})
	call := metrics.Call{UsedAI: true, Kind: metrics.KindGeneration, Duration: s.now().Sub(start)}
	if err != nil {
		s.metrics.Record(call)
		return Puzzle{}, err
	}

	p, err = cleanGenerated(p)
	if err != nil {
		s.metrics.Record(call)
		return Puzzle{}, err
	}
	call.Tokens = estimateTokens(p)
	s.metrics.Record(call)

	if s.repo != nil {
		// o puzzle já é servido mesmo se o save falhar
		err := retry.Run(ctx, s.saveRetry, func(ctx context.Context) error {
			_, err := s.repo.SavePuzzle(ctx, p)
			return err
		})
		if err != nil {
			s.logger.Warn("saving generated puzzle failed", zap.String("puzzle_id", p.ID), zap.Error(err))
		}
	}
	return p, nil
}

func cleanGenerated(p Puzzle) (Puzzle, error) {
	p.Question = strings.TrimSpace(p.Question)
	p.Answer = strings.TrimSpace(p.Answer)
	p.Type = Type(strings.ToLower(string(p.Type)))
	if p.Question == "" || p.Answer == "" {
		return Puzzle{}, errors.New("generator returned an incomplete puzzle")
	}
	if !p.Type.Valid() {
		return Puzzle{}, fmt.Errorf("%w: %s", ErrInvalidType, p.Type)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return p, nil
}

// estimateTokens é a heurística de ~4 caracteres por token.
func estimateTokens(p Puzzle) int {
	return (len(p.Question) + len(p.Answer) + 3) / 4
}

func (s *Service) pickFallback(exclude []string) Puzzle {
	candidates := make([]Puzzle, 0, len(Fallback))
	for _, p := range Fallback {
		if !slices.Contains(exclude, p.ID) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		candidates = Fallback
	}
	return candidates[s.intn(len(candidates))]
}

func (s *Service) lookup(ctx context.Context, id string) (Puzzle, error) {
	if s.repo != nil {
		p, ok, err := s.repo.PuzzleByID(ctx, id)
		switch {
		case err != nil:
			s.logger.Warn("puzzle lookup failed", zap.String("puzzle_id", id), zap.Error(err))
		case ok:
			return p, nil
		}
	}
	if p, ok := fallbackByID(id); ok {
		return p, nil
	}
	return Puzzle{}, ErrNotFound
}

// Check confere a resposta: comparação local primeiro, depois o Judge.
// Falha do Judge não é erro; vira Method ai_unavailable.
func (s *Service) Check(ctx context.Context, id, answer string) (Verdict, error) {
	p, err := s.lookup(ctx, id)
	if err != nil {
		return Verdict{}, err
	}

	start := s.now()
	if AnswersEqual(answer, p.Answer) {
		s.metrics.Record(metrics.Call{Kind: metrics.KindValidation, Duration: s.now().Sub(start)})
		return Verdict{Correct: true, Method: MethodLocal, Confidence: 1}, nil
	}

	if s.judge == nil {
		s.metrics.Record(metrics.Call{Kind: metrics.KindValidation, Duration: s.now().Sub(start)})
		return Verdict{Correct: false, Method: MethodAIUnavailable, Explanation: ErrJudgeUnavailable.Error()}, nil
	}

	j, err := s.judge.Judge(ctx, p, answer)
	s.metrics.Record(metrics.Call{UsedAI: true, Kind: metrics.KindValidation, Duration: s.now().Sub(start)})
	if err != nil {
		return Verdict{Correct: false, Method: MethodAIUnavailable, Explanation: err.Error()}, nil
	}
	return Verdict{Correct: j.Correct, Method: MethodAI, Confidence: j.Confidence, Explanation: j.Explanation}, nil
}
