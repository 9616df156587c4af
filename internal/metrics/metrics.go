// Package metrics é um coletor em memória de contadores e tempos das chamadas
// de geração/validação de puzzles.
//
// Um resumo é logado periodicamente, no máximo uma vez por intervalo.
package metrics

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindGeneration Kind = "generation"
)

// Call descreve uma chamada de geração ou validação.
type Call struct {
	UsedAI   bool
	Kind     Kind
	Tokens   int
	Duration time.Duration
}

type Timing struct {
	Count   int64   `json:"count"`
	TotalMs float64 `json:"totalMs"`
	AvgMs   float64 `json:"avgMs"`
}

type Snapshot struct {
	Counters map[string]int64  `json:"counters"`
	Timings  map[string]Timing `json:"timings"`
}

type Collector struct {
	mu       sync.Mutex
	counters map[string]int64
	timings  map[string]Timing

	logger *zap.Logger
	dump   *rate.Sometimes
}

// New cria um coletor. interval <= 0 desliga o resumo periódico.
func New(logger *zap.Logger, interval time.Duration) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		counters: make(map[string]int64),
		timings:  make(map[string]Timing),
		logger:   logger,
	}
	if interval > 0 {
		c.dump = &rate.Sometimes{Interval: interval}
	}
	return c
}

func (c *Collector) Incr(name string, by int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[name] += by
}

func (c *Collector) RecordTiming(name string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.timings[name]
	t.Count++
	t.TotalMs += float64(d) / float64(time.Millisecond)
	c.timings[name] = t
}

// Record contabiliza uma chamada com os nomes <kind>.ai.* ou <kind>.local.*.
func (c *Collector) Record(call Call) {
	source := "local"
	if call.UsedAI {
		source = "ai"
	}
	prefix := string(call.Kind) + "." + source

	c.Incr(prefix+".calls", 1)
	if call.UsedAI && call.Tokens > 0 {
		c.Incr(prefix+".tokens", int64(call.Tokens))
	}
	if call.Duration > 0 {
		c.RecordTiming(prefix+".latency_ms", call.Duration)
	}

	c.maybeDump()
}

func (c *Collector) maybeDump() {
	if c.dump == nil {
		return
	}
	c.dump.Do(func() {
		snap := c.Snapshot()
		c.logger.Info("metrics summary",
			zap.Any("counters", snap.Counters),
			zap.Any("timings", snap.Timings))
	})
}

// Snapshot copia os valores atuais, com a média calculada.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := Snapshot{
		Counters: make(map[string]int64, len(c.counters)),
		Timings:  make(map[string]Timing, len(c.timings)),
	}
	for k, v := range c.counters {
		out.Counters[k] = v
	}
	for k, v := range c.timings {
		if v.Count > 0 {
			v.AvgMs = math.Round(v.TotalMs/float64(v.Count)*1000) / 1000
		}
		out.Timings[k] = v
	}
	return out
}
