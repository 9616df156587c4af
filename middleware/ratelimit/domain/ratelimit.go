package domain

import (
	"context"
	"time"
)

// Key identifica um bucket de rate limit (normalmente o IP informado pelo cliente).
type Key string

// UnknownKey é usada quando a requisição não traz nenhum header de IP.
const UnknownKey Key = "unknown"

// Config define quantas requisições são admitidas por janela.
//
// É passada por valor a cada Check; cada middleware pode usar a sua.
// Valores inválidos (ex: MaxRequests=0) não são validados aqui.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

// DefaultConfig: 3 requisições a cada 5 minutos por identificador.
var DefaultConfig = Config{
	MaxRequests: 3,
	Window:      5 * time.Minute,
}

// Entry é o contador de uma chave dentro da janela corrente.
type Entry struct {
	Count     int
	ResetTime time.Time
}

// Expired indica se a janela já passou. Uma entrada expirada é tratada como
// ausente, mesmo que ainda não tenha sido removida pelo Cleanup.
func (e Entry) Expired(now time.Time) bool {
	return now.After(e.ResetTime)
}

// Decision é o resultado de um Check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime time.Time
}

// RetryAfter é o tempo até o fim da janela, nunca negativo.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if wait := d.ResetTime.Sub(now); wait > 0 {
		return wait
	}
	return 0
}

// LimiterStore guarda os contadores por chave.
//
// Check deve executar ler-verificar-incrementar como uma unidade atômica.
// A implementação em memória nunca retorna erro; a de Redis pode falhar por rede.
type LimiterStore interface {
	Check(ctx context.Context, key Key, cfg Config) (Decision, error)
}
