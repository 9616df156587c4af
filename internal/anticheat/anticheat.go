// Package anticheat rejeita submissões implausíveis do leaderboard antes de
// chegarem ao banco.
package anticheat

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Motivos de rejeição. A UI pode exibir direto ou mapear para outra mensagem.
const (
	ReasonInvalidName      = "Invalid name format"
	ReasonNameTooShort     = "Name too short"
	ReasonNameTooLong      = "Name too long"
	ReasonInvalidChars     = "Name contains invalid characters"
	ReasonInvalidTime      = "Invalid time format"
	ReasonTooFast          = "Completion time too fast (possible cheat)"
	ReasonTooSlow          = "Completion time too slow (session timeout)"
	ReasonFractionalSecond = "Time must be in whole seconds"
)

var nameChars = regexp.MustCompile(`^[A-Za-z0-9 \-_.]+$`)

// Rules são os limites da validação.
type Rules struct {
	MinTimeSeconds float64
	MaxTimeSeconds float64
	MinNameLength  int
	MaxNameLength  int
}

// DefaultRules: de 5s a 30min, nome de 1 a 50 caracteres.
var DefaultRules = Rules{
	MinTimeSeconds: 5,
	MaxTimeSeconds: 30 * 60,
	MinNameLength:  1,
	MaxNameLength:  50,
}

type Result struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

func reject(reason string) Result { return Result{Valid: false, Reason: reason} }

// Validate aplica as regras na ordem; a primeira que falhar define o motivo.
func (r Rules) Validate(name string, timeSeconds float64) Result {
	if name == "" {
		return reject(ReasonInvalidName)
	}

	trimmed := strings.TrimSpace(name)
	n := utf8.RuneCountInString(trimmed)
	if n < r.MinNameLength {
		return reject(ReasonNameTooShort)
	}
	if n > r.MaxNameLength {
		return reject(ReasonNameTooLong)
	}
	if !nameChars.MatchString(trimmed) {
		return reject(ReasonInvalidChars)
	}

	if math.IsNaN(timeSeconds) || math.IsInf(timeSeconds, 0) || timeSeconds <= 0 {
		return reject(ReasonInvalidTime)
	}
	if timeSeconds < r.MinTimeSeconds {
		return reject(ReasonTooFast)
	}
	if timeSeconds > r.MaxTimeSeconds {
		return reject(ReasonTooSlow)
	}
	if timeSeconds != math.Trunc(timeSeconds) {
		return reject(ReasonFractionalSecond)
	}

	return Result{Valid: true}
}

// SanitizeName remove espaços nas pontas e corta em MaxNameLength caracteres.
// Não revalida o conjunto de caracteres; roda depois de Validate.
func (r Rules) SanitizeName(name string) string {
	trimmed := strings.TrimSpace(name)
	if utf8.RuneCountInString(trimmed) <= r.MaxNameLength {
		return trimmed
	}
	return string([]rune(trimmed)[:r.MaxNameLength])
}

func Validate(name string, timeSeconds float64) Result {
	return DefaultRules.Validate(name, timeSeconds)
}

func SanitizeName(name string) string {
	return DefaultRules.SanitizeName(name)
}
