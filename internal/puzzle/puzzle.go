// Package puzzle serve puzzles ao cliente e confere respostas.
//
// A ordem de origem é: gerador (LLM), banco, lista local. Nenhuma delas é
// obrigatória; sem gerador nem banco o jogo roda só com a lista local.
package puzzle

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

type Type string

const (
	TypeRiddle Type = "riddle"
	TypeCipher Type = "cipher"
	TypeMath   Type = "math"
)

var Types = []Type{TypeRiddle, TypeCipher, TypeMath}

func (t Type) Valid() bool { return slices.Contains(Types, t) }

var (
	ErrNotFound         = errors.New("puzzle not found")
	ErrJudgeUnavailable = errors.New("answer judge not configured")
	ErrInvalidType      = errors.New("invalid puzzle type")
)

type Puzzle struct {
	ID       string `json:"id"`
	Type     Type   `json:"type"`
	Question string `json:"question"`
	Answer   string `json:"-"`
}

// Fallback é usado quando não há gerador nem banco.
var Fallback = []Puzzle{
	{ID: "p1", Type: TypeRiddle, Question: "I speak without a mouth and hear without ears. What am I?", Answer: "echo"},
	{ID: "p2", Type: TypeCipher, Question: "Solve: URYYB -> (Caesar shift 13)", Answer: "hello"},
	{ID: "p3", Type: TypeMath, Question: "What is 7 * 6?", Answer: "42"},
}

func fallbackByID(id string) (Puzzle, bool) {
	for _, p := range Fallback {
		if p.ID == id {
			return p, true
		}
	}
	return Puzzle{}, false
}

// BuildPrompt monta o prompt de usuário para o gerador.
func BuildPrompt(t Type, topic string) (string, error) {
	if !t.Valid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidType, t)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Create a short and fun %s puzzle suitable for an escape room.", t)
	if topic = strings.TrimSpace(topic); topic != "" {
		fmt.Fprintf(&b, " Topic: %s.", topic)
	}
	b.WriteString(" Return JSON only.")
	return b.String(), nil
}
