// Package application contém os casos de uso do rate limit e do limite de
// concorrência, sem conhecer net/http.
//
// Service.Decide(ctx, key) devolve uma domain.Decision; ConcurrencyService
// controla as vagas de operações caras.
package application
