// Package ratelimit fornece os middlewares net/http de rate limit e de limite
// de concorrência.
//
// Camadas:
//
//   - domain: contratos e tipos (sem net/http)
//   - application: decisão allow/deny e aquisição de vagas
//   - infra: janela fixa em memória/Redis, estatísticas, semáforo
//   - ratelimit (este pacote): extração da chave, tradução para status/headers/JSON
//
// Fluxo:
//
//  1. Extrai o identificador (X-Forwarded-For, X-Real-IP ou "unknown")
//  2. Chama application.Service.Decide
//  3. Se bloqueado, responde 429 com JSON e headers X-RateLimit-*
//  4. Se admitido, coloca os headers e chama o próximo handler
package ratelimit
