// Package infra contém implementações concretas dos contratos do pacote domain.
//
//   - Store: janela fixa com reset preguiçoso, em memória
//   - RedisStore: a mesma janela fixa compartilhada entre instâncias via Redis
//   - MemoryStatsStore / RedisStatsStore: contadores de decisões
//   - ChanPool: semáforo simples para limitar concorrência
package infra
