// Package domain define os contratos e tipos do rate limit de janela fixa,
// das estatísticas de decisão e das vagas de concorrência.
//
// Não depende de net/http nem de implementações concretas (memória, Redis);
// isso fica no pacote infra.
package domain
