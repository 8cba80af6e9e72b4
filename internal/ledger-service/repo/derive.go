package repo

import (
	"fmt"

	"github.com/google/uuid"
)

// Tags de derivação: o endereço de vault/bet/stats é função determinística da
// tag mais as identidades pai, então os mesmos inputs resolvem sempre para o
// mesmo endereço — nenhum registro auxiliar de endereços é necessário.
const (
	TagVault = "vault"
	TagBet   = "bet"
	TagStats = "stats"
)

// Namespace fixo das contas do sports-hub (UUIDv5)
var accountNamespace = uuid.MustParse("3f1c6f6a-9f83-4c57-b5e8-6d3ab1c0de42")

// VaultAddress deriva o endereço do vault a partir da identidade do dono
func VaultAddress(ownerID string) string {
	return derive(TagVault, ownerID)
}

// BetAddress deriva o endereço da aposta a partir de evento + jogador
func BetAddress(eventID, playerID string) string {
	return derive(TagBet, eventID, playerID)
}

// StatsAddress deriva o endereço das estatísticas de um jogador
func StatsAddress(playerID string) string {
	return derive(TagStats, playerID)
}

func derive(tag string, parents ...string) string {
	seed := tag
	for _, p := range parents {
		seed = fmt.Sprintf("%s:%s", seed, p)
	}
	return uuid.NewSHA1(accountNamespace, []byte(seed)).String()
}
