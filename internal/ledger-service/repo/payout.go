package repo

import "errors"

// ErrRewardOverflow indica estouro aritmético no cálculo do prêmio
var ErrRewardOverflow = errors.New("reward calculation overflow")

// Payout calcula o prêmio parimutuel proporcional: o pool perdedor é
// redistribuído na proporção da aposta dentro do pool vencedor.
//
//	payout = stake + stake * losingPool / winningPool
//
// Aritmética inteira com truncamento; o resto fracionário (dust) fica no vault.
func Payout(stakeCents, winningPool, losingPool int64) (int64, error) {
	if stakeCents <= 0 || winningPool <= 0 || losingPool < 0 {
		return 0, ErrRewardOverflow
	}
	product := stakeCents * losingPool
	if losingPool != 0 && product/losingPool != stakeCents {
		return 0, ErrRewardOverflow
	}
	rebate := product / winningPool
	payout := stakeCents + rebate
	if payout < stakeCents {
		return 0, ErrRewardOverflow
	}
	return payout, nil
}
