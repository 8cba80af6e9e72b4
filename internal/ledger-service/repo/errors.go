package repo

import "errors"

// Erros de validação das instruções do ledger. Uma instrução que falha com
// qualquer um deles não altera nenhuma conta.
var (
	ErrAlreadyInitialized = errors.New("vault already initialized")
	ErrVaultNotFound      = errors.New("vault not initialized")
	ErrEventExists        = errors.New("event already exists for external id")
	ErrEventNotFound      = errors.New("event not found")
	ErrInvalidStartTime   = errors.New("start time must be in the future")
	ErrBettingClosed      = errors.New("betting closed")
	ErrInvalidAmount      = errors.New("invalid bet amount")
	ErrInvalidOutcome     = errors.New("invalid outcome")
	ErrOutcomeMismatch    = errors.New("bet exists with a different outcome")
	ErrAlreadyResolved    = errors.New("event already resolved")
	ErrNotResolved        = errors.New("event not resolved")
	ErrBetNotFound        = errors.New("bet not found")
	ErrNotWinner          = errors.New("bet did not win")
	ErrAlreadyClaimed     = errors.New("reward already claimed")
	ErrInsufficientVault  = errors.New("insufficient vault funds")
	ErrNotSettleable      = errors.New("event not settleable")
)
