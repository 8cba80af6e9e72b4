package ws

import "encoding/json"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// ExternalID: obrigatório para subscribe/unsubscribe
type ClientMsg struct {
	Type       string `json:"type"`       // subscribe | unsubscribe | ping
	ExternalID int64  `json:"externalId"` // requerido em subscribe/unsubscribe
}

// MarketUpdate representa uma atualização de mercado enviada aos clientes
// Kind: snapshot (pools/estado) | settlement (evento de liquidação)
type MarketUpdate struct {
	ExternalID int64           `json:"external_id"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
}
