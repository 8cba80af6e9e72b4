package dedup

import "sync"

// Store é o registro local de idempotência do sync: externalIds já criados e
// já resolvidos neste processo. É só um atalho — o backstop de correção são os
// próprios checks do ledger (índice único de external_id, flag resolved).
// Perder este estado em um restart custa leituras redundantes, nunca
// duplicação.
type Store struct {
	mu       sync.Mutex
	created  map[int64]struct{}
	resolved map[int64]struct{}
}

// New retorna um registro vazio
func New() *Store {
	return &Store{
		created:  make(map[int64]struct{}),
		resolved: make(map[int64]struct{}),
	}
}

// MarkCreated registra que o mercado do externalId já existe no ledger
func (s *Store) MarkCreated(externalID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created[externalID] = struct{}{}
}

// WasCreated informa se o externalId já foi criado dentro desta vida do processo
func (s *Store) WasCreated(externalID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.created[externalID]
	return ok
}

// MarkResolved registra resolução concluída
func (s *Store) MarkResolved(externalID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved[externalID] = struct{}{}
}

// WasResolved informa se o externalId já foi resolvido dentro desta vida do processo
func (s *Store) WasResolved(externalID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.resolved[externalID]
	return ok
}

// Forget remove o externalId dos dois conjuntos (mercado retirado)
func (s *Store) Forget(externalID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.created, externalID)
	delete(s.resolved, externalID)
}

// Warm reconstrói os conjuntos a partir de um scan autoritativo do ledger,
// feito na subida do processo
func (s *Store) Warm(created, resolved []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range created {
		s.created[id] = struct{}{}
	}
	for _, id := range resolved {
		s.resolved[id] = struct{}{}
	}
}

// Sizes retorna o tamanho dos conjuntos (métricas)
func (s *Store) Sizes() (created, resolved int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.created), len(s.resolved)
}
