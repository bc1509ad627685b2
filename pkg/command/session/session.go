// Package session guarda a memória curta de cada sessão: as entidades
// referenciadas por último, usadas para resolver "that order" e parâmetros
// omitidos.
package session

import (
	"context"
	"time"
)

// Valores padrão de retenção
const (
	DefaultTTL     = 30 * time.Minute
	DefaultMaxRefs = 20
)

// EntityRef registra que uma entidade foi referenciada na sessão
type EntityRef struct {
	Entity string    `json:"entity"`
	ID     int64     `json:"id"`
	At     time.Time `json:"at"`
}

// Snapshot é a visão imutável da memória, da referência mais recente para a mais antiga
type Snapshot struct {
	Refs []EntityRef `json:"refs"`
}

// Latest retorna o id da entidade do tipo informado referenciada por último
func (s Snapshot) Latest(entity string) (int64, bool) {
	for _, r := range s.Refs {
		if r.Entity == entity {
			return r.ID, true
		}
	}
	return 0, false
}

// Empty informa se não há nenhuma referência
func (s Snapshot) Empty() bool {
	return len(s.Refs) == 0
}

// Store é o armazenamento de memória por sessão
type Store interface {
	Snapshot(ctx context.Context, sessionID string) (Snapshot, error)
	Remember(ctx context.Context, sessionID string, refs ...EntityRef) error
	Forget(ctx context.Context, sessionID string) error
}

// merge coloca as novas referências na frente, remove duplicatas
// (entity, id) e limita o tamanho
func merge(existing []EntityRef, fresh []EntityRef, max int) []EntityRef {
	out := make([]EntityRef, 0, len(existing)+len(fresh))
	seen := make(map[EntityRef]bool, len(existing)+len(fresh))
	add := func(r EntityRef) {
		key := EntityRef{Entity: r.Entity, ID: r.ID}
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, r)
	}
	// a última referência nova é a mais recente
	for i := len(fresh) - 1; i >= 0; i-- {
		add(fresh[i])
	}
	for _, r := range existing {
		add(r)
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}
