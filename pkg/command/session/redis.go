package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore guarda a memória de sessão em uma lista Redis por sessão.
// A lista recebe as referências mais novas na frente e expira junto com a sessão.
type RedisStore struct {
	client  redis.Cmdable
	ttl     time.Duration
	maxRefs int
	prefix  string
}

// NewRedisClient cria o cliente a partir do endereço configurado
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedisStore cria o armazenamento Redis
func NewRedisStore(client redis.Cmdable, ttl time.Duration, maxRefs int) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxRefs <= 0 {
		maxRefs = DefaultMaxRefs
	}
	return &RedisStore{client: client, ttl: ttl, maxRefs: maxRefs, prefix: "kommand:session:"}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

// Snapshot lê a lista e remove duplicatas mantendo a ocorrência mais recente
func (s *RedisStore) Snapshot(ctx context.Context, sessionID string) (Snapshot, error) {
	raw, err := s.client.LRange(ctx, s.key(sessionID), 0, int64(s.maxRefs*2-1)).Result()
	if err != nil {
		if err == redis.Nil {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("erro ao ler sessão: %w", err)
	}

	refs := make([]EntityRef, 0, len(raw))
	for _, item := range raw {
		var r EntityRef
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			continue
		}
		refs = append(refs, r)
	}
	return Snapshot{Refs: merge(refs, nil, s.maxRefs)}, nil
}

// Remember empilha as referências, corta a lista e renova o TTL atomicamente
func (s *RedisStore) Remember(ctx context.Context, sessionID string, refs ...EntityRef) error {
	if len(refs) == 0 || sessionID == "" {
		return nil
	}
	now := time.Now()
	values := make([]any, 0, len(refs))
	for _, r := range refs {
		if r.At.IsZero() {
			r.At = now
		}
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("erro ao serializar referência: %w", err)
		}
		values = append(values, b)
	}

	key := s.key(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, values...)
		pipe.LTrim(ctx, key, 0, int64(s.maxRefs*2-1))
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("erro ao gravar sessão: %w", err)
	}
	return nil
}

// Forget apaga a sessão
func (s *RedisStore) Forget(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("erro ao apagar sessão: %w", err)
	}
	return nil
}
