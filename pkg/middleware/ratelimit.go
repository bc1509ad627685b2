package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/hugohenrick/kommand/internal/adapter/api/dto"
)

// DefaultIdle é o tempo sem uso após o qual o limitador de uma chave é descartado
const DefaultIdle = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter mantém um token bucket por chave (sessão, usuário ou IP)
type KeyedLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time

	stop      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// NewKeyedLimiter cria o limitador. perSecond <= 0 desliga o limite.
func NewKeyedLimiter(perSecond float64, burst int) *KeyedLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &KeyedLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		idle:     DefaultIdle,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// Allow consome um token da chave
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	now := l.now()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// Prune descarta as chaves sem uso há mais de idle
func (l *KeyedLimiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

// Len devolve o número de chaves acompanhadas
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Start sobe a limpeza periódica; termina com Close ou com o ctx
func (l *KeyedLimiter) Start(ctx context.Context) {
	l.startOnce.Do(func() {
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-l.stop:
					return
				case <-ticker.C:
					l.Prune()
				}
			}
		}()
	})
}

// Close encerra a limpeza periódica
func (l *KeyedLimiter) Close() {
	l.closeOnce.Do(func() {
		close(l.stop)
		l.wg.Wait()
	})
}

// RateLimit cria um middleware que responde 429 quando a chave estoura o limite.
// Sem keyFn a chave é o IP do cliente.
func RateLimit(l *KeyedLimiter, keyFn func(*gin.Context) string) gin.HandlerFunc {
	if keyFn == nil {
		keyFn = func(c *gin.Context) string { return c.ClientIP() }
	}
	return func(c *gin.Context) {
		if !l.Allow(keyFn(c)) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse(
				http.StatusTooManyRequests,
				"Muitas requisições",
				"Aguarde alguns instantes e tente novamente",
			))
			return
		}
		c.Next()
	}
}
