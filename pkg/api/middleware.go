package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"talkbridge/pkg/logger"
	"talkbridge/pkg/utils"
)

// limiterPool keeps one token bucket per API key so an aggressive caller
// cannot starve the others.
type limiterPool struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   float64
	burst int
}

func (p *limiterPool) allow(key string) bool {
	p.mu.Lock()
	l, ok := p.m[key]
	if !ok {
		if p.m == nil {
			p.m = make(map[string]*rate.Limiter)
		}
		rps := p.rps
		if rps <= 0 {
			rps = 10
		}
		burst := p.burst
		if burst <= 0 {
			burst = 20
		}
		l = rate.NewLimiter(rate.Limit(rps), burst)
		p.m[key] = l
	}
	p.mu.Unlock()
	return l.Allow()
}

// authMiddleware enforces API-key auth and per-key rate limits. With no keys
// configured every caller is admitted; that mode is for local development
// and the startup banner calls it out.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys := s.cfg.Security.APIKeys
		if len(keys) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		key := bearerToken(r)
		if key == "" {
			logger.Warn("api_key_missing", "path", r.URL.Path, "remote", r.RemoteAddr)
			utils.JSONError(w, http.StatusUnauthorized, "missing api key")
			return
		}
		if !keyMatches(key, keys) {
			logger.Warn("api_key_rejected", "path", r.URL.Path, "remote", r.RemoteAddr)
			utils.JSONError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		if !s.limiters.allow(key) {
			utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func keyMatches(candidate string, keys []string) bool {
	for _, k := range keys {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(k)) == 1 {
			return true
		}
	}
	return false
}
