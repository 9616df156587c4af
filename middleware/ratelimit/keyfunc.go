package ratelimit

import (
	"net/http"

	"puzzle-gateway/middleware/ratelimit/domain"
)

const (
	HeaderForwardedFor = "X-Forwarded-For"
	HeaderRealIP       = "X-Real-IP"
)

type KeyFunc func(r *http.Request) domain.Key

// DefaultKeyFunc usa o valor cru de X-Forwarded-For, depois X-Real-IP, senão
// "unknown". Não valida formato de IP: os headers são confiados como vierem,
// então um cliente pode forjá-los.
func DefaultKeyFunc(r *http.Request) domain.Key {
	if v := r.Header.Get(HeaderForwardedFor); v != "" {
		return domain.Key(v)
	}
	if v := r.Header.Get(HeaderRealIP); v != "" {
		return domain.Key(v)
	}
	return domain.UnknownKey
}

// NamespacedKeyFunc prefixa a chave, dando a cada rota um bucket próprio.
func NamespacedKeyFunc(namespace string, fn KeyFunc) KeyFunc {
	if namespace == "" {
		return fn
	}
	return func(r *http.Request) domain.Key {
		return domain.Key(namespace + ":" + string(fn(r)))
	}
}
