package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"puzzle-gateway/middleware/ratelimit/domain"
)

type fakeStore struct {
	dec    domain.Decision
	err    error
	gotCfg domain.Config
	gotKey domain.Key
}

func (s *fakeStore) Check(_ context.Context, key domain.Key, cfg domain.Config) (domain.Decision, error) {
	s.gotKey = key
	s.gotCfg = cfg
	return s.dec, s.err
}

func TestService_Decide_AllowsWhenNoStore(t *testing.T) {
	svc := Service{}
	dec, err := svc.Decide(context.Background(), "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dec.Allowed {
		t.Fatalf("expected allowed")
	}
	if dec.Limit != domain.DefaultConfig.MaxRequests {
		t.Fatalf("expected default limit, got %d", dec.Limit)
	}
}

func TestService_Decide_UsesDefaultConfigWhenUnset(t *testing.T) {
	store := &fakeStore{dec: domain.Decision{Allowed: true}}
	svc := Service{Store: store}

	if _, err := svc.Decide(context.Background(), "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.gotCfg != domain.DefaultConfig {
		t.Fatalf("expected default config, got %+v", store.gotCfg)
	}
	if store.gotKey != "k" {
		t.Fatalf("expected key k, got %q", store.gotKey)
	}
}

func TestService_Decide_PassesConfiguredConfig(t *testing.T) {
	store := &fakeStore{dec: domain.Decision{Allowed: false}}
	cfg := domain.Config{MaxRequests: 10, Window: time.Second}
	svc := Service{Store: store, Config: cfg}

	dec, err := svc.Decide(context.Background(), "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec.Allowed {
		t.Fatalf("expected store decision to be returned")
	}
	if store.gotCfg != cfg {
		t.Fatalf("expected %+v, got %+v", cfg, store.gotCfg)
	}
}

func TestService_Decide_FailsOpenOnStoreError(t *testing.T) {
	boom := errors.New("redis down")
	svc := Service{Store: &fakeStore{err: boom}}

	dec, err := svc.Decide(context.Background(), "k")
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if !dec.Allowed {
		t.Fatalf("expected fail-open decision")
	}
}
