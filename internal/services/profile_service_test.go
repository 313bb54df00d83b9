package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/harpoon-project/backend/internal/apperr"
	"github.com/harpoon-project/backend/internal/polymarket/gamma"
	"github.com/redis/go-redis/v9"
)

func TestExtractUsername(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"alice", "alice"},
		{"@alice", "alice"},
		{"https://polymarket.com/@bob", "bob"},
		{"polymarket.com/@bob", "bob"},
		{"https://polymarket.com/profile/carol", "carol"},
		{"polymarket.com/unrelated", ""},
		{"has spaces", ""},
	}

	for _, tc := range cases {
		if got := extractUsername(tc.input); got != tc.want {
			t.Errorf("extractUsername(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestResolveAddressPassThrough(t *testing.T) {
	svc := NewProfileService(&gamma.Client{}, nil)

	got, err := svc.Resolve(context.Background(), "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "0xab5801a7d398351b8be11c439e05c5b3259aec9b"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestResolveAddressInProfileURL(t *testing.T) {
	svc := NewProfileService(&gamma.Client{}, nil)

	got, err := svc.Resolve(context.Background(), "https://polymarket.com/profile/0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "0xab5801a7d398351b8be11c439e05c5b3259aec9b" {
		t.Errorf("unexpected address: %s", got)
	}
}

func TestResolveUsernameViaSearch(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path != "/public-search" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"profiles":[{"name":"Alice","proxyWallet":"0xAAAA000000000000000000000000000000000001"}]}`)
	}))
	defer srv.Close()

	gammaClient := &gamma.Client{BaseURL: srv.URL, HTTPClient: &http.Client{Timeout: 5 * time.Second}}
	svc := NewProfileService(gammaClient, redisClient)

	want := "0xaaaa000000000000000000000000000000000001"
	for i := 0; i < 2; i++ {
		got, err := svc.Resolve(context.Background(), "@alice")
		if err != nil {
			t.Fatalf("resolve %d failed: %v", i, err)
		}
		if got != want {
			t.Errorf("resolve %d: expected %s, got %s", i, want, got)
		}
	}
	if hits != 1 {
		t.Errorf("second resolve should be served from cache, got %d upstream hits", hits)
	}
}

func TestResolveUnknownUsername(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"profiles":[]}`)
	}))
	defer srv.Close()

	gammaClient := &gamma.Client{BaseURL: srv.URL, HTTPClient: &http.Client{Timeout: 5 * time.Second}}
	svc := NewProfileService(gammaClient, nil)

	_, err := svc.Resolve(context.Background(), "nobody")
	if err == nil {
		t.Fatal("expected an error")
	}
	var resErr *apperr.ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %T", err)
	}
}

func TestResolveEmptyInput(t *testing.T) {
	svc := NewProfileService(&gamma.Client{}, nil)

	_, err := svc.Resolve(context.Background(), "   ")
	var resErr *apperr.ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
}

func TestFetchPublicProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"profiles":[{"name":"Bob","pseudonym":"whale","proxyWallet":"0xBBBB000000000000000000000000000000000002"}]}`)
	}))
	defer srv.Close()

	gammaClient := &gamma.Client{BaseURL: srv.URL, HTTPClient: &http.Client{Timeout: 5 * time.Second}}
	svc := NewProfileService(gammaClient, nil)

	profile, err := svc.FetchPublicProfile(context.Background(), "0xBBBB000000000000000000000000000000000002")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile == nil || profile.Name != "Bob" {
		t.Errorf("expected Bob's profile, got %+v", profile)
	}
}
