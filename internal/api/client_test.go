package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDoAttachesHeadersAndDecodes(t *testing.T) {
	var gotAuth, gotContentType, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get("X-Request-Id")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"issued"}`))
	}))
	defer srv.Close()

	c := NewClient("auth", srv.URL)
	var out struct {
		Token string `json:"token"`
	}
	err := c.Do(context.Background(), http.MethodPost, "/auth/login", "tok-1",
		map[string]string{"email": "a@b.c"}, &out)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out.Token != "issued" {
		t.Fatalf("token = %q, want %q", out.Token, "issued")
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Fatalf("Content-Type = %q", gotContentType)
	}
	if gotRequestID == "" {
		t.Fatal("X-Request-Id missing")
	}
}

func TestDoOmitsBearerWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient("auth", srv.URL)
	if err := c.Do(context.Background(), http.MethodGet, "/", "", nil, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("Authorization = %q, want empty", gotAuth)
	}
}

func TestMutateAttachesIdempotencyKey(t *testing.T) {
	keys := make(map[string]struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if k := r.Header.Get("X-Idempotency-Key"); k != "" {
			keys[k] = struct{}{}
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("ideas", srv.URL)
	for i := 0; i < 2; i++ {
		if err := c.Mutate(context.Background(), http.MethodPost, "/", "t", map[string]string{}, nil); err != nil {
			t.Fatalf("Mutate: %v", err)
		}
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 distinct idempotency keys, got %d", len(keys))
	}
}

func TestStatusToKindMapping(t *testing.T) {
	cases := []struct {
		status int
		want   Kind
	}{
		{401, KindUnauthorized},
		{403, KindForbidden},
		{404, KindNotFound},
		{400, KindInvalid},
		{422, KindInvalid},
		{500, KindServer},
		{503, KindServer},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(string(tc.want), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			c := NewClient("ideas", srv.URL)
			err := c.Do(context.Background(), http.MethodGet, "/", "t", nil, nil)
			if err == nil {
				t.Fatalf("expected failure for status %d", tc.status)
			}
			if got := KindOf(err); got != tc.want {
				t.Fatalf("KindOf = %q, want %q", got, tc.want)
			}
			var apiErr *Error
			if !errors.As(err, &apiErr) || apiErr.Status != tc.status {
				t.Fatalf("status not preserved: %v", err)
			}
		})
	}
}

func TestTransportFailureKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // closed on purpose

	c := NewClient("ideas", srv.URL)
	err := c.Do(context.Background(), http.MethodGet, "/", "", nil, nil)
	if KindOf(err) != KindTransport {
		t.Fatalf("KindOf = %q, want transport", KindOf(err))
	}
	if IsAuthFailure(err) {
		t.Fatal("transport failure misclassified as auth failure")
	}
}

func TestMalformedBodyIsServerKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient("auth", srv.URL)
	var out map[string]any
	err := c.Do(context.Background(), http.MethodGet, "/user/me", "t", nil, &out)
	if KindOf(err) != KindServer {
		t.Fatalf("KindOf = %q, want server", KindOf(err))
	}
}

func TestWithTimeoutDefaults(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), 0)
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected a deadline")
	}
	if remaining := time.Until(deadline); remaining <= 0 || remaining > defaultTimeout {
		t.Fatalf("unexpected deadline %v out", remaining)
	}
}
