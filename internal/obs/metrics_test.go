package obs

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInstrumentTransportPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	client := &http.Client{Transport: InstrumentTransport("test", nil)}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTeapot)
	}
}

func TestInstrumentTransportPropagatesError(t *testing.T) {
	sentinel := errors.New("boom")
	rt := InstrumentTransport("test", roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, sentinel
	}))

	req, _ := http.NewRequest(http.MethodGet, "http://unreachable.invalid/", nil)
	if _, err := rt.RoundTrip(req); !errors.Is(err, sentinel) {
		t.Fatalf("RoundTrip err = %v, want %v", err, sentinel)
	}
}
