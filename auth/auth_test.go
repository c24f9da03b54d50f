package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func echoAuth(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Auth", r.Header.Get("Authorization"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, c *http.Client, url string) string {
	t.Helper()
	resp, err := c.Get(url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	return resp.Header.Get("X-Auth")
}

func TestStaticToken(t *testing.T) {
	api := echoAuth(t)
	c, err := NewHTTPClient(context.Background(), Conf{Token: "secret"})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if got := get(t, c, api.URL); got != "Bearer secret" {
		t.Fatalf("unexpected header %q", got)
	}
}

func TestClientCredentialsTokenIsCached(t *testing.T) {
	var issued atomic.Int32
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		issued.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"token123","token_type":"bearer","expires_in":3600}`))
	}))
	defer idp.Close()
	api := echoAuth(t)

	c, err := NewHTTPClient(context.Background(), Conf{ClientID: "id", ClientSecret: "s", TokenURL: idp.URL})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	for i := 0; i < 3; i++ {
		if got := get(t, c, api.URL); got != "Bearer token123" {
			t.Fatalf("unexpected header %q", got)
		}
	}
	if n := issued.Load(); n != 1 {
		t.Fatalf("expected one token request, got %d", n)
	}
}

func TestAnonymousAndInvalid(t *testing.T) {
	api := echoAuth(t)
	c, err := NewHTTPClient(context.Background(), Conf{})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if got := get(t, c, api.URL); got != "" {
		t.Fatalf("unexpected header %q", got)
	}
	if _, err := NewHTTPClient(context.Background(), Conf{TokenURL: "http://idp"}); err == nil {
		t.Fatal("expected error without client id")
	}
}
