package httpclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cdnmirror/mirrorctl/httpclient"
)

func TestGetSucceedsAfterTransientFailures(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("x-goog-hash", "md5=XUFAKrxLKna5cZ2REBfFkg==")
		w.Write([]byte("hello"))
	}))
	defer server.Close()

	client := httpclient.New(httpclient.Options{RetryBudget: 3, BackoffBase: time.Millisecond})
	resp, body, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, want 200", resp.StatusCode)
	}
	if string(body) != "hello" {
		t.Fatalf("got body %q, want %q", body, "hello")
	}
	if got := attempts.Load(); got != 3 {
		t.Fatalf("got %d attempts, want 3", got)
	}
}

func TestGetFailsAfterExhaustingRetries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := httpclient.New(httpclient.Options{RetryBudget: 2, BackoffBase: time.Millisecond})
	_, _, err := client.Get(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected an error once retries are exhausted")
	}
	if got := attempts.Load(); got != 3 {
		t.Fatalf("got %d attempts, want 3 (1 initial + 2 retries)", got)
	}
}

func Test4xxIsNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := httpclient.New(httpclient.Options{RetryBudget: 3, BackoffBase: time.Millisecond})
	resp, _, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", resp.StatusCode)
	}
	if got := attempts.Load(); got != 1 {
		t.Fatalf("got %d attempts, want 1 (404 must not be retried)", got)
	}
}

func Test429IsRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("x-goog-hash", "md5=XUFAKrxLKna5cZ2REBfFkg==")
		w.Write([]byte("hello"))
	}))
	defer server.Close()

	client := httpclient.New(httpclient.Options{RetryBudget: 3, BackoffBase: time.Millisecond})
	resp, body, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, want 200", resp.StatusCode)
	}
	if string(body) != "hello" {
		t.Fatalf("got body %q, want %q", body, "hello")
	}
	if got := attempts.Load(); got != 3 {
		t.Fatalf("got %d attempts, want 3 (429 must be retried)", got)
	}
}

func TestHeadDiscardsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "5")
		w.Header().Set("x-goog-hash", "md5=XUFAKrxLKna5cZ2REBfFkg==")
		if r.Method == http.MethodHead {
			return
		}
		w.Write([]byte("hello"))
	}))
	defer server.Close()

	client := httpclient.New(httpclient.Options{RetryBudget: 1, BackoffBase: time.Millisecond})
	resp, err := client.Head(context.Background(), server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Header.Get("x-goog-hash") == "" {
		t.Fatal("expected the x-goog-hash header to be present")
	}
}
