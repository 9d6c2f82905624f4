package dispatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolServesRequestsThroughWorkers(t *testing.T) {
	var served int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&served, 1)
		w.WriteHeader(http.StatusOK)
	})
	pool := NewPool(handler, 2, 4)
	defer pool.Close()

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/auth", nil)
		rec := httptest.NewRecorder()
		pool.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
		}
	}
	if got := atomic.LoadInt32(&served); got != 10 {
		t.Fatalf("served = %d, want 10", got)
	}
}

func TestPoolFallsBackToPositiveQueueDepth(t *testing.T) {
	pool := NewPool(http.NotFoundHandler(), 0, 0)
	defer pool.Close()
	if cap(pool.queue) < 1 {
		t.Fatal("queue depth should fall back to a positive default")
	}
}

func TestPoolServeHTTPCancelsOnContextDone(t *testing.T) {
	blocked := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	})
	pool := NewPool(handler, 1, 1)
	defer func() {
		close(blocked)
		pool.Close()
	}()

	// Fill the single worker with a blocked request, then fill the
	// single-slot queue, so a third request has nowhere to go.
	go func() {
		req := httptest.NewRequest(http.MethodGet, "/auth", nil)
		pool.ServeHTTP(httptest.NewRecorder(), req)
	}()
	time.Sleep(20 * time.Millisecond)

	go func() {
		req := httptest.NewRequest(http.MethodGet, "/auth", nil)
		pool.ServeHTTP(httptest.NewRecorder(), req)
	}()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/auth", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	cancel()
	pool.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 for a canceled context", rec.Code)
	}
}
