// Package dispatch implements the gateway's accept-loop and worker-pool
// request dispatcher. net/http.Server plays the role of the external
// gateway library that owns connection acceptance and framing; this
// package sits underneath it as a bounded FIFO queue drained by a fixed
// pool of long-lived worker goroutines, so the handler itself never runs
// with more concurrency than the configured thread count.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// job is one unit of work waiting for a free worker.
type job struct {
	w    http.ResponseWriter
	r    *http.Request
	done chan struct{}
}

// Pool serves HTTP requests through a bounded queue of nWorkers long-lived
// goroutines, so the number of requests being handled concurrently is
// capped regardless of how many connections the listener accepts.
type Pool struct {
	handler http.Handler
	queue   chan job
	wg      sync.WaitGroup
}

// NewPool builds a Pool with nWorkers goroutines draining a queue of
// depth queueDepth, dispatching accepted requests to handler.
func NewPool(handler http.Handler, nWorkers, queueDepth int) *Pool {
	if nWorkers < 1 {
		nWorkers = 1
	}
	if queueDepth < 1 {
		queueDepth = nWorkers
	}
	p := &Pool{
		handler: handler,
		queue:   make(chan job, queueDepth),
	}
	p.wg.Add(nWorkers)
	for i := 0; i < nWorkers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.queue {
		p.handler.ServeHTTP(j.w, j.r)
		close(j.done)
	}
}

// ServeHTTP enqueues the request and blocks until a worker has served it,
// making Pool itself usable as the http.Server's Handler.
func (p *Pool) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	done := make(chan struct{})
	select {
	case p.queue <- job{w: w, r: r, done: done}:
	case <-r.Context().Done():
		http.Error(w, "request canceled", http.StatusServiceUnavailable)
		return
	}
	<-done
}

// Close stops accepting new work and waits for in-flight jobs to drain.
// The queue must already be free of new senders (call after http.Server.Shutdown).
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// Server bundles an http.Server fronted by a worker Pool with the
// gateway's graceful shutdown behavior.
type Server struct {
	httpServer *http.Server
	pool       *Pool
}

// NewServer builds a Server listening on addr, dispatching every request
// through a Pool of nWorkers workers backed by a queue of queueDepth —
// except healthHandler, which is mounted ahead of the pool on the raw
// http.Server so a liveness probe answers immediately instead of queuing
// behind login traffic.
func NewServer(addr string, handler, healthHandler http.Handler, nWorkers, queueDepth int) *Server {
	pool := NewPool(handler, nWorkers, queueDepth)

	mux := http.NewServeMux()
	mux.Handle("/health", healthHandler)
	mux.Handle("/", pool)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		pool: pool,
	}
}

// Run listens until ctx is canceled or a SIGINT/SIGTERM arrives, then
// drains in-flight requests before returning. A broken client connection
// must never take the process down, so SIGPIPE is ignored for the
// lifetime of the call.
func (s *Server) Run(ctx context.Context) error {
	signal.Ignore(syscall.SIGPIPE)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("dispatch: listen: %w", err)
			return
		}
		serveErr <- nil
	}()

	select {
	case <-sigCtx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dispatch: shutdown: %w", err)
	}
	s.pool.Close()
	return nil
}

// Addr returns the listen address the Server was constructed with, as
// passed to NewServer (not the address actually bound).
func (s *Server) Addr() string { return s.httpServer.Addr }
