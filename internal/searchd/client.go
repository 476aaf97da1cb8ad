package searchd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"foxgrep/internal/domain"
	"foxgrep/internal/eventbus"
	"foxgrep/internal/query"
)

// chunkSize is the read size of the stream pump. Small enough that a
// big result set arrives over many deliveries; line boundaries fall
// wherever they fall.
const chunkSize = 4096

// ChunkSink receives the transformed result stream, one raw chunk at a
// time, always from a single goroutine per session.
type ChunkSink interface {
	Feed(id domain.SessionID, chunk []byte) error
}

// Service issues search requests against the backend and pumps the
// transformed result stream to the sink. It subscribes to
// SearchRequestedEvent and runs each request in its own goroutine;
// exactly one terminal event (completed or failed) is published per
// request. There are no automatic retries.
type Service struct {
	endpoint string
	client   *http.Client
	bus      eventbus.EventBus
	sink     ChunkSink
	baseCtx  context.Context

	mu      sync.Mutex
	running map[domain.SessionID]context.CancelFunc
}

// NewService creates the backend search service and wires it to the bus.
// Cancelling ctx aborts every in-flight request.
func NewService(ctx context.Context, bus eventbus.EventBus, sink ChunkSink, endpoint string) *Service {
	s := &Service{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
		bus:      bus,
		sink:     sink,
		baseCtx:  ctx,
		running:  make(map[domain.SessionID]context.CancelFunc),
	}

	bus.Subscribe(eventbus.EventSearchRequested, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.SearchRequestedEvent); ok {
			go s.Run(s.baseCtx, ev.Session, ev.Query)
		}
	})
	bus.Subscribe(eventbus.EventSessionClosed, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.SessionClosedEvent); ok {
			s.Cancel(ev.Session)
		}
	})

	return s
}

// Run performs one search round-trip for a session: build the request,
// transform the JSON body into the intermediate stream, and deliver it
// to the sink in chunks. Blocks until the stream ends or ctx is done.
func (s *Service) Run(ctx context.Context, id domain.SessionID, q domain.Query) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	// A new search for a reused session replaces the in-flight one.
	if old, ok := s.running[id]; ok {
		old()
	}
	s.running[id] = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.running, id)
		s.mu.Unlock()
		cancel()
	}()

	if err := s.run(ctx, id, q); err != nil {
		log.Printf("Session %d: search failed: %v", id, err)
		s.bus.Publish(eventbus.SearchFailedEvent{Session: id, Err: err})
		return
	}
	s.bus.Publish(eventbus.SearchCompletedEvent{Session: id})
}

// Cancel aborts the in-flight request for a session, if any. Lines
// already delivered stay rendered; the truncated tail is dropped by
// the renderer.
func (s *Service) Cancel(id domain.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.running[id]; ok {
		cancel()
	}
}

func (s *Service) run(ctx context.Context, id domain.SessionID, q domain.Query) error {
	reqURL, err := query.BuildRequestURL(s.endpoint, q)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	s.bus.Publish(eventbus.SearchStartedEvent{Session: id, Query: q})

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("backend returned %s", resp.Status)
	}

	// Transform into the pipe on one side, pump fixed-size chunks to
	// the sink on the other. The pump is the session's single delivery
	// channel. Buffering the writer means chunk boundaries land
	// wherever the buffer fills, not on line boundaries.
	pr, pw := io.Pipe()
	go func() {
		bw := bufio.NewWriterSize(pw, chunkSize)
		err := query.Transform(resp.Body, bw)
		if ferr := bw.Flush(); err == nil {
			err = ferr
		}
		pw.CloseWithError(err)
	}()

	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			pr.CloseWithError(err)
			return err
		}
		n, err := pr.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if ferr := s.sink.Feed(id, chunk); ferr != nil {
				// Session closed mid-stream; stop delivering.
				pr.CloseWithError(ferr)
				return ferr
			}
			s.bus.Publish(eventbus.ResultChunkEvent{Session: id, Data: chunk})
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to transform results: %w", err)
		}
	}
}
