package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/msig-dev/msig/pkg/bind"
	"github.com/msig-dev/msig/pkg/reactive"
)

// Hooks observe subscriber connections. *metrics.Collector implements it.
type Hooks interface {
	Connected(store string)
	Disconnected(store string)
}

// Config configures a Server.
type Config struct {
	// ReadBufferSize and WriteBufferSize size the WebSocket buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates the WebSocket Origin header.
	// Default: same-origin only (gorilla/websocket behavior).
	CheckOrigin func(*http.Request) bool

	// CallTimeout bounds how long a request waits for the runtime loop.
	// Default: 5s
	CallTimeout time.Duration

	// WriteTimeout bounds a single WebSocket frame write.
	// Default: 10s
	WriteTimeout time.Duration

	// Hooks receives connection events. Optional.
	Hooks Hooks

	// Logger for connection and error logs. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CallTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
	}
}

// Server publishes stores of one runtime.
type Server struct {
	rt       *reactive.Runtime
	config   *Config
	upgrader websocket.Upgrader
	router   chi.Router
	logger   *slog.Logger

	mu     sync.RWMutex
	stores map[string]*entry
}

// entry is the type-erased view of a published store. subscribe and
// snapshot must run on the runtime's goroutine.
type entry struct {
	name      string
	subscribe func(onChange func()) func()
	snapshot  func() ([]byte, error)
	// decode parses a request body and returns the write to apply on the
	// runtime's goroutine. Nil for read-only stores.
	decode func(body []byte) (func(), error)
}

// New creates a server for rt. A nil config uses DefaultConfig.
func New(rt *reactive.Runtime, config *Config) *Server {
	defaults := DefaultConfig()
	if config == nil {
		config = defaults
	} else {
		if config.ReadBufferSize == 0 {
			config.ReadBufferSize = defaults.ReadBufferSize
		}
		if config.WriteBufferSize == 0 {
			config.WriteBufferSize = defaults.WriteBufferSize
		}
		if config.CallTimeout == 0 {
			config.CallTimeout = defaults.CallTimeout
		}
		if config.WriteTimeout == 0 {
			config.WriteTimeout = defaults.WriteTimeout
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		rt:     rt,
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger: logger.With("component", "live"),
		stores: make(map[string]*entry),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/stores", s.handleList)
	r.Get("/stores/{name}", s.handleGet)
	r.Post("/stores/{name}", s.handleSet)
	r.Get("/stores/{name}/ws", s.handleWS)
	s.router = r

	return s
}

// Handler returns the server's routes for mounting in a router or
// http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Publish exposes store under name as a read-only store.
// Publishing a name twice replaces the earlier store.
func Publish[T any](s *Server, name string, store bind.Store[T]) {
	s.add(newEntry(name, store, nil))
}

// PublishWritable exposes store under name and accepts JSON writes, applied
// with write on the runtime's goroutine.
func PublishWritable[T any](s *Server, name string, store bind.Store[T], write func(T)) {
	s.add(newEntry(name, store, write))
}

func newEntry[T any](name string, store bind.Store[T], write func(T)) *entry {
	e := &entry{
		name:      name,
		subscribe: store.Subscribe,
		snapshot: func() ([]byte, error) {
			return json.Marshal(store.Snapshot())
		},
	}
	if write != nil {
		e.decode = func(body []byte) (func(), error) {
			var v T
			if err := json.Unmarshal(body, &v); err != nil {
				return nil, err
			}
			return func() { write(v) }, nil
		}
	}
	return e
}

func (s *Server) add(e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores[e.name] = e
}

func (s *Server) lookup(name string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.stores[name]
	return e, ok
}

// Names returns the published store names in sorted order.
func (s *Server) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.stores))
	for name := range s.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// call runs fn on the runtime's goroutine, bounded by CallTimeout.
func (s *Server) call(ctx context.Context, fn func()) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	defer cancel()
	return s.rt.Call(ctx, fn)
}

// snapshot reads e's current value as JSON.
func (s *Server) snapshot(ctx context.Context, e *entry) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if cerr := s.call(ctx, func() { data, err = e.snapshot() }); cerr != nil {
		return nil, cerr
	}
	return data, err
}
