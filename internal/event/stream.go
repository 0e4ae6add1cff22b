package event

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/HerbHall/showcase/pkg/plugin"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin        = (*Stream)(nil)
	_ plugin.HTTPProvider  = (*Stream)(nil)
	_ plugin.HealthChecker = (*Stream)(nil)
)

const (
	defaultStreamBuffer = 64
	streamWriteTimeout  = 5 * time.Second
)

// Stream is the "events" module: an admin-only WebSocket endpoint that
// forwards bus events as JSON messages. Clients may pass ?topic=prefix to
// receive only matching topics. A client that falls behind by more than the
// buffer loses events rather than blocking publishers.
type Stream struct {
	bus     plugin.EventBus
	logger  *zap.Logger
	origins []string
	buffer  int

	clients atomic.Int64
	dropped atomic.Int64

	mu   sync.Mutex
	done chan struct{}
}

// NewStream returns an uninitialized Stream module.
func NewStream() *Stream {
	return &Stream{done: make(chan struct{})}
}

func (s *Stream) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "events",
		Version:     "1.0.0",
		Description: "Live content change stream for admin clients",
		APIVersion:  plugin.APIVersionCurrent,
	}
}

// Init reads allowed_origins (comma-separated host patterns) and buffer.
func (s *Stream) Init(_ context.Context, deps plugin.Dependencies) error {
	s.bus = deps.Bus
	s.logger = deps.Logger
	s.buffer = defaultStreamBuffer
	if deps.Config != nil {
		for _, o := range strings.Split(deps.Config.GetString("allowed_origins"), ",") {
			if o = strings.TrimSpace(o); o != "" {
				s.origins = append(s.origins, o)
			}
		}
		if n := deps.Config.GetInt("buffer"); n > 0 {
			s.buffer = n
		}
	}
	return nil
}

func (s *Stream) Start(context.Context) error { return nil }

// Stop disconnects every client.
func (s *Stream) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	return nil
}

func (s *Stream) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "", Handler: s.handleStream, Admin: true},
	}
}

func (s *Stream) Health(context.Context) plugin.HealthStatus {
	return plugin.HealthStatus{
		Status: "healthy",
		Details: map[string]string{
			"clients": strconv.FormatInt(s.clients.Load(), 10),
			"dropped": strconv.FormatInt(s.dropped.Load(), 10),
		},
	}
}

// handleStream upgrades the request and forwards events until the client
// disconnects or the module stops.
func (s *Stream) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.origins})
	if err != nil {
		s.logger.Debug("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	prefix := r.URL.Query().Get("topic")
	events := make(chan plugin.Event, s.buffer)
	unsubscribe := s.bus.SubscribeAll(func(_ context.Context, e plugin.Event) {
		if !strings.HasPrefix(e.Topic, prefix) {
			return
		}
		select {
		case events <- e:
		default:
			s.dropped.Add(1)
		}
	})
	defer unsubscribe()

	s.clients.Add(1)
	defer s.clients.Add(-1)
	s.logger.Info("event stream client connected",
		zap.String("remote", r.RemoteAddr),
		zap.String("topic_prefix", prefix),
	)

	// The stream is write-only; CloseRead handles control frames and
	// cancels ctx when the client goes away.
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case e := <-events:
			wctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
			err := wsjson.Write(wctx, conn, e)
			cancel()
			if err != nil {
				s.logger.Debug("event stream write failed", zap.Error(err))
				return
			}
		}
	}
}
