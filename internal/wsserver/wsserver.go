// Package wsserver implements spec.md §6's server mode: a websocket
// endpoint that emits one generated test case per qualifying inbound
// message, replacing dharma.py's hand-rolled RFC6455 framing
// (dharma/core/websocket.py) with github.com/gorilla/websocket.
package wsserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/kelsodrake/dharma/internal/grammar/generator"
	"github.com/kelsodrake/dharma/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// inbound is the JSON shape a client sends per spec.md §6: a "status" field
// of "open", "success", or "closed".
type inbound struct {
	Status string `json:"status"`
}

// Server streams generated test cases over websocket connections. The
// generator engine's per-run state is not re-entrant (spec.md §5), so
// every call to Engine.Generate is serialized behind mu, matching the
// exclusive-lock expectation spec.md §5 places on any networked embedder.
type Server struct {
	Engine *generator.Engine

	mu sync.Mutex
}

// New builds a Server around an already-constructed generator engine.
func New(engine *generator.Engine) *Server {
	return &Server{Engine: engine}
}

// Start serves websocket connections on addr until ctx is canceled.
func (s *Server) Start(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleConn)
	httpSrv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return httpSrv.Close()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleConn(w http.ResponseWriter, r *http.Request) {
	log := logging.Get("wsserver")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Errorf("malformed client message: %v", err)
			continue
		}

		switch msg.Status {
		case "open", "success":
			out, err := s.generate()
			if err != nil {
				log.Errorf("generation failed: %v", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(out)); err != nil {
				return
			}
		case "closed":
			log.Infof("client closed session")
		default:
			log.Errorf("unrecognized client status %q", msg.Status)
		}
	}
}

func (s *Server) generate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Engine.Generate()
}
