// Package httpfront implements the §6 HTTP front-end collaborator: each
// request is parsed into the `$Mapyrus.http.header`-style variable map,
// the named script is run against a freshly cloned Interpreter, and the
// response is written with whatever MIME type the script set via
// `mimetype` (default text/html). Built on a flat dispatch-with-alias-
// table shape plus connection bookkeeping, with a websocket push
// adapted into a live-reload notification instead of a game/event
// protocol.
package httpfront

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	mapyruserr "mapyrus/internal/errors"
	"mapyrus/internal/interp"
	"mapyrus/internal/output"
	"mapyrus/internal/preprocess"
	"mapyrus/internal/value"
)

// Template is the shared, never-executed Interpreter whose block
// registry and dataset wiring every request's clone inherits, per §5's
// "cloned from a template using the shared-block-registry rule".
type Template struct {
	it       *interp.Interpreter
	scriptFS string
}

// NewTemplate builds a request template rooted at scriptDir; a request's
// path (after stripping leading "/") names the script to run within it.
func NewTemplate(scriptDir string, opener interp.DatasetOpener) *Template {
	it := interp.New(output.NewRecording(), nil, nil)
	if opener != nil {
		it.SetDatasetOpener(opener)
	}
	return &Template{it: it, scriptFS: scriptDir}
}

// Server dispatches incoming requests to cloned interpreters and pushes
// a notification on its WebSocket clients whenever a script completes a
// newpage/endpage pair, tracked in a Clients set the way a websocket
// broadcast server keeps its connection bookkeeping.
type Server struct {
	tmpl       *Template
	upgrader   websocket.Upgrader
	secretHash []byte // bcrypt hash of the required "Mapyrus-Secret" header, nil = no check

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewServer wraps tmpl with the /ws live-reload endpoint.
func NewServer(tmpl *Template) *Server {
	return &Server{
		tmpl:     tmpl,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		clients:  make(map[*websocket.Conn]bool),
	}
}

// RequireSecret gates every request behind a bcrypt-hashed shared secret
// compared against the "Mapyrus-Secret" request header.
func (s *Server) RequireSecret(secret string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.secretHash = hash
	return nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	if s.secretHash != nil {
		if bcrypt.CompareHashAndPassword(s.secretHash, []byte(r.Header.Get("Mapyrus-Secret"))) != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	if r.URL.Path == "/ws" {
		s.serveWS(w, r, requestID)
		return
	}

	scriptName := strings.TrimPrefix(r.URL.Path, "/")
	if scriptName == "" {
		scriptName = "index.mapyrus"
	}

	headers := value.NewMap()
	for name, vals := range r.Header {
		if len(vals) > 0 {
			headers.Put(name, value.String(vals[0]))
		}
	}
	if err := r.ParseForm(); err == nil {
		for name, vals := range r.Form {
			if len(vals) > 0 {
				headers.Put(name, value.String(vals[0]))
			}
		}
	}

	var buf bytes.Buffer
	rec := output.NewRecording()
	clone := s.tmpl.it.Clone(rec)
	clone.SetStdout(&buf)
	clone.Stack().Bottom().DefineVariable("$Mapyrus.http.header", value.FromMap(headers))

	path := filepath.Join(s.tmpl.scriptFS, filepath.Clean("/"+scriptName))
	f, err := os.Open(path)
	if err != nil {
		http.Error(w, "script not found: "+scriptName, http.StatusNotFound)
		return
	}
	defer f.Close()

	pp := preprocess.New(scriptName, f, func(name string) (io.ReadCloser, error) {
		return os.Open(filepath.Join(s.tmpl.scriptFS, name))
	})

	if err := clone.RunSource(pp); err != nil {
		log.Printf("request %s: %v", requestID, err)
		if mapyruserr.Is(err, mapyruserr.Interrupted) {
			http.Error(w, "interrupted", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	mimeType := "text/html"
	if v, ok := clone.Stack().Bottom().LookupLocal("$Mapyrus.mimetype"); ok {
		mimeType = v.AsString()
	}
	w.Header().Set("Content-Type", mimeType)
	w.Write(buf.Bytes())

	for _, c := range rec.Calls {
		if c == "closePage" {
			s.notifyPageRendered(scriptName)
			break
		}
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request, requestID string) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("request %s: ws upgrade: %v", requestID, err)
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// notifyPageRendered pushes a "page rendered" event to every connected
// live-reload client tracked in the clients map.
func (s *Server) notifyPageRendered(script string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := []byte(`{"event":"page-rendered","script":"` + script + `"}`)
	for c := range s.clients {
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.Close()
			delete(s.clients, c)
		}
	}
}
