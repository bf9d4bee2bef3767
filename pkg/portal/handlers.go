package portal

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/utc-fetcher/utc-fetcher-go/pkg/body"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/credentials"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/handoff"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/log"
	"github.com/utc-fetcher/utc-fetcher-go/pkg/metrics"
)

type indexData struct {
	SetupSSID   string
	Action      string
	FieldName   string
	FieldSecret string
	Networks    []string
}

type submittedData struct {
	Network string
}

// routes builds the two-route router for one Start call.
func (s *Server) routes(slot *handoff.Slot[credentials.Credentials]) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.observe)

	r.Get(PathIndex, s.handleIndex)
	r.Post(PathSelect, s.handleSelect(slot))
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	names, err := s.currentNetworks(r.Context())
	if err != nil {
		s.logger.Warn("page scan failed", "error", err)
		http.Error(w, "network scan failed", http.StatusInternalServerError)
		return
	}

	s.render(w, http.StatusOK, "index.html", indexData{
		SetupSSID:   s.config.SetupSSID,
		Action:      PathSelect,
		FieldName:   credentials.FieldName,
		FieldSecret: credentials.FieldSecret,
		Networks:    names,
	})
}

func (s *Server) handleSelect(slot *handoff.Slot[credentials.Credentials]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, s.config.InitialBodySize)
		if _, err := body.ReadLimit(r.Body, &buf, s.config.MaxBodySize); err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, body.ErrTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			s.reject(w, r, status, err)
			return
		}

		creds, err := credentials.ParseForm(buf)
		if err != nil {
			s.reject(w, r, http.StatusBadRequest, err)
			return
		}
		if info := requestInfoFrom(r.Context()); info != nil {
			info.network = creds.Name()
		}

		if !slot.Put(creds) {
			s.reject(w, r, http.StatusConflict, errAlreadySubmitted)
			return
		}

		s.logger.Info("credentials submitted", "network", creds.Name(), "open", creds.Open())
		s.render(w, http.StatusOK, "submitted.html", submittedData{Network: creds.Name()})
	}
}

func (s *Server) reject(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.logger.Info("submission rejected", "status", status, "error", err, "remote", r.RemoteAddr)
	http.Error(w, rejectMessage(err), status)
}

// rejectMessage is the text shown to the browser. Parser detail can echo
// parts of the body, so only validation messages are passed through.
func rejectMessage(err error) string {
	switch {
	case errors.Is(err, credentials.ErrInvalid):
		return err.Error()
	case errors.Is(err, body.ErrTooLarge):
		return "submission too large"
	case errors.Is(err, errAlreadySubmitted):
		return errAlreadySubmitted.Error()
	default:
		return "malformed submission"
	}
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("template failed", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

type requestInfoKey struct{}

// requestInfo carries handler detail back to the observe middleware.
type requestInfo struct {
	network string
}

func requestInfoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(*requestInfo)
	return info
}

// observe records a request event and metrics for every request.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		info := &requestInfo{}
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info)))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.PortalRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()

		s.mu.Lock()
		cycleID := s.cycleID
		s.mu.Unlock()

		s.events.Log(log.Event{
			Timestamp: start,
			CycleID:   cycleID,
			Component: log.ComponentPortal,
			Category:  log.CategoryRequest,
			Request: &log.RequestEvent{
				Method:     r.Method,
				Path:       r.URL.Path,
				Status:     status,
				RemoteAddr: r.RemoteAddr,
				Duration:   time.Since(start),
				Network:    info.network,
			},
		})
	})
}
