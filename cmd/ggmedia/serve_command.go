package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/gogpu/ggmedia"
	"github.com/gogpu/ggmedia/clock"
	"github.com/gogpu/ggmedia/lut"
	"github.com/gogpu/ggmedia/metrics"
	"github.com/gogpu/ggmedia/picture/raster"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var (
		flags propFlags
		bind  string
	)

	cmd := &cobra.Command{
		Use:   "serve URI",
		Short: "Play a preview and serve its frames over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if bind == "" {
				bind = cfg.Server.Bind
			}
			rt := newRuntime(cfg)
			props, err := flags.props(cfg, rt.gifs.FS, args[0])
			if err != nil {
				return err
			}

			log := ggmedia.Logger()
			pv := ggmedia.New(rt.options(clock.NewTicker(cfg.Preview.FPS))...)
			if err := pv.Mount(props); err != nil {
				return err
			}
			defer pv.Unmount()

			srv := &http.Server{
				Addr:              bind,
				Handler:           newRouter(&previewServer{pv: pv, props: props}, rt.metrics, log),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				log.Info("server listening", "addr", bind, "uri", args[0])
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			select {
			case err := <-errc:
				return err
			case <-cmd.Context().Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}

	flags.register(cmd, "video")
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address, defaults to the configured one")
	return cmd
}

// previewServer exposes one mounted preview.
type previewServer struct {
	pv *ggmedia.Preview

	mu    sync.Mutex
	props ggmedia.Props
}

type stateResponse struct {
	Session  string `json:"session"`
	Phase    string `json:"phase"`
	Error    string `json:"error,omitempty"`
	Playback string `json:"playback"`
	Paused   bool   `json:"paused"`
	Filter   string `json:"filter"`
}

type filterResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

func newRouter(s *previewServer, m *metrics.Metrics, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/frame.png", s.frame)
	r.Get("/state", s.state)
	r.Post("/pause", s.setPaused(true))
	r.Post("/play", s.setPaused(false))
	r.Get("/filters", s.filters)
	r.Put("/filter/{id}", s.setFilter)
	r.Method(http.MethodGet, "/metrics", m.Handler())
	return r
}

func (s *previewServer) frame(w http.ResponseWriter, r *http.Request) {
	pic := s.pv.Picture()
	if pic == nil {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	img, err := rasterize(pic, raster.Name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_ = png.Encode(w, img)
}

func (s *previewServer) state(w http.ResponseWriter, r *http.Request) {
	st := s.pv.State()
	s.mu.Lock()
	resp := stateResponse{
		Session:  s.pv.SessionID(),
		Phase:    st.Phase.String(),
		Playback: s.pv.Playback().String(),
		Paused:   s.props.Paused,
		Filter:   string(s.props.Filter),
	}
	s.mu.Unlock()
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *previewServer) setPaused(paused bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.props.Paused = paused
		s.mu.Unlock()
		s.pv.SetPaused(paused)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *previewServer) filters(w http.ResponseWriter, r *http.Request) {
	list := make([]filterResponse, 0, len(lut.Ordered()))
	for _, f := range lut.Ordered() {
		list = append(list, filterResponse{ID: string(f), Label: f.Label()})
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *previewServer) setFilter(w http.ResponseWriter, r *http.Request) {
	f, err := lut.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.props
	next.Filter = f
	if err := s.pv.Update(next); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.props = next
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// requestLogger logs method, path, status, duration and size of each request.
func requestLogger(log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrap := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrap, r)
			log.Debug("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrap.status),
				slog.Int("duration_ms", int(time.Since(start).Milliseconds())),
				slog.Int("size", wrap.size),
			)
		})
	}
}
