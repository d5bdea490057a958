package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalysis "github.com/renuka1112/cyberspy/internal/application/analysis"
	appcapture "github.com/renuka1112/cyberspy/internal/application/capture"
	appchat "github.com/renuka1112/cyberspy/internal/application/chat"
	"github.com/renuka1112/cyberspy/internal/domain/analysis"
	"github.com/renuka1112/cyberspy/internal/domain/assistant"
	"github.com/renuka1112/cyberspy/internal/infra/sysinfo"
	"github.com/renuka1112/cyberspy/internal/middleware"
)

// maxUploadBytes caps multipart uploads (32 MB is plenty for demo artifacts)
const maxUploadBytes = 32 << 20

type Router struct {
	analysisSvc *appanalysis.Service
	captureSvc  *appcapture.Service
	chatSvc     *appchat.Service
}

func NewRouter(analysisSvc *appanalysis.Service, captureSvc *appcapture.Service, chatSvc *appchat.Service, checkers map[string]middleware.HealthChecker) http.Handler {
	r := &Router{analysisSvc: analysisSvc, captureSvc: captureSvc, chatSvc: chatSvc}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)

	mux.Get("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "CyberSpy Core Active",
			"version": "2.0.0",
		})
	})
	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/health/ready", middleware.ReadinessHandler)
	mux.Get("/health/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/api", func(rt chi.Router) {
		rt.With(middleware.RateLimitMiddleware(10, 1)).Route("/analyze", func(an chi.Router) {
			an.Post("/file", r.wrap(r.handleAnalyzeFile))
			an.Post("/pcap", r.wrap(r.handleAnalyzePcap))
			an.Get("/latest", r.wrap(r.handleLatest))
		})
		rt.Post("/chat", r.wrap(r.handleChat))
		rt.Get("/dashboard/stats", r.wrap(r.handleDashboardStats))
		rt.Get("/network", r.wrap(r.handleNetworkScan))
		rt.Get("/stream", r.handleStream)
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if errors.Is(err, assistant.ErrQuotaExceeded) {
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// POST /api/analyze/file
// Multipart upload; the pipeline itself never fails a request, only an
// unreadable upload does.
func (r *Router) handleAnalyzeFile(w http.ResponseWriter, req *http.Request) error {
	content, header, err := readUpload(req)
	if err != nil {
		return err
	}

	middleware.IncrementAnalyses()

	result := r.analysisSvc.AnalyzeFile(req.Context(), appanalysis.AnalyzeFileCommand{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	})
	if result.Source == analysis.SourceFallback {
		middleware.IncrementFallbacks()
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(result)
}

// POST /api/analyze/pcap
func (r *Router) handleAnalyzePcap(w http.ResponseWriter, req *http.Request) error {
	file, header, err := openUpload(req)
	if err != nil {
		return err
	}
	defer file.Close()

	middleware.IncrementTraces()

	result, err := r.captureSvc.AnalyzeTrace(req.Context(), file, header.Filename)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(result)
}

// GET /api/analyze/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.analysisSvc.Latest(req.Context(), limit)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// POST /api/chat
// Body: {"message": "...", "context": "..."}
func (r *Router) handleChat(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Message string `json:"message"`
		Context string `json:"context"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	if body.Message == "" {
		return fmt.Errorf("message is required")
	}

	reply, err := r.chatSvc.Chat(req.Context(), body.Message, body.Context)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]string{"response": reply})
}

// GET /api/dashboard/stats
// Demo counters: pseudo-live numbers over a real system sample.
func (r *Router) handleDashboardStats(w http.ResponseWriter, req *http.Request) error {
	sys := sysinfo.Sample()
	ifaces, _ := sysinfo.Interfaces()

	now := time.Now().Unix()
	stats := map[string]any{
		"global_threats":   842000 + now%10000,
		"active_attacks":   sys.Goroutines*5 + rand.Intn(10),
		"threats_blocked":  762000 + now%500,
		"networks_secured": len(ifaces),
		"system_load":      sys,
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(stats)
}

// GET /api/network
func (r *Router) handleNetworkScan(w http.ResponseWriter, req *http.Request) error {
	ifaces, err := sysinfo.Interfaces()
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(ifaces)
}

// GET /api/stream
// Server-sent events: one telemetry frame per second until the client
// disconnects (a live system sample plus a simulated packet).
func (r *Router) handleStream(w http.ResponseWriter, req *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		frame := map[string]any{
			"system": sysinfo.Sample(),
			"packet": simulatedPacket(),
		}
		data, err := json.Marshal(frame)
		if err != nil {
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()

		select {
		case <-req.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func simulatedPacket() map[string]any {
	types := []string{"TCP", "UDP", "HTTP", "DNS", "SSH"}
	flags := []string{"SYN", "ACK", "FIN", "PSH"}

	pkt := map[string]any{
		"id":     time.Now().UnixMilli(),
		"type":   types[rand.Intn(len(types))],
		"size":   64 + rand.Intn(1437),
		"source": fmt.Sprintf("192.168.1.%d", 2+rand.Intn(253)),
	}
	if rand.Float64() > 0.5 {
		pkt["flag"] = flags[rand.Intn(len(flags))]
	}
	return pkt
}

func readUpload(req *http.Request) ([]byte, *multipart.FileHeader, error) {
	file, header, err := openUpload(req)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("read upload: %w", err)
	}
	return content, header, nil
}

func openUpload(req *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, nil, fmt.Errorf("parse upload: %w", err)
	}
	file, header, err := req.FormFile("file")
	if err != nil {
		return nil, nil, fmt.Errorf("file field is required: %w", err)
	}
	return file, header, nil
}
