package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tierd/pkg/types"
)

// Service defines the methods required by the HTTP API layer. *engine.Engine satisfies it.
type Service interface {
	Ready() bool
	ListModels() types.ModelsResponse
	GetModelInfo(id string) (types.ModelInfo, error)
	SelectOptimalModel(req types.SelectRequest) (types.Selection, error)
	GetMemoryStatus() types.MemoryStatus
	Generate(ctx context.Context, req types.GenerateRequest) (types.GenerateResponse, error)
	ManageModelLoading(ctx context.Context, req types.ManageRequest) (types.ManageResponse, error)
	HotSwapModels(ctx context.Context, req types.HotSwapRequest) (types.HotSwapResponse, error)
	BatchInference(ctx context.Context, req types.BatchRequest) (types.BatchResponse, error)
	CreateAgentSession(req types.SessionRequest) (types.SessionResponse, error)
	GetSystemStatus() types.SystemStatus
	OptimizeMemory(ctx context.Context, req types.OptimizeRequest) (types.OptimizeResponse, error)
}

// NewMux builds the router. Every /v1 endpoint speaks JSON; errors use types.ErrorResponse.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(AccessLog)
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		methods := corsAllowedMethods
		if len(methods) == 0 {
			methods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
		}
		headers := corsAllowedHeaders
		if len(headers) == 0 {
			headers = []string{"Content-Type", "X-Log-Level"}
		}
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: methods,
			AllowedHeaders: headers,
			MaxAge:         300,
		}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, svc.ListModels())
		})
		r.Get("/models/{id}", func(w http.ResponseWriter, r *http.Request) {
			info, err := svc.GetModelInfo(chi.URLParam(r, "id"))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, info)
		})
		r.Get("/memory", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, svc.GetMemoryStatus())
		})
		r.Get("/system", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, svc.GetSystemStatus())
		})

		r.Post("/generate", handleJSON(svc.Generate))
		r.Post("/select", handleJSON(func(_ context.Context, req types.SelectRequest) (types.Selection, error) {
			return svc.SelectOptimalModel(req)
		}))
		r.Post("/manage", handleJSON(svc.ManageModelLoading))
		r.Post("/hot-swap", handleJSON(svc.HotSwapModels))
		r.Post("/batch", handleJSON(svc.BatchInference))
		r.Post("/sessions", handleJSON(func(_ context.Context, req types.SessionRequest) (types.SessionResponse, error) {
			return svc.CreateAgentSession(req)
		}))
		r.Post("/optimize", handleJSON(svc.OptimizeMemory))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no models"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	return r
}

// handleJSON decodes a JSON body into Req, calls fn under the request context and
// encodes the response. Body and content-type checks are shared by every POST route.
func handleJSON[Req, Resp any](fn func(context.Context, Req) (Resp, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req Req
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		ctx, cancel := requestContext(r)
		defer cancel()
		resp, err := fn(ctx, req)
		if err != nil {
			if r.Context().Err() != nil {
				// client went away; nothing to write to
				return
			}
			if errors.Is(err, context.DeadlineExceeded) {
				writeJSONError(w, http.StatusGatewayTimeout, "request timed out")
				return
			}
			if serverBaseCtx.Err() != nil {
				writeJSONError(w, http.StatusServiceUnavailable, "server shutting down")
				return
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
