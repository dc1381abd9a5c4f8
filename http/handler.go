package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/sagarc03/presignd"
)

// DefaultMaxBodyBytes bounds request bodies on the issuing endpoints.
const DefaultMaxBodyBytes = 64 << 10

// Issuer issues presigned URLs. *presignd.Issuer implements it.
type Issuer interface {
	IssuePutAndGet(ctx context.Context, key, contentType string) (presignd.RoundTrip, error)
	IssueGet(ctx context.Context, key string) (presignd.PresignedURL, error)
}

// Metrics instruments the router. The metrics package implements it.
type Metrics interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" validate:"min=0"`
}

type HandlerConfig struct {
	CORS CORSConfig
	// Metrics is optional; nil disables /metrics and request instrumentation.
	Metrics      Metrics
	MaxBodyBytes int64
}

// PresignPutRequest is the body of POST /presign-put.
type PresignPutRequest struct {
	Key         string `json:"key" validate:"required,max=1024"`
	ContentType string `json:"content_type" validate:"omitempty,max=255,printascii"`
}

// PresignPutResponse carries an upload URL and a download URL for the same key.
type PresignPutResponse struct {
	Key       string `json:"key"`
	PutURL    string `json:"put_url"`
	GetURL    string `json:"get_url"`
	ExpiresIn int    `json:"expires_in"`
}

// PresignGetRequest is the body of POST /presign-get.
type PresignGetRequest struct {
	Key string `json:"key" validate:"required,max=1024"`
}

// PresignGetResponse carries a download URL.
type PresignGetResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

// Handler serves the presigned URL issuing API.
type Handler struct {
	config   HandlerConfig
	issuer   Issuer
	validate *validator.Validate
}

// NewHandler creates a new Handler with the given configuration and issuer.
func NewHandler(config *HandlerConfig, issuer Issuer) *Handler {
	cfg := *config
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{
		config:   cfg,
		issuer:   issuer,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Router returns an http.Handler with all routes and middleware configured.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	if h.config.Metrics != nil {
		r.Use(h.config.Metrics.Middleware)
	}

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "not_found", "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	r.Post("/presign-put", h.handlePresignPut)
	r.Post("/presign-get", h.handlePresignGet)
	r.Get("/healthz", h.handleHealth)

	if h.config.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.config.Metrics.Handler())
	}

	return r
}

func (h *Handler) handlePresignPut(w http.ResponseWriter, r *http.Request) {
	var req PresignPutRequest
	if err := h.decode(w, r, &req); err != nil {
		HandleError(w, err)
		return
	}

	rt, err := h.issuer.IssuePutAndGet(r.Context(), req.Key, req.ContentType)
	if err != nil {
		writeIssueError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, PresignPutResponse{
		Key:       rt.Key,
		PutURL:    rt.PutURL,
		GetURL:    rt.GetURL,
		ExpiresIn: int(rt.ExpiresIn.Seconds()),
	})
}

func (h *Handler) handlePresignGet(w http.ResponseWriter, r *http.Request) {
	var req PresignGetRequest
	if err := h.decode(w, r, &req); err != nil {
		HandleError(w, err)
		return
	}

	u, err := h.issuer.IssueGet(r.Context(), req.Key)
	if err != nil {
		writeIssueError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, PresignGetResponse{
		URL:       u.URL,
		ExpiresIn: int(u.ExpiresIn.Seconds()),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a bounded JSON body into dst and validates it.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes)

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: body exceeds %d bytes", ErrInvalidRequest, maxErr.Limit)
		}
		return fmt.Errorf("%w: malformed JSON body", ErrInvalidRequest)
	}

	if err := h.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, validationMessage(err))
	}

	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := jsonFieldName(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s bytes", field, fe.Param()))
		case "printascii":
			msgs = append(msgs, field+" must be printable ASCII")
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func jsonFieldName(field string) string {
	switch field {
	case "ContentType":
		return "content_type"
	default:
		return strings.ToLower(field)
	}
}

func writeIssueError(w http.ResponseWriter, err error) {
	if errors.Is(err, presignd.ErrInvalidInput) {
		HandleError(w, err)
		return
	}
	WriteError(w, http.StatusInternalServerError, "presign_error", "presign error: "+err.Error())
}
