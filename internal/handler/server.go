// Package handler implements the HTTP handlers for the recipient service.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, match.go, recipient.go) but share the same Server struct
// so they can access its dependencies.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/harvestlink/recipient-service/internal/domain"
)

// MatchServicer defines the matching operation the match handler depends on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the directory or service layer.
type MatchServicer interface {
	Match(ctx context.Context, offer domain.DonationOffer, radiusKm *float64) ([]domain.RecipientView, error)
}

// RecipientServicer defines the administration operations for recipients.
type RecipientServicer interface {
	Create(ctx context.Context, r domain.Recipient) (domain.Recipient, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Recipient, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Pinger reports whether the backing store is reachable. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server serves every API endpoint. Wire it in main.go via Routes.
type Server struct {
	matches    MatchServicer
	recipients RecipientServicer
	store      Pinger
	logger     *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// store may be nil, in which case /healthz only reports that the process is up.
func NewServer(matches MatchServicer, recipients RecipientServicer, store Pinger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{matches: matches, recipients: recipients, store: store, logger: logger}
}

// Routes returns a chi router with every endpoint registered.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Route("/recipients", func(r chi.Router) {
		r.Post("/", s.CreateRecipient)
		r.Post("/match", s.MatchRecipients)
		r.Get("/{id}", s.GetRecipient)
		r.Delete("/{id}", s.DeleteRecipient)
	})
	return r
}

// writeJSON encodes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// recipientID parses the {id} URL parameter, writing a 400 when it is not a UUID.
func recipientID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, badRequestBody("id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}
