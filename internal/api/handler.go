package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/rantbot/rantbot/internal/biz/domain"
	"github.com/rantbot/rantbot/internal/biz/usecase"
	"github.com/rantbot/rantbot/internal/metrics"
	"github.com/rantbot/rantbot/internal/service"
)

// Server is the HTTP surface: payment completions, the Discord relay and read-only context lookups
type Server struct {
	cmdSvc    *service.CommandService
	contextUC *usecase.UserContextUsecase
	metrics   *metrics.Metrics
	secret    string
	log       logrus.FieldLogger

	server *http.Server
	addr   string
}

// NewServer creates a new API server. An empty secret leaves /api open.
func NewServer(cmdSvc *service.CommandService, contextUC *usecase.UserContextUsecase, m *metrics.Metrics, secret, addr string, log logrus.FieldLogger) *Server {
	return &Server{
		cmdSvc:    cmdSvc,
		contextUC: contextUC,
		metrics:   m,
		secret:    secret,
		addr:      addr,
		log:       log.WithField("component", "api"),
	}
}

// Router builds the route table
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	if s.metrics != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	// Registered on the root router: a PathPrefix subrouter answers a
	// method mismatch with 404 instead of 405
	router.Handle("/api/payments/complete", s.requireSecret(http.HandlerFunc(s.handlePaymentComplete))).Methods(http.MethodPost)
	router.Handle("/api/discord/messages", s.requireSecret(http.HandlerFunc(s.handleDiscordMessage))).Methods(http.MethodPost)
	router.Handle("/api/discord/commands", s.requireSecret(http.HandlerFunc(s.handleDiscordCommand))).Methods(http.MethodPost)
	router.Handle("/api/context/{platform}/{userId}", s.requireSecret(http.HandlerFunc(s.handleGetContext))).Methods(http.MethodGet)

	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	})

	return router
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.WithField("addr", s.addr).Info("Starting HTTP server")
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) requireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.secret != "" {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) != 1 {
				s.writeError(w, http.StatusUnauthorized, errors.New("unauthorized"))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ============ Payments ============

// PaymentCompleteRequest is posted by the payment page once payment settles
type PaymentCompleteRequest struct {
	Token string `json:"token"`
}

func (s *Server) handlePaymentComplete(w http.ResponseWriter, r *http.Request) {
	var req PaymentCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}

	fulfilled, err := s.cmdSvc.Complete(r.Context(), req.Token)
	if err != nil {
		s.log.WithError(err).Error("Payment completion failed")
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	// Unknown or spent tokens are not an error to the caller
	s.writeJSON(w, map[string]bool{"fulfilled": fulfilled})
}

// ============ Discord relay ============

// DiscordMessageRequest is a guild message forwarded by the Discord relay
type DiscordMessageRequest struct {
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	DisplayName   string `json:"display_name"`
	Text          string `json:"text"`
	ReactionCount int    `json:"reaction_count"`
	TimestampMs   int64  `json:"timestamp_ms"`
}

func (s *Server) handleDiscordMessage(w http.ResponseWriter, r *http.Request) {
	var req DiscordMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		s.writeError(w, http.StatusBadRequest, domain.ErrInvalidUserID)
		return
	}

	msg := domain.IncomingMessage{
		Text:          req.Text,
		Username:      req.Username,
		DisplayName:   req.DisplayName,
		ReactionCount: req.ReactionCount,
	}
	if req.TimestampMs > 0 {
		msg.Timestamp = time.UnixMilli(req.TimestampMs)
	}

	ingested := s.cmdSvc.Ingest(r.Context(), domain.PlatformDiscord, req.UserID, msg)
	s.writeJSON(w, map[string]bool{"ingested": ingested})
}

// DiscordCommandRequest is a slash command forwarded by the Discord relay
type DiscordCommandRequest struct {
	Command       string `json:"command"`
	Argument      string `json:"argument"`
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	ChannelID     string `json:"channel_id"`
	GuildID       string `json:"guild_id"`
	ApplicationID string `json:"application_id"`
	MessageID     string `json:"message_id"`
}

// DiscordCommandResponse tells the relay where the user should pay
type DiscordCommandResponse struct {
	Token      string `json:"token"`
	PaymentURL string `json:"payment_url"`
}

func (s *Server) handleDiscordCommand(w http.ResponseWriter, r *http.Request) {
	var req DiscordCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.ChannelID) == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("channel_id is required"))
		return
	}

	link, err := s.cmdSvc.Request(r.Context(), service.CommandRequest{
		Platform:          domain.PlatformDiscord,
		Command:           domain.Command(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(req.Command), "/"))),
		Argument:          req.Argument,
		RequesterID:       req.UserID,
		RequesterUsername: req.Username,
		Target: domain.ReplyTarget{
			ChatID:        req.ChannelID,
			MessageID:     req.MessageID,
			GuildID:       req.GuildID,
			ApplicationID: req.ApplicationID,
		},
	})
	switch {
	case err == nil:
		s.writeJSON(w, DiscordCommandResponse{Token: link.Token, PaymentURL: link.URL})
	case errors.Is(err, domain.ErrEmptyTopic), errors.Is(err, domain.ErrUnknownCommand):
		s.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, service.ErrPlatformUnavailable):
		s.writeError(w, http.StatusServiceUnavailable, err)
	default:
		s.log.WithError(err).Error("Discord command failed")
		s.writeError(w, http.StatusBadGateway, err)
	}
}

// ============ Context ============

// ContextResponse is the read-only view of one user's summary
type ContextResponse struct {
	Platform     string `json:"platform"`
	UserID       string `json:"user_id"`
	Found        bool   `json:"found"`
	Username     string `json:"username,omitempty"`
	DisplayName  string `json:"display_name,omitempty"`
	MessageCount int    `json:"message_count"`
	Annotation   string `json:"annotation"`
}

func (s *Server) handleGetContext(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	platform, err := domain.ParsePlatform(vars["platform"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	resp := ContextResponse{Platform: string(platform), UserID: vars["userId"]}
	record := s.contextUC.GetContext(r.Context(), platform, vars["userId"])
	if record != nil {
		resp.Found = true
		resp.Username = record.Username
		resp.DisplayName = record.DisplayName
		resp.MessageCount = record.MessageCount
		resp.Annotation = s.contextUC.RenderForPrompt(record)
	}
	s.writeJSON(w, resp)
}

// ============ Helpers ============

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
