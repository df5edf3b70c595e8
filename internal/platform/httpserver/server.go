package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	activitycore "concourse/contexts/federation/activity-core"
	activityerrors "concourse/contexts/federation/activity-core/domain/errors"
	activityhttp "concourse/contexts/federation/activity-core/transport/http"
	relayservice "concourse/contexts/federation/relay-service"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "concourse/internal/platform/httpserver/docs"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	activity activitycore.Module
	relay    relayservice.Module
}

func New(activityModule activitycore.Module, relayModule relayservice.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		activity: activityModule,
		relay:    relayModule,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Inbound federation. Transport signature verification happens in
	// front of these handlers; bodies arrive already authenticated.
	s.mux.HandleFunc("POST /inbox", s.handleInbox)
	s.mux.HandleFunc("POST /f/communities/{community_id}/inbox", s.handleCommunityInbox)

	// Local API surface.
	s.mux.HandleFunc("POST /api/federation/v1/objects/vote", s.handleSendVote)
	s.mux.HandleFunc("GET /api/federation/v1/objects/score", s.handleObjectScore)
	s.mux.HandleFunc("GET /api/federation/v1/communities/top", s.handleCommunityTop)
	s.mux.HandleFunc("GET /api/federation/v1/communities/followers", s.handleCommunityFollowers)
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	s.processInbox(w, r, "")
}

func (s *Server) handleCommunityInbox(w http.ResponseWriter, r *http.Request) {
	s.processInbox(w, r, r.PathValue("community_id"))
}

func (s *Server) processInbox(w http.ResponseWriter, r *http.Request, communityID string) {
	var req activityhttp.ActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeActivityError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	if err := s.activity.Handler.InboxHandler(r.Context(), req); err != nil {
		s.logger.Warn("inbound activity rejected",
			"event", "http_inbox_rejected",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"activity_id", req.ID,
			"community_id", communityID,
			"error", err.Error(),
		)
		writeActivityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, activityhttp.InboxAcceptedResponse{
		Status:     "accepted",
		ActivityID: req.ID,
	})
}

func (s *Server) handleSendVote(w http.ResponseWriter, r *http.Request) {
	var req activityhttp.SendVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeActivityError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.activity.Handler.SendVoteHandler(r.Context(), req)
	if err != nil {
		writeActivityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleObjectScore(w http.ResponseWriter, r *http.Request) {
	objectURI := strings.TrimSpace(r.URL.Query().Get("object_uri"))
	if objectURI == "" {
		writeActivityError(w, http.StatusBadRequest, "missing_object_uri", "object_uri query parameter is required")
		return
	}

	resp, err := s.activity.Handler.ObjectScoreHandler(r.Context(), objectURI)
	if err != nil {
		writeActivityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCommunityTop(w http.ResponseWriter, r *http.Request) {
	communityURI := strings.TrimSpace(r.URL.Query().Get("community_uri"))
	if communityURI == "" {
		writeActivityError(w, http.StatusBadRequest, "missing_community_uri", "community_uri query parameter is required")
		return
	}

	resp, err := s.activity.Handler.CommunityTopHandler(r.Context(), communityURI)
	if err != nil {
		writeActivityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCommunityFollowers(w http.ResponseWriter, r *http.Request) {
	communityURI := strings.TrimSpace(r.URL.Query().Get("community_uri"))
	if communityURI == "" {
		writeActivityError(w, http.StatusBadRequest, "missing_community_uri", "community_uri query parameter is required")
		return
	}

	resp, err := s.relay.Handler.CommunityFollowersHandler(r.Context(), communityURI)
	if err != nil {
		writeActivityError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeActivityDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, activityerrors.ErrMalformedActivity):
		writeActivityError(w, http.StatusBadRequest, "malformed_activity", err.Error())
	case errors.Is(err, activityerrors.ErrInvalidVoteValue):
		writeActivityError(w, http.StatusBadRequest, "invalid_vote_value", err.Error())
	case errors.Is(err, activityerrors.ErrDomainMismatch):
		writeActivityError(w, http.StatusForbidden, "domain_mismatch", err.Error())
	case errors.Is(err, activityerrors.ErrUnauthorizedActor):
		writeActivityError(w, http.StatusForbidden, "unauthorized_actor", err.Error())
	case errors.Is(err, activityerrors.ErrActorNotLocal):
		writeActivityError(w, http.StatusForbidden, "actor_not_local", err.Error())
	case errors.Is(err, activityerrors.ErrUnsupportedActivity):
		writeActivityError(w, http.StatusUnprocessableEntity, "unsupported_activity", err.Error())
	case errors.Is(err, activityerrors.ErrRecursionBudgetExceeded):
		writeActivityError(w, http.StatusUnprocessableEntity, "fetch_budget_exceeded", err.Error())
	case errors.Is(err, activityerrors.ErrUnresolvableReference):
		writeActivityError(w, http.StatusUnprocessableEntity, "unresolvable_reference", err.Error())
	case errors.Is(err, activityerrors.ErrActorNotFound),
		errors.Is(err, activityerrors.ErrObjectNotFound),
		errors.Is(err, activityerrors.ErrCommunityNotFound):
		writeActivityError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		writeActivityError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeActivityError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, activityhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
