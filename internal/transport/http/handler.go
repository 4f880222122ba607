package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"viral_daily/internal/domain"
)

const (
	welcomeMessage = "Viral Daily API - Aggregating the most viral content from across the web!"

	defaultLimit = 10
	maxLimit     = 100
	defaultDays  = 7
)

type VideoService interface {
	Fetch(ctx context.Context, platform *domain.Platform, limit int) ([]domain.Video, error)
	History(ctx context.Context, days int, platform *domain.Platform) ([]domain.Video, error)
	Sources(ctx context.Context) ([]domain.SourceState, error)
}

type SubscriptionService interface {
	Create(ctx context.Context, in domain.SubscriptionCreate) (*domain.Subscription, error)
	ListActive(ctx context.Context) ([]domain.Subscription, error)
}

type DeliveryService interface {
	RunDailyDelivery(ctx context.Context) (*domain.DeliveryRun, error)
	Run(ctx context.Context, id string) (*domain.DeliveryRun, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	videos        VideoService
	subscriptions SubscriptionService
	deliveries    DeliveryService
	db            Pinger
	logger        *slog.Logger
	now           func() time.Time
}

func NewHandler(
	videos VideoService,
	subscriptions SubscriptionService,
	deliveries DeliveryService,
	db Pinger,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		videos:        videos,
		subscriptions: subscriptions,
		deliveries:    deliveries,
		db:            db,
		logger:        logger.With("component", "http"),
		now:           time.Now,
	}
}

type videoResponse struct {
	Videos   []domain.Video   `json:"videos"`
	Total    int              `json:"total"`
	Platform *domain.Platform `json:"platform"`
	Date     time.Time        `json:"date"`
}

type historyResponse struct {
	Videos []domain.Video `json:"videos"`
	Total  int            `json:"total"`
}

type subscriptionsResponse struct {
	Subscriptions []domain.Subscription `json:"subscriptions"`
	Total         int                   `json:"total"`
}

type deliverResponse struct {
	Message   string `json:"message"`
	RunID     string `json:"run_id"`
	Scheduled int    `json:"scheduled"`
}

type runResponse struct {
	*domain.DeliveryRun
	Pending int `json:"pending"`
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"message": welcomeMessage})
}

func (h *Handler) GetVideos(w http.ResponseWriter, r *http.Request) {
	platform, err := parsePlatform(r)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	limit, err := intParam(r, "limit", defaultLimit)
	if err != nil || limit < 1 || limit > maxLimit {
		writeError(w, h.logger, http.StatusBadRequest, fmt.Sprintf("limit must be an integer between 1 and %d", maxLimit))
		return
	}

	videos, err := h.videos.Fetch(r.Context(), platform, limit)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownPlatform) {
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to fetch videos", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Error fetching viral videos")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, videoResponse{
		Videos:   videos,
		Total:    len(videos),
		Platform: platform,
		Date:     h.now().UTC(),
	})
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	platform, err := parsePlatform(r)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	days, err := intParam(r, "days", defaultDays)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "days must be an integer")
		return
	}

	videos, err := h.videos.History(r.Context(), days, platform)
	if err != nil {
		if h.writeValidationError(w, err) {
			return
		}
		h.logger.Error("failed to fetch video history", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Error fetching video history")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, historyResponse{Videos: videos, Total: len(videos)})
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var in domain.SubscriptionCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sub, err := h.subscriptions.Create(r.Context(), in)
	if err != nil {
		if h.writeValidationError(w, err) {
			return
		}
		h.logger.Error("failed to create subscription", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Error creating subscription")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, sub)
}

func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subscriptions.ListActive(r.Context())
	if err != nil {
		h.logger.Error("failed to list subscriptions", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Error fetching subscriptions")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, subscriptionsResponse{Subscriptions: subs, Total: len(subs)})
}

func (h *Handler) DeliverDaily(w http.ResponseWriter, r *http.Request) {
	run, err := h.deliveries.RunDailyDelivery(r.Context())
	if err != nil {
		h.logger.Error("failed to schedule daily delivery", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Error scheduling daily delivery")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, deliverResponse{
		Message:   fmt.Sprintf("Daily delivery scheduled for %d subscribers", run.Scheduled),
		RunID:     run.ID,
		Scheduled: run.Scheduled,
	})
}

func (h *Handler) GetDelivery(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, h.logger, http.StatusNotFound, "delivery run not found")
		return
	}

	run, err := h.deliveries.Run(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "delivery run not found")
			return
		}
		h.logger.Error("failed to get delivery run", "run_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Error fetching delivery run")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, runResponse{DeliveryRun: run, Pending: run.Pending()})
}

func (h *Handler) GetSources(w http.ResponseWriter, r *http.Request) {
	states, err := h.videos.Sources(r.Context())
	if err != nil {
		h.logger.Error("failed to list sources", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Error fetching sources")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]any{"sources": states, "total": len(states)})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn("health check failed", "error", err)
		writeJSON(w, h.logger, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeValidationError(w http.ResponseWriter, err error) bool {
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		return false
	}
	writeJSON(w, h.logger, http.StatusBadRequest, errorResponse{
		Detail: validationErr.Message,
		Field:  validationErr.Field,
	})
	return true
}

// parsePlatform returns nil when no platform filter is requested.
func parsePlatform(r *http.Request) (*domain.Platform, error) {
	raw := r.URL.Query().Get("platform")
	if raw == "" || raw == "all" {
		return nil, nil
	}
	p, err := domain.ParsePlatform(raw)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
