package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/eugenenazirov/supply-planner/internal/procurement"
	"github.com/eugenenazirov/supply-planner/internal/report"
	"github.com/eugenenazirov/supply-planner/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const defaultMaxQuantity = 1_000_000

var validate = validator.New(validator.WithRequiredStructEnabled())

// Handler wires planner and storage dependencies into HTTP handlers.
type Handler struct {
	planner procurement.Planner
	storage storage.Storage

	clock       func() time.Time
	maxQuantity int
	maxOffers   int

	mu              sync.RWMutex
	offersUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithMaxQuantity caps the quantity accepted by the plan endpoint.
func WithMaxQuantity(limit int) HandlerOption {
	return func(h *Handler) {
		if limit > 0 {
			h.maxQuantity = limit
		}
	}
}

// WithMaxOffers caps the number of offers a plan request may carry inline.
func WithMaxOffers(limit int) HandlerOption {
	return func(h *Handler) {
		if limit > 0 {
			h.maxOffers = limit
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(planner procurement.Planner, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		planner:     planner,
		storage:     store,
		maxQuantity: defaultMaxQuantity,
		maxOffers:   storage.DefaultMaxOffers,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.offersUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetOffers(w http.ResponseWriter, r *http.Request) {
	_ = r
	offers, err := h.storage.GetOffers()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := offersResponse{
		Offers:    offers,
		UpdatedAt: h.currentOffersUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutOffers(w http.ResponseWriter, r *http.Request) {
	var req offersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid offers", "offers must be provided as a list")
		return
	}

	if err := h.storage.SetOffers(req.Offers); err != nil {
		if errors.Is(err, storage.ErrTooManyOffers) {
			writeError(w, http.StatusBadRequest, "Invalid offers", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markOffersUpdated()

	offers, err := h.storage.GetOffers()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := offersResponse{
		Offers:    offers,
		UpdatedAt: h.currentOffersUpdatedAt(),
		Message:   "Offers updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "quantity must be a positive integer")
		return
	}
	if req.Quantity > h.maxQuantity {
		writeError(w, http.StatusBadRequest, "Invalid request", fmt.Sprintf("quantity must not exceed %d", h.maxQuantity))
		return
	}

	if len(req.Offers) > h.maxOffers {
		writeError(w, http.StatusBadRequest, "Invalid request",
			fmt.Sprintf("at most %d offers may be sent with a plan request, got %d", h.maxOffers, len(req.Offers)))
		return
	}

	offers := req.Offers
	if offers == nil {
		stored, err := h.storage.GetOffers()
		if err != nil {
			writeInternalError(w, err)
			return
		}
		offers = stored
	}

	start := time.Now()
	plan, planErr := h.planner.Plan(offers, req.Quantity)
	elapsed := time.Since(start)

	if planErr != nil {
		if errors.Is(planErr, procurement.ErrInvalidQuantity) {
			writeError(w, http.StatusBadRequest, "Invalid request", planErr.Error())
			return
		}
		if errors.Is(planErr, procurement.ErrProblemTooLarge) {
			writeError(w, http.StatusUnprocessableEntity, "Plan too large", planErr.Error(),
				"Reduce the quantity or send fewer offers")
			return
		}
		writeInternalError(w, planErr)
		return
	}

	if plan.Empty() {
		resp := errorResponse{
			Error:      "Cannot plan exactly",
			Details:    describeOutcome(plan.Outcome, req.Quantity),
			Suggestion: suggestionFor(plan.Outcome),
			Outcome:    string(plan.Outcome),
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	resp := planResponse{
		Report:            report.Build(req.Quantity, plan),
		PurchaseUnits:     plan.Units,
		CalculationTimeMs: elapsed.Milliseconds(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func describeOutcome(outcome procurement.Outcome, quantity int) string {
	switch outcome {
	case procurement.OutcomeInsufficientStock:
		return fmt.Sprintf("combined supplier stock is below %d units", quantity)
	case procurement.OutcomeNoExactCombination:
		return fmt.Sprintf("no combination of supplier packs adds up to exactly %d units", quantity)
	default:
		return fmt.Sprintf("no plan found for %d units", quantity)
	}
}

func suggestionFor(outcome procurement.Outcome) string {
	if outcome == procurement.OutcomeInsufficientStock {
		return "Add offers with more stock or lower the requested quantity"
	}
	return "Adjust the quantity to a sum of available pack sizes or add offers with smaller packs"
}

func (h *Handler) currentOffersUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.offersUpdatedAt
}

func (h *Handler) markOffersUpdated() {
	h.mu.Lock()
	h.offersUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type offersRequest struct {
	Offers []procurement.Offer `json:"offers" validate:"required"`
}

type planRequest struct {
	Quantity int                 `json:"quantity" validate:"gt=0"`
	Offers   []procurement.Offer `json:"offers,omitempty"`
}

type planResponse struct {
	report.Report
	PurchaseUnits     int   `json:"purchaseUnits"`
	CalculationTimeMs int64 `json:"calculationTimeMs"`
}

type offersResponse struct {
	Offers    []procurement.Offer `json:"offers"`
	UpdatedAt time.Time           `json:"updatedAt"`
	Message   string              `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Outcome    string `json:"outcome,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
