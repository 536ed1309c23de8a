package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ravi-cheetiralaav/app/internal/adapter/logger"
	"github.com/ravi-cheetiralaav/app/internal/domain"
	"github.com/ravi-cheetiralaav/app/internal/interfaces"
)

type CatalogHandler struct {
	service interfaces.CatalogService
	logger  logger.Logger
}

func NewCatalogHandler(service interfaces.CatalogService, logger logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger,
	}
}

type EventRequest struct {
	EventID     string `json:"event_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	EventDate   string `json:"event_date"`
	CutoffDate  string `json:"cutoff_date"`
	IsActive    bool   `json:"is_active"`
}

func (req EventRequest) toDomain() (*domain.Event, error) {
	eventDate, err := time.Parse(dateLayout, req.EventDate)
	if err != nil {
		return nil, domain.Errorf(domain.ErrInvalidInput, "event_date must be YYYY-MM-DD")
	}
	cutoffDate, err := time.Parse(dateLayout, req.CutoffDate)
	if err != nil {
		return nil, domain.Errorf(domain.ErrInvalidInput, "cutoff_date must be YYYY-MM-DD")
	}
	return &domain.Event{
		EventID:     req.EventID,
		Name:        req.Name,
		Description: req.Description,
		EventDate:   eventDate,
		CutoffDate:  cutoffDate,
		IsActive:    req.IsActive,
	}, nil
}

type MenuItemRequest struct {
	EventID           string          `json:"event_id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	Category          domain.Category `json:"category"`
	ImageURL          string          `json:"image_url"`
	QtyPerUnit        string          `json:"qty_per_unit"`
	Ingredients       []string        `json:"ingredients"`
	HealthBenefits    []string        `json:"health_benefits"`
	Calories          *int            `json:"calories"`
	QuantityAvailable int             `json:"quantity_available"`
	IsActive          bool            `json:"is_active"`
}

func (req MenuItemRequest) toDomain() *domain.MenuItem {
	return &domain.MenuItem{
		EventID:           req.EventID,
		Name:              req.Name,
		Description:       req.Description,
		Price:             req.Price,
		Category:          req.Category,
		ImageURL:          req.ImageURL,
		QtyPerUnit:        req.QtyPerUnit,
		Ingredients:       req.Ingredients,
		HealthBenefits:    req.HealthBenefits,
		Calories:          req.Calories,
		QuantityAvailable: req.QuantityAvailable,
		IsActive:          req.IsActive,
	}
}

type CreateUserRequest struct {
	UserID       string `json:"user_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	StreetName   string `json:"street_name"`
	StreetCode   string `json:"street_code"`
	HouseNumber  string `json:"house_number"`
	GreetingWord string `json:"greeting_word"`
	IsAdmin      bool   `json:"is_admin"`
}

type SetUserActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// --- Events ---

func (h *CatalogHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.ListEvents(r.Context())
	if err != nil {
		respondError(w, r, h.logger, "event_list_failed", err)
		return
	}

	resp := make([]EventResponse, len(events))
	for i, e := range events {
		resp[i] = toEventResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CatalogHandler) GetActiveEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.service.GetActiveEvent(r.Context())
	if err != nil {
		respondError(w, r, h.logger, "event_read_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(event))
}

func (h *CatalogHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	event, err := req.toDomain()
	if err != nil {
		respondError(w, r, h.logger, "event_create_failed", err)
		return
	}

	created, err := h.service.CreateEvent(r.Context(), callerFrom(r), event)
	if err != nil {
		respondError(w, r, h.logger, "event_create_failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventResponse(created))
}

func (h *CatalogHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	req.EventID = chi.URLParam(r, "id")
	event, err := req.toDomain()
	if err != nil {
		respondError(w, r, h.logger, "event_update_failed", err)
		return
	}

	updated, err := h.service.UpdateEvent(r.Context(), callerFrom(r), event)
	if err != nil {
		respondError(w, r, h.logger, "event_update_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(updated))
}

func (h *CatalogHandler) ActivateEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ActivateEvent(r.Context(), callerFrom(r), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.logger, "event_activate_failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Menu ---

func (h *CatalogHandler) ListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListMenu(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, "menu_list_failed", err)
		return
	}

	resp := make([]MenuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toMenuItemResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CatalogHandler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req MenuItemRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	item, err := h.service.CreateMenuItem(r.Context(), callerFrom(r), req.toDomain())
	if err != nil {
		respondError(w, r, h.logger, "menu_item_create_failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

// UpdateMenuItem ignores quantity_available; stock moves through restock.
func (h *CatalogHandler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		badRequest(w, "menu item id must be a number")
		return
	}
	var req MenuItemRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	item := req.toDomain()
	item.ID = id
	updated, err := h.service.UpdateMenuItem(r.Context(), callerFrom(r), item)
	if err != nil {
		respondError(w, r, h.logger, "menu_item_update_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(updated))
}

// --- Users ---

func (h *CatalogHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context(), callerFrom(r))
	if err != nil {
		respondError(w, r, h.logger, "user_list_failed", err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CatalogHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	user, err := h.service.CreateUser(r.Context(), callerFrom(r), interfaces.CreateUserCommand{
		UserID:       req.UserID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		StreetName:   req.StreetName,
		StreetCode:   req.StreetCode,
		HouseNumber:  req.HouseNumber,
		GreetingWord: req.GreetingWord,
		IsAdmin:      req.IsAdmin,
	})
	if err != nil {
		respondError(w, r, h.logger, "user_create_failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *CatalogHandler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	var req SetUserActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	if err := h.service.SetUserActive(r.Context(), callerFrom(r), chi.URLParam(r, "id"), req.IsActive); err != nil {
		respondError(w, r, h.logger, "user_update_failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
