package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ravi-cheetiralaav/app/internal/adapter/logger"
	"github.com/ravi-cheetiralaav/app/internal/domain"
)

type ErrorResponse struct {
	Error   string          `json:"error"`
	Message string          `json:"message,omitempty"`
	Stock   *StockErrorBody `json:"stock,omitempty"`
}

type StockErrorBody struct {
	MenuItemID int64  `json:"menu_item_id"`
	Name       string `json:"name"`
	Requested  int    `json:"requested"`
	Available  int    `json:"available"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func statusOf(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindInvalidInput, domain.KindUnknownAction:
		return http.StatusBadRequest
	case domain.KindInsufficientStock, domain.KindOrderingClosed:
		return http.StatusUnprocessableEntity
	case domain.KindNotEditable, domain.KindAlreadyRedeemed, domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps a service error to its status. Internal errors are
// logged and hidden from the client.
func respondError(w http.ResponseWriter, r *http.Request, log logger.Logger, action string, err error) {
	kind := domain.KindOf(err)
	resp := ErrorResponse{Error: kind.String(), Message: err.Error()}

	if kind == domain.KindInternal {
		log.Error(action, "Request failed", requestIDOf(r), map[string]interface{}{"path": r.URL.Path}, err)
		resp.Message = "Internal server error"
	}

	var stockErr *domain.StockError
	if errors.As(err, &stockErr) {
		resp.Stock = &StockErrorBody{
			MenuItemID: stockErr.MenuItemID,
			Name:       stockErr.Name,
			Requested:  stockErr.Requested,
			Available:  stockErr.Available,
		}
	}

	writeJSON(w, statusOf(kind), resp)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: domain.KindInvalidInput.String(), Message: message})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// --- Response bodies ---

type OrderItemResponse struct {
	MenuItemID int64  `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	Subtotal   string `json:"subtotal"`
}

type OrderResponse struct {
	OrderID     string              `json:"order_id"`
	UserID      string              `json:"user_id"`
	EventID     string              `json:"event_id"`
	Status      domain.Status       `json:"status"`
	TotalAmount string              `json:"total_amount"`
	PickupCode  string              `json:"pickup_code"`
	Notes       string              `json:"notes,omitempty"`
	Items       []OrderItemResponse `json:"items"`
	PickedUpAt  *time.Time          `json:"picked_up_at,omitempty"`
	DeletedAt   *time.Time          `json:"deleted_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice.StringFixed(2),
			Subtotal:   it.Subtotal.StringFixed(2),
		}
	}
	return OrderResponse{
		OrderID:     o.OrderID,
		UserID:      o.UserID,
		EventID:     o.EventID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount.StringFixed(2),
		PickupCode:  o.PickupCode,
		Notes:       o.Notes,
		Items:       items,
		PickedUpAt:  o.PickedUpAt,
		DeletedAt:   o.DeletedAt,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func toOrderResponses(orders []*domain.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o)
	}
	return out
}

type MenuItemResponse struct {
	ID                int64           `json:"id"`
	EventID           string          `json:"event_id"`
	Name              string          `json:"name"`
	Description       string          `json:"description,omitempty"`
	Price             string          `json:"price"`
	Category          domain.Category `json:"category"`
	ImageURL          string          `json:"image_url,omitempty"`
	QtyPerUnit        string          `json:"qty_per_unit,omitempty"`
	Ingredients       []string        `json:"ingredients"`
	HealthBenefits    []string        `json:"health_benefits"`
	Calories          *int            `json:"calories,omitempty"`
	QuantityAvailable int             `json:"quantity_available"`
	IsActive          bool            `json:"is_active"`
}

func toMenuItemResponse(m *domain.MenuItem) MenuItemResponse {
	return MenuItemResponse{
		ID:                m.ID,
		EventID:           m.EventID,
		Name:              m.Name,
		Description:       m.Description,
		Price:             m.Price.StringFixed(2),
		Category:          m.Category,
		ImageURL:          m.ImageURL,
		QtyPerUnit:        m.QtyPerUnit,
		Ingredients:       nonNil(m.Ingredients),
		HealthBenefits:    nonNil(m.HealthBenefits),
		Calories:          m.Calories,
		QuantityAvailable: m.QuantityAvailable,
		IsActive:          m.IsActive,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type EventResponse struct {
	EventID     string `json:"event_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	EventDate   string `json:"event_date"`
	CutoffDate  string `json:"cutoff_date"`
	IsActive    bool   `json:"is_active"`
}

const dateLayout = "2006-01-02"

func toEventResponse(e *domain.Event) EventResponse {
	return EventResponse{
		EventID:     e.EventID,
		Name:        e.Name,
		Description: e.Description,
		EventDate:   e.EventDate.Format(dateLayout),
		CutoffDate:  e.CutoffDate.Format(dateLayout),
		IsActive:    e.IsActive,
	}
}

type UserResponse struct {
	UserID       string `json:"user_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	StreetName   string `json:"street_name,omitempty"`
	StreetCode   string `json:"street_code,omitempty"`
	HouseNumber  string `json:"house_number,omitempty"`
	GreetingWord string `json:"greeting_word,omitempty"`
	IsActive     bool   `json:"is_active"`
	IsAdmin      bool   `json:"is_admin"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		UserID:       u.UserID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		StreetName:   u.StreetName,
		StreetCode:   u.StreetCode,
		HouseNumber:  u.HouseNumber,
		GreetingWord: u.GreetingWord,
		IsActive:     u.IsActive,
		IsAdmin:      u.IsAdmin,
	}
}
