package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ravi-cheetiralaav/app/internal/domain"
)

type orderRepo struct{ tx *tx }

func (r *orderRepo) Create(ctx context.Context, order *domain.Order) error {
	if err := r.tx.enter(ctx, FaultOrderCreate); err != nil {
		return err
	}
	s := r.tx.work
	if _, ok := s.orders[order.OrderID]; ok {
		return domain.Errorf(domain.ErrDuplicate, "order %s", order.OrderID)
	}
	if order.PickupCode != "" {
		for _, o := range s.orders {
			if o.PickupCode == order.PickupCode {
				return domain.Errorf(domain.ErrDuplicate, "pickup code")
			}
		}
	}
	stored := copyOrder(order)
	for i := range stored.Items {
		s.nextOrderItemID++
		stored.Items[i].ID = s.nextOrderItemID
		stored.Items[i].OrderID = order.OrderID
		order.Items[i].ID = s.nextOrderItemID
	}
	s.orders[order.OrderID] = stored
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	if err := r.tx.enter(ctx, ""); err != nil {
		return nil, err
	}
	o, ok := r.tx.work.orders[orderID]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "order %s", orderID)
	}
	return copyOrder(o), nil
}

// LockByID is FindByID: the transaction already holds the store.
func (r *orderRepo) LockByID(ctx context.Context, orderID string) (*domain.Order, error) {
	return r.FindByID(ctx, orderID)
}

func (r *orderRepo) LockByPickupCode(ctx context.Context, code string) (*domain.Order, error) {
	if err := r.tx.enter(ctx, ""); err != nil {
		return nil, err
	}
	for _, o := range r.tx.work.orders {
		if o.PickupCode == code {
			return copyOrder(o), nil
		}
	}
	return nil, domain.Errorf(domain.ErrNotFound, "pickup code")
}

func (r *orderRepo) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error) {
	if err := r.tx.enter(ctx, ""); err != nil {
		return nil, err
	}
	var out []*domain.Order
	for _, o := range r.tx.work.orders {
		if filter.Matches(o) {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].OrderID > out[j].OrderID
	})
	return out, nil
}

func (r *orderRepo) ReplaceItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	if err := r.tx.enter(ctx, FaultReplaceItems); err != nil {
		return err
	}
	s := r.tx.work
	o, ok := s.orders[orderID]
	if !ok {
		return domain.Errorf(domain.ErrNotFound, "order %s", orderID)
	}
	replaced := make([]domain.OrderItem, len(items))
	for i, it := range items {
		s.nextOrderItemID++
		it.ID = s.nextOrderItemID
		it.OrderID = orderID
		replaced[i] = it
		items[i].ID = it.ID
	}
	o.Items = replaced
	return nil
}

func (r *orderRepo) Update(ctx context.Context, order *domain.Order) error {
	if err := r.tx.enter(ctx, FaultOrderUpdate); err != nil {
		return err
	}
	o, ok := r.tx.work.orders[order.OrderID]
	if !ok {
		return domain.Errorf(domain.ErrNotFound, "order %s", order.OrderID)
	}
	o.Status = order.Status
	o.TotalAmount = order.TotalAmount
	o.Notes = order.Notes
	o.StockReleased = order.StockReleased
	o.DeletedAt = copyTime(order.DeletedAt)
	o.PickedUpAt = copyTime(order.PickedUpAt)
	o.UpdatedAt = order.UpdatedAt
	return nil
}

func (r *orderRepo) LogStatus(ctx context.Context, entry *domain.StatusLog) error {
	if err := r.tx.enter(ctx, FaultLogStatus); err != nil {
		return err
	}
	s := r.tx.work
	if _, ok := s.orders[entry.OrderID]; !ok {
		return domain.Errorf(domain.ErrNotFound, "order %s", entry.OrderID)
	}
	s.nextLogID++
	entry.ID = s.nextLogID
	s.statusLog = append(s.statusLog, copyStatusLog(entry))
	return nil
}

func (r *orderRepo) GetStatusHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error) {
	if err := r.tx.enter(ctx, ""); err != nil {
		return nil, err
	}
	var out []*domain.StatusLog
	for _, l := range r.tx.work.statusLog {
		if l.OrderID == orderID {
			out = append(out, copyStatusLog(l))
		}
	}
	return out, nil
}

type menuItemRepo struct{ tx *tx }

func (r *menuItemRepo) Create(ctx context.Context, item *domain.MenuItem) error {
	if err := r.tx.enter(ctx, ""); err != nil {
		return err
	}
	s := r.tx.work
	s.nextMenuItemID++
	item.ID = s.nextMenuItemID
	s.menuItems[item.ID] = copyMenuItem(item)
	return nil
}

func (r *menuItemRepo) Update(ctx context.Context, item *domain.MenuItem) error {
	if err := r.tx.enter(ctx, ""); err != nil {
		return err
	}
	m, ok := r.tx.work.menuItems[item.ID]
	if !ok {
		return domain.Errorf(domain.ErrNotFound, "menu item %d", item.ID)
	}
	qty := m.QuantityAvailable
	created := m.CreatedAt
	updated := copyMenuItem(item)
	updated.QuantityAvailable = qty
	updated.CreatedAt = created
	r.tx.work.menuItems[item.ID] = updated
	return nil
}

func (r *menuItemRepo) FindByID(ctx context.Context, id int64) (*domain.MenuItem, error) {
	if err := r.tx.enter(ctx, ""); err != nil {
		return nil, err
	}
	m, ok := r.tx.work.menuItems[id]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "menu item %d", id)
	}
	return copyMenuItem(m), nil
}

func (r *menuItemRepo) LockByIDs(ctx context.Context, ids []int64) (map[int64]*domain.MenuItem, error) {
	if err := r.tx.enter(ctx, ""); err != nil {
		return nil, err
	}
	out := make(map[int64]*domain.MenuItem, len(ids))
	for _, id := range ids {
		if m, ok := r.tx.work.menuItems[id]; ok {
			out[id] = copyMenuItem(m)
		}
	}
	return out, nil
}

func (r *menuItemRepo) AdjustStock(ctx context.Context, id int64, delta int) error {
	if err := r.tx.enter(ctx, FaultAdjustStock); err != nil {
		return err
	}
	m, ok := r.tx.work.menuItems[id]
	if !ok {
		return domain.Errorf(domain.ErrNotFound, "menu item %d", id)
	}
	if m.QuantityAvailable+delta < 0 {
		return domain.Errorf(domain.ErrInsufficientStock, "menu item %d has %d, change %d", id, m.QuantityAvailable, delta)
	}
	m.QuantityAvailable += delta
	return nil
}

func (r *menuItemRepo) ListByEvent(ctx context.Context, eventID string, includeInactive bool) ([]*domain.MenuItem, error) {
	if err := r.tx.enter(ctx, ""); err != nil {
		return nil, err
	}
	var out []*domain.MenuItem
	for _, m := range r.tx.work.menuItems {
		if m.EventID != eventID || (!includeInactive && !m.IsActive) {
			continue
		}
		out = append(out, copyMenuItem(m))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type eventRepo struct{ tx *tx }

func (r *eventRepo) Create(ctx context.Context, event *domain.Event) error {
	if err := r.tx.enter(ctx, ""); err != nil {
		return err
	}
	if _, ok := r.tx.work.events[event.EventID]; ok {
		return domain.Errorf(domain.ErrDuplicate, "event %s", event.EventID)
	}
	r.tx.work.events[event.EventID] = copyEvent(event)
	return nil
}

func (r *eventRepo) Update(ctx context.Context, event *domain.Event) error {
	if err := r.tx.enter(ctx, ""); err != nil {
		return err
	}
	e, ok := r.tx.work.events[event.EventID]
	if !ok {
		return domain.Errorf(domain.ErrNotFound, "event %s", event.EventID)
	}
	e.Name = event.Name
	e.Description = event.Description
	e.EventDate = event.EventDate
	e.CutoffDate = event.CutoffDate
	e.UpdatedAt = event.UpdatedAt
	return nil
}

func (r *eventRepo) FindByID(ctx context.Context, eventID string) (*domain.Event, error) {
	if err := r.tx.enter(ctx, ""); err != nil {
		return nil, err
	}
	e, ok := r.tx.work.events[eventID]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "event %s", eventID)
	}
	return copyEvent(e), nil
}

func (r *eventRepo) FindActive(ctx context.Context) (*domain.Event, error) {
	events, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		if e.IsActive {
			return e, nil
		}
	}
	return nil, domain.Errorf(domain.ErrNotFound, "no active event")
}

func (r *eventRepo) Activate(ctx context.Context, eventID string) error {
	if err := r.tx.enter(ctx, ""); err != nil {
		return err
	}
	if _, ok := r.tx.work.events[eventID]; !ok {
		return domain.Errorf(domain.ErrNotFound, "event %s", eventID)
	}
	for id, e := range r.tx.work.events {
		e.IsActive = id == eventID
	}
	return nil
}

func (r *eventRepo) List(ctx context.Context) ([]*domain.Event, error) {
	if err := r.tx.enter(ctx, ""); err != nil {
		return nil, err
	}
	out := make([]*domain.Event, 0, len(r.tx.work.events))
	for _, e := range r.tx.work.events {
		out = append(out, copyEvent(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].EventDate.After(out[j].EventDate)
		}
		return out[i].EventID < out[j].EventID
	})
	return out, nil
}

type userRepo struct{ tx *tx }

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	if err := r.tx.enter(ctx, ""); err != nil {
		return err
	}
	if _, ok := r.tx.work.users[user.UserID]; ok {
		return domain.Errorf(domain.ErrDuplicate, "user %s", user.UserID)
	}
	r.tx.work.users[user.UserID] = copyUser(user)
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, userID string) (*domain.User, error) {
	if err := r.tx.enter(ctx, ""); err != nil {
		return nil, err
	}
	u, ok := r.tx.work.users[userID]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "user %s", userID)
	}
	return copyUser(u), nil
}

func (r *userRepo) SetActive(ctx context.Context, userID string, active bool) error {
	if err := r.tx.enter(ctx, ""); err != nil {
		return err
	}
	u, ok := r.tx.work.users[userID]
	if !ok {
		return domain.Errorf(domain.ErrNotFound, "user %s", userID)
	}
	u.IsActive = active
	return nil
}

func (r *userRepo) List(ctx context.Context) ([]*domain.User, error) {
	if err := r.tx.enter(ctx, ""); err != nil {
		return nil, err
	}
	out := make([]*domain.User, 0, len(r.tx.work.users))
	for _, u := range r.tx.work.users {
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

type auditRepo struct{ tx *tx }

func (r *auditRepo) RecordDeletion(ctx context.Context, record *domain.DeletionRecord) error {
	if err := r.tx.enter(ctx, FaultRecordDeletion); err != nil {
		return err
	}
	s := r.tx.work
	if _, ok := s.orders[record.OrderID]; !ok {
		return domain.Errorf(domain.ErrNotFound, "order %s", record.OrderID)
	}
	s.nextDeletionID++
	record.ID = s.nextDeletionID
	d := *record
	s.deletions = append(s.deletions, &d)
	return nil
}

func (r *auditRepo) ListDeletions(ctx context.Context, orderID string) ([]*domain.DeletionRecord, error) {
	if err := r.tx.enter(ctx, ""); err != nil {
		return nil, err
	}
	var out []*domain.DeletionRecord
	for _, d := range r.tx.work.deletions {
		if orderID == "" || d.OrderID == orderID {
			c := *d
			out = append(out, &c)
		}
	}
	return out, nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
