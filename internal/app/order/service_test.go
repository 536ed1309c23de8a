package order

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"

	"github.com/ravi-cheetiralaav/app/internal/adapter/logger"
	"github.com/ravi-cheetiralaav/app/internal/adapter/memory"
	"github.com/ravi-cheetiralaav/app/internal/domain"
	"github.com/ravi-cheetiralaav/app/internal/interfaces"
	"github.com/ravi-cheetiralaav/app/internal/pickupcode"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	ann     = domain.Caller{UserID: "Ann_MP_12", Role: domain.RoleCustomer}
	bob     = domain.Caller{UserID: "Bob_MP_14", Role: domain.RoleCustomer}
	ghost   = domain.Caller{UserID: "Ghost_MP_1", Role: domain.RoleCustomer}
	retired = domain.Caller{UserID: "Old_MP_3", Role: domain.RoleCustomer}
	admin   = domain.Caller{UserID: "admin", Role: domain.RoleAdmin}
)

const (
	eventID      = "spring-fair"
	otherEventID = "winter-fair"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []interfaces.OrderEventMessage
	err  error
}

func (p *recordingPublisher) PublishOrderEvent(_ context.Context, msg interfaces.OrderEventMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.msgs))
	for i, m := range p.msgs {
		out[i] = m.Type
	}
	return out
}

type OrderServiceSuite struct {
	suite.Suite

	ctx     context.Context
	store   *memory.Store
	clock   *clock
	pub     *recordingPublisher
	service *Service

	cookies  int64
	lemonade int64
	brownie  int64
	pie      int64
}

func TestOrderServiceSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceSuite))
}

func (s *OrderServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.clock = &clock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	s.pub = &recordingPublisher{}
	s.seed()
	s.service = s.newService(Options{})
}

func (s *OrderServiceSuite) newService(opts Options) *Service {
	issuer, err := pickupcode.NewIssuer([]byte("suite-secret-0123456789"))
	s.Require().NoError(err)
	if opts.Clock == nil {
		opts.Clock = s.clock.Now
	}
	return NewService(s.store, issuer, nil, s.pub, logger.NewNop(), opts)
}

func (s *OrderServiceSuite) seed() {
	tx, err := s.store.Begin(s.ctx)
	s.Require().NoError(err)
	defer tx.Rollback(s.ctx)

	users := []*domain.User{
		{UserID: ann.UserID, FirstName: "Ann", IsActive: true},
		{UserID: bob.UserID, FirstName: "Bob", IsActive: true},
		{UserID: retired.UserID, FirstName: "Old", IsActive: false},
		{UserID: admin.UserID, FirstName: "Admin", IsActive: true, IsAdmin: true},
	}
	for _, u := range users {
		s.Require().NoError(tx.Users().Create(s.ctx, u))
	}

	s.Require().NoError(tx.Events().Create(s.ctx, &domain.Event{
		EventID:    eventID,
		Name:       "Spring fair",
		EventDate:  time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		CutoffDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		IsActive:   true,
	}))
	s.Require().NoError(tx.Events().Create(s.ctx, &domain.Event{
		EventID:    otherEventID,
		Name:       "Winter fair",
		EventDate:  time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC),
		CutoffDate: time.Date(2026, 12, 14, 0, 0, 0, 0, time.UTC),
	}))

	items := []*domain.MenuItem{
		{EventID: eventID, Name: "Cookies", Price: decimal.RequireFromString("2.50"), Category: domain.CategoryDessert, QuantityAvailable: 5, IsActive: true},
		{EventID: eventID, Name: "Lemonade", Price: decimal.RequireFromString("1.00"), Category: domain.CategoryBeverage, QuantityAvailable: 10, IsActive: true},
		{EventID: eventID, Name: "Brownie", Price: decimal.RequireFromString("3.00"), Category: domain.CategoryDessert, QuantityAvailable: 10, IsActive: false},
		{EventID: otherEventID, Name: "Pie", Price: decimal.RequireFromString("4.00"), Category: domain.CategoryDessert, QuantityAvailable: 10, IsActive: true},
	}
	for _, m := range items {
		s.Require().NoError(tx.MenuItems().Create(s.ctx, m))
	}
	s.cookies, s.lemonade, s.brownie, s.pie = items[0].ID, items[1].ID, items[2].ID, items[3].ID

	s.Require().NoError(tx.Commit(s.ctx))
}

func (s *OrderServiceSuite) stock(id int64) int {
	tx, err := s.store.Begin(s.ctx)
	s.Require().NoError(err)
	defer tx.Rollback(s.ctx)
	m, err := tx.MenuItems().FindByID(s.ctx, id)
	s.Require().NoError(err)
	return m.QuantityAvailable
}

func (s *OrderServiceSuite) deletions(orderID string) []*domain.DeletionRecord {
	tx, err := s.store.Begin(s.ctx)
	s.Require().NoError(err)
	defer tx.Rollback(s.ctx)
	records, err := tx.Audit().ListDeletions(s.ctx, orderID)
	s.Require().NoError(err)
	return records
}

func (s *OrderServiceSuite) history(orderID string) []*domain.StatusLog {
	tx, err := s.store.Begin(s.ctx)
	s.Require().NoError(err)
	defer tx.Rollback(s.ctx)
	logs, err := tx.Orders().GetStatusHistory(s.ctx, orderID)
	s.Require().NoError(err)
	return logs
}

func (s *OrderServiceSuite) place(caller domain.Caller, lines ...domain.LineRequest) *domain.Order {
	o, err := s.service.CreateOrder(s.ctx, caller, interfaces.CreateOrderCommand{EventID: eventID, Items: lines})
	s.Require().NoError(err)
	return o
}

func line(id int64, qty int) domain.LineRequest {
	return domain.LineRequest{MenuItemID: id, Quantity: qty}
}

func (s *OrderServiceSuite) TestCookiesScenario() {
	a := s.place(ann, line(s.cookies, 3))
	s.Equal(2, s.stock(s.cookies))

	_, err := s.service.CreateOrder(s.ctx, bob, interfaces.CreateOrderCommand{
		EventID: eventID,
		Items:   []domain.LineRequest{line(s.cookies, 3)},
	})
	s.Require().ErrorIs(err, domain.ErrInsufficientStock)
	var stockErr *domain.StockError
	s.Require().ErrorAs(err, &stockErr)
	s.Equal("Cookies", stockErr.Name)
	s.Equal(3, stockErr.Requested)
	s.Equal(2, stockErr.Available)
	s.Equal(2, s.stock(s.cookies))

	edited, err := s.service.EditOrder(s.ctx, ann, a.OrderID, []domain.LineRequest{line(s.cookies, 1)})
	s.Require().NoError(err)
	s.Equal(4, s.stock(s.cookies))
	s.Equal("2.50", edited.TotalAmount.StringFixed(2))

	results, err := s.service.DeleteOrders(s.ctx, admin, []string{a.OrderID}, "customer cancelled by phone")
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.True(results[0].Success)
	s.Equal(4, s.stock(s.cookies), "delete keeps stock deducted by default")

	records := s.deletions(a.OrderID)
	s.Require().Len(records, 1)
	s.Equal(admin.UserID, records[0].DeletedBy)
	s.Equal("customer cancelled by phone", records[0].Reason)

	got, err := s.service.GetOrder(s.ctx, a.OrderID)
	s.Require().NoError(err)
	s.NotNil(got.DeletedAt)

	listed, err := s.service.ListOrders(s.ctx, domain.OrderFilter{UserID: ann.UserID})
	s.Require().NoError(err)
	s.Empty(listed)
}

func (s *OrderServiceSuite) TestCreateOrder() {
	o := s.place(ann, line(s.cookies, 2), line(s.lemonade, 3))

	s.Equal(domain.StatusPending, o.Status)
	s.Equal("8.00", o.TotalAmount.StringFixed(2))
	s.Len(o.PickupCode, pickupcode.Length)
	s.Contains(o.OrderID, "ORD_")
	s.Require().Len(o.Items, 2)
	s.Equal("5.00", o.Items[0].Subtotal.StringFixed(2))
	s.Equal(3, s.stock(s.cookies))
	s.Equal(7, s.stock(s.lemonade))

	logs := s.history(o.OrderID)
	s.Require().Len(logs, 1)
	s.Equal(domain.StatusPending, logs[0].Status)
	s.Equal(ann.UserID, logs[0].ChangedBy)

	s.Equal([]string{interfaces.EventOrderCreated}, s.pub.types())

	stored, err := s.service.GetOrder(s.ctx, o.OrderID)
	s.Require().NoError(err)
	s.Equal(o.PickupCode, stored.PickupCode)
	s.Len(stored.Items, 2)
}

func (s *OrderServiceSuite) TestCreateMergesDuplicateLines() {
	o := s.place(ann, line(s.cookies, 2), line(s.cookies, 2))
	s.Require().Len(o.Items, 1)
	s.Equal(4, o.Items[0].Quantity)
	s.Equal(1, s.stock(s.cookies))

	_, err := s.service.CreateOrder(s.ctx, bob, interfaces.CreateOrderCommand{
		EventID: eventID,
		Items:   []domain.LineRequest{line(s.lemonade, 6), line(s.lemonade, 6)},
	})
	var stockErr *domain.StockError
	s.Require().ErrorAs(err, &stockErr)
	s.Equal(12, stockErr.Requested)
	s.Equal(10, s.stock(s.lemonade))
}

func (s *OrderServiceSuite) TestCreateInfersEventFromFirstItem() {
	o, err := s.service.CreateOrder(s.ctx, ann, interfaces.CreateOrderCommand{
		Items: []domain.LineRequest{line(s.lemonade, 1)},
		Notes: "  no ice  ",
	})
	s.Require().NoError(err)
	s.Equal(eventID, o.EventID)
	s.Equal("no ice", o.Notes)
}

func (s *OrderServiceSuite) TestCreateRejections() {
	cases := []struct {
		name   string
		caller domain.Caller
		cmd    interfaces.CreateOrderCommand
		want   error
	}{
		{"empty order", ann, interfaces.CreateOrderCommand{EventID: eventID}, domain.ErrInvalidInput},
		{"zero quantity", ann, interfaces.CreateOrderCommand{EventID: eventID, Items: []domain.LineRequest{line(s.cookies, 0)}}, domain.ErrInvalidInput},
		{"admin caller", admin, interfaces.CreateOrderCommand{EventID: eventID, Items: []domain.LineRequest{line(s.cookies, 1)}}, domain.ErrForbidden},
		{"unknown user", ghost, interfaces.CreateOrderCommand{EventID: eventID, Items: []domain.LineRequest{line(s.cookies, 1)}}, domain.ErrForbidden},
		{"deactivated user", retired, interfaces.CreateOrderCommand{EventID: eventID, Items: []domain.LineRequest{line(s.cookies, 1)}}, domain.ErrForbidden},
		{"unknown item", ann, interfaces.CreateOrderCommand{EventID: eventID, Items: []domain.LineRequest{line(999, 1)}}, domain.ErrNotFound},
		{"inactive item", ann, interfaces.CreateOrderCommand{EventID: eventID, Items: []domain.LineRequest{line(s.brownie, 1)}}, domain.ErrNotFound},
		{"item of another event", ann, interfaces.CreateOrderCommand{EventID: eventID, Items: []domain.LineRequest{line(s.cookies, 1), line(s.pie, 1)}}, domain.ErrInvalidInput},
		{"inactive event", ann, interfaces.CreateOrderCommand{EventID: otherEventID, Items: []domain.LineRequest{line(s.pie, 1)}}, domain.ErrOrderingClosed},
		{"unknown event", ann, interfaces.CreateOrderCommand{EventID: "nope", Items: []domain.LineRequest{line(s.cookies, 1)}}, domain.ErrNotFound},
		{"quantity above cap", ann, interfaces.CreateOrderCommand{EventID: eventID, Items: []domain.LineRequest{line(s.cookies, domain.MaxItemQuantity+1)}}, domain.ErrInvalidInput},
		{"max int quantity", ann, interfaces.CreateOrderCommand{EventID: eventID, Items: []domain.LineRequest{line(s.cookies, math.MaxInt)}}, domain.ErrInvalidInput},
		{"repeated lines wrap int", ann, interfaces.CreateOrderCommand{EventID: eventID, Items: []domain.LineRequest{line(s.cookies, math.MaxInt), line(s.cookies, math.MaxInt)}}, domain.ErrInvalidInput},
		{"repeated lines above cap", ann, interfaces.CreateOrderCommand{EventID: eventID, Items: []domain.LineRequest{line(s.cookies, domain.MaxItemQuantity), line(s.cookies, 1)}}, domain.ErrInvalidInput},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.CreateOrder(s.ctx, tc.caller, tc.cmd)
			s.ErrorIs(err, tc.want)
		})
	}

	s.Equal(5, s.stock(s.cookies))
	orders, err := s.service.ListOrders(s.ctx, domain.OrderFilter{IncludeDeleted: true})
	s.Require().NoError(err)
	s.Empty(orders)
	s.Empty(s.pub.types())
}

func (s *OrderServiceSuite) TestCutoffGuard() {
	cmd := interfaces.CreateOrderCommand{EventID: eventID, Items: []domain.LineRequest{line(s.cookies, 1)}}

	s.clock.Set(time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC))
	_, err := s.service.CreateOrder(s.ctx, ann, cmd)
	s.Require().NoError(err, "the cutoff day itself is open")

	tokyo := s.newService(Options{Location: time.FixedZone("JST", 9*60*60)})
	_, err = tokyo.CreateOrder(s.ctx, ann, cmd)
	s.ErrorIs(err, domain.ErrOrderingClosed, "already the 15th in Tokyo")

	s.clock.Set(time.Date(2026, 3, 15, 0, 0, 1, 0, time.UTC))
	_, err = s.service.CreateOrder(s.ctx, ann, cmd)
	s.ErrorIs(err, domain.ErrOrderingClosed)
	s.Equal(domain.KindOrderingClosed, domain.KindOf(err))
	s.Equal(4, s.stock(s.cookies))
}

type staleCache struct {
	event *domain.Event
	err   error
	sets  int
}

func (c *staleCache) Get(context.Context, string) (*domain.Event, bool, error) {
	if c.err != nil {
		return nil, false, c.err
	}
	return c.event, c.event != nil, nil
}

func (c *staleCache) Set(context.Context, *domain.Event) error {
	c.sets++
	return nil
}

func (c *staleCache) Invalidate(context.Context, string) error { return nil }

func (s *OrderServiceSuite) TestCutoffReadsThroughCache() {
	issuer, err := pickupcode.NewIssuer([]byte("suite-secret-0123456789"))
	s.Require().NoError(err)
	cmd := interfaces.CreateOrderCommand{EventID: eventID, Items: []domain.LineRequest{line(s.cookies, 1)}}

	broken := &staleCache{err: errors.New("redis down")}
	svc := NewService(s.store, issuer, broken, s.pub, logger.NewNop(), Options{Clock: s.clock.Now})
	_, err = svc.CreateOrder(s.ctx, ann, cmd)
	s.Require().NoError(err, "cache failures fall back to the store")
	s.Equal(1, broken.sets)

	closed := &staleCache{event: &domain.Event{EventID: eventID, IsActive: false}}
	svc = NewService(s.store, issuer, closed, s.pub, logger.NewNop(), Options{Clock: s.clock.Now})
	_, err = svc.CreateOrder(s.ctx, ann, cmd)
	s.ErrorIs(err, domain.ErrOrderingClosed)
	s.Equal(0, closed.sets)
}

func (s *OrderServiceSuite) TestConcurrentOrdersNeverOversell() {
	const buyers = 20

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		short     int
	)
	for i := 0; i < buyers; i++ {
		caller := ann
		if i%2 == 1 {
			caller = bob
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.CreateOrder(s.ctx, caller, interfaces.CreateOrderCommand{
				EventID: eventID,
				Items:   []domain.LineRequest{line(s.cookies, 1)},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientStock):
				short++
			default:
				s.Failf("unexpected error", "%v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(5, succeeded)
	s.Equal(buyers-5, short)
	s.Equal(0, s.stock(s.cookies))

	orders, err := s.service.ListOrders(s.ctx, domain.OrderFilter{})
	s.Require().NoError(err)
	reserved := 0
	for _, o := range orders {
		for _, it := range o.Items {
			reserved += it.Quantity
		}
	}
	s.Equal(5, reserved+s.stock(s.cookies))
}

func (s *OrderServiceSuite) TestEditIsAtomic() {
	o := s.place(ann, line(s.cookies, 2))

	_, err := s.service.EditOrder(s.ctx, ann, o.OrderID, []domain.LineRequest{line(s.cookies, 2), line(s.lemonade, 20)})
	s.Require().ErrorIs(err, domain.ErrInsufficientStock)

	s.store.InjectFault(memory.FaultAdjustStock, errors.New("lost connection"))
	_, err = s.service.EditOrder(s.ctx, ann, o.OrderID, []domain.LineRequest{line(s.lemonade, 1)})
	s.Require().Error(err)
	s.Equal(domain.KindInternal, domain.KindOf(err))

	got, err := s.service.GetOrder(s.ctx, o.OrderID)
	s.Require().NoError(err)
	s.Require().Len(got.Items, 1)
	s.Equal(s.cookies, got.Items[0].MenuItemID)
	s.Equal(2, got.Items[0].Quantity)
	s.Equal("5.00", got.TotalAmount.StringFixed(2))
	s.Equal(3, s.stock(s.cookies))
	s.Equal(10, s.stock(s.lemonade))
}

func (s *OrderServiceSuite) TestEditCanGrowIntoReleasedStock() {
	o := s.place(ann, line(s.cookies, 5))
	s.Equal(0, s.stock(s.cookies))

	edited, err := s.service.EditOrder(s.ctx, ann, o.OrderID, []domain.LineRequest{line(s.cookies, 5), line(s.lemonade, 2)})
	s.Require().NoError(err)
	s.Equal("14.50", edited.TotalAmount.StringFixed(2))
	s.Equal(0, s.stock(s.cookies))
	s.Equal(8, s.stock(s.lemonade))
}

func (s *OrderServiceSuite) TestEditRules() {
	o := s.place(ann, line(s.cookies, 1))
	lines := []domain.LineRequest{line(s.cookies, 2)}

	_, err := s.service.EditOrder(s.ctx, bob, o.OrderID, lines)
	s.ErrorIs(err, domain.ErrForbidden)

	_, err = s.service.EditOrder(s.ctx, ann, "ORD_missing", lines)
	s.ErrorIs(err, domain.ErrNotFound)

	oversized := [][]domain.LineRequest{
		{line(s.cookies, math.MaxInt)},
		{line(s.cookies, math.MaxInt), line(s.cookies, math.MaxInt)},
		{line(s.cookies, domain.MaxItemQuantity), line(s.cookies, 1)},
	}
	for _, bad := range oversized {
		_, err = s.service.EditOrder(s.ctx, ann, o.OrderID, bad)
		s.ErrorIs(err, domain.ErrInvalidInput)
	}
	unchanged, err := s.service.GetOrder(s.ctx, o.OrderID)
	s.Require().NoError(err)
	s.Require().Len(unchanged.Items, 1)
	s.Equal(1, unchanged.Items[0].Quantity)
	s.True(unchanged.TotalAmount.Equal(decimal.RequireFromString("2.50")))
	s.Equal(4, s.stock(s.cookies))

	_, err = s.service.TransitionOrder(s.ctx, admin, o.OrderID, domain.ActionApprove)
	s.Require().NoError(err)
	_, err = s.service.EditOrder(s.ctx, ann, o.OrderID, lines)
	s.ErrorIs(err, domain.ErrReadOnly)
	s.ErrorIs(err, domain.ErrNotEditable)

	r := s.place(ann, line(s.cookies, 1))
	_, err = s.service.TransitionOrder(s.ctx, admin, r.OrderID, domain.ActionReject)
	s.Require().NoError(err)
	_, err = s.service.EditOrder(s.ctx, ann, r.OrderID, lines)
	s.ErrorIs(err, domain.ErrNotEditable)
	s.NotErrorIs(err, domain.ErrReadOnly)

	d := s.place(ann, line(s.cookies, 1))
	_, err = s.service.DeleteOrders(s.ctx, admin, []string{d.OrderID}, "duplicate")
	s.Require().NoError(err)
	_, err = s.service.EditOrder(s.ctx, ann, d.OrderID, lines)
	s.ErrorIs(err, domain.ErrNotFound)

	s.Equal(2, s.stock(s.cookies))
}

func (s *OrderServiceSuite) TestTransitions() {
	o := s.place(ann, line(s.cookies, 2))

	_, err := s.service.TransitionOrder(s.ctx, ann, o.OrderID, domain.ActionApprove)
	s.ErrorIs(err, domain.ErrForbidden)

	_, err = s.service.TransitionOrder(s.ctx, admin, o.OrderID, domain.Action("ship"))
	s.ErrorIs(err, domain.ErrUnknownAction)

	approved, err := s.service.TransitionOrder(s.ctx, admin, o.OrderID, domain.ActionApprove)
	s.Require().NoError(err)
	s.Equal(domain.StatusApproved, approved.Status)

	_, err = s.service.TransitionOrder(s.ctx, admin, o.OrderID, domain.ActionReject)
	s.ErrorIs(err, domain.ErrInvalidTransition)
	s.Equal(domain.KindConflict, domain.KindOf(err))

	logs := s.history(o.OrderID)
	s.Require().Len(logs, 2)
	s.Equal(domain.StatusApproved, logs[1].Status)
	s.Equal(admin.UserID, logs[1].ChangedBy)

	r := s.place(bob, line(s.cookies, 1))
	rejected, err := s.service.TransitionOrder(s.ctx, admin, r.OrderID, domain.ActionReject)
	s.Require().NoError(err)
	s.Equal(domain.StatusRejected, rejected.Status)
	s.False(rejected.StockReleased)
	s.Equal(2, s.stock(s.cookies), "reject keeps stock deducted by default")

	_, err = s.service.TransitionOrder(s.ctx, admin, "ORD_missing", domain.ActionApprove)
	s.ErrorIs(err, domain.ErrNotFound)

	s.Equal([]string{
		interfaces.EventOrderCreated,
		interfaces.EventOrderStatusChanged,
		interfaces.EventOrderCreated,
		interfaces.EventOrderStatusChanged,
	}, s.pub.types())
}

func (s *OrderServiceSuite) TestReleaseStockSwitches() {
	svc := s.newService(Options{ReleaseStockOnReject: true, ReleaseStockOnDelete: true})

	o, err := svc.CreateOrder(s.ctx, ann, interfaces.CreateOrderCommand{EventID: eventID, Items: []domain.LineRequest{line(s.cookies, 3)}})
	s.Require().NoError(err)
	s.Equal(2, s.stock(s.cookies))

	rejected, err := svc.TransitionOrder(s.ctx, admin, o.OrderID, domain.ActionReject)
	s.Require().NoError(err)
	s.True(rejected.StockReleased)
	s.Equal(5, s.stock(s.cookies))

	_, err = svc.DeleteOrders(s.ctx, admin, []string{o.OrderID}, "spam")
	s.Require().NoError(err)
	s.Equal(5, s.stock(s.cookies), "stock is released only once")

	p, err := svc.CreateOrder(s.ctx, ann, interfaces.CreateOrderCommand{EventID: eventID, Items: []domain.LineRequest{line(s.cookies, 1)}})
	s.Require().NoError(err)
	_, err = svc.RedeemPickupCode(s.ctx, admin, p.PickupCode)
	s.Require().NoError(err)
	_, err = svc.DeleteOrders(s.ctx, admin, []string{p.OrderID}, "cleanup")
	s.Require().NoError(err)
	s.Equal(4, s.stock(s.cookies), "picked up orders never release")
}

func (s *OrderServiceSuite) TestBulkDeletePartialFailure() {
	a := s.place(ann, line(s.cookies, 1))
	b := s.place(ann, line(s.lemonade, 1))
	c := s.place(bob, line(s.lemonade, 1))

	_, err := s.service.DeleteOrders(s.ctx, admin, []string{b.OrderID}, "first pass")
	s.Require().NoError(err)

	results, err := s.service.DeleteOrders(s.ctx, admin, []string{a.OrderID, b.OrderID, c.OrderID}, "  event cancelled  ")
	s.Require().NoError(err)
	s.Require().Len(results, 3)

	s.Equal(a.OrderID, results[0].OrderID)
	s.True(results[0].Success)
	s.Equal(b.OrderID, results[1].OrderID)
	s.False(results[1].Success)
	s.Contains(results[1].Message, "already deleted")
	s.True(results[2].Success)

	s.Len(s.deletions(a.OrderID), 1)
	s.Len(s.deletions(b.OrderID), 1, "the failed unit adds no second record")
	records := s.deletions(c.OrderID)
	s.Require().Len(records, 1)
	s.Equal("event cancelled", records[0].Reason)
}

func (s *OrderServiceSuite) TestBulkTransition() {
	a := s.place(ann, line(s.cookies, 1))
	b := s.place(bob, line(s.cookies, 1))

	_, err := s.service.BulkTransition(s.ctx, admin, []string{a.OrderID}, domain.Action("archive"))
	s.ErrorIs(err, domain.ErrUnknownAction)

	_, err = s.service.BulkTransition(s.ctx, admin, nil, domain.ActionApprove)
	s.ErrorIs(err, domain.ErrInvalidInput)

	results, err := s.service.BulkTransition(s.ctx, admin, []string{a.OrderID, "ORD_missing", b.OrderID}, domain.ActionApprove)
	s.Require().NoError(err)
	s.Require().Len(results, 3)
	s.True(results[0].Success)
	s.False(results[1].Success)
	s.Contains(results[1].Message, "not found")
	s.True(results[2].Success)

	got, err := s.service.GetOrder(s.ctx, b.OrderID)
	s.Require().NoError(err)
	s.Equal(domain.StatusApproved, got.Status)
}

func (s *OrderServiceSuite) TestDeleteValidatesBeforeWork() {
	o := s.place(ann, line(s.cookies, 1))

	_, err := s.service.DeleteOrders(s.ctx, admin, []string{o.OrderID}, "   ")
	s.ErrorIs(err, domain.ErrInvalidInput)

	_, err = s.service.DeleteOrders(s.ctx, admin, nil, "reason")
	s.ErrorIs(err, domain.ErrInvalidInput)

	_, err = s.service.DeleteOrders(s.ctx, ann, []string{o.OrderID}, "mine")
	s.ErrorIs(err, domain.ErrForbidden)

	got, err := s.service.GetOrder(s.ctx, o.OrderID)
	s.Require().NoError(err)
	s.Nil(got.DeletedAt)
	s.Empty(s.deletions(""))
}

func (s *OrderServiceSuite) TestAuditFailureRollsBackDelete() {
	o := s.place(ann, line(s.cookies, 2))
	s.store.InjectFault(memory.FaultRecordDeletion, errors.New("audit table locked"))

	svc := s.newService(Options{ReleaseStockOnDelete: true})
	results, err := svc.DeleteOrders(s.ctx, admin, []string{o.OrderID}, "no show")
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.False(results[0].Success)

	got, err := s.service.GetOrder(s.ctx, o.OrderID)
	s.Require().NoError(err)
	s.Nil(got.DeletedAt)
	s.False(got.StockReleased)
	s.Empty(s.deletions(o.OrderID))
	s.Equal(3, s.stock(s.cookies))
}

func (s *OrderServiceSuite) TestRedeemPickupCode() {
	o := s.place(ann, line(s.cookies, 1))

	_, err := s.service.RedeemPickupCode(s.ctx, ann, o.PickupCode)
	s.ErrorIs(err, domain.ErrForbidden)

	_, err = s.service.RedeemPickupCode(s.ctx, admin, "not-a-code")
	s.ErrorIs(err, domain.ErrNotFound)

	picked, err := s.service.RedeemPickupCode(s.ctx, admin, "  "+strings.ToLower(o.PickupCode)+" ")
	s.Require().NoError(err)
	s.Equal(domain.StatusPickedUp, picked.Status)
	s.Require().NotNil(picked.PickedUpAt)
	s.Equal(s.clock.Now(), *picked.PickedUpAt)
	s.Len(picked.Items, 1)

	_, err = s.service.RedeemPickupCode(s.ctx, admin, o.PickupCode)
	s.ErrorIs(err, domain.ErrAlreadyRedeemed)

	r := s.place(ann, line(s.cookies, 1))
	_, err = s.service.TransitionOrder(s.ctx, admin, r.OrderID, domain.ActionReject)
	s.Require().NoError(err)
	_, err = s.service.RedeemPickupCode(s.ctx, admin, r.PickupCode)
	s.ErrorIs(err, domain.ErrInvalidTransition)

	d := s.place(ann, line(s.cookies, 1))
	_, err = s.service.DeleteOrders(s.ctx, admin, []string{d.OrderID}, "test")
	s.Require().NoError(err)
	_, err = s.service.RedeemPickupCode(s.ctx, admin, d.PickupCode)
	s.ErrorIs(err, domain.ErrNotFound)

	logs := s.history(o.OrderID)
	s.Require().Len(logs, 2)
	s.Equal(domain.StatusPickedUp, logs[1].Status)
}

func (s *OrderServiceSuite) TestConcurrentRedeemSucceedsOnce() {
	o := s.place(ann, line(s.cookies, 1))
	_, err := s.service.TransitionOrder(s.ctx, admin, o.OrderID, domain.ActionApprove)
	s.Require().NoError(err)

	const attempts = 10
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.service.RedeemPickupCode(s.ctx, admin, o.PickupCode)
		}(i)
	}
	wg.Wait()

	ok, redeemed := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrAlreadyRedeemed):
			redeemed++
		}
	}
	s.Equal(1, ok)
	s.Equal(attempts-1, redeemed)
	s.Len(s.history(o.OrderID), 3)
}

type cancelOnCommit struct {
	interfaces.UnitOfWork
	cancel context.CancelFunc
}

func (c cancelOnCommit) Begin(ctx context.Context) (interfaces.Tx, error) {
	tx, err := c.UnitOfWork.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return cancellingTx{Tx: tx, cancel: c.cancel}, nil
}

type cancellingTx struct {
	interfaces.Tx
	cancel context.CancelFunc
}

func (t cancellingTx) Commit(ctx context.Context) error {
	t.cancel()
	return t.Tx.Commit(ctx)
}

func (s *OrderServiceSuite) TestCancelledContextRollsBack() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	issuer, err := pickupcode.NewIssuer([]byte("suite-secret-0123456789"))
	s.Require().NoError(err)
	svc := NewService(cancelOnCommit{UnitOfWork: s.store, cancel: cancel}, issuer, nil, s.pub, logger.NewNop(),
		Options{Clock: s.clock.Now})

	_, err = svc.CreateOrder(ctx, ann, interfaces.CreateOrderCommand{EventID: eventID, Items: []domain.LineRequest{line(s.cookies, 2)}})
	s.Require().ErrorIs(err, context.Canceled)

	s.Equal(5, s.stock(s.cookies))
	orders, err := s.service.ListOrders(s.ctx, domain.OrderFilter{IncludeDeleted: true})
	s.Require().NoError(err)
	s.Empty(orders)
	s.Empty(s.pub.types())

	done, stop := context.WithCancel(s.ctx)
	stop()
	_, err = s.service.EditOrder(done, ann, "ORD_any", []domain.LineRequest{line(s.cookies, 1)})
	s.ErrorIs(err, context.Canceled)
}

func (s *OrderServiceSuite) TestPublishFailureDoesNotFailCommand() {
	s.pub.err = errors.New("broker unreachable")
	o := s.place(ann, line(s.cookies, 1))
	s.Equal(4, s.stock(s.cookies))

	got, err := s.service.GetOrder(s.ctx, o.OrderID)
	s.Require().NoError(err)
	s.Equal(o.OrderID, got.OrderID)
}

func (s *OrderServiceSuite) TestListOrders() {
	first := s.place(ann, line(s.cookies, 1))
	s.clock.Advance(time.Minute)
	second := s.place(ann, line(s.lemonade, 1))
	s.clock.Advance(time.Minute)
	s.place(bob, line(s.lemonade, 1))

	_, err := s.service.DeleteOrders(s.ctx, admin, []string{first.OrderID}, "mistake")
	s.Require().NoError(err)

	mine, err := s.service.ListOrders(s.ctx, domain.OrderFilter{UserID: ann.UserID})
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal(second.OrderID, mine[0].OrderID)
	s.Len(mine[0].Items, 1)

	all, err := s.service.ListOrders(s.ctx, domain.OrderFilter{IncludeDeleted: true})
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(bob.UserID, all[0].UserID, "newest first")
	s.Equal(first.OrderID, all[2].OrderID)

	pending, err := s.service.ListOrders(s.ctx, domain.OrderFilter{Status: domain.StatusPending, EventID: eventID})
	s.Require().NoError(err)
	s.Len(pending, 2)

	_, err = s.service.ListOrders(s.ctx, domain.OrderFilter{Status: "cooking"})
	s.ErrorIs(err, domain.ErrInvalidInput)
}

func (s *OrderServiceSuite) TestRestockMenuItem() {
	item, err := s.service.RestockMenuItem(s.ctx, admin, s.cookies, 7)
	s.Require().NoError(err)
	s.Equal(12, item.QuantityAvailable)
	s.Equal(12, s.stock(s.cookies))

	item, err = s.service.RestockMenuItem(s.ctx, admin, s.cookies, -12)
	s.Require().NoError(err)
	s.Equal(0, item.QuantityAvailable)

	_, err = s.service.RestockMenuItem(s.ctx, admin, s.cookies, -1)
	s.ErrorIs(err, domain.ErrInvalidInput)

	_, err = s.service.RestockMenuItem(s.ctx, admin, s.cookies, 0)
	s.ErrorIs(err, domain.ErrInvalidInput)

	_, err = s.service.RestockMenuItem(s.ctx, admin, s.cookies, math.MaxInt)
	s.ErrorIs(err, domain.ErrInvalidInput)

	_, err = s.service.RestockMenuItem(s.ctx, admin, s.cookies, math.MinInt)
	s.ErrorIs(err, domain.ErrInvalidInput)

	_, err = s.service.RestockMenuItem(s.ctx, admin, 999, 1)
	s.ErrorIs(err, domain.ErrNotFound)

	_, err = s.service.RestockMenuItem(s.ctx, ann, s.cookies, 1)
	s.ErrorIs(err, domain.ErrForbidden)

	s.Equal(0, s.stock(s.cookies))
}
