package services_test

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"

	"github.com/arturocano02/FarmDirect-sub000/models"
	"github.com/arturocano02/FarmDirect-sub000/sender"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeOrderRepo struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]*models.Order
	findErr   error
	updateErr error
	createErr error
	updates   []models.OrderStatus
}

func newFakeOrderRepo(orders ...*models.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: map[uuid.UUID]*models.Order{}}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) FindAll(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, o := range r.orders {
		if filter.FarmID != nil && o.FarmID != *filter.FarmID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) CreateWithEvent(ctx context.Context, order *models.Order, event *models.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	event.ID = uuid.New()
	event.OrderID = order.ID
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	o, ok := r.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.Status = status
	r.updates = append(r.updates, status)
	return nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []models.OrderEvent
	err    error
}

func (r *fakeEventRepo) Append(ctx context.Context, event *models.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	event.ID = uuid.New()
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeEventRepo) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.OrderEvent
	for _, e := range r.events {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeFarmRepo struct {
	farms []models.Farm
	err   error
}

func (r *fakeFarmRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Farm, error) {
	if r.err != nil {
		return nil, r.err
	}
	for i := range r.farms {
		if r.farms[i].ID == id {
			return &r.farms[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFarmRepo) FindByOwnerUserID(ctx context.Context, userID uuid.UUID) (*models.Farm, error) {
	if r.err != nil {
		return nil, r.err
	}
	for i := range r.farms {
		if r.farms[i].OwnerUserID == userID {
			return &r.farms[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeProfileRepo struct {
	profiles  map[uuid.UUID]*models.Profile
	findErr   error
	updateErr error
	upgrades  []uuid.UUID
}

func newFakeProfileRepo(profiles ...models.Profile) *fakeProfileRepo {
	r := &fakeProfileRepo{profiles: map[uuid.UUID]*models.Profile{}}
	for i := range profiles {
		p := profiles[i]
		r.profiles[p.UserID] = &p
	}
	return r
}

func (r *fakeProfileRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	p, ok := r.profiles[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) UpdateRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	p, ok := r.profiles[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Role = role
	r.upgrades = append(r.upgrades, userID)
	return nil
}

type fakeOutboxRepo struct {
	mu        sync.Mutex
	entries   []models.NotificationOutbox
	createErr error
}

func (r *fakeOutboxRepo) Create(ctx context.Context, entry *models.NotificationOutbox) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeOutboxRepo) Update(ctx context.Context, entry *models.NotificationOutbox) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].ID == entry.ID {
			r.entries[i] = *entry
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeOutboxRepo) FindPending(ctx context.Context, channels []string, limit int) ([]models.NotificationOutbox, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.NotificationOutbox
	for _, e := range r.entries {
		if e.Status == models.OutboxPending && slices.Contains(channels, e.Channel) && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeOutboxRepo) List(ctx context.Context, filter models.OutboxFilter) ([]models.NotificationOutbox, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.NotificationOutbox
	for _, e := range r.entries {
		if filter.Status == "" || e.Status == filter.Status {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

type sentMessage struct {
	to, subject, body string
}

type fakeEmail struct {
	sent []sentMessage
	err  error
}

func (f *fakeEmail) SendEmail(ctx context.Context, to, subject, body string) (sender.SendResult, error) {
	if f.err != nil {
		return sender.SendResult{}, f.err
	}
	f.sent = append(f.sent, sentMessage{to: to, subject: subject, body: body})
	return sender.SendResult{MessageID: "m"}, nil
}

type fakeSMS struct {
	sent []sentMessage
	err  error
}

func (f *fakeSMS) SendSMS(ctx context.Context, to, msg string) (sender.SendResult, error) {
	if f.err != nil {
		return sender.SendResult{}, f.err
	}
	f.sent = append(f.sent, sentMessage{to: to, body: msg})
	return sender.SendResult{MessageID: "s"}, nil
}

type notifyCall struct {
	orderID  uuid.UUID
	previous *models.OrderStatus
	current  models.OrderStatus
	note     string
	ctxErr   error
}

type fakeNotifier struct {
	calls []notifyCall
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context, order *models.Order, previous *models.OrderStatus, current models.OrderStatus, note string) error {
	f.calls = append(f.calls, notifyCall{orderID: order.ID, previous: previous, current: current, note: note, ctxErr: ctx.Err()})
	return f.err
}

type fakePublisher struct {
	events []models.OrderStatusChangedEvent
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, evt models.OrderStatusChangedEvent) error {
	f.events = append(f.events, evt)
	return f.err
}

var errStore = errors.New("connection reset")
