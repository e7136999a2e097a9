package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"natours_backend/internal/email"
	"natours_backend/internal/models"
	"natours_backend/internal/payment"
	"natours_backend/internal/query"
	"natours_backend/internal/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// memRepo - хранилище в памяти вместо Postgres. Scopes и spec не применяются,
// транзакция просто вызывает fn.
type memRepo[T any] struct {
	mu     sync.Mutex
	items  map[string]T
	order  []string
	locked []string
	now    time.Time
}

func newMemRepo[T any]() *memRepo[T] {
	return &memRepo[T]{items: make(map[string]T), now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (r *memRepo[T]) Transaction(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return fn(db)
}

func (r *memRepo[T]) FindByID(db *gorm.DB, id string, scopes ...repositories.Scope) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &item, nil
}

func (r *memRepo[T]) FindByIDForUpdate(db *gorm.DB, id string) (*T, error) {
	r.mu.Lock()
	r.locked = append(r.locked, id)
	r.mu.Unlock()
	return r.FindByID(db, id)
}

func (r *memRepo[T]) FindAll(db *gorm.DB, spec query.Spec, schema query.Schema, scopes ...repositories.Scope) ([]T, error) {
	return r.all(), nil
}

func (r *memRepo[T]) Create(db *gorm.DB, item *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := baseOf(item)
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	r.now = r.now.Add(time.Second)
	b.CreatedAt = r.now
	b.UpdatedAt = r.now
	r.items[b.ID] = *item
	r.order = append(r.order, b.ID)
	return nil
}

func (r *memRepo[T]) Save(db *gorm.DB, item *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := baseOf(item).ID
	if _, ok := r.items[id]; !ok {
		r.order = append(r.order, id)
	}
	r.items[id] = *item
	return nil
}

func (r *memRepo[T]) Delete(db *gorm.DB, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.items, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memRepo[T]) all() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out
}

func (r *memRepo[T]) put(item T) {
	_ = r.Create(nil, &item)
}

// --- users ---

type fakeUserRepo struct {
	*memRepo[models.User]
	// beforeConsume вызывается один раз перед записью сброса пароля
	beforeConsume func()
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{memRepo: newMemRepo[models.User]()}
}

func (r *fakeUserRepo) add(u *models.User) *models.User {
	_ = r.Create(nil, u)
	return u
}

func (r *fakeUserRepo) FindActiveByID(db *gorm.DB, id string) (*models.User, error) {
	u, err := r.FindByID(db, id)
	if err != nil || !u.Active {
		return nil, repositories.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	for _, u := range r.all() {
		if u.Active && u.Email == email {
			return &u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) FindByResetToken(db *gorm.DB, tokenHash string, now time.Time) (*models.User, error) {
	for _, u := range r.all() {
		if u.Active && u.PasswordResetToken != nil && *u.PasswordResetToken == tokenHash &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now) {
			return &u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) ConsumeResetToken(db *gorm.DB, user *models.User, tokenHash string, now time.Time) error {
	if hook := r.beforeConsume; hook != nil {
		r.beforeConsume = nil
		hook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[user.ID]
	if !ok || !cur.Active || cur.PasswordResetToken == nil || *cur.PasswordResetToken != tokenHash ||
		cur.PasswordResetExpires == nil || !cur.PasswordResetExpires.After(now) {
		return repositories.ErrUserNotFound
	}
	cur.PasswordHash = user.PasswordHash
	cur.PasswordChangedAt = user.PasswordChangedAt
	cur.ClearPasswordReset()
	r.items[user.ID] = cur
	return nil
}

func (r *fakeUserRepo) Summaries(db *gorm.DB, ids []string) (map[string]*models.UserSummary, error) {
	out := make(map[string]*models.UserSummary)
	for _, id := range ids {
		if u, err := r.FindByID(db, id); err == nil {
			out[id] = u.Summary()
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Deactivate(db *gorm.DB, id string) error {
	u, err := r.FindActiveByID(db, id)
	if err != nil {
		return err
	}
	u.Active = false
	return r.Save(db, u)
}

func (r *fakeUserRepo) ClearExpiredResetTokens(db *gorm.DB, now time.Time) (int64, error) {
	var n int64
	for _, u := range r.all() {
		if u.PasswordResetExpires != nil && u.PasswordResetExpires.Before(now) {
			u.ClearPasswordReset()
			_ = r.Save(db, &u)
			n++
		}
	}
	return n, nil
}

// --- tours ---

type fakeTourRepo struct {
	*memRepo[models.Tour]
}

func newFakeTourRepo() *fakeTourRepo {
	return &fakeTourRepo{memRepo: newMemRepo[models.Tour]()}
}

func (r *fakeTourRepo) add(t *models.Tour) *models.Tour {
	t.Normalize()
	_ = r.Create(nil, t)
	return t
}

func (r *fakeTourRepo) FindBySlug(db *gorm.DB, slug string) (*models.Tour, error) {
	for _, t := range r.all() {
		if !t.SecretTour && t.Slug == slug {
			return &t, nil
		}
	}
	return nil, repositories.ErrTourNotFound
}

func (r *fakeTourRepo) FindPublic(db *gorm.DB) ([]models.Tour, error) {
	var out []models.Tour
	for _, t := range r.all() {
		if !t.SecretTour {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTourRepo) FindByIDs(db *gorm.DB, ids []string) ([]models.Tour, error) {
	var out []models.Tour
	for _, id := range ids {
		if t, err := r.FindByID(db, id); err == nil {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTourRepo) Summaries(db *gorm.DB, ids []string) (map[string]*models.TourSummary, error) {
	out := make(map[string]*models.TourSummary)
	for _, id := range ids {
		if t, err := r.FindByID(db, id); err == nil {
			out[id] = t.Summarize()
		}
	}
	return out, nil
}

func (r *fakeTourRepo) UpdateRatings(db *gorm.DB, tourID string, stats models.RatingStats) error {
	t, err := r.FindByID(db, tourID)
	if err != nil {
		return nil
	}
	t.RatingsQuantity = stats.Quantity
	t.RatingsAverage = stats.Average
	return r.Save(db, t)
}

// --- reviews ---

type fakeReviewRepo struct {
	*memRepo[models.Review]
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{memRepo: newMemRepo[models.Review]()}
}

func (r *fakeReviewRepo) FindByTour(db *gorm.DB, tourID string) ([]models.Review, error) {
	var out []models.Review
	for _, rv := range r.all() {
		if rv.Tour.ID == tourID {
			out = append(out, rv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeReviewRepo) RatingsForTour(db *gorm.DB, tourID string) ([]int, error) {
	var out []int
	for _, rv := range r.all() {
		if rv.Tour.ID == tourID {
			out = append(out, rv.Rating)
		}
	}
	return out, nil
}

func (r *fakeReviewRepo) TourIDs(db *gorm.DB) ([]string, error) {
	ids := make([]string, 0)
	for _, rv := range r.all() {
		ids = append(ids, rv.Tour.ID)
	}
	return uniqueIDs(ids), nil
}

// --- bookings ---

type fakeBookingRepo struct {
	*memRepo[models.Booking]
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{memRepo: newMemRepo[models.Booking]()}
}

func (r *fakeBookingRepo) FindByUser(db *gorm.DB, userID string) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range r.all() {
		if b.User.ID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) FindBySession(db *gorm.DB, sessionID string) (*models.Booking, error) {
	for _, b := range r.all() {
		if b.StripeSessionID != nil && *b.StripeSessionID == sessionID {
			return &b, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// --- collaborators ---

type fakeMailer struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (m *fakeMailer) SendTemplatedEmail(ctx context.Context, msg email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) last() email.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

type fakeGateway struct {
	spec    payment.CheckoutSpec
	event   *payment.CheckoutCompleted
	err     error
	created int
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, spec payment.CheckoutSpec) (*payment.Session, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.spec = spec
	g.created++
	return &payment.Session{ID: "cs_test_1", URL: "https://checkout.example/cs_test_1"}, nil
}

func (g *fakeGateway) ParseWebhook(payload []byte, signature string) (*payment.CheckoutCompleted, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.event, nil
}

// --- fixtures ---

func newTestUser(name, mail string, role models.UserRole) *models.User {
	u := models.NewUser()
	u.Name = name
	u.Email = strings.ToLower(mail)
	u.Role = role
	return u
}

func newTestTour(name string, price float64, difficulty models.Difficulty) *models.Tour {
	t := models.NewTour()
	t.Name = name
	t.Duration = 5
	t.MaxGroupSize = 10
	t.Difficulty = difficulty
	t.Price = price
	t.Summary = "Breathtaking hike"
	t.ImageCover = "tour-cover.jpg"
	return t
}
