// Package memory is an in-process implementation of the repositories, used
// when no Postgres DSN is configured and by tests. It mirrors the SQL
// semantics of package repository, including conditional updates.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"farmmarket/internal/models"
	"farmmarket/internal/repository"
)

type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	seq      int64
	users    map[string]userRow
	products map[string]productRow
	audit    map[string]auditRow
}

type userRow struct {
	models.User
	seq int64
}

type productRow struct {
	models.Product
	seq int64
}

type auditRow struct {
	models.AuditEvent
	seq int64
}

func NewStore() *Store {
	return &Store{
		now:      time.Now,
		users:    make(map[string]userRow),
		products: make(map[string]productRow),
		audit:    make(map[string]auditRow),
	}
}

func (s *Store) Users() *UserRepository       { return &UserRepository{s} }
func (s *Store) Products() *ProductRepository { return &ProductRepository{s} }
func (s *Store) Audit() *AuditRepository      { return &AuditRepository{s} }

func (s *Store) next() (time.Time, int64) {
	s.seq++
	return s.now().UTC(), s.seq
}

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, user models.User) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return models.User{}, repository.ErrEmailTaken
		}
	}

	now, seq := r.s.next()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = userRow{User: user, seq: seq}
	return user, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return u.User, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (r *UserRepository) GetByID(_ context.Context, id string) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return u.User, nil
}

func (r *UserRepository) ApproveFarmer(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok || u.Role != models.UserRoleFarmer || u.Status == models.UserStatusApproved {
		return repository.ErrFarmerNotPending
	}
	u.Status = models.UserStatusApproved
	u.UpdatedAt = r.s.now().UTC()
	r.s.users[id] = u
	return nil
}

func (r *UserRepository) ListPendingFarmers(_ context.Context) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows := make([]userRow, 0)
	for _, u := range r.s.users {
		if u.Role == models.UserRoleFarmer && u.Status == models.UserStatusPending {
			rows = append(rows, u)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	users := make([]models.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.User)
	}
	return users, nil
}

func (r *UserRepository) CountPendingFarmers(ctx context.Context) (int, error) {
	users, err := r.ListPendingFarmers(ctx)
	return len(users), err
}

type ProductRepository struct{ s *Store }

func (r *ProductRepository) ListPublic(_ context.Context) ([]models.ProductListing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows := make([]productRow, 0, len(r.s.products))
	for _, p := range r.s.products {
		owner, ok := r.s.users[p.FarmerID]
		if !ok || !owner.IsApprovedFarmer() {
			continue
		}
		rows = append(rows, p)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	listings := make([]models.ProductListing, 0, len(rows))
	for _, row := range rows {
		listings = append(listings, models.ProductListing{
			Product:    row.Product,
			FarmerName: r.s.users[row.FarmerID].Name,
		})
	}
	return listings, nil
}

func (r *ProductRepository) ListByFarmer(_ context.Context, farmerID string) ([]models.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows := make([]productRow, 0)
	for _, p := range r.s.products {
		if p.FarmerID == farmerID {
			rows = append(rows, p)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	products := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.Product)
	}
	return products, nil
}

func (r *ProductRepository) Create(_ context.Context, p models.Product) (models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now, seq := r.s.next()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.s.products[p.ID] = productRow{Product: p, seq: seq}
	return p, nil
}

func (r *ProductRepository) UpdateOwned(_ context.Context, id, farmerID string, patch models.ProductPatch) (models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.products[id]
	if !ok || row.FarmerID != farmerID {
		return models.Product{}, repository.ErrProductNotFound
	}
	row.Product = patch.Apply(row.Product)
	row.UpdatedAt = r.s.now().UTC()
	r.s.products[id] = row
	return row.Product, nil
}

func (r *ProductRepository) DeleteOwned(_ context.Context, id, farmerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.products[id]
	if !ok || row.FarmerID != farmerID {
		return repository.ErrProductNotFound
	}
	delete(r.s.products, id)
	return nil
}

type AuditRepository struct{ s *Store }

func (r *AuditRepository) Record(_ context.Context, event models.AuditEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.audit[event.ID]; ok {
		return nil
	}
	now, seq := r.s.next()
	event.RecordedAt = now
	r.s.audit[event.ID] = auditRow{AuditEvent: event, seq: seq}
	return nil
}

func (r *AuditRepository) ListRecent(_ context.Context, limit int) ([]models.AuditEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows := make([]auditRow, 0, len(r.s.audit))
	for _, e := range r.s.audit {
		rows = append(rows, e)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	events := make([]models.AuditEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.AuditEvent)
	}
	return events, nil
}
