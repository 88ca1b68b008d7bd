// Package testutil provides in-memory repositories and fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/ticketing-api/internal/domain"
	"github.com/spec-kit/ticketing-api/internal/repository"
)

// DefaultPassword is the plaintext password of every seeded user.
const DefaultPassword = "password123"

// Store keeps users and tickets in memory and enforces the same uniqueness and reference
// rules as the Postgres schema.
type Store struct {
	mu           sync.Mutex
	users        map[int64]domain.User
	tickets      map[int64]domain.Ticket
	nextUserID   int64
	nextTicketID int64
	clock        time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:   map[int64]domain.User{},
		tickets: map[int64]domain.Ticket{},
		clock:   time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

// Users returns a repository.UserRepository view of the store.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Tickets returns a repository.TicketRepository view of the store.
func (s *Store) Tickets() repository.TicketRepository { return ticketRepo{s} }

// tick advances the fake clock so timestamps are strictly increasing.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// SeedUser inserts a user with DefaultPassword and fails the test on error.
func (s *Store) SeedUser(t testing.TB, username string, isAdmin bool) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		FirstName:    username,
		LastName:     "Tester",
		IsAdmin:      isAdmin,
		IsActive:     true,
	}
	if err := s.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return user
}

// SeedTicket inserts an open, medium priority ticket owned by ownerID.
func (s *Store) SeedTicket(t testing.TB, title string, ownerID int64, assignedTo *int64) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		Title:      title,
		Status:     domain.TicketStatusOpen,
		Priority:   domain.TicketPriorityMedium,
		UserID:     ownerID,
		AssignedTo: assignedTo,
	}
	if err := s.Tickets().Create(context.Background(), ticket); err != nil {
		t.Fatalf("seed ticket %q: %v", title, err)
	}
	return ticket
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.conflictLocked(user.Username, user.Email, 0) {
		return fmt.Errorf("%w: users_username_key", repository.ErrDuplicate)
	}
	r.s.nextUserID++
	user.ID = r.s.nextUserID
	user.CreatedAt = r.s.tick()
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.s.conflictLocked(user.Username, user.Email, user.ID) {
		return fmt.Errorf("%w: users_username_key", repository.ErrDuplicate)
	}
	updated := *user
	updated.CreatedAt = existing.CreatedAt
	r.s.users[user.ID] = updated
	return nil
}

func (r userRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	for _, t := range r.s.tickets {
		if t.IsOwner(id) || t.IsAssignee(id) {
			return fmt.Errorf("%w: tickets reference user %d", repository.ErrInUse, id)
		}
	}
	delete(r.s.users, id)
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string, excludeID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.conflictLocked(username, email, excludeID), nil
}

func (r userRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := []domain.User{}
	for _, u := range r.s.users {
		if filter.IsAdmin != nil && u.IsAdmin != *filter.IsAdmin {
			continue
		}
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) conflictLocked(username, email string, excludeID int64) bool {
	for _, u := range s.users {
		if u.ID == excludeID {
			continue
		}
		if u.Username == username || u.Email == email {
			return true
		}
	}
	return false
}

type ticketRepo struct{ s *Store }

func (r ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkReferencesLocked(ticket); err != nil {
		return err
	}
	r.s.nextTicketID++
	ticket.ID = r.s.nextTicketID
	ticket.CreatedAt = r.s.tick()
	ticket.UpdatedAt = ticket.CreatedAt
	r.s.tickets[ticket.ID] = r.s.stripLocked(*ticket)
	return nil
}

func (r ticketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.tickets[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.s.checkReferencesLocked(ticket); err != nil {
		return err
	}
	updated := r.s.stripLocked(*ticket)
	updated.UserID = existing.UserID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = r.s.tick()
	ticket.UpdatedAt = updated.UpdatedAt
	r.s.tickets[ticket.ID] = updated
	return nil
}

func (r ticketRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.tickets, id)
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t = r.s.decorateLocked(t)
	return &t, nil
}

func (r ticketRepo) List(_ context.Context, f repository.TicketFilter) ([]domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := []domain.Ticket{}
	for _, t := range r.s.tickets {
		if f.OwnerOrAssignee != nil && !t.IsOwner(*f.OwnerOrAssignee) && !t.IsAssignee(*f.OwnerOrAssignee) {
			continue
		}
		if f.OwnerID != nil && !t.IsOwner(*f.OwnerID) {
			continue
		}
		if f.AssignedTo != nil && !t.IsAssignee(*f.AssignedTo) {
			continue
		}
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		if f.Priority != nil && t.Priority != *f.Priority {
			continue
		}
		result = append(result, r.s.decorateLocked(t))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (s *Store) checkReferencesLocked(t *domain.Ticket) error {
	if _, ok := s.users[t.UserID]; !ok {
		return fmt.Errorf("%w: tickets_user_id_fkey", repository.ErrInUse)
	}
	if t.AssignedTo != nil {
		if _, ok := s.users[*t.AssignedTo]; !ok {
			return fmt.Errorf("%w: tickets_assigned_to_fkey", repository.ErrInUse)
		}
	}
	return nil
}

// stripLocked drops display names and copies the assignee pointer.
func (s *Store) stripLocked(t domain.Ticket) domain.Ticket {
	t.OwnerName, t.AssigneeName = "", ""
	if t.AssignedTo != nil {
		id := *t.AssignedTo
		t.AssignedTo = &id
	}
	return t
}

func (s *Store) decorateLocked(t domain.Ticket) domain.Ticket {
	t = s.stripLocked(t)
	if owner, ok := s.users[t.UserID]; ok {
		t.OwnerName = owner.FullName()
	}
	if t.AssignedTo != nil {
		if a, ok := s.users[*t.AssignedTo]; ok {
			t.AssigneeName = a.FullName()
		}
	}
	return t
}
