// Package testutil holds in-memory repository implementations used by the
// service tests. They keep the same atomicity guarantees as the postgres
// repositories: every method runs under one mutex.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/entity"
	appRepo "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/application/repository"
	msgRepo "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/message/repository"
	scholarshipRepo "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/scholarship/repository"
	userRepo "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/user/repository"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/apperror"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/database"
	"github.com/google/uuid"
)

type Store struct {
	mu           sync.Mutex
	roles        map[string]*entity.Role
	users        map[uuid.UUID]*entity.User
	scholarships map[uuid.UUID]*entity.Scholarship
	applications map[uuid.UUID]*entity.Application
	messages     []*entity.Message
	clock        time.Time
}

func NewStore() *Store {
	s := &Store{
		roles:        make(map[string]*entity.Role),
		users:        make(map[uuid.UUID]*entity.User),
		scholarships: make(map[uuid.UUID]*entity.Scholarship),
		applications: make(map[uuid.UUID]*entity.Application),
		clock:        time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	for i, name := range []string{entity.RoleCustomer, entity.RoleManager, entity.RoleAdmin} {
		s.roles[name] = &entity.Role{ID: uint(i + 1), Name: name}
	}
	return s
}

// now returns a strictly increasing timestamp so ordering in tests is stable.
func (s *Store) now() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

// AddUser inserts a user with the given role and returns it.
func (s *Store) AddUser(name, email, role string) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.roles[role]
	u := &entity.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     entity.NormalizeEmail(email),
		RoleID:    &r.ID,
		Role:      *r,
		CreatedAt: s.now(),
	}
	s.users[u.ID] = u
	return u
}

// AddScholarship inserts a catalog entry and returns it.
func (s *Store) AddScholarship(name, university, degree string) *entity.Scholarship {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc := &entity.Scholarship{
		ID:         uuid.New(),
		Name:       name,
		University: university,
		Degree:     degree,
		CreatedAt:  s.now(),
	}
	s.scholarships[sc.ID] = sc
	return sc
}

// ApplicationCount returns how many applications user owns.
func (s *Store) ApplicationCount(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.applications {
		if a.UserID == userID {
			n++
		}
	}
	return n
}

// MessageCount returns the number of stored messages.
func (s *Store) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func (s *Store) Users() userRepo.UserRepository                      { return &users{s} }
func (s *Store) Scholarships() scholarshipRepo.ScholarshipRepository { return &scholarships{s} }
func (s *Store) Applications() appRepo.ApplicationRepository         { return &applications{s} }
func (s *Store) Messages() msgRepo.MessageRepository                 { return &messages{s} }

type users struct{ s *Store }

func (r *users) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *users) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email = entity.NormalizeEmail(email)
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (r *users) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []entity.User{}
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *users) FindRoleByName(ctx context.Context, name string) (*entity.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	role, ok := r.s.roles[name]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	cp := *role
	return &cp, nil
}

func (r *users) FindAll(ctx context.Context, search string, offset, limit int) ([]entity.User, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []entity.User
	for _, u := range r.s.users {
		if search == "" || strings.Contains(strings.ToLower(u.Name+" "+u.Email), strings.ToLower(search)) {
			all = append(all, *u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return page(all, offset, limit), int64(len(all)), nil
}

func (r *users) Create(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user.Email = entity.NormalizeEmail(user.Email)
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return database.ErrDuplicateKey
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = r.s.now()
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *users) UpdateRole(ctx context.Context, id uuid.UUID, roleID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return apperror.ErrNotFound
	}
	for _, role := range r.s.roles {
		if role.ID == roleID {
			u.RoleID = &role.ID
			u.Role = *role
			return nil
		}
	}
	return apperror.ErrNotFound
}

func (r *users) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return apperror.ErrNotFound
	}
	delete(r.s.users, id)
	for appID, a := range r.s.applications {
		if a.UserID == id {
			delete(r.s.applications, appID)
		}
	}
	kept := r.s.messages[:0]
	for _, m := range r.s.messages {
		if m.SenderID != id && m.ReceiverID != id {
			kept = append(kept, m)
		}
	}
	r.s.messages = kept
	return nil
}

type scholarships struct{ s *Store }

func (r *scholarships) FindByID(ctx context.Context, id uuid.UUID) (*entity.Scholarship, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sc, ok := r.s.scholarships[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	cp := *sc
	return &cp, nil
}

func (r *scholarships) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Scholarship, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []entity.Scholarship{}
	for _, id := range ids {
		if sc, ok := r.s.scholarships[id]; ok {
			out = append(out, *sc)
		}
	}
	return out, nil
}

func (r *scholarships) FindAll(ctx context.Context, search string, offset, limit int) ([]entity.Scholarship, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []entity.Scholarship
	for _, sc := range r.s.scholarships {
		hay := strings.ToLower(sc.Name + " " + sc.University + " " + sc.Country)
		if search == "" || strings.Contains(hay, strings.ToLower(search)) {
			all = append(all, *sc)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return page(all, offset, limit), int64(len(all)), nil
}

func (r *scholarships) Create(ctx context.Context, scholarship *entity.Scholarship) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if scholarship.ID == uuid.Nil {
		scholarship.ID = uuid.New()
	}
	scholarship.CreatedAt = r.s.now()
	cp := *scholarship
	r.s.scholarships[scholarship.ID] = &cp
	return nil
}

func (r *scholarships) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.scholarships[id]; !ok {
		return apperror.ErrNotFound
	}
	delete(r.s.scholarships, id)
	return nil
}

type applications struct{ s *Store }

func copyApp(a *entity.Application) *entity.Application {
	cp := *a
	cp.Payload = entity.Payload{}.Merge(a.Payload)
	cp.Status = entity.NormalizeStatus(a.Status)
	return &cp
}

func (r *applications) Create(ctx context.Context, app *entity.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.applications {
		if a.UserID == app.UserID {
			return database.ErrDuplicateKey
		}
	}
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	if app.Status == "" {
		app.Status = entity.StatusDraft
	}
	now := r.s.now()
	app.CreatedAt, app.UpdatedAt = now, now
	r.s.applications[app.ID] = copyApp(app)
	return nil
}

func (r *applications) FindByID(ctx context.Context, id uuid.UUID) (*entity.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.applications[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return copyApp(a), nil
}

func (r *applications) FindLatestByUser(ctx context.Context, userID uuid.UUID) (*entity.Application, error) {
	apps := r.byUser(userID)
	if len(apps) == 0 {
		return nil, apperror.ErrNotFound
	}
	return &apps[0], nil
}

func (r *applications) byUser(userID uuid.UUID) []entity.Application {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []entity.Application{}
	for _, a := range r.s.applications {
		if a.UserID == userID {
			out = append(out, *copyApp(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *applications) FindByOwnerEmail(ctx context.Context, email string) ([]entity.Application, error) {
	u, err := r.s.Users().FindByEmail(ctx, email)
	if err != nil {
		return []entity.Application{}, nil
	}
	return r.byUser(u.ID), nil
}

func (r *applications) FindAll(ctx context.Context, filter appRepo.ListFilter) ([]entity.Application, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []entity.Application
	for _, a := range r.s.applications {
		if filter.Status == "" || entity.NormalizeStatus(a.Status) == filter.Status {
			all = append(all, *copyApp(a))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UpdatedAt.After(all[j].UpdatedAt) })
	return page(all, filter.Offset, filter.Limit), int64(len(all)), nil
}

func (r *applications) Update(ctx context.Context, id uuid.UUID, guard appRepo.Guard, ch appRepo.Changes) (*entity.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.applications[id]
	if !ok {
		return nil, appRepo.ErrGuardFailed
	}
	switch guard {
	case appRepo.GuardDraft:
		if entity.NormalizeStatus(a.Status) != entity.StatusDraft {
			return nil, appRepo.ErrGuardFailed
		}
	case appRepo.GuardReapply:
		if !a.CanReapply {
			return nil, appRepo.ErrGuardFailed
		}
	}

	now := r.s.now()
	if ch.Status != nil {
		a.Status = *ch.Status
	}
	if ch.ReplacePayload != nil {
		a.Payload = entity.Payload{}.Merge(ch.ReplacePayload)
	} else if len(ch.MergePayload) > 0 {
		a.Payload = a.Payload.Merge(ch.MergePayload)
	}
	if ch.Scholarship != nil {
		a.SnapshotScholarship(ch.Scholarship)
	}
	if ch.ClearReapply {
		a.CanReapply = false
	}
	if ch.Resubmit {
		a.SubmittedAt = now
	}
	a.UpdatedAt = now
	return copyApp(a), nil
}

func (r *applications) ToggleReapply(ctx context.Context, id uuid.UUID) (*entity.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.applications[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	a.CanReapply = !a.CanReapply
	a.UpdatedAt = r.s.now()
	return copyApp(a), nil
}

func (r *applications) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.applications[id]; !ok {
		return apperror.ErrNotFound
	}
	delete(r.s.applications, id)
	return nil
}

type messages struct{ s *Store }

func pairMatch(m *entity.Message, a, b uuid.UUID) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

func (r *messages) Create(ctx context.Context, message *entity.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	message.CreatedAt = r.s.now().Truncate(time.Microsecond)
	cp := *message
	r.s.messages = append(r.s.messages, &cp)
	return nil
}

func (r *messages) FindConversation(ctx context.Context, userA, userB uuid.UUID) ([]entity.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []entity.Message{}
	for _, m := range r.s.messages {
		if pairMatch(m, userA, userB) {
			out = append(out, *m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *messages) MarkConversationRead(ctx context.Context, readerID, senderID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, m := range r.s.messages {
		if m.ReceiverID == readerID && m.SenderID == senderID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *messages) ListThreads(ctx context.Context, userID uuid.UUID) ([]msgRepo.ThreadRow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	byCounterpart := map[uuid.UUID]*msgRepo.ThreadRow{}
	for _, m := range r.s.messages {
		if m.SenderID != userID && m.ReceiverID != userID {
			continue
		}
		cp := m.Counterpart(userID)
		row, ok := byCounterpart[cp]
		if !ok {
			row = &msgRepo.ThreadRow{CounterpartID: cp}
			byCounterpart[cp] = row
		}
		if !m.CreatedAt.Before(row.LastMessageAt) {
			row.LastMessage = m.Content
			row.LastMessageAt = m.CreatedAt
			row.LastSenderID = m.SenderID
		}
		if m.ReceiverID == userID && !m.IsRead {
			row.UnreadCount++
		}
	}
	out := make([]msgRepo.ThreadRow, 0, len(byCounterpart))
	for _, row := range byCounterpart {
		out = append(out, *row)
	}
	// map order; callers sort
	return out, nil
}

func (r *messages) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, m := range r.s.messages {
		if m.ReceiverID == userID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *messages) DeleteConversation(ctx context.Context, userA, userB uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	kept := r.s.messages[:0]
	for _, m := range r.s.messages {
		if pairMatch(m, userA, userB) {
			n++
			continue
		}
		kept = append(kept, m)
	}
	r.s.messages = kept
	return n, nil
}

func page[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}
