package users

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wonrang2/auskorphi/internal/shared"
)

type memoryRepo struct {
	users  map[int64]*User
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[int64]*User)}
}

func (r *memoryRepo) List(ctx context.Context) ([]User, error) {
	out := []User{}
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return *u, nil
}

func (r *memoryRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return *u, nil
		}
	}
	return User{}, shared.ErrNotFound
}

func (r *memoryRepo) Create(ctx context.Context, username, passwordHash, role string) (int64, error) {
	for _, u := range r.users {
		if u.Username == username {
			return 0, ErrUsernameTaken
		}
	}
	r.nextID++
	r.users[r.nextID] = &User{ID: r.nextID, Username: username, Role: role, PasswordHash: passwordHash}
	return r.nextID, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, username, passwordHash, role string) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	for otherID, other := range r.users {
		if otherID != id && other.Username == username {
			return ErrUsernameTaken
		}
	}
	u.Username, u.Role = username, role
	if passwordHash != "" {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memoryRepo) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	for _, u := range r.users {
		if u.Role == RoleAdmin {
			count++
		}
	}
	return count, nil
}

func seedAdmin(t *testing.T, svc *Service) User {
	t.Helper()
	admin, err := svc.Create(context.Background(), Input{Username: "admin", Password: "correct-horse", Role: RoleAdmin}, 0)
	require.NoError(t, err)
	return admin
}

func TestCreateHashesPassword(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, bcrypt.MinCost)
	ctx := context.Background()

	user, err := svc.Create(ctx, Input{Username: " staffer ", Password: "password123", Role: RoleStaff}, 1)
	require.NoError(t, err)
	require.Equal(t, "staffer", user.Username)
	require.Equal(t, RoleStaff, user.Role)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, bcrypt.MinCost)
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{Username: "", Password: "password123", Role: RoleStaff}, 1)
	require.ErrorIs(t, err, ErrMissingUsername)

	_, err = svc.Create(ctx, Input{Username: "x", Password: "short", Role: RoleStaff}, 1)
	require.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.Create(ctx, Input{Username: "x", Password: "password123", Role: "owner"}, 1)
	require.ErrorIs(t, err, ErrBadRole)
}

func TestCreateDuplicateUsername(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, bcrypt.MinCost)
	ctx := context.Background()
	seedAdmin(t, svc)

	_, err := svc.Create(ctx, Input{Username: "admin", Password: "password123", Role: RoleStaff}, 1)
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUpdateKeepsPasswordWhenBlank(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, bcrypt.MinCost)
	ctx := context.Background()
	admin := seedAdmin(t, svc)
	hashBefore := repo.users[admin.ID].PasswordHash

	updated, err := svc.Update(ctx, admin.ID, Input{Username: "admin2", Role: RoleAdmin}, admin.ID)
	require.NoError(t, err)
	require.Equal(t, "admin2", updated.Username)
	require.Equal(t, hashBefore, repo.users[admin.ID].PasswordHash)
}

func TestDemoteLastAdminBlocked(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, bcrypt.MinCost)
	ctx := context.Background()
	admin := seedAdmin(t, svc)

	_, err := svc.Update(ctx, admin.ID, Input{Username: "admin", Role: RoleStaff}, admin.ID)
	require.ErrorIs(t, err, ErrLastAdmin)

	// With a second admin the demotion goes through.
	_, err = svc.Create(ctx, Input{Username: "admin2", Password: "password123", Role: RoleAdmin}, admin.ID)
	require.NoError(t, err)
	demoted, err := svc.Update(ctx, admin.ID, Input{Username: "admin", Role: RoleStaff}, admin.ID)
	require.NoError(t, err)
	require.Equal(t, RoleStaff, demoted.Role)
}

func TestDeleteGuards(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, bcrypt.MinCost)
	ctx := context.Background()
	admin := seedAdmin(t, svc)

	require.ErrorIs(t, svc.Delete(ctx, admin.ID, admin.ID), ErrSelfDelete)
	require.ErrorIs(t, svc.Delete(ctx, 404, admin.ID), shared.ErrNotFound)

	staff, err := svc.Create(ctx, Input{Username: "staffer", Password: "password123", Role: RoleStaff}, admin.ID)
	require.NoError(t, err)

	// The only admin cannot be deleted, even by someone else.
	require.ErrorIs(t, svc.Delete(ctx, admin.ID, staff.ID), ErrLastAdmin)
	require.NoError(t, svc.Delete(ctx, staff.ID, admin.ID))
}
