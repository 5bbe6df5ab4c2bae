package profile

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"invitera-service/internal/domain/auth"
	"invitera-service/internal/domain/user"
	xerrors "invitera-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ----- fakes -----

// fakeProfileStore mimics the users table: one row per identity under a
// unique constraint, with upsert-on-conflict semantics.
type fakeProfileStore struct {
	rows    map[int64]*user.Profile
	nextID  int64
	inserts int
	updates int
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{rows: map[int64]*user.Profile{}, nextID: 1}
}

func (f *fakeProfileStore) FindByIdentity(_ context.Context, identityID int64) (*user.Profile, error) {
	row, ok := f.rows[identityID]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	copied := *row
	return &copied, nil
}

func (f *fakeProfileStore) Upsert(_ context.Context, p *user.Profile) error {
	if existing, ok := f.rows[p.IdentityID]; ok {
		f.updates++
		existing.FirstName = p.FirstName
		existing.LastName = p.LastName
		existing.Mobile = p.Mobile
		existing.Gender = p.Gender
		existing.UpdatedAt = time.Now()
		p.ID = existing.ID
		p.Role = existing.Role
		p.CreatedAt = existing.CreatedAt
		p.UpdatedAt = existing.UpdatedAt
		return nil
	}

	f.inserts++
	p.ID = f.nextID
	f.nextID++
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	copied := *p
	f.rows[p.IdentityID] = &copied
	return nil
}

func (f *fakeProfileStore) Update(_ context.Context, identityID int64, p *user.Profile) error {
	existing, ok := f.rows[identityID]
	if !ok {
		return xerrors.ErrNotFound
	}
	existing.FirstName = p.FirstName
	existing.LastName = p.LastName
	existing.Mobile = p.Mobile
	existing.Gender = p.Gender
	p.ID = existing.ID
	return nil
}

type fakeIdentityStore struct {
	identity  *auth.Identity
	providers map[string]*auth.Provider
	metadata  map[int64]map[string]interface{}
}

func (f *fakeIdentityStore) FindIdentityByID(context.Context, int64) (*auth.Identity, error) {
	if f.identity == nil {
		return nil, xerrors.ErrNotFound
	}
	return f.identity, nil
}

func (f *fakeIdentityStore) FindProviderByIdentityAndType(_ context.Context, _ int64, providerType string) (*auth.Provider, error) {
	p, ok := f.providers[providerType]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return p, nil
}

func (f *fakeIdentityStore) UpdateProviderMetadata(_ context.Context, providerID int64, meta map[string]interface{}) error {
	if f.metadata == nil {
		f.metadata = map[int64]map[string]interface{}{}
	}
	f.metadata[providerID] = meta
	return nil
}

func testIdentity(id int64, email string) *auth.Identity {
	return &auth.Identity{
		ID:    id,
		Email: sql.NullString{String: email, Valid: true},
	}
}

// ----- Complete -----

func TestCompleteTwiceUpdatesInPlace(t *testing.T) {
	store := newFakeProfileStore()
	idents := &fakeIdentityStore{identity: testIdentity(7, "amina@example.com")}
	svc := NewProfileService(store, idents, zap.NewNop())

	first, err := svc.Complete(context.Background(), 7, &user.CompleteProfileRequest{
		FirstName: "Amina",
		LastName:  "Otieno",
		Gender:    "female",
	})
	require.NoError(t, err)
	require.Equal(t, 1, store.inserts)

	// A resubmit (double click, retried request) must update the same
	// row, never create a second one.
	second, err := svc.Complete(context.Background(), 7, &user.CompleteProfileRequest{
		FirstName: "Amina",
		LastName:  "Njoroge",
		Mobile:    "+254700000001",
		Gender:    "female",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, store.inserts)
	assert.Equal(t, 1, store.updates)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.rows, 1)

	row, err := store.FindByIdentity(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Njoroge", row.LastName)
	assert.Equal(t, "+254700000001", row.Mobile.String)
}

func TestCompleteNeverChangesRole(t *testing.T) {
	store := newFakeProfileStore()
	store.rows[7] = &user.Profile{
		ID:         1,
		IdentityID: 7,
		FirstName:  "Amina",
		LastName:   "Otieno",
		Gender:     user.GenderFemale,
		Role:       user.RoleAdmin,
	}
	idents := &fakeIdentityStore{identity: testIdentity(7, "amina@example.com")}
	svc := NewProfileService(store, idents, zap.NewNop())

	got, err := svc.Complete(context.Background(), 7, &user.CompleteProfileRequest{
		FirstName: "Amina",
		LastName:  "Otieno",
		Gender:    "female",
	})
	require.NoError(t, err)

	assert.Equal(t, user.RoleAdmin, got.Role)
	assert.Equal(t, user.RoleAdmin, store.rows[7].Role)
}

func TestCompleteRejectsBadGenderBeforeStore(t *testing.T) {
	store := newFakeProfileStore()
	idents := &fakeIdentityStore{identity: testIdentity(7, "amina@example.com")}
	svc := NewProfileService(store, idents, zap.NewNop())

	_, err := svc.Complete(context.Background(), 7, &user.CompleteProfileRequest{
		FirstName: "Amina",
		LastName:  "Otieno",
		Gender:    "unknown",
	})
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.ErrInvalidInput))
	assert.Empty(t, store.rows)
}

// ----- Prefill -----

func TestPrefillShortCircuitsWhenProfileExists(t *testing.T) {
	store := newFakeProfileStore()
	store.rows[7] = &user.Profile{ID: 1, IdentityID: 7, Role: user.RoleUser}
	svc := NewProfileService(store, &fakeIdentityStore{}, zap.NewNop())

	prefill, hasProfile, err := svc.Prefill(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, hasProfile)
	assert.Nil(t, prefill)
}

func TestPrefillPrefersGoogleMetadata(t *testing.T) {
	store := newFakeProfileStore()
	idents := &fakeIdentityStore{
		identity: testIdentity(7, "amina@example.com"),
		providers: map[string]*auth.Provider{
			"google": {ID: 1, Metadata: map[string]interface{}{"full_name": "Amina Otieno"}},
			"local":  {ID: 2, Metadata: map[string]interface{}{"first_name": "Someone", "last_name": "Else"}},
		},
	}
	svc := NewProfileService(store, idents, zap.NewNop())

	prefill, hasProfile, err := svc.Prefill(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, hasProfile)
	assert.Equal(t, "Amina", prefill.FirstName)
	assert.Equal(t, "Otieno", prefill.LastName)
	assert.Equal(t, "amina@example.com", prefill.Email)
}
