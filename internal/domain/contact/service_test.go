package contact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmapi/internal/core/apperror"
	appctx "crmapi/internal/core/context"
	"crmapi/internal/core/id"
)

type memRepo struct {
	rows map[id.ID]Contact
}

func newMemRepo() *memRepo { return &memRepo{rows: map[id.ID]Contact{}} }

func (r *memRepo) Create(_ context.Context, c *Contact) error {
	r.rows[c.ID] = *c
	return nil
}

func (r *memRepo) GetByID(_ context.Context, cid id.ID) (*Contact, error) {
	c, ok := r.rows[cid]
	if !ok || !c.IsActive {
		return nil, apperror.NewNotFound(EntityName, cid.String())
	}
	return &c, nil
}

func (r *memRepo) Update(_ context.Context, c *Contact) error {
	r.rows[c.ID] = *c
	return nil
}

func (r *memRepo) Deactivate(_ context.Context, cid id.ID) error {
	c := r.rows[cid]
	c.IsActive = false
	r.rows[cid] = c
	return nil
}

func (r *memRepo) EmailExists(_ context.Context, email string, exclude *id.ID) (bool, error) {
	for _, c := range r.rows {
		if c.IsActive && c.Email == email && (exclude == nil || c.ID != *exclude) {
			return true, nil
		}
	}
	return false, nil
}

type fakeCustom struct {
	values map[id.ID]map[string]any
}

func (f *fakeCustom) SetValues(_ context.Context, contactID id.ID, raw map[string]string) error {
	if len(raw) == 0 {
		return nil
	}
	if f.values[contactID] == nil {
		f.values[contactID] = map[string]any{}
	}
	for k, v := range raw {
		f.values[contactID][k] = v
	}
	return nil
}

func (f *fakeCustom) Values(_ context.Context, contactID id.ID) (map[string]any, error) {
	return f.values[contactID], nil
}

type inlineTx struct{}

func (inlineTx) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func strPtr(s string) *string { return &s }

func newTestService() (*Service, *memRepo, *fakeCustom) {
	repo := newMemRepo()
	custom := &fakeCustom{values: map[id.ID]map[string]any{}}
	return NewService(repo, custom, inlineTx{}, nil), repo, custom
}

func userCtx(userID string, admin bool, perms ...string) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:      userID,
		IsAdmin:     admin,
		Permissions: perms,
	})
}

func validInput(email string) Fields {
	return Fields{
		FirstName: strPtr("Ada"),
		LastName:  strPtr("Lovelace"),
		Email:     strPtr(email),
	}
}

func TestService_Create(t *testing.T) {
	svc, repo, _ := newTestService()
	owner := id.New()
	ctx := userCtx(owner.String(), true)

	in := validInput("ada@example.com")
	in.CustomFields = map[string]string{"industry": "Tech"}
	d, err := svc.Create(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", d.FullName)
	assert.Equal(t, DefaultLeadStatus, d.LeadStatus)
	require.NotNil(t, d.OwnerID)
	assert.Equal(t, owner, *d.OwnerID)
	assert.Equal(t, map[string]any{"industry": "Tech"}, d.CustomFields)
	assert.Contains(t, repo.rows, d.ID)
}

func TestService_CreateDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := userCtx(id.New().String(), true)

	_, err := svc.Create(ctx, validInput("ada@example.com"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, validInput("ada@example.com"))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
}

func TestService_CreateValidation(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := userCtx(id.New().String(), true)

	_, err := svc.Create(ctx, validInput("not-an-email"))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.Empty(t, repo.rows)
}

func TestService_CreateForbidden(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := userCtx(id.New().String(), false, "contacts:read")

	_, err := svc.Create(ctx, validInput("ada@example.com"))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
}

func TestService_OwnScopeForcesOwner(t *testing.T) {
	svc, _, _ := newTestService()
	caller := id.New()
	ctx := userCtx(caller.String(), false, "contacts:create:own")

	in := validInput("ada@example.com")
	other := id.New()
	in.OwnerID = &other
	d, err := svc.Create(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, d.OwnerID)
	assert.Equal(t, caller, *d.OwnerID)
}

func TestService_OwnScopeHidesOtherContacts(t *testing.T) {
	svc, _, _ := newTestService()
	admin := userCtx(id.New().String(), true)

	d, err := svc.Create(admin, validInput("ada@example.com"))
	require.NoError(t, err)

	stranger := userCtx(id.New().String(), false, "contacts:read:own", "contacts:update:own", "contacts:delete:own")
	_, err = svc.Get(stranger, d.ID)
	assert.True(t, apperror.IsNotFound(err))

	_, err = svc.Update(stranger, d.ID, Fields{Company: strPtr("Acme")})
	assert.True(t, apperror.IsNotFound(err))

	assert.True(t, apperror.IsNotFound(svc.Delete(stranger, d.ID)))

	owner := userCtx(d.OwnerID.String(), false, "contacts:read:own")
	got, err := svc.Get(owner, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
}

func TestService_Update(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := userCtx(id.New().String(), true)

	d, err := svc.Create(ctx, validInput("ada@example.com"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, d.ID, Fields{
		Company:    strPtr("Analytical Engines"),
		LeadStatus: strPtr("qualified"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", updated.FirstName)
	require.NotNil(t, updated.Company)
	assert.Equal(t, "Analytical Engines", *updated.Company)
	assert.Equal(t, "qualified", repo.rows[d.ID].LeadStatus)

	_, err = svc.Update(ctx, d.ID, Fields{LeadStatus: strPtr("lost")})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestService_UpdateKeepsOwnEmail(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := userCtx(id.New().String(), true)

	d, err := svc.Create(ctx, validInput("ada@example.com"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, d.ID, Fields{Email: strPtr("ada@example.com")})
	assert.NoError(t, err)
}

func TestService_Delete(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := userCtx(id.New().String(), true)

	d, err := svc.Create(ctx, validInput("ada@example.com"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, d.ID))
	_, err = svc.Get(ctx, d.ID)
	assert.True(t, apperror.IsNotFound(err))

	history, err := svc.History(ctx, id.New(), 10)
	assert.True(t, apperror.IsNotFound(err))
	assert.Nil(t, history)
}
