package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appctx "crmapi/internal/core/context"
	"crmapi/internal/core/id"
)

func TestDiff(t *testing.T) {
	phone := "+1 555"
	newPhone := "+1 556"
	now := time.Now()

	before := map[string]any{
		"first_name": "Ann",
		"phone":      &phone,
		"updated_at": now,
		"city":       "Paris",
	}
	after := map[string]any{
		"first_name": "Ann",
		"phone":      &newPhone,
		"updated_at": now.UTC(),
		"company":    "Acme",
	}

	changes := Diff(before, after)

	assert.Len(t, changes, 3)
	assert.Equal(t, Change{Old: "+1 555", New: "+1 556"}, changes["phone"])
	assert.Equal(t, Change{Old: nil, New: "Acme"}, changes["company"])
	assert.Equal(t, Change{Old: "Paris", New: nil}, changes["city"])
	assert.NotContains(t, changes, "updated_at")
}

func TestDiff_NilSnapshots(t *testing.T) {
	changes := Diff(nil, map[string]any{"email": "a@b.c"})
	assert.Equal(t, map[string]Change{"email": {New: "a@b.c"}}, changes)

	assert.Empty(t, Diff(nil, nil))
}

func TestDiff_NilPointers(t *testing.T) {
	var none *string
	changes := Diff(map[string]any{"notes": none}, map[string]any{"notes": none})
	assert.Empty(t, changes)
}

func TestActor(t *testing.T) {
	userID := id.New()
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: userID.String()})

	got := Actor(ctx)
	if assert.NotNil(t, got) {
		assert.Equal(t, userID, *got)
	}

	assert.Nil(t, Actor(context.Background()))
	assert.Nil(t, Actor(appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "service"})))
}
