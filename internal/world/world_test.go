package world

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

func mutationKind(t *testing.T, err error) models.MutationErrorKind {
	t.Helper()
	var me *models.WorldMutationError
	require.True(t, errors.As(err, &me), "expected *WorldMutationError, got %v", err)
	return me.Kind
}

func TestFind_NewestFirst(t *testing.T) {
	w := New()
	first := w.Add(models.WorldObject{Name: "a", Attributes: map[string]string{"color": "red"}})
	second := w.Add(models.WorldObject{Name: "b", Attributes: map[string]string{"color": "red"}})
	w.Add(models.WorldObject{Name: "c", Attributes: map[string]string{"color": "blue"}})

	refs := w.Find(func(o models.WorldObject) bool { return o.Attributes["color"] == "red" })
	assert.Equal(t, []models.ObjectRef{second, first}, refs)
}

func TestTake_FromWorld(t *testing.T) {
	w := New()
	ref := w.Add(models.WorldObject{Name: "crate"})

	res, err := w.Mutate(ref, models.Operation{Kind: models.OpTake, Actor: "alla"})
	require.NoError(t, err)
	assert.True(t, res.Changed)

	obj, ok := w.Object(ref)
	require.True(t, ok)
	assert.Equal(t, "alla", obj.Owner)

	res, err = w.Mutate(ref, models.Operation{Kind: models.OpTake, Actor: "alla"})
	require.NoError(t, err)
	assert.False(t, res.Changed, "taking an owned object is a no-op")
}

func TestTake_Refusals(t *testing.T) {
	w := New()
	held := w.Add(models.WorldObject{Name: "disc", Owner: models.OwnerUser})
	chest := w.Add(models.WorldObject{Name: "chest", IsContainer: true})
	ball := w.Add(models.WorldObject{Name: "ball", Inside: chest})

	_, err := w.Mutate("obj-9999", models.Operation{Kind: models.OpTake, Actor: "alla"})
	assert.Equal(t, models.MutationNotFound, mutationKind(t, err))

	_, err = w.Mutate(held, models.Operation{Kind: models.OpTake, Actor: "alla"})
	assert.Equal(t, models.MutationPermissionDenied, mutationKind(t, err))

	_, err = w.Mutate(ball, models.Operation{Kind: models.OpTake, Actor: "alla"})
	assert.Equal(t, models.MutationPreconditionUnmet, mutationKind(t, err))

	_, err = w.Mutate(chest, models.Operation{Kind: models.OpOpen, Actor: "alla"})
	require.NoError(t, err)
	_, err = w.Mutate(ball, models.Operation{Kind: models.OpTake, Actor: "alla"})
	require.NoError(t, err)

	obj, _ := w.Object(ball)
	assert.Empty(t, obj.Inside)
	assert.Equal(t, "alla", obj.Owner)
}

func TestOpen_Idempotent(t *testing.T) {
	w := New()
	chest := w.Add(models.WorldObject{Name: "chest", IsContainer: true})

	res, err := w.Mutate(chest, models.Operation{Kind: models.OpOpen, Actor: "alla"})
	require.NoError(t, err)
	assert.True(t, res.Changed)

	res, err = w.Mutate(chest, models.Operation{Kind: models.OpOpen, Actor: "alla"})
	require.NoError(t, err)
	assert.False(t, res.Changed)

	crate := w.Add(models.WorldObject{Name: "crate"})
	_, err = w.Mutate(crate, models.Operation{Kind: models.OpOpen, Actor: "alla"})
	assert.Equal(t, models.MutationPreconditionUnmet, mutationKind(t, err))
}

func TestCreate_FromBlueprint(t *testing.T) {
	w := New()
	w.AddBlueprint(models.Blueprint{Name: "marble", Attributes: map[string]string{"shape": "sphere"}})

	res, err := w.Mutate("", models.Operation{Kind: models.OpCreate, Actor: "alla", Blueprint: "marble"})
	require.NoError(t, err)
	obj, ok := w.Object(res.Ref)
	require.True(t, ok)
	assert.Equal(t, "marble", obj.Name)
	assert.Equal(t, "sphere", obj.Attributes["shape"])
	assert.Equal(t, models.OwnerWorld, obj.Owner)

	_, err = w.Mutate("", models.Operation{Kind: models.OpCreate, Actor: "alla", Blueprint: "unicorn"})
	assert.Equal(t, models.MutationNotFound, mutationKind(t, err))
}

func TestGivePutInDestroy(t *testing.T) {
	w := New()
	basket := w.Add(models.WorldObject{Name: "basket", IsContainer: true, IsOpen: true})
	ball := w.Add(models.WorldObject{Name: "ball", Owner: "alla"})
	rock := w.Add(models.WorldObject{Name: "rock"})

	_, err := w.Mutate(rock, models.Operation{Kind: models.OpGive, Actor: "alla", Recipient: models.OwnerUser})
	assert.Equal(t, models.MutationPermissionDenied, mutationKind(t, err))

	_, err = w.Mutate(ball, models.Operation{Kind: models.OpPutIn, Actor: "alla", Container: basket})
	require.NoError(t, err)
	assert.Equal(t, []models.ObjectRef{ball}, w.Contents(basket))

	_, err = w.Mutate(basket, models.Operation{Kind: models.OpDestroy, Actor: "alla"})
	require.NoError(t, err)
	_, ok := w.Object(basket)
	assert.False(t, ok)
	obj, _ := w.Object(ball)
	assert.Empty(t, obj.Inside, "contents fall out of a destroyed container")
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	w := Seeded()
	require.NoError(t, w.Save(path))

	loaded := New()
	require.NoError(t, loaded.Load(path))

	if diff := cmp.Diff(w.Snapshot(), loaded.Snapshot()); diff != "" {
		t.Errorf("world state mismatch after reload (-want +got):\n%s", diff)
	}

	// New objects keep increasing sequence numbers after a reload.
	ref := loaded.Add(models.WorldObject{Name: "late"})
	obj, _ := loaded.Object(ref)
	assert.Greater(t, obj.Created, uint64(len(w.Objects())))
}

func TestLoad_MissingFileKeepsWorld(t *testing.T) {
	w := Seeded()
	before := len(w.Objects())
	require.NoError(t, w.Load(filepath.Join(t.TempDir(), "absent.yaml")))
	assert.Len(t, w.Objects(), before)
}
