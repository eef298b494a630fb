package world

import (
	"fmt"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

func refuse(kind models.MutationErrorKind, op models.OperationKind, ref models.ObjectRef, format string, args ...any) error {
	return &models.WorldMutationError{Kind: kind, Op: op, Ref: ref, Detail: fmt.Sprintf(format, args...)}
}

// Mutate applies op to the referenced object. Refusals are returned as
// *models.WorldMutationError and leave the world unchanged.
func (w *World) Mutate(ref models.ObjectRef, op models.Operation) (models.MutationResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if op.Kind == models.OpCreate {
		return w.create(op)
	}

	obj, ok := w.objects[ref]
	if !ok {
		return models.MutationResult{}, refuse(models.MutationNotFound, op.Kind, ref, "no such object")
	}

	switch op.Kind {
	case models.OpTake:
		return w.take(obj, op)
	case models.OpGive:
		return w.give(obj, op)
	case models.OpOpen, models.OpClose:
		return w.setOpen(obj, op)
	case models.OpDestroy:
		return w.destroy(obj, op)
	case models.OpPutIn:
		return w.putIn(obj, op)
	default:
		return models.MutationResult{}, refuse(models.MutationPreconditionUnmet, op.Kind, ref, "unsupported operation")
	}
}

func (w *World) create(op models.Operation) (models.MutationResult, error) {
	bp, ok := w.blueprints[op.Blueprint]
	if !ok {
		return models.MutationResult{}, refuse(models.MutationNotFound, op.Kind, "", "no blueprint named %q", op.Blueprint)
	}
	ref := w.addLocked(models.WorldObject{
		Name:        bp.Name,
		Attributes:  bp.Attributes,
		IsContainer: bp.IsContainer,
		Owner:       models.OwnerWorld,
	})
	return models.MutationResult{Ref: ref, Changed: true}, nil
}

// heldByOther reports whether someone other than actor owns obj. Objects
// owned by the world are free to take.
func heldByOther(obj *models.WorldObject, actor string) bool {
	return obj.Owner != models.OwnerWorld && obj.Owner != actor
}

func (w *World) take(obj *models.WorldObject, op models.Operation) (models.MutationResult, error) {
	if obj.Owner == op.Actor {
		return models.MutationResult{Ref: obj.ID}, nil
	}
	if heldByOther(obj, op.Actor) {
		return models.MutationResult{}, refuse(models.MutationPermissionDenied, op.Kind, obj.ID, "held by %s", obj.Owner)
	}
	if obj.Inside != "" {
		c, ok := w.objects[obj.Inside]
		if ok && !c.IsOpen {
			return models.MutationResult{}, refuse(models.MutationPreconditionUnmet, op.Kind, obj.ID, "inside closed container %s", c.ID)
		}
	}
	obj.Owner = op.Actor
	obj.Inside = ""
	return models.MutationResult{Ref: obj.ID, Changed: true}, nil
}

func (w *World) give(obj *models.WorldObject, op models.Operation) (models.MutationResult, error) {
	if obj.Owner != op.Actor {
		return models.MutationResult{}, refuse(models.MutationPermissionDenied, op.Kind, obj.ID, "not held by %s", op.Actor)
	}
	if op.Recipient == "" {
		return models.MutationResult{}, refuse(models.MutationPreconditionUnmet, op.Kind, obj.ID, "no recipient")
	}
	obj.Owner = op.Recipient
	return models.MutationResult{Ref: obj.ID, Changed: true}, nil
}

func (w *World) setOpen(obj *models.WorldObject, op models.Operation) (models.MutationResult, error) {
	if !obj.IsContainer {
		return models.MutationResult{}, refuse(models.MutationPreconditionUnmet, op.Kind, obj.ID, "not a container")
	}
	if heldByOther(obj, op.Actor) {
		return models.MutationResult{}, refuse(models.MutationPermissionDenied, op.Kind, obj.ID, "held by %s", obj.Owner)
	}
	want := op.Kind == models.OpOpen
	if obj.IsOpen == want {
		return models.MutationResult{Ref: obj.ID}, nil
	}
	obj.IsOpen = want
	return models.MutationResult{Ref: obj.ID, Changed: true}, nil
}

func (w *World) destroy(obj *models.WorldObject, op models.Operation) (models.MutationResult, error) {
	if heldByOther(obj, op.Actor) {
		return models.MutationResult{}, refuse(models.MutationPermissionDenied, op.Kind, obj.ID, "held by %s", obj.Owner)
	}
	for _, o := range w.objects {
		if o.Inside == obj.ID {
			o.Inside = obj.Inside
		}
	}
	delete(w.objects, obj.ID)
	return models.MutationResult{Ref: obj.ID, Changed: true}, nil
}

func (w *World) putIn(obj *models.WorldObject, op models.Operation) (models.MutationResult, error) {
	if obj.Owner != op.Actor {
		return models.MutationResult{}, refuse(models.MutationPermissionDenied, op.Kind, obj.ID, "not held by %s", op.Actor)
	}
	c, ok := w.objects[op.Container]
	if !ok {
		return models.MutationResult{}, refuse(models.MutationNotFound, op.Kind, op.Container, "no such container")
	}
	if !c.IsContainer || !c.IsOpen {
		return models.MutationResult{}, refuse(models.MutationPreconditionUnmet, op.Kind, c.ID, "container is not open")
	}
	if c.ID == obj.ID {
		return models.MutationResult{}, refuse(models.MutationPreconditionUnmet, op.Kind, obj.ID, "cannot contain itself")
	}
	obj.Inside = c.ID
	obj.Owner = models.OwnerWorld
	return models.MutationResult{Ref: obj.ID, Changed: true}, nil
}
