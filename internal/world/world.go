// Package world holds the in-memory world model the agent acts on: objects,
// their attributes, ownership and containment, plus the blueprints of things
// that can be created on request.
package world

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
	"gopkg.in/yaml.v3"
)

// FileName is the world state file under the base directory.
const FileName = "world.yaml"

// State is the serialized form of a World.
type State struct {
	Version    string               `yaml:"version"`
	Seq        uint64               `yaml:"seq"`
	Objects    []models.WorldObject `yaml:"objects"`
	Blueprints []models.Blueprint   `yaml:"blueprints"`
}

// World is safe for concurrent use; mutations are serialized.
type World struct {
	mu         sync.RWMutex
	objects    map[models.ObjectRef]*models.WorldObject
	blueprints map[string]models.Blueprint
	seq        uint64
}

// New returns an empty world.
func New() *World {
	return &World{
		objects:    make(map[models.ObjectRef]*models.WorldObject),
		blueprints: make(map[string]models.Blueprint),
	}
}

// Add places a new object in the world and returns its reference. Objects
// get increasing creation sequence numbers in insertion order.
func (w *World) Add(obj models.WorldObject) models.ObjectRef {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.addLocked(obj)
}

func (w *World) addLocked(obj models.WorldObject) models.ObjectRef {
	w.seq++
	obj.Created = w.seq
	if obj.ID == "" {
		obj.ID = models.ObjectRef(fmt.Sprintf("obj-%04d", w.seq))
	}
	if obj.Owner == "" {
		obj.Owner = models.OwnerWorld
	}
	obj.Attributes = copyAttrs(obj.Attributes)
	w.objects[obj.ID] = &obj
	return obj.ID
}

// AddBlueprint registers something the world can create.
func (w *World) AddBlueprint(bp models.Blueprint) {
	w.mu.Lock()
	defer w.mu.Unlock()
	bp.Attributes = copyAttrs(bp.Attributes)
	w.blueprints[bp.Name] = bp
}

// Find returns references to every object match accepts, newest first.
func (w *World) Find(match func(models.WorldObject) bool) []models.ObjectRef {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var found []*models.WorldObject
	for _, o := range w.objects {
		if match(*o) {
			found = append(found, o)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Created > found[j].Created })

	refs := make([]models.ObjectRef, len(found))
	for i, o := range found {
		refs[i] = o.ID
	}
	return refs
}

// Object returns a copy of the referenced object.
func (w *World) Object(ref models.ObjectRef) (models.WorldObject, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	o, ok := w.objects[ref]
	if !ok {
		return models.WorldObject{}, false
	}
	c := *o
	c.Attributes = copyAttrs(o.Attributes)
	return c, true
}

// Objects returns copies of all objects ordered by creation.
func (w *World) Objects() []models.WorldObject {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]models.WorldObject, 0, len(w.objects))
	for _, o := range w.objects {
		c := *o
		c.Attributes = copyAttrs(o.Attributes)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created < out[j].Created })
	return out
}

// Blueprints returns the blueprints match accepts, ordered by name.
func (w *World) Blueprints(match func(models.Blueprint) bool) []models.Blueprint {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []models.Blueprint
	for _, bp := range w.blueprints {
		if match(bp) {
			out = append(out, bp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Contents lists the objects directly inside container.
func (w *World) Contents(container models.ObjectRef) []models.ObjectRef {
	return w.Find(func(o models.WorldObject) bool { return o.Inside == container })
}

// Snapshot returns the serializable state.
func (w *World) Snapshot() State {
	objs := w.Objects()
	w.mu.RLock()
	defer w.mu.RUnlock()
	st := State{Version: "1.0", Seq: w.seq, Objects: objs}
	for _, bp := range w.blueprints {
		st.Blueprints = append(st.Blueprints, bp)
	}
	sort.Slice(st.Blueprints, func(i, j int) bool { return st.Blueprints[i].Name < st.Blueprints[j].Name })
	return st
}

// Restore replaces the world's contents with st.
func (w *World) Restore(st State) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.objects = make(map[models.ObjectRef]*models.WorldObject, len(st.Objects))
	w.blueprints = make(map[string]models.Blueprint, len(st.Blueprints))
	w.seq = st.Seq
	for _, o := range st.Objects {
		o.Attributes = copyAttrs(o.Attributes)
		w.objects[o.ID] = &o
		if o.Created > w.seq {
			w.seq = o.Created
		}
	}
	for _, bp := range st.Blueprints {
		w.blueprints[bp.Name] = bp
	}
}

// Load reads world state from path. A missing file leaves the world as is.
func (w *World) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("loading world: %w", err)
	}
	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("loading world: parsing YAML: %w", err)
	}
	w.Restore(st)
	return nil
}

// Save writes world state to path.
func (w *World) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("saving world: creating directory: %w", err)
	}
	st := w.Snapshot()
	data, err := yaml.Marshal(&st)
	if err != nil {
		return fmt.Errorf("saving world: marshaling YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("saving world: writing file: %w", err)
	}
	return nil
}

func copyAttrs(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
