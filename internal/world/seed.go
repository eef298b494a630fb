package world

import "github.com/valter-silva-au/ai-curious-brain/pkg/models"

// Seeded returns a small starter world: a closed wooden chest holding a red
// ball, a blue box on the floor, a green disc the user holds, and blueprints
// for things the agent can make.
func Seeded() *World {
	w := New()
	chest := w.Add(models.WorldObject{
		Name:        "chest",
		Attributes:  map[string]string{"shape": "box", "color": "brown", "material": "wood", "size": "8"},
		IsContainer: true,
	})
	w.Add(models.WorldObject{
		Name:       "ball",
		Attributes: map[string]string{"shape": "sphere", "color": "red", "material": "rubber", "size": "2"},
		Inside:     chest,
	})
	w.Add(models.WorldObject{
		Name:       "crate",
		Attributes: map[string]string{"shape": "box", "color": "blue", "material": "wood", "size": "5"},
	})
	w.Add(models.WorldObject{
		Name:       "disc",
		Attributes: map[string]string{"shape": "circle", "color": "green", "material": "metal", "size": "3"},
		Owner:      models.OwnerUser,
	})
	w.AddBlueprint(models.Blueprint{
		Name:       "marble",
		Attributes: map[string]string{"shape": "sphere", "color": "blue", "material": "glass", "size": "1"},
	})
	w.AddBlueprint(models.Blueprint{
		Name:        "basket",
		Attributes:  map[string]string{"shape": "box", "color": "green", "material": "wicker", "size": "6"},
		IsContainer: true,
	})
	return w
}
