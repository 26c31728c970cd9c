package colortag

import "hash/fnv"

// Tag is an accent color used for recipe theming. Tags are derived, never
// persisted by the content source; the same recipe id must map to the same
// tag across screens and restarts.
type Tag string

// Fallback is used when a resolved tag is invalid or reserved, e.g. for
// plan slots whose recipe has left the content list.
const Fallback Tag = "green"

var palette = []Tag{
	"green",
	"orange",
	"purple",
	"teal",
	"pink",
	"blue",
	"yellow",
	"red",
}

// For deterministically picks a palette tag for a recipe id.
func For(recipeID string) Tag {
	if recipeID == "" {
		return Fallback
	}
	h := fnv.New32a()
	h.Write([]byte(recipeID))
	return palette[h.Sum32()%uint32(len(palette))]
}

func (t Tag) Valid() bool {
	for _, p := range palette {
		if p == t {
			return true
		}
	}
	return false
}

func (t Tag) String() string {
	return string(t)
}
