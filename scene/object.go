// Package scene defines the object inventory and session records that flow
// through the pipeline, grounded on the request/object/session shapes in
// the specification and on original_source/holodeck_core/schemas/session.py.
package scene

import (
	"fmt"

	"github.com/holodeck-scenegen/scenegen/geometry"
	"github.com/holodeck-scenegen/scenegen/herr"
)

// MinSizeAxis is the minimum allowed length of any object size axis.
const MinSizeAxis = 0.01

// Object is a single scene object. ObjectID is used verbatim as the
// downstream assembly host name.
type Object struct {
	ObjectID           string          `json:"object_id"`
	Name               string          `json:"name"`
	Category           string          `json:"category"`
	Size               geometry.Vector3 `json:"size_m"`
	Position           geometry.Vector3 `json:"position"`
	Rotation           geometry.Vector3 `json:"rotation"`
	VisualDescription  string          `json:"visual_desc"`
	StyleHints         []string        `json:"style_hints,omitempty"`
	MustExist          bool            `json:"must_exist"`
}

// Validate enforces the per-axis minimum size and normalizes rotation into
// [0, 360).
func (o *Object) Validate() error {
	if o.ObjectID == "" {
		return herr.New("scene.ValidateObject", "scene", herr.KindInvalidInput,
			fmt.Errorf("object_id must not be empty"))
	}
	if o.Size.X < MinSizeAxis || o.Size.Y < MinSizeAxis || o.Size.Z < MinSizeAxis {
		return herr.New("scene.ValidateObject", "scene", herr.KindInvalidInput,
			fmt.Errorf("object %s: every size axis must be >= %.2fm, got %+v", o.ObjectID, MinSizeAxis, o.Size))
	}
	o.Rotation = geometry.Vector3{
		X: geometry.NormalizeDegrees(o.Rotation.X),
		Y: geometry.NormalizeDegrees(o.Rotation.Y),
		Z: geometry.NormalizeDegrees(o.Rotation.Z),
	}
	return nil
}

// ValidateSet validates every object and rejects duplicate object IDs.
func ValidateSet(objects []Object) error {
	seen := make(map[string]bool, len(objects))
	for i := range objects {
		if err := objects[i].Validate(); err != nil {
			return err
		}
		if seen[objects[i].ObjectID] {
			return herr.New("scene.ValidateSet", "scene", herr.KindInvalidInput,
				fmt.Errorf("duplicate object_id %q", objects[i].ObjectID))
		}
		seen[objects[i].ObjectID] = true
	}
	return nil
}

// Request is the immutable user input persisted as request.json.
type Request struct {
	Text        string           `json:"text"`
	Style       string           `json:"style,omitempty"`
	Constraints RequestConstraints `json:"constraints"`
}

// RequestConstraints carries the optional object-count cap and room-size
// hint that accompany a request.
type RequestConstraints struct {
	MaxObjects    *int              `json:"max_objects,omitempty"`
	RoomSizeHintM *geometry.Vector3 `json:"room_size_hint,omitempty"`
}

// ObjectsDocument is the objects.json wire format.
type ObjectsDocument struct {
	SceneStyle string   `json:"scene_style"`
	Objects    []Object `json:"objects"`
}
