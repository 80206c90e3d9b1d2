package props

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Snapshot encodes the values of every field in g as a JSON document. Tags
// become nested objects: chorus.delay is stored at {"chorus":{"delay":...}}.
func Snapshot(g *Group) ([]byte, error) {
	data := []byte("{}")
	for _, f := range g.Fields() {
		var err error
		data, err = sjson.SetBytes(data, f.Tag(), f.Float())
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", f.Tag(), err)
		}
	}
	return data, nil
}

// Apply sets every field of g present in the JSON document data through
// SetFloat, so changes are sent like any other edit. Keys the group does not
// know are ignored. Apply returns the number of fields whose value changed.
func Apply(g *Group, data []byte) (int, error) {
	if !gjson.ValidBytes(data) {
		return 0, ErrInvalidPreset
	}

	changed := 0
	for _, f := range g.Fields() {
		r := gjson.GetBytes(data, f.Tag())
		if !r.Exists() {
			continue
		}
		if r.Type != gjson.Number {
			return changed, fmt.Errorf("%w: %s is %s, want number", ErrInvalidPreset, f.Tag(), r.Type)
		}
		if f.SetFloat(r.Float()) {
			changed++
		}
	}
	return changed, nil
}
