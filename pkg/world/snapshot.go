package world

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// The snapshot format is a single JSON document keyed by stringified id.
// Loading builds each object from fresh defaults before decoding, so a
// record written by an older build simply keeps the defaults for fields it
// never had.

// Dump writes the whole database to path. The write goes to a temp file
// first and replaces the target with a rename, so a crash mid-dump never
// leaves a torn snapshot behind.
func (d *Database) Dump(path string) error {
	d.lock.AcquireR()
	records := make(map[string]*Object, len(d.objects))
	for id, obj := range d.objects {
		records[strconv.Itoa(int(id))] = obj
	}
	data, err := json.MarshalIndent(records, "", "  ")
	d.lock.Release()
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("snapshot: write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("snapshot: rename: %w", err)
	}
	return nil
}

// Load replaces the database contents with a snapshot. The next id picks
// up after the highest id in the file, so ids from the old run stay dead.
func (d *Database) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("snapshot: decode: %w", err)
	}

	objects := make(map[Ref]*Object, len(raw))
	maxID := Ref(-1)
	for idStr, rec := range raw {
		n, err := strconv.Atoi(idStr)
		if err != nil {
			return fmt.Errorf("snapshot: bad object id %q", idStr)
		}
		var peek struct {
			Kind Kind `json:"kind"`
		}
		if err := json.Unmarshal(rec, &peek); err != nil {
			return fmt.Errorf("snapshot: object %s: %w", idStr, err)
		}
		obj := NewObject(peek.Kind, "")
		if err := json.Unmarshal(rec, obj); err != nil {
			return fmt.Errorf("snapshot: object %s: %w", idStr, err)
		}
		obj.normalize()
		objects[Ref(n)] = obj
		if Ref(n) > maxID {
			maxID = Ref(n)
		}
	}

	d.lock.AcquireW()
	defer d.lock.Release()
	d.objects = objects
	d.ids = make(map[*Object]Ref, len(objects))
	for id, obj := range objects {
		d.ids[obj] = id
	}
	d.lastID = maxID + 1
	return nil
}
