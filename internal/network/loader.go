package network

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"slugstop.org/tracker/internal/transit"
)

// Definition is the on-disk shape of a campus network file.
type Definition struct {
	Stops  []transit.Stop  `yaml:"stops"`
	Routes []transit.Route `yaml:"routes"`
}

// Decode reads a YAML network definition. Stops and routes default to active
// unless the file says otherwise.
func Decode(r io.Reader) (*Definition, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading network definition: %w", err)
	}

	def := &Definition{}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(def); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding network definition: %w", err)
	}

	// A second pass tells an explicit "active: false" apart from an omitted field.
	var flags struct {
		Stops  []activeFlag `yaml:"stops"`
		Routes []activeFlag `yaml:"routes"`
	}
	if err := yaml.Unmarshal(b, &flags); err != nil {
		return nil, fmt.Errorf("decoding network definition: %w", err)
	}
	for i := range def.Stops {
		def.Stops[i].Active = flags.Stops[i].isActive()
	}
	for i := range def.Routes {
		def.Routes[i].Active = flags.Routes[i].isActive()
	}
	return def, nil
}

type activeFlag struct {
	Active *bool `yaml:"active"`
}

func (f activeFlag) isActive() bool {
	return f.Active == nil || *f.Active
}

// LoadFile decodes the network definition at path.
func LoadFile(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() // nolint:errcheck

	return Decode(f)
}

// Seed writes every stop, then every route, of def to w.
func Seed(ctx context.Context, w Writer, def *Definition) error {
	for _, stop := range def.Stops {
		if err := w.UpsertStop(ctx, stop); err != nil {
			return fmt.Errorf("seeding stop %s: %w", stop.ID, err)
		}
	}
	for _, route := range def.Routes {
		if err := w.UpsertRoute(ctx, route); err != nil {
			return fmt.Errorf("seeding route %s: %w", route.ID, err)
		}
	}
	return nil
}
