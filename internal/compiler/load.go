package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/lamarrr/tensorflow/internal/dialect"
)

// LoadDir builds the CUE package rooted at dir.
func LoadDir(dir string) (cue.Value, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, fmt.Errorf("loading CUE files: %w", inst.Err)
	}
	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("building CUE value: %w", err)
	}
	return value, nil
}

// Build registers the ops of d that are available at version and freezes the
// catalog. An empty version falls back to the dialect header's version.
// Every registration error is collected; no catalog is returned if any occur.
func Build(d *Dialect, version string, opts ...dialect.Option) (*dialect.Catalog, []dialect.Descriptor, []error) {
	if version == "" {
		version = d.Version
	}

	descs := d.Ops
	var skipped []dialect.Descriptor
	if version != "" {
		var err error
		descs, skipped, err = FilterAvailable(d.Ops, version)
		if err != nil {
			return nil, nil, []error{err}
		}
	}

	reg, err := dialect.NewRegistry(d.Name, version, opts...)
	if err != nil {
		return nil, skipped, []error{err}
	}
	var errs []error
	for _, desc := range descs {
		if err := reg.Register(desc); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, skipped, errs
	}

	cat, err := reg.Freeze()
	if err != nil {
		return nil, skipped, []error{err}
	}
	return cat, skipped, nil
}

// LoadCatalog loads, compiles and registers the descriptors in dir.
func LoadCatalog(dir, version string, opts ...dialect.Option) (*dialect.Catalog, []error) {
	v, err := LoadDir(dir)
	if err != nil {
		return nil, []error{err}
	}
	d, errs := CompileDialect(v)
	if len(errs) > 0 {
		return nil, errs
	}
	cat, _, errs := Build(d, version, opts...)
	return cat, errs
}
