package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// LoadDir loads, validates, and fingerprints the manifests in a
// directory of CUE files. Uses the CUE SDK's Go API directly (not a
// CLI subprocess).
func LoadDir(dir string) (*Manifest, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("manifest directory not found: %s", dir)
	}
	if err != nil {
		return nil, fmt.Errorf("accessing manifest directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	cueFiles, err := findCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning manifest directory: %w", err)
	}
	if len(cueFiles) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("building CUE value: %w", err)
	}

	return Compile(value)
}

// Compile turns a built CUE value into a validated Manifest. Exposed
// separately from LoadDir so tests can compile from strings.
func Compile(value cue.Value) (*Manifest, error) {
	m := &Manifest{}

	cratesVal := value.LookupPath(cue.ParsePath("crate"))
	if !cratesVal.Exists() {
		return nil, fmt.Errorf("no crates declared (want a top-level \"crate\" struct)")
	}

	iter, err := cratesVal.Fields()
	if err != nil {
		return nil, fmt.Errorf("iterating crates: %w", err)
	}
	for iter.Next() {
		crate, err := CompileCrate(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		m.Crates = append(m.Crates, *crate)
	}

	m.sortCrates()

	if err := Validate(m); err != nil {
		return nil, err
	}

	hash, err := HashManifest(m)
	if err != nil {
		return nil, fmt.Errorf("hashing manifest: %w", err)
	}
	m.Hash = hash

	return m, nil
}

func findCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
