// Package catalog ships the built-in modules and loads additional ones from a directory.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dukex/nodegraph/pkg/codec"
	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/modules"
)

//go:embed modules/*.json
var builtin embed.FS

// builtinOrder is the order the built-in modules are listed in.
var builtinOrder = []string{"root", "transit", "double"}

// Entry is a named module payload.
type Entry struct {
	Name    string
	Payload *models.Payload
}

// Builtin returns the modules embedded in the binary.
func Builtin() ([]Entry, error) {
	entries := make([]Entry, 0, len(builtinOrder))

	for _, name := range builtinOrder {
		data, err := builtin.ReadFile("modules/" + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("read builtin module %s: %w", name, err)
		}

		payload, err := codec.DecodeJSON(data)
		if err != nil {
			return nil, &models.ModuleError{Op: "Decode", Module: name, Err: err}
		}

		entries = append(entries, Entry{Name: name, Payload: payload})
	}

	return entries, nil
}

// LoadDir reads every *.json and *.hcl file of dir. A JSON file holds one module
// named after the file; an HCL file may declare several module blocks.
func LoadDir(dir string) ([]Entry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		if !f.IsDir() {
			names = append(names, f.Name())
		}
	}

	sort.Strings(names)

	var entries []Entry

	for _, name := range names {
		path := filepath.Join(dir, name)

		switch filepath.Ext(name) {
		case ".json":
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}

			moduleName := strings.TrimSuffix(name, ".json")

			payload, err := codec.DecodeJSON(data)
			if err != nil {
				return nil, &models.ModuleError{Op: "Decode", Module: moduleName, Err: err}
			}

			entries = append(entries, Entry{Name: moduleName, Payload: payload})
		case ".hcl":
			src, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}

			parsed, err := ParseHCL(src, path)
			if err != nil {
				return nil, err
			}

			entries = append(entries, parsed...)
		}
	}

	return entries, nil
}

// Install registers entries in order. Names already present are overwritten
// when overwrite is set and reported otherwise.
func Install(registry *modules.Registry, entries []Entry, overwrite bool) error {
	var errs []error

	for _, entry := range entries {
		if overwrite {
			registry.Overwrite(entry.Name, entry.Payload)

			continue
		}

		if err := registry.Register(entry.Name, entry.Payload); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
