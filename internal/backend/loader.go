package backend

import (
	"fmt"
	"log/slog"
	"os"
	"plugin"
)

// Factory is the shape a backend plugin must export, the Go-native
// analogue of spec §6's C-linkage create_backend()/destroy_backend()
// pair: NewBackend constructs a Backend, Close releases it. Using Go's
// own plugin package for same-process dynamic loading mirrors the role
// the teacher's platform-specific dlopen shims (discover's cgo GPU
// loaders) play for their domain -- there is no third-party alternative
// for this concern in the pack.
type Factory struct {
	NewBackend func() (Backend, error)
	Close      func()
}

const (
	newBackendSymbol = "NewBackend"
	closeSymbol      = "CloseBackend"
)

// Load opens the shared object at path and resolves the two exported
// symbols of Factory. It is the only place the core touches the
// platform-specific plugin loader; everything else depends solely on the
// Backend interface.
func Load(path string) (*Factory, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("backend: stat %s: %w", path, err)
	}

	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("backend: open %s: %w", path, err)
	}

	newSym, err := p.Lookup(newBackendSymbol)
	if err != nil {
		return nil, fmt.Errorf("backend: %s: missing symbol %s: %w", path, newBackendSymbol, err)
	}
	newFn, ok := newSym.(func() (Backend, error))
	if !ok {
		return nil, fmt.Errorf("backend: %s: symbol %s has unexpected signature", path, newBackendSymbol)
	}

	closeFn := func() {}
	if closeSym, err := p.Lookup(closeSymbol); err == nil {
		if fn, ok := closeSym.(func()); ok {
			closeFn = fn
		} else {
			slog.Warn("backend: CloseBackend symbol has unexpected signature, ignoring", "path", path)
		}
	}

	return &Factory{NewBackend: newFn, Close: closeFn}, nil
}

// LoadFromEnv resolves the backend path from the --backend flag, falling
// back to the BACKEND_LIB environment variable (spec §6), and loads it.
func LoadFromEnv(flagPath string) (*Factory, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv("BACKEND_LIB")
	}
	if path == "" {
		return nil, fmt.Errorf("backend: no backend plugin specified (--backend or BACKEND_LIB)")
	}
	return Load(path)
}
