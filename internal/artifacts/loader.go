package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	apperrors "github.com/nathanTypo/lottery-pc/internal/pkg/errors"
)

// BuildInfo is the part of a Hardhat build-info file needed to verify a contract.
type BuildInfo struct {
	SolcVersion     string          `json:"solcVersion"`
	SolcLongVersion string          `json:"solcLongVersion"`
	Input           json.RawMessage `json:"input"`
}

// Loader finds artifacts by contract name under an artifacts directory.
// Safe for concurrent use.
type Loader struct {
	dir string

	mu    sync.Mutex
	cache map[string]*Artifact
}

// NewLoader creates a loader rooted at dir (Hardhat's "artifacts" or Foundry's "out").
func NewLoader(dir string) *Loader {
	return &Loader{
		dir:   dir,
		cache: make(map[string]*Artifact),
	}
}

// Dir returns the artifacts directory.
func (l *Loader) Dir() string {
	return l.dir
}

// Load returns the artifact named "<name>.json" anywhere under the directory,
// ignoring debug and build-info files.
func (l *Loader) Load(name string) (*Artifact, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if a, ok := l.cache[name]; ok {
		return a, nil
	}

	path, err := l.find(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}

	a, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if a.ContractName == "" {
		a.ContractName = name
	}
	a.path = path

	l.cache[name] = a
	return a, nil
}

// Available reports whether an artifact for the contract exists.
func (l *Loader) Available(name string) bool {
	_, err := l.find(name)
	return err == nil
}

var errFound = errors.New("found")

func (l *Loader) find(name string) (string, error) {
	want := name + ".json"
	var found string

	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == want {
			found = path
			return errFound
		}
		return nil
	})
	if found != "" {
		return found, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("search artifacts in %s: %w", l.dir, err)
	}
	return "", apperrors.NewArtifactNotFoundError(name, l.dir)
}

// BuildInfo returns the compiler input the artifact was produced from. It follows the
// "<name>.dbg.json" file Hardhat writes next to each artifact.
func (l *Loader) BuildInfo(a *Artifact) (*BuildInfo, error) {
	if a.path == "" {
		return nil, fmt.Errorf("artifact %s was not loaded from disk", a.ContractName)
	}

	dbgPath := strings.TrimSuffix(a.path, ".json") + ".dbg.json"
	data, err := os.ReadFile(dbgPath)
	if err != nil {
		return nil, fmt.Errorf("read debug file: %w", err)
	}

	var dbg struct {
		BuildInfo string `json:"buildInfo"`
	}
	if err := json.Unmarshal(data, &dbg); err != nil {
		return nil, fmt.Errorf("parse debug file %s: %w", dbgPath, err)
	}
	if dbg.BuildInfo == "" {
		return nil, fmt.Errorf("debug file %s has no buildInfo", dbgPath)
	}

	biPath := filepath.Join(filepath.Dir(dbgPath), filepath.FromSlash(dbg.BuildInfo))
	data, err = os.ReadFile(biPath)
	if err != nil {
		return nil, fmt.Errorf("read build info: %w", err)
	}

	var bi BuildInfo
	if err := json.Unmarshal(data, &bi); err != nil {
		return nil, fmt.Errorf("parse build info %s: %w", biPath, err)
	}
	if bi.SolcLongVersion == "" || len(bi.Input) == 0 {
		return nil, fmt.Errorf("build info %s is missing compiler version or input", biPath)
	}
	return &bi, nil
}
