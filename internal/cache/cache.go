// Package cache persists derived symbolic artifacts so the expensive
// derivation runs once per (polynomial order, mass count) configuration.
// A cache directory holds one JSON file per artifact plus a manifest with
// per-slot checksums; readers refuse payloads that do not match.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/moss-coleman/acdlo/internal/symbolic"
)

// Version is bumped whenever the artifact layout or the expression
// serialization changes incompatibly.
const Version = 1

var (
	ErrMissingSlot     = errors.New("cache: slot not present")
	ErrChecksum        = errors.New("cache: checksum mismatch")
	ErrVersionMismatch = errors.New("cache: version mismatch")
)

// Slot names, mirroring the derivation outputs. Identification slots live
// in their own subdirectory.
const (
	SlotFK       = "fk"
	SlotJacobian = "J_static"
	SlotGravity  = "G"
	SlotGravityV = "Gv"
	SlotInertia  = "B"
	SlotCoriolis = "C"
	SlotY        = "identification/Y"
	SlotDEdmL    = "identification/dE_dmL"
	SlotEmL0     = "identification/E_mL_0"
	SlotDEdmE    = "identification/dE_dmE"
	SlotEmE0     = "identification/E_mE_0"
)

// Artifact is one derived matrix together with the symbols its entries may
// reference. The symbol list is the calling convention the evaluation layer
// compiles against.
type Artifact struct {
	Name   string
	Syms   []string
	Matrix *symbolic.Matrix
}

type SlotInfo struct {
	File     string   `json:"file"`
	Syms     []string `json:"syms"`
	Checksum string   `json:"checksum"`
}

type Manifest struct {
	Version   int                 `json:"version"`
	PolyOrder int                 `json:"poly_order"`
	NumMasses int                 `json:"num_masses"`
	Created   time.Time           `json:"created"`
	Slots     map[string]SlotInfo `json:"slots"`
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Dir() string { return s.baseDir }

// Exists reports whether the directory holds a manifest at all.
func (s *Store) Exists() bool {
	_, err := os.Stat(filepath.Join(s.baseDir, "manifest.json"))
	return err == nil
}

// Save writes every artifact and then the manifest. The manifest is written
// last so a partially written cache never validates.
func (s *Store) Save(polyOrder, numMasses int, artifacts []Artifact) error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}

	manifest := Manifest{
		Version:   Version,
		PolyOrder: polyOrder,
		NumMasses: numMasses,
		Created:   time.Now().UTC(),
		Slots:     make(map[string]SlotInfo, len(artifacts)),
	}

	for _, art := range artifacts {
		data, err := symbolic.EncodeMatrix(art.Matrix)
		if err != nil {
			return fmt.Errorf("cache: encode %s: %w", art.Name, err)
		}

		rel := slotFile(art.Name)
		path := filepath.Join(s.baseDir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return err
		}

		manifest.Slots[art.Name] = SlotInfo{
			File:     rel,
			Syms:     art.Syms,
			Checksum: checksum(data),
		}
	}

	metaFile, err := os.Create(filepath.Join(s.baseDir, "manifest.json"))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	return enc.Encode(manifest)
}

// Manifest reads and validates the manifest header.
func (s *Store) Manifest() (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, "manifest.json"))
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("cache: manifest: %w", err)
	}
	if m.Version != Version {
		return nil, fmt.Errorf("%w: cache is v%d, this build reads v%d", ErrVersionMismatch, m.Version, Version)
	}
	return &m, nil
}

// Load reads one slot, checking its payload against the manifest checksum
// before decoding.
func (s *Store) Load(name string) (*Artifact, error) {
	m, err := s.Manifest()
	if err != nil {
		return nil, err
	}

	info, ok := m.Slots[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingSlot, name)
	}

	data, err := os.ReadFile(filepath.Join(s.baseDir, info.File))
	if err != nil {
		return nil, err
	}
	if checksum(data) != info.Checksum {
		return nil, fmt.Errorf("%w: %s", ErrChecksum, name)
	}

	mat, err := symbolic.DecodeMatrix(data)
	if err != nil {
		return nil, fmt.Errorf("cache: %s: %w", name, err)
	}
	return &Artifact{Name: name, Syms: info.Syms, Matrix: mat}, nil
}

// LoadAll reads every slot listed in the manifest.
func (s *Store) LoadAll() (map[string]*Artifact, error) {
	m, err := s.Manifest()
	if err != nil {
		return nil, err
	}

	out := make(map[string]*Artifact, len(m.Slots))
	for name := range m.Slots {
		art, err := s.Load(name)
		if err != nil {
			return nil, err
		}
		out[name] = art
	}
	return out, nil
}

func slotFile(name string) string {
	return filepath.FromSlash(strings.ReplaceAll(name, " ", "_") + ".json")
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
