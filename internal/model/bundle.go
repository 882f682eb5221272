package model

import (
	"encoding/gob"
	"fmt"
	"os"
	"time"

	"github.com/smartcity/trafficast/internal/features"
)

// Bundle groups the trained forest with the encoder it was trained against,
// so inference can never pair a model with a mismatched feature layout.
type Bundle struct {
	Forest    *RandomForest
	Encoder   *features.OneHotEncoder
	Response  string
	TrainedAt time.Time
}

// Save writes the bundle to path with gob. The file is written atomically
// via a temporary sibling so a crashed save never leaves a torn artifact.
func (b *Bundle) Save(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("model: create artifact: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(b); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("model: encode artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("model: close artifact: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadBundle reads a bundle previously written by Save.
func LoadBundle(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("model: open artifact: %w", err)
	}
	defer f.Close()

	var b Bundle
	if err := gob.NewDecoder(f).Decode(&b); err != nil {
		return nil, fmt.Errorf("model: decode artifact %s: %w", path, err)
	}
	if b.Forest == nil || b.Encoder == nil {
		return nil, fmt.Errorf("model: artifact %s is incomplete", path)
	}
	return &b, nil
}

// SaveEncoder persists a fitted encoder on its own, for the feature stage
// which runs before training.
func SaveEncoder(path string, enc *features.OneHotEncoder) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("model: create encoder artifact: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(enc); err != nil {
		return fmt.Errorf("model: encode encoder artifact: %w", err)
	}
	return nil
}

// LoadEncoder reads an encoder written by SaveEncoder.
func LoadEncoder(path string) (*features.OneHotEncoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("model: open encoder artifact: %w", err)
	}
	defer f.Close()
	var enc features.OneHotEncoder
	if err := gob.NewDecoder(f).Decode(&enc); err != nil {
		return nil, fmt.Errorf("model: decode encoder artifact %s: %w", path, err)
	}
	return &enc, nil
}
