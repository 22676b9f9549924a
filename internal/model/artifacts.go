package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/aq10-triage/internal/screening"
	"gopkg.in/yaml.v3"
)

var (
	ErrArtifactMissing = errors.New("artifact missing")
	ErrInvalidArtifact = errors.New("invalid artifact")
	ErrShapeMismatch   = errors.New("feature shape mismatch")
)

// Files names the artifact files inside the artifacts directory.
// Bindings is optional; an empty name means keyword binding is used.
type Files struct {
	Model    string
	Scaler   string
	Columns  string
	Bindings string
}

// DefaultFiles returns the conventional artifact file names.
func DefaultFiles() Files {
	return Files{
		Model:   "model.json",
		Scaler:  "scaler.json",
		Columns: "columns.json",
	}
}

// Artifacts is the immutable set loaded once at startup.
type Artifacts struct {
	Classifier *LinearClassifier
	Scaler     *StandardScaler
	Columns    []string
	// Declared is nil unless a bindings file was configured.
	Declared map[screening.Field]string
}

type bindingsFile struct {
	Bindings map[string]string `yaml:"bindings"`
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// Load reads every configured artifact from dir. It fails if any required file is
// missing or malformed, or if the classifier, scaler and column list disagree in width.
func Load(dir string, files Files) (*Artifacts, error) {
	var missing []string
	for _, name := range []string{files.Model, files.Scaler, files.Columns, files.Bindings} {
		if name == "" {
			continue
		}
		path := resolve(dir, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			missing = append(missing, path)
		}
	}
	if files.Model == "" || files.Scaler == "" || files.Columns == "" {
		return nil, fmt.Errorf("%w: model, scaler and columns files must all be configured", ErrArtifactMissing)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrArtifactMissing, missing)
	}

	a := &Artifacts{
		Classifier: &LinearClassifier{},
		Scaler:     &StandardScaler{},
	}
	if err := decodeJSON(resolve(dir, files.Model), a.Classifier); err != nil {
		return nil, err
	}
	if err := decodeJSON(resolve(dir, files.Scaler), a.Scaler); err != nil {
		return nil, err
	}
	if err := decodeJSON(resolve(dir, files.Columns), &a.Columns); err != nil {
		return nil, err
	}
	if files.Bindings != "" {
		declared, err := loadBindings(resolve(dir, files.Bindings))
		if err != nil {
			return nil, err
		}
		a.Declared = declared
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks each artifact and their agreement on the row width.
func (a *Artifacts) Validate() error {
	if err := a.Classifier.validate(); err != nil {
		return fmt.Errorf("%w: model: %v", ErrInvalidArtifact, err)
	}
	if err := a.Scaler.validate(); err != nil {
		return fmt.Errorf("%w: scaler: %v", ErrInvalidArtifact, err)
	}
	if len(a.Columns) == 0 {
		return fmt.Errorf("%w: column list is empty", ErrInvalidArtifact)
	}
	if n := a.Classifier.NumFeatures(); n != len(a.Columns) {
		return fmt.Errorf("%w: model has %d coefficients for %d columns", ErrInvalidArtifact, n, len(a.Columns))
	}
	if n := a.Scaler.NumFeatures(); n != len(a.Columns) {
		return fmt.Errorf("%w: scaler has %d columns, schema has %d", ErrInvalidArtifact, n, len(a.Columns))
	}
	return nil
}

// Binding builds the column binding. A declared mapping takes precedence over
// keyword matching. With strict set, every field must be bound.
func (a *Artifacts) Binding(strict bool) (*screening.Binding, error) {
	var (
		b   *screening.Binding
		err error
	)
	if a.Declared != nil {
		b, err = screening.DeclaredBinding(a.Columns, a.Declared)
		if err != nil {
			return nil, err
		}
	} else {
		b = screening.KeywordBinding(a.Columns)
	}
	if strict {
		if err := b.Validate(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func decodeJSON(path string, v any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open artifact %s: %w", path, err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(v); err != nil {
		return fmt.Errorf("%w: failed to decode %s: %v", ErrInvalidArtifact, filepath.Base(path), err)
	}
	return nil
}

func loadBindings(path string) (map[screening.Field]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bindings %s: %w", path, err)
	}
	var bf bindingsFile
	if err := yaml.Unmarshal(raw, &bf); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", ErrInvalidArtifact, filepath.Base(path), err)
	}
	if len(bf.Bindings) == 0 {
		return nil, fmt.Errorf("%w: %s declares no bindings", ErrInvalidArtifact, filepath.Base(path))
	}
	out := make(map[screening.Field]string, len(bf.Bindings))
	for name, col := range bf.Bindings {
		f, err := screening.ParseField(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
		}
		out[f] = col
	}
	return out, nil
}

// Save writes the artifacts to dir using the given file names.
func Save(dir string, files Files, a *Artifacts) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	if err := encodeJSON(resolve(dir, files.Model), a.Classifier); err != nil {
		return err
	}
	if err := encodeJSON(resolve(dir, files.Scaler), a.Scaler); err != nil {
		return err
	}
	if err := encodeJSON(resolve(dir, files.Columns), a.Columns); err != nil {
		return err
	}
	if files.Bindings == "" || a.Declared == nil {
		return nil
	}

	bf := bindingsFile{Bindings: make(map[string]string, len(a.Declared))}
	for f, col := range a.Declared {
		bf.Bindings[string(f)] = col
	}
	out, err := yaml.Marshal(bf)
	if err != nil {
		return fmt.Errorf("failed to encode bindings: %w", err)
	}
	if err := os.WriteFile(resolve(dir, files.Bindings), out, 0644); err != nil {
		return fmt.Errorf("failed to write bindings: %w", err)
	}
	return nil
}

func encodeJSON(path string, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create artifact %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return nil
}
