package engine

import (
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Metadata is the optional provenance record stored beside the
// calculation. It carries no calculation state; the sentinel files own
// that. Created once, only for non-multi-image jobs, only if absent.
type Metadata struct {
	UUID     string    `yaml:"uuid"`
	User     string    `yaml:"user,omitempty"`
	Hostname string    `yaml:"hostname,omitempty"`
	Created  time.Time `yaml:"created"`
	Tags     []string  `yaml:"tags,omitempty"`
}

// NewMetadata builds a fresh record for the current user and host.
func NewMetadata() *Metadata {
	m := &Metadata{
		UUID:    uuid.New().String(),
		Created: time.Now().UTC(),
	}
	if u, err := user.Current(); err == nil {
		m.User = u.Username
	}
	if h, err := os.Hostname(); err == nil {
		m.Hostname = h
	}
	return m
}

// ReadMetadata loads the record from dir. Callers tolerate absence with
// os.IsNotExist.
func ReadMetadata(dir string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, err
	}
	var m Metadata
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// WriteMetadata writes the record atomically.
func WriteMetadata(dir string, m *Metadata) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(dir, MetadataFile), data)
}
