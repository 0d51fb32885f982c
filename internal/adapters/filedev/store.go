package filedev

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const fileExt = ".yaml"

// FileStore keeps one YAML document per device in a directory.
type FileStore struct {
	dir string

	mu      sync.Mutex
	written map[domain.InternedString]uint64
}

// NewFileStore creates the directory if needed and writes the initial value of every
// device that has one and no file yet.
func NewFileStore(cfg *domain.Config, dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create device directory"), "dir", dir)
	}

	s := &FileStore{dir: dir, written: make(map[domain.InternedString]uint64)}
	for dev := range cfg.Devices() {
		if dev.Virtual || dev.Initial == nil {
			continue
		}
		if _, err := os.Stat(s.Path(dev.Name)); err == nil {
			continue
		}
		if err := s.Set(dev.Name, dev.Initial); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Dir returns the watched directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the file backing device.
func (s *FileStore) Path(device domain.InternedString) string {
	return filepath.Join(s.dir, device.String()+fileExt)
}

// Get reads the value of device. A missing or empty file means no value.
func (s *FileStore) Get(device domain.InternedString) (domain.Value, bool) {
	v, _, ok, err := s.read(device)
	return v, ok && err == nil
}

// Changed reads device and reports whether its content differs from the last value this store wrote.
func (s *FileStore) Changed(device domain.InternedString) (domain.Value, bool, error) {
	v, sum, ok, err := s.read(device)
	if err != nil || !ok {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if last, seen := s.written[device]; seen && last == sum {
		return v, false, nil
	}
	delete(s.written, device)
	return v, true, nil
}

func (s *FileStore) read(device domain.InternedString) (domain.Value, uint64, bool, error) {
	data, err := os.ReadFile(s.Path(device))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, zerr.With(zerr.Wrap(err, "failed to read device file"), "device", device.String())
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, 0, false, nil
	}

	var v domain.Value
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, 0, false, zerr.With(zerr.Wrap(err, "failed to parse device file"), "device", device.String())
	}
	return v, xxhash.Sum64(data), true, nil
}

// Set writes value to the device file through a temporary file and a rename.
func (s *FileStore) Set(device domain.InternedString, value domain.Value) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to encode device value"), "device", device.String())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+device.String()+"-*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write device file"), "device", device.String())
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(err, "failed to write device file"), "device", device.String())
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write device file"), "device", device.String())
	}
	if err := os.Chmod(tmp.Name(), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write device file"), "device", device.String())
	}
	if err := os.Rename(tmp.Name(), s.Path(device)); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write device file"), "device", device.String())
	}

	s.written[device] = xxhash.Sum64(data)
	return nil
}
