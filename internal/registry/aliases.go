// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/hd2mm/hd2mm/pkg/fspath"
)

// AliasFileName is the alias map file in the storage root.
const AliasFileName = "aliases.toml"

type (
	// AliasStore is the persisted GUID to display alias map.
	AliasStore struct {
		path    string
		mu      sync.RWMutex
		aliases map[uuid.UUID]string
	}

	aliasFile struct {
		Aliases map[string]string `toml:"aliases"`
	}
)

// LoadAliases reads path. A missing file yields an empty store; entries
// whose key is not a GUID or whose alias is blank are dropped.
func LoadAliases(path string) (*AliasStore, error) {
	s := &AliasStore{path: path, aliases: make(map[uuid.UUID]string)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read aliases: %w", err)
	}

	var f aliasFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for k, v := range f.Aliases {
		id, err := uuid.Parse(k)
		if err != nil || v == "" {
			continue
		}
		s.aliases[id] = v
	}
	return s, nil
}

// Get returns the alias for id, or "".
func (s *AliasStore) Get(id uuid.UUID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aliases[id]
}

// Set assigns alias to id; a blank alias deletes the entry.
func (s *AliasStore) Set(id uuid.UUID, alias string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if alias == "" {
		delete(s.aliases, id)
		return
	}
	s.aliases[id] = alias
}

// Delete forgets id.
func (s *AliasStore) Delete(id uuid.UUID) { s.Set(id, "") }

// Len returns the number of aliases.
func (s *AliasStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.aliases)
}

// Save writes the store atomically.
func (s *AliasStore) Save() error {
	s.mu.RLock()
	f := aliasFile{Aliases: make(map[string]string, len(s.aliases))}
	for id, alias := range s.aliases {
		f.Aliases[id.String()] = alias
	}
	s.mu.RUnlock()

	data, err := toml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode aliases: %w", err)
	}
	if err := fspath.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("save aliases: %w", err)
	}
	return nil
}
