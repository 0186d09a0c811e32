package sdk

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// State is the key value store the host exposes to the contract. Missing keys read as nil.
type State interface {
	Set(key, value string)
	Get(key string) *string
	Delete(key string)
}

// MemState is an in-memory State, optionally mirrored into a json file.
type MemState struct {
	db       map[string]string
	filename string
}

func NewMemState() *MemState {
	return &MemState{
		db: make(map[string]string),
	}
}

// NewFileState behaves like NewMemState but writes the whole map to filename after each change.
func NewFileState(filename string) (*MemState, error) {
	m := &MemState{
		db:       make(map[string]string),
		filename: filename,
	}
	if err := m.LoadFromFile(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MemState) Set(key, value string) {
	m.db[key] = value
	if err := m.saveToFile(); err != nil {
		panic(err)
	}
}

func (m *MemState) Get(key string) *string {
	val, ok := m.db[key]
	if !ok {
		return nil
	}
	return &val
}

func (m *MemState) Delete(key string) {
	delete(m.db, key)
	if err := m.saveToFile(); err != nil {
		panic(err)
	}
}

// Keys lists stored keys with the given prefix in lexical order.
func (m *MemState) Keys(prefix string) []string {
	out := make([]string, 0)
	for k := range m.db {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Len is the number of stored keys.
func (m *MemState) Len() int {
	return len(m.db)
}

// saveToFile writes the full map to a JSON file. Keys and values are hex since both are binary.
func (m *MemState) saveToFile() error {
	if m.filename == "" {
		return nil
	}
	out := make(map[string]string, len(m.db))
	for k, v := range m.db {
		out[hex.EncodeToString([]byte(k))] = hex.EncodeToString([]byte(v))
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.filename, data, 0o644)
}

// LoadFromFile loads the map from a JSON file
func (m *MemState) LoadFromFile() error {
	if m.filename == "" {
		return nil
	}
	data, err := os.ReadFile(m.filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	raw := make(map[string]string)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		key, err := hex.DecodeString(k)
		if err != nil {
			return fmt.Errorf("state file key %q: %w", k, err)
		}
		val, err := hex.DecodeString(v)
		if err != nil {
			return fmt.Errorf("state file value for %q: %w", k, err)
		}
		m.db[string(key)] = string(val)
	}
	return nil
}

// CacheState buffers writes on top of a parent State. Nothing reaches the parent until Write,
// which gives a failed call the same all-or-nothing outcome as a reverted transaction.
type CacheState struct {
	parent  State
	writes  map[string]string
	deletes map[string]struct{}
}

func NewCacheState(parent State) *CacheState {
	return &CacheState{
		parent:  parent,
		writes:  make(map[string]string),
		deletes: make(map[string]struct{}),
	}
}

func (c *CacheState) Set(key, value string) {
	delete(c.deletes, key)
	c.writes[key] = value
}

func (c *CacheState) Get(key string) *string {
	if _, gone := c.deletes[key]; gone {
		return nil
	}
	if val, ok := c.writes[key]; ok {
		return &val
	}
	return c.parent.Get(key)
}

func (c *CacheState) Delete(key string) {
	delete(c.writes, key)
	c.deletes[key] = struct{}{}
}

// Dirty reports whether anything is buffered.
func (c *CacheState) Dirty() bool {
	return len(c.writes) > 0 || len(c.deletes) > 0
}

// Write flushes buffered changes to the parent in key order and resets the cache.
func (c *CacheState) Write() {
	keys := make([]string, 0, len(c.writes))
	for k := range c.writes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.parent.Set(k, c.writes[k])
	}
	dels := make([]string, 0, len(c.deletes))
	for k := range c.deletes {
		dels = append(dels, k)
	}
	sort.Strings(dels)
	for _, k := range dels {
		c.parent.Delete(k)
	}
	c.Discard()
}

// Discard drops all buffered changes.
func (c *CacheState) Discard() {
	c.writes = make(map[string]string)
	c.deletes = make(map[string]struct{})
}
