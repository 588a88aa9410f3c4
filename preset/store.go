// Package preset owns the preset model and its persistence lifecycle: default
// initialisation on first boot, loading at boot, switching presets and saving.
package preset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shnth-control/debug"
	"shnth-control/flash"
)

// Medium is a key-value persistence medium. Get reports an absent key with an
// error wrapping flash.ErrNotFound. Put must replace the value atomically: a
// failed Put leaves the previous value readable.
type Medium interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

const (
	KeyShared = "shared"
	KeyIndex  = "index"
)

// SlotKey returns the medium key holding a slot's Meta and Data.
func SlotKey(slot int) string {
	return fmt.Sprintf("preset/%02d", slot)
}

// record is one slot as persisted. Meta and Data share a key so a slot write
// is a single atomic Put.
type record struct {
	Meta Meta `json:"meta"`
	Data Data `json:"data"`
}

// Store manages the resident Session and its persisted copy. It is not safe
// for concurrent use.
type Store struct {
	medium  Medium
	count   int
	session Session
}

// NewStore creates a store over medium with presetCount slots. The resident
// session starts at defaults for slot 0 until LoadAtBoot or
// InitializeDefaults runs.
func NewStore(medium Medium, presetCount int) *Store {
	return &Store{
		medium: medium,
		count:  presetCount,
		session: Session{
			Meta:   DefaultMeta(),
			Data:   DefaultData(),
			Shared: DefaultShared(),
		},
	}
}

// PresetCount returns the number of slots.
func (s *Store) PresetCount() int {
	return s.count
}

// Session returns the resident state. Callers may read it; writes go
// through the Store.
func (s *Store) Session() *Session {
	return &s.session
}

// InitializeDefaults writes default Meta and Data to every slot, the default
// shared block and index 0, then resets the resident session to match.
// Calling it again overwrites with the same content.
func (s *Store) InitializeDefaults(ctx context.Context) error {
	rec := record{Meta: DefaultMeta(), Data: DefaultData()}
	for slot := 0; slot < s.count; slot++ {
		if err := s.put(ctx, SlotKey(slot), rec); err != nil {
			return err
		}
	}
	if err := s.put(ctx, KeyShared, DefaultShared()); err != nil {
		return err
	}
	if err := s.put(ctx, KeyIndex, 0); err != nil {
		return err
	}

	s.session = Session{
		Meta:     rec.Meta,
		Data:     rec.Data,
		Shared:   DefaultShared(),
		Selected: 0,
	}
	debug.Log("preset", "initialized defaults for %d slots", s.count)
	return nil
}

// LoadAtBoot reads the shared block, the selected index and that slot's
// Meta and Data. Missing or malformed data yields a *StorageError; a media
// fault is returned wrapped as it is. Either way the resident session is
// untouched.
func (s *Store) LoadAtBoot(ctx context.Context) error {
	var shared Shared
	if err := s.get(ctx, KeyShared, &shared); err != nil {
		return err
	}

	var idx int
	if err := s.get(ctx, KeyIndex, &idx); err != nil {
		return err
	}
	if idx < 0 || idx >= s.count {
		return &StorageError{Op: "load", Key: KeyIndex, Err: invalidIndex(idx, s.count)}
	}

	var rec record
	if err := s.get(ctx, SlotKey(idx), &rec); err != nil {
		return err
	}

	s.session = Session{
		Meta:     rec.Meta,
		Data:     rec.Data,
		Shared:   shared,
		Selected: idx,
	}
	debug.Log("preset", "loaded slot %d at boot", idx)
	return nil
}

// SelectPreset makes slot i current: the slot is read, the index persisted,
// then the resident Meta and Data are replaced wholesale. An out-of-range
// index returns ErrInvalidIndex with no side effects.
func (s *Store) SelectPreset(ctx context.Context, i int) error {
	if i < 0 || i >= s.count {
		return invalidIndex(i, s.count)
	}

	var rec record
	if err := s.get(ctx, SlotKey(i), &rec); err != nil {
		return err
	}
	if err := s.put(ctx, KeyIndex, i); err != nil {
		return err
	}

	s.session.Meta = rec.Meta
	s.session.Data = rec.Data
	s.session.Selected = i
	debug.Log("preset", "selected slot %d", i)
	return nil
}

// SaveCurrent persists the resident Meta and Data to the selected slot, then
// the shared block.
func (s *Store) SaveCurrent(ctx context.Context) error {
	rec := record{Meta: s.session.Meta, Data: s.session.Data}
	if err := s.put(ctx, SlotKey(s.session.Selected), rec); err != nil {
		return err
	}
	if err := s.put(ctx, KeyShared, s.session.Shared); err != nil {
		return err
	}
	debug.Log("preset", "saved slot %d", s.session.Selected)
	return nil
}

// SetMeta replaces the selected slot's metadata in memory and on the medium.
// The slot's persisted Data is kept as it was.
func (s *Store) SetMeta(ctx context.Context, meta Meta) error {
	meta.Name = CanonicalName(meta.Name)

	key := SlotKey(s.session.Selected)
	var rec record
	if err := s.get(ctx, key, &rec); err != nil {
		return err
	}
	rec.Meta = meta
	if err := s.put(ctx, key, rec); err != nil {
		return err
	}

	s.session.Meta = meta
	return nil
}

// LoadMeta reads another slot's metadata without switching to it.
func (s *Store) LoadMeta(ctx context.Context, slot int) (Meta, error) {
	if slot < 0 || slot >= s.count {
		return Meta{}, invalidIndex(slot, s.count)
	}
	var rec record
	if err := s.get(ctx, SlotKey(slot), &rec); err != nil {
		return Meta{}, err
	}
	return rec.Meta, nil
}

// UpdateData replaces the resident Data. Nothing is persisted until
// SaveCurrent.
func (s *Store) UpdateData(d Data) {
	s.session.Data = d
}

// UpdateShared replaces the resident shared block. Nothing is persisted until
// SaveCurrent.
func (s *Store) UpdateShared(sh Shared) {
	s.session.Shared = sh
}

func (s *Store) get(ctx context.Context, key string, v any) error {
	raw, err := s.medium.Get(ctx, key)
	if errors.Is(err, flash.ErrNotFound) {
		return &StorageError{Op: "load", Key: key, Err: err}
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &StorageError{Op: "load", Key: key, Err: fmt.Errorf("malformed record: %w", err)}
	}
	return nil
}

func (s *Store) put(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.medium.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}
