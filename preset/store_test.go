package preset

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shnth-control/flash"
)

const testPresets = 8

func newTestStore(t *testing.T) (*Store, *flash.Memory) {
	t.Helper()
	m := flash.NewMemory()
	return NewStore(m, testPresets), m
}

// failingMedium fails every Put after the first n.
type failingMedium struct {
	*flash.Memory
	allow int
}

func (f *failingMedium) Put(ctx context.Context, key string, value []byte) error {
	if f.allow <= 0 {
		return errors.New("flash write fault")
	}
	f.allow--
	return f.Memory.Put(ctx, key, value)
}

func sampleData() Data {
	d := DefaultData()
	d.Params[0] = 1000
	d.Params[15] = 16383
	d.Mappings[3] = 7
	d.ClockDiv = 4
	return d
}

func TestInitializeDefaultsWritesEverySlot(t *testing.T) {
	ctx := context.Background()
	s, m := newTestStore(t)

	require.NoError(t, s.InitializeDefaults(ctx))

	keys := m.Keys()
	for slot := 0; slot < testPresets; slot++ {
		assert.Contains(t, keys, SlotKey(slot))
	}
	assert.Contains(t, keys, KeyShared)
	assert.Contains(t, keys, KeyIndex)
	assert.Len(t, keys, testPresets+2)
	assert.Equal(t, 0, s.Session().Selected)
}

func TestInitializeDefaultsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, m := newTestStore(t)

	require.NoError(t, s.InitializeDefaults(ctx))
	once := m.Snapshot()

	require.NoError(t, s.InitializeDefaults(ctx))
	twice := m.Snapshot()

	assert.Equal(t, once, twice)
}

func TestInitializeDefaultsOverwritesEdits(t *testing.T) {
	ctx := context.Background()
	s, m := newTestStore(t)
	require.NoError(t, s.InitializeDefaults(ctx))
	once := m.Snapshot()

	require.NoError(t, s.SelectPreset(ctx, 5))
	s.UpdateData(sampleData())
	require.NoError(t, s.SaveCurrent(ctx))

	require.NoError(t, s.InitializeDefaults(ctx))
	assert.Equal(t, once, m.Snapshot())
	assert.Equal(t, DefaultData(), s.Session().Data)
}

func TestLoadAtBootReturnsDefaults(t *testing.T) {
	ctx := context.Background()
	s, m := newTestStore(t)

	err := s.LoadAtBoot(ctx)
	require.Error(t, err)
	assert.True(t, IsStorageError(err))
	assert.ErrorIs(t, err, flash.ErrNotFound)

	require.NoError(t, s.InitializeDefaults(ctx))

	fresh := NewStore(m, testPresets)
	require.NoError(t, fresh.LoadAtBoot(ctx))
	assert.Equal(t, Session{
		Meta:     DefaultMeta(),
		Data:     DefaultData(),
		Shared:   DefaultShared(),
		Selected: 0,
	}, *fresh.Session())
}

func TestLoadAtBootUsesSelectedSlot(t *testing.T) {
	ctx := context.Background()
	s, m := newTestStore(t)
	require.NoError(t, s.InitializeDefaults(ctx))

	require.NoError(t, s.SelectPreset(ctx, 3))
	s.UpdateData(sampleData())
	require.NoError(t, s.SetMeta(ctx, Meta{Name: "three"}))
	require.NoError(t, s.SaveCurrent(ctx))

	rebooted := NewStore(m, testPresets)
	require.NoError(t, rebooted.LoadAtBoot(ctx))

	sess := rebooted.Session()
	assert.Equal(t, 3, sess.Selected)
	assert.Equal(t, sampleData(), sess.Data)
	assert.Equal(t, "three", sess.Meta.Name)
}

func TestLoadAtBootMalformed(t *testing.T) {
	ctx := context.Background()
	s, m := newTestStore(t)
	require.NoError(t, s.InitializeDefaults(ctx))
	require.NoError(t, m.Put(ctx, SlotKey(0), []byte("{not json")))

	before := *s.Session()
	err := s.LoadAtBoot(ctx)

	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "load", se.Op)
	assert.Equal(t, SlotKey(0), se.Key)
	assert.Equal(t, before, *s.Session())
}

func TestLoadAtBootIndexOutOfRange(t *testing.T) {
	ctx := context.Background()
	s, m := newTestStore(t)
	require.NoError(t, s.InitializeDefaults(ctx))
	require.NoError(t, m.Put(ctx, KeyIndex, []byte("12")))

	err := s.LoadAtBoot(ctx)
	assert.True(t, IsStorageError(err))
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestSelectPresetOutOfRange(t *testing.T) {
	ctx := context.Background()
	s, m := newTestStore(t)
	require.NoError(t, s.InitializeDefaults(ctx))
	require.NoError(t, s.SelectPreset(ctx, 2))
	s.UpdateData(sampleData())

	before := *s.Session()
	writes := m.Writes()

	for _, i := range []int{-1, testPresets, 255} {
		err := s.SelectPreset(ctx, i)
		assert.ErrorIs(t, err, ErrInvalidIndex)
		assert.False(t, IsStorageError(err))
	}

	assert.Equal(t, before, *s.Session())
	assert.Equal(t, writes, m.Writes())

	raw, err := m.Get(ctx, KeyIndex)
	require.NoError(t, err)
	assert.Equal(t, "2", string(raw))
}

func TestSelectPresetReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.InitializeDefaults(ctx))

	require.NoError(t, s.SelectPreset(ctx, 1))
	s.UpdateData(sampleData())
	require.NoError(t, s.SaveCurrent(ctx))

	require.NoError(t, s.SelectPreset(ctx, 2))
	assert.Equal(t, DefaultData(), s.Session().Data, "unsaved slot 1 data must not leak into slot 2")

	require.NoError(t, s.SelectPreset(ctx, 1))
	assert.Equal(t, sampleData(), s.Session().Data)
}

func TestSelectPresetDiscardsUnsavedEdits(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.InitializeDefaults(ctx))

	s.UpdateData(sampleData())
	require.NoError(t, s.SelectPreset(ctx, 0))
	assert.Equal(t, DefaultData(), s.Session().Data)
}

func TestSelectPresetWriteFailureLeavesState(t *testing.T) {
	ctx := context.Background()
	m := &failingMedium{Memory: flash.NewMemory(), allow: testPresets + 2}
	s := NewStore(m, testPresets)
	require.NoError(t, s.InitializeDefaults(ctx))

	before := *s.Session()
	err := s.SelectPreset(ctx, 4)
	require.Error(t, err)
	assert.False(t, IsStorageError(err))
	assert.ErrorContains(t, err, "flash write fault")
	assert.Equal(t, before, *s.Session())
}

// flakyMedium fails the first n Gets with a media fault.
type flakyMedium struct {
	*flash.Memory
	fail int
}

func (f *flakyMedium) Get(ctx context.Context, key string) ([]byte, error) {
	if f.fail > 0 {
		f.fail--
		return nil, errBusy
	}
	return f.Memory.Get(ctx, key)
}

var errBusy = errors.New("i/o error: device busy")

func TestLoadAtBootReadFaultIsNotStorageError(t *testing.T) {
	ctx := context.Background()
	m := &flakyMedium{Memory: flash.NewMemory()}
	s := NewStore(m, testPresets)
	require.NoError(t, s.InitializeDefaults(ctx))
	require.NoError(t, s.SelectPreset(ctx, 3))

	m.fail = 1
	rebooted := NewStore(m, testPresets)
	before := *rebooted.Session()
	err := rebooted.LoadAtBoot(ctx)

	require.ErrorIs(t, err, errBusy)
	assert.False(t, IsStorageError(err))
	assert.Equal(t, before, *rebooted.Session())

	require.NoError(t, rebooted.LoadAtBoot(ctx))
	assert.Equal(t, 3, rebooted.Session().Selected)
}

func TestLoadAtBootCancelledIsNotStorageError(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.InitializeDefaults(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.LoadAtBoot(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsStorageError(err))
}

func TestSaveCurrentRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, m := newTestStore(t)
	require.NoError(t, s.InitializeDefaults(ctx))
	require.NoError(t, s.SelectPreset(ctx, 6))

	meta := Meta{Glyph: [GlyphRows]uint8{0x18, 0x3C, 0x7E, 0xFF, 0xFF, 0x7E, 0x3C, 0x18}, Name: "diamond"}
	require.NoError(t, s.SetMeta(ctx, meta))
	s.UpdateData(sampleData())
	s.UpdateShared(Shared{MIDIChannel: 9, I2CAddress: 0x31, Brightness: 3})
	require.NoError(t, s.SaveCurrent(ctx))

	other := NewStore(m, testPresets)
	require.NoError(t, other.LoadAtBoot(ctx))
	assert.Equal(t, *s.Session(), *other.Session())

	got, err := other.LoadMeta(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, meta, got)
}

func TestSetMetaKeepsPersistedData(t *testing.T) {
	ctx := context.Background()
	s, m := newTestStore(t)
	require.NoError(t, s.InitializeDefaults(ctx))

	s.UpdateData(sampleData())
	require.NoError(t, s.SetMeta(ctx, Meta{Name: "  bells  "}))
	assert.Equal(t, "bells", s.Session().Meta.Name)

	other := NewStore(m, testPresets)
	require.NoError(t, other.LoadAtBoot(ctx))
	assert.Equal(t, "bells", other.Session().Meta.Name)
	assert.Equal(t, DefaultData(), other.Session().Data)
}

func TestLoadMetaOutOfRange(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.LoadMeta(context.Background(), testPresets)
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestCanonicalName(t *testing.T) {
	// "e" + combining acute composes to a single rune under NFC.
	assert.Equal(t, "café", CanonicalName("café"))
	assert.Equal(t, "abcdefghijkl", CanonicalName("abcdefghijklmnop"))
	assert.Equal(t, "", CanonicalName("   "))
}

func TestStorageErrorMessage(t *testing.T) {
	err := &StorageError{Op: "load", Key: "shared", Err: flash.ErrNotFound}
	assert.Equal(t, "storage: load shared: not found", err.Error())
	assert.True(t, IsStorageError(err))
	assert.False(t, IsStorageError(errors.New("other")))
}
