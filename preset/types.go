package preset

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	ParamCount   = 16
	MappingCount = 8
	GlyphRows    = 8
	MaxNameRunes = 12
)

// Meta describes a preset for display and selection.
type Meta struct {
	Glyph [GlyphRows]uint8 `json:"glyph"` // 8x8 bitmap, one byte per row
	Name  string           `json:"name"`
}

// Data is the configurable state of one preset as consumed by the engine.
type Data struct {
	Params   [ParamCount]uint16  `json:"params"`
	Mappings [MappingCount]uint8 `json:"mappings"`
	ClockDiv uint8               `json:"clockDiv"`
}

// Shared holds settings that are not tied to any preset.
type Shared struct {
	MIDIChannel uint8 `json:"midiChannel"`
	I2CAddress  uint8 `json:"i2cAddress"`
	Brightness  uint8 `json:"brightness"`
}

// Session is the resident state: one preset's Meta and Data, the shared
// block, and which slot is selected.
type Session struct {
	Meta     Meta
	Data     Data
	Shared   Shared
	Selected int
}

// DefaultMeta returns the metadata written to every slot on first boot.
func DefaultMeta() Meta {
	return Meta{}
}

// DefaultData returns the preset data written to every slot on first boot.
func DefaultData() Data {
	d := Data{ClockDiv: 1}
	for i := range d.Mappings {
		d.Mappings[i] = uint8(i)
	}
	return d
}

// DefaultShared returns the shared block written on first boot.
func DefaultShared() Shared {
	return Shared{
		MIDIChannel: 0,
		I2CAddress:  0x60,
		Brightness:  15,
	}
}

// CanonicalName normalises a preset name to NFC, trims surrounding space and
// caps it at MaxNameRunes.
func CanonicalName(name string) string {
	name = strings.TrimSpace(norm.NFC.String(name))
	if utf8.RuneCountInString(name) <= MaxNameRunes {
		return name
	}
	runes := []rune(name)
	return string(runes[:MaxNameRunes])
}
