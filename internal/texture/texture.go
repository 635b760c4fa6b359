// Package texture implements the painted-texture bit-range contract of
// spec.md §6, supplemented from
// _examples/original_source/include/TextureDataMapping.h: a mapping from
// feature name to the bit range it occupies within a 32-bit pixel, and a
// small bit-shifting extractor. Used only when painted textures are
// used; everything else in this module works without it.
package texture

// BitRangeMap describes where one named feature's value lives within a
// packed 32-bit pixel: Mask selects the bits, Shift moves them down to
// bit 0.
type BitRangeMap struct {
	Feature string
	Shift   uint32
	Mask    uint32
}

// Extract pulls m's bit range out of pixel.
func Extract(pixel uint32, m BitRangeMap) uint32 {
	return (pixel >> m.Shift) & m.Mask
}
