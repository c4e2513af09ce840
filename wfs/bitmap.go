package wfs

import "math/bits"

// BitmapWordSize is the width in bytes of one bitmap word. Bitmaps are packed
// into uint32 words; bit i of the bitmap is bit i%32 of word i/32.
const BitmapWordSize = 4

const bitsPerWord = BitmapWordSize * 8

type Bitmap []uint32

func NewBitmap(length uint64) Bitmap {
	return make(Bitmap, (length+bitsPerWord-1)/bitsPerWord)
}

// BitmapByteSize returns the encoded size in bytes of a bitmap covering
// length bits.
func BitmapByteSize(length uint64) uint64 {
	return (length + bitsPerWord - 1) / bitsPerWord * BitmapWordSize
}

func (b Bitmap) Set(position uint64) error {
	word, mask, err := b.locate(position)
	if err != nil {
		return err
	}
	b[word] |= mask
	return nil
}

func (b Bitmap) Clear(position uint64) error {
	word, mask, err := b.locate(position)
	if err != nil {
		return err
	}
	b[word] &^= mask
	return nil
}

func (b Bitmap) IsSet(position uint64) (bool, error) {
	word, mask, err := b.locate(position)
	if err != nil {
		return false, err
	}
	return b[word]&mask != 0, nil
}

// CountSet returns the number of set bits in the whole bitmap.
func (b Bitmap) CountSet() uint64 {
	var n uint64
	for _, word := range b {
		n += uint64(bits.OnesCount32(word))
	}
	return n
}

// Len returns the bitmap capacity in bits.
func (b Bitmap) Len() uint64 {
	return uint64(len(b)) * bitsPerWord
}

// ByteSize returns the encoded size of the bitmap in bytes.
func (b Bitmap) ByteSize() uint64 {
	return uint64(len(b)) * BitmapWordSize
}

func (b Bitmap) locate(position uint64) (int, uint32, error) {
	word := position / bitsPerWord
	if word >= uint64(len(b)) {
		return 0, 0, OutOfRange{Index: position, MaxIndex: b.Len() - 1}
	}
	return int(word), uint32(1) << (position % bitsPerWord), nil
}
