// Package phash computes perceptual image fingerprints for approximate
// duplicate detection. Two photos of the same plant taken moments apart hash
// within a few bits of each other; unrelated photos land much further away.
// The comparison is a similarity test, not equality, so the caller's
// threshold trades missed duplicates against false rejections.
package phash

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/webp"
)

// Bits is the fingerprint size: an 8x8 average hash.
const Bits = 64

// Fingerprint decodes the image and returns its 64-bit average hash.
// Unreadable image data is an error; callers must treat that as a failed
// check, never as "no duplicate".
func Fingerprint(data []byte) (uint64, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("decode image: %w", err)
	}
	hash, err := goimagehash.AverageHash(img)
	if err != nil {
		return 0, fmt.Errorf("average hash: %w", err)
	}
	return hash.GetHash(), nil
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	ha := goimagehash.NewImageHash(a, goimagehash.AHash)
	hb := goimagehash.NewImageHash(b, goimagehash.AHash)
	d, err := ha.Distance(hb)
	if err != nil {
		// Same kind and size by construction; unreachable.
		return Bits
	}
	return d
}
