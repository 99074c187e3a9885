package value

import "bytes"

// Equal reports whether a and b are structurally equal.
//
// Integers compare by numeric value, whatever tag family they came from.
// Floats compare bitwise within the same precision. String and Binary are different kinds and never equal.
// Arrays compare element-wise in order; Maps compare as key sets after duplicate resolution.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case Nil:
		return true
	case Bool, Float32, Float64:
		return a.bits == b.bits
	case Integer:
		return a.bits == b.bits && a.neg == b.neg
	case String, Binary:
		return bytes.Equal(a.raw, b.raw)
	case Array:
		if len(a.array) != len(b.array) {
			return false
		}
		for i := range a.array {
			if !Equal(a.array[i], b.array[i]) {
				return false
			}
		}
		return true
	case Map:
		da, db := a.Dedup(), b.Dedup()
		if len(da.pairs) != len(db.pairs) {
			return false
		}
		for _, p := range da.pairs {
			other, ok := db.Lookup(p.Key)
			if !ok || !Equal(p.Value, other) {
				return false
			}
		}
		return true
	}
	return false
}

// Equal reports whether v and other are structurally equal. See the package function Equal.
func (v Value) Equal(other Value) bool { return Equal(v, other) }
