// Some helpers using closures to generate values
package valgen

// Number is any value the generators can produce.
type Number interface {
	~int | ~uint16 | ~uint32 | ~uint64
}

func MakeConstGen[T Number](constant T) func() T {
	return func() T {
		return constant
	}
}

// MakeIncreasingGen yields start+step, start+2*step, ...
func MakeIncreasingGen[T Number](start, step T) func() T {
	current := start
	return func() T {
		current += step
		return current
	}
}

// MakeLCGGen yields a repeatable pseudo-random sequence below bound.
func MakeLCGGen(seed, bound uint32) func() uint32 {
	state := seed
	return func() uint32 {
		state = state*1664525 + 1013904223
		return (state >> 8) % bound
	}
}

// Take collects n values from a generator.
func Take[T any](n int, gen func() T) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = gen()
	}

	return out
}
