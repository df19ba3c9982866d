package main

// cmpOr returns the first of its arguments that is not equal to the zero
// value. If no argument is non-zero, it returns the zero value. It mirrors
// cmp.Or from Go 1.22 so the module builds with the Go 1.21 toolchain.
func cmpOr[T comparable](vals ...T) T {
	var zero T
	for _, v := range vals {
		if v != zero {
			return v
		}
	}
	return zero
}
