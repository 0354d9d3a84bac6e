//go:build !cgo

package sqlite

// Without cgo the pure Go driver serves the plain "sqlite" provider too.
const DefaultDriver = PureDriver

func classifyCgoError(err error) (error, bool) {
	return nil, false
}
