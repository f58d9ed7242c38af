//go:build !linux

package host

func sysinfoRAM() (total, free uint64, err error) {
	return 0, 0, ErrUnsupported
}
