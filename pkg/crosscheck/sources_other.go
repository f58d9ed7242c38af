//go:build !linux

package crosscheck

func platformProbes() []Probe {
	return nil
}
