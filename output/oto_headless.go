//go:build headless

package output

// OtoDevice is unavailable in headless builds.
type OtoDevice struct{}

// NewOtoDevice always fails in headless builds.
func NewOtoDevice() (*OtoDevice, error) {
	return nil, ErrUnavailable
}

func (d *OtoDevice) Open(Source, StreamConfig) (Stream, error) {
	return nil, ErrUnavailable
}

func (d *OtoDevice) Close() error {
	return nil
}
