//go:build !linux && !darwin

package hal

type chanWaker chan struct{}

func newWaker() (waker, error) {
	return make(chanWaker, 1), nil
}

func (x chanWaker) signal() {
	select {
	case x <- struct{}{}:
	default:
	}
}

func (x chanWaker) wait() error {
	<-x
	return nil
}

func (x chanWaker) close() error {
	return nil
}
