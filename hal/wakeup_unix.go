//go:build linux || darwin

package hal

import (
	"encoding/binary"
	"errors"

	"golang.org/x/sys/unix"
)

type fdWaker struct {
	rfd int
	wfd int
}

func newWaker() (waker, error) {
	rfd, wfd, err := createWakeFd()
	if err != nil {
		return nil, err
	}
	return &fdWaker{rfd: rfd, wfd: wfd}, nil
}

func (x *fdWaker) signal() {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	// EAGAIN means a wakeup is already pending
	_, _ = unix.Write(x.wfd, buf[:])
}

func (x *fdWaker) wait() error {
	fds := []unix.PollFd{{Fd: int32(x.rfd), Events: unix.POLLIN}}
	for {
		if _, err := unix.Poll(fds, -1); err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return err
		}
		if fds[0].Revents&unix.POLLNVAL != 0 {
			return unix.EBADF
		}
		if fds[0].Revents&unix.POLLIN != 0 {
			break
		}
	}
	var buf [64]byte
	for {
		if _, err := unix.Read(x.rfd, buf[:]); err != nil {
			if errors.Is(err, unix.EAGAIN) {
				return nil
			}
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return err
		}
	}
}

func (x *fdWaker) close() error {
	err := unix.Close(x.rfd)
	if x.wfd != x.rfd {
		if err2 := unix.Close(x.wfd); err == nil {
			err = err2
		}
	}
	return err
}
