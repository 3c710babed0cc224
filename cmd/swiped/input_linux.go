//go:build linux

package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// epollTimeoutMs bounds each epoll_wait so the reader notices shutdown.
const epollTimeoutMs = 250

// readInputEvents reads from all input devices with a single epoll loop and
// sends decoded events, tagged with the device's index in files, to out.
// It returns when ctx is canceled or a device fails.
func readInputEvents(ctx context.Context, files []*os.File, out chan<- deviceEvent) error {
	if len(files) == 0 {
		return errors.New("no input devices provided")
	}

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return fmt.Errorf("epoll_create1: %w", err)
	}
	defer unix.Close(epfd)

	// Map file descriptors to device indices for later identification
	fdToDevice := make(map[int]int, len(files))

	for i, f := range files {
		fd := int(f.Fd())
		fdToDevice[fd] = i

		event := unix.EpollEvent{
			Events: unix.EPOLLIN,
			Fd:     int32(fd),
		}
		if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
			return fmt.Errorf("epoll_ctl_add %s: %w", f.Name(), err)
		}
	}

	const maxEvents = 32
	epollEvents := make([]unix.EpollEvent, maxEvents)
	evSize := binary.Size(inputEvent{})
	buf := make([]byte, evSize)
	reader := bytes.NewReader(buf)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		n, err := unix.EpollWait(epfd, epollEvents, epollTimeoutMs)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			device := fdToDevice[int(epollEvents[i].Fd)]
			f := files[device]

			if epollEvents[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				return fmt.Errorf("device error/hangup: %s", f.Name())
			}

			if _, err := f.Read(buf); err != nil {
				return fmt.Errorf("read from %s: %w", f.Name(), err)
			}

			reader.Reset(buf)
			var ev inputEvent
			if err := binary.Read(reader, binary.LittleEndian, &ev); err != nil {
				// Skip malformed events
				continue
			}

			select {
			case out <- deviceEvent{device: device, ev: ev}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
