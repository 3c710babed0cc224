//go:build !linux

package main

import (
	"context"
	"errors"
	"os"
)

func readInputEvents(ctx context.Context, files []*os.File, out chan<- deviceEvent) error {
	return errors.New("evdev input is only supported on linux")
}
