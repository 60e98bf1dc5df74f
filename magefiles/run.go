//go:build mage

package main

import (
	"fmt"
	"strconv"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Opens a window and runs the testbed until it is closed.
func (Run) Testbed() error {
	fmt.Println("Run testbed...")
	if _, err := executeCmd("go", withArgs("run", ".", "-log-level", "debug"), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the testbed on the headless backend for a fixed number of frames.
func (Run) Headless(frames int) error {
	fmt.Printf("Run headless testbed for %d frames...\n", frames)
	args := []string{"run", ".", "-backend", "headless", "-frames", strconv.Itoa(frames), "-log-level", "debug"}
	if _, err := executeCmd("go", withArgs(args...), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the whole test suite with the race detector.
func Test() error {
	mg.Deps(Build.Engine)
	_, err := executeCmd("go", withArgs("test", "-race", "./..."), withStream())
	return err
}
