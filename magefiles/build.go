//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs the unit tests of every package with the race detector.
func (Test) Unit() error {
	return runGo([]string{"test", "-race", "./..."}, withEnv("CGO_ENABLED", "1"), withStream())
}

// Runs go vet over the module.
func (Test) Vet() error {
	return runGo([]string{"vet", "./..."})
}
