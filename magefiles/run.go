//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the demo against assets/test.ron. Edit the file while it runs to see hot reload.
func (Run) Demo() error {
	mg.Deps(Test.Vet)
	fmt.Println("Run demo...")
	return runGo([]string{"run", "main.go"}, withEnv("ANIMA_LOG_LEVEL", "debug"), withStream())
}
