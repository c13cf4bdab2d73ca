//go:build mage

package main

import (
	"fmt"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type goInvocation struct {
	env    map[string]string
	stream bool
}

type goOption func(*goInvocation)

// withEnv sets an environment variable for the go command only.
func withEnv(key, value string) goOption {
	return func(g *goInvocation) {
		g.env[key] = value
	}
}

func withStream() goOption {
	return func(g *goInvocation) {
		g.stream = true
	}
}

// runGo runs `go <args>` with the toolchain mage was configured with. Output is
// only printed on failure unless streaming or mage -v is on.
func runGo(args []string, options ...goOption) error {
	inv := &goInvocation{env: map[string]string{}}
	for _, o := range options {
		o(inv)
	}

	fmt.Printf("Executing: %s %s\n", mg.GoCmd(), strings.Join(args, " "))
	if mg.Verbose() || inv.stream {
		if err := sh.RunWithV(inv.env, mg.GoCmd(), args...); err != nil {
			return fmt.Errorf("go %s: %w", args[0], err)
		}
		return nil
	}

	out, err := sh.OutputWith(inv.env, mg.GoCmd(), args...)
	if err != nil {
		fmt.Println("... failed command output:")
		fmt.Println(out)
		return fmt.Errorf("go %s: %w", args[0], err)
	}
	return nil
}
