// Package secret provides the shared upload token. Providers read their
// source on every call so a rotated value takes effect without a restart.
package secret

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Env reads the token from an environment variable.
type Env struct {
	name string
}

func NewEnv(name string) *Env {
	return &Env{name: name}
}

// Secret returns an empty string when the variable is unset.
func (e *Env) Secret(_ context.Context) (string, error) {
	return strings.TrimSpace(os.Getenv(e.name)), nil
}

// File reads the token from a file, typically a mounted secret.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Secret(_ context.Context) (string, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return "", fmt.Errorf("File - Secret - os.ReadFile: %w", err)
	}

	return strings.TrimSpace(string(b)), nil
}
