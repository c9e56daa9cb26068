package document

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Opener hands an edit path to an external program.
type Opener interface {
	Open(ctx context.Context, path string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, path string) error

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, path string) error {
	return f(ctx, path)
}

// SystemOpener opens URLs with xdg-open and local files with $EDITOR,
// falling back to the "editor" alternative.
type SystemOpener struct{}

// Command returns the program and arguments used for path.
func (SystemOpener) Command(path string) (string, []string) {
	if IsRemote(path) {
		return "xdg-open", []string{path}
	}
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor, []string{path}
	}
	return "editor", []string{path}
}

// Open runs the program attached to the terminal and waits for it.
func (o SystemOpener) Open(ctx context.Context, path string) error {
	name, args := o.Command(path)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open %s with %s: %w", path, name, err)
	}
	return nil
}
