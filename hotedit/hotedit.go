// Package hotedit opens the user's editor on a temp file and hands the edited contents back.
package hotedit

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/google/shlex"
	"github.com/sirupsen/logrus"
)

const (
	// TempExt is the suffix of the temp files handed to the editor
	TempExt = ".hotedit"

	// EditorFallback is used when neither git nor the environment name an editor
	EditorFallback = "vi"
)

// ErrNoEditor is returned when no editor could be determined
var ErrNoEditor = errors.New("no editor found (checked git, $EDITOR and $VISUAL)")

// ErrUnchanged is returned when the file was left unchanged and Options.ValidateUnchanged is set
var ErrUnchanged = errors.New("no changes since editing started")

// EditingError is returned when the editor exits with a non-zero status
type EditingError struct {
	Command  []string
	ExitCode int
}

func (e *EditingError) Error() string {
	return fmt.Sprintf("command '%s' returned non-zero exit status %d", strings.Join(e.Command, " "), e.ExitCode)
}

// gitEditor asks git for core.editor
var gitEditor = func() (string, error) {
	out, err := exec.Command("git", "config", "core.editor").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// DetermineEditor returns the editor configured in git (core.editor), $EDITOR or $VISUAL, in that
// order, or fallback. ErrNoEditor is returned when all of them are empty.
func DetermineEditor(fallback string) (string, error) {
	if editor, err := gitEditor(); err == nil && editor != "" {
		return editor, nil
	}
	for _, env := range []string{"EDITOR", "VISUAL"} {
		if editor := os.Getenv(env); editor != "" {
			return editor, nil
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", ErrNoEditor
}

// Options tunes Edit
type Options struct {
	// ValidateUnchanged makes Edit fail with ErrUnchanged when the text comes back unchanged
	ValidateUnchanged bool

	// KeepTemp leaves the temp file behind after editing
	KeepTemp bool

	// FindEditor returns the editor command line; DetermineEditor(EditorFallback) by default
	FindEditor func() (string, error)
}

// Edit writes initial to a temp file, runs the editor on it and returns the file contents once the
// editor exits.
func Edit(initial string, opts Options) (edited string, err error) {
	findEditor := opts.FindEditor
	if findEditor == nil {
		findEditor = func() (string, error) { return DetermineEditor(EditorFallback) }
	}

	f, err := os.CreateTemp("", "*"+TempExt)
	if err != nil {
		return "", err
	}
	path := f.Name()
	if !opts.KeepTemp {
		defer func() {
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				logrus.Warnf("unable to remove %s: %v", path, rmErr)
			}
		}()
	}

	_, err = f.WriteString(initial)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", err
	}

	editor, err := findEditor()
	if err != nil {
		return "", err
	}
	command, err := shlex.Split(editor)
	if err != nil {
		return "", fmt.Errorf("parsing editor %q: %w", editor, err)
	}
	if len(command) == 0 {
		return "", ErrNoEditor
	}
	command = append(command, path)

	logrus.Debugf("editing %s with %q", path, command)
	cmd := exec.Command(command[0], command[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &EditingError{Command: command, ExitCode: exitErr.ExitCode()}
		}
		return "", err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	edited = string(content)

	if opts.ValidateUnchanged && strings.TrimSpace(edited) == strings.TrimSpace(initial) {
		return "", ErrUnchanged
	}
	return edited, nil
}
