package codemod

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// VerifyError reports rewritten source that no longer parses.
type VerifyError struct {
	Path     string
	Messages []string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("%s: rewritten source does not parse:\n%s", e.Path, strings.Join(e.Messages, "\n"))
}

// Verify checks that src is valid TSX. JSX is preserved, so only syntax is
// checked and nothing is resolved.
func Verify(path, src string) error {
	result := api.Transform(src, api.TransformOptions{
		Loader:     api.LoaderTSX,
		Sourcefile: path,
		JSX:        api.JSXPreserve,
		Target:     api.ESNext,
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) == 0 {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors))
	for _, m := range result.Errors {
		if m.Location != nil {
			msgs = append(msgs, fmt.Sprintf("%s:%d:%d: %s", path, m.Location.Line, m.Location.Column, m.Text))
		} else {
			msgs = append(msgs, m.Text)
		}
	}
	return &VerifyError{Path: path, Messages: msgs}
}
