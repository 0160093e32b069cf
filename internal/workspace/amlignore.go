package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// AmlignoreFile lists paths excluded from the snapshot uploaded with a run.
const AmlignoreFile = ".amlignore"

// AppendToAmlignore adds lines to the ignore file at path for the
// duration of a submission. The returned restore function puts back the
// previous contents, or removes the file if it did not exist before.
func AppendToAmlignore(path string, lines []string) (restore func() error, err error) {
	old, err := os.ReadFile(path)
	existed := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var b strings.Builder
	b.Write(old)
	if len(old) > 0 && !strings.HasSuffix(string(old), "\n") {
		b.WriteByte('\n')
	}
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}

	return func() error {
		if existed {
			return os.WriteFile(path, old, 0o644)
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}, nil
}
