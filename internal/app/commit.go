package app

import (
	"fmt"
	"os"

	"github.com/kobzarvs/qpreview/internal/logger"
)

// fileCommitter writes committed content back to the previewed file, keeping its mode.
type fileCommitter struct{}

func (fileCommitter) Commit(path, content string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	logger.Info("app: file written", "path", path, "bytes", len(content))
	return nil
}
