package stackpointengine

import (
	"os"

	"github.com/wagoodman/stacko/pkg/stackerr"
)

func dirExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func mkdirAll(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return stackerr.Wrap(stackerr.KindLayoutMismatch, err, "creating %s", path)
	}
	return nil
}
