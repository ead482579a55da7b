package overlay

import (
	"bytes"
	"os/exec"
)

// execRunner is the default ExecRunner, shelling out to the named
// binary on PATH, the same approach
// original_source/stacko/image.py's subwrap.run takes.
type execRunner struct{}

func (execRunner) Run(name string, args []string) (string, error) {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.String(), err
}
