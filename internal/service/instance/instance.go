// Package instance guards against two maintenance passes running on the same
// host at once. Nothing else serializes them, so a concurrent pass is refused
// instead of silently tolerated.
package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning is returned when another process runs the same executable.
var ErrAlreadyRunning = errors.New("another maintenance pass is already running")

// commLength is the kernel's limit on process names reported by /proc.
const commLength = 15

// Lister lists running processes.
type Lister func() ([]ps.Process, error)

// Guard looks for other processes with the given executable names.
type Guard struct {
	// list enumerates processes.
	list Lister
	// self is the PID of this process.
	self int
	// names are the executable names of every maintenance binary.
	names map[string]struct{}
}

// NewGuard creates a guard for the given executable names. The name of the
// current executable is always included.
func NewGuard(names ...string) *Guard {
	g := &Guard{
		list:  ps.Processes,
		self:  os.Getpid(),
		names: make(map[string]struct{}, len(names)+1),
	}

	if executable, err := os.Executable(); err == nil {
		g.names[comm(filepath.Base(executable))] = struct{}{}
	}

	for _, name := range names {
		g.names[comm(name)] = struct{}{}
	}

	return g
}

// Check returns ErrAlreadyRunning naming the first other process found.
func (g *Guard) Check() error {
	processes, err := g.list()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	for _, process := range processes {
		if process.Pid() == g.self {
			continue
		}

		if _, found := g.names[comm(process.Executable())]; found {
			return fmt.Errorf("%s (pid %d): %w", process.Executable(), process.Pid(), ErrAlreadyRunning)
		}
	}

	return nil
}

// comm truncates a name the way the kernel does for /proc/<pid>/stat.
func comm(name string) string {
	if len(name) > commLength {
		return name[:commLength]
	}

	return name
}
