package process

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/process"
)

// GopsutilFinder finds processes with gopsutil.
type GopsutilFinder struct{}

// Find returns the pid of the first process whose name matches name,
// ignoring case.
func (GopsutilFinder) Find(
	ctx context.Context,
	name string,
) (int32, bool, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return 0, false, err
	}

	for _, p := range procs {
		pName, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}

		if strings.EqualFold(pName, name) {
			return p.Pid, true, nil
		}
	}

	return 0, false, nil
}

func pidExists(pid int32) bool {
	exists, err := process.PidExists(pid)

	return err == nil && exists
}
