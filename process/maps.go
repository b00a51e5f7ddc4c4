package process

import (
	"bufio"
	"path/filepath"
	"strconv"
	"strings"
)

// findModuleBase returns the lowest mapping start of the file whose base name
// matches name.
func findModuleBase(s *bufio.Scanner, name string) (uint64, bool) {
	var (
		base  uint64
		found bool
	)

	for s.Scan() {
		fields := strings.Fields(s.Text())
		if len(fields) < 6 {
			continue
		}

		path := strings.Join(fields[5:], " ")
		if !strings.EqualFold(filepath.Base(path), name) {
			continue
		}

		rng := strings.SplitN(fields[0], "-", 2)
		start, err := strconv.ParseUint(rng[0], 16, 64)
		if err != nil {
			continue
		}

		if !found || start < base {
			base = start
			found = true
		}
	}

	return base, found
}
