// Package rapl reads the energy counters Linux exposes for Intel RAPL
// domains.
package rapl

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"git.sr.ht/~whereswaldon/timeline-chart/sensors"
)

// Root is where the powercap driver publishes RAPL domains.
const Root = "/sys/devices/virtual/powercap/intel-rapl"

const (
	counterFile = "energy_uj"
	rangeFile   = "max_energy_range_uj"
	nameFile    = "name"
)

// Domain is the energy counter of one RAPL domain. Each Read reports the
// joules consumed since the previous Read, or since the domain was opened.
type Domain struct {
	name string
	path string
	// wrap is the counter value at which it restarts from zero, 0 when
	// unknown.
	wrap int64
	last int64
}

var _ sensors.Sensor = (*Domain)(nil)

func (d *Domain) Name() string {
	return d.name
}

func (d *Domain) Unit() sensors.Unit {
	return sensors.Joules
}

func (d *Domain) Read() (float64, error) {
	v, err := readMicro(d.path)
	if err != nil {
		return 0, err
	}
	delta := v - d.last
	if delta < 0 && d.wrap > 0 {
		delta += d.wrap
	}
	d.last = v
	return float64(max(delta, 0)) * sensors.MicroToUnprefixed, nil
}

// Close implements io.Closer. Every Read reopens the counter file.
func (d *Domain) Close() error {
	return nil
}

func readMicro(path string) (int64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed reading %s: %w", path, err)
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed parsing %s (%q): %w", path, raw, err)
	}
	return v, nil
}

// openDomain primes the counter of the domain in dir. Nested domains are
// named after their parent, as in "package-0/core".
func openDomain(dir, parent string) (*Domain, error) {
	d := &Domain{path: filepath.Join(dir, counterFile)}
	start, err := readMicro(d.path)
	if err != nil {
		return nil, err
	}
	d.last = start

	name, err := os.ReadFile(filepath.Join(dir, nameFile))
	if err != nil {
		log.Printf("failed resolving name for %q: %v", dir, err)
		name = []byte(filepath.Base(dir))
	}
	d.name = strings.TrimSpace(string(name))
	if parent != "" {
		d.name = parent + "/" + d.name
	}
	if d.wrap, err = readMicro(filepath.Join(dir, rangeFile)); err != nil {
		log.Printf("counter of %s will not be corrected for wraparound: %v", d.name, err)
		d.wrap = 0
	}
	return d, nil
}

// FindRAPL returns a sensor per energy counter below root. Counters that
// cannot be read are skipped.
func FindRAPL(root string) ([]sensors.Sensor, error) {
	var found []sensors.Sensor
	names := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Name() != counterFile {
			return nil
		}
		dir := filepath.Dir(path)
		domain, err := openDomain(dir, names[filepath.Dir(dir)])
		if err != nil {
			log.Printf("skipping RAPL domain %q: %v", dir, err)
			return nil
		}
		names[dir] = domain.name
		found = append(found, domain)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed traversing RAPL: %w", err)
	}
	if len(found) == 0 {
		return nil, errors.New("no readable RAPL counters")
	}
	return found, nil
}
