package scenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// ErrUnknownScenario is returned when a selection names no scenario.
var ErrUnknownScenario = errors.New("unknown scenario")

// Library holds the scenarios available to a run, in the order they are
// run.
type Library struct {
	scenarios []Scenario
	byName    map[string]Scenario
}

// LibraryOptions configures the standard scenarios.
type LibraryOptions struct {
	Platform
	TestSignal       int64
	Capacity         int
	Margin           int
	FS               afero.Fs
	CoefficientsFile string
	VectorsFile      string
	EnableFilter     bool
}

// DefaultLibraryOptions returns the geometry and test signal of the current
// filter revision. No input files are set.
func DefaultLibraryOptions() LibraryOptions {
	return LibraryOptions{
		Platform:     DefaultPlatform(),
		TestSignal:   DefaultTestSignal,
		Capacity:     DefaultCapacity,
		Margin:       DefaultMargin,
		FS:           afero.NewOsFs(),
		EnableFilter: true,
	}
}

// NewLibrary creates a library with the four standard scenarios.
func NewLibrary(opts LibraryOptions) *Library {
	l := &Library{byName: make(map[string]Scenario)}

	l.mustAdd(EnableDisable{Platform: opts.Platform, TestSignal: opts.TestSignal})
	l.mustAdd(PowerOnReset{Platform: opts.Platform})
	l.mustAdd(BufferOverflow{
		Platform: opts.Platform,
		Capacity: opts.Capacity,
		Margin:   opts.Margin,
	})
	l.mustAdd(SignalProcessing{
		Platform:         opts.Platform,
		FS:               opts.FS,
		CoefficientsFile: opts.CoefficientsFile,
		VectorsFile:      opts.VectorsFile,
		EnableFilter:     opts.EnableFilter,
	})

	return l
}

func (l *Library) mustAdd(s Scenario) {
	if err := l.Add(s); err != nil {
		panic(err)
	}
}

// Add appends a scenario. Names must be unique.
func (l *Library) Add(s Scenario) error {
	if _, dup := l.byName[s.Name()]; dup {
		return fmt.Errorf("scenario %q registered twice", s.Name())
	}

	l.byName[s.Name()] = s
	l.scenarios = append(l.scenarios, s)

	return nil
}

// All returns every scenario in registration order.
func (l *Library) All() []Scenario {
	out := make([]Scenario, len(l.scenarios))
	copy(out, l.scenarios)

	return out
}

// Names returns the scenario names in registration order.
func (l *Library) Names() []string {
	names := make([]string, len(l.scenarios))
	for i, s := range l.scenarios {
		names[i] = s.Name()
	}

	return names
}

// Select returns the named scenarios in registration order. An empty
// selection selects everything.
func (l *Library) Select(names []string) ([]Scenario, error) {
	if len(names) == 0 {
		return l.All(), nil
	}

	want := make(map[string]bool)
	for _, n := range names {
		if _, ok := l.byName[n]; !ok {
			return nil, fmt.Errorf("%w %q, have %s",
				ErrUnknownScenario, n, strings.Join(l.Names(), ", "))
		}
		want[n] = true
	}

	var out []Scenario
	for _, s := range l.scenarios {
		if want[s.Name()] {
			out = append(out, s)
		}
	}

	return out, nil
}
