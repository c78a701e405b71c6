// Package demo holds scripted playthroughs used by `play --demo` and tests.
package demo

import "sort"

type Scenario struct {
	Name  string
	Lines []string
	// Decision is "yes", "no" or "" when the question is never answered.
	Decision string
	Finale   bool
}

const DefaultScenario = "accept"

var scenarios = map[string]Scenario{
	"accept": {
		Name: "accept",
		Lines: []string{
			"ls",
			"cat leia-me.txt",
			"ls -la",
			"cat .love_virus.log",
			"y",
			"cat protocolo_amor.sh",
			"./protocolo_amor.sh",
			"sudo ./protocolo_amor.sh",
		},
		Decision: "yes",
		Finale:   true,
	},
	"resist": {
		Name: "resist",
		Lines: []string{
			"ls",
			"ls -a",
			"cat .love_virus.log",
			"n",
			"cat memoria_especial.dat",
			"cat poema_para_ela.txt",
			"sudo ./protocolo_amor.sh",
		},
		Decision: "no",
		Finale:   true,
	},
	"impatient": {
		Name: "impatient",
		Lines: []string{
			"cat .love_virus.log",
			"rm -rf /",
			"sl",
			"sudo ./protocolo_amor.sh",
		},
		Finale: true,
	},
}

type Manager struct{}

func NewManager() *Manager { return &Manager{} }

// Resolve returns the named scenario, falling back to accept.
func (m *Manager) Resolve(name string) Scenario {
	s, ok := scenarios[name]
	if !ok {
		s = scenarios[DefaultScenario]
	}
	s.Lines = append([]string(nil), s.Lines...)
	return s
}

func (m *Manager) Names() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
