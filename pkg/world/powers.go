package world

// Power is a named capability a player or thing can carry. A power grants
// extra commands to its bearer and may grant flags. Powers compose:
// Includes pulls in everything a broader power subsumes.
type Power struct {
	Name     string
	Flags    []string
	Includes []string
	Cmds     []string
}

var powerRegistry = map[string]*Power{}

func registerPower(p *Power) *Power {
	powerRegistry[p.Name] = p
	return p
}

// LookupPower resolves a power name to its definition, or nil for names no
// longer defined.
func LookupPower(name string) *Power {
	return powerRegistry[name]
}

var (
	PowerExaminer = registerPower(&Power{
		Name: "Examiner",
		Cmds: []string{"examine"},
	})
	PowerTinkerer = registerPower(&Power{
		Name:     "Tinkerer",
		Includes: []string{"Examiner"},
		Cmds:     []string{"setattr", "delattr", "setflag", "resetflag"},
	})
	PowerEngineer = registerPower(&Power{
		Name:     "Engineer",
		Includes: []string{"Tinkerer"},
		Cmds:     []string{"eval", "exec", "cmd", "match", "delcmd", "setevent", "delevent"},
	})
	PowerDigger = registerPower(&Power{
		Name: "Digger",
		Cmds: []string{"dig"},
	})
	PowerDemolisher = registerPower(&Power{
		Name: "Demolisher",
		Cmds: []string{"demolish"},
	})
	PowerSuperDigger = registerPower(&Power{
		Name:     "SuperDigger",
		Includes: []string{"Demolisher", "Digger"},
		Cmds:     []string{"link", "unlink", "teleport"},
	})
	PowerMaker = registerPower(&Power{
		Name: "Maker",
		Cmds: []string{"make", "destroy"},
	})
	PowerGod = registerPower(&Power{
		Name:     "God",
		Includes: []string{"Engineer", "Maker", "SuperDigger"},
	})
)

// CommandNames flattens the power's own commands and everything its
// included powers grant, deduplicated, own commands first.
func (p *Power) CommandNames() []string {
	var out []string
	seen := map[string]bool{}
	var walk func(p *Power)
	walk = func(p *Power) {
		if p == nil {
			return
		}
		for _, name := range p.Cmds {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
		for _, inc := range p.Includes {
			walk(powerRegistry[inc])
		}
	}
	walk(p)
	return out
}

// Grants reports whether the power grants the named command, directly or
// through an included power.
func (p *Power) Grants(cmd string) bool {
	for _, name := range p.CommandNames() {
		if name == cmd {
			return true
		}
	}
	return false
}
