package world

import (
	"regexp"
	"strings"
)

// DefaultCmdFlags is the flag string commands get when none is given:
// (o)wner-only. The full set is o=owner, p=peer, i=interior.
const DefaultCmdFlags = "o"

// Caller is whoever triggered an action: a playing character, a bare
// session that has not picked one yet, or an object receiving an event.
type Caller interface {
	Send(msg string)
	Name() string
	// Player returns the character behind the caller, or nil for a bare
	// session.
	Player() *Object
}

// Action is the match-and-run contract shared by every dispatchable
// command. Match decides whether the input line is for this action and, if
// so, executes it. The first action to match wins.
type Action interface {
	Match(caller Caller, line string) (bool, error)
}

// NamedAction is implemented by actions that show up in help listings.
type NamedAction interface {
	ActionName() string
	HelpText() string
}

var commandWord = regexp.MustCompile(`^([^ ]+)(?: (.*))?$`)

// splitCommand separates the first whitespace-delimited word from the rest
// of the line.
func splitCommand(line string) (cmd, rest string) {
	m := commandWord.FindStringSubmatch(line)
	if m == nil {
		return "", ""
	}
	return m[1], m[2]
}

// Builtin is a built-in command: it matches on its name as the first word
// of the line and runs a bound function with the remainder.
type Builtin struct {
	Name  string
	Help  string
	Flags string
	Run   func(caller Caller, rest string) error
}

// NewBuiltin wraps a callable as a command. Used both for engine commands
// and for exposing object methods.
func NewBuiltin(name, help string, run func(Caller, string) error) *Builtin {
	return &Builtin{Name: name, Help: help, Flags: DefaultCmdFlags, Run: run}
}

func (b *Builtin) ActionName() string { return b.Name }

func (b *Builtin) HelpText() string {
	if b.Help == "" {
		return "No help available"
	}
	return b.Help
}

// Match implements Action.
func (b *Builtin) Match(caller Caller, line string) (bool, error) {
	cmd, rest := splitCommand(line)
	if cmd == "" || strings.ToLower(cmd) != b.Name {
		return false, nil
	}
	return true, b.Run(caller, rest)
}

// HasFlag reports whether the command carries the given dispatch flag.
func (b *Builtin) HasFlag(f byte) bool { return strings.IndexByte(b.Flags, f) >= 0 }

// CustomCommand is a user-authored scripted action owned by an object. It
// persists as source text. With an empty Pattern it matches on its name
// like a built-in and the script sees the remainder as `query`; with a
// Pattern it is a regex matcher and the script sees the capture groups.
type CustomCommand struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern,omitempty"`
	Code    string `json:"code"`
	Flags   string `json:"flags"`
	Owner   Ref    `json:"owner"`

	re *regexp.Regexp
}

// NewCustomCommand creates a plain scripted command.
func NewCustomCommand(name, code string, owner Ref, flags string) *CustomCommand {
	if flags == "" {
		flags = DefaultCmdFlags
	}
	return &CustomCommand{Name: name, Code: code, Flags: flags, Owner: owner}
}

var matcherName = regexp.MustCompile(`\w+`)

// NewMatcher creates a regex matcher. The name defaults to the first word
// of the pattern.
func NewMatcher(pattern, code string, owner Ref, name, flags string) (*CustomCommand, error) {
	if flags == "" {
		flags = DefaultCmdFlags
	}
	if name == "" {
		name = matcherName.FindString(pattern)
	}
	cc := &CustomCommand{Name: name, Pattern: pattern, Code: code, Flags: flags, Owner: owner}
	if err := cc.compile(); err != nil {
		return nil, err
	}
	return cc, nil
}

// compile prepares the regex for a matcher. Plain commands have nothing to
// compile. Matching is anchored at the start of the line.
func (c *CustomCommand) compile() error {
	if c.Pattern == "" {
		return nil
	}
	pat := c.Pattern
	if !strings.HasPrefix(pat, "^") {
		pat = "^(?:" + pat + ")"
	}
	re, err := regexp.Compile(pat)
	if err != nil {
		return Failf("bad pattern %q: %v", c.Pattern, err)
	}
	c.re = re
	return nil
}

func (c *CustomCommand) ActionName() string { return c.Name }

func (c *CustomCommand) HelpText() string {
	if c.Pattern != "" {
		return c.Pattern
	}
	return "No help available"
}

// HasFlag reports whether the command carries the given dispatch flag.
func (c *CustomCommand) HasFlag(f byte) bool { return strings.IndexByte(c.Flags, f) >= 0 }

// Repr formats the command for examine output.
func (c *CustomCommand) Repr() string {
	if c.Pattern != "" {
		return "<match " + c.Name + "[" + c.Flags + "]: " + c.Pattern + " -> " + Escape(c.Code) + ">"
	}
	return "<cmd " + c.Name + "[" + c.Flags + "]: " + Escape(c.Code) + ">"
}

// Bind attaches the command to the world so it can run as an Action.
func (c *CustomCommand) Bind(w *World) Action {
	return &boundCommand{w: w, cmd: c}
}

type boundCommand struct {
	w   *World
	cmd *CustomCommand
}

func (b *boundCommand) ActionName() string { return b.cmd.Name }
func (b *boundCommand) HelpText() string   { return b.cmd.HelpText() }

func (b *boundCommand) Match(caller Caller, line string) (bool, error) {
	c := b.cmd
	if c.Pattern != "" {
		if c.re == nil {
			if err := c.compile(); err != nil {
				return false, nil
			}
		}
		m := c.re.FindStringSubmatch(line)
		if m == nil {
			return false, nil
		}
		groups := make([]any, 0, len(m)-1)
		for _, g := range m[1:] {
			groups = append(groups, g)
		}
		return true, b.w.ExecCode(c.Code, caller, c.Owner, map[string]any{"groups": groups})
	}
	cmd, rest := splitCommand(line)
	if cmd == "" || strings.ToLower(cmd) != c.Name {
		return false, nil
	}
	return true, b.w.ExecCode(c.Code, caller, c.Owner, map[string]any{"query": rest})
}

// Answer is a one-shot conversational action: it matches a closed set of
// literal replies against the whole line and self-removes before firing,
// so a callback cannot re-enter it.
type Answer struct {
	choices []answerChoice
	cleanup func()
}

type answerChoice struct {
	text string
	fn   func(Caller) error
}

// NewAnswer builds an Answer from reply/callback pairs.
func NewAnswer(choices map[string]func(Caller) error, order []string) *Answer {
	a := &Answer{}
	for _, text := range order {
		a.choices = append(a.choices, answerChoice{text: text, fn: choices[text]})
	}
	return a
}

// NewYesNo builds the yes/no Answer with the usual synonyms.
func NewYesNo(yes, no func(Caller) error) *Answer {
	a := &Answer{}
	for _, t := range []string{"yes", "sure", "yup", "ok", "aye"} {
		a.choices = append(a.choices, answerChoice{text: t, fn: yes})
	}
	for _, t := range []string{"no", "nope", "nah", "nay"} {
		a.choices = append(a.choices, answerChoice{text: t, fn: no})
	}
	return a
}

// SetCleanup installs the closure that removes the answer from wherever it
// was installed. It runs before the matched callback.
func (a *Answer) SetCleanup(fn func()) { a.cleanup = fn }

// Match implements Action: exact, case-insensitive whole-line equality.
func (a *Answer) Match(caller Caller, line string) (bool, error) {
	q := strings.ToLower(strings.TrimSpace(line))
	for _, c := range a.choices {
		if q != c.text {
			continue
		}
		if a.cleanup != nil {
			a.cleanup()
		}
		if c.fn != nil {
			return true, c.fn(caller)
		}
		return true, nil
	}
	return false, nil
}

// EventHandler is a scripted callback invoked by dispatch rather than
// matched against input.
type EventHandler struct {
	Code  string `json:"code"`
	Owner Ref    `json:"owner"`
}

// Repr formats the handler for examine output.
func (e *EventHandler) Repr() string {
	return "<event handler: " + Escape(e.Code) + ">"
}
