package world

import "fmt"

// ANSI SGR foreground codes, addressable by name from templates.
var colorCodes = map[string]int{
	"normal": 0,

	"black":   30,
	"red":     31,
	"green":   32,
	"yellow":  33,
	"blue":    34,
	"magenta": 35,
	"cyan":    36,
	"white":   37,

	"bright_black":   90,
	"gray":           90,
	"bright_red":     91,
	"bright_green":   92,
	"bright_yellow":  93,
	"bright_blue":    94,
	"bright_magenta": 95,
	"bright_cyan":    96,
	"bright_white":   97,
}

// ColorCode builds the escape sequence for a foreground color.
func ColorCode(fg int) string {
	return fmt.Sprintf("\033[%dm", fg)
}

// ColorEnv returns the template context entries for every color name.
func ColorEnv() map[string]any {
	env := make(map[string]any, len(colorCodes))
	for name, code := range colorCodes {
		env[name] = ColorCode(code)
	}
	return env
}
