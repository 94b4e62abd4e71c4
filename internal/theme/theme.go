package theme

import "fmt"

// Theme is the binary colour preference of the visualizer.
type Theme int

const (
	Light Theme = iota
	Dark
)

// PreferenceKey is the repository key the theme is persisted under.
const PreferenceKey = "theme"

func (t Theme) String() string {
	if t == Dark {
		return "dark"
	}
	return "light"
}

// IsDark reports whether t is the dark theme.
func (t Theme) IsDark() bool { return t == Dark }

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// FromDark maps a toggle switch position onto a theme.
func FromDark(dark bool) Theme {
	if dark {
		return Dark
	}
	return Light
}

// Parse reads a persisted theme value.
func Parse(s string) (Theme, error) {
	switch s {
	case "dark":
		return Dark, nil
	case "light":
		return Light, nil
	}
	return Light, fmt.Errorf("unknown theme %q", s)
}
