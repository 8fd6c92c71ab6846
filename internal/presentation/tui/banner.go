package tui

import (
	"fmt"
	"io"

	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`  _                           _              _          `, "#34d399"},
	{` | |__  _ __ __ _ _ __   ___| |____      _(_)___  ___  `, "#2dd4bf"},
	{` | '_ \| '__/ _' | '_ \ / __| '_ \ \ /\ / / / __|/ _ \ `, "#22d3ee"},
	{` | |_) | | | (_| | | | | (__| | | \ V  V /| \__ \  __/ `, "#38bdf8"},
	{` |_.__/|_|  \__,_|_| |_|\___|_| |_|\_/\_/ |_|___/\___| `, "#60a5fa"},
}

// PrintBanner writes the ASCII art banner followed by the version.
func PrintBanner(w io.Writer, profile termenv.Profile, version string) {
	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, profile.String(line.text).Foreground(profile.Color(line.color)))
	}
	if version != "" {
		fmt.Fprintln(w, profile.String("  v"+version).Faint())
	}
	fmt.Fprintln(w)
}

// Palette colors flow elements for a given terminal profile.
// The Ascii profile yields plain text.
type Palette struct {
	profile termenv.Profile
}

// NewPalette returns a palette for profile.
func NewPalette(profile termenv.Profile) Palette {
	return Palette{profile: profile}
}

// DetectPalette inspects stdout.
func DetectPalette() Palette {
	return NewPalette(termenv.ColorProfile())
}

// Profile returns the terminal profile of the palette.
func (p Palette) Profile() termenv.Profile {
	return p.profile
}

// Node styles text by the display state of a node.
func (p Palette) Node(state domain.NodeState, text string) string {
	s := p.profile.String(text)
	switch state {
	case domain.NodeStateCurrent:
		s = s.Foreground(p.profile.Color("#facc15")).Bold()
	case domain.NodeStateVisited:
		s = s.Foreground(p.profile.Color("#38bdf8"))
	default:
		s = s.Faint()
	}
	return s.String()
}

// Answer styles a YES/NO answer.
func (p Palette) Answer(value bool) string {
	if value {
		return p.profile.String("YES").Foreground(p.profile.Color("#22c55e")).String()
	}
	return p.profile.String("NO").Foreground(p.profile.Color("#ef4444")).String()
}

// Error styles an error message.
func (p Palette) Error(text string) string {
	return p.profile.String(text).Foreground(p.profile.Color("#ef4444")).String()
}

// Hint styles secondary text.
func (p Palette) Hint(text string) string {
	return p.profile.String(text).Faint().String()
}
