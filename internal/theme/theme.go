package theme

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultName is the built-in theme used when no override is provided.
const DefaultName = "cardtrack-light"

// Token represents a semantic color slot within the CLI.
type Token string

const (
	ColorTextPrimary Token = "text.primary"
	ColorTextMuted   Token = "text.muted"
	ColorBorder      Token = "border"
	ColorPrimary     Token = "primary"
	ColorPrimaryText Token = "primary.text"
	ColorAccent      Token = "accent"
	ColorSuccess     Token = "success"
	ColorWarning     Token = "warning"
	ColorDanger      Token = "danger"
	ColorDangerText  Token = "danger.text"
	ColorHighlight   Token = "highlight"
)

// Color stores light and dark variants for adaptive rendering.
type Color struct {
	Light string
	Dark  string
}

// Adaptive converts the color into a lipgloss adaptive color.
func (c Color) Adaptive() lipgloss.AdaptiveColor {
	light, dark := strings.TrimSpace(c.Light), strings.TrimSpace(c.Dark)
	switch {
	case light == "" && dark == "":
		return lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}
	case light == "":
		light = dark
	case dark == "":
		dark = light
	}
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// Palette represents a concrete theme.
type Palette struct {
	Name        string
	DisplayName string
	Colors      map[Token]Color
}

// Color returns a color for the provided token, falling back to the default palette.
func (p Palette) Color(token Token) Color {
	if c, ok := p.Colors[token]; ok {
		return c
	}
	if c, ok := lightPalette().Colors[token]; ok {
		return c
	}
	return Color{}
}

// Adaptive returns the lipgloss adaptive color for the provided token.
func (p Palette) Adaptive(token Token) lipgloss.AdaptiveColor {
	return p.Color(token).Adaptive()
}

// ForegroundStyle returns a lipgloss style with the foreground set to the requested token.
func (p Palette) ForegroundStyle(token Token) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.Adaptive(token))
}

// BadgeStyle renders text on the token's color with a readable foreground.
func (p Palette) BadgeStyle(token Token) lipgloss.Style {
	c := p.Color(token)
	return lipgloss.NewStyle().
		Background(c.Adaptive()).
		Foreground(lipgloss.AdaptiveColor{Light: contrastColor(c.Light), Dark: contrastColor(c.Dark)})
}

var (
	registryMu sync.RWMutex
	palettes   = map[string]Palette{}
	current    Palette
)

func init() {
	register(lightPalette())
	register(darkPalette())
	current = palettes[DefaultName]
}

// Available returns the registered theme names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(palettes))
	for k := range palettes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetCurrent sets the active palette.
func SetCurrent(name string) error {
	name = sanitizeName(name)
	if name == "" {
		name = DefaultName
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	p, ok := palettes[name]
	if !ok {
		return fmt.Errorf("unknown color theme %q, must be one of %v", name, sortedKeys())
	}
	current = p
	return nil
}

// Current returns the active palette.
func Current() Palette {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return current
}

func register(p Palette) {
	p.Name = sanitizeName(p.Name)
	palettes[p.Name] = p
}

func sortedKeys() []string {
	keys := make([]string, 0, len(palettes))
	for k := range palettes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sanitizeName(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

// contrastColor picks near-black or near-white text for a background.
func contrastColor(hex string) string {
	c, err := colorful.Hex(strings.TrimSpace(hex))
	if err != nil {
		return "#121418"
	}
	r, g, b := c.LinearRgb()
	if 0.2126*r+0.7152*g+0.0722*b > 0.55 {
		return "#121418"
	}
	return "#F8F8F8"
}

func single(hex string) Color {
	return Color{Light: hex, Dark: hex}
}

func lightPalette() Palette {
	return Palette{
		Name:        DefaultName,
		DisplayName: "Cardtrack Light",
		Colors: map[Token]Color{
			ColorTextPrimary: single("#1B1D22"),
			ColorTextMuted:   single("#6B7080"),
			ColorBorder:      single("#C9CDD6"),
			ColorPrimary:     single("#1F4FD1"),
			ColorPrimaryText: single("#FFFFFF"),
			ColorAccent:      single("#B8860B"),
			ColorSuccess:     single("#1E7B3A"),
			ColorWarning:     single("#C77700"),
			ColorDanger:      single("#C62828"),
			ColorDangerText:  single("#FFFFFF"),
			ColorHighlight:   single("#E6ECFA"),
		},
	}
}

func darkPalette() Palette {
	return Palette{
		Name:        "cardtrack-dark",
		DisplayName: "Cardtrack Dark",
		Colors: map[Token]Color{
			ColorTextPrimary: single("#ECEEF3"),
			ColorTextMuted:   single("#9096A6"),
			ColorBorder:      single("#3A3F4B"),
			ColorPrimary:     single("#7AA2FF"),
			ColorPrimaryText: single("#0D1117"),
			ColorAccent:      single("#E3B341"),
			ColorSuccess:     single("#56D364"),
			ColorWarning:     single("#F0A030"),
			ColorDanger:      single("#F85149"),
			ColorDangerText:  single("#0D1117"),
			ColorHighlight:   single("#1F2633"),
		},
	}
}
