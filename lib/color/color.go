// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package color

import (
	"fmt"
	"strings"

	"github.com/clrtrace/clrtrace/lib/isatty"
)

// ColorCode is an ANSI escape code for a foreground color.
type ColorCode int

const (
	BlackFg ColorCode = iota + 30
	RedFg
	GreenFg
	YellowFg
	BlueFg
	MagentaFg
	CyanFg
	WhiteFg
	DefaultFg ColorCode = 39
)

const (
	escape = "\033["
	clear  = escape + "0m"
)

// Colorfn formats like fmt.Sprintf and wraps the result in a color.
type Colorfn func(format string, a ...interface{}) string

// Color provides colorized output when enabled and plain output otherwise.
type Color interface {
	Black(format string, a ...interface{}) string
	Red(format string, a ...interface{}) string
	Green(format string, a ...interface{}) string
	Yellow(format string, a ...interface{}) string
	Blue(format string, a ...interface{}) string
	Magenta(format string, a ...interface{}) string
	Cyan(format string, a ...interface{}) string
	White(format string, a ...interface{}) string
	DefaultColor(format string, a ...interface{}) string
	WithColor(code ColorCode, format string, a ...interface{}) string
	Enabled() bool
}

type color struct {
	enabled bool
}

// NewColor returns a Color that emits ANSI colors according to e.
func NewColor(e EnableColor) Color {
	enabled := false
	switch e {
	case ColorAlways:
		enabled = true
	case ColorAuto:
		enabled = isatty.IsTerminal()
	}
	return color{enabled: enabled}
}

func (c color) WithColor(code ColorCode, format string, a ...interface{}) string {
	s := fmt.Sprintf(format, a...)
	if !c.enabled || code == DefaultFg {
		return s
	}
	return fmt.Sprintf("%s%dm%s%s", escape, code, s, clear)
}

func (c color) Black(format string, a ...interface{}) string {
	return c.WithColor(BlackFg, format, a...)
}

func (c color) Red(format string, a ...interface{}) string {
	return c.WithColor(RedFg, format, a...)
}

func (c color) Green(format string, a ...interface{}) string {
	return c.WithColor(GreenFg, format, a...)
}

func (c color) Yellow(format string, a ...interface{}) string {
	return c.WithColor(YellowFg, format, a...)
}

func (c color) Blue(format string, a ...interface{}) string {
	return c.WithColor(BlueFg, format, a...)
}

func (c color) Magenta(format string, a ...interface{}) string {
	return c.WithColor(MagentaFg, format, a...)
}

func (c color) Cyan(format string, a ...interface{}) string {
	return c.WithColor(CyanFg, format, a...)
}

func (c color) White(format string, a ...interface{}) string {
	return c.WithColor(WhiteFg, format, a...)
}

func (c color) DefaultColor(format string, a ...interface{}) string {
	return c.WithColor(DefaultFg, format, a...)
}

func (c color) Enabled() bool {
	return c.enabled
}

// EnableColor says when colorized output should be used. It implements
// flag.Value so it can be set directly from the command line.
type EnableColor int

const (
	ColorNever EnableColor = iota
	ColorAuto
	ColorAlways
)

func (e *EnableColor) Set(s string) error {
	switch strings.ToLower(s) {
	case "never":
		*e = ColorNever
	case "auto":
		*e = ColorAuto
	case "always":
		*e = ColorAlways
	default:
		return fmt.Errorf("%q is not a valid color mode; must be never, auto, or always", s)
	}
	return nil
}

func (e *EnableColor) String() string {
	switch *e {
	case ColorNever:
		return "never"
	case ColorAuto:
		return "auto"
	case ColorAlways:
		return "always"
	}
	return ""
}
