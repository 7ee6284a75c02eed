package notify

import "github.com/fatih/color"

// ColorSink prints toasts to the terminal, cyan for changes and red for
// errors.
type ColorSink struct {
	info *color.Color
	err  *color.Color
}

func NewColorSink() *ColorSink {
	return &ColorSink{
		info: color.New(color.FgCyan),
		err:  color.New(color.FgRed, color.Bold),
	}
}

func (s *ColorSink) Info(text string) {
	s.info.Println(text)
}

func (s *ColorSink) Error(text string) {
	s.err.Println(text)
}
