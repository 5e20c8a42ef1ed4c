package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"  ____                _ _      ",
	" | __ )  __ _ _ __ __| (_) ___ ",
	" |  _ \\ / _` | '__/ _` | |/ __|",
	" | |_) | (_| | | | (_| | | (__ ",
	" |____/ \\__,_|_|  \\__,_|_|\\___|",
}

var bannerColors = []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9", "#f472b6"}

// PrintBanner writes the Bardic banner and the story title to w.
func PrintBanner(w io.Writer, title string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(out.Color(bannerColors[i])))
	}
	if title != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, out.String("  "+title).Bold())
	}
	fmt.Fprintln(w)
}

// ChoiceFormatter returns a choice formatter that colours the number.
func ChoiceFormatter(w io.Writer) func(number int, text string) string {
	out := termenv.NewOutput(w)
	return func(number int, text string) string {
		n := out.String(fmt.Sprintf("%d)", number)).Foreground(out.Color("#a78bfa")).Bold()
		return fmt.Sprintf("  %s %s", n, text)
	}
}
