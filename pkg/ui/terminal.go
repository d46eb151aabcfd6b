package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Banner is shown above every interactive command
const Banner = `
 ██╗  ██╗███████╗ ██████╗██████╗  █████╗ ██████╗ ███████╗██████╗
 ╚██╗██╔╝██╔════╝██╔════╝██╔══██╗██╔══██╗██╔══██╗██╔════╝██╔══██╗
  ╚███╔╝ ███████╗██║     ██████╔╝███████║██████╔╝█████╗  ██████╔╝
  ██╔██╗ ╚════██║██║     ██╔══██╗██╔══██║██╔═══╝ ██╔══╝  ██╔══██╗
 ██╔╝ ██╗███████║╚██████╗██║  ██║██║  ██║██║     ███████╗██║  ██║
 ╚═╝  ╚═╝╚══════╝ ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝     ╚══════╝╚═╝  ╚═╝
              timeline harvester · posts in, records out
`

var stdout io.Writer = os.Stdout

func paint(color string) func(string) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	return func(text string) string {
		return style.Render(text)
	}
}

// Foreground helpers for plain terminal output
var (
	Cyan    = paint("6")
	Yellow  = paint("3")
	Red     = paint("1")
	Green   = paint("2")
	Magenta = paint("5")
	Dim     = func(text string) string { return lipgloss.NewStyle().Faint(true).Render(text) }
)

// SetNoColor strips color from everything the package prints
func SetNoColor(disabled bool) {
	if disabled {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// PrintLogo prints the banner
func PrintLogo() {
	fmt.Fprint(stdout, Cyan(Banner))
}

// PrintError prints msg in red, followed by the first arg if any
func PrintError(msg string, args ...interface{}) {
	fmt.Fprintln(stdout, Red(withDetail(msg, args)))
}

func PrintSuccess(msg string) {
	fmt.Fprintln(stdout, Green(msg))
}

// PrintInfo prints a label and value pair
func PrintInfo(label string, value string) {
	fmt.Fprintf(stdout, "%s: %s\n", Cyan(label), Yellow(value))
}

func PrintWarning(msg string, args ...interface{}) {
	fmt.Fprintln(stdout, Yellow(withDetail(msg, args)))
}

func PrintHighlight(msg string) {
	fmt.Fprintln(stdout, Magenta(msg))
}

func withDetail(msg string, args []interface{}) string {
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, args[0])
}
