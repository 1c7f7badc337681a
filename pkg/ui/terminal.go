package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ASCII logo for the application
const ASCIILogo = `
   ┌─┐┬─┐┌─┐┌─┐┌─┐┌─┐┌─┐┌─┐┌┬┐┌─┐┬─┐
   │  ├┬┘│ │└─┐└─┐├─┘│ │└─┐ │ ├┤ ├┬┘
   └─┘┴└─└─┘└─┘└─┘┴  └─┘└─┘ ┴ └─┘┴└─
   mirror ─▶ bluesky
`

var (
	mu           sync.Mutex
	out          io.Writer = os.Stdout
	quietMode    bool
	colorEnabled = true
)

// SetOutput redirects all printing; nil restores stdout
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(quiet bool) {
	mu.Lock()
	defer mu.Unlock()
	quietMode = quiet
}

// SetColorEnabled toggles ANSI colors
func SetColorEnabled(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	colorEnabled = enabled
}

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		mu.Lock()
		enabled := colorEnabled
		mu.Unlock()

		if !enabled {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

func emit(always bool, text string) {
	mu.Lock()
	defer mu.Unlock()

	if quietMode && !always {
		return
	}
	fmt.Fprint(out, text)
}

func withArg(msg string, args []interface{}) string {
	if len(args) > 0 {
		return msg + ": " + fmt.Sprintf("%v", args[0])
	}
	return msg
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	emit(false, Cyan(ASCIILogo)+"\n")
}

// PrintError prints an error message in red, even in quiet mode
func PrintError(msg string, args ...interface{}) {
	emit(true, Red(withArg(msg, args))+"\n")
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	emit(false, Green(msg)+"\n")
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	emit(false, fmt.Sprintf("%s: %s\n", Cyan(label), Yellow(value)))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	emit(false, Yellow(withArg(msg, args))+"\n")
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	emit(false, Magenta(msg)+"\n")
}

// PrintLine prints plain text
func PrintLine(msg string) {
	emit(false, msg+"\n")
}
