package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowAppPasswordGuide prints how to create a Bluesky app password
func ShowAppPasswordGuide(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "BLUESKY APP PASSWORD")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "crossposter signs in with an app password, never your main password.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  1. Open https://bsky.app and sign in")
	fmt.Fprintln(w, "  2. Go to Settings > Privacy and security > App passwords")
	fmt.Fprintln(w, "  3. Click \"Add App Password\" and name it crossposter")
	fmt.Fprintln(w, "  4. Copy the generated xxxx-xxxx-xxxx-xxxx value")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Self-hosted PDS users: pass --host with your server URL.")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
}
