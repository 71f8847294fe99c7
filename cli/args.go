package cli

// This file contains argument preprocessing for flags the flag library
// cannot express directly.

import "strings"

// normalizeCopyBack rewrites a bare --copy-back (or -c) that is followed by
// another flag or by nothing into --copy-back=, so it parses as "copy the
// whole artifact directory" instead of consuming the next flag as its value.
func normalizeCopyBack(args []string) []string {
	out := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// Everything after -- is positional
		if arg == "--" {
			out = append(out, args[i:]...)
			break
		}

		switch arg {
		case "--copy-back", "-copy-back", "-c":
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "-") {
				out = append(out, "--copy-back=")
				continue
			}
		}
		out = append(out, arg)
	}

	return out
}
