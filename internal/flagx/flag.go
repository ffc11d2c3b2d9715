// Package flagx lets several independent flag sets share os.Args: each set
// first picks out only the flags it owns.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs returns the arguments of args that belong to the named flags,
// in their original order. Names are given without dashes and match both
// the -name and --name spellings, with the value either attached (-name=v)
// or in the next argument. Flags listed in boolNames never take the next
// argument as their value.
func FilterArgs(args []string, names []string, boolNames ...string) []string {
	known := make(map[string]bool, len(names)+len(boolNames))
	for _, n := range names {
		known[n] = false
	}
	for _, n := range boolNames {
		known[n] = true
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		name, attached, ok := splitFlag(args[i])
		if !ok {
			continue
		}
		isBool, wanted := known[name]
		if !wanted {
			continue
		}
		filtered = append(filtered, args[i])
		if attached || isBool {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}
	return filtered
}

// splitFlag reports the bare name of a flag argument and whether its value
// is attached with '='. Plain values and a lone "-" or "--" are not flags.
func splitFlag(arg string) (name string, attached bool, ok bool) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
	if trimmed == arg || trimmed == "" {
		return "", false, false
	}
	name, _, attached = strings.Cut(trimmed, "=")
	return name, attached, name != ""
}

// ConfigPath returns the configuration file named by -c or -config in args,
// or "" when neither is present.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to a JSON or YAML config file")
	fs.StringVar(&path, "c", "", "path to a JSON or YAML config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"c", "config"}))

	return path
}
