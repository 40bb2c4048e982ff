package flags

import "sort"

// DefaultEnvironment is returned when neither the flag nor the preference
// order name an environment.
const DefaultEnvironment = "production"

// DefaultEnvironmentOrder is the preference order used to pick the
// environment whose toggle state represents a flag.
var DefaultEnvironmentOrder = []string{"production", "staging", "dev"}

// PrimaryEnvironment returns the first preferred environment the flag has.
// Without a match it falls back to the lowest environment name, and for a
// flag without environments to order[0] or DefaultEnvironment.
func PrimaryEnvironment(flag Flag, order []string) string {
	for _, name := range order {
		if _, ok := flag.Environments[name]; ok {
			return name
		}
	}

	if names := sortedEnvironmentNames(flag); len(names) > 0 {
		return names[0]
	}

	if len(order) > 0 {
		return order[0]
	}
	return DefaultEnvironment
}

// PrimaryToggle reports whether the flag is on in its primary environment.
func (f Flag) PrimaryToggle(order []string) bool {
	return f.IsOnIn(PrimaryEnvironment(f, order))
}

// OrderedEnvironments lists the preferred environments present on the flag
// first, followed by the remaining ones in lexical order.
func OrderedEnvironments(flag Flag, order []string) []string {
	result := make([]string, 0, len(flag.Environments))
	seen := make(map[string]struct{}, len(order))
	for _, name := range order {
		if _, dup := seen[name]; dup {
			continue
		}
		if _, ok := flag.Environments[name]; ok {
			result = append(result, name)
			seen[name] = struct{}{}
		}
	}
	for _, name := range sortedEnvironmentNames(flag) {
		if _, ok := seen[name]; !ok {
			result = append(result, name)
		}
	}
	return result
}

func sortedEnvironmentNames(flag Flag) []string {
	names := make([]string, 0, len(flag.Environments))
	for name := range flag.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
