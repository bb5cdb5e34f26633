package compiler

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// FormatBindings renders the generated TypeScript bindings for a program.
// Groups and methods are emitted in sorted order so regeneration of an
// unchanged tree produces an identical file.
func FormatBindings(prog *Program) string {
	var b strings.Builder
	b.WriteString("import { ipcRenderer } from \"electron\";\n\n")
	b.WriteString("export const api = {\n")

	groups := make([]string, 0, len(prog.Groups))
	for g := range prog.Groups {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	for _, group := range groups {
		fmt.Fprintf(&b, "  %s: {\n", group)

		endpoints := append([]Endpoint(nil), prog.Groups[group]...)
		sort.Slice(endpoints, func(i, j int) bool { return endpoints[i].Name < endpoints[j].Name })

		for _, ep := range endpoints {
			fmt.Fprintf(&b, "    %s: async (%s) => {\n", ep.Name, ep.ParamDefs)
			if ep.ParamNames == "" {
				fmt.Fprintf(&b, "      return await ipcRenderer.invoke(%q);\n", ep.Route)
			} else {
				fmt.Fprintf(&b, "      return await ipcRenderer.invoke(%q, %s);\n", ep.Route, ep.ParamNames)
			}
			b.WriteString("    },\n")
		}
		b.WriteString("  },\n")
	}
	b.WriteString("};\n")
	return b.String()
}

// WriteBindings writes the rendered bindings file to path.
func WriteBindings(path string, prog *Program) error {
	if err := os.WriteFile(path, []byte(FormatBindings(prog)), 0o644); err != nil {
		return fmt.Errorf("writing bindings: %w", err)
	}
	return nil
}
