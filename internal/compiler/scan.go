package compiler

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	groupRe = regexp.MustCompile(`@backendAPI\(\s*"([^"]+)"\s*\)`)
	classRe = regexp.MustCompile(`class\s+(\w+)`)
	routeRe = regexp.MustCompile(`@route\(\s*\)\s+async\s+(\w+)\s*\(([^)]*)\)`)
)

// Endpoint is one @route() method exposed by a provider class.
type Endpoint struct {
	Name       string
	ParamDefs  string // "id: string, depth: number"
	ParamNames string // "id, depth"
	Route      string // "<group>-<name>"
}

// Program is the endpoint model scanned out of an input tree.
type Program struct {
	Groups map[string][]Endpoint
}

// EndpointCount returns the total number of endpoints across all groups.
func (p *Program) EndpointCount() int {
	n := 0
	for _, eps := range p.Groups {
		n += len(eps)
	}
	return n
}

// DuplicateMethodError reports a method name declared twice within one
// endpoint group, listing every class that declared it.
type DuplicateMethodError struct {
	Group   string
	Method  string
	Classes []string
}

func (e *DuplicateMethodError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "duplicate method name %q found in group %q:", e.Method, e.Group)
	for _, c := range e.Classes {
		fmt.Fprintf(&b, "\n- %s", c)
	}
	return b.String()
}

// Scan walks root for sources with the given extension and builds the
// endpoint model. A file contributes only if it carries both a
// @backendAPI("group") annotation and a class declaration; everything else
// is skipped silently.
func Scan(root, ext string) (*Program, error) {
	prog := &Program{Groups: make(map[string][]Endpoint)}

	type key struct{ group, method string }
	sources := make(map[key][]string)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable entries don't fail the whole build.
			slog.Warn("reading directory entry", "path", path, "error", walkErr)
			return nil
		}
		if d.IsDir() {
			base := filepath.Base(path)
			if path != root && (strings.HasPrefix(base, ".") || base == "node_modules") {
				return fs.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ext {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		contents := string(data)

		gm := groupRe.FindStringSubmatch(contents)
		if gm == nil {
			return nil
		}
		cm := classRe.FindStringSubmatch(contents)
		if cm == nil {
			return nil
		}
		group, class := gm[1], cm[1]

		for _, m := range routeRe.FindAllStringSubmatch(contents, -1) {
			name, params := m[1], m[2]
			k := key{group, name}
			if prev := sources[k]; len(prev) > 0 {
				return &DuplicateMethodError{
					Group:   group,
					Method:  name,
					Classes: append(prev, class),
				}
			}
			sources[k] = append(sources[k], class)

			defs, names := splitParams(params)
			prog.Groups[group] = append(prog.Groups[group], Endpoint{
				Name:       name,
				ParamDefs:  defs,
				ParamNames: names,
				Route:      group + "-" + name,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prog, nil
}

// splitParams turns a raw parameter list into its typed and untyped forms.
// Parameters without a "name: type" shape are dropped.
func splitParams(raw string) (defs, names string) {
	var defList, nameList []string
	for _, param := range strings.Split(raw, ",") {
		param = strings.TrimSpace(param)
		if param == "" {
			continue
		}
		parts := strings.SplitN(param, ":", 2)
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		typ := strings.TrimSpace(parts[1])
		nameList = append(nameList, name)
		defList = append(defList, name+": "+typ)
	}
	return strings.Join(defList, ", "), strings.Join(nameList, ", ")
}
