// Package compiler turns a tree of annotated Noxical sources into a single
// generated TypeScript bindings file. Provider classes mark themselves with
// @backendAPI("group") and expose methods with @route(); every such method
// becomes an ipcRenderer.invoke wrapper in the output.
package compiler

import "fmt"

// Noxical is the whole-directory compilation pipeline.
type Noxical struct {
	sourceExt  string
	outputPath string
}

// New returns a compiler scanning files with sourceExt and writing the
// bindings to outputPath.
func New(sourceExt, outputPath string) *Noxical {
	return &Noxical{sourceExt: sourceExt, outputPath: outputPath}
}

// Compile scans inputDir and regenerates the bindings file. The returned
// diagnostics are informational; failures come back as an error.
func (c *Noxical) Compile(inputDir string) ([]string, error) {
	prog, err := Scan(inputDir, c.sourceExt)
	if err != nil {
		return nil, err
	}
	if err := WriteBindings(c.outputPath, prog); err != nil {
		return nil, err
	}
	diag := fmt.Sprintf("generated %d endpoints in %d groups -> %s",
		prog.EndpointCount(), len(prog.Groups), c.outputPath)
	return []string{diag}, nil
}
