package kernel

import "strings"

// DefaultName is the kernel name of new projects.
const DefaultName = "untitled"

// InitialSource scaffolds the source of a new kernel:
//
//	kernel <return type> <name>(<declarations>) {
//	<indent><body>
//	}
//
// Declarations are the required arguments of k joined by ",".
func InitialSource(k Kernel, name, indent string) string {
	decls := make([]string, 0, len(k.RequiredArguments()))
	for _, a := range k.RequiredArguments() {
		decls = append(decls, k.Declaration(a))
	}

	body := k.InitialBody()
	for i, line := range body {
		body[i] = indent + line
	}

	return "kernel " + k.ReturnType().Spelling() + " " + name +
		"(" + strings.Join(decls, ",") + ") {\n" +
		strings.Join(body, "\n") + "\n}"
}
