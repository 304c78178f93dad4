// Package wgsl compiles kernel-dialect sources with naga.
//
// A kernel-dialect source is WGSL whose entry function is declared with a
// Core Image style header:
//
//	kernel vec4 untitled(float radius, vec2 center) {
//	    return inputColor * radius;
//	}
//
// The header is rewritten in place into a WGSL function, so line numbers of
// the user's source are preserved, and a fragment entry point that feeds the
// kernel is appended after the last user line.
package wgsl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gogpu/filterplay/argument"
	"github.com/gogpu/filterplay/diag"
)

// Stage selects the kernel family a source is compiled for.
type Stage uint8

const (
	// StageColor kernels return a vec4 color for every destination pixel.
	// They receive destCoord and the implicit inputColor sample.
	StageColor Stage = iota

	// StageWarp kernels return the vec2 source coordinate to sample the
	// input image at. They receive destCoord.
	StageWarp
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageColor:
		return "color"
	case StageWarp:
		return "warp"
	default:
		return "unknown"
	}
}

// ReturnType is the header return type the stage requires.
func (s Stage) ReturnType() argument.Type {
	if s == StageWarp {
		return argument.Vec2
	}
	return argument.Vec4
}

// EntryPoint is the name of the generated fragment entry point.
const EntryPoint = "kernelMain"

// Parameter is one declared kernel parameter.
type Parameter struct {
	Type argument.Type
	Name string
}

// Signature is the parsed kernel header.
type Signature struct {
	ReturnType argument.Type
	Name       string
	Parameters []Parameter
	Line       int
}

var headerRE = regexp.MustCompile(`^(\s*)kernel\s+(\w+)\s+(\w+)\s*\(([^)]*)\)`)

var wgslTypes = map[argument.Type]string{
	argument.Float:  "f32",
	argument.Vec2:   "vec2<f32>",
	argument.Vec3:   "vec3<f32>",
	argument.Vec4:   "vec4<f32>",
	argument.Color:  "vec4<f32>",
	argument.Sample: "vec4<f32>",
	argument.UInt2:  "vec2<u32>",
}

// Translate rewrites a kernel-dialect source into a complete WGSL module.
// Header problems are reported as compile diagnostics against the user's
// line numbers; when any are returned the module is not usable.
func Translate(source string, stage Stage) (string, Signature, []diag.KernelError) {
	lines := strings.Split(source, "\n")

	headerLine := -1
	var m []int
	for i, l := range lines {
		if m = headerRE.FindStringSubmatchIndex(l); m != nil {
			headerLine = i
			break
		}
	}
	if headerLine < 0 {
		return "", Signature{}, []diag.KernelError{
			diag.Compile(1, 1, diag.SeverityError, "no kernel function declared"),
		}
	}

	line := lines[headerLine]
	lineNo := headerLine + 1
	sig := Signature{
		ReturnType: argument.Type(line[m[4]:m[5]]),
		Name:       line[m[6]:m[7]],
		Line:       lineNo,
	}

	var errs []diag.KernelError
	if want := stage.ReturnType(); sig.ReturnType != want {
		col := m[4] + 1
		if _, known := wgslTypes[sig.ReturnType]; !known {
			errs = append(errs, diag.Compile(lineNo, col, diag.SeverityError,
				fmt.Sprintf("unknown type name '%s'", sig.ReturnType)))
		}
		errs = append(errs, diag.Compile(lineNo, col, diag.SeverityError,
			fmt.Sprintf("%s kernel must have %s return type", stage, want)))
	}

	params, perrs := parseParameters(line[m[8]:m[9]], lineNo, m[8]+1)
	sig.Parameters = params
	errs = append(errs, perrs...)
	if len(errs) > 0 {
		return "", sig, errs
	}

	lines[headerLine] = line[:m[3]] + header(sig, stage) + line[m[1]:]
	return strings.Join(lines, "\n") + "\n" + entryPoint(sig, stage), sig, nil
}

func parseParameters(list string, lineNo, col int) ([]Parameter, []diag.KernelError) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}

	var (
		params []Parameter
		errs   []diag.KernelError
		offset int
	)
	for _, decl := range strings.Split(list, ",") {
		at := col + offset + len(decl) - len(strings.TrimLeft(decl, " \t"))
		offset += len(decl) + 1

		fields := strings.Fields(decl)
		if len(fields) != 2 {
			errs = append(errs, diag.Compile(lineNo, at, diag.SeverityError, "expected parameter declaration"))
			continue
		}
		t := argument.Type(fields[0])
		if _, ok := wgslTypes[t]; !ok {
			errs = append(errs, diag.Compile(lineNo, at, diag.SeverityError,
				fmt.Sprintf("unknown type name '%s'", fields[0])))
			continue
		}
		params = append(params, Parameter{Type: t, Name: fields[1]})
	}
	return params, errs
}

func implicitParameters(stage Stage) []string {
	if stage == StageWarp {
		return []string{"destCoord: vec2<f32>"}
	}
	return []string{"destCoord: vec2<f32>", "inputColor: vec4<f32>"}
}

func header(sig Signature, stage Stage) string {
	decls := implicitParameters(stage)
	for _, p := range sig.Parameters {
		decls = append(decls, p.Name+": "+wgslTypes[p.Type])
	}
	return "fn " + sig.Name + "(" + strings.Join(decls, ", ") + ") -> " + wgslTypes[sig.ReturnType]
}

func entryPoint(sig Signature, stage Stage) string {
	var b strings.Builder

	args := []string{"destCoord"}
	if stage == StageColor {
		args = append(args, "inputColor")
	}
	var uniforms, samples []Parameter
	for _, p := range sig.Parameters {
		if p.Type == argument.Sample {
			samples = append(samples, p)
		} else {
			uniforms = append(uniforms, p)
		}
	}
	if len(uniforms) > 0 {
		b.WriteString("struct KernelArguments {\n")
		for _, p := range uniforms {
			fmt.Fprintf(&b, "    %s: %s,\n", p.Name, wgslTypes[p.Type])
		}
		b.WriteString("}\n")
		b.WriteString("@group(0) @binding(0) var<uniform> kernelArguments: KernelArguments;\n")
	}
	for i, p := range samples {
		fmt.Fprintf(&b, "@group(1) @binding(%d) var %sTexture: texture_2d<f32>;\n", i, p.Name)
	}
	for _, p := range sig.Parameters {
		if p.Type == argument.Sample {
			args = append(args, fmt.Sprintf(
				"textureSample(%[1]sTexture, inputSampler, destCoord / vec2<f32>(textureDimensions(%[1]sTexture)))", p.Name))
		} else {
			args = append(args, "kernelArguments."+p.Name)
		}
	}
	b.WriteString("@group(0) @binding(1) var inputTexture: texture_2d<f32>;\n")
	b.WriteString("@group(0) @binding(2) var inputSampler: sampler;\n")
	b.WriteString("@fragment\n")
	fmt.Fprintf(&b, "fn %s(@builtin(position) position: vec4<f32>) -> @location(0) vec4<f32> {\n", EntryPoint)
	b.WriteString("    let destCoord = position.xy;\n")
	b.WriteString("    let inputSize = vec2<f32>(textureDimensions(inputTexture));\n")
	call := sig.Name + "(" + strings.Join(args, ", ") + ")"
	if stage == StageWarp {
		fmt.Fprintf(&b, "    let sourceCoord = %s;\n", call)
		b.WriteString("    return textureSample(inputTexture, inputSampler, sourceCoord / inputSize);\n")
	} else {
		b.WriteString("    let inputColor = textureSample(inputTexture, inputSampler, destCoord / inputSize);\n")
		fmt.Fprintf(&b, "    return %s;\n", call)
	}
	b.WriteString("}\n")
	return b.String()
}
