package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/filterplay"
	"github.com/gogpu/filterplay/diag"
	"github.com/gogpu/filterplay/kernel"
	"github.com/gogpu/filterplay/project"
)

// errCompileFailed is returned after the diagnostics of a failed compile
// have been printed.
var errCompileFailed = errors.New("compile failed")

func newNewCommand(c *cli) *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "new <dir>",
		Short: "Create a kernel project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := c.settings.Type()
			if typ != "" {
				t = kernel.Type(typ)
			}
			dir, err := c.fsPath(args[0])
			if err != nil {
				return err
			}
			p, err := project.New(path.Base(dir), t, c.settings.Spacing())
			if err != nil {
				return err
			}
			if err := p.Save(c.fs, dir); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s %s project %s\n", success("Created"), t, args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "", "Kernel type. One of: (coreimage | coreimagewarp | metal)")
	return cmd
}

func newCompileCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "compile <dir>",
		Short: "Compile a kernel project and print its diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := c.compile(args[0])
			if err != nil {
				return err
			}
			if err := c.renderResult(r); err != nil {
				return err
			}
			if !r.Succeeded() {
				return errCompileFailed
			}
			return nil
		},
	}
}

// compile loads and compiles the project at dir.
func (c *cli) compile(dir string) (diag.Result, *filterplay.Pipeline, error) {
	proj, _, err := c.load(dir)
	if err != nil {
		return diag.Result{}, nil, err
	}
	k, err := c.kernel(proj)
	if err != nil {
		return diag.Result{}, nil, err
	}
	p := filterplay.NewPipeline(k, filterplay.WithPipelineLogger(c.logger))
	return p.Compile(proj.Source), p, nil
}

// description is the describe output.
type description struct {
	Name        string             `json:"name" yaml:"name"`
	Type        kernel.Type        `json:"type" yaml:"type"`
	Language    string             `json:"language" yaml:"language"`
	Arguments   []argumentSummary  `json:"arguments" yaml:"arguments"`
	InputImages []inputImageStatus `json:"inputImages" yaml:"inputImages"`
	Resources   []string           `json:"resources,omitempty" yaml:"resources,omitempty"`
}

type argumentSummary struct {
	Index   int    `json:"index" yaml:"index"`
	Name    string `json:"name" yaml:"name"`
	Type    string `json:"type" yaml:"type"`
	Value   string `json:"value,omitempty" yaml:"value,omitempty"`
	Access  string `json:"access" yaml:"access"`
	Origin  string `json:"origin" yaml:"origin"`
	Binding string `json:"binding,omitempty" yaml:"binding,omitempty"`
}

type inputImageStatus struct {
	Index  int    `json:"index" yaml:"index"`
	Bounds string `json:"bounds,omitempty" yaml:"bounds,omitempty"`
}

func describe(p *project.Project) (description, error) {
	k, err := p.Kernel()
	if err != nil {
		return description{}, err
	}
	d := description{
		Name:     p.Name,
		Type:     p.Metadata.Type,
		Language: k.Language().Name,
	}
	for _, a := range p.Metadata.Arguments {
		s := argumentSummary{
			Index:  a.Index,
			Name:   a.Name,
			Type:   string(a.Type),
			Access: string(a.Access),
			Origin: string(a.Origin),
		}
		if a.Value.IsValid() {
			s.Value = a.Value.String()
		}
		if a.Binding != "" {
			s.Binding = a.Binding.String()
		}
		d.Arguments = append(d.Arguments, s)
	}
	for i, img := range p.InputImages {
		st := inputImageStatus{Index: i}
		if img != nil {
			st.Bounds = img.Bounds().String()
		}
		d.InputImages = append(d.InputImages, st)
	}
	for _, r := range p.Resources() {
		d.Resources = append(d.Resources, r.Name)
	}
	return d, nil
}

func newDescribeCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <dir>",
		Short: "Print a project's kernel type, arguments and images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, _, err := c.load(args[0])
			if err != nil {
				return err
			}
			d, err := describe(proj)
			if err != nil {
				return err
			}
			switch c.output {
			case "json":
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			case "", "yaml":
				enc := yaml.NewEncoder(c.out)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(d)
			default:
				return fmt.Errorf("invalid output format %q", c.output)
			}
		},
	}
}

func newExportCommand(c *cli) *cobra.Command {
	var lang, file string
	cmd := &cobra.Command{
		Use:   "export <dir>",
		Short: "Compile a project and write a translated or binary artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, p, err := c.compile(args[0])
			if err != nil {
				return err
			}
			if !r.Succeeded() {
				if err := c.renderResult(r); err != nil {
					return err
				}
				return errCompileFailed
			}

			data, err := artifact(p.Kernel().Program(), lang)
			if err != nil {
				return err
			}
			if file == "" {
				_, err = c.out.Write(data)
				return err
			}
			target, err := c.fsPath(file)
			if err != nil {
				return err
			}
			return writeFile(c.fs, target, data)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "glsl", "Artifact. One of: (glsl | wgsl | binary)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Write to file instead of stdout")
	return cmd
}

func artifact(prog *kernel.Program, lang string) ([]byte, error) {
	if lang == "binary" {
		if len(prog.Binary) == 0 {
			return nil, errors.New("toolchain produced no binary")
		}
		return prog.Binary, nil
	}
	src, ok := prog.Translations[lang]
	if !ok {
		return nil, fmt.Errorf("no %s translation for %s kernels", lang, prog.Language.Name)
	}
	return []byte(src), nil
}
