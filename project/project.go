// Package project stores a kernel document as a directory:
//
//	<name>/
//	    metadata.json        arguments and kernel type
//	    source.<ext>         kernel source
//	    Resources/<arg>.jpg  images of sample arguments
//	    inputimages/<i>.jpg  input images
//
// Storage goes through hackpadfs so projects can live on disk or in memory.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"maps"
	"path"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/hack-pad/hackpadfs"

	"github.com/gogpu/filterplay/argument"
	fpimage "github.com/gogpu/filterplay/internal/image"
	"github.com/gogpu/filterplay/kernel"
)

// File and directory names inside a project.
const (
	MetadataFile   = "metadata.json"
	SourceFile     = "source"
	ResourcesDir   = "Resources"
	InputImagesDir = "inputimages"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// MaxImageEdge bounds the stored size of imported images.
const MaxImageEdge = 2048

// Project errors.
var (
	ErrUnknownFileFormat = errors.New("project: unknown file format")
	ErrMissingResource   = errors.New("project: missing resource")
)

// Metadata is the content of metadata.json.
type Metadata struct {
	Arguments argument.List `json:"arguments"`
	Type      kernel.Type   `json:"type"`
}

// Resource is a named file of the Resources directory.
type Resource struct {
	Name string
	Data []byte
}

// Project is a kernel document.
type Project struct {
	Name        string
	Metadata    Metadata
	Source      string
	InputImages []image.Image

	resources map[string][]byte

	// encoded remembers which image each stored JPEG was made from or
	// decoded into, so unchanged images are not re-encoded on save.
	encoded map[string]encodedImage
}

type encodedImage struct {
	img  image.Image
	data []byte
}

// New scaffolds a project of type t: the initial source indented with
// indent, the kernel's required arguments and empty input image slots.
func New(name string, t kernel.Type, indent string) (*Project, error) {
	k, err := kernel.New(t)
	if err != nil {
		return nil, err
	}
	return &Project{
		Name: name,
		Metadata: Metadata{
			Arguments: k.RequiredArguments(),
			Type:      t,
		},
		Source:      kernel.InitialSource(k, kernel.DefaultName, indent),
		InputImages: make([]image.Image, k.RequiredInputImages()),
		resources:   make(map[string][]byte),
	}, nil
}

// Kernel returns an uncompiled kernel of the project's type.
func (p *Project) Kernel(opts ...kernel.Option) (kernel.Kernel, error) {
	return kernel.New(p.Metadata.Type, opts...)
}

// SourceName returns the file name of the source for kernel type t.
func SourceName(t kernel.Type) (string, error) {
	k, err := kernel.New(t)
	if err != nil {
		return "", err
	}
	return SourceFile + "." + k.Language().FileExtension, nil
}

func imageName(name string) string { return name + ".jpg" }

func inputKey(i int) string { return path.Join(InputImagesDir, imageName(strconv.Itoa(i))) }

// encode returns the JPEG of img. The bytes stored under key are reused
// when img is the image they came from.
func (p *Project) encode(key string, img image.Image) ([]byte, error) {
	if e, ok := p.encoded[key]; ok && sameImage(e.img, img) {
		return e.data, nil
	}
	return fpimage.JPEGBytes(fpimage.Fit(img, MaxImageEdge))
}

func (p *Project) remember(key string, img image.Image, data []byte) {
	if p.encoded == nil {
		p.encoded = make(map[string]encodedImage)
	}
	p.encoded[key] = encodedImage{img: img, data: data}
}

func sameImage(a, b image.Image) bool {
	if a == nil || b == nil {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	return ta == tb && ta.Comparable() && a == b
}

// AddImage stores img as the resource of argument name. Images larger than
// MaxImageEdge are scaled down first.
func (p *Project) AddImage(name string, img image.Image) error {
	key := imageName(name)
	data, err := p.encode(key, img)
	if err != nil {
		return fmt.Errorf("project: image %q: %w", name, err)
	}
	p.AddResource(key, data)
	p.remember(key, img, data)
	return nil
}

// Image decodes the resource of argument name.
func (p *Project) Image(name string) (image.Image, error) {
	data, ok := p.resources[imageName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingResource, imageName(name))
	}
	return fpimage.Decode(data)
}

// RenameImage moves the resource of argument name to newName.
func (p *Project) RenameImage(name, newName string) {
	p.renameResource(imageName(name), imageName(newName))
}

// AddResource stores data under name, replacing any previous resource.
func (p *Project) AddResource(name string, data []byte) {
	if p.resources == nil {
		p.resources = make(map[string][]byte)
	}
	p.resources[name] = data
	delete(p.encoded, name)
}

// RemoveResource deletes the resource called name.
func (p *Project) RemoveResource(name string) {
	delete(p.resources, name)
	delete(p.encoded, name)
}

func (p *Project) renameResource(name, newName string) {
	data, ok := p.resources[name]
	if !ok {
		return
	}
	delete(p.resources, name)
	p.resources[newName] = data
	delete(p.encoded, newName)
	if e, ok := p.encoded[name]; ok {
		delete(p.encoded, name)
		p.encoded[newName] = e
	}
}

// Resources returns every resource sorted by name.
func (p *Project) Resources() []Resource {
	names := slices.Sorted(maps.Keys(p.resources))
	out := make([]Resource, len(names))
	for i, n := range names {
		out[i] = Resource{Name: n, Data: p.resources[n]}
	}
	return out
}

// Save writes the project into dir. Sample argument images are stored as
// resources first; missing input images are skipped. Images that are
// unchanged since they were loaded or last saved keep their stored bytes.
func (p *Project) Save(fsys hackpadfs.FS, dir string) error {
	for _, a := range p.Metadata.Arguments {
		if a.Type != argument.Sample || a.Value.Image() == nil {
			continue
		}
		if err := p.AddImage(a.Name, a.Value.Image()); err != nil {
			return err
		}
	}

	md := p.Metadata
	if md.Arguments == nil {
		md.Arguments = argument.List{}
	}
	meta, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("project: encode metadata: %w", err)
	}
	source, err := SourceName(p.Metadata.Type)
	if err != nil {
		return err
	}

	if err := hackpadfs.MkdirAll(fsys, path.Join(dir, ResourcesDir), dirPerm); err != nil {
		return err
	}
	if err := hackpadfs.WriteFullFile(fsys, path.Join(dir, MetadataFile), meta, filePerm); err != nil {
		return err
	}
	if err := hackpadfs.WriteFullFile(fsys, path.Join(dir, source), []byte(p.Source), filePerm); err != nil {
		return err
	}
	if err := p.saveResources(fsys, path.Join(dir, ResourcesDir)); err != nil {
		return err
	}
	return p.saveInputImages(fsys, path.Join(dir, InputImagesDir))
}

func (p *Project) saveResources(fsys hackpadfs.FS, dir string) error {
	entries, err := hackpadfs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if _, ok := p.resources[e.Name()]; !ok {
			if err := hackpadfs.Remove(fsys, path.Join(dir, e.Name())); err != nil {
				return err
			}
		}
	}
	for _, r := range p.Resources() {
		if err := hackpadfs.WriteFullFile(fsys, path.Join(dir, r.Name), r.Data, filePerm); err != nil {
			return err
		}
	}
	return nil
}

func (p *Project) saveInputImages(fsys hackpadfs.FS, dir string) error {
	if len(p.InputImages) == 0 {
		return nil
	}
	if err := hackpadfs.MkdirAll(fsys, dir, dirPerm); err != nil {
		return err
	}
	for i, img := range p.InputImages {
		name := path.Join(dir, imageName(strconv.Itoa(i)))
		if img == nil {
			if err := hackpadfs.Remove(fsys, name); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			continue
		}
		data, err := p.encode(inputKey(i), img)
		if err != nil {
			return fmt.Errorf("project: input image %d: %w", i, err)
		}
		p.remember(inputKey(i), img, data)
		if err := hackpadfs.WriteFullFile(fsys, name, data, filePerm); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the project stored in dir.
func Load(fsys hackpadfs.FS, dir string) (*Project, error) {
	meta, err := hackpadfs.ReadFile(fsys, path.Join(dir, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownFileFormat, err)
	}
	p := &Project{
		Name:      strings.TrimSuffix(path.Base(dir), path.Ext(dir)),
		resources: make(map[string][]byte),
	}
	if err := json.Unmarshal(meta, &p.Metadata); err != nil {
		return nil, fmt.Errorf("%w: metadata: %w", ErrUnknownFileFormat, err)
	}

	k, err := kernel.New(p.Metadata.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownFileFormat, err)
	}
	source, err := hackpadfs.ReadFile(fsys, path.Join(dir, SourceFile+"."+k.Language().FileExtension))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownFileFormat, err)
	}
	p.Source = string(source)

	if err := p.loadResources(fsys, path.Join(dir, ResourcesDir)); err != nil {
		return nil, err
	}
	if err := p.resolveImages(); err != nil {
		return nil, err
	}

	p.InputImages = make([]image.Image, k.RequiredInputImages())
	for i := range p.InputImages {
		data, err := hackpadfs.ReadFile(fsys, path.Join(dir, inputKey(i)))
		if err != nil {
			continue
		}
		if img, err := fpimage.Decode(data); err == nil {
			p.InputImages[i] = img
			p.remember(inputKey(i), img, data)
		}
	}
	return p, nil
}

func (p *Project) loadResources(fsys hackpadfs.FS, dir string) error {
	entries, err := hackpadfs.ReadDir(fsys, dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := hackpadfs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return err
		}
		p.resources[e.Name()] = data
	}
	return nil
}

// resolveImages re-attaches images to the placeholders decoded from
// metadata. Sample arguments must have a resource; textures fall back to
// the default image.
func (p *Project) resolveImages() error {
	args := slices.Clone(p.Metadata.Arguments)
	for i, a := range args {
		if !a.Type.IsImage() {
			continue
		}
		img, err := p.Image(a.Name)
		switch {
		case err == nil:
			args[i].Value = a.Type.DefaultValue().WithImage(img)
			p.remember(imageName(a.Name), img, p.resources[imageName(a.Name)])
		case a.Type == argument.Sample:
			return fmt.Errorf("argument %q: %w", a.Name, err)
		default:
			args[i].Value = a.Type.DefaultValue()
		}
	}
	p.Metadata.Arguments = args
	return nil
}
