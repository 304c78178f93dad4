package project

import (
	"encoding/json"
	"image"
	"image/color"
	"testing"

	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/filterplay/argument"
	fpimage "github.com/gogpu/filterplay/internal/image"
	"github.com/gogpu/filterplay/kernel"
)

func newFS(t *testing.T) hackpadfs.FS {
	t.Helper()
	fsys, err := mem.NewFS()
	require.NoError(t, err)
	return fsys
}

func TestNew(t *testing.T) {
	p, err := New("blur", kernel.TypeCompute, "    ")
	require.NoError(t, err)
	assert.Equal(t, kernel.TypeCompute, p.Metadata.Type)
	assert.Len(t, p.Metadata.Arguments, 3)
	assert.Len(t, p.InputImages, 1)
	assert.Contains(t, p.Source, "kernel void untitled(")

	_, err = New("x", kernel.Type("nope"), "")
	assert.ErrorIs(t, err, kernel.ErrUnknownType)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fsys := newFS(t)
	p, err := New("warp", kernel.TypeWarp, "\t")
	require.NoError(t, err)

	p.Metadata.Arguments, err = p.Metadata.Arguments.Add(argument.New("amount", argument.Float))
	require.NoError(t, err)
	p.Metadata.Arguments, err = p.Metadata.Arguments.SetValue("amount", argument.FloatValue(0.5))
	require.NoError(t, err)
	p.Metadata.Arguments, err = p.Metadata.Arguments.Add(argument.New("mask", argument.Sample))
	require.NoError(t, err)
	p.InputImages[0] = fpimage.Solid(8, 4, color.White)

	require.NoError(t, p.Save(fsys, "projects/warp"))

	_, err = hackpadfs.Stat(fsys, "projects/warp/source.cikernel")
	require.NoError(t, err)
	_, err = hackpadfs.Stat(fsys, "projects/warp/Resources/mask.jpg")
	require.NoError(t, err)
	_, err = hackpadfs.Stat(fsys, "projects/warp/inputimages/0.jpg")
	require.NoError(t, err)

	loaded, err := Load(fsys, "projects/warp")
	require.NoError(t, err)
	assert.Equal(t, "warp", loaded.Name)
	assert.Equal(t, p.Source, loaded.Source)
	assert.Equal(t, kernel.TypeWarp, loaded.Metadata.Type)

	amount, ok := loaded.Metadata.Arguments.Lookup("amount")
	require.True(t, ok)
	assert.True(t, amount.Value.Equal(argument.FloatValue(0.5)))

	mask, ok := loaded.Metadata.Arguments.Lookup("mask")
	require.True(t, ok)
	require.NotNil(t, mask.Value.Image())
	assert.Equal(t, image.Rect(0, 0, fpimage.DefaultSize, fpimage.DefaultSize), mask.Value.Image().Bounds())

	require.Len(t, loaded.InputImages, 1)
	require.NotNil(t, loaded.InputImages[0])
	assert.Equal(t, image.Rect(0, 0, 8, 4), loaded.InputImages[0].Bounds())
}

func TestMetadataFormat(t *testing.T) {
	fsys := newFS(t)
	p, err := New("c", kernel.TypeColor, "  ")
	require.NoError(t, err)
	require.NoError(t, p.Save(fsys, "c"))

	data, err := hackpadfs.ReadFile(fsys, "c/metadata.json")
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `"coreimage"`, string(raw["type"]))
	assert.JSONEq(t, `[]`, string(raw["arguments"]))
}

func TestLoadErrors(t *testing.T) {
	fsys := newFS(t)

	_, err := Load(fsys, "missing")
	assert.ErrorIs(t, err, ErrUnknownFileFormat)

	require.NoError(t, hackpadfs.MkdirAll(fsys, "nosource", 0o755))
	require.NoError(t, hackpadfs.WriteFullFile(fsys, "nosource/metadata.json", []byte(`{"arguments":[],"type":"metal"}`), 0o644))
	_, err = Load(fsys, "nosource")
	assert.ErrorIs(t, err, ErrUnknownFileFormat)

	require.NoError(t, hackpadfs.MkdirAll(fsys, "badtype", 0o755))
	require.NoError(t, hackpadfs.WriteFullFile(fsys, "badtype/metadata.json", []byte(`{"arguments":[],"type":"opengl"}`), 0o644))
	_, err = Load(fsys, "badtype")
	assert.ErrorIs(t, err, ErrUnknownFileFormat)

	require.NoError(t, hackpadfs.MkdirAll(fsys, "noimage", 0o755))
	require.NoError(t, hackpadfs.WriteFullFile(fsys, "noimage/metadata.json",
		[]byte(`{"arguments":[{"index":0,"name":"tex","type":"__sample","access":"read","origin":"custom"}],"type":"coreimage"}`), 0o644))
	require.NoError(t, hackpadfs.WriteFullFile(fsys, "noimage/source.cikernel", []byte("kernel vec4 k() {}"), 0o644))
	_, err = Load(fsys, "noimage")
	assert.ErrorIs(t, err, ErrMissingResource)
}

func TestComputeTexturesDefaultOnLoad(t *testing.T) {
	fsys := newFS(t)
	p, err := New("m", kernel.TypeCompute, "  ")
	require.NoError(t, err)
	require.NoError(t, p.Save(fsys, "m"))

	loaded, err := Load(fsys, "m")
	require.NoError(t, err)
	in, ok := loaded.Metadata.Arguments.Lookup("inTexture")
	require.True(t, ok)
	assert.True(t, in.Value.Equal(argument.Texture2D.DefaultValue()))
	assert.Nil(t, loaded.InputImages[0])
}

func TestResources(t *testing.T) {
	p, err := New("r", kernel.TypeColor, "")
	require.NoError(t, err)

	require.NoError(t, p.AddImage("tex", fpimage.Solid(2, 2, color.Black)))
	p.AddResource("notes.txt", []byte("hi"))
	p.RenameImage("tex", "texture")

	_, err = p.Image("tex")
	assert.ErrorIs(t, err, ErrMissingResource)
	img, err := p.Image("texture")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())

	var names []string
	for _, r := range p.Resources() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"notes.txt", "texture.jpg"}, names)

	p.RemoveResource("notes.txt")
	assert.Len(t, p.Resources(), 1)

	// Stale files are removed on save.
	fsys := newFS(t)
	require.NoError(t, p.Save(fsys, "r"))
	p.RemoveResource("texture.jpg")
	require.NoError(t, p.Save(fsys, "r"))
	entries, err := hackpadfs.ReadDir(fsys, "r/Resources")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAddImageFitsLargeImages(t *testing.T) {
	p, err := New("big", kernel.TypeColor, "")
	require.NoError(t, err)

	require.NoError(t, p.AddImage("tex", fpimage.Solid(MaxImageEdge*2, MaxImageEdge, color.White)))
	img, err := p.Image("tex")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, MaxImageEdge, MaxImageEdge/2), img.Bounds())
}

func TestSaveKeepsUnchangedImageBytes(t *testing.T) {
	fsys := newFS(t)
	p, err := New("warp", kernel.TypeWarp, "")
	require.NoError(t, err)
	p.Metadata.Arguments, err = p.Metadata.Arguments.Add(argument.New("mask", argument.Sample))
	require.NoError(t, err)
	p.InputImages[0] = fpimage.Solid(8, 4, color.NRGBA{R: 30, G: 140, B: 220, A: 255})
	require.NoError(t, p.Save(fsys, "a"))

	read := func(name string) []byte {
		t.Helper()
		data, err := hackpadfs.ReadFile(fsys, name)
		require.NoError(t, err)
		return data
	}
	mask, input := read("a/Resources/mask.jpg"), read("a/inputimages/0.jpg")

	loaded, err := Load(fsys, "a")
	require.NoError(t, err)
	for range 3 {
		require.NoError(t, loaded.Save(fsys, "b"))
	}
	assert.Equal(t, mask, read("b/Resources/mask.jpg"))
	assert.Equal(t, input, read("b/inputimages/0.jpg"))

	loaded.Metadata.Arguments, err = loaded.Metadata.Arguments.SetValue("mask",
		argument.SampleValue(fpimage.Solid(4, 4, color.White)))
	require.NoError(t, err)
	loaded.InputImages[0] = fpimage.Solid(2, 2, color.Black)
	require.NoError(t, loaded.Save(fsys, "b"))
	assert.NotEqual(t, mask, read("b/Resources/mask.jpg"))
	assert.NotEqual(t, input, read("b/inputimages/0.jpg"))

	img, err := loaded.Image("mask")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())
}
