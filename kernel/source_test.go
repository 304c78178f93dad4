package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitialSource(t *testing.T) {
	color := mustNew(t, TypeColor)
	assert.Equal(t,
		"kernel vec4 untitled() {\n    return vec4<f32>(1.0, 1.0, 1.0, 1.0);\n}",
		InitialSource(color, DefaultName, "    "))

	warp := mustNew(t, TypeWarp)
	assert.Equal(t,
		"kernel vec2 blur() {\n\treturn destCoord;\n}",
		InitialSource(warp, "blur", "\t"))

	compute := mustNew(t, TypeCompute)
	assert.Equal(t,
		"kernel void untitled("+
			"metal::texture2d<float, metal::access::read> inTexture [[texture(0)]],"+
			"metal::texture2d<float, metal::access::write> outTexture [[texture(1)]],"+
			"uint2 gid [[thread_position_in_grid]]) {\n"+
			"  float4 color = inTexture.read(gid);\n"+
			"  outTexture.write(color, gid);\n}",
		InitialSource(compute, DefaultName, "  "))
}
