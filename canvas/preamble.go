package canvas

// wgslPreamble declares the uniforms every shader layer can read, prepended
// verbatim ahead of the user's fragment source.
const wgslPreamble = `
// glowwall live wallpaper uniforms
@group(0) @binding(0) var<uniform> iResolution: vec2f;
@group(0) @binding(1) var<uniform> iTime: f32;
`

// wgslPreambleWithTexture is used instead of wgslPreamble when the layer has
// a background image bound to a texture and sampler.
const wgslPreambleWithTexture = `
// glowwall live wallpaper uniforms
@group(0) @binding(0) var<uniform> iResolution: vec2f;
@group(0) @binding(1) var<uniform> iTime: f32;
@group(0) @binding(2) var iTexture: texture_2d<f32>;
@group(0) @binding(3) var iTextureSampler: sampler;
`

// vertexShaderSource draws a full-screen quad from 4 hardcoded clip-space
// vertices and vertex_index alone, with no vertex buffer.
const vertexShaderSource = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
}

@vertex
fn vs_main(@builtin(vertex_index) vertex_index: u32) -> VertexOutput {
    var positions = array<vec2<f32>, 4>(
        vec2<f32>(-1.0, -1.0),
        vec2<f32>( 1.0, -1.0),
        vec2<f32>(-1.0,  1.0),
        vec2<f32>( 1.0,  1.0),
    );

    var out: VertexOutput;
    out.position = vec4<f32>(positions[vertex_index], 0.0, 1.0);
    return out;
}
`
