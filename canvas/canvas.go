// package canvas renders a single shader layer as a full-screen quad: a
// vertex shader emitting 4 hardcoded clip-space corners, a fragment shader
// built from a user program plus an injected uniform preamble, and an
// optional background texture sampled by iTexture/iTextureSampler. Grounded
// on glowberry-lib's FragmentCanvas, restructured around the render
// pipeline construction shape of a WebGPU game-engine renderer backend
// (shader module, bind group layout, pipeline layout, render pipeline).
package canvas

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/fennwick/glowwall/common"
	"github.com/fennwick/glowwall/config"
	"github.com/fennwick/glowwall/gpucontext"
)

// detectLanguage returns Glsl for a path-based shader with a .glsl or .frag
// extension regardless of the declared language, since those extensions
// unambiguously mean GLSL source; otherwise it returns the declared
// language.
func detectLanguage(source config.ShaderSource) config.ShaderLanguage {
	if source.ShaderPath != "" {
		ext := strings.ToLower(filepath.Ext(source.ShaderPath))
		if ext == ".glsl" || ext == ".frag" {
			return config.LanguageGlsl
		}
	}
	return source.Language
}

// buildShaderSource prepends preamble to shaderCode for WGSL sources. GLSL
// is rejected: translating GLSL to WGSL is not supported.
func buildShaderSource(language config.ShaderLanguage, preamble, shaderCode string) (string, error) {
	if language == config.LanguageGlsl {
		return "", fmt.Errorf("unsupported shader language: glsl")
	}
	return preamble + "\n" + shaderCode, nil
}

// Canvas is a GPU-rendered fragment shader layer.
type Canvas struct {
	device *wgpu.Device
	queue  *wgpu.Queue

	pipeline  *wgpu.RenderPipeline
	bindGroup *wgpu.BindGroup

	resolutionBuffer *wgpu.Buffer
	timeBuffer       *wgpu.Buffer

	backgroundTexture *wgpu.Texture

	startTime           time.Time
	lastFrame           time.Time
	frameInterval       time.Duration
	configuredFrameRate uint8
}

// New loads source's shader text (and optional background image), builds
// the render pipeline targeting format, and returns a ready Canvas.
func New(ctx *gpucontext.Context, source config.ShaderSource, format wgpu.TextureFormat) (*Canvas, error) {
	device := ctx.Device()
	queue := ctx.Queue()

	var shaderCode string
	if source.ShaderPath != "" {
		data, err := os.ReadFile(source.ShaderPath)
		if err != nil {
			return nil, fmt.Errorf("read shader file: %w", err)
		}
		shaderCode = string(data)
	} else {
		shaderCode = source.ShaderInline
	}

	language := detectLanguage(source)

	var backgroundTexture *wgpu.Texture
	var textureView *wgpu.TextureView
	hasTexture := source.BackgroundImage != ""
	if hasTexture {
		tex, view, err := loadBackgroundTexture(device, queue, source.BackgroundImage)
		if err != nil {
			return nil, fmt.Errorf("load background image: %w", err)
		}
		backgroundTexture = tex
		textureView = view
	}

	resolutionBuffer, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "glowwall: iResolution buffer",
		Size:  2 * 4,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create resolution buffer: %w", err)
	}

	timeBuffer, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "glowwall: iTime buffer",
		Size:  4,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create time buffer: %w", err)
	}

	bindGroupLayout, err := device.CreateBindGroupLayout(bindGroupLayoutDescriptor(hasTexture))
	if err != nil {
		return nil, fmt.Errorf("create bind group layout: %w", err)
	}

	var sampler *wgpu.Sampler
	if hasTexture {
		staging := common.SamplerStagingData{
			MagFilter: wgpu.FilterModeLinear,
			MinFilter: wgpu.FilterModeLinear,
		}
		sampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
			AddressModeU: staging.AddressModeU,
			AddressModeV: staging.AddressModeV,
			AddressModeW: staging.AddressModeW,
			MagFilter:    staging.MagFilter,
			MinFilter:    staging.MinFilter,
		})
		if err != nil {
			return nil, fmt.Errorf("create background sampler: %w", err)
		}
	}

	bindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "glowwall: bind group",
		Layout:  bindGroupLayout,
		Entries: bindGroupEntries(hasTexture, resolutionBuffer, timeBuffer, textureView, sampler),
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group: %w", err)
	}

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "glowwall: pipeline layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bindGroupLayout},
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}

	vertexModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "glowwall: vertex shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: vertexShaderSource},
	})
	if err != nil {
		return nil, fmt.Errorf("create vertex shader module: %w", err)
	}

	preamble := wgslPreamble
	if hasTexture {
		preamble = wgslPreambleWithTexture
	}
	fullShader, err := buildShaderSource(language, preamble, shaderCode)
	if err != nil {
		return nil, err
	}

	fragmentModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "glowwall: fragment shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: fullShader},
	})
	if err != nil {
		return nil, fmt.Errorf("create fragment shader module: %w", err)
	}

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "glowwall: render pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vertexModule,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     fragmentModule,
			EntryPoint: "main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    format,
					Blend:     &wgpu.BlendStateAlphaBlending,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleStrip,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create render pipeline: %w", err)
	}

	frameRate := config.ClampFrameRate(source.FrameRate)

	now := time.Now()
	return &Canvas{
		device:              device,
		queue:               queue,
		pipeline:            pipeline,
		bindGroup:           bindGroup,
		resolutionBuffer:    resolutionBuffer,
		timeBuffer:          timeBuffer,
		backgroundTexture:   backgroundTexture,
		startTime:           now,
		lastFrame:           now,
		frameInterval:       frameIntervalFor(frameRate),
		configuredFrameRate: frameRate,
	}, nil
}

func frameIntervalFor(frameRate uint8) time.Duration {
	return time.Duration(float64(time.Second) / float64(frameRate))
}

func bindGroupLayoutDescriptor(hasTexture bool) *wgpu.BindGroupLayoutDescriptor {
	entries := []wgpu.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: wgpu.ShaderStageFragment,
			Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
		},
		{
			Binding:    1,
			Visibility: wgpu.ShaderStageFragment,
			Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
		},
	}
	if hasTexture {
		entries = append(entries,
			wgpu.BindGroupLayoutEntry{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			wgpu.BindGroupLayoutEntry{
				Binding:    3,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
		)
	}
	return &wgpu.BindGroupLayoutDescriptor{
		Label:   "glowwall: bind group layout",
		Entries: entries,
	}
}

func bindGroupEntries(hasTexture bool, resolutionBuffer, timeBuffer *wgpu.Buffer, textureView *wgpu.TextureView, sampler *wgpu.Sampler) []wgpu.BindGroupEntry {
	entries := []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: resolutionBuffer, Size: wgpu.WholeSize},
		{Binding: 1, Buffer: timeBuffer, Size: wgpu.WholeSize},
	}
	if hasTexture {
		entries = append(entries,
			wgpu.BindGroupEntry{Binding: 2, TextureView: textureView},
			wgpu.BindGroupEntry{Binding: 3, Sampler: sampler},
		)
	}
	return entries
}

func loadBackgroundTexture(device *wgpu.Device, queue *wgpu.Queue, path string) (*wgpu.Texture, *wgpu.TextureView, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}

	bounds := img.Bounds()
	width, height := uint32(bounds.Dx()), uint32(bounds.Dy())

	rgba := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}

	texture, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     "glowwall: background texture",
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, nil, err
	}

	staging := textureUploadData(rgba.Pix, width, height)

	queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture: texture,
			Aspect:  wgpu.TextureAspectAll,
		},
		staging.Pixels,
		&wgpu.TextureDataLayout{
			BytesPerRow:  staging.BytesPerRow,
			RowsPerImage: staging.Height,
		},
		&wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
	)

	view, err := texture.CreateView(nil)
	if err != nil {
		return nil, nil, err
	}
	return texture, view, nil
}

// UpdateResolution writes the current physical surface size to the
// iResolution uniform.
func (c *Canvas) UpdateResolution(width, height uint32) {
	data := [2]float32{float32(width), float32(height)}
	c.queue.WriteBuffer(c.resolutionBuffer, 0, f32SliceBytes(data[:]))
}

// ShouldRender reports whether frameInterval has elapsed since the last
// rendered frame.
func (c *Canvas) ShouldRender() bool {
	return time.Since(c.lastFrame) >= c.frameInterval
}

// MarkFrameRendered records that a frame was just rendered.
func (c *Canvas) MarkFrameRendered() {
	c.lastFrame = time.Now()
}

// ConfiguredFrameRate returns the frame rate declared in the shader source.
func (c *Canvas) ConfiguredFrameRate() uint8 {
	return c.configuredFrameRate
}

// CurrentFrameRate returns the frame rate implied by the active frame
// interval, which may differ from ConfiguredFrameRate under a power-saving
// override.
func (c *Canvas) CurrentFrameRate() uint8 {
	return uint8(time.Second / c.frameInterval)
}

// SetFrameRateOverride replaces the active frame interval. Passing 0
// restores the configured frame rate.
func (c *Canvas) SetFrameRateOverride(frameRate uint8) {
	if frameRate == 0 {
		frameRate = c.configuredFrameRate
	}
	c.frameInterval = frameIntervalFor(config.ClampFrameRate(frameRate))
}

// Render draws one frame of the shader into view.
func (c *Canvas) Render(view *wgpu.TextureView) error {
	elapsed := float32(time.Since(c.startTime).Seconds())
	c.queue.WriteBuffer(c.timeBuffer, 0, f32SliceBytes([]float32{elapsed}))

	encoder, err := c.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{
		Label: "glowwall: render encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "glowwall: render pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{},
			},
		},
	})
	pass.SetPipeline(c.pipeline)
	pass.SetBindGroup(0, c.bindGroup, nil)
	pass.Draw(4, 1, 0, 0)
	pass.End()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish command buffer: %w", err)
	}
	c.queue.Submit(cmd)
	return nil
}

func f32SliceBytes(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		bits := math.Float32bits(f)
		out[i*4+0] = byte(bits)
		out[i*4+1] = byte(bits >> 8)
		out[i*4+2] = byte(bits >> 16)
		out[i*4+3] = byte(bits >> 24)
	}
	return out
}
