package engine

import (
	"github.com/fennwick/glowwall/canvas"
	"github.com/fennwick/glowwall/compositor"
	"github.com/fennwick/glowwall/config"
	"github.com/fennwick/glowwall/gpucontext"
	"github.com/fennwick/glowwall/wallpaper"
)

// handleOutputAdded appends o to the active outputs, then binds the first
// entry whose selector matches o's name or "all" and that doesn't already
// have a layer on this output. An output.<name> override for an output that
// has no binding yet (same_on_all unset) triggers a rebuild first, which
// binds o to its override.
func (e *Engine) handleOutputAdded(o compositor.Output) {
	e.outputsByName[o.Name()] = o

	if !e.cfg.SameOnAll && findBinding(e.bindings, o.Name()) == nil {
		if _, ok := e.store.OutputEntry(o.Name()); ok {
			e.rebuildBindings(e.bindings)
			return
		}
	}

	for _, b := range e.bindings {
		if b.entry.OutputSelector != o.Name() && b.entry.OutputSelector != config.AllOutputsSelector {
			continue
		}
		if _, bound := b.layers[o.Name()]; bound {
			continue
		}
		e.bindLayer(b, o)
		return
	}
}

func (e *Engine) bindLayer(b *binding, o compositor.Output) {
	surf, err := e.reg.CreateSurface()
	if err != nil {
		e.logger.Error("engine: failed to create surface", "output", o.Name(), "error", err)
		return
	}

	ls, err := surf.LayerShellSurface(o)
	if err != nil {
		e.logger.Error("engine: failed to create layer-shell surface", "output", o.Name(), "error", err)
		surf.Destroy()
		return
	}

	vp, err := surf.Viewport()
	if err != nil {
		e.logger.Error("engine: failed to create viewport", "output", o.Name(), "error", err)
	}

	l := &layer{
		output:       o,
		outputName:   o.Name(),
		surface:      surf,
		layerSurface: ls,
		viewport:     vp,
		scale120:     o.ScaleFactor120(),
	}
	if mode, ok := o.CurrentMode(); ok {
		l.mode, l.haveMode = mode, true
	}
	if fs, ok := surf.FractionalScale(); ok {
		l.fracScale = fs
		fs.OnScale(func(scale120 int32) { e.handleFractionalScaleChanged(b, l, scale120) })
	}

	ls.OnConfigure(func(width, height uint32, serial uint32) {
		e.handleSurfaceConfigured(b, l, width, height, serial)
	})
	ls.OnClosed(func() {
		e.handleOutputRemoved(o)
	})

	b.layers[o.Name()] = l
	surf.Commit()
}

// handleOutputUpdated fires when an output's mode or integer scale changes
// and neither a fractional-scale manager nor a v6+ output object delivered
// it another way. It updates the bound layer's stored output info, takes the
// output's integer scale only when no fractional-scale manager is present,
// and reconfigures or redraws it.
func (e *Engine) handleOutputUpdated(o compositor.Output) {
	e.outputsByName[o.Name()] = o

	for _, b := range e.bindings {
		l, ok := b.layers[o.Name()]
		if !ok {
			continue
		}
		l.output = o
		if !e.reg.HasFractionalScaleManager() {
			l.scale120 = o.ScaleFactor120()
		}
		if mode, ok := o.CurrentMode(); ok {
			l.mode, l.haveMode = mode, true
		}
		e.redrawLayer(b, l)
		return
	}
}

// handleOutputRemoved drops the layer bound to o, if any, and erases the
// output from the active set.
func (e *Engine) handleOutputRemoved(o compositor.Output) {
	delete(e.outputsByName, o.Name())

	for _, b := range e.bindings {
		l, ok := b.layers[o.Name()]
		if !ok {
			continue
		}
		delete(b.layers, o.Name())
		e.destroyLayer(l)
		return
	}
}

// handleFractionalScaleChanged records the compositor's preferred scale
// (already in 120ths) and reconfigures or redraws per source kind.
func (e *Engine) handleFractionalScaleChanged(b *binding, l *layer, scale120 int32) {
	l.scale120 = scale120
	e.redrawLayer(b, l)
}

func (e *Engine) redrawLayer(b *binding, l *layer) {
	if wallpaper.IsShader(b.entry.Source) {
		e.configureShaderLayer(b, l)
	} else {
		e.drawStaticLayer(b, l)
	}
}

// handleSurfaceConfigured records the compositor-assigned logical size,
// acks the configure, sets the viewport destination to that logical size,
// and dispatches to the static or shader path.
func (e *Engine) handleSurfaceConfigured(b *binding, l *layer, width, height uint32, serial uint32) {
	l.logicalWidth, l.logicalHeight = width, height
	l.layerSurface.AckConfigure(serial)
	if l.viewport != nil {
		l.viewport.SetDestination(int32(width), int32(height))
	}

	e.redrawLayer(b, l)

	l.surface.Commit()
}

// configureShaderLayer builds gpu_state on first configure (creating the
// surface, configuring it, building the canvas, rendering and presenting
// one frame immediately so no residual content shows, then arming the
// first frame callback) or reconfigures it to the new physical size on
// subsequent configures.
func (e *Engine) configureShaderLayer(b *binding, l *layer) {
	physW, physH := physicalSize(l.logicalWidth, l.logicalHeight, l.scale120, l.mode, l.haveMode)

	if l.gpuSurface == nil {
		if err := e.ensureGPU(); err != nil {
			e.logger.Error("engine: no gpu context available, shader layer left unrendered", "output", l.outputName, "error", err)
			return
		}

		gs := e.gpu.NewWaylandSurface(l.surface.NativeDisplay(), l.surface.NativeWindow())
		if err := gs.Configure(physW, physH); err != nil {
			e.logger.Error("engine: failed to configure gpu surface", "output", l.outputName, "error", err)
			return
		}

		cv, err := canvas.New(e.gpu, b.entry.Source.Shader, gs.Format())
		if err != nil {
			e.logger.Error("engine: failed to build canvas, leaving shader layer unrendered", "output", l.outputName, "error", err)
			return
		}

		l.gpuSurface = gs
		l.canvas = cv
		l.canvas.UpdateResolution(physW, physH)

		e.renderShaderFrame(l)
		l.surface.Frame(func() { e.handleFrameCallback(b, l) })
		return
	}

	if err := l.gpuSurface.Configure(physW, physH); err != nil {
		e.logger.Error("engine: failed to reconfigure gpu surface", "output", l.outputName, "error", err)
		return
	}
	l.canvas.UpdateResolution(physW, physH)
}

// handleFrameCallback consults the power-saving policy, renders when due
// and not paused, and always re-arms the next frame callback so a paused
// layer resumes within one frame of becoming unpaused.
func (e *Engine) handleFrameCallback(b *binding, l *layer) {
	if l.canvas != nil {
		paused, rateOverride := e.powerPolicy()
		if rateOverride != nil {
			l.canvas.SetFrameRateOverride(*rateOverride)
		} else {
			l.canvas.SetFrameRateOverride(0)
		}

		if !paused && l.canvas.ShouldRender() {
			e.renderShaderFrame(l)
		}
	}

	l.surface.Frame(func() { e.handleFrameCallback(b, l) })
	l.surface.Commit()
}

// renderShaderFrame acquires the next surface texture, renders, and
// presents, applying the Lost/Outdated/Timeout/OutOfMemory recovery paths
// on acquisition failure.
func (e *Engine) renderShaderFrame(l *layer) {
	view, result, err := l.gpuSurface.AcquireNextTexture()
	switch result {
	case gpucontext.AcquireOK:
	case gpucontext.AcquireLost, gpucontext.AcquireOutdated:
		e.logger.Warn("engine: surface lost or outdated, reconfiguring", "output", l.outputName, "error", err)
		if cerr := l.gpuSurface.Configure(l.gpuSurface.Width(), l.gpuSurface.Height()); cerr != nil {
			e.logger.Error("engine: failed to reconfigure after lost surface", "output", l.outputName, "error", cerr)
			return
		}
		l.canvas.UpdateResolution(l.gpuSurface.Width(), l.gpuSurface.Height())
		return
	case gpucontext.AcquireTimeout:
		e.logger.Warn("engine: surface acquisition timed out, dropping frame", "output", l.outputName)
		return
	case gpucontext.AcquireOutOfMemory:
		e.logger.Error("engine: surface acquisition out of memory, dropping frame", "output", l.outputName, "error", err)
		return
	default:
		e.logger.Error("engine: surface acquisition failed, dropping frame", "output", l.outputName, "error", err)
		return
	}

	l.canvas.UpdateResolution(l.gpuSurface.Width(), l.gpuSurface.Height())
	if err := l.canvas.Render(view); err != nil {
		e.logger.Error("engine: render failed, dropping frame", "output", l.outputName, "error", err)
		return
	}
	l.gpuSurface.Present()
	l.canvas.MarkFrameRendered()
}

// powerPolicy reports whether shader rendering should currently pause, and
// an optional frame-rate override, from the latest power snapshot and the
// active PowerSavingConfig. pause_on_fullscreen and pause_on_covered carry
// no effect: this build has no window-occlusion source to drive them.
func (e *Engine) powerPolicy() (paused bool, rateOverride *uint8) {
	if e.powerHandle == nil {
		return false, nil
	}
	st := e.powerHandle.Current()
	ps := e.powerSaving

	if ps.PauseOnLidClosed && st.LidIsClosed {
		return true, nil
	}
	if ps.PauseOnLowBattery && st.BatteryPercentage != nil && *st.BatteryPercentage <= float64(ps.LowBatteryThreshold) {
		return true, nil
	}
	if ps.AdjustOnBattery && st.OnBattery {
		if ps.OnBatteryAction.ShouldPause() {
			return true, nil
		}
		if rate, ok := ps.OnBatteryAction.FrameRate(); ok {
			return false, &rate
		}
	}
	return false, nil
}

// drawStaticLayer renders the binding's resolved static source into an
// RGBA image at the layer's logical size, ensures an SHM buffer of the
// matching size exists, converts to the compositor's ARGB8888 byte order,
// and attaches it.
func (e *Engine) drawStaticLayer(b *binding, l *layer) {
	width, height := int(l.logicalWidth), int(l.logicalHeight)
	if width <= 0 || height <= 0 {
		return
	}

	src := b.resolvedSource()
	img, err := wallpaper.Render(src, width, height)
	if err != nil {
		e.logger.Error("engine: failed to render static wallpaper", "output", l.outputName, "error", err)
		return
	}

	if l.buffer == nil || int(l.bufferW) != width || int(l.bufferH) != height {
		if l.buffer != nil {
			l.buffer.Destroy()
			l.buffer = nil
		}
		buf, err := e.reg.CreateBuffer(int32(width), int32(height))
		if err != nil {
			e.logger.Error("engine: failed to allocate shm buffer", "output", l.outputName, "error", err)
			return
		}
		l.buffer = buf
		l.bufferW, l.bufferH = int32(width), int32(height)
	}

	pixels, _, _ := wallpaper.ToRGBAPixels(img)
	copyRGBAToBGRA(l.buffer.Pixels(), pixels)
	l.buffer.AttachTo(l.surface)

	if err := e.store.SaveLastResolved(l.outputName, src); err != nil {
		e.logger.Warn("engine: failed to persist last-resolved source", "output", l.outputName, "error", err)
	}
}

// copyRGBAToBGRA converts image.RGBA's R,G,B,A byte order into wl_shm
// ARGB8888's native-endian in-memory order, B,G,R,A on the little-endian
// hosts this daemon targets.
func copyRGBAToBGRA(dst, src []byte) {
	n := len(src) / 4
	if len(dst)/4 < n {
		n = len(dst) / 4
	}
	for i := 0; i < n; i++ {
		o := i * 4
		dst[o+0] = src[o+2]
		dst[o+1] = src[o+1]
		dst[o+2] = src[o+0]
		dst[o+3] = src[o+3]
	}
}

// applyConfigChanges applies one batch of changed keys as a group: reload
// the config, swap the power-saving policy if it changed, and rebuild the
// wallpaper list once if backgrounds, same_on_all, or any per-output
// override changed (same_on_all is folded into that rebuild via
// collectEntries consulting the current SameOnAll flag).
func (e *Engine) applyConfigChanges(cs config.ChangeSet) {
	rebuildNeeded := false
	powerSavingChanged := false

	for _, key := range cs {
		switch {
		case key == keyDefaultBackground, key == keyBackgrounds, key == keySameOnAll:
			rebuildNeeded = true
		case isPowerSavingKey(key):
			powerSavingChanged = true
		default:
			if _, ok := isOutputKey(key); ok {
				rebuildNeeded = true
			}
		}
	}

	newCfg, err := e.store.Load()
	if err != nil {
		e.logger.Error("engine: failed to reload config", "error", err)
		return
	}
	e.cfg = newCfg
	e.preferLowPower = newCfg.PreferLowPower

	if powerSavingChanged {
		e.powerSaving = newCfg.PowerSaving
	}

	if rebuildNeeded {
		e.rebuildBindings(e.bindings)
	}
}
