// package wlclient binds the subset of libwayland-client, zwlr-layer-shell-v1,
// wp-viewporter, and wp-fractional-scale-v1 the engine needs to put a
// shader or static image on every output's background layer. The
// proxy-map/reflection dispatcher is grounded on
// other_examples/ba2de6f2_dominikh-go-libwayland__wayland.go.go, extended
// from xdg-shell toplevels to layer-shell background surfaces.
package wlclient

// #cgo pkg-config: wayland-client
// #include <stdlib.h>
// #include <wayland-client.h>
// #include "wlr-layer-shell-unstable-v1-client-protocol.h"
// #include "viewporter-client-protocol.h"
// #include "fractional-scale-v1-client-protocol.h"
//
// int glowwall_dispatcher(void *user_data, void *target, uint32_t opcode, struct wl_message *msg, union wl_argument *args);
import "C"

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"time"
	"unicode"
	"unsafe"

	"golang.org/x/sys/unix"
)

//go:generate ./generate_protocols.sh

var (
	compositorInterface           = &C.wl_compositor_interface
	shmInterface                  = &C.wl_shm_interface
	outputInterface                = &C.wl_output_interface
	layerShellInterface           = &C.zwlr_layer_shell_v1_interface
	viewporterInterface           = &C.wp_viewporter_interface
	fractionalScaleManagerInterface = &C.wp_fractional_scale_manager_v1_interface
)

type methodKey struct {
	typ  reflect.Type
	name string
}

// Display owns the libwayland connection and the table of live proxy
// objects the dispatcher resolves incoming events against.
type Display struct {
	hnd     *C.struct_wl_display
	proxies map[*C.struct_wl_proxy]any
	pinner  runtime.Pinner

	methods  map[methodKey]reflect.Method
	callArgs []reflect.Value
	methName []byte
}

// Connect opens a connection to the compositor named by WAYLAND_DISPLAY (or
// the default socket when unset).
func Connect() (*Display, error) {
	hnd, err := C.wl_display_connect(nil)
	if hnd == nil {
		return nil, fmt.Errorf("connect to wayland display: %w", err)
	}
	d := &Display{
		hnd:     hnd,
		proxies: make(map[*C.struct_wl_proxy]any),
		methods: make(map[methodKey]reflect.Method),
	}
	d.pinner.Pin(d)
	return d, nil
}

func (d *Display) Disconnect() {
	if d.hnd == nil {
		return
	}
	C.wl_display_disconnect(d.hnd)
	d.hnd = nil
	d.pinner.Unpin()
}

func (d *Display) Dispatch() error {
	n := C.wl_display_dispatch(d.hnd)
	if n < 0 {
		return fmt.Errorf("wayland display dispatch failed")
	}
	return nil
}

func (d *Display) Roundtrip() error {
	n := C.wl_display_roundtrip(d.hnd)
	if n < 0 {
		return fmt.Errorf("wayland display roundtrip failed")
	}
	return nil
}

// Fd returns the connection's pollable file descriptor (wl_display_get_fd).
func (d *Display) Fd() int {
	return int(C.wl_display_get_fd(d.hnd))
}

// WaitReadable flushes any outgoing requests queued so far (so a pending
// request like ack_configure is never left unsent while this blocks), then
// polls the connection's fd for up to timeout. It reports whether the
// connection became readable before the timeout elapsed, letting a caller
// multiplex this fd with other event sources instead of blocking
// indefinitely inside Dispatch.
func (d *Display) WaitReadable(timeout time.Duration) (bool, error) {
	if C.wl_display_flush(d.hnd) < 0 {
		return false, fmt.Errorf("wayland display flush failed")
	}

	fds := []unix.PollFd{{Fd: int32(d.Fd()), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout.Milliseconds()))
	if err != nil {
		if err == unix.EINTR {
			return false, nil
		}
		return false, fmt.Errorf("poll wayland connection: %w", err)
	}
	return n > 0, nil
}

func (d *Display) getRegistry() *registry {
	reg := &registry{
		dsp: d,
		hnd: C.wl_display_get_registry(d.hnd),
	}
	d.add((*C.struct_wl_proxy)(unsafe.Pointer(reg.hnd)), reg)
	return reg
}

func (d *Display) add(proxy *C.struct_wl_proxy, obj any) {
	d.proxies[proxy] = obj
	C.wl_proxy_add_dispatcher(proxy, (*[0]byte)(C.glowwall_dispatcher), unsafe.Pointer(&d.hnd), nil)
}

func (d *Display) forget(proxy *C.struct_wl_proxy) {
	delete(d.proxies, proxy)
}

type internaler interface {
	internal() any
}

//export glowwall_dispatcher
func glowwall_dispatcher(
	data unsafe.Pointer,
	target unsafe.Pointer,
	opcode uint32,
	msg *C.struct_wl_message,
	args *C.union_wl_argument,
) C.int {
	d := (*Display)(data)
	obj := d.proxies[(*C.struct_wl_proxy)(target)]
	if obj == nil {
		return 0
	}

	n := int(C.strlen(msg.name))
	methNameB := make([]byte, n)
	copy(methNameB, unsafe.Slice((*byte)(unsafe.Pointer(msg.name)), n))
	methNameB[0] = byte(unicode.ToUpper(rune(methNameB[0])))
	methName := string(methNameB)

	var meth reflect.Value
	var recv reflect.Value
	if inter, ok := obj.(internaler); ok {
		internal := inter.internal()
		typ := reflect.TypeOf(internal)
		key := methodKey{typ: typ, name: methName}
		tmeth, ok := d.methods[key]
		if !ok {
			tmeth, ok = typ.MethodByName(methName)
			if !ok {
				return 0
			}
			d.methods[methodKey{typ: typ, name: strings.Clone(methName)}] = tmeth
		}
		meth = tmeth.Func
		recv = reflect.ValueOf(internal)
	} else {
		meth = reflect.ValueOf(obj).Elem().FieldByName("on" + methName)
	}
	if !meth.IsValid() || meth.IsNil() {
		return 0
	}

	sig := C.GoString(msg.signature)
	callArgs := make([]reflect.Value, 0, len(sig)+1)
	i := 0
	if recv.IsValid() {
		callArgs = append(callArgs, recv)
		i++
	}
	for _, c := range sig {
		argIdx := i
		if recv.IsValid() {
			argIdx--
		}
		arg := unsafe.Add(unsafe.Pointer(args), argIdx*int(unsafe.Sizeof(C.union_wl_argument{})))
		switch c {
		case 'i':
			callArgs = append(callArgs, reflect.ValueOf(*(*int32)(arg)).Convert(meth.Type().In(i)))
		case 'u':
			callArgs = append(callArgs, reflect.ValueOf(*(*uint32)(arg)).Convert(meth.Type().In(i)))
		case 's':
			callArgs = append(callArgs, reflect.ValueOf(C.GoString(*(**C.char)(arg))))
		case 'o', 'n':
			callArgs = append(callArgs, reflect.ValueOf(*(*uint32)(arg)).Convert(meth.Type().In(i)))
		case '?':
			continue
		case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			continue
		default:
			continue
		}
		i++
	}
	meth.Call(callArgs)
	return 0
}
