package power

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	upowerService        = "org.freedesktop.UPower"
	upowerPath           = dbus.ObjectPath("/org/freedesktop/UPower")
	upowerInterface      = "org.freedesktop.UPower"
	upowerDeviceInterface = "org.freedesktop.UPower.Device"
	propertiesInterface   = "org.freedesktop.DBus.Properties"
)

// upowerConn wraps a system-bus connection scoped to the UPower service and,
// once resolved, its display device (the aggregate battery).
type upowerConn struct {
	conn        *dbus.Conn
	upower      dbus.BusObject
	displayPath dbus.ObjectPath
	display     dbus.BusObject
}

func connectUPower(ctx context.Context) (*upowerConn, error) {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}

	upower := conn.Object(upowerService, upowerPath)

	var displayPath dbus.ObjectPath
	if err := upower.CallWithContext(ctx, upowerInterface+".GetDisplayDevice", 0).Store(&displayPath); err != nil {
		conn.Close()
		return nil, fmt.Errorf("get display device: %w", err)
	}

	return &upowerConn{
		conn:        conn,
		upower:      upower,
		displayPath: displayPath,
		display:     conn.Object(upowerService, displayPath),
	}, nil
}

func (u *upowerConn) close() {
	u.conn.Close()
}

func (u *upowerConn) snapshot(ctx context.Context) (State, error) {
	onBattery, err := u.boolProperty(ctx, u.upower, upowerInterface, "OnBattery")
	if err != nil {
		onBattery = false
	}

	lidClosed, err := u.boolProperty(ctx, u.upower, upowerInterface, "LidIsClosed")
	if err != nil {
		lidClosed = false
	}

	var percentage *float64
	if v, err := u.float64Property(ctx, u.display, upowerDeviceInterface, "Percentage"); err == nil {
		percentage = &v
	}

	return State{
		OnBattery:         onBattery,
		BatteryPercentage: percentage,
		LidIsClosed:       lidClosed,
	}, nil
}

func (u *upowerConn) boolProperty(ctx context.Context, obj dbus.BusObject, iface, name string) (bool, error) {
	v, err := obj.GetProperty(iface + "." + name)
	if err != nil {
		return false, err
	}
	b, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("property %s.%s is not a bool", iface, name)
	}
	return b, nil
}

func (u *upowerConn) float64Property(ctx context.Context, obj dbus.BusObject, iface, name string) (float64, error) {
	v, err := obj.GetProperty(iface + "." + name)
	if err != nil {
		return 0, err
	}
	f, ok := v.Value().(float64)
	if !ok {
		return 0, fmt.Errorf("property %s.%s is not a float64", iface, name)
	}
	return f, nil
}

// watch subscribes to PropertiesChanged on both the UPower object and its
// display device, folds each change into a running State, and pushes the
// full snapshot on every update. It runs until ctx is cancelled or the
// signal channel closes.
func (u *upowerConn) watch(ctx context.Context, out chan<- State, logger *slog.Logger) {
	defer close(out)

	if err := u.conn.AddMatchSignalContext(ctx,
		dbus.WithMatchInterface(propertiesInterface),
		dbus.WithMatchObjectPath(upowerPath),
	); err != nil {
		logger.Warn("power monitor: failed to subscribe to UPower signals", "error", err)
		return
	}
	if err := u.conn.AddMatchSignalContext(ctx,
		dbus.WithMatchInterface(propertiesInterface),
		dbus.WithMatchObjectPath(u.displayPath),
	); err != nil {
		logger.Warn("power monitor: failed to subscribe to display device signals", "error", err)
		return
	}

	signals := make(chan *dbus.Signal, 16)
	u.conn.Signal(signals)
	defer u.conn.RemoveSignal(signals)

	state, err := u.snapshot(ctx)
	if err != nil {
		state = State{}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-signals:
			if !ok {
				return
			}
			if sig.Name != propertiesInterface+".PropertiesChanged" {
				continue
			}
			changed, ok := parsePropertiesChanged(sig)
			if !ok {
				continue
			}

			updated := false
			switch sig.Path {
			case upowerPath:
				if v, ok := changed["OnBattery"].(bool); ok {
					state.OnBattery = v
					updated = true
				}
				if v, ok := changed["LidIsClosed"].(bool); ok {
					state.LidIsClosed = v
					updated = true
				}
			case u.displayPath:
				if v, ok := changed["Percentage"].(float64); ok {
					p := v
					state.BatteryPercentage = &p
					updated = true
				}
			}

			if updated {
				out <- state
			}
		}
	}
}

// parsePropertiesChanged extracts the changed-properties map from a
// PropertiesChanged signal body, which is (interface string, changed
// map[string]dbus.Variant, invalidated []string).
func parsePropertiesChanged(sig *dbus.Signal) (map[string]interface{}, bool) {
	if len(sig.Body) < 2 {
		return nil, false
	}
	raw, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return nil, false
	}
	out := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		out[k] = v.Value()
	}
	return out, true
}
