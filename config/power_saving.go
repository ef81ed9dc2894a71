package config

// OnBatteryAction selects the effect applied to animated layers while the
// system is on battery power.
type OnBatteryAction int

const (
	ActionNothing OnBatteryAction = iota
	ActionPause
	ActionReduceTo15Fps
	ActionReduceTo10Fps
	ActionReduceTo5Fps
)

// FrameRate returns the override frame rate for this action, and whether
// one applies. Pause and Nothing return (0, false).
func (a OnBatteryAction) FrameRate() (uint8, bool) {
	switch a {
	case ActionReduceTo15Fps:
		return 15, true
	case ActionReduceTo10Fps:
		return 10, true
	case ActionReduceTo5Fps:
		return 5, true
	default:
		return 0, false
	}
}

// ShouldPause reports whether this action pauses the animation entirely.
func (a OnBatteryAction) ShouldPause() bool {
	return a == ActionPause
}

// IsNothing reports whether this action leaves rendering unaffected.
func (a OnBatteryAction) IsNothing() bool {
	return a == ActionNothing
}

// PowerSavingConfig holds the policy knobs the engine consults when
// deciding whether a shader layer should render, pause, or render at a
// reduced rate.
type PowerSavingConfig struct {
	PauseOnFullscreen   bool
	PauseOnCovered      bool
	CoverageThreshold   uint8
	AdjustOnBattery     bool
	OnBatteryAction     OnBatteryAction
	PauseOnLowBattery   bool
	LowBatteryThreshold uint8
	PauseOnLidClosed    bool
}

// DefaultPowerSavingConfig returns the documented defaults: low-battery and
// lid-closed pausing opt-in by default, everything else opt-out.
func DefaultPowerSavingConfig() PowerSavingConfig {
	return PowerSavingConfig{
		CoverageThreshold:   90,
		OnBatteryAction:     ActionPause,
		PauseOnLowBattery:   true,
		LowBatteryThreshold: 20,
		PauseOnLidClosed:    true,
	}
}

// Power-saving config keys, one per PowerSavingConfig field.
const (
	KeyPauseOnFullscreen   = "pause-on-fullscreen"
	KeyPauseOnCovered      = "pause-on-covered"
	KeyCoverageThreshold   = "coverage-threshold"
	KeyAdjustOnBattery     = "adjust-on-battery"
	KeyOnBatteryAction     = "on-battery-action"
	KeyPauseOnLowBattery   = "pause-on-low-battery"
	KeyLowBatteryThreshold = "low-battery-threshold"
	KeyPauseOnLidClosed    = "pause-on-lid-closed"
)

// PauseOnFullscreen returns the current pause-on-fullscreen setting.
func (s *Store) PauseOnFullscreen() bool {
	return s.getBool(KeyPauseOnFullscreen, false)
}

// SetPauseOnFullscreen sets the pause-on-fullscreen setting.
func (s *Store) SetPauseOnFullscreen(v bool) error {
	return s.setBool(KeyPauseOnFullscreen, v)
}

// PauseOnCovered returns the current pause-on-covered setting.
func (s *Store) PauseOnCovered() bool {
	return s.getBool(KeyPauseOnCovered, false)
}

// SetPauseOnCovered sets the pause-on-covered setting.
func (s *Store) SetPauseOnCovered(v bool) error {
	return s.setBool(KeyPauseOnCovered, v)
}

// CoverageThreshold returns the current coverage-threshold setting.
func (s *Store) CoverageThreshold() uint8 {
	return s.getUint8(KeyCoverageThreshold, 90)
}

// SetCoverageThreshold sets the coverage-threshold setting.
func (s *Store) SetCoverageThreshold(v uint8) error {
	return s.setUint8(KeyCoverageThreshold, v)
}

// AdjustOnBattery returns the current adjust-on-battery setting.
func (s *Store) AdjustOnBattery() bool {
	return s.getBool(KeyAdjustOnBattery, false)
}

// SetAdjustOnBattery sets the adjust-on-battery setting.
func (s *Store) SetAdjustOnBattery(v bool) error {
	return s.setBool(KeyAdjustOnBattery, v)
}

// OnBatteryActionSetting returns the current on-battery-action setting.
func (s *Store) OnBatteryActionSetting() OnBatteryAction {
	return OnBatteryAction(s.getUint8(KeyOnBatteryAction, uint8(ActionPause)))
}

// SetOnBatteryAction sets the on-battery-action setting.
func (s *Store) SetOnBatteryAction(v OnBatteryAction) error {
	return s.setUint8(KeyOnBatteryAction, uint8(v))
}

// PauseOnLowBattery returns the current pause-on-low-battery setting.
func (s *Store) PauseOnLowBattery() bool {
	return s.getBool(KeyPauseOnLowBattery, true)
}

// SetPauseOnLowBattery sets the pause-on-low-battery setting.
func (s *Store) SetPauseOnLowBattery(v bool) error {
	return s.setBool(KeyPauseOnLowBattery, v)
}

// LowBatteryThreshold returns the current low-battery-threshold setting.
func (s *Store) LowBatteryThreshold() uint8 {
	return s.getUint8(KeyLowBatteryThreshold, 20)
}

// SetLowBatteryThreshold sets the low-battery-threshold setting.
func (s *Store) SetLowBatteryThreshold(v uint8) error {
	return s.setUint8(KeyLowBatteryThreshold, v)
}

// PauseOnLidClosed returns the current pause-on-lid-closed setting.
func (s *Store) PauseOnLidClosed() bool {
	return s.getBool(KeyPauseOnLidClosed, true)
}

// SetPauseOnLidClosed sets the pause-on-lid-closed setting.
func (s *Store) SetPauseOnLidClosed(v bool) error {
	return s.setBool(KeyPauseOnLidClosed, v)
}

// LoadPowerSaving reads the full power-saving config in one call, for
// callers that don't need the read-modify-write granularity of the per-key
// accessors above.
func (s *Store) LoadPowerSaving() PowerSavingConfig {
	return PowerSavingConfig{
		PauseOnFullscreen:   s.PauseOnFullscreen(),
		PauseOnCovered:      s.PauseOnCovered(),
		CoverageThreshold:   s.CoverageThreshold(),
		AdjustOnBattery:     s.AdjustOnBattery(),
		OnBatteryAction:     s.OnBatteryActionSetting(),
		PauseOnLowBattery:   s.PauseOnLowBattery(),
		LowBatteryThreshold: s.LowBatteryThreshold(),
		PauseOnLidClosed:    s.PauseOnLidClosed(),
	}
}

// SavePowerSaving writes every field of cfg. Keys are written in struct
// order; a failure partway through leaves earlier keys written.
func (s *Store) SavePowerSaving(cfg PowerSavingConfig) error {
	if err := s.SetPauseOnFullscreen(cfg.PauseOnFullscreen); err != nil {
		return err
	}
	if err := s.SetPauseOnCovered(cfg.PauseOnCovered); err != nil {
		return err
	}
	if err := s.SetCoverageThreshold(cfg.CoverageThreshold); err != nil {
		return err
	}
	if err := s.SetAdjustOnBattery(cfg.AdjustOnBattery); err != nil {
		return err
	}
	if err := s.SetOnBatteryAction(cfg.OnBatteryAction); err != nil {
		return err
	}
	if err := s.SetPauseOnLowBattery(cfg.PauseOnLowBattery); err != nil {
		return err
	}
	if err := s.SetLowBatteryThreshold(cfg.LowBatteryThreshold); err != nil {
		return err
	}
	return s.SetPauseOnLidClosed(cfg.PauseOnLidClosed)
}
