package tracking

import "testing"

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
	if err := SlowConfig().Validate(); err != nil {
		t.Errorf("slow config should validate: %v", err)
	}
	if err := AggressiveConfig().Validate(); err != nil {
		t.Errorf("aggressive config should validate: %v", err)
	}

	bad := DefaultConfig()
	bad.PanChannel = -1
	if err := bad.Validate(); err == nil {
		t.Error("negative channel should be rejected")
	}

	bad = DefaultConfig()
	bad.TiltChannel = bad.PanChannel
	if err := bad.Validate(); err == nil {
		t.Error("shared channel should be rejected")
	}

	bad = DefaultConfig()
	bad.PanSpeed = 1.2
	if err := bad.Validate(); err == nil {
		t.Error("speed above 1 should be rejected")
	}

	bad = DefaultConfig()
	bad.Tolerance = -1
	if err := bad.Validate(); err == nil {
		t.Error("negative tolerance should be rejected")
	}

	bad = DefaultConfig()
	bad.StopAllChannels = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero sweep width should be rejected")
	}
}

func TestPresetsDiffer(t *testing.T) {
	def, slow, fast := DefaultConfig(), SlowConfig(), AggressiveConfig()

	if !(slow.PanSpeed < def.PanSpeed && def.PanSpeed < fast.PanSpeed) {
		t.Errorf("pan speeds should order slow < default < aggressive: %v %v %v",
			slow.PanSpeed, def.PanSpeed, fast.PanSpeed)
	}
	if !(slow.Tolerance > def.Tolerance && def.Tolerance > fast.Tolerance) {
		t.Errorf("dead zones should order slow > default > aggressive: %d %d %d",
			slow.Tolerance, def.Tolerance, fast.Tolerance)
	}
	if fast.MinInterval >= def.MinInterval {
		t.Error("aggressive preset should allow more frequent bursts")
	}
}
