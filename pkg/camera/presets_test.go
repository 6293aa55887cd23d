package camera

import "testing"

func TestResolutionPresets(t *testing.T) {
	cases := []struct {
		preset string
		width  int
		height int
	}{
		{PresetQVGA, 320, 240},
		{PresetVGA, 640, 480},
		{Preset720p, 1280, 720},
		{Preset1080p, 1920, 1080},
	}
	for _, tc := range cases {
		w, h, ok := Resolution(tc.preset)
		if !ok {
			t.Errorf("Resolution(%q) not found", tc.preset)
			continue
		}
		if w != tc.width || h != tc.height {
			t.Errorf("Resolution(%q) = %dx%d, want %dx%d", tc.preset, w, h, tc.width, tc.height)
		}
	}

	if _, _, ok := Resolution("8k"); ok {
		t.Error("Resolution(\"8k\") should not exist")
	}

	if len(PresetNames()) != len(cases) {
		t.Errorf("PresetNames() lists %d presets, want %d", len(PresetNames()), len(cases))
	}
}
