package camera

// Preset names for common webcam resolutions.
const (
	PresetQVGA  = "qvga"  // 320x240, fast cascades on weak boards
	PresetVGA   = "vga"   // 640x480, the tracking default
	Preset720p  = "720p"  // 1280x720
	Preset1080p = "1080p" // 1920x1080
)

// Resolution returns the dimensions for a preset name. ok is false
// when the name is unknown.
func Resolution(preset string) (width, height int, ok bool) {
	switch preset {
	case PresetQVGA:
		return 320, 240, true
	case PresetVGA:
		return 640, 480, true
	case Preset720p:
		return 1280, 720, true
	case Preset1080p:
		return 1920, 1080, true
	}
	return 0, 0, false
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{PresetQVGA, PresetVGA, Preset720p, Preset1080p}
}
