package model

import "math/rand/v2"

// Surprises is the fixed list of sample prompts used by "surprise me"
var Surprises = []string{
	"a cyberpunk city street with neon reflections after rain, cinematic, 35mm, moody, fog",
	"a cozy reading nook with a huge window, golden hour sunlight, soft focus, film grain",
	"isometric pixel art coffee shop interior, warm lighting, tiny characters, wholesome",
	"a dragon made of galaxies soaring over mountains, long exposure, astrophotography vibe",
	"retro 3D render of a cassette player on a checkerboard floor, soft studio light",
}

// PickSurprise returns a random sample prompt. intn may be nil to use math/rand.
func PickSurprise(intn func(int) int) string {
	if intn == nil {
		intn = rand.IntN
	}
	return Surprises[intn(len(Surprises))]
}

// DefaultStyles maps preset names to the suffix appended to the prompt
var DefaultStyles = map[string]string{
	"none":      "",
	"photo":     ", photorealistic, 35mm, natural light, high detail",
	"anime":     ", anime style, cel shading, vibrant colors",
	"cinematic": ", cinematic lighting, dramatic, film still",
	"pixel":     ", pixel art, 16-bit, crisp edges",
}

// ResolveStyle returns the suffix for a preset name. Values that are not preset
// names are used as the suffix verbatim.
func ResolveStyle(styles map[string]string, value string) string {
	if suffix, ok := styles[value]; ok {
		return suffix
	}
	if suffix, ok := DefaultStyles[value]; ok {
		return suffix
	}
	return value
}
