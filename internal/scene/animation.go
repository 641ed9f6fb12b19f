package scene

import (
	"fmt"
	"sort"
)

// Keyframe interpolation modes.
const (
	InterpLinear = "linear"
	InterpEase   = "ease"
)

// Keyframe is a pre-baked transform at a scene frame. Nil channels are not
// keyed at this frame.
type Keyframe struct {
	Frame         int    `yaml:"frame"`
	Location      *Vec3  `yaml:"location,flow,omitempty"`
	Rotation      *Vec3  `yaml:"rotation,flow,omitempty"`
	Scale         *Vec3  `yaml:"scale,flow,omitempty"`
	Interpolation string `yaml:"interpolation,omitempty"` // toward the next key
}

func (k Keyframe) validate() error {
	switch k.Interpolation {
	case "", InterpLinear, InterpEase:
		return nil
	default:
		return fmt.Errorf("keyframe %d: unknown interpolation %q", k.Frame, k.Interpolation)
	}
}

// evaluate returns location, rotation and scale at frame. Channels without
// keys keep their base value.
func evaluate(keys []Keyframe, frame int, loc, rot, scale Vec3) (Vec3, Vec3, Vec3) {
	if len(keys) == 0 {
		return loc, rot, scale
	}
	sorted := make([]Keyframe, len(keys))
	copy(sorted, keys)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Frame < sorted[j].Frame })

	loc = sampleChannel(sorted, frame, loc, func(k Keyframe) *Vec3 { return k.Location })
	rot = sampleChannel(sorted, frame, rot, func(k Keyframe) *Vec3 { return k.Rotation })
	scale = sampleChannel(sorted, frame, scale, func(k Keyframe) *Vec3 { return k.Scale })
	return loc, rot, scale
}

// sampleChannel interpolates one channel between the keys that set it.
// Before the first key and after the last one the nearest key holds.
func sampleChannel(keys []Keyframe, frame int, base Vec3, get func(Keyframe) *Vec3) Vec3 {
	var keyed []Keyframe
	for _, k := range keys {
		if get(k) != nil {
			keyed = append(keyed, k)
		}
	}
	if len(keyed) == 0 {
		return base
	}

	first, last := keyed[0], keyed[len(keyed)-1]
	if frame <= first.Frame {
		return *get(first)
	}
	if frame >= last.Frame {
		return *get(last)
	}

	var prev, next Keyframe
	for i := 0; i < len(keyed)-1; i++ {
		if frame >= keyed[i].Frame && frame < keyed[i+1].Frame {
			prev, next = keyed[i], keyed[i+1]
			break
		}
	}

	span := float64(next.Frame - prev.Frame)
	if span == 0 {
		return *get(next)
	}
	t := float64(frame-prev.Frame) / span
	if prev.Interpolation == InterpEase {
		t = easeInOutCubic(t)
	}

	a, b := *get(prev), *get(next)
	return Vec3{lerp(a[0], b[0], t), lerp(a[1], b[1], t), lerp(a[2], b[2], t)}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}
