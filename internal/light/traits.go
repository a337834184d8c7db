package light

// Traits describes what an output can display.
type Traits struct {
	Modes     []ColorMode
	MinMireds float64
	MaxMireds float64
}

// Supports reports whether the output accepts the given mode.
func (t Traits) Supports(mode ColorMode) bool {
	for _, m := range t.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// Mireds converts a normalized color temperature to mireds.
func (t Traits) Mireds(ct float64) float64 {
	return t.MinMireds + clamp01(ct)*(t.MaxMireds-t.MinMireds)
}

// Normalize converts mireds to [0,1], clamping to the supported range.
func (t Traits) Normalize(mireds float64) float64 {
	span := t.MaxMireds - t.MinMireds
	if span <= 0 {
		return 0
	}
	return clamp01((mireds - t.MinMireds) / span)
}

// ClampMireds limits mireds to the supported range.
func (t Traits) ClampMireds(mireds float64) float64 {
	if mireds < t.MinMireds {
		return t.MinMireds
	}
	if mireds > t.MaxMireds {
		return t.MaxMireds
	}
	return mireds
}
