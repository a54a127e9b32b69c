package format

import "trainics/internal/hafas"

const (
	GlyphTrain           = "🚆"
	GlyphBus             = "🚌"
	GlyphNational        = "🚄"
	GlyphNationalExpress = "🚅"
	GlyphSubway          = "🚇"
	GlyphTram            = "🚊"
	GlyphWatercraft      = "🚢"
	GlyphTaxi            = "🚕"
	GlyphGondola         = "🚡"
	GlyphAircraft        = "✈️"
	GlyphCar             = "🚗"
	GlyphBicycle         = "🚲"
	GlyphWalking         = "🚶"
	GlyphCancelled       = "⛔"
)

// CancelledBanner opens the description of a cancelled leg.
const CancelledBanner = "🚨🚨 Achtung! Zug fällt aus! 🚨🚨\n\n"

var productGlyphs = map[hafas.Product]string{
	hafas.ProductBus:             GlyphBus,
	hafas.ProductNational:        GlyphNational,
	hafas.ProductNationalExpress: GlyphNationalExpress,
	hafas.ProductSubway:          GlyphSubway,
	hafas.ProductTram:            GlyphTram,
}

var modeGlyphs = map[hafas.Mode]string{
	hafas.ModeTrain:      GlyphTrain,
	hafas.ModeBus:        GlyphBus,
	hafas.ModeWatercraft: GlyphWatercraft,
	hafas.ModeTaxi:       GlyphTaxi,
	hafas.ModeGondola:    GlyphGondola,
	hafas.ModeAircraft:   GlyphAircraft,
	hafas.ModeCar:        GlyphCar,
	hafas.ModeBicycle:    GlyphBicycle,
	hafas.ModeWalking:    GlyphWalking,
}

// ModeGlyph picks the glyph for a leg. The line's product wins over the
// coarse mode; anything unknown is drawn as a train.
func ModeGlyph(leg hafas.Leg) string {
	if g, ok := productGlyphs[leg.Product()]; ok {
		return g
	}
	if g, ok := modeGlyphs[leg.Mode]; ok {
		return g
	}
	return GlyphTrain
}

func CancelledGlyph(leg hafas.Leg) string {
	if leg.Cancelled {
		return GlyphCancelled
	}
	return ""
}

func CancelledText(leg hafas.Leg) string {
	if leg.Cancelled {
		return CancelledBanner
	}
	return ""
}

// Platform renders " (Gl. <platform>)" or "" when the platform is unknown.
func Platform(platform *string) string {
	if platform == nil || *platform == "" {
		return ""
	}
	return " (Gl. " + *platform + ")"
}
