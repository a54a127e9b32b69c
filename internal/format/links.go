package format

import (
	"net/url"
	"strings"
	"time"

	"trainics/internal/hafas"
)

const (
	traewellingBaseURL = "https://traewelling.de/trains/trip?"
	travelynxBaseURL   = "https://travelynx.de/s/"
	marudorBaseURL     = "https://marudor.de/api/hafas/v1/detailsRedirect/"
)

// Links selects which deep links are appended to an event description.
type Links struct {
	// Traewelling adds a Träwelling check-in link.
	Traewelling bool `yaml:"traewelling" json:"traewelling"`
	// Travelynx adds a travelynx check-in link.
	Travelynx bool `yaml:"travelynx" json:"travelynx"`
	// Marudor adds a marudor.de details link for long-distance and regional rail.
	Marudor bool `yaml:"marudor" json:"marudor"`
}

// Text concatenates the enabled links in their fixed order.
func (l Links) Text(leg hafas.Leg) string {
	var b strings.Builder
	if l.Traewelling {
		b.WriteString(TraewellingLink(leg))
	}
	if l.Travelynx {
		b.WriteString(TravelynxLink(leg))
	}
	if l.Marudor {
		b.WriteString(MarudorLink(leg))
	}
	return b.String()
}

// marudorProducts are the products marudor.de offers details for.
var marudorProducts = map[hafas.Product]bool{
	hafas.ProductNational:        true,
	hafas.ProductNationalExpress: true,
	hafas.ProductRegional:        true,
	hafas.ProductRegionalExpress: true,
	hafas.ProductSuburban:        true,
}

func TraewellingLink(leg hafas.Leg) string {
	departure := ""
	if t, ok := leg.DepartureTime(); ok {
		departure = t.Format(time.RFC3339)
	}

	// Insertion order; url.Values would sort the keys.
	query := orderedQuery(
		"tripID", leg.TripID,
		"lineName", leg.LineName(),
		"start", leg.Origin.ID,
		"departure", departure,
	)
	return "\n\nTräwelling-Check In: " + traewellingBaseURL + query
}

func TravelynxLink(leg hafas.Leg) string {
	train := ""
	if leg.Line != nil {
		train = leg.Line.ProductName + " " + leg.Line.FahrtNr
	}
	return "\n\nTravelynx-Link: " + travelynxBaseURL + leg.Origin.ID + "?train=" + escapeComponent(train)
}

// MarudorLink renders nothing for products marudor.de has no details for.
func MarudorLink(leg hafas.Leg) string {
	if !marudorProducts[leg.Product()] {
		return ""
	}
	return "\n\nMarudor-Link: " + marudorBaseURL + escapeComponent(leg.TripID)
}

func orderedQuery(kv ...string) string {
	pairs := make([]string, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, url.QueryEscape(kv[i])+"="+url.QueryEscape(kv[i+1]))
	}
	return strings.Join(pairs, "&")
}

// escapeComponent percent-encodes s for use inside a path or query value,
// spaces included.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
