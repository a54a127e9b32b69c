// Package hafas holds the journey data model consumed by the calendar
// transformer, shaped after the JSON produced by hafas-client and db-rest.
//
// Optional fields are pointers or nil slices. Accessor methods apply the
// defaulting rules: an absent delay is a zero delay, absent stopovers are an
// empty list and an absent actual timestamp falls back to the planned one.
package hafas

import "time"

// Mode is the coarse transport mode of a leg.
type Mode string

const (
	ModeTrain      Mode = "train"
	ModeBus        Mode = "bus"
	ModeWatercraft Mode = "watercraft"
	ModeTaxi       Mode = "taxi"
	ModeGondola    Mode = "gondola"
	ModeAircraft   Mode = "aircraft"
	ModeCar        Mode = "car"
	ModeBicycle    Mode = "bicycle"
	ModeWalking    Mode = "walking"
)

// Product is the finer-grained service category of a line.
type Product string

const (
	ProductRegional        Product = "regional"
	ProductRegionalExpress Product = "regionalExpress"
	ProductSuburban        Product = "suburban"
	ProductNational        Product = "national"
	ProductNationalExpress Product = "nationalExpress"
	ProductBus             Product = "bus"
	ProductSubway          Product = "subway"
	ProductTram            Product = "tram"
)

// RemarkType classifies a remark when neither code nor text is recognized.
type RemarkType string

const (
	RemarkHint    RemarkType = "hint"
	RemarkWarning RemarkType = "warning"
	RemarkStatus  RemarkType = "status"
)

// Journey is an ordered sequence of legs.
type Journey struct {
	Type         string `json:"type,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Legs         []Leg  `json:"legs"`
}

// Stop is a station or stop point.
type Stop struct {
	Type string `json:"type,omitempty"`
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type Operator struct {
	Type string `json:"type,omitempty"`
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type Line struct {
	Type        string    `json:"type,omitempty"`
	ID          string    `json:"id,omitempty"`
	FahrtNr     string    `json:"fahrtNr,omitempty"`
	Name        string    `json:"name"`
	Mode        Mode      `json:"mode,omitempty"`
	Product     Product   `json:"product,omitempty"`
	ProductName string    `json:"productName,omitempty"`
	Operator    *Operator `json:"operator,omitempty"`
}

// Remark is an advisory attached to a leg. Every field is optional.
type Remark struct {
	Type    RemarkType `json:"type,omitempty"`
	Code    string     `json:"code,omitempty"`
	Text    string     `json:"text,omitempty"`
	Summary string     `json:"summary,omitempty"`
}

// Stopover is a stop served by a leg. When a leg carries stopovers, the list
// includes the leg's own origin and destination as first and last entries.
type Stopover struct {
	Stop              Stop       `json:"stop"`
	Arrival           *time.Time `json:"arrival"`
	PlannedArrival    *time.Time `json:"plannedArrival,omitempty"`
	ArrivalDelay      *int       `json:"arrivalDelay,omitempty"`
	ArrivalPlatform   *string    `json:"arrivalPlatform,omitempty"`
	Departure         *time.Time `json:"departure"`
	PlannedDeparture  *time.Time `json:"plannedDeparture,omitempty"`
	DepartureDelay    *int       `json:"departureDelay,omitempty"`
	DeparturePlatform *string    `json:"departurePlatform,omitempty"`
	Cancelled         bool       `json:"cancelled,omitempty"`
}

// ArrivalDelaySeconds returns the arrival delay, zero when absent.
func (s Stopover) ArrivalDelaySeconds() int {
	return intOrZero(s.ArrivalDelay)
}

// DepartureDelaySeconds returns the departure delay, zero when absent.
func (s Stopover) DepartureDelaySeconds() int {
	return intOrZero(s.DepartureDelay)
}

// Leg is one uninterrupted movement within a journey.
type Leg struct {
	TripID      string `json:"tripId,omitempty"`
	Origin      Stop   `json:"origin"`
	Destination Stop   `json:"destination"`

	Departure         *time.Time `json:"departure,omitempty"`
	PlannedDeparture  *time.Time `json:"plannedDeparture,omitempty"`
	DepartureDelay    *int       `json:"departureDelay,omitempty"`
	DeparturePlatform *string    `json:"departurePlatform,omitempty"`

	Arrival         *time.Time `json:"arrival,omitempty"`
	PlannedArrival  *time.Time `json:"plannedArrival,omitempty"`
	ArrivalDelay    *int       `json:"arrivalDelay,omitempty"`
	ArrivalPlatform *string    `json:"arrivalPlatform,omitempty"`

	Mode      Mode       `json:"mode,omitempty"`
	Line      *Line      `json:"line,omitempty"`
	Cancelled bool       `json:"cancelled,omitempty"`
	Walking   bool       `json:"walking,omitempty"`
	Stopovers []Stopover `json:"stopovers,omitempty"`
	Remarks   []Remark   `json:"remarks,omitempty"`
}

// DepartureTime returns the actual departure, or the planned one when the
// actual time is absent. ok is false when neither is known.
func (l Leg) DepartureTime() (t time.Time, ok bool) {
	return firstTime(l.Departure, l.PlannedDeparture)
}

// ArrivalTime returns the actual arrival, or the planned one when the actual
// time is absent. ok is false when neither is known.
func (l Leg) ArrivalTime() (t time.Time, ok bool) {
	return firstTime(l.Arrival, l.PlannedArrival)
}

// DepartureDelaySeconds returns the departure delay, zero when absent.
func (l Leg) DepartureDelaySeconds() int {
	return intOrZero(l.DepartureDelay)
}

// ArrivalDelaySeconds returns the arrival delay, zero when absent.
func (l Leg) ArrivalDelaySeconds() int {
	return intOrZero(l.ArrivalDelay)
}

// Product returns line.product, or "" when the leg has no line.
func (l Leg) Product() Product {
	if l.Line == nil {
		return ""
	}
	return l.Line.Product
}

// LineName returns line.name, or "" when the leg has no line.
func (l Leg) LineName() string {
	if l.Line == nil {
		return ""
	}
	return l.Line.Name
}

// OperatorName returns line.operator.name, or "" when either is absent.
func (l Leg) OperatorName() string {
	if l.Line == nil || l.Line.Operator == nil {
		return ""
	}
	return l.Line.Operator.Name
}

// IsTransfer reports whether the leg is a walk or bike ride between two
// transit legs. Such legs never become calendar events.
func (l Leg) IsTransfer() bool {
	return l.Mode == ModeWalking || l.Mode == ModeBicycle || l.Walking
}

func firstTime(candidates ...*time.Time) (time.Time, bool) {
	for _, c := range candidates {
		if c != nil && !c.IsZero() {
			return *c, true
		}
	}
	return time.Time{}, false
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// StringPtr and IntPtr help build optional fields in fixtures and tests.
func StringPtr(s string) *string { return &s }

func IntPtr(i int) *int { return &i }

func TimePtr(t time.Time) *time.Time { return &t }
