package flight

import "net/http"

type ErrorCode string

const (
	ErrorCodeInternalFailure ErrorCode = "INTERNAL_FAILURE"
	ErrorCodeUnavailable     ErrorCode = "UNAVAILABLE"
)

type AppError struct {
	Status  int       `json:"-"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"error"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newInternalError(message string, err error) *AppError {
	return &AppError{
		Status:  http.StatusInternalServerError,
		Code:    ErrorCodeInternalFailure,
		Message: message,
		Err:     err,
	}
}

// Fallbacks written in place of missing upstream fields.
const (
	DefaultAirportName     = "Unknown"
	DefaultAirportIATA     = "XXX"
	DefaultAirportICAO     = "XXXX"
	DefaultAirportTimezone = "UTC"

	DefaultAirlineName = "Unknown Airline"
	DefaultAirlineIATA = "XX"
	DefaultAirlineICAO = "XXX"

	DefaultFlightNumber = "0000"
	DefaultFlightIATA   = "XX000"
	DefaultFlightICAO   = "XXX000"

	DefaultTerminal = "Unknown"
	DefaultDelay    = 0
)

// Record is one flight as delivered by the upstream source. Nested
// sections the source omitted or sent as null are nil.
type Record struct {
	FlightDate   string
	FlightStatus string
	Airline      *AirlineData
	Departure    *Endpoint
	Arrival      *Endpoint
	Flight       FlightData
}

type AirlineData struct {
	Name string
	IATA string
	ICAO string
}

type AirportData struct {
	Name     string
	IATA     string
	ICAO     string
	Timezone string
}

// Endpoint is the departure or arrival side of a flight. It carries both
// the airport identity and the per-flight detail columns.
type Endpoint struct {
	Airport   string
	Timezone  string
	IATA      string
	ICAO      string
	Terminal  string
	Gate      string
	Baggage   string
	Delay     *int
	Scheduled string
	Estimated string
	Actual    string
}

type FlightData struct {
	Number     string
	IATA       string
	ICAO       string
	Codeshared *CodeshareData
}

type CodeshareData struct {
	AirlineName  string
	AirlineIATA  string
	AirlineICAO  string
	FlightNumber string
	FlightIATA   string
	FlightICAO   string
}

// FlightSummary is one row of the recent-flights listing.
type FlightSummary struct {
	ID           int64   `json:"id"`
	FlightDate   *string `json:"flight_date"`
	FlightStatus *string `json:"flight_status"`
	FlightNumber string  `json:"flight_number"`
	IATACode     string  `json:"iata_code"`
	ICAOCode     string  `json:"icao_code"`
	AirlineName  *string `json:"airline_name"`
	AirlineIATA  *string `json:"airline_iata"`
}

// ImportStats counts the rows written by one committed batch.
type ImportStats struct {
	Flights    int `json:"flights"`
	Departures int `json:"departures"`
	Arrivals   int `json:"arrivals"`
	Codeshares int `json:"codeshares"`
	Skipped    int `json:"skipped"`
}

// ImportResult describes one fetch+import run.
type ImportResult struct {
	BatchID   int64
	Fetched   int
	Committed bool
	Stats     ImportStats
	Err       error
}

func (a *AirlineData) withDefaults() AirlineData {
	return AirlineData{
		Name: orDefault(a.Name, DefaultAirlineName),
		IATA: orDefault(a.IATA, DefaultAirlineIATA),
		ICAO: orDefault(a.ICAO, DefaultAirlineICAO),
	}
}

func (a *AirportData) withDefaults() AirportData {
	return AirportData{
		Name:     orDefault(a.Name, DefaultAirportName),
		IATA:     orDefault(a.IATA, DefaultAirportIATA),
		ICAO:     orDefault(a.ICAO, DefaultAirportICAO),
		Timezone: orDefault(a.Timezone, DefaultAirportTimezone),
	}
}

// AirportData returns the airport identity of the endpoint, nil when the
// endpoint itself is missing.
func (e *Endpoint) AirportData() *AirportData {
	if e == nil {
		return nil
	}
	return &AirportData{
		Name:     e.Airport,
		IATA:     e.IATA,
		ICAO:     e.ICAO,
		Timezone: e.Timezone,
	}
}

func (c *CodeshareData) airline() *AirlineData {
	return &AirlineData{
		Name: c.AirlineName,
		IATA: c.AirlineIATA,
		ICAO: c.AirlineICAO,
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// nullIfEmpty maps "" to SQL NULL.
func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func delayOrDefault(delay *int) int {
	if delay == nil {
		return DefaultDelay
	}
	return *delay
}
