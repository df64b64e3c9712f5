package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

const maxLimit = 100

type Response struct {
	Pagination *Pagination `json:"pagination,omitempty"`
	Data       []Flight    `json:"data,omitempty"`
	Error      *Error      `json:"error,omitempty"`
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
	Total  int `json:"total"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Flight struct {
	FlightDate   string    `json:"flight_date"`
	FlightStatus string    `json:"flight_status"`
	Departure    *Endpoint `json:"departure"`
	Arrival      *Endpoint `json:"arrival"`
	Airline      *Airline  `json:"airline"`
	Flight       FlightID  `json:"flight"`
}

type Endpoint struct {
	Airport   string  `json:"airport"`
	Timezone  string  `json:"timezone"`
	IATA      string  `json:"iata"`
	ICAO      string  `json:"icao"`
	Terminal  *string `json:"terminal"`
	Gate      *string `json:"gate"`
	Baggage   *string `json:"baggage,omitempty"`
	Delay     *int    `json:"delay"`
	Scheduled string  `json:"scheduled"`
	Estimated string  `json:"estimated"`
	Actual    *string `json:"actual"`
}

type Airline struct {
	Name string `json:"name"`
	IATA string `json:"iata"`
	ICAO string `json:"icao"`
}

type FlightID struct {
	Number     string     `json:"number"`
	IATA       string     `json:"iata"`
	ICAO       string     `json:"icao"`
	Codeshared *Codeshare `json:"codeshared"`
}

type Codeshare struct {
	AirlineName  string `json:"airline_name"`
	AirlineIATA  string `json:"airline_iata"`
	AirlineICAO  string `json:"airline_icao"`
	FlightNumber string `json:"flight_number"`
	FlightIATA   string `json:"flight_iata"`
	FlightICAO   string `json:"flight_icao"`
}

type airport struct {
	name, timezone, iata, icao string
}

var airlines = []Airline{
	{Name: "American Airlines", IATA: "AA", ICAO: "AAL"},
	{Name: "British Airways", IATA: "BA", ICAO: "BAW"},
	{Name: "Garuda Indonesia", IATA: "GA", ICAO: "GIA"},
	{Name: "Lufthansa", IATA: "LH", ICAO: "DLH"},
	{Name: "AirAsia", IATA: "AK", ICAO: "AXM"},
}

var airports = []airport{
	{"San Francisco International", "America/Los_Angeles", "SFO", "KSFO"},
	{"Dallas/Fort Worth International", "America/Chicago", "DFW", "KDFW"},
	{"Heathrow", "Europe/London", "LHR", "EGLL"},
	{"Soekarno-Hatta International", "Asia/Jakarta", "CGK", "WIII"},
	{"Frankfurt am Main", "Europe/Berlin", "FRA", "EDDF"},
	{"Kuala Lumpur International", "Asia/Kuala_Lumpur", "KUL", "WMKK"},
}

var statuses = []string{"scheduled", "active", "landed", "cancelled", "incident", "diverted"}

// NewAviationStackHandler serves a randomized /v1/flights page. Requests
// without the expected access_key get the provider's error object.
func NewAviationStackHandler(accessKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		if r.URL.Query().Get("access_key") != accessKey {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(Response{Error: &Error{
				Code:    "invalid_access_key",
				Message: "You have not supplied a valid API Access Key.",
			}})
			return
		}

		limit := maxLimit
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v >= 0 && v < maxLimit {
			limit = v
		}

		flights := make([]Flight, 0, limit)
		for i := 0; i < limit; i++ {
			flights = append(flights, randomFlight())
		}

		delay := 50 + rand.Intn(51) // 50 to 100ms
		time.Sleep(time.Duration(delay) * time.Millisecond)

		json.NewEncoder(w).Encode(Response{
			Pagination: &Pagination{Limit: limit, Count: len(flights), Total: len(flights)},
			Data:       flights,
		})
	}
}

func randomFlight() Flight {
	airline := airlines[rand.Intn(len(airlines))]
	dep := airports[rand.Intn(len(airports))]
	arr := airports[rand.Intn(len(airports))]

	scheduled := time.Now().UTC().Add(time.Duration(rand.Intn(48)-24) * time.Hour).Truncate(5 * time.Minute)
	number := strconv.Itoa(100 + rand.Intn(9000))

	f := Flight{
		FlightDate:   scheduled.Format("2006-01-02"),
		FlightStatus: statuses[rand.Intn(len(statuses))],
		Departure:    endpoint(dep, scheduled),
		Arrival:      endpoint(arr, scheduled.Add(time.Duration(1+rand.Intn(12))*time.Hour)),
		Airline:      &airline,
		Flight: FlightID{
			Number: number,
			IATA:   airline.IATA + number,
			ICAO:   airline.ICAO + number,
		},
	}

	// A share of flights carry a codeshare or miss sections entirely.
	switch rand.Intn(10) {
	case 0:
		f.Departure = nil
	case 1:
		f.Airline = nil
	case 2, 3:
		partner := airlines[rand.Intn(len(airlines))]
		csNumber := strconv.Itoa(1000 + rand.Intn(9000))
		f.Flight.Codeshared = &Codeshare{
			AirlineName:  partner.Name,
			AirlineIATA:  partner.IATA,
			AirlineICAO:  partner.ICAO,
			FlightNumber: csNumber,
			FlightIATA:   partner.IATA + csNumber,
			FlightICAO:   partner.ICAO + csNumber,
		}
	}

	return f
}

func endpoint(a airport, scheduled time.Time) *Endpoint {
	e := &Endpoint{
		Airport:   a.name,
		Timezone:  a.timezone,
		IATA:      a.iata,
		ICAO:      a.icao,
		Scheduled: scheduled.Format(time.RFC3339),
		Estimated: scheduled.Format(time.RFC3339),
	}

	if rand.Intn(2) == 0 {
		terminal := strconv.Itoa(1 + rand.Intn(5))
		gate := fmt.Sprintf("%c%d", 'A'+rand.Intn(6), 1+rand.Intn(40))
		e.Terminal = &terminal
		e.Gate = &gate
	}
	if rand.Intn(3) == 0 {
		delay := rand.Intn(90)
		e.Delay = &delay
		actual := scheduled.Add(time.Duration(delay) * time.Minute).Format(time.RFC3339)
		e.Actual = &actual
	}

	return e
}
