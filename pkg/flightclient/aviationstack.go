package flightclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"flightsync/internal/flight"
	"flightsync/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "flightsync/pkg/flightclient"

type AviationStackClient struct {
	httpClient    *http.Client
	baseURL       string
	accessKey     string
	limit         int
	logger        logger.Client
	fetchFailures metric.Int64Counter
}

func NewAviationStackClient(httpClient *http.Client, baseURL, accessKey string, limit int,
	logger logger.Client) *AviationStackClient {
	failures, err := otel.Meter(meterName).Int64Counter("flightsync.source.fetch.failures",
		metric.WithDescription("Upstream fetches that degraded to an empty batch"))
	if err != nil {
		logger.Warn("failed to register fetch failure counter", loggerErr(err))
	}

	return &AviationStackClient{
		httpClient:    httpClient,
		baseURL:       baseURL,
		accessKey:     accessKey,
		limit:         limit,
		logger:        logger,
		fetchFailures: failures,
	}
}

type aviationStackResponse struct {
	Pagination *aviationStackPagination `json:"pagination"`
	Data       []aviationStackFlight    `json:"data"`
	Error      *aviationStackError      `json:"error"`
}

type aviationStackPagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
	Total  int `json:"total"`
}

type aviationStackError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type aviationStackFlight struct {
	FlightDate   string                 `json:"flight_date"`
	FlightStatus string                 `json:"flight_status"`
	Departure    *aviationStackEndpoint `json:"departure"`
	Arrival      *aviationStackEndpoint `json:"arrival"`
	Airline      *aviationStackAirline  `json:"airline"`
	Flight       *aviationStackFlightID `json:"flight"`
}

type aviationStackEndpoint struct {
	Airport   string `json:"airport"`
	Timezone  string `json:"timezone"`
	IATA      string `json:"iata"`
	ICAO      string `json:"icao"`
	Terminal  string `json:"terminal"`
	Gate      string `json:"gate"`
	Baggage   string `json:"baggage"`
	Delay     *int   `json:"delay"`
	Scheduled string `json:"scheduled"`
	Estimated string `json:"estimated"`
	Actual    string `json:"actual"`
}

type aviationStackAirline struct {
	Name string `json:"name"`
	IATA string `json:"iata"`
	ICAO string `json:"icao"`
}

type aviationStackFlightID struct {
	Number     string                  `json:"number"`
	IATA       string                  `json:"iata"`
	ICAO       string                  `json:"icao"`
	Codeshared *aviationStackCodeshare `json:"codeshared"`
}

type aviationStackCodeshare struct {
	AirlineName  string `json:"airline_name"`
	AirlineIATA  string `json:"airline_iata"`
	AirlineICAO  string `json:"airline_icao"`
	FlightNumber string `json:"flight_number"`
	FlightIATA   string `json:"flight_iata"`
	FlightICAO   string `json:"flight_icao"`
}

// Fetch returns the current page of flights. Any failure is logged and
// counted, and yields an empty batch instead of an error.
func (a *AviationStackClient) Fetch(ctx context.Context) []flight.Record {
	resp, err := a.GetFlights(ctx)
	if err != nil {
		a.logger.Error("failed to fetch flights from aviationstack", loggerErr(err))
		if a.fetchFailures != nil {
			a.fetchFailures.Add(ctx, 1)
		}
		return []flight.Record{}
	}

	records := mapAviationStackFlights(resp)
	a.logger.Debug("fetched flights from aviationstack", logger.Field{Key: "records", Value: len(records)})
	return records
}

func (a *AviationStackClient) GetFlights(ctx context.Context) (*aviationStackResponse, error) {
	endpoint, err := url.Parse(a.baseURL + "/v1/flights")
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	q := endpoint.Query()
	q.Set("access_key", a.accessKey)
	if a.limit > 0 {
		q.Set("limit", strconv.Itoa(a.limit))
	}
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", a.redact(err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("external api call failed: %w", a.redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("external api returned non-2xx status: %d", resp.StatusCode)
	}

	var apiResp aviationStackResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode aviationstack response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("aviationstack error %s: %s", apiResp.Error.Code, apiResp.Error.Message)
	}

	return &apiResp, nil
}

// redact drops the request URL, which carries the access key, from
// transport errors.
func (a *AviationStackClient) redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s %s/v1/flights: %w", uerr.Op, a.baseURL, uerr.Err)
	}
	return err
}

func mapAviationStackFlights(resp *aviationStackResponse) []flight.Record {
	mapped := make([]flight.Record, 0, len(resp.Data))

	for _, asFlight := range resp.Data {
		rec := flight.Record{
			FlightDate:   asFlight.FlightDate,
			FlightStatus: asFlight.FlightStatus,
			Departure:    mapEndpoint(asFlight.Departure),
			Arrival:      mapEndpoint(asFlight.Arrival),
		}

		if asFlight.Airline != nil {
			rec.Airline = &flight.AirlineData{
				Name: asFlight.Airline.Name,
				IATA: asFlight.Airline.IATA,
				ICAO: asFlight.Airline.ICAO,
			}
		}

		if id := asFlight.Flight; id != nil {
			rec.Flight = flight.FlightData{
				Number: id.Number,
				IATA:   id.IATA,
				ICAO:   id.ICAO,
			}
			if cs := id.Codeshared; cs != nil {
				rec.Flight.Codeshared = &flight.CodeshareData{
					AirlineName:  cs.AirlineName,
					AirlineIATA:  cs.AirlineIATA,
					AirlineICAO:  cs.AirlineICAO,
					FlightNumber: cs.FlightNumber,
					FlightIATA:   cs.FlightIATA,
					FlightICAO:   cs.FlightICAO,
				}
			}
		}

		mapped = append(mapped, rec)
	}
	return mapped
}

func mapEndpoint(e *aviationStackEndpoint) *flight.Endpoint {
	if e == nil {
		return nil
	}
	return &flight.Endpoint{
		Airport:   e.Airport,
		Timezone:  e.Timezone,
		IATA:      e.IATA,
		ICAO:      e.ICAO,
		Terminal:  e.Terminal,
		Gate:      e.Gate,
		Baggage:   e.Baggage,
		Delay:     e.Delay,
		Scheduled: e.Scheduled,
		Estimated: e.Estimated,
		Actual:    e.Actual,
	}
}

func loggerErr(err error) logger.Field {
	return logger.Field{Key: "err", Value: err}
}
