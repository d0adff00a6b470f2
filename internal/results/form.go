package results

import (
	"strings"

	"github.com/ngmaloney/flightmap/internal/models"
)

// Form holds the raw text of the search inputs.
type Form struct {
	Departure string
	Arrival   string
	Date      string // YYYY-MM-DD
	Airline   string
	FromHour  string
	ToHour    string
}

// Submit turns the form into a query. Codes are trimmed and upper-cased.
// A missing departure, or any malformed field, yields a *models.ValidationError
// and no query.
func (f Form) Submit() (models.SearchQuery, error) {
	from, fromErr := models.ParseHour("fromHour", f.FromHour)
	to, toErr := models.ParseHour("toHour", f.ToHour)

	q := models.SearchQuery{
		Departure: models.NormalizeCode(f.Departure),
		Arrival:   models.NormalizeCode(f.Arrival),
		Date:      strings.TrimSpace(f.Date),
		Airline:   strings.TrimSpace(f.Airline),
		FromHour:  from,
		ToHour:    to,
	}

	if err := q.Validate(); err != nil {
		return models.SearchQuery{}, err
	}
	if fromErr != nil {
		return models.SearchQuery{}, fromErr
	}
	if toErr != nil {
		return models.SearchQuery{}, toErr
	}
	return q, nil
}
