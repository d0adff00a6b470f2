package provision

import (
	"fmt"
	"log"
	"strings"

	"github.com/jonas-p/go-shp"

	"github.com/ngmaloney/flightmap/internal/models"
)

// attribute columns, by lower-case DBF field name. The first present name wins.
var columns = map[string][]string{
	"code":     {"iata_code", "iata", "abbrev"},
	"icao":     {"gps_code", "icao_code", "icao"},
	"name":     {"name_en", "name"},
	"city":     {"city"},
	"country":  {"country", "adm0name", "iso_a2"},
	"timezone": {"timezone", "tz"},
}

// ReadAirports reads point features from an airports shapefile. Features
// without a 3-letter IATA code or a point geometry are skipped.
func ReadAirports(path string) ([]models.Airport, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening shapefile: %w", err)
	}
	defer reader.Close()

	index := fieldIndex(reader.Fields())
	if _, ok := index["code"]; !ok {
		return nil, fmt.Errorf("shapefile %s has no IATA code column", path)
	}

	attr := func(row int, col string) string {
		i, ok := index[col]
		if !ok {
			return ""
		}
		return strings.Trim(reader.ReadAttribute(row, i), " \x00")
	}

	var (
		airports []models.Airport
		seen     = make(models.CodeSet)
		skipped  int
	)
	for reader.Next() {
		n, shape := reader.Shape()

		point, ok := shape.(*shp.Point)
		if !ok {
			skipped++
			continue
		}

		a := models.Airport{
			Code:      models.NormalizeCode(attr(n, "code")),
			ICAO:      strings.ToUpper(attr(n, "icao")),
			Name:      attr(n, "name"),
			City:      attr(n, "city"),
			Country:   attr(n, "country"),
			Timezone:  attr(n, "timezone"),
			Longitude: point.X,
			Latitude:  point.Y,
		}
		if err := a.Validate(); err != nil || seen.Has(a.Code) {
			skipped++
			continue
		}
		seen.Add(a.Code)
		airports = append(airports, a)
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("reading shapefile: %w", err)
	}

	if skipped > 0 {
		log.Printf("[provision] skipped %d features without a usable code or position", skipped)
	}
	return airports, nil
}

func fieldIndex(fields []shp.Field) map[string]int {
	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		byName[strings.ToLower(f.String())] = i
	}

	index := make(map[string]int, len(columns))
	for col, names := range columns {
		for _, name := range names {
			if i, ok := byName[name]; ok {
				index[col] = i
				break
			}
		}
	}
	return index
}
