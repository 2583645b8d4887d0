package airquality

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Years covered by the dataset.
const (
	MinYear = 2011
	MaxYear = 2023
)

var (
	msgMunicipalityID = "El ID del municipio debe ser un número entero positivo"
	msgStationID      = "El ID de la estación debe ser un número entero positivo"
	msgExposureID     = "El ID de exposición debe ser un número entero positivo"
	msgYear           = fmt.Sprintf("El año debe ser un número entre %d y %d", MinYear, MaxYear)
)

// Field names of the param structs below map to client messages.
var fieldMessages = map[string]string{
	"MunicipalityID": msgMunicipalityID,
	"StationID":      msgStationID,
	"ExposureID":     msgExposureID,
	"Year":           msgYear,
}

type municipalityParams struct {
	MunicipalityID int64 `validate:"gt=0"`
}

type municipalityYearParams struct {
	MunicipalityID int64 `validate:"gt=0"`
	Year           int   `validate:"gte=2011,lte=2023"`
}

type stationYearParams struct {
	StationID int64 `validate:"gt=0"`
	Year      int   `validate:"gte=2011,lte=2023"`
}

type historicalParams struct {
	StationID  int64 `validate:"gt=0"`
	Year       int   `validate:"gte=2011,lte=2023"`
	ExposureID int64 `validate:"gt=0"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// validateParams checks p field by field in declaration order and returns
// the message for the first failing field.
func validateParams(p any) error {
	err := getValidator().Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, ok := fieldMessages[verrs[0].Field()]; ok {
			return &ValidationError{Message: msg}
		}
	}
	return internalf("validating %T: %v", p, err)
}

// parseID parses a whole base-10 token. Anything else yields 0, which the
// gt=0 rule rejects.
func parseID(raw string) int64 {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseYear(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
