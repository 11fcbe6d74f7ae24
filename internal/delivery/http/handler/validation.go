package handler

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/geo"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/phone"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators installs the phone and wkt_polygon binding tags on gin's
// validator and reports fields by their JSON names.
func RegisterValidators(phoneRegion string) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return registerOn(v, phoneRegion)
}

func registerOn(v *validator.Validate, phoneRegion string) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		_, err := phone.Normalize(fl.Field().String(), phoneRegion)
		return err == nil
	}); err != nil {
		return err
	}
	return v.RegisterValidation("wkt_polygon", func(fl validator.FieldLevel) bool {
		_, err := geo.PolygonWKT(entity.GeometryInput{WKT: fl.Field().String()})
		return err == nil
	})
}
