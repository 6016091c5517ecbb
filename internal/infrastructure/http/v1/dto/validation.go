package dto

import (
	"fmt"
	"reflect"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"freightdesk/internal/domain/catalogs/batch"
	"freightdesk/internal/domain/invoice"
	"freightdesk/internal/domain/ledger"
	"freightdesk/internal/domain/shipment"
)

// enumValidators are the binding tags for domain enums.
var enumValidators = map[string]func(string) bool{
	"deliverytype":   func(s string) bool { return batch.DeliveryType(s).IsValid() },
	"batchstatus":    func(s string) bool { return batch.Status(s).IsValid() },
	"tarifftype":     func(s string) bool { return shipment.TariffType(s).IsValid() },
	"shipmentstatus": func(s string) bool { return shipment.Status(s).IsValid() },
	"invoicestatus":  func(s string) bool { return invoice.Status(s).IsValid() },
	"ledgertype":     func(s string) bool { return ledger.Type(s).IsValid() },
}

// RegisterValidators adds the enum tags to v.
func RegisterValidators(v *validator.Validate) error {
	for tag, ok := range enumValidators {
		check := ok
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			f := fl.Field()
			if f.Kind() == reflect.Ptr {
				if f.IsNil() {
					return true
				}
				f = f.Elem()
			}
			if f.Kind() != reflect.String {
				return false
			}
			return check(f.String())
		})
		if err != nil {
			return fmt.Errorf("register %s validator: %w", tag, err)
		}
	}
	return nil
}

// RegisterBindingValidators installs the enum tags on gin's default validator.
func RegisterBindingValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	return RegisterValidators(v)
}
