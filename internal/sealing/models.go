package sealing

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Order identifies the customer a copy is sealed for
type Order struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	OrderID string `json:"orderId" binding:"required"`
}

// SealRequest is the request body accepted by both HTTP surfaces
type SealRequest struct {
	Payload *Order `json:"payload" binding:"required"`
}

// Result describes a published stamped copy
type Result struct {
	URL         string
	Key         string
	ExpiresAt   time.Time
	MasterPages int
	OutputPages int
}

// validate shares gin's "binding" tag so both surfaces enforce the same rules.
var validate = func() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// Validate checks that the payload and its fields are present.
func (r *SealRequest) Validate() error {
	if r == nil || r.Payload == nil {
		return newError(KindInvalidPayload, OpValidate, errors.New("payload is required"))
	}
	if err := validate.Struct(r.Payload); err != nil {
		return newError(KindInvalidPayload, OpValidate, describeValidation(err))
	}
	return nil
}

func describeValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	missing := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		missing = append(missing, fe.Field())
	}
	return fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
}

// WatermarkText assembles the line stamped onto the first page.
func WatermarkText(order Order, date time.Time) string {
	return fmt.Sprintf("%s • %s • Order %s • %s", order.Name, order.Email, order.OrderID, date.Format("2006-01-02"))
}
