package domain

import (
	"fmt"
	"strings"
	"time"

	"poolroute_backend/platform/apperr"

	"github.com/google/uuid"
)

// Reading is one water or equipment measurement taken on site.
type Reading struct {
	Parameter string  `json:"parameter"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit,omitempty"`
}

// ProductLine is one product consumed during the visit.
type ProductLine struct {
	ProductRef string  `json:"productRef,omitempty"`
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit,omitempty"`
}

// WorkOrder is the completion record a technician submits.
type WorkOrder struct {
	Readings    []Reading     `json:"readings"`
	Products    []ProductLine `json:"products"`
	Notes       string        `json:"notes,omitempty"`
	CompletedAt time.Time     `json:"completedAt"`
	SubmittedBy uuid.UUID     `json:"submittedBy"`
}

// Validate checks the payload before it is accepted.
func (w WorkOrder) Validate() error {
	fields := map[string]string{}
	for i, r := range w.Readings {
		if strings.TrimSpace(r.Parameter) == "" {
			fields[fmt.Sprintf("readings[%d].parameter", i)] = "required"
		}
	}
	for i, p := range w.Products {
		if strings.TrimSpace(p.Name) == "" && strings.TrimSpace(p.ProductRef) == "" {
			fields[fmt.Sprintf("products[%d].name", i)] = "required"
		}
		if p.Quantity <= 0 {
			fields[fmt.Sprintf("products[%d].quantity", i)] = "gt=0"
		}
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid work order").WithDetails(fields)
	}
	return nil
}
