package models

import "time"

// Статусы плана.
const (
	PlanActive   = "activo"
	PlanInactive = "inactivo"
)

// Plan — тарифный план, принадлежащий одному бизнесу.
type Plan struct {
	ID          string    `json:"id"`
	BusinessID  string    `json:"business_id"`
	Name        string    `json:"nombre"`
	Price       float64   `json:"precio"`
	Currency    string    `json:"moneda"`
	Period      string    `json:"periodo"`
	Description string    `json:"descripcion"`
	Features    []string  `json:"caracteristicas"`
	Status      string    `json:"estado"`
	CreatedAt   time.Time `json:"created_at"`
}

// Clone возвращает копию плана с независимым списком характеристик.
func (p Plan) Clone() Plan {
	if p.Features != nil {
		p.Features = append([]string(nil), p.Features...)
	}
	return p
}
