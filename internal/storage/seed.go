package storage

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/suscridash/internal/lib/password"
	"github.com/magabrotheeeer/suscridash/internal/models"
)

type seedUser struct {
	user     models.User
	password string
}

func seedTime(layout string) time.Time {
	t, err := time.Parse("2006-01-02T15:04", layout)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

// Seed строит демонстрационный набор данных: администратора, несколько бизнесов,
// одного клиента, три плана и одну подписку.
func Seed(now time.Time) (*models.Snapshot, error) {
	const op = "storage.Seed"

	users := []seedUser{
		{models.User{ID: "1", Email: "admin@suscridash.cl", Name: "Administrador", Role: models.RoleAdmin,
			CreatedAt: seedTime("2023-01-01T00:00")}, "admin123"},
		{models.User{ID: "2", Email: "empresa@ejemplo.cl", Name: "Empresa Ejemplo", Role: models.RoleBusiness,
			BusinessName: "Mi Empresa SA", TaxID: "12345678-9", Status: "active", Subscribers: 8,
			CreatedAt: seedTime("2023-05-15T10:30")}, "empresa123"},
		{models.User{ID: "3", Email: "cliente@ejemplo.cl", Name: "Cliente Ejemplo", Role: models.RoleCustomer,
			CreatedAt: seedTime("2023-06-20T14:15")}, "cliente123"},
		{models.User{ID: "4", Email: "tech@solutions.cl", Name: "Tech Solutions", Role: models.RoleBusiness,
			BusinessName: "Tech Solutions SA", TaxID: "76543210-1", Status: "active", Subscribers: 12,
			CreatedAt: seedTime("2023-07-10T09:45")}, "tech123"},
		{models.User{ID: "5", Email: "marketing@digital.cl", Name: "Marketing Digital", Role: models.RoleBusiness,
			BusinessName: "Digital Marketing SpA", TaxID: "98765432-1", Status: "pending", Subscribers: 5,
			CreatedAt: seedTime("2023-08-05T16:20")}, "marketing123"},
		{models.User{ID: "6", Email: "cloud@services.cl", Name: "Cloud Services", Role: models.RoleBusiness,
			BusinessName: "Cloud Services Ltda", TaxID: "54321678-9", Status: "active", Subscribers: 3,
			CreatedAt: seedTime("2023-09-12T11:10")}, "cloud123"},
	}

	snapshot := &models.Snapshot{}
	for _, su := range users {
		hash, err := password.GetHash(su.password)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		u := su.user
		u.PasswordHash = hash
		snapshot.Users = append(snapshot.Users, u)
	}

	snapshot.Plans = []models.Plan{
		{
			ID: "p1", BusinessID: "2", Name: "Básico", Price: 19900, Currency: "CLP", Period: "mes",
			Description: "Plan de entrada para pequeños equipos",
			Features:    []string{"Hasta 5 usuarios", "Soporte por email"},
			Status:      models.PlanActive, CreatedAt: seedTime("2023-05-16T09:00"),
		},
		{
			ID: "p2", BusinessID: "2", Name: "Premium", Price: 39900, Currency: "CLP", Period: "mes",
			Description: "Todas las funciones con soporte prioritario",
			Features:    []string{"Usuarios ilimitados", "Soporte 24/7", "Reportes avanzados"},
			Status:      models.PlanActive, CreatedAt: seedTime("2023-05-16T09:05"),
		},
		{
			ID: "p3", BusinessID: "4", Name: "Empresarial", Price: 89900, Currency: "CLP", Period: "mes",
			Description: "Infraestructura dedicada para grandes empresas",
			Features:    []string{"Servidor dedicado", "SLA 99.9%", "Gerente de cuenta"},
			Status:      models.PlanActive, CreatedAt: seedTime("2023-07-11T10:00"),
		},
	}

	snapshot.Subscriptions = []models.Subscription{
		{
			ID: "s1", BusinessID: "2", CustomerID: "3", PlanID: "p2",
			StartDate: "2023-06-20", RenewalDate: "2024-06-19",
			Status: models.StatusActive, Amount: 39900, PaymentMethod: "Visa **** 4242",
			CreatedAt: seedTime("2023-06-20T14:20"),
		},
	}

	settings := models.DefaultSettings(now)
	snapshot.Settings = &settings

	return snapshot, nil
}
