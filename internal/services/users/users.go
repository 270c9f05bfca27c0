// Package users содержит административное управление пользователями и справочник бизнесов.
package users

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/suscridash/internal/lib/apperr"
	"github.com/magabrotheeeer/suscridash/internal/lib/password"
	"github.com/magabrotheeeer/suscridash/internal/lib/search"
	"github.com/magabrotheeeer/suscridash/internal/lib/validate"
	"github.com/magabrotheeeer/suscridash/internal/models"
	"github.com/magabrotheeeer/suscridash/internal/services/guard"
	"github.com/magabrotheeeer/suscridash/internal/storage"
)

// RecentLimit — сколько бизнесов возвращает RecentBusinesses.
const RecentLimit = 5

// Filter — параметры поиска пользователей.
type Filter struct {
	Query    string      // подстрока имени, названия компании или email
	Status   string      // точный статус или подстановочный фильтр
	UserType models.Role // пустое значение — любая роль
}

// UpdateRequest — изменяемые администратором поля. nil означает «не менять».
type UpdateRequest struct {
	Name         *string      `json:"name"`
	Email        *string      `json:"email" validate:"omitempty,email"`
	UserType     *models.Role `json:"user_type"`
	BusinessName *string      `json:"business_name"`
	TaxID        *string      `json:"tax_id"`
	Status       *string      `json:"status"`
	Password     *string      `json:"password"`
}

// Service — административный менеджер пользователей.
type Service struct {
	store *storage.Store
	log   *slog.Logger
}

// New создаёт Service.
func New(store *storage.Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

func matches(u *models.User, f Filter) bool {
	if f.UserType != "" && u.Role != f.UserType {
		return false
	}
	return search.StatusMatches(f.Status, u.Status) &&
		search.TextMatches(f.Query, u.Name, u.BusinessName, u.Email)
}

func (s *Service) collect(f Filter) []models.UserResponse {
	var out []models.UserResponse
	_ = s.store.View(func(snap *models.Snapshot) error {
		for i := range snap.Users {
			if matches(&snap.Users[i], f) {
				out = append(out, snap.Users[i].Response())
			}
		}
		return nil
	})
	search.RecentFirst(out, func(u models.UserResponse) time.Time { return u.CreatedAt })
	if out == nil {
		out = []models.UserResponse{}
	}
	return out
}

// List возвращает пользователей, отобранных фильтром, начиная с самых новых.
func (s *Service) List(p *models.Principal, f Filter) ([]models.UserResponse, error) {
	if err := guard.Require(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.collect(f), nil
}

// Businesses — справочник бизнесов для администратора с поиском и фильтром статуса.
func (s *Service) Businesses(p *models.Principal, query, status string) ([]models.UserResponse, error) {
	if err := guard.Require(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.collect(Filter{Query: query, Status: status, UserType: models.RoleBusiness}), nil
}

// RecentBusinesses возвращает не более RecentLimit последних зарегистрированных бизнесов.
func (s *Service) RecentBusinesses(p *models.Principal) ([]models.UserResponse, error) {
	if err := guard.Require(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	out := s.collect(Filter{UserType: models.RoleBusiness})
	if len(out) > RecentLimit {
		out = out[:RecentLimit]
	}
	return out, nil
}

// Get возвращает пользователя по идентификатору.
func (s *Service) Get(p *models.Principal, id string) (*models.UserResponse, error) {
	if err := guard.Require(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	var out *models.UserResponse
	_ = s.store.View(func(snap *models.Snapshot) error {
		if u, ok := snap.UserByID(id); ok {
			resp := u.Response()
			out = &resp
		}
		return nil
	})
	if out == nil {
		return nil, apperr.NotFound("user not found")
	}
	return out, nil
}

// emailTaken сообщает, занят ли email кем-то кроме пользователя id.
// Пустая role означает проверку среди всех ролей.
func emailTaken(snap *models.Snapshot, id, email string, role models.Role) bool {
	for i := range snap.Users {
		other := &snap.Users[i]
		if other.ID == id || !strings.EqualFold(other.Email, email) {
			continue
		}
		if role == "" || other.Role == role {
			return true
		}
	}
	return false
}

func ownsPlans(snap *models.Snapshot, businessID string) bool {
	for i := range snap.Plans {
		if snap.Plans[i].BusinessID == businessID {
			return true
		}
	}
	return false
}

// Update применяет изменения к пользователю.
//
// Новый email должен быть свободен среди всех остальных пользователей, независимо от роли.
// При смене роли пара (email, роль) остаётся уникальной. Роль администратора не меняется,
// никого нельзя повысить до администратора, а бизнес с планами нельзя сделать клиентом.
// Понижение до клиента очищает поля бизнеса, повышение до бизнеса ставит статус pending.
func (s *Service) Update(ctx context.Context, p *models.Principal, id string, req UpdateRequest) (*models.UserResponse, error) {
	const op = "services.users.Update"
	log := s.log.With(slog.String("op", op), slog.String("user_id", id))

	if err := guard.Require(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.UserType != nil && !req.UserType.Valid() {
		return nil, apperr.Validation("field user_type must be one of [admin business customer]")
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, apperr.Validation("field name must not be empty")
	}

	var hash string
	if req.Password != nil {
		if *req.Password == "" {
			return nil, apperr.Validation("field password must not be empty")
		}
		var err error
		if hash, err = password.GetHash(*req.Password); err != nil {
			return nil, err
		}
	}

	var out models.UserResponse
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		u, ok := snap.UserByID(id)
		if !ok {
			return apperr.NotFound("user not found")
		}

		prevRole := u.Role
		if req.UserType != nil && *req.UserType != u.Role {
			if u.Role == models.RoleAdmin {
				return apperr.Forbidden("admin role cannot be changed")
			}
			if *req.UserType == models.RoleAdmin {
				return apperr.Validation("users cannot be promoted to admin")
			}
			if u.Role == models.RoleBusiness && ownsPlans(snap, u.ID) {
				return apperr.Validation("business with plans cannot be changed to customer")
			}
			u.Role = *req.UserType
		}
		if req.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*req.Email))
			if !strings.EqualFold(email, u.Email) && emailTaken(snap, u.ID, email, "") {
				return apperr.Validation("email already in use")
			}
			u.Email = email
		}
		if u.Role != prevRole && emailTaken(snap, u.ID, u.Email, u.Role) {
			return apperr.Validation("email already in use")
		}
		if req.Name != nil {
			u.Name = strings.TrimSpace(*req.Name)
		}
		if req.BusinessName != nil {
			u.BusinessName = strings.TrimSpace(*req.BusinessName)
		}
		if req.TaxID != nil {
			u.TaxID = strings.TrimSpace(*req.TaxID)
		}
		if req.Status != nil {
			u.Status = strings.TrimSpace(*req.Status)
		}
		if hash != "" {
			u.PasswordHash = hash
		}
		switch {
		case u.Role == models.RoleCustomer && prevRole == models.RoleBusiness:
			u.BusinessName, u.TaxID, u.Status, u.Subscribers = "", "", "", 0
		case u.Role == models.RoleBusiness && u.Status == "":
			u.Status = "pending"
		}
		if u.Role == models.RoleBusiness && (u.BusinessName == "" || u.TaxID == "") {
			return apperr.Validation("business users require business_name and tax_id")
		}
		out = u.Response()
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("user updated")
	return &out, nil
}

// Delete удаляет пользователя. Администратора удалить нельзя.
// Подписки и планы удалённого пользователя остаются в хранилище.
func (s *Service) Delete(ctx context.Context, p *models.Principal, id string) error {
	const op = "services.users.Delete"
	log := s.log.With(slog.String("op", op), slog.String("user_id", id))

	if err := guard.Require(p, models.RoleAdmin); err != nil {
		return err
	}
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		for i := range snap.Users {
			if snap.Users[i].ID != id {
				continue
			}
			if snap.Users[i].Role == models.RoleAdmin {
				return apperr.Forbidden("admin users cannot be deleted")
			}
			snap.Users = append(snap.Users[:i], snap.Users[i+1:]...)
			return nil
		}
		return apperr.NotFound("user not found")
	})
	if err != nil {
		return err
	}
	log.Info("user deleted")
	return nil
}
