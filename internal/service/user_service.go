package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"crowdpulse-api/internal/auth"
	"crowdpulse-api/internal/model"
	"crowdpulse-api/pkg/apierror"
)

type UserService struct {
	users  UserStore
	hasher *PasswordHasher
	now    func() time.Time
}

func NewUserService(users UserStore, hasher *PasswordHasher) *UserService {
	return &UserService{users: users, hasher: hasher, now: time.Now}
}

func (s *UserService) Get(ctx context.Context, id string) (model.PublicUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return model.PublicUser{}, userError(err)
	}
	return user.Public(), nil
}

func (s *UserService) List(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

// ChangePassword sets a new password for id. Callers may change their own
// password; changing someone else's requires the Administrator role.
func (s *UserService) ChangePassword(ctx context.Context, actor auth.Identity, id string, password string) (model.PublicUser, error) {
	if !sameAccount(actor.UserID, id) && !actor.Role.Satisfies(auth.RoleAdministrator) {
		return model.PublicUser{}, apierror.Forbidden("you can only change your own password")
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return model.PublicUser{}, err
	}

	user, err := s.users.UpdatePassword(ctx, id, hash, s.now().UTC())
	if err != nil {
		return model.PublicUser{}, userError(err)
	}
	return user.Public(), nil
}

func (s *UserService) ChangeRole(ctx context.Context, id string, rawRole string) (model.PublicUser, error) {
	role, ok := auth.ParseRole(rawRole)
	if !ok {
		return model.PublicUser{}, apierror.BadRequest("invalid role")
	}

	user, err := s.users.UpdateRole(ctx, id, role, s.now().UTC())
	if err != nil {
		return model.PublicUser{}, userError(err)
	}
	return user.Public(), nil
}

func (s *UserService) Delete(ctx context.Context, actor auth.Identity, id string) error {
	if sameAccount(actor.UserID, id) {
		return apierror.BadRequest("you cannot delete your own account")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return userError(err)
	}
	return nil
}

// sameAccount compares ids as uuids when both parse, so case and brace
// variants of one id match.
func sameAccount(a string, b string) bool {
	ua, errA := uuid.Parse(a)
	ub, errB := uuid.Parse(b)
	if errA == nil && errB == nil {
		return ua == ub
	}
	return a == b
}

func userError(err error) error {
	if errors.Is(err, model.ErrUserNotFound) {
		return apierror.NotFound("user not found")
	}
	return err
}
