package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ferrumlabs/backoffice/modules/core/domain/aggregates/user"
	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/feature"
	"github.com/ferrumlabs/backoffice/modules/core/features"
	"github.com/ferrumlabs/backoffice/pkg/composables"
	"github.com/ferrumlabs/backoffice/pkg/serrors"
)

// AuthService authenticates users by password or by SMS one-time code. Both
// paths return InvalidCredentials for any failure that could reveal whether
// the account exists, is inactive, or is expired.
type AuthService struct {
	users    user.Repository
	otp      *OtpService
	contacts *ContactCache
	features feature.Store
}

func NewAuthService(users user.Repository, otp *OtpService, contacts *ContactCache, featureStore feature.Store) *AuthService {
	return &AuthService{
		users:    users,
		otp:      otp,
		contacts: contacts,
		features: featureStore,
	}
}

// AuthenticateByPassword resolves the username within the tenant scope already
// bound to ctx and checks the password against the stored bcrypt hash.
func (s *AuthService) AuthenticateByPassword(ctx context.Context, username, password string) (*user.User, error) {
	u, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*user.User, error) {
		return s.users.GetByUsername(txCtx, username)
	})
	if errors.Is(err, serrors.ErrUserNotFound) {
		return nil, serrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.CanLogin(time.Now()) || !u.CheckPassword(password) {
		return nil, serrors.ErrInvalidCredentials
	}
	return u, nil
}

// RequestSmsCode locates the tenant owning the phone number through the
// contact cache and issues a one-time code. An unknown phone is indistinct
// from a known one: no error, no code sent.
func (s *AuthService) RequestSmsCode(ctx context.Context, phoneNumber string) error {
	tenantID, ok, err := s.contacts.TenantIDByPhone(ctx, phoneNumber)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	enabled, err := s.features.IsEnabled(ctx, tenantID, features.SmsAuthentication)
	if err != nil {
		return err
	}
	if !enabled {
		return serrors.ErrSmsLoginDisabled
	}
	_, err = s.otp.Issue(ctx, phoneNumber)
	return err
}

// AuthenticateBySms verifies the submitted code, then resolves the user by
// phone inside the owning tenant's scope. The tenant is looked up from the
// contact cache, so only phones remembered at provisioning time can log in
// this way.
func (s *AuthService) AuthenticateBySms(ctx context.Context, phoneNumber, code string) (*user.User, uuid.UUID, error) {
	tenantID, ok, err := s.contacts.TenantIDByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if !ok {
		return nil, uuid.Nil, serrors.ErrInvalidCredentials
	}
	enabled, err := s.features.IsEnabled(ctx, tenantID, features.SmsAuthentication)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if !enabled {
		return nil, uuid.Nil, serrors.ErrSmsLoginDisabled
	}

	verified, err := s.otp.Verify(ctx, phoneNumber, code)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if !verified {
		return nil, uuid.Nil, serrors.ErrInvalidCredentials
	}

	tenantCtx := composables.WithTenantID(ctx, tenantID)
	u, err := composables.InTenantTxResult(tenantCtx, func(txCtx context.Context) (*user.User, error) {
		return s.users.GetByPhone(txCtx, phoneNumber)
	})
	if errors.Is(err, serrors.ErrUserNotFound) {
		return nil, uuid.Nil, serrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, uuid.Nil, err
	}
	if !u.CanLogin(time.Now()) {
		return nil, uuid.Nil, serrors.ErrInvalidCredentials
	}
	return u, tenantID, nil
}
