package features

import (
	"github.com/google/uuid"

	"github.com/ferrumlabs/backoffice/modules/core/domain/entities/feature"
)

const (
	SmsAuthentication = "SmsAuthentication"
	OrganizationUnits = "OrganizationUnits"
	UserExpiry        = "UserExpiry"
)

var (
	SmsAuthenticationFeature = &feature.Feature{
		ID:           uuid.MustParse("2f1b4a8e-9c6d-4f3a-b5e7-0d8c1a2b3c4d"),
		Name:         SmsAuthentication,
		DefaultValue: true,
	}
	OrganizationUnitsFeature = &feature.Feature{
		ID:           uuid.MustParse("7c3e5d1a-2b4f-4e6c-8a9d-1f0e2d3c4b5a"),
		Name:         OrganizationUnits,
		DefaultValue: true,
	}
	UserExpiryFeature = &feature.Feature{
		ID:           uuid.MustParse("b8d2f6a4-5e7c-4a1b-9c3d-6e8f0a1b2c3e"),
		Name:         UserExpiry,
		DefaultValue: false,
	}
)

func All() []*feature.Feature {
	return []*feature.Feature{
		SmsAuthenticationFeature,
		OrganizationUnitsFeature,
		UserExpiryFeature,
	}
}
