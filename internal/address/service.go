package address

import (
	"context"
	"fmt"

	"github.com/nino-0813/honma-ec-sub000/internal/shipping"
	pkgerrors "github.com/nino-0813/honma-ec-sub000/pkg/errors"
	"github.com/nino-0813/honma-ec-sub000/pkg/postal"
)

type lookupClient interface {
	Lookup(ctx context.Context, postalCode string) (*postal.Address, error)
}

// Resolved is a postal lookup enriched with the delivery region the
// shipping calculator prices against.
type Resolved struct {
	PostalCode string `json:"postal_code"`
	Prefecture string `json:"prefecture"`
	City       string `json:"city"`
	Town       string `json:"town"`
	Area       string `json:"area,omitempty"`
}

type Service interface {
	Resolve(ctx context.Context, postalCode string) (*Resolved, error)
}

type service struct {
	client lookupClient
}

func NewService(client lookupClient) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("postal lookup client required")
	}
	return &service{client: client}, nil
}

func (s *service) Resolve(ctx context.Context, postalCode string) (*Resolved, error) {
	if !postal.Validate(postalCode) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "郵便番号は7桁の数字で入力してください。")
	}
	hit, err := s.client.Lookup(ctx, postalCode)
	if err != nil {
		return nil, err
	}
	return &Resolved{
		PostalCode: postal.Normalize(postalCode),
		Prefecture: hit.Prefecture,
		City:       hit.City,
		Town:       hit.Town,
		Area:       shipping.PrefectureToArea(hit.Prefecture),
	}, nil
}
