package registry

import (
	"go.uber.org/zap"

	"github.com/ZilDuck/nft-marketplace-engine/internal/entity"
)

// Service is the asset registry collaborator as the engine consumes it.
// Ownership and approval are always queried live; the engine never caches
// either across operations.
type Service interface {
	OwnerOf(token entity.Token) (string, error)
	IsApprovedToTransfer(token entity.Token, actor string) (bool, error)
	Transfer(token entity.Token, from, to string) error
}

type service struct {
	provider *Provider
}

func NewRegistryService(provider *Provider) Service {
	return service{provider}
}

func (s service) OwnerOf(token entity.Token) (string, error) {
	return s.provider.OwnerOf(token)
}

func (s service) IsApprovedToTransfer(token entity.Token, actor string) (bool, error) {
	return s.provider.IsApprovedToTransfer(token, actor)
}

func (s service) Transfer(token entity.Token, from, to string) error {
	err := s.provider.Transfer(token, from, to)
	if err != nil {
		zap.L().With(
			zap.Error(err),
			zap.String("token", token.String()),
			zap.String("from", from),
			zap.String("to", to),
		).Error("Registry: Transfer failed")
	}

	return err
}
