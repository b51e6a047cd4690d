package registry

import (
	"encoding/json"

	"github.com/ZilDuck/nft-marketplace-engine/internal/entity"
)

type Provider struct {
	rpcClient *rpcClient
}

func NewProvider(rpcClient *rpcClient) *Provider {
	return &Provider{rpcClient: rpcClient}
}

type ownerResult struct {
	Owner string `json:"owner"`
}

type approvalResult struct {
	Approved bool `json:"approved"`
}

func (p *Provider) OwnerOf(token entity.Token) (string, error) {
	response, err := p.call("Registry.OwnerOf", map[string]interface{}{
		"contract": token.Contract,
		"tokenId":  token.TokenId,
	})
	if err != nil {
		return "", err
	}

	jsonString, err := response.ResultAsJson()
	if err != nil {
		return "", err
	}

	var result ownerResult
	if err := json.Unmarshal(jsonString, &result); err != nil {
		return "", err
	}

	return result.Owner, nil
}

func (p *Provider) IsApprovedToTransfer(token entity.Token, actor string) (bool, error) {
	response, err := p.call("Registry.IsApprovedToTransfer", map[string]interface{}{
		"contract": token.Contract,
		"tokenId":  token.TokenId,
		"actor":    actor,
	})
	if err != nil {
		return false, err
	}

	jsonString, err := response.ResultAsJson()
	if err != nil {
		return false, err
	}

	var result approvalResult
	if err := json.Unmarshal(jsonString, &result); err != nil {
		return false, err
	}

	return result.Approved, nil
}

func (p *Provider) Transfer(token entity.Token, from, to string) error {
	_, err := p.call("Registry.Transfer", map[string]interface{}{
		"contract": token.Contract,
		"tokenId":  token.TokenId,
		"from":     from,
		"to":       to,
	})

	return err
}

func (p *Provider) call(method string, params interface{}) (*rpcResponse, error) {
	response, err := p.rpcClient.call(method, params)
	if err != nil {
		return nil, err
	}

	if response.Error != nil {
		return nil, *response.Error
	}

	return response, nil
}
