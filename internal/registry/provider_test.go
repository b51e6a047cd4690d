package registry

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ZilDuck/nft-marketplace-engine/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T, handler func(method string, params map[string]interface{}) (string, *RPCError)) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))

		params, _ := request.Params.(map[string]interface{})
		result, rpcErr := handler(request.Method, params)

		if rpcErr != nil {
			fmt.Fprintf(w, `{"id":%d,"error":{"code":%d,"message":"%s"}}`, request.Id, rpcErr.Code, rpcErr.Message)
			return
		}
		fmt.Fprintf(w, `{"id":%d,"result":%s}`, request.Id, result)
	}))
}

func newTestProvider(t *testing.T, server *httptest.Server) *Provider {
	t.Helper()

	client, err := NewClient(server.URL, 5, false)
	require.NoError(t, err)

	return NewProvider(client)
}

func TestProvider_OwnerOf(t *testing.T) {
	server := testServer(t, func(method string, params map[string]interface{}) (string, *RPCError) {
		assert.Equal(t, "Registry.OwnerOf", method)
		assert.Equal(t, "0xabc", params["contract"])
		return `{"owner":"0xseller"}`, nil
	})
	defer server.Close()

	owner, err := newTestProvider(t, server).OwnerOf(entity.Token{Contract: "0xabc", TokenId: 7})
	require.NoError(t, err)
	assert.Equal(t, "0xseller", owner)
}

func TestProvider_IsApprovedToTransfer(t *testing.T) {
	server := testServer(t, func(method string, params map[string]interface{}) (string, *RPCError) {
		assert.Equal(t, "Registry.IsApprovedToTransfer", method)
		assert.Equal(t, "0xoperator", params["actor"])
		return `{"approved":true}`, nil
	})
	defer server.Close()

	approved, err := newTestProvider(t, server).IsApprovedToTransfer(entity.Token{Contract: "0xabc", TokenId: 7}, "0xoperator")
	require.NoError(t, err)
	assert.True(t, approved)
}

func TestProvider_Transfer(t *testing.T) {
	server := testServer(t, func(method string, params map[string]interface{}) (string, *RPCError) {
		assert.Equal(t, "Registry.Transfer", method)
		assert.Equal(t, "0xseller", params["from"])
		assert.Equal(t, "0xbuyer", params["to"])
		return `{}`, nil
	})
	defer server.Close()

	err := newTestProvider(t, server).Transfer(entity.Token{Contract: "0xabc", TokenId: 7}, "0xseller", "0xbuyer")
	require.NoError(t, err)
}

func TestProvider_RPCErrorSurfaces(t *testing.T) {
	server := testServer(t, func(method string, params map[string]interface{}) (string, *RPCError) {
		return "", &RPCError{Code: -1, Message: "token does not exist"}
	})
	defer server.Close()

	_, err := newTestProvider(t, server).OwnerOf(entity.Token{Contract: "0xabc", TokenId: 404})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token does not exist")
}

func TestClient_RequiresAHost(t *testing.T) {
	_, err := NewClient("", 5, false)
	assert.Error(t, err)
}
