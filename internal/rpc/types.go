package rpc

import (
	"encoding/base64"
	"fmt"
)

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Context is the slot the node answered at
type Context struct {
	Slot uint64 `json:"slot"`
}

// AccountInfo is one entry of getMultipleAccounts. Data is [payload, encoding].
type AccountInfo struct {
	Lamports   uint64    `json:"lamports"`
	Owner      string    `json:"owner"`
	Data       [2]string `json:"data"`
	Executable bool      `json:"executable"`
	RentEpoch  uint64    `json:"rentEpoch"`
	Space      uint64    `json:"space"`
}

// DecodedData returns the raw account bytes. Only base64 is requested.
func (a *AccountInfo) DecodedData() ([]byte, error) {
	if a.Data[1] != "" && a.Data[1] != "base64" {
		return nil, fmt.Errorf("unsupported account encoding %q", a.Data[1])
	}
	b, err := base64.StdEncoding.DecodeString(a.Data[0])
	if err != nil {
		return nil, fmt.Errorf("decode account data: %w", err)
	}
	return b, nil
}

// MultipleAccountsResult holds one entry per requested key; missing
// accounts are nil.
type MultipleAccountsResult struct {
	Context Context        `json:"context"`
	Value   []*AccountInfo `json:"value"`
}

// MultipleAccountsResponse is the response from getMultipleAccounts
type MultipleAccountsResponse struct {
	Result *MultipleAccountsResult `json:"result"`
	Error  *RPCError               `json:"error"`
}

// Uint64Response is the response shape for methods returning a bare integer
type Uint64Response struct {
	Result uint64    `json:"result"`
	Error  *RPCError `json:"error"`
}

// BlockhashValue is the value of getLatestBlockhash
type BlockhashValue struct {
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

// LatestBlockhashResponse is the response from getLatestBlockhash
type LatestBlockhashResponse struct {
	Result *struct {
		Context Context        `json:"context"`
		Value   BlockhashValue `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}

// SimulationValue is the value of simulateTransaction
type SimulationValue struct {
	Err           interface{} `json:"err"`
	Logs          []string    `json:"logs"`
	UnitsConsumed uint64      `json:"unitsConsumed"`
}

// SimulateResponse is the response from simulateTransaction
type SimulateResponse struct {
	Result *struct {
		Context Context         `json:"context"`
		Value   SimulationValue `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}
