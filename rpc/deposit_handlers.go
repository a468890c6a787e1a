package rpc

import (
	"net/http"

	"credpool/native/deposit"
)

type depositParams struct {
	Owner  string `json:"owner"`
	Amount string `json:"amount"`
	Value  string `json:"value"`
}

type withdrawParams struct {
	Owner  string `json:"owner"`
	Amount string `json:"amount"`
}

type ownerParams struct {
	Owner string `json:"owner"`
}

type depositResult struct {
	Owner      string `json:"owner"`
	BalanceWei string `json:"balanceWei"`
}

type previewResult struct {
	Owner       string `json:"owner"`
	UnlockedWei string `json:"unlockedWei"`
}

type entryResult struct {
	AmountWei string `json:"amountWei"`
	Timestamp uint64 `json:"timestamp"`
}

type lenderResult struct {
	Address             string        `json:"address"`
	Entries             []entryResult `json:"entries"`
	NextWithdrawalIndex uint64        `json:"nextWithdrawalIndex"`
	TotalDepositedWei   string        `json:"totalDepositedWei"`
	TotalWithdrawnWei   string        `json:"totalWithdrawnWei"`
	BalanceWei          string        `json:"balanceWei"`
}

func (s *Server) handleDeposit(_ *http.Request, req *RPCRequest) (interface{}, *rpcError) {
	var params depositParams
	if rpcErr := requireSingleObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	owner, err := parseAddress(params.Owner)
	if err != nil {
		return nil, invalidParams("invalid owner", err.Error())
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		return nil, invalidParams(err.Error(), nil)
	}
	value, err := parseAmount(params.Value)
	if err != nil {
		return nil, invalidParams(err.Error(), nil)
	}
	if err := s.node.Deposit(owner, amount, value); err != nil {
		return nil, engineError(err)
	}
	return s.balanceResult(owner)
}

func (s *Server) handleWithdraw(_ *http.Request, req *RPCRequest) (interface{}, *rpcError) {
	var params withdrawParams
	if rpcErr := requireSingleObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	owner, err := parseAddress(params.Owner)
	if err != nil {
		return nil, invalidParams("invalid owner", err.Error())
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		return nil, invalidParams(err.Error(), nil)
	}
	if err := s.node.Withdraw(owner, amount); err != nil {
		return nil, engineError(err)
	}
	return s.balanceResult(owner)
}

func (s *Server) handlePreviewWithdraw(_ *http.Request, req *RPCRequest) (interface{}, *rpcError) {
	var params ownerParams
	if rpcErr := requireSingleObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	owner, err := parseAddress(params.Owner)
	if err != nil {
		return nil, invalidParams("invalid owner", err.Error())
	}
	unlocked, err := s.node.PreviewWithdraw(owner)
	if err != nil {
		return nil, engineError(err)
	}
	return previewResult{Owner: formatAddress(owner), UnlockedWei: formatAmount(unlocked)}, nil
}

func (s *Server) handleBalanceOf(_ *http.Request, req *RPCRequest) (interface{}, *rpcError) {
	var params ownerParams
	if rpcErr := requireSingleObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	owner, err := parseAddress(params.Owner)
	if err != nil {
		return nil, invalidParams("invalid owner", err.Error())
	}
	return s.balanceResult(owner)
}

func (s *Server) handleGetLender(_ *http.Request, req *RPCRequest) (interface{}, *rpcError) {
	var params ownerParams
	if rpcErr := requireSingleObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	owner, err := parseAddress(params.Owner)
	if err != nil {
		return nil, invalidParams("invalid owner", err.Error())
	}
	lender, err := s.node.Lender(owner)
	if err != nil {
		return nil, engineError(err)
	}
	return formatLender(owner, lender), nil
}

func (s *Server) balanceResult(owner [20]byte) (interface{}, *rpcError) {
	balance, err := s.node.BalanceOf(owner)
	if err != nil {
		return nil, engineError(err)
	}
	return depositResult{Owner: formatAddress(owner), BalanceWei: formatAmount(balance)}, nil
}

func formatLender(owner [20]byte, lender *deposit.LenderAccount) lenderResult {
	result := lenderResult{
		Address:    formatAddress(owner),
		Entries:    []entryResult{},
		BalanceWei: "0",
	}
	if lender == nil {
		result.TotalDepositedWei = "0"
		result.TotalWithdrawnWei = "0"
		return result
	}
	for _, entry := range lender.Entries {
		result.Entries = append(result.Entries, entryResult{
			AmountWei: formatAmount(entry.AmountWei),
			Timestamp: entry.Timestamp,
		})
	}
	result.NextWithdrawalIndex = lender.NextWithdrawalIndex
	result.TotalDepositedWei = formatAmount(lender.TotalDepositedWei)
	result.TotalWithdrawnWei = formatAmount(lender.TotalWithdrawnWei)
	result.BalanceWei = formatAmount(lender.BalanceWei())
	return result
}
