package rpc

import (
	"net/http"

	"credpool/native/loan"
)

type openLoanParams struct {
	Borrower    string `json:"borrower"`
	Principal   string `json:"principal"`
	TermSeconds uint64 `json:"termSeconds"`
}

type repayParams struct {
	Borrower string `json:"borrower"`
	Amount   string `json:"amount"`
	Value    string `json:"value"`
}

type borrowerParams struct {
	Borrower string `json:"borrower"`
}

type loanResult struct {
	Borrower       string `json:"borrower"`
	PrincipalWei   string `json:"principalWei"`
	OutstandingWei string `json:"outstandingWei"`
	StartTime      uint64 `json:"startTime"`
	DueTime        uint64 `json:"dueTime"`
	Active         bool   `json:"active"`
}

type banResult struct {
	Borrower string `json:"borrower"`
	Banned   bool   `json:"banned"`
}

type defaultCheckResult struct {
	Borrower   string `json:"borrower"`
	BanApplied bool   `json:"banApplied"`
}

func (s *Server) handleOpenLoan(_ *http.Request, req *RPCRequest) (interface{}, *rpcError) {
	var params openLoanParams
	if rpcErr := requireSingleObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	borrower, err := parseAddress(params.Borrower)
	if err != nil {
		return nil, invalidParams("invalid borrower", err.Error())
	}
	principal, err := parseAmount(params.Principal)
	if err != nil {
		return nil, invalidParams(err.Error(), nil)
	}
	if err := s.node.OpenLoan(borrower, principal, params.TermSeconds); err != nil {
		return nil, engineError(err)
	}
	return s.loanResultFor(borrower)
}

func (s *Server) handleRepay(_ *http.Request, req *RPCRequest) (interface{}, *rpcError) {
	var params repayParams
	if rpcErr := requireSingleObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	borrower, err := parseAddress(params.Borrower)
	if err != nil {
		return nil, invalidParams("invalid borrower", err.Error())
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		return nil, invalidParams(err.Error(), nil)
	}
	value, err := parseAmount(params.Value)
	if err != nil {
		return nil, invalidParams(err.Error(), nil)
	}
	if err := s.node.Repay(borrower, amount, value); err != nil {
		return nil, engineError(err)
	}
	return s.loanResultFor(borrower)
}

func (s *Server) handleCheckDefault(_ *http.Request, req *RPCRequest) (interface{}, *rpcError) {
	var params borrowerParams
	if rpcErr := requireSingleObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	borrower, err := parseAddress(params.Borrower)
	if err != nil {
		return nil, invalidParams("invalid borrower", err.Error())
	}
	applied, err := s.node.CheckDefault(borrower)
	if err != nil {
		return nil, engineError(err)
	}
	return defaultCheckResult{Borrower: formatAddress(borrower), BanApplied: applied}, nil
}

func (s *Server) handleIsBanned(_ *http.Request, req *RPCRequest) (interface{}, *rpcError) {
	var params borrowerParams
	if rpcErr := requireSingleObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	borrower, err := parseAddress(params.Borrower)
	if err != nil {
		return nil, invalidParams("invalid borrower", err.Error())
	}
	banned, err := s.node.IsBanned(borrower)
	if err != nil {
		return nil, engineError(err)
	}
	return banResult{Borrower: formatAddress(borrower), Banned: banned}, nil
}

func (s *Server) handleGetLoan(_ *http.Request, req *RPCRequest) (interface{}, *rpcError) {
	var params borrowerParams
	if rpcErr := requireSingleObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	borrower, err := parseAddress(params.Borrower)
	if err != nil {
		return nil, invalidParams("invalid borrower", err.Error())
	}
	record, err := s.node.Loan(borrower)
	if err != nil {
		return nil, engineError(err)
	}
	if record == nil {
		return nil, &rpcError{HTTPStatus: http.StatusNotFound, Code: codeServerError, Message: "loan not found", Data: formatAddress(borrower)}
	}
	return formatLoan(record), nil
}

func (s *Server) handleUnban(_ *http.Request, req *RPCRequest) (interface{}, *rpcError) {
	var params borrowerParams
	if rpcErr := requireSingleObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	borrower, err := parseAddress(params.Borrower)
	if err != nil {
		return nil, invalidParams("invalid borrower", err.Error())
	}
	if err := s.node.Unban(s.node.Authority(), borrower); err != nil {
		return nil, engineError(err)
	}
	return banResult{Borrower: formatAddress(borrower), Banned: false}, nil
}

func (s *Server) loanResultFor(borrower [20]byte) (interface{}, *rpcError) {
	record, err := s.node.Loan(borrower)
	if err != nil {
		return nil, engineError(err)
	}
	if record == nil {
		return nil, &rpcError{HTTPStatus: http.StatusInternalServerError, Code: codeServerError, Message: "loan record missing"}
	}
	return formatLoan(record), nil
}

func formatLoan(record *loan.Loan) loanResult {
	return loanResult{
		Borrower:       formatAddress(record.Borrower),
		PrincipalWei:   formatAmount(record.PrincipalWei),
		OutstandingWei: formatAmount(record.OutstandingWei),
		StartTime:      record.StartTime,
		DueTime:        record.DueTime,
		Active:         record.Active,
	}
}
