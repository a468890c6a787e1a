package rpc

import (
	"net/http"
)

type setOracleParams struct {
	Oracle string `json:"oracle"`
}

type setMinScoreParams struct {
	MinScore uint64 `json:"minScore"`
}

type setDepositLockParams struct {
	LockSeconds uint64 `json:"lockSeconds"`
}

type policyResult struct {
	OracleAddress      string `json:"oracleAddress,omitempty"`
	OracleEnabled      bool   `json:"oracleEnabled"`
	MinScoreToBorrow   uint64 `json:"minScoreToBorrow"`
	DepositLockSeconds uint64 `json:"depositLockSeconds"`
}

type poolStatsResult struct {
	NetDepositsWei      string `json:"netDepositsWei"`
	LiquidityWei        string `json:"liquidityWei"`
	LoansOutstandingWei string `json:"loansOutstandingWei"`
}

type eventsParams struct {
	From  uint64 `json:"from"`
	Limit int    `json:"limit"`
}

type eventResult struct {
	Sequence   uint64            `json:"sequence"`
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

func (s *Server) handleGetPolicy(_ *http.Request, req *RPCRequest) (interface{}, *rpcError) {
	if rpcErr := requireNoParams(req); rpcErr != nil {
		return nil, rpcErr
	}
	current, err := s.node.Policy()
	if err != nil {
		return nil, engineError(err)
	}
	result := policyResult{
		OracleEnabled:      current.OracleEnabled(),
		MinScoreToBorrow:   current.MinScoreToBorrow,
		DepositLockSeconds: current.DepositLockSeconds,
	}
	if current.OracleEnabled() {
		result.OracleAddress = formatAddress(current.OracleAddress)
	}
	return result, nil
}

func (s *Server) handlePoolStats(_ *http.Request, req *RPCRequest) (interface{}, *rpcError) {
	if rpcErr := requireNoParams(req); rpcErr != nil {
		return nil, rpcErr
	}
	pool, err := s.node.PoolStats()
	if err != nil {
		return nil, engineError(err)
	}
	return poolStatsResult{
		NetDepositsWei:      formatAmount(pool.NetDepositsWei),
		LiquidityWei:        formatAmount(pool.LiquidityWei),
		LoansOutstandingWei: formatAmount(pool.LoansOutstandingWei),
	}, nil
}

func (s *Server) handleEvents(_ *http.Request, req *RPCRequest) (interface{}, *rpcError) {
	params := eventsParams{}
	if len(req.Params) > 0 {
		if rpcErr := requireSingleObject(req, &params); rpcErr != nil {
			return nil, rpcErr
		}
	}
	entries := s.node.Events(params.From, params.Limit)
	results := make([]eventResult, 0, len(entries))
	for _, entry := range entries {
		results = append(results, eventResult{
			Sequence:   entry.Sequence,
			ID:         entry.ID,
			Type:       entry.Event.Type,
			Attributes: entry.Event.Attributes,
		})
	}
	return results, nil
}

func (s *Server) handleSetOracle(_ *http.Request, req *RPCRequest) (interface{}, *rpcError) {
	var params setOracleParams
	if rpcErr := requireSingleObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	// An empty oracle value clears the address and disables gating.
	var oracle [20]byte
	if params.Oracle != "" {
		parsed, err := parseAddress(params.Oracle)
		if err != nil {
			return nil, invalidParams("invalid oracle", err.Error())
		}
		oracle = parsed
	}
	if err := s.node.SetOraclePolicy(s.node.Authority(), oracle); err != nil {
		return nil, engineError(err)
	}
	return s.policySnapshot()
}

func (s *Server) handleSetMinScore(_ *http.Request, req *RPCRequest) (interface{}, *rpcError) {
	var params setMinScoreParams
	if rpcErr := requireSingleObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.node.SetMinScore(s.node.Authority(), params.MinScore); err != nil {
		return nil, engineError(err)
	}
	return s.policySnapshot()
}

func (s *Server) handleSetDepositLock(_ *http.Request, req *RPCRequest) (interface{}, *rpcError) {
	var params setDepositLockParams
	if rpcErr := requireSingleObject(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.node.SetDepositLock(s.node.Authority(), params.LockSeconds); err != nil {
		return nil, engineError(err)
	}
	return s.policySnapshot()
}

func (s *Server) policySnapshot() (interface{}, *rpcError) {
	current, err := s.node.Policy()
	if err != nil {
		return nil, engineError(err)
	}
	result := policyResult{
		OracleEnabled:      current.OracleEnabled(),
		MinScoreToBorrow:   current.MinScoreToBorrow,
		DepositLockSeconds: current.DepositLockSeconds,
	}
	if current.OracleEnabled() {
		result.OracleAddress = formatAddress(current.OracleAddress)
	}
	return result, nil
}
