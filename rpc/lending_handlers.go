package rpc

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"autolend/core/assets"
	"autolend/core/identity"
	"autolend/native/lending"
)

type methodHandler func(w http.ResponseWriter, req *RPCRequest)

func (s *Server) methods() map[string]methodHandler {
	return map[string]methodHandler{
		"lend_register":       s.handleRegister,
		"lend_deposit":        s.handleDeposit,
		"lend_redeem":         s.handleRedeem,
		"lend_borrow":         s.handleBorrow,
		"lend_repay":          s.handleRepay,
		"lend_liquidate":      s.handleLiquidate,
		"lend_getAccount":     s.handleGetAccount,
		"lend_getPool":        s.handleGetPool,
		"lend_setDepositRate": s.handleSetDepositRate,
		"lend_setBorrowRate":  s.handleSetBorrowRate,
	}
}

type accountParams struct {
	Account string `json:"account"`
}

type amountParams struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type liquidateParams struct {
	Liquidator string `json:"liquidator"`
	Target     string `json:"target"`
	Amount     string `json:"amount"`
}

type rateParams struct {
	Rate string `json:"rate"`
}

type registerResult struct {
	Account string `json:"account"`
}

type bucketResult struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

type accountResult struct {
	Account *lending.Account `json:"account"`
}

type poolResult struct {
	Pool *lending.Pool `json:"pool"`
}

func decodeParams(req *RPCRequest, out interface{}) bool {
	if len(req.Params) != 1 {
		return false
	}
	return json.Unmarshal(req.Params[0], out) == nil
}

func parseAmount(raw string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return amount, true
}

func toBucketResult(b assets.Bucket) bucketResult {
	return bucketResult{Denom: b.Denom(), Amount: b.Amount().String()}
}

// mintRequestFunds models the host asset-transfer primitive at the RPC
// boundary: the caller's payment arrives as an ownership-bearing bucket of the
// pool's configured asset.
func (s *Server) mintRequestFunds(amount decimal.Decimal) (assets.Bucket, error) {
	pool, err := s.engine.Pool()
	if err != nil {
		return assets.Bucket{}, err
	}
	return assets.New(pool.Denom, amount)
}

func (s *Server) handleRegister(w http.ResponseWriter, req *RPCRequest) {
	if len(req.Params) != 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no parameters expected", nil)
		return
	}
	result, err := s.run("register", func() (interface{}, error) {
		token, err := s.engine.Register()
		if err != nil {
			return nil, err
		}
		return registerResult{Account: token.String()}, nil
	})
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleDeposit(w http.ResponseWriter, req *RPCRequest) {
	var params amountParams
	if !decodeParams(req, &params) {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "expected {account, amount}", nil)
		return
	}
	amount, ok := parseAmount(params.Amount)
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", params.Amount)
		return
	}
	id := identity.Token(params.Account)
	result, err := s.run("deposit", func() (interface{}, error) {
		funds, err := s.mintRequestFunds(amount)
		if err != nil {
			return nil, err
		}
		if err := s.engine.Deposit(id, funds); err != nil {
			return nil, err
		}
		account, err := s.engine.Account(id)
		if err != nil {
			return nil, err
		}
		return accountResult{Account: account}, nil
	})
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleRedeem(w http.ResponseWriter, req *RPCRequest) {
	var params amountParams
	if !decodeParams(req, &params) {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "expected {account, amount}", nil)
		return
	}
	amount, ok := parseAmount(params.Amount)
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", params.Amount)
		return
	}
	result, err := s.run("redeem", func() (interface{}, error) {
		payout, err := s.engine.Redeem(identity.Token(params.Account), amount)
		if err != nil {
			return nil, err
		}
		return toBucketResult(payout), nil
	})
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleBorrow(w http.ResponseWriter, req *RPCRequest) {
	var params amountParams
	if !decodeParams(req, &params) {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "expected {account, amount}", nil)
		return
	}
	amount, ok := parseAmount(params.Amount)
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", params.Amount)
		return
	}
	result, err := s.run("borrow", func() (interface{}, error) {
		funds, err := s.engine.Borrow(identity.Token(params.Account), amount)
		if err != nil {
			return nil, err
		}
		return toBucketResult(funds), nil
	})
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleRepay(w http.ResponseWriter, req *RPCRequest) {
	var params amountParams
	if !decodeParams(req, &params) {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "expected {account, amount}", nil)
		return
	}
	amount, ok := parseAmount(params.Amount)
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", params.Amount)
		return
	}
	result, err := s.run("repay", func() (interface{}, error) {
		payment, err := s.mintRequestFunds(amount)
		if err != nil {
			return nil, err
		}
		change, err := s.engine.Repay(identity.Token(params.Account), payment)
		if err != nil {
			return nil, err
		}
		return toBucketResult(change), nil
	})
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleLiquidate(w http.ResponseWriter, req *RPCRequest) {
	var params liquidateParams
	if !decodeParams(req, &params) {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "expected {liquidator, target, amount}", nil)
		return
	}
	amount, ok := parseAmount(params.Amount)
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", params.Amount)
		return
	}
	result, err := s.run("liquidate", func() (interface{}, error) {
		repayment, err := s.mintRequestFunds(amount)
		if err != nil {
			return nil, err
		}
		seized, err := s.engine.Liquidate(identity.Token(params.Target), repayment)
		if err != nil {
			return nil, err
		}
		s.logger.Info("position liquidated",
			"liquidator", params.Liquidator,
			"target", params.Target,
			"repaid", amount.String(),
			"seized", seized.Amount().String())
		return toBucketResult(seized), nil
	})
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, req *RPCRequest) {
	var params accountParams
	if !decodeParams(req, &params) {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "expected {account}", nil)
		return
	}
	account, err := s.engine.Account(identity.Token(params.Account))
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, accountResult{Account: account})
}

func (s *Server) handleGetPool(w http.ResponseWriter, req *RPCRequest) {
	if len(req.Params) != 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no parameters expected", nil)
		return
	}
	pool, err := s.engine.Pool()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, poolResult{Pool: pool})
}

// The rate setters are reachable by any caller; no authorization is enforced.
func (s *Server) handleSetDepositRate(w http.ResponseWriter, req *RPCRequest) {
	s.handleSetRate(w, req, "set_deposit_rate", s.engine.SetDepositInterestRate)
}

func (s *Server) handleSetBorrowRate(w http.ResponseWriter, req *RPCRequest) {
	s.handleSetRate(w, req, "set_borrow_rate", s.engine.SetBorrowInterestRate)
}

func (s *Server) handleSetRate(w http.ResponseWriter, req *RPCRequest, op string, set func(decimal.Decimal) error) {
	var params rateParams
	if !decodeParams(req, &params) {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "expected {rate}", nil)
		return
	}
	rate, ok := parseAmount(params.Rate)
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid rate", params.Rate)
		return
	}
	result, err := s.run(op, func() (interface{}, error) {
		if err := set(rate); err != nil {
			return nil, err
		}
		return map[string]string{"rate": rate.String()}, nil
	})
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, result)
}
