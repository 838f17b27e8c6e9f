package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.opentelemetry.io/otel/attribute"

	"github.com/chainkit-labs/bcos-sdk/pkg/abi"
	"github.com/chainkit-labs/bcos-sdk/pkg/log"
	"github.com/chainkit-labs/bcos-sdk/pkg/tx"
)

// CallResponse is the result of a read-only call. Output is nil when the
// function returned nothing.
type CallResponse struct {
	Status             string
	CurrentBlockNumber string
	Output             []any
}

// DeployResult summarises the receipt of a deployment.
type DeployResult struct {
	Status          string `json:"status"`
	TransactionHash string `json:"transactionHash"`
	ContractAddress string `json:"contractAddress"`
}

type callParams struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
	Data  string `json:"data"`
}

type callResult struct {
	CurrentBlockNumber string `json:"currentBlockNumber"`
	Output             string `json:"output"`
	Status             string `json:"status"`
}

func (s *Service) checkContract(contract *abi.Contract) error {
	if contract.CryptoType() != s.signer.CryptoType() {
		return fmt.Errorf("%w: contract %s, account %s", ErrCryptoMismatch, contract.CryptoType(), s.signer.CryptoType())
	}
	return nil
}

// Call runs function on the contract at to without creating a transaction.
// A reverted call yields *abi.RevertError.
func (s *Service) Call(ctx context.Context, contract *abi.Contract, to, function string, args ...any) (_ *CallResponse, err error) {
	ctx, span := s.startSpan(ctx, "call", attribute.String("to", to), attribute.String("function", function))
	defer func() { endSpan(span, err) }()

	if err := s.checkContract(contract); err != nil {
		return nil, err
	}
	data, err := contract.EncodeFunctionInput(function, args...)
	if err != nil {
		return nil, err
	}

	var res callResult
	err = fetchInto(ctx, s, "call", &res, callParams{
		From:  strings.ToLower(s.signer.Address().Hex()),
		To:    to,
		Value: "0x0",
		Data:  hexutil.Encode(data),
	})
	if err != nil {
		return nil, err
	}

	output, err := contract.DecodeOutput(function, res.Output)
	if err != nil {
		return nil, err
	}
	log.FromContext(ctx).Debug("call done", "status", res.Status, "block", res.CurrentBlockNumber)
	return &CallResponse{
		Status:             res.Status,
		CurrentBlockNumber: res.CurrentBlockNumber,
		Output:             output,
	}, nil
}

func fetchInto(ctx context.Context, s *Service, method string, out any, params ...any) error {
	raw, err := s.fetch(ctx, method, params...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

// SendRawTransaction signs a call of function and submits it. It returns
// the transaction hash without waiting for inclusion.
func (s *Service) SendRawTransaction(ctx context.Context, contract *abi.Contract, to, function string, args ...any) (string, error) {
	return s.sendTransaction(ctx, "sendRawTransaction", contract, to, function, args)
}

// SendRawTransactionAndGetProof is SendRawTransaction with the node
// attaching inclusion proofs to the receipt.
func (s *Service) SendRawTransactionAndGetProof(ctx context.Context, contract *abi.Contract, to, function string, args ...any) (string, error) {
	return s.sendTransaction(ctx, "sendRawTransactionAndGetProof", contract, to, function, args)
}

func (s *Service) sendTransaction(ctx context.Context, method string, contract *abi.Contract, to, function string, args []any) (_ string, err error) {
	ctx, span := s.startSpan(ctx, method, attribute.String("to", to), attribute.String("function", function))
	defer func() { endSpan(span, err) }()

	if err := s.checkContract(contract); err != nil {
		return "", err
	}
	if !common.IsHexAddress(to) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, to)
	}
	data, err := contract.EncodeFunctionInput(function, args...)
	if err != nil {
		return "", err
	}
	addr := common.HexToAddress(to)
	return s.submit(ctx, method, &addr, data)
}

// submit builds a transaction on top of the current height, signs it and
// posts it with method.
func (s *Service) submit(ctx context.Context, method string, to *common.Address, data []byte) (string, error) {
	height, err := s.GetBlockNumber(ctx)
	if err != nil {
		return "", err
	}
	n, err := tx.ParseBlockHeight(height)
	if err != nil {
		return "", err
	}

	signed, err := tx.New(n, to, data, int64(s.chainID), int64(s.groupID)).Sign(s.signer)
	if err != nil {
		return "", err
	}
	raw, err := signed.Hex()
	if err != nil {
		return "", err
	}

	txHash, err := fetchAs[string](ctx, s, method, raw)
	if err != nil {
		return "", err
	}
	log.FromContext(ctx).Info("transaction submitted", "method", method, "tx", txHash, "blockLimit", signed.BlockLimit)
	return txHash, nil
}

// Deploy submits the contract's bytecode with constructor args and waits
// for the receipt. If none arrives within the service timeout it returns
// *TimeoutError.
func (s *Service) Deploy(ctx context.Context, contract *abi.Contract, args ...any) (_ *DeployResult, err error) {
	ctx, span := s.startSpan(ctx, "deploy", attribute.String("contract", contract.Name))
	defer func() { endSpan(span, err) }()

	if err := s.checkContract(contract); err != nil {
		return nil, err
	}
	data, err := contract.EncodeConstructorInput(args...)
	if err != nil {
		return nil, err
	}
	txHash, err := s.submit(ctx, "sendRawTransactionAndGetProof", nil, data)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("tx", txHash))

	receipt, err := s.waitReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}
	var res DeployResult
	if err := json.Unmarshal(receipt, &res); err != nil {
		return nil, fmt.Errorf("failed to decode receipt of %s: %w", txHash, err)
	}
	log.FromContext(ctx).Info("contract deployed", "tx", txHash, "address", res.ContractAddress, "status", res.Status)
	return &res, nil
}

func (s *Service) waitReceipt(ctx context.Context, txHash string) (json.RawMessage, error) {
	started := time.Now()
	for time.Since(started) < s.timeout {
		receipt, err := s.GetTransactionReceipt(ctx, txHash)
		if err != nil {
			return nil, err
		}
		s.metrics.ObserveReceiptPoll()
		if !isNull(receipt) {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
	return nil, &TimeoutError{TxHash: txHash, Timeout: s.timeout}
}
