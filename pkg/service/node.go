package service

import (
	"context"
	"encoding/json"

	"github.com/chainkit-labs/bcos-sdk/pkg/rpc"
)

func (s *Service) GetClientVersion(ctx context.Context) (json.RawMessage, error) {
	return s.fetch(ctx, "getClientVersion")
}

// GetBlockNumber returns the current height as a 0x-hex string.
func (s *Service) GetBlockNumber(ctx context.Context) (string, error) {
	return fetchAs[string](ctx, s, "getBlockNumber")
}

func (s *Service) GetPbftView(ctx context.Context) (string, error) {
	return fetchAs[string](ctx, s, "getPbftView")
}

func (s *Service) GetSealerList(ctx context.Context) ([]string, error) {
	return fetchAs[[]string](ctx, s, "getSealerList")
}

func (s *Service) GetObserverList(ctx context.Context) ([]string, error) {
	return fetchAs[[]string](ctx, s, "getObserverList")
}

func (s *Service) GetConsensusStatus(ctx context.Context) (json.RawMessage, error) {
	return s.fetch(ctx, "getConsensusStatus")
}

func (s *Service) GetSyncStatus(ctx context.Context) (json.RawMessage, error) {
	return s.fetch(ctx, "getSyncStatus")
}

func (s *Service) GetPeers(ctx context.Context) ([]json.RawMessage, error) {
	return fetchAs[[]json.RawMessage](ctx, s, "getPeers")
}

func (s *Service) GetGroupPeers(ctx context.Context) ([]string, error) {
	return fetchAs[[]string](ctx, s, "getGroupPeers")
}

func (s *Service) GetNodeIDList(ctx context.Context) ([]string, error) {
	return fetchAs[[]string](ctx, s, "getNodeIDList")
}

// GetGroupList is not scoped to a group; its params are null.
func (s *Service) GetGroupList(ctx context.Context) ([]string, error) {
	var groups []string
	err := rpc.Call(ctx, s.fetcher, rpc.NewRequest("getGroupList", nil), &groups)
	return groups, err
}

func (s *Service) GetBlockByHash(ctx context.Context, blockHash string, includeTransactions bool) (json.RawMessage, error) {
	return s.fetch(ctx, "getBlockByHash", blockHash, includeTransactions)
}

func (s *Service) GetBlockByNumber(ctx context.Context, blockNumber string, includeTransactions bool) (json.RawMessage, error) {
	return s.fetch(ctx, "getBlockByNumber", blockNumber, includeTransactions)
}

func (s *Service) GetBlockHeaderByHash(ctx context.Context, blockHash string, includeTransactions bool) (json.RawMessage, error) {
	return s.fetch(ctx, "getBlockHeaderByHash", blockHash, includeTransactions)
}

func (s *Service) GetBlockHeaderByNumber(ctx context.Context, blockNumber string, includeTransactions bool) (json.RawMessage, error) {
	return s.fetch(ctx, "getBlockHeaderByNumber", blockNumber, includeTransactions)
}

func (s *Service) GetBlockHashByNumber(ctx context.Context, blockNumber string) (string, error) {
	return fetchAs[string](ctx, s, "getBlockHashByNumber", blockNumber)
}

func (s *Service) GetTransactionByHash(ctx context.Context, txHash string) (json.RawMessage, error) {
	return s.fetch(ctx, "getTransactionByHash", txHash)
}

func (s *Service) GetTransactionByBlockHashAndIndex(ctx context.Context, blockHash, index string) (json.RawMessage, error) {
	return s.fetch(ctx, "getTransactionByBlockHashAndIndex", blockHash, index)
}

func (s *Service) GetTransactionByBlockNumberAndIndex(ctx context.Context, blockNumber, index string) (json.RawMessage, error) {
	return s.fetch(ctx, "getTransactionByBlockNumberAndIndex", blockNumber, index)
}

// GetTransactionReceipt returns null while the transaction is pending.
func (s *Service) GetTransactionReceipt(ctx context.Context, txHash string) (json.RawMessage, error) {
	return s.fetch(ctx, "getTransactionReceipt", txHash)
}

func (s *Service) GetPendingTransactions(ctx context.Context) (json.RawMessage, error) {
	return s.fetch(ctx, "getPendingTransactions")
}

func (s *Service) GetPendingTxSize(ctx context.Context) (string, error) {
	return fetchAs[string](ctx, s, "getPendingTxSize")
}

func (s *Service) GetCode(ctx context.Context, address string) (string, error) {
	return fetchAs[string](ctx, s, "getCode", address)
}

func (s *Service) GetTotalTransactionCount(ctx context.Context) (json.RawMessage, error) {
	return s.fetch(ctx, "getTotalTransactionCount")
}

func (s *Service) GetSystemConfigByKey(ctx context.Context, key string) (string, error) {
	return fetchAs[string](ctx, s, "getSystemConfigByKey", key)
}

func (s *Service) GetTransactionByHashWithProof(ctx context.Context, txHash string) (json.RawMessage, error) {
	return s.fetch(ctx, "getTransactionByHashWithProof", txHash)
}

func (s *Service) GetTransactionReceiptByHashWithProof(ctx context.Context, txHash string) (json.RawMessage, error) {
	return s.fetch(ctx, "getTransactionReceiptByHashWithProof", txHash)
}

// GetNodeInfo is not scoped to a group; its params are null.
func (s *Service) GetNodeInfo(ctx context.Context) (json.RawMessage, error) {
	return s.fetcher.Fetch(ctx, rpc.NewRequest("getNodeInfo", nil))
}

// GetBatchReceiptsByBlockNumberAndRange returns count receipts of the block
// starting at index from. A count of -1 means all remaining receipts.
func (s *Service) GetBatchReceiptsByBlockNumberAndRange(ctx context.Context, blockNumber string, from uint32, count int32, compress bool) (json.RawMessage, error) {
	return s.fetch(ctx, "getBatchReceiptsByBlockNumberAndRange", blockNumber, from, count, compress)
}

func (s *Service) GetBatchReceiptsByBlockHashAndRange(ctx context.Context, blockHash string, from uint32, count int32, compress bool) (json.RawMessage, error) {
	return s.fetch(ctx, "getBatchReceiptsByBlockHashAndRange", blockHash, from, count, compress)
}
