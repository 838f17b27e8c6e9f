package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/chainkit-labs/bcos-sdk/pkg/abi"
	"github.com/chainkit-labs/bcos-sdk/pkg/config"
	"github.com/chainkit-labs/bcos-sdk/pkg/event"
	"github.com/chainkit-labs/bcos-sdk/pkg/log"
	"github.com/chainkit-labs/bcos-sdk/pkg/metrics"
	"github.com/chainkit-labs/bcos-sdk/pkg/service"
)

var (
	errNoService      = errors.New("client is not initialized, use set_config first")
	errChannelOnly    = errors.New("notifications need the channel service type")
	errUnknownCommand = errors.New("unavailable command")
)

type errArgCount int

func (e errArgCount) Error() string {
	return fmt.Sprintf("argument count should not be less than %d", int(e))
}

// Console runs text commands against one Service.
type Console struct {
	out     io.Writer
	lg      log.Logger
	metrics *metrics.Metrics

	mu   sync.Mutex
	svc  *service.Service
	conf *config.Config

	exitOnce sync.Once
	exitCh   chan struct{}
}

func NewConsole(out io.Writer, lg log.Logger, m *metrics.Metrics) *Console {
	return &Console{
		out:     out,
		lg:      lg,
		metrics: m,
		exitCh:  make(chan struct{}),
	}
}

// SetConfig loads the config at path and replaces the current client.
func (c *Console) SetConfig(ctx context.Context, path string) error {
	conf, err := config.Load(path)
	if err != nil {
		return errors.Wrapf(err, "failed to load config %s", path)
	}
	svc, err := service.NewFromConfig(ctx, conf, service.WithLogger(c.lg), service.WithMetrics(c.metrics))
	if err != nil {
		return errors.Wrap(err, "failed to initialize client")
	}
	c.setService(svc, conf)
	return nil
}

func (c *Console) setService(svc *service.Service, conf *config.Config) {
	c.mu.Lock()
	prev := c.svc
	c.svc, c.conf = svc, conf
	c.mu.Unlock()

	if prev != nil {
		if err := prev.Close(); err != nil {
			c.lg.Warn("failed to close previous client", "err", err)
		}
	}
}

func (c *Console) service() (*service.Service, *config.Config, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.svc == nil {
		return nil, nil, errNoService
	}
	return c.svc, c.conf, nil
}

func (c *Console) Close() {
	c.mu.Lock()
	svc := c.svc
	c.svc = nil
	c.mu.Unlock()
	if svc != nil {
		svc.Close()
	}
}

// Wait is closed once exit has been run.
func (c *Console) Wait() <-chan struct{} {
	return c.exitCh
}

// Execute runs one prompt line and prints its outcome.
func (c *Console) Execute(ctx context.Context, s string) {
	args := splitCommand(s)
	if len(args) == 0 {
		return
	}
	if err := c.Run(ctx, args); err != nil {
		fmt.Fprintf(c.out, "\nError: %s\n\n", err.Error())
	}
}

// Run executes the command args[0] with the remaining arguments.
func (c *Console) Run(ctx context.Context, args []string) error {
	switch args[0] {
	case "help":
		c.printHelp()
		return nil
	case "exit":
		c.exitOnce.Do(func() { close(c.exitCh) })
		return nil
	case "set_config":
		if err := requireArgs(args, 1); err != nil {
			return err
		}
		return c.SetConfig(ctx, args[1])
	}

	svc, conf, err := c.service()
	if err != nil {
		return err
	}

	switch args[0] {
	case "get_client_version":
		return c.print(svc.GetClientVersion(ctx))
	case "get_block_number":
		return c.print(svc.GetBlockNumber(ctx))
	case "get_pbft_view":
		return c.print(svc.GetPbftView(ctx))
	case "get_sealer_list":
		list, err := svc.GetSealerList(ctx)
		return c.printList("Sealer", list, err)
	case "get_observer_list":
		list, err := svc.GetObserverList(ctx)
		return c.printList("Observer", list, err)
	case "get_consensus_status":
		return c.print(svc.GetConsensusStatus(ctx))
	case "get_sync_status":
		return c.print(svc.GetSyncStatus(ctx))
	case "get_peers":
		return c.printPeers(svc.GetPeers(ctx))
	case "get_group_peers":
		list, err := svc.GetGroupPeers(ctx)
		return c.printList("Node ID", list, err)
	case "get_node_id_list":
		list, err := svc.GetNodeIDList(ctx)
		return c.printList("Node ID", list, err)
	case "get_group_list":
		list, err := svc.GetGroupList(ctx)
		return c.printList("Group", list, err)
	case "get_block_by_hash":
		if err := requireArgs(args, 2); err != nil {
			return err
		}
		return c.print(svc.GetBlockByHash(ctx, args[1], parseBool(args[2])))
	case "get_block_by_number":
		if err := requireArgs(args, 2); err != nil {
			return err
		}
		return c.print(svc.GetBlockByNumber(ctx, args[1], parseBool(args[2])))
	case "get_block_header_by_hash":
		if err := requireArgs(args, 2); err != nil {
			return err
		}
		return c.print(svc.GetBlockHeaderByHash(ctx, args[1], parseBool(args[2])))
	case "get_block_header_by_number":
		if err := requireArgs(args, 2); err != nil {
			return err
		}
		return c.print(svc.GetBlockHeaderByNumber(ctx, args[1], parseBool(args[2])))
	case "get_block_hash_by_number":
		if err := requireArgs(args, 1); err != nil {
			return err
		}
		return c.print(svc.GetBlockHashByNumber(ctx, args[1]))
	case "get_transaction_by_hash":
		if err := requireArgs(args, 1); err != nil {
			return err
		}
		return c.print(svc.GetTransactionByHash(ctx, args[1]))
	case "get_transaction_by_block_hash_and_index":
		if err := requireArgs(args, 2); err != nil {
			return err
		}
		return c.print(svc.GetTransactionByBlockHashAndIndex(ctx, args[1], args[2]))
	case "get_transaction_by_block_number_and_index":
		if err := requireArgs(args, 2); err != nil {
			return err
		}
		return c.print(svc.GetTransactionByBlockNumberAndIndex(ctx, args[1], args[2]))
	case "get_transaction_receipt":
		if err := requireArgs(args, 1); err != nil {
			return err
		}
		return c.print(svc.GetTransactionReceipt(ctx, args[1]))
	case "get_pending_transactions":
		return c.print(svc.GetPendingTransactions(ctx))
	case "get_pending_tx_size":
		return c.print(svc.GetPendingTxSize(ctx))
	case "get_code":
		if err := requireArgs(args, 1); err != nil {
			return err
		}
		return c.print(svc.GetCode(ctx, args[1]))
	case "get_total_transaction_count":
		return c.print(svc.GetTotalTransactionCount(ctx))
	case "get_system_config_by_key":
		if err := requireArgs(args, 1); err != nil {
			return err
		}
		return c.print(svc.GetSystemConfigByKey(ctx, args[1]))
	case "call":
		return c.handleCall(ctx, svc, args)
	case "send_raw_transaction", "send_raw_transaction_and_get_proof":
		return c.handleSend(ctx, svc, args)
	case "deploy":
		return c.handleDeploy(ctx, svc, args)
	case "get_transaction_by_hash_with_proof":
		if err := requireArgs(args, 1); err != nil {
			return err
		}
		return c.print(svc.GetTransactionByHashWithProof(ctx, args[1]))
	case "get_transaction_receipt_by_hash_with_proof":
		if err := requireArgs(args, 1); err != nil {
			return err
		}
		return c.print(svc.GetTransactionReceiptByHashWithProof(ctx, args[1]))
	case "generate_group":
		if err := requireArgs(args, 1); err != nil {
			return err
		}
		var genesis service.GroupGenesis
		if err := json.Unmarshal([]byte(strings.Join(args[1:], " ")), &genesis); err != nil {
			return errors.Wrap(err, "invalid group genesis")
		}
		return c.print(svc.GenerateGroup(ctx, genesis))
	case "start_group":
		return c.print(svc.StartGroup(ctx))
	case "stop_group":
		return c.print(svc.StopGroup(ctx))
	case "remove_group":
		return c.print(svc.RemoveGroup(ctx))
	case "recover_group":
		return c.print(svc.RecoverGroup(ctx))
	case "query_group_status":
		return c.print(svc.QueryGroupStatus(ctx))
	case "get_node_info":
		return c.print(svc.GetNodeInfo(ctx))
	case "get_batch_receipts_by_block_number_and_range":
		if err := requireArgs(args, 4); err != nil {
			return err
		}
		from, count, compress := parseRange(args)
		return c.print(svc.GetBatchReceiptsByBlockNumberAndRange(ctx, args[1], from, count, compress))
	case "get_batch_receipts_by_block_hash_and_range":
		if err := requireArgs(args, 4); err != nil {
			return err
		}
		from, count, compress := parseRange(args)
		return c.print(svc.GetBatchReceiptsByBlockHashAndRange(ctx, args[1], from, count, compress))
	case "listen_block_notify":
		if err := requireArgs(args, 1); err != nil {
			return err
		}
		return c.handleListenBlockNotify(ctx, conf, args)
	default:
		return errors.Wrapf(errUnknownCommand, "%q", args[0])
	}
}

// handleCall: call <abi_path> <to> <function> [args...]
func (c *Console) handleCall(ctx context.Context, svc *service.Service, args []string) error {
	if err := requireArgs(args, 3); err != nil {
		return err
	}
	contract, tokens, err := loadFunction(svc, args[1], args[3], args[4:])
	if err != nil {
		return err
	}
	res, err := svc.Call(ctx, contract, args[2], args[3], tokens...)
	if err != nil {
		return err
	}
	return c.printCall(res)
}

// handleSend: send_raw_transaction[_and_get_proof] <abi_path> <to> <function> [args...]
func (c *Console) handleSend(ctx context.Context, svc *service.Service, args []string) error {
	if err := requireArgs(args, 3); err != nil {
		return err
	}
	contract, tokens, err := loadFunction(svc, args[1], args[3], args[4:])
	if err != nil {
		return err
	}
	if args[0] == "send_raw_transaction_and_get_proof" {
		return c.print(svc.SendRawTransactionAndGetProof(ctx, contract, args[2], args[3], tokens...))
	}
	return c.print(svc.SendRawTransaction(ctx, contract, args[2], args[3], tokens...))
}

// handleDeploy: deploy <bin_path> <abi_path> [args...]
func (c *Console) handleDeploy(ctx context.Context, svc *service.Service, args []string) error {
	if err := requireArgs(args, 2); err != nil {
		return err
	}
	contract, err := abi.LoadFile(args[2], args[1], svc.CryptoType())
	if err != nil {
		return err
	}
	tokens, err := contract.ParseConstructorTokens(args[3:])
	if err != nil {
		return err
	}
	res, err := svc.Deploy(ctx, contract, tokens...)
	if err != nil {
		return err
	}
	return c.printDeploy(res)
}

func (c *Console) handleListenBlockNotify(ctx context.Context, conf *config.Config, args []string) error {
	if conf == nil || conf.IsRPC() {
		return errChannelOnly
	}
	seconds, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", args[1])
	}

	listener, err := event.NewListenerFromConfig(conf, event.WithLogger(c.lg), event.WithMetrics(c.metrics))
	if err != nil {
		return err
	}
	listener.RegisterBlockNotifyListener(conf.GroupID, func(n *event.Notification, err error) {
		if err != nil {
			fmt.Fprintf(c.out, "notification error: %s\n", err.Error())
			return
		}
		if n.Block != nil {
			fmt.Fprintf(c.out, "group %d reached block %d\n", n.Block.GroupID, n.Block.BlockHeight)
		}
	})
	defer listener.RemoveBlockNotifyListener(conf.GroupID)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(seconds)*time.Second)
	defer cancel()

	err = listener.RunBlockNotifyLoop(ctx, conf.GroupID, time.Second, event.UnlimitedRetries)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func loadFunction(svc *service.Service, abiPath, function string, params []string) (*abi.Contract, []any, error) {
	contract, err := abi.LoadFile(abiPath, "", svc.CryptoType())
	if err != nil {
		return nil, nil, err
	}
	tokens, err := contract.ParseFunctionTokens(function, params)
	if err != nil {
		return nil, nil, err
	}
	return contract, tokens, nil
}

// requireArgs checks that at least n arguments follow the command name.
func requireArgs(args []string, n int) error {
	if len(args)-1 < n {
		return errArgCount(n)
	}
	return nil
}

func parseBool(s string) bool {
	return strings.EqualFold(s, "true")
}

// parseRange reads <from> <count> <compress> from args[2:5]. Unparsable
// numbers fall back to the whole block.
func parseRange(args []string) (uint32, int32, bool) {
	from, err := strconv.ParseUint(args[2], 10, 32)
	if err != nil {
		from = 0
	}
	count, err := strconv.ParseInt(args[3], 10, 32)
	if err != nil {
		count = -1
	}
	return uint32(from), int32(count), parseBool(args[4])
}
