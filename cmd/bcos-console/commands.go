package main

import (
	"github.com/c-bata/go-prompt"
)

type command struct {
	Name  string
	Args  string
	Usage string
}

var commands = []command{
	{"help", "", "Show the command list"},
	{"set_config", "<config_path>", "Reload the client from another config file"},
	{"exit", "", "Exit the console"},

	{"get_client_version", "", "Node version information"},
	{"get_block_number", "", "Latest block height of the group"},
	{"get_pbft_view", "", "Current PBFT view"},
	{"get_sealer_list", "", "Sealer node ids"},
	{"get_observer_list", "", "Observer node ids"},
	{"get_consensus_status", "", "Consensus status"},
	{"get_sync_status", "", "Block sync status"},
	{"get_peers", "", "Connected peers of the node"},
	{"get_group_peers", "", "Sealers and observers of the group"},
	{"get_node_id_list", "", "Node ids of the node and its peers"},
	{"get_group_list", "", "Groups the node belongs to"},
	{"get_block_by_hash", "<block_hash> <include_transactions>", "Block by hash"},
	{"get_block_by_number", "<block_number> <include_transactions>", "Block by number"},
	{"get_block_header_by_hash", "<block_hash> <include_signatures>", "Block header by hash"},
	{"get_block_header_by_number", "<block_number> <include_signatures>", "Block header by number"},
	{"get_block_hash_by_number", "<block_number>", "Block hash by number"},
	{"get_transaction_by_hash", "<tx_hash>", "Transaction by hash"},
	{"get_transaction_by_block_hash_and_index", "<block_hash> <index>", "Transaction by block hash and index"},
	{"get_transaction_by_block_number_and_index", "<block_number> <index>", "Transaction by block number and index"},
	{"get_transaction_receipt", "<tx_hash>", "Transaction receipt"},
	{"get_pending_transactions", "", "Transactions waiting in the pool"},
	{"get_pending_tx_size", "", "Size of the transaction pool"},
	{"get_code", "<address>", "Contract code at an address"},
	{"get_total_transaction_count", "", "Transaction count and block height"},
	{"get_system_config_by_key", "<key>", "System config value"},
	{"call", "<abi_path> <to> <function> [args...]", "Call a contract function without a transaction"},
	{"send_raw_transaction", "<abi_path> <to> <function> [args...]", "Send a signed transaction"},
	{"send_raw_transaction_and_get_proof", "<abi_path> <to> <function> [args...]", "Send a signed transaction and get its proof"},
	{"deploy", "<bin_path> <abi_path> [args...]", "Deploy a contract and wait for its receipt"},
	{"get_transaction_by_hash_with_proof", "<tx_hash>", "Transaction with its merkle proof"},
	{"get_transaction_receipt_by_hash_with_proof", "<tx_hash>", "Receipt with its merkle proof"},
	{"generate_group", "<genesis_json>", "Create a group from a genesis description"},
	{"start_group", "", "Start the group"},
	{"stop_group", "", "Stop the group"},
	{"remove_group", "", "Remove the group"},
	{"recover_group", "", "Recover a removed group"},
	{"query_group_status", "", "Group status"},
	{"get_node_info", "", "Node information"},
	{"get_batch_receipts_by_block_number_and_range", "<block_number> <from> <count> <compress>", "Receipts of a block range by number"},
	{"get_batch_receipts_by_block_hash_and_range", "<block_hash> <from> <count> <compress>", "Receipts of a block range by hash"},
	{"listen_block_notify", "<seconds>", "Print block notifications of the group for a while"},
}

func (c *Console) Complete(d prompt.Document) []prompt.Suggest {
	return prompt.FilterHasPrefix(c.complete(d), d.GetWordBeforeCursor(), true)
}

func (c *Console) complete(d prompt.Document) []prompt.Suggest {
	args := splitCommand(d.TextBeforeCursor())
	if len(args) > 1 || (len(args) == 1 && d.GetWordBeforeCursor() == "") {
		return nil // Only command names are suggested
	}

	suggestions := make([]prompt.Suggest, 0, len(commands))
	for _, cmd := range commands {
		suggestions = append(suggestions, prompt.Suggest{Text: cmd.Name, Description: cmd.Usage})
	}
	return suggestions
}
