package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/chainkit-labs/bcos-sdk/pkg/service"
)

// print writes a single result. JSON results are indented.
func (c *Console) print(v any, err error) error {
	if err != nil {
		return err
	}

	switch v := v.(type) {
	case json.RawMessage:
		var buf bytes.Buffer
		if err := json.Indent(&buf, v, "", "  "); err != nil {
			fmt.Fprintf(c.out, "\n%s\n\n", v)
			return nil
		}
		fmt.Fprintf(c.out, "\n%s\n\n", buf.String())
	default:
		fmt.Fprintf(c.out, "\n%v\n\n", v)
	}
	return nil
}

func (c *Console) printList(header string, items []string, err error) error {
	if err != nil {
		return err
	}

	t := c.newTable()
	t.AppendHeader(table.Row{"#", header})
	t.AppendSeparator()
	for i, item := range items {
		t.AppendRow(table.Row{i, item})
	}
	t.Render()
	return nil
}

type peerInfo struct {
	NodeID    string   `json:"NodeID"`
	IPAndPort string   `json:"IPAndPort"`
	Agency    string   `json:"Agency"`
	Node      string   `json:"Node"`
	Topic     []string `json:"Topic"`
}

func (c *Console) printPeers(peers []json.RawMessage, err error) error {
	if err != nil {
		return err
	}

	t := c.newTable()
	t.AppendHeader(table.Row{"Node ID", "Address", "Agency", "Node"})
	t.AppendSeparator()
	for _, raw := range peers {
		var peer peerInfo
		if err := json.Unmarshal(raw, &peer); err != nil {
			return fmt.Errorf("failed to decode peer: %w", err)
		}
		t.AppendRow(table.Row{peer.NodeID, peer.IPAndPort, peer.Agency, peer.Node})
	}
	t.Render()
	return nil
}

func (c *Console) printCall(res *service.CallResponse) error {
	t := c.newTable()
	t.AppendHeader(table.Row{"Status", "Block", "Output"})
	t.AppendSeparator()
	if len(res.Output) == 0 {
		t.AppendRow(table.Row{res.Status, res.CurrentBlockNumber, ""})
	}
	for i, out := range res.Output {
		if i == 0 {
			t.AppendRow(table.Row{res.Status, res.CurrentBlockNumber, fmt.Sprint(out)})
			continue
		}
		t.AppendRow(table.Row{"", "", fmt.Sprint(out)})
	}
	t.Render()
	return nil
}

func (c *Console) printDeploy(res *service.DeployResult) error {
	t := c.newTable()
	t.AppendHeader(table.Row{"Status", "Transaction Hash", "Contract Address"})
	t.AppendSeparator()
	t.AppendRow(table.Row{res.Status, res.TransactionHash, res.ContractAddress})
	t.Render()
	return nil
}

func (c *Console) printHelp() {
	t := c.newTable()
	t.AppendHeader(table.Row{"Command", "Arguments", "Description"})
	t.AppendSeparator()
	for _, cmd := range commands {
		t.AppendRow(table.Row{cmd.Name, cmd.Args, cmd.Usage})
	}
	t.Render()
}

func (c *Console) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(c.out)
	return t
}
