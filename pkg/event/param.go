package event

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// LatestBlock is the default range bound of an EventLogParam.
const LatestBlock = "latest"

// EventLogParam is the filter of an event-log subscription. It is safe for
// concurrent use.
type EventLogParam struct {
	filterID string

	mu        sync.RWMutex
	fromBlock string
	toBlock   string
	addresses []string
	topics    []string
}

// NewEventLogParam returns a filter over the latest block with a fresh id.
func NewEventLogParam() *EventLogParam {
	return &EventLogParam{
		filterID:  strings.ReplaceAll(uuid.NewString(), "-", ""),
		fromBlock: LatestBlock,
		toBlock:   LatestBlock,
	}
}

func (p *EventLogParam) FilterID() string { return p.filterID }

func (p *EventLogParam) FromBlock() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.fromBlock
}

func (p *EventLogParam) SetFromBlock(block string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fromBlock = block
}

func (p *EventLogParam) ToBlock() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.toBlock
}

func (p *EventLogParam) SetToBlock(block string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.toBlock = block
}

func (p *EventLogParam) Addresses() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.addresses)
}

func (p *EventLogParam) AddAddress(addr string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.addresses = append(p.addresses, addr)
}

// RemoveAddress drops every occurrence of addr.
func (p *EventLogParam) RemoveAddress(addr string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.addresses = slices.DeleteFunc(p.addresses, func(a string) bool { return a == addr })
}

func (p *EventLogParam) Topics() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.topics)
}

func (p *EventLogParam) AddTopic(topic string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
}

// RemoveTopic drops every occurrence of topic.
func (p *EventLogParam) RemoveTopic(topic string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = slices.DeleteFunc(p.topics, func(t string) bool { return t == topic })
}

type registerRequest struct {
	FromBlock string   `json:"fromBlock"`
	ToBlock   string   `json:"toBlock"`
	Addresses []string `json:"addresses"`
	Topics    []string `json:"topics"`
	GroupID   string   `json:"groupID"`
	FilterID  string   `json:"filterID"`
}

// registerJSON is the body of the ClientRegisterEventLog request for group.
func (p *EventLogParam) registerJSON(group uint32) ([]byte, error) {
	p.mu.RLock()
	req := registerRequest{
		FromBlock: p.fromBlock,
		ToBlock:   p.toBlock,
		Addresses: nonNil(p.addresses),
		Topics:    nonNil(p.topics),
		GroupID:   strconv.FormatUint(uint64(group), 10),
		FilterID:  p.filterID,
	}
	p.mu.RUnlock()
	return json.Marshal(req)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}
