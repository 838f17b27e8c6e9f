package channel_test

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainkit-labs/bcos-sdk/pkg/channel"
)

var allTypes = []channel.MessageType{
	channel.TypeRPCRequest,
	channel.TypeClientRegisterEventLog,
	channel.TypeAMOPClientTopics,
	channel.TypeBlockNotify,
	channel.TypeEventLogPush,
}

func TestEncodeDecode(t *testing.T) {
	payloads := [][]byte{
		{},
		[]byte(`{"id":1,"jsonrpc":"2.0","method":"getBlockNumber","params":[1]}`),
		bytes.Repeat([]byte{0xab}, 4096),
	}

	for _, mt := range allTypes {
		for _, payload := range payloads {
			t.Run(mt.String(), func(t *testing.T) {
				raw := channel.Encode(mt, payload)
				require.Len(t, raw, len(payload)+channel.HeaderLen)
				assert.Equal(t, uint32(len(payload)+42), binary.BigEndian.Uint32(raw[:4]))
				assert.Equal(t, uint16(mt), binary.BigEndian.Uint16(raw[4:6]))
				assert.Equal(t, []byte{0, 0, 0, 0}, raw[38:42])

				msg, err := channel.Decode(raw)
				require.NoError(t, err)
				assert.Equal(t, mt, msg.Type)
				assert.Equal(t, payload, msg.Data)
				assert.Len(t, msg.ID, 32)
			})
		}
	}
}

func TestFreshIDs(t *testing.T) {
	a := channel.NewMessage(channel.TypeRPCRequest, nil)
	b := channel.NewMessage(channel.TypeRPCRequest, nil)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Regexp(t, "^[0-9a-f]{32}$", a.ID)
}

func TestDecodeMalformed(t *testing.T) {
	_, err := channel.Decode(make([]byte, 10))
	assert.ErrorIs(t, err, channel.ErrMalformedFrame)

	raw := channel.Encode(channel.TypeRPCRequest, []byte("{}"))
	_, err = channel.Decode(raw[:len(raw)-1])
	assert.ErrorIs(t, err, channel.ErrMalformedFrame)
}

func TestReadMessage(t *testing.T) {
	payload := []byte(`{"id":1,"jsonrpc":"2.0","result":"0x1a"}` + "\n")
	raw := channel.Encode(channel.TypeRPCRequest, payload)

	t.Run("one byte at a time", func(t *testing.T) {
		msg, err := channel.ReadMessage(iotest.OneByteReader(bytes.NewReader(raw)))
		require.NoError(t, err)
		assert.Equal(t, payload, msg.Data)
	})

	t.Run("half reads", func(t *testing.T) {
		msg, err := channel.ReadMessage(iotest.HalfReader(bytes.NewReader(raw)))
		require.NoError(t, err)
		assert.Equal(t, payload, msg.Data)
	})

	t.Run("back to back frames", func(t *testing.T) {
		second := channel.Encode(channel.TypeBlockNotify, []byte{0x01, '1', ',', '9'})
		r := bytes.NewReader(append(append([]byte{}, raw...), second...))

		first, err := channel.ReadMessage(r)
		require.NoError(t, err)
		assert.Equal(t, channel.TypeRPCRequest, first.Type)

		next, err := channel.ReadMessage(r)
		require.NoError(t, err)
		assert.Equal(t, channel.TypeBlockNotify, next.Type)
	})

	t.Run("truncated body", func(t *testing.T) {
		_, err := channel.ReadMessage(bytes.NewReader(raw[:20]))
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("eof", func(t *testing.T) {
		_, err := channel.ReadMessage(bytes.NewReader(nil))
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("undersized length", func(t *testing.T) {
		_, err := channel.ReadMessage(bytes.NewReader([]byte{0, 0, 0, 8, 0, 0, 0, 0}))
		assert.ErrorIs(t, err, channel.ErrMalformedFrame)
	})
}

func TestWriteMessage(t *testing.T) {
	var buf bytes.Buffer
	msg := channel.NewMessage(channel.TypeAMOPClientTopics, []byte(`["_block_notify_1"]`))
	require.NoError(t, channel.WriteMessage(&buf, msg))

	back, err := channel.ReadMessage(&buf)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, back.ID)
	assert.Equal(t, msg.Data, back.Data)
}

func TestAMOP(t *testing.T) {
	packed, err := channel.PackAMOP("topic", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, append([]byte{6}, "topicdata"...), packed)

	topic, data, err := channel.UnpackAMOP(packed)
	require.NoError(t, err)
	assert.Equal(t, "topic", topic)
	assert.Equal(t, []byte("data"), data)

	empty, err := channel.PackAMOP("", []byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, '{', '}'}, empty)

	_, err = channel.PackAMOP(string(make([]byte, 255)), nil)
	assert.ErrorIs(t, err, channel.ErrTopicTooLong)

	_, _, err = channel.UnpackAMOP([]byte{9, 'a'})
	assert.ErrorIs(t, err, channel.ErrMalformedFrame)
}

func TestParseBlockNotify(t *testing.T) {
	tcs := []struct {
		name    string
		payload []byte
		expect  channel.BlockNotify
	}{
		{name: "plain", payload: append([]byte{1}, "1,25"...), expect: channel.BlockNotify{GroupID: 1, BlockHeight: 25}},
		{name: "with topic", payload: append([]byte{4}, "abc2,7"...), expect: channel.BlockNotify{GroupID: 2, BlockHeight: 7}},
		{name: "non numeric", payload: append([]byte{1}, "x,12"...), expect: channel.BlockNotify{GroupID: -1, BlockHeight: 12}},
		{name: "missing height", payload: append([]byte{1}, "3"...), expect: channel.BlockNotify{GroupID: 3, BlockHeight: -1}},
		{name: "empty", payload: nil, expect: channel.BlockNotify{GroupID: -1, BlockHeight: -1}},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, channel.ParseBlockNotify(tc.payload))
		})
	}
}

func TestDecodeContent(t *testing.T) {
	t.Run("rpc response", func(t *testing.T) {
		msg := channel.NewMessage(channel.TypeRPCRequest, []byte(`{"result":"0x1"}`+"\n"))
		content, err := channel.DecodeContent(msg)
		require.NoError(t, err)
		assert.JSONEq(t, `{"result":"0x1"}`, string(content.JSON))
		assert.Nil(t, content.Block)
	})

	t.Run("block notify", func(t *testing.T) {
		msg := channel.NewMessage(channel.TypeBlockNotify, append([]byte{1}, "1,3"...))
		content, err := channel.DecodeContent(msg)
		require.NoError(t, err)
		require.NotNil(t, content.Block)
		assert.Equal(t, int64(3), content.Block.BlockHeight)
	})

	t.Run("event log registration", func(t *testing.T) {
		data, err := channel.PackAMOP("", []byte(`{"filterID":"abc","result":0}`))
		require.NoError(t, err)
		content, err := channel.DecodeContent(channel.NewMessage(channel.TypeClientRegisterEventLog, data))
		require.NoError(t, err)

		var body map[string]any
		require.NoError(t, json.Unmarshal(content.JSON, &body))
		assert.Equal(t, "abc", body["filterID"])
	})

	t.Run("event log push is plain json", func(t *testing.T) {
		msg := channel.NewMessage(channel.TypeEventLogPush, []byte(`{"filterID":"abc","result":0,"logs":[]}`+"\n"))
		content, err := channel.DecodeContent(msg)
		require.NoError(t, err)
		assert.JSONEq(t, `{"filterID":"abc","result":0,"logs":[]}`, string(content.JSON))

		packed, err := channel.PackAMOP("", []byte(`{"filterID":"abc"}`))
		require.NoError(t, err)
		_, err = channel.DecodeContent(channel.NewMessage(channel.TypeEventLogPush, packed))
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := channel.DecodeContent(channel.NewMessage(channel.TypeRPCRequest, []byte("not json")))
		assert.Error(t, err)
	})
}
