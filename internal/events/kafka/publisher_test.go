package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sheikh-saqib/money-management-ledger/internal/models/events"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageKeysByFinID(t *testing.T) {
	event := events.TransactionRecorded{
		Action:     events.ActionCreated,
		TxnID:      "t1",
		FinID:      "f1",
		AccountID:  "A",
		Flow:       "debit",
		Amount:     decimal.RequireFromString("12.50"),
		OccurredAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	msg, err := newMessage("ledger.transactions", event)
	require.NoError(t, err)

	assert.Equal(t, "ledger.transactions", msg.Topic)
	assert.Equal(t, []byte("f1"), msg.Key)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "t1", decoded["txn_id"])
	assert.Equal(t, "12.5", decoded["amount"])
}

func TestNewMessageWithoutKey(t *testing.T) {
	msg, err := newMessage("t", map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.Nil(t, msg.Key)
}

func TestNewMessageEncodeError(t *testing.T) {
	_, err := newMessage("t", make(chan int))
	assert.Error(t, err)
}
