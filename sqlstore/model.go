package sqlstore

import (
	"fmt"

	"github.com/uptrace/bun"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/relmq/relmq"
	"github.com/relmq/relmq/message"
)

type queueModel struct {
	bun.BaseModel `bun:"table:relmq_queues"`

	ID       string `bun:"id,pk"`
	Queue    string `bun:"queue,notnull"`
	Priority int64  `bun:"priority,notnull"`
	Seq      int64  `bun:"seq,autoincrement"`
	Headers  []byte `bun:"headers,type:blob"`
	Body     []byte `bun:"body,type:blob"`
}

type topicModel struct {
	bun.BaseModel `bun:"table:relmq_topics"`

	Topic   string `bun:"topic,pk"`
	ID      string `bun:"id,notnull"`
	Headers []byte `bun:"headers,type:blob"`
	Body    []byte `bun:"body,type:blob"`
}

func encodeHeaders(headers map[string]message.Value) ([]byte, error) {
	return msgpack.Marshal(headers)
}

func decodeHeaders(data []byte) (map[string]message.Value, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var headers map[string]message.Value
	if err := msgpack.Unmarshal(data, &headers); err != nil {
		return nil, fmt.Errorf("%w: decode headers: %v", relmq.ErrStoreCorrupt, err)
	}
	return headers, nil
}

func (qm *queueModel) toMessage() (*message.Message, error) {
	headers, err := decodeHeaders(qm.Headers)
	if err != nil {
		return nil, err
	}
	return &message.Message{Id: qm.ID, Headers: headers, Body: qm.Body}, nil
}

func fromInsert(queue string, msg message.Message, seq int64) (*queueModel, error) {
	headers, err := encodeHeaders(msg.Headers)
	if err != nil {
		return nil, err
	}
	priority := msg.Get(message.HeaderPriority).IntVal()
	return &queueModel{
		ID:       msg.Id,
		Queue:    queue,
		Priority: priority,
		Seq:      seq,
		Headers:  headers,
		Body:     msg.Body,
	}, nil
}

func (tm *topicModel) toMessage() (*message.Message, error) {
	headers, err := decodeHeaders(tm.Headers)
	if err != nil {
		return nil, err
	}
	return &message.Message{Id: tm.ID, Headers: headers, Body: tm.Body}, nil
}

func fromTopicInsert(topic string, msg message.Message) (*topicModel, error) {
	headers, err := encodeHeaders(msg.Headers)
	if err != nil {
		return nil, err
	}
	return &topicModel{Topic: topic, ID: msg.Id, Headers: headers, Body: msg.Body}, nil
}
