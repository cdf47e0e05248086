package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"events-service/internal/domain"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_KeysByRegistration(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisher(w, zap.NewNop())

	err := p.Publish(context.Background(), &RegistrationEvent{
		EventType:      TypeStatusChanged,
		Kind:           domain.KindTeam,
		RegistrationID: 42,
		Status:         domain.StatusDeclined,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	require.Equal(t, "team:42", string(w.msgs[0].Key))
	require.Equal(t, TypeStatusChanged, string(w.msgs[0].Headers[0].Value))

	var got RegistrationEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	require.Equal(t, domain.StatusDeclined, got.Status)
	require.NotZero(t, got.Timestamp)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := NewKafkaPublisher(&fakeWriter{err: errors.New("broker down")}, zap.NewNop())
	err := p.Publish(context.Background(), &RegistrationEvent{EventType: TypeWithdrawn})
	require.ErrorContains(t, err, "broker down")
}
