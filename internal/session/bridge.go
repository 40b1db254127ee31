package session

import (
	"context"
	"io"

	"github.com/codementor-ai/codementor/internal/event"
	"github.com/codementor-ai/codementor/internal/provider"
	"github.com/codementor-ai/codementor/pkg/types"
)

// StreamBufferSize bounds the fragment channel between the provider reader
// and the sink writer. A slow sink applies backpressure to the reader once
// the buffer fills.
const StreamBufferSize = 32

// Sink receives a streamed tutor reply. Exactly one of End or Error
// terminates a stream.
type Sink interface {
	// Send delivers one text fragment.
	Send(delta string) error

	// End signals that the reply finished normally.
	End() error

	// Error signals that the reply aborted. Fragments already sent must
	// be discarded by the student.
	Error(err error) error
}

// streamReply bridges a provider stream into sink and, on success, records
// the accumulated text as one tutor turn. On provider failure no turn is
// appended: the ledger only ever holds complete replies.
func (s *Service) streamReply(ctx context.Context, sess *Session, req *provider.CompletionRequest, sink Sink) error {
	stream, err := s.provider.Stream(ctx, req)
	if err != nil {
		s.failStream(sess, sink, err)
		return err
	}
	defer stream.Close()

	type fragment struct {
		delta string
		err   error
	}
	fragments := make(chan fragment, StreamBufferSize)
	go func() {
		defer close(fragments)
		for {
			delta, err := stream.Recv()
			if err == io.EOF {
				return
			}
			if err != nil {
				fragments <- fragment{err: err}
				return
			}
			fragments <- fragment{delta: delta}
		}
	}()

	var accumulated []byte
	for frag := range fragments {
		if frag.err != nil {
			s.failStream(sess, sink, frag.err)
			return frag.err
		}
		accumulated = append(accumulated, frag.delta...)
		if err := sink.Send(frag.delta); err != nil {
			// The client went away. Abort without recording a turn;
			// the provider stream is torn down by the deferred Close.
			// Drain the channel so the reader goroutine can exit.
			go func() {
				for range fragments {
				}
			}()
			s.log.Warn().Str("sessionID", sess.ID).Err(err).Msg("sink closed mid-stream")
			return err
		}
		event.PublishSync(event.Event{
			Type: event.StreamDelta,
			Data: event.StreamDeltaData{SessionID: sess.ID, Delta: frag.delta},
		})
	}

	text := string(accumulated)
	sess.AppendTurn(types.RoleTutor, text)
	event.PublishSync(event.Event{
		Type: event.StreamEnded,
		Data: event.StreamEndedData{SessionID: sess.ID, Text: text},
	})
	return sink.End()
}

func (s *Service) failStream(sess *Session, sink Sink, err error) {
	s.log.Error().Str("sessionID", sess.ID).Err(err).Msg("streamed reply failed")
	event.PublishSync(event.Event{
		Type: event.StreamFailed,
		Data: event.StreamFailedData{SessionID: sess.ID, Error: err.Error()},
	})
	_ = sink.Error(err)
}
