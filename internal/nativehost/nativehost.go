// Package nativehost speaks the browser native-messaging protocol: each
// message is a 4-byte little-endian length followed by that many bytes of
// UTF-8 JSON, on stdin and stdout.
package nativehost

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/AbduSami-bK/contact-manager/internal/messaging"
)

const (
	// MaxIncoming is the largest message accepted from the browser.
	MaxIncoming = 64 << 20
	// MaxOutgoing is the largest message the browser accepts from a host.
	MaxOutgoing = 1 << 20
)

var (
	ErrTooLarge  = errors.New("nativehost: message exceeds size limit")
	ErrTruncated = errors.New("nativehost: truncated message")
)

// ReadMessage reads one framed message. It returns io.EOF when r ends
// cleanly between messages.
func ReadMessage(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}

	n := binary.LittleEndian.Uint32(header[:])
	if n > MaxIncoming {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}
	return body, nil
}

// WriteMessage frames and writes one message.
func WriteMessage(w io.Writer, body []byte) error {
	if len(body) > MaxOutgoing {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, len(body))
	}
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(body)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// Host answers messages from one browser session.
type Host struct {
	dispatcher *messaging.Dispatcher
	log        zerolog.Logger
}

func New(d *messaging.Dispatcher, log zerolog.Logger) *Host {
	return &Host{dispatcher: d, log: log.With().Str("component", "nativehost").Logger()}
}

// Serve reads requests from r and writes responses to w until r is
// exhausted or ctx is cancelled. A clean EOF returns nil.
func (h *Host) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	h.log.Debug().Msg("session started")
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		raw, err := ReadMessage(r)
		if errors.Is(err, io.EOF) {
			h.log.Debug().Msg("session ended")
			return nil
		}
		if err != nil {
			return err
		}

		resp := h.dispatcher.HandleRaw(ctx, raw)
		if err := h.reply(w, resp); err != nil {
			return err
		}
	}
}

func (h *Host) reply(w io.Writer, resp messaging.Response) error {
	body, err := json.Marshal(resp)
	if err != nil {
		body, _ = json.Marshal(messaging.Response{Error: fmt.Sprintf("encode response: %v", err)})
	}
	if len(body) > MaxOutgoing {
		h.log.Warn().Int("bytes", len(body)).Msg("response too large for native messaging")
		body, _ = json.Marshal(messaging.Response{
			Error: fmt.Sprintf("response of %d bytes exceeds the %d byte native messaging limit", len(body), MaxOutgoing),
		})
	}
	return WriteMessage(w, body)
}

// IsBrowserLaunch reports whether args look like a browser starting us as a
// native-messaging host. Chromium passes the caller origin
// (chrome-extension://id/). Firefox passes the manifest path followed by the
// extension id.
func IsBrowserLaunch(args []string) bool {
	if len(args) == 0 {
		return false
	}
	if strings.HasPrefix(args[0], "chrome-extension://") {
		return true
	}
	return len(args) >= 2 && strings.HasSuffix(args[0], ".json") && !strings.HasPrefix(args[1], "-")
}
