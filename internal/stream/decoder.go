// Package stream incrementally parses newline-delimited completion events.
//
// The upstream framing is SSE-style: each event is a "data: <json>" line
// carrying a text delta, terminated by a "data: [DONE]" sentinel. Lines may
// be split across network reads, so the decoder keeps an unconsumed buffer
// and treats a JSON parse failure on a cut line as evidence the line was
// incomplete, pushing the fragment back for more bytes.
package stream

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

const dataPrefix = "data: "

const doneSentinel = "[DONE]"

// completionEvent mirrors the delta payload of an OpenAI-style streamed
// chat completion. Absent fields simply yield no delta.
type completionEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Decoder is a pull-based reader of text deltas over a raw byte stream.
type Decoder struct {
	r      io.Reader
	buf    strings.Builder
	chunk  []byte
	done   bool
	hitEOF bool
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, chunk: make([]byte, 4096)}
}

// Next returns the next non-empty text delta. It returns io.EOF once the
// stream is exhausted or the termination sentinel has been seen.
func (d *Decoder) Next() (string, error) {
	for {
		if d.done {
			return "", io.EOF
		}

		if delta, ok := d.cutDelta(false); ok {
			if delta != "" {
				return delta, nil
			}
			continue
		}

		if d.hitEOF {
			// Stream ended with unparsed residue; one best-effort pass
			// over whatever remains, then give up silently.
			for !d.done {
				delta, ok := d.cutDelta(true)
				if !ok {
					break
				}
				if delta != "" {
					return delta, nil
				}
			}
			d.done = true
			return "", io.EOF
		}

		n, err := d.r.Read(d.chunk)
		if n > 0 {
			d.buf.Write(d.chunk[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return "", err
			}
			d.hitEOF = true
		}
	}
}

// cutDelta tries to cut one complete line off the buffer and parse it.
// The bool result reports whether a line was consumed; final forces
// consumption of a trailing unterminated line at end of stream.
func (d *Decoder) cutDelta(final bool) (string, bool) {
	buffered := d.buf.String()

	idx := strings.IndexByte(buffered, '\n')
	var line, rest string
	switch {
	case idx >= 0:
		line, rest = buffered[:idx], buffered[idx+1:]
	case final && strings.TrimSpace(buffered) != "":
		line, rest = buffered, ""
	default:
		return "", false
	}

	d.buf.Reset()
	d.buf.WriteString(rest)

	line = strings.TrimSuffix(line, "\r")
	if line == "" || strings.HasPrefix(line, ":") {
		return "", true
	}
	if !strings.HasPrefix(line, dataPrefix) {
		return "", true
	}

	payload := strings.TrimSpace(line[len(dataPrefix):])
	if payload == doneSentinel {
		d.done = true
		return "", true
	}

	var ev completionEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		if final {
			// Residue never became valid JSON; drop it.
			return "", true
		}
		// Incomplete line: push the fragment back and wait for more bytes.
		joined := line + "\n" + rest
		d.buf.Reset()
		d.buf.WriteString(joined)
		return "", false
	}

	if len(ev.Choices) == 0 {
		return "", true
	}
	return ev.Choices[0].Delta.Content, true
}

// Collect drains the decoder and concatenates every delta.
func (d *Decoder) Collect() (string, error) {
	var out strings.Builder
	for {
		delta, err := d.Next()
		if errors.Is(err, io.EOF) {
			return out.String(), nil
		}
		if err != nil {
			return out.String(), err
		}
		out.WriteString(delta)
	}
}

// Copy streams deltas into w as they arrive, one Write per delta,
// flushing after each when w supports it. Returns the assembled full text.
func Copy(w io.Writer, d *Decoder) (string, error) {
	var out strings.Builder
	bw, _ := w.(interface{ Flush() })
	for {
		delta, err := d.Next()
		if errors.Is(err, io.EOF) {
			return out.String(), nil
		}
		if err != nil {
			return out.String(), err
		}
		if _, werr := io.WriteString(w, delta); werr != nil {
			return out.String(), werr
		}
		if bw != nil {
			bw.Flush()
		}
		out.WriteString(delta)
	}
}
