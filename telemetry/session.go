package telemetry

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/benchlog/logging"
)

// State is the progress of a session load.
type State int

const (
	// Unopened is the state before anything was read.
	Unopened State = iota
	// HeaderRead means the 8 byte version was read.
	HeaderRead
	// LayoutResolved means the sub-tags were read and the version tag names a registered layout.
	LayoutResolved
	// Streaming means records are being decoded.
	Streaming
	// Done means the stream ended on a record boundary.
	Done
	// Failed means the load stopped on an error. Records decoded before the error are kept.
	Failed
)

func (state State) String() string {
	switch state {
	case Unopened:
		return "unopened"
	case HeaderRead:
		return "header_read"
	case LayoutResolved:
		return "layout_resolved"
	case Streaming:
		return "streaming"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session is one loaded log file.
type Session struct {
	Tag     VersionTag
	Layout  *Layout
	Records Sequence
	State   State
	// TimeReconstructed is true when record times were rebuilt from `robot_dt`.
	TimeReconstructed bool
}

// Load reads a tagged log from `reader`. The returned session is never nil. On error the
// session is `Failed` and holds every record decoded before the error.
func Load(ctx context.Context, reader io.Reader, logger logging.Logger) (*Session, error) {
	session := &Session{State: Unopened}
	buffered := bufio.NewReader(reader)

	tag, err := readTag(buffered)
	if err != nil {
		session.State = Failed
		logger.Warnw("Error reading header", "error", err)
		return session, err
	}
	session.Tag = tag
	session.State = HeaderRead

	layout, err := Resolve(tag)
	if err != nil {
		session.State = Failed
		logger.Warnw("Error resolving layout", "tag", tag.String(), "error", err)
		return session, err
	}
	logger.Infow("Resolved layout", "tag", tag.String(), "layout", layout.Name(), "fields", len(layout.Fields()))

	return session, session.stream(ctx, buffered, layout, logger)
}

// LoadUntagged reads a headerless log, whose records all follow `layout`.
func LoadUntagged(ctx context.Context, reader io.Reader, layout *Layout, logger logging.Logger) (*Session, error) {
	session := &Session{Tag: layout.Tag(), State: HeaderRead}
	return session, session.stream(ctx, bufio.NewReader(reader), layout, logger)
}

// LoadFile is `Load` over the file at `path`. The file is closed before returning.
func LoadFile(ctx context.Context, path string, logger logging.Logger) (session *Session, err error) {
	//nolint:gosec
	file, err := os.Open(path)
	if err != nil {
		return &Session{State: Failed}, errors.Wrapf(err, "error opening log %q", path)
	}
	defer func() {
		err = multierr.Combine(err, file.Close())
	}()

	return Load(ctx, file, logger.Sublogger(path))
}

func readTag(reader io.Reader) (VersionTag, error) {
	var header [8]byte
	if n, err := io.ReadFull(reader, header[:]); err != nil {
		return VersionTag{}, headerError("version", 8, n, err)
	}
	tag := VersionTag{Version: binary.BigEndian.Uint64(header[:])}

	if CarriesSubversion(tag.Version) {
		n, err := io.ReadFull(reader, header[:1])
		if err != nil {
			return VersionTag{}, headerError("subversion", 1, n, err)
		}
		tag.Subversion = header[0]
		tag.HasSubversion = true
	}
	if CarriesSubsubversion(tag.Version) {
		n, err := io.ReadFull(reader, header[:1])
		if err != nil {
			return VersionTag{}, headerError("subsubversion", 1, n, err)
		}
		tag.Subsubversion = header[0]
		tag.HasSubsubversion = true
	}
	return tag, nil
}

func headerError(part string, need, got int, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &TruncatedHeaderError{Part: part, Need: need, Got: got}
	}
	return errors.Wrapf(err, "error reading %s", part)
}

// stream decodes records until EOF, an error, or `ctx` is done, then reconstructs time.
func (session *Session) stream(ctx context.Context, reader io.Reader, layout *Layout, logger logging.Logger) error {
	session.Layout = layout
	session.State = LayoutResolved

	err := session.decodeAll(ctx, reader, layout, logger)
	if err != nil {
		session.State = Failed
		logger.Warnw("Stopped decoding", "records", len(session.Records), "error", err)
	} else {
		session.State = Done
		logger.Infow("Decoded log", "records", len(session.Records))
	}

	if ReconstructTime(session.Records) {
		session.TimeReconstructed = true
		logger.Debugw("Reconstructed time from robot_dt", "records", len(session.Records))
	}
	return err
}

func (session *Session) decodeAll(ctx context.Context, reader io.Reader, layout *Layout, logger logging.Logger) error {
	session.State = Streaming
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := layout.DecodeFrom(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			var lengthErr *LengthError
			if errors.As(err, &lengthErr) {
				lengthErr.Record = len(session.Records)
			}
			return err
		}

		session.Records = append(session.Records, record)
		logger.Debugw("Decoded record", "index", len(session.Records)-1, "time", record.Time)
	}
}
