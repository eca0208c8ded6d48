package diskstore

import (
	"errors"
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/relmq/relmq"
	"github.com/relmq/relmq/message"
)

// headerLen is the width, in bytes, of both the index-image offset
// stored at the start of master.idx and the length prefix stored in
// front of every image.
const headerLen = 8

// entry is a single queue or topic slot: a message's id alongside its
// headers and the name of the file holding its body.
type entry struct {
	ID      string
	Headers map[string]message.Value
	File    string
}

// snapshot is the full durable state of a diskstore directory.
type snapshot struct {
	Queues map[string][]entry
	Topics map[string]entry
	Free   []string
}

func emptySnapshot() snapshot {
	return snapshot{Queues: make(map[string][]entry), Topics: make(map[string]entry)}
}

func (s snapshot) clone() snapshot {
	out := snapshot{
		Queues: make(map[string][]entry, len(s.Queues)),
		Topics: make(map[string]entry, len(s.Topics)),
		Free:   append([]string(nil), s.Free...),
	}
	for q, entries := range s.Queues {
		out.Queues[q] = append([]entry(nil), entries...)
	}
	for t, e := range s.Topics {
		out.Topics[t] = e
	}
	return out
}

// readIndex loads the current image from f, or an empty snapshot if f is
// a freshly created, zero-length file. It returns the offset and length
// of the image read (for use as the next-fit baseline) and whether an
// image was present at all.
func readIndex(f *os.File) (snapshot, uint64, uint64, bool, error) {
	info, err := f.Stat()
	if err != nil {
		return snapshot{}, 0, 0, false, err
	}
	if info.Size() == 0 {
		return emptySnapshot(), 0, 0, false, nil
	}

	header := make([]byte, headerLen)
	if _, err := f.ReadAt(header, 0); err != nil {
		return snapshot{}, 0, 0, false, fmt.Errorf("%w: read index header: %v", relmq.ErrStoreCorrupt, err)
	}
	offset, err := parseHex(header)
	if err != nil {
		return snapshot{}, 0, 0, false, fmt.Errorf("%w: decode index header: %v", relmq.ErrStoreCorrupt, err)
	}

	lenBuf := make([]byte, headerLen)
	if _, err := f.ReadAt(lenBuf, int64(offset)); err != nil {
		return snapshot{}, 0, 0, false, fmt.Errorf("%w: read image length: %v", relmq.ErrStoreCorrupt, err)
	}
	length, err := parseHex(lenBuf)
	if err != nil {
		return snapshot{}, 0, 0, false, fmt.Errorf("%w: decode image length: %v", relmq.ErrStoreCorrupt, err)
	}

	payload := make([]byte, length)
	if _, err := f.ReadAt(payload, int64(offset)+headerLen); err != nil {
		return snapshot{}, 0, 0, false, fmt.Errorf("%w: read image payload: %v", relmq.ErrStoreCorrupt, err)
	}

	var snap snapshot
	if err := msgpack.Unmarshal(payload, &snap); err != nil {
		return snapshot{}, 0, 0, false, fmt.Errorf("%w: decode image: %v", relmq.ErrStoreCorrupt, err)
	}
	if snap.Queues == nil {
		snap.Queues = make(map[string][]entry)
	}
	if snap.Topics == nil {
		snap.Topics = make(map[string]entry)
	}
	return snap, offset, length, true, nil
}

// writeIndex serializes snap and writes it next-fit relative to
// (curOffset, curLen), flipping the header pointer only after the new
// image is fully on disk. It returns the offset and length of the image
// just written, to become the new next-fit baseline.
func writeIndex(f *os.File, snap snapshot, curOffset, curLen uint64, fsync bool, hasImage bool) (uint64, uint64, error) {
	payload, err := msgpack.Marshal(snap)
	if err != nil {
		return 0, 0, err
	}
	newLen := uint64(len(payload))

	var newOffset uint64
	if !hasImage || headerLen+newLen+headerLen <= curOffset {
		newOffset = headerLen
	} else {
		newOffset = curOffset + headerLen + curLen
	}

	block := make([]byte, 0, headerLen+len(payload))
	block = append(block, []byte(formatHex(newLen))...)
	block = append(block, payload...)
	if _, err := f.WriteAt(block, int64(newOffset)); err != nil {
		return 0, 0, err
	}
	if fsync {
		if err := f.Sync(); err != nil {
			return 0, 0, err
		}
	}

	if _, err := f.WriteAt([]byte(formatHex(newOffset)), 0); err != nil {
		return 0, 0, err
	}
	if fsync {
		if err := f.Sync(); err != nil {
			return 0, 0, err
		}
	}

	return newOffset, newLen, nil
}

func formatHex(v uint64) string {
	return fmt.Sprintf("%08x", v)
}

func parseHex(b []byte) (uint64, error) {
	var v uint64
	if _, err := fmt.Sscanf(string(b), "%08x", &v); err != nil {
		return 0, errors.New("diskstore: malformed hex field")
	}
	return v, nil
}
